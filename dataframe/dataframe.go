// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataframe

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
)

// New creates a dataframe and checks that every column matches the date index
func New(dates []time.Time, colNames []string, vals ...[]float64) (*DataFrame, error) {
	if len(colNames) != len(vals) {
		return nil, fmt.Errorf("%w: %d names for %d columns", ErrColumnLength, len(colNames), len(vals))
	}

	for idx, col := range vals {
		if len(col) != len(dates) {
			return nil, fmt.Errorf("%w: column %s has %d rows, index has %d", ErrColumnLength, colNames[idx], len(col), len(dates))
		}
	}

	return &DataFrame{
		Dates:    dates,
		ColNames: colNames,
		Vals:     vals,
	}, nil
}

// Breakout takes a dataframe with multiple columns and returns a map of dataframes, one per column
func (df *DataFrame) Breakout() Map {
	dfMap := Map{}
	for idx, col := range df.ColNames {
		dfMap[col] = &DataFrame{
			Dates:    df.Dates,
			ColNames: []string{col},
			Vals:     [][]float64{df.Vals[idx]},
		}
	}
	return dfMap
}

// ColIndex returns the index of the named column or -1 if it doesn't exist
func (df *DataFrame) ColIndex(colName string) int {
	for idx, val := range df.ColNames {
		if colName == val {
			return idx
		}
	}

	return -1
}

// ColCount returns the number of columns in the dataframe
func (df *DataFrame) ColCount() int {
	return len(df.ColNames)
}

// Column returns the values of the named column. The slice is shared with the dataframe.
func (df *DataFrame) Column(colName string) ([]float64, error) {
	idx := df.ColIndex(colName)
	if idx == -1 {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, colName)
	}
	return df.Vals[idx], nil
}

// Copy creates a deep copy of the dataframe
func (df *DataFrame) Copy() *DataFrame {
	df2 := &DataFrame{
		ColNames: make([]string, len(df.ColNames)),
		Dates:    make([]time.Time, len(df.Dates)),
		Vals:     make([][]float64, len(df.Vals)),
	}

	copy(df2.ColNames, df.ColNames)
	copy(df2.Dates, df.Dates)

	for idx := range df2.Vals {
		df2.Vals[idx] = make([]float64, len(df.Vals[idx]))
		copy(df2.Vals[idx], df.Vals[idx])
	}

	return df2
}

// End returns the last date in the dataframe
func (df *DataFrame) End() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[len(df.Dates)-1]
}

// InsertRow adds a new row to the dataframe. Date must be after the last date in the dataframe and vals must equal the number
// of columns. If either of these conditions are not met then panic
func (df *DataFrame) InsertRow(date time.Time, vals ...float64) *DataFrame {
	if len(df.Dates) != 0 {
		last := df.Dates[len(df.Dates)-1]
		if !last.Before(date) {
			log.Panic().Time("lastDate", last).Time("newDate", date).Msg("newDate must be after lastDate")
		}
	}

	if len(vals) != len(df.ColNames) {
		log.Panic().Int("NumValsPassed", len(vals)).Int("NumColumns", len(df.ColNames)).Msg("number of vals passed must equal number of columns")
	}

	if len(df.Vals) != len(df.ColNames) {
		df.Vals = make([][]float64, len(df.ColNames))
	}

	df.Dates = append(df.Dates, date)
	for colIdx := range df.ColNames {
		df.Vals[colIdx] = append(df.Vals[colIdx], vals[colIdx])
	}

	return df
}

// Lag shifts the dataframe by the specified number of rows, replacing shifted values by math.NaN() and returns a new dataframe
func (df *DataFrame) Lag(n int) *DataFrame {
	df = df.Copy()
	for idx, col := range df.Vals {
		shifted := make([]float64, len(col))
		for rowIdx := range shifted {
			if rowIdx < n {
				shifted[rowIdx] = math.NaN()
			} else {
				shifted[rowIdx] = col[rowIdx-n]
			}
		}
		df.Vals[idx] = shifted
	}
	return df
}

// Last returns a new dataframe with only the last row of the current dataframe
func (df *DataFrame) Last() *DataFrame {
	if df.Len() == 0 {
		return df
	}

	lastRow := len(df.Dates) - 1
	lastVals := make([][]float64, len(df.ColNames))
	for idx, col := range df.Vals {
		lastVals[idx] = []float64{col[lastRow]}
	}

	return &DataFrame{
		ColNames: df.ColNames,
		Dates:    []time.Time{df.Dates[lastRow]},
		Vals:     lastVals,
	}
}

// Len returns the number of rows in the dataframe
func (df *DataFrame) Len() int {
	return len(df.Dates)
}

// Reindex conforms the dataframe to the given ascending date index. Dates not present in
// df are filled with NaN; dates in df not present in the index are discarded.
func (df *DataFrame) Reindex(dates []time.Time) *DataFrame {
	res := &DataFrame{
		Dates:    dates,
		ColNames: df.ColNames,
		Vals:     make([][]float64, len(df.ColNames)),
	}

	for colIdx := range res.Vals {
		res.Vals[colIdx] = make([]float64, len(dates))
	}

	srcIdx := 0
	for rowIdx, dt := range dates {
		for srcIdx < len(df.Dates) && df.Dates[srcIdx].Before(dt) {
			srcIdx++
		}

		match := srcIdx < len(df.Dates) && df.Dates[srcIdx].Equal(dt)
		for colIdx := range res.Vals {
			if match {
				res.Vals[colIdx][rowIdx] = df.Vals[colIdx][srcIdx]
			} else {
				res.Vals[colIdx][rowIdx] = math.NaN()
			}
		}
	}

	return res
}

// Select returns a new dataframe containing only the requested columns in the order requested
func (df *DataFrame) Select(columns ...string) (*DataFrame, error) {
	res := &DataFrame{
		Dates:    df.Dates,
		ColNames: make([]string, 0, len(columns)),
		Vals:     make([][]float64, 0, len(columns)),
	}

	for _, colName := range columns {
		idx := df.ColIndex(colName)
		if idx == -1 {
			return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, colName)
		}
		res.ColNames = append(res.ColNames, colName)
		res.Vals = append(res.Vals, df.Vals[idx])
	}

	return res, nil
}

// Split the dataframe into 2, with columns being in the first dataframe and
// all remaining columns in the second
func (df *DataFrame) Split(columns ...string) (*DataFrame, *DataFrame) {
	one := &DataFrame{
		Dates:    df.Dates,
		ColNames: []string{},
		Vals:     [][]float64{},
	}

	two := &DataFrame{
		Dates:    df.Dates,
		ColNames: []string{},
		Vals:     [][]float64{},
	}

	colMap := make(map[string]bool, len(columns))
	for _, col := range columns {
		colMap[col] = true
	}

	for idx, col := range df.ColNames {
		if colMap[col] {
			one.ColNames = append(one.ColNames, col)
			one.Vals = append(one.Vals, df.Vals[idx])
		} else {
			two.ColNames = append(two.ColNames, col)
			two.Vals = append(two.Vals, df.Vals[idx])
		}
	}

	return one, two
}

// Start returns the first date of the dataframe
func (df *DataFrame) Start() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[0]
}

// Table renders an ASCII formatted table
func (df *DataFrame) Table() string {
	if len(df.Dates) == 0 {
		return "<NO DATA>"
	}

	tableCols := append([]string{"Date"}, df.ColNames...)

	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader(tableCols)
	footer := make([]string, len(tableCols))
	footer[0] = "Num Rows"
	if len(footer) > 1 {
		footer[1] = fmt.Sprintf("%d", df.Len())
	}
	table.SetFooter(footer)
	table.SetBorder(false)

	for rowIdx, dt := range df.Dates {
		row := make([]string, 0, len(df.Vals)+1)
		row = append(row, dt.Format("2006-01-02"))
		for _, col := range df.Vals {
			if math.IsNaN(col[rowIdx]) {
				row = append(row, "-")
			} else {
				row = append(row, fmt.Sprintf("%.4f", col[rowIdx]))
			}
		}
		table.Append(row)
	}

	table.Render()
	return s.String()
}

// Trim returns a new dataframe restricted to the date range [begin, end] (inclusive)
func (df *DataFrame) Trim(begin, end time.Time) *DataFrame {
	res := &DataFrame{
		ColNames: df.ColNames,
		Dates:    []time.Time{},
		Vals:     make([][]float64, len(df.Vals)),
	}

	for colIdx := range res.Vals {
		res.Vals[colIdx] = []float64{}
	}

	if end.Before(begin) || df.Len() == 0 {
		return res
	}

	beginIdx := sort.Search(len(df.Dates), func(i int) bool {
		return !df.Dates[i].Before(begin)
	})

	endIdx := sort.Search(len(df.Dates), func(i int) bool {
		return df.Dates[i].After(end)
	})

	if beginIdx >= endIdx {
		return res
	}

	res.Dates = df.Dates[beginIdx:endIdx]
	for colIdx, col := range df.Vals {
		res.Vals[colIdx] = col[beginIdx:endIdx]
	}

	return res
}
