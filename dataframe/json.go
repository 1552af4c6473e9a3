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
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/marketdash/common"
)

type jsonFrame struct {
	Dates   []string     `json:"dates"`
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

// NullableColumn converts a column to pointers; NaN and +/-Inf become nil so they encode as null
func NullableColumn(col []float64) []*float64 {
	res := make([]*float64, len(col))
	for idx := range col {
		if math.IsNaN(col[idx]) || math.IsInf(col[idx], 0) {
			continue
		}
		val := col[idx]
		res[idx] = &val
	}
	return res
}

// MarshalJSON encodes the dataframe column major with ISO dates; missing values are null
func (df *DataFrame) MarshalJSON() ([]byte, error) {
	out := jsonFrame{
		Dates:   make([]string, len(df.Dates)),
		Columns: df.ColNames,
		Values:  make([][]*float64, len(df.Vals)),
	}

	if out.Columns == nil {
		out.Columns = []string{}
	}

	for idx, dt := range df.Dates {
		out.Dates[idx] = dt.Format(common.DateLayout)
	}

	for idx, col := range df.Vals {
		out.Values[idx] = NullableColumn(col)
	}

	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON; null values become NaN
func (df *DataFrame) UnmarshalJSON(data []byte) error {
	var in jsonFrame
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	if len(in.Columns) != len(in.Values) {
		return fmt.Errorf("%w: %d names for %d columns", ErrColumnLength, len(in.Columns), len(in.Values))
	}

	dates := make([]time.Time, len(in.Dates))
	for idx, s := range in.Dates {
		dt, err := common.ParseDate(s)
		if err != nil {
			return err
		}
		dates[idx] = dt
	}

	vals := make([][]float64, len(in.Values))
	for colIdx, col := range in.Values {
		if len(col) != len(dates) {
			return fmt.Errorf("%w: column %s", ErrColumnLength, in.Columns[colIdx])
		}
		vals[colIdx] = make([]float64, len(col))
		for rowIdx, val := range col {
			if val == nil {
				vals[colIdx][rowIdx] = math.NaN()
			} else {
				vals[colIdx][rowIdx] = *val
			}
		}
	}

	df.Dates = dates
	df.ColNames = in.Columns
	df.Vals = vals
	return nil
}
