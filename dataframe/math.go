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
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// AddScalar adds the scalar value to all columns in dataframe df and returns a new dataframe
func (df *DataFrame) AddScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		floats.AddConst(scalar, df.Vals[colIdx])
	}
	return df
}

// Div divides all columns in `df` by the corresponding column in `other` and returns a new dataframe.
// Columns missing from other are left unchanged. Panics if rows are not equal.
func (df *DataFrame) Div(other *DataFrame) *DataFrame {
	df = df.Copy()

	otherMap := make(map[string]int, len(other.ColNames))
	for idx, val := range other.ColNames {
		otherMap[val] = idx
	}

	for idx, colName := range df.ColNames {
		if otherIdx, ok := otherMap[colName]; ok {
			floats.Div(df.Vals[idx], other.Vals[otherIdx])
		}
	}
	return df
}

// MulScalar multiplies all columns in dataframe df by the scalar and returns a new dataframe
func (df *DataFrame) MulScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		floats.Scale(scalar, df.Vals[colIdx])
	}
	return df
}

// PctChange computes (x[t] / x[t-1]) - 1 for every column. The first row has no
// predecessor and is NaN; the result has the same length as df.
func (df *DataFrame) PctChange() *DataFrame {
	lagged := df.Lag(1)
	return df.Div(lagged).AddScalar(-1.0)
}

// Mean returns the arithmetic mean of each column, keyed by column name
func (df *DataFrame) Mean() map[string]float64 {
	res := make(map[string]float64, len(df.ColNames))
	for idx, colName := range df.ColNames {
		res[colName] = stat.Mean(df.Vals[idx], nil)
	}
	return res
}

// StdDev returns the sample (n-1) standard deviation of each column, keyed by column name
func (df *DataFrame) StdDev() map[string]float64 {
	res := make(map[string]float64, len(df.ColNames))
	for idx, colName := range df.ColNames {
		res[colName] = stat.StdDev(df.Vals[idx], nil)
	}
	return res
}

// Matrix returns the values of df as a rows x cols dense matrix
func (df *DataFrame) Matrix() *mat.Dense {
	if df.Len() == 0 || df.ColCount() == 0 {
		return &mat.Dense{}
	}

	m := mat.NewDense(df.Len(), df.ColCount(), nil)
	for colIdx, col := range df.Vals {
		m.SetCol(colIdx, col)
	}
	return m
}

// SMA computes the simple moving average of all the columns in df for the specified
// lookback period. The length of the resulting dataframe equals that of the input with NaNs during the warm-up period.
// Lookback periods longer than the dataframe result in a dataframe of all NaN.
func (df *DataFrame) SMA(lookback int) *DataFrame {
	if (lookback > df.Len()) || (lookback <= 0) {
		log.Debug().Int("Lookback", lookback).Int("NRows", df.Len()).Msg("sma lookback exceeds rows; result is all NaN")
		nullDf := &DataFrame{
			Dates:    df.Dates,
			Vals:     make([][]float64, df.ColCount()),
			ColNames: df.ColNames,
		}
		for colIdx := range nullDf.Vals {
			nullDf.Vals[colIdx] = make([]float64, df.Len())
			for rowIdx := range nullDf.Vals[colIdx] {
				nullDf.Vals[colIdx][rowIdx] = math.NaN()
			}
		}
		return nullDf
	}

	filterBank := make([][]float64, df.ColCount())
	for idx := range filterBank {
		filterBank[idx] = make([]float64, lookback)
	}

	smaVals := make([][]float64, df.ColCount())
	for idx := range smaVals {
		smaVals[idx] = make([]float64, df.Len())
	}

	for rowIdx := range df.Dates {
		// row is 0 based, lookback is 1 based
		warmup := rowIdx < (lookback - 1)
		filterBankIdx := rowIdx % lookback

		for colIdx := range df.Vals {
			filterBank[colIdx][filterBankIdx] = df.Vals[colIdx][rowIdx]
			if warmup {
				smaVals[colIdx][rowIdx] = math.NaN()
			} else {
				smaVals[colIdx][rowIdx] = stat.Mean(filterBank[colIdx], nil)
			}
		}
	}

	return &DataFrame{
		Dates:    df.Dates,
		Vals:     smaVals,
		ColNames: df.ColNames,
	}
}
