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

package analytics

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/penny-vault/marketdash/dataframe"
)

// CorrelationMatrix is a symmetric Pearson correlation matrix. Values[i][j] is the
// correlation between Tickers[i] and Tickers[j].
type CorrelationMatrix struct {
	Tickers  []string    `json:"tickers"`
	Values   [][]float64 `json:"values"`
	Excluded []string    `json:"excluded"`
}

// At returns the correlation between two tickers; ok is false if either is not in the matrix
func (cm *CorrelationMatrix) At(a, b string) (val float64, ok bool) {
	ai, bi := -1, -1
	for idx, ticker := range cm.Tickers {
		if ticker == a {
			ai = idx
		}
		if ticker == b {
			bi = idx
		}
	}

	if ai == -1 || bi == -1 {
		return 0, false
	}

	return cm.Values[ai][bi], true
}

// Correlation computes the pairwise Pearson correlation of the columns in returns.
// Columns with zero or undefined variance have no defined correlation and are
// excluded before the matrix is computed.
func Correlation(returns *dataframe.DataFrame) (*CorrelationMatrix, error) {
	if returns.Len() < 2 || returns.ColCount() == 0 {
		return nil, fmt.Errorf("%w: correlation needs at least 2 rows and 1 column, got %d rows and %d columns",
			ErrInsufficientData, returns.Len(), returns.ColCount())
	}

	res := &CorrelationMatrix{
		Tickers:  []string{},
		Values:   [][]float64{},
		Excluded: []string{},
	}

	keep := make([]string, 0, returns.ColCount())
	for colIdx, ticker := range returns.ColNames {
		variance := stat.Variance(returns.Vals[colIdx], nil)
		if variance == 0 || math.IsNaN(variance) || math.IsInf(variance, 0) {
			log.Debug().Str("Ticker", ticker).Msg("zero variance; excluding asset from correlation")
			res.Excluded = append(res.Excluded, ticker)
			continue
		}
		keep = append(keep, ticker)
	}

	if len(keep) == 0 {
		return res, nil
	}

	sub, _ := returns.Split(keep...)

	corr := &mat.SymDense{}
	stat.CorrelationMatrix(corr, sub.Matrix(), nil)

	n := len(keep)
	res.Tickers = keep
	res.Values = make([][]float64, n)
	for ii := 0; ii < n; ii++ {
		res.Values[ii] = make([]float64, n)
		for jj := 0; jj < n; jj++ {
			if ii == jj {
				res.Values[ii][jj] = 1.0
				continue
			}
			// clamp floating point drift outside [-1, 1]
			res.Values[ii][jj] = math.Max(-1, math.Min(1, corr.At(ii, jj)))
		}
	}

	return res, nil
}
