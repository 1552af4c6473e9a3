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

	"github.com/penny-vault/marketdash/dataframe"
)

// Normalize rescales each column so that it starts at 100
func Normalize(prices *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	if prices.Len() == 0 || prices.ColCount() == 0 {
		return nil, fmt.Errorf("%w: cannot normalize an empty table", ErrInsufficientData)
	}

	base := prices.Copy()
	for colIdx, col := range prices.Vals {
		first := col[0]
		if first == 0 || math.IsNaN(first) || math.IsInf(first, 0) {
			return nil, fmt.Errorf("%w: column %s starts with %v", ErrInvalidBaseValue, prices.ColNames[colIdx], first)
		}
		for rowIdx := range base.Vals[colIdx] {
			base.Vals[colIdx][rowIdx] = first
		}
	}

	return prices.Div(base).MulScalar(100), nil
}

// Performance is the cumulative percent change of each column over the table:
// (last / first - 1) * 100
func Performance(prices *dataframe.DataFrame) (map[string]float64, error) {
	if prices.Len() < 2 || prices.ColCount() == 0 {
		return nil, fmt.Errorf("%w: performance needs at least 2 rows and 1 column", ErrInsufficientData)
	}

	perf := make(map[string]float64, prices.ColCount())
	last := prices.Last()
	for colIdx, col := range prices.Vals {
		first := col[0]
		if first == 0 || math.IsNaN(first) || math.IsInf(first, 0) {
			return nil, fmt.Errorf("%w: column %s starts with %v", ErrInvalidBaseValue, prices.ColNames[colIdx], first)
		}
		perf[prices.ColNames[colIdx]] = (last.Vals[colIdx][0]/first - 1) * 100
	}

	return perf, nil
}
