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

import "math"

// FFill propagates the last valid observation forward over NaN values and returns a new dataframe.
// Leading NaNs are left in place.
func (df *DataFrame) FFill() *DataFrame {
	df = df.Copy()
	for _, col := range df.Vals {
		last := math.NaN()
		for rowIdx, val := range col {
			if math.IsNaN(val) {
				col[rowIdx] = last
			} else {
				last = val
			}
		}
	}
	return df
}

// BFill propagates the next valid observation backward over NaN values and returns a new dataframe.
// Trailing NaNs are left in place.
func (df *DataFrame) BFill() *DataFrame {
	df = df.Copy()
	for _, col := range df.Vals {
		next := math.NaN()
		for rowIdx := len(col) - 1; rowIdx >= 0; rowIdx-- {
			if math.IsNaN(col[rowIdx]) {
				col[rowIdx] = next
			} else {
				next = col[rowIdx]
			}
		}
	}
	return df
}

// HasNA reports whether any cell in df is NaN
func (df *DataFrame) HasNA() bool {
	for _, col := range df.Vals {
		for _, val := range col {
			if math.IsNaN(val) {
				return true
			}
		}
	}
	return false
}
