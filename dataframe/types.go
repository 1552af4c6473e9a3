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
	"errors"
	"time"
)

// DataFrame stores a table of values organized by date. Vals is column major, e.g.:
//
//	DATE        NVDA  GC=F
//	2025-01-02  1     4
//	2025-01-03  2     5
//	2025-01-06  3     6
//
// Vals[0] = [1 2 3] and Vals[1][0] = 4. Dates are ascending and unique; a missing
// observation is stored as math.NaN().
type DataFrame struct {
	Dates    []time.Time
	ColNames []string
	Vals     [][]float64
}

var (
	ErrColumnNotFound      = errors.New("column not found")
	ErrColumnLength        = errors.New("column length does not match date index")
)
