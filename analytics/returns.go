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

// Package analytics derives chart-ready statistics from price tables: normalized
// growth, daily returns, annualized risk and return, correlation and moving averages.
// Every function is pure; inputs are never modified.
package analytics

import (
	"fmt"

	"github.com/penny-vault/marketdash/dataframe"
)

const (
	// TradingDaysPerYear scales daily statistics to annual figures
	TradingDaysPerYear = 252

	// DefaultSMAWindow is the number of sessions averaged by the technical view
	DefaultSMAWindow = 20

	// MinBubbleSize is the floor applied to Sharpe when used as a marker size
	MinBubbleSize = 0.1
)

// DailyReturns computes (p[t] / p[t-1]) - 1 for each column. The first row has no
// predecessor and is dropped, so the result has one fewer row than prices.
func DailyReturns(prices *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	if prices.Len() < 2 || prices.ColCount() == 0 {
		return nil, fmt.Errorf("%w: daily returns need at least 2 rows and 1 column, got %d rows and %d columns",
			ErrInsufficientData, prices.Len(), prices.ColCount())
	}

	pct := prices.PctChange()
	return pct.Trim(pct.Dates[1], pct.End()), nil
}
