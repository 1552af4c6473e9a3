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

	"github.com/penny-vault/marketdash/dataframe"
)

// RiskRow summarizes the annualized risk and return of a single asset. All
// percentages are expressed on a 0-100 scale.
type RiskRow struct {
	Ticker               string  `json:"ticker"`
	AnnualizedReturn     float64 `json:"annualizedReturn"`
	AnnualizedVolatility float64 `json:"annualizedVolatility"`
	Sharpe               float64 `json:"sharpe"`
}

// BubbleSize is the marker size used on risk/reward scatter charts
func (row RiskRow) BubbleSize() float64 {
	return math.Max(row.Sharpe, MinBubbleSize)
}

// RiskReport holds the assets with a defined Sharpe ratio in Rows and the tickers
// that were dropped because their volatility was zero or not finite in Excluded.
type RiskReport struct {
	Rows     []RiskRow `json:"rows"`
	Excluded []string  `json:"excluded"`
}

// Risk computes annualized return, annualized volatility and Sharpe ratio for every
// column of prices. Assets whose Sharpe ratio is undefined are excluded rather than
// reported with a substitute value.
func Risk(prices *dataframe.DataFrame) (*RiskReport, error) {
	rets, err := DailyReturns(prices)
	if err != nil {
		return nil, err
	}

	report := &RiskReport{
		Rows:     make([]RiskRow, 0, rets.ColCount()),
		Excluded: []string{},
	}

	means := rets.Mean()
	stdDevs := rets.StdDev()
	for _, ticker := range rets.ColNames {
		annRet := means[ticker] * TradingDaysPerYear * 100
		annVol := stdDevs[ticker] * math.Sqrt(TradingDaysPerYear) * 100

		// a single return has no sample deviation
		if rets.Len() < 2 {
			annVol = math.NaN()
		}

		sharpe := annRet / annVol
		if annVol == 0 || math.IsNaN(annVol) || math.IsInf(annVol, 0) || math.IsNaN(sharpe) || math.IsInf(sharpe, 0) {
			log.Debug().Str("Ticker", ticker).Float64("AnnualizedVolatility", annVol).Msg("sharpe undefined; excluding asset from risk output")
			report.Excluded = append(report.Excluded, ticker)
			continue
		}

		report.Rows = append(report.Rows, RiskRow{
			Ticker:               ticker,
			AnnualizedReturn:     annRet,
			AnnualizedVolatility: annVol,
			Sharpe:               sharpe,
		})
	}

	return report, nil
}

// RiskTable is Risk without the list of excluded assets
func RiskTable(prices *dataframe.DataFrame) ([]RiskRow, error) {
	report, err := Risk(prices)
	if err != nil {
		return nil, fmt.Errorf("risk table: %w", err)
	}
	return report.Rows, nil
}
