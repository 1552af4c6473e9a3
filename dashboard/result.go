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

package dashboard

import (
	"github.com/penny-vault/marketdash/analytics"
)

// Series is one line of a chart
type Series struct {
	Ticker string     `json:"ticker"`
	Name   string     `json:"name"`
	Color  string     `json:"color"`
	Values []*float64 `json:"values"`
}

// AssetPerformance is the cumulative change of an asset over the selected range
type AssetPerformance struct {
	Ticker  string  `json:"ticker"`
	Name    string  `json:"name"`
	Color   string  `json:"color"`
	Percent float64 `json:"percent"`
}

// PerformanceView is a line chart of prices rebased to 100
type PerformanceView struct {
	Dates       []string           `json:"dates"`
	Series      []Series           `json:"series"`
	Performance []AssetPerformance `json:"performance"`
}

// RiskPoint is one bubble on the risk/reward scatter
type RiskPoint struct {
	analytics.RiskRow
	Name       string  `json:"name"`
	Color      string  `json:"color"`
	BubbleSize float64 `json:"bubbleSize"`
}

type RiskView struct {
	Points   []RiskPoint `json:"points"`
	Excluded []string    `json:"excluded"`
}

// CorrelationView is a heatmap of daily return correlations. Names follows the
// order of Tickers.
type CorrelationView struct {
	Tickers  []string    `json:"tickers"`
	Names    []string    `json:"names"`
	Values   [][]float64 `json:"values"`
	Excluded []string    `json:"excluded"`
}

// TechnicalView is a candlestick chart of the focus asset with its moving average
type TechnicalView struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	*analytics.TechnicalSeries
}

// Result holds the views computed for a state. Only the views requested by
// State.View are set.
type Result struct {
	State       *State           `json:"state"`
	Performance *PerformanceView `json:"performance,omitempty"`
	Risk        *RiskView        `json:"risk,omitempty"`
	Correlation *CorrelationView `json:"correlation,omitempty"`
	Technical   *TechnicalView   `json:"technical,omitempty"`
}
