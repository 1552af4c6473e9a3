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

package data

import (
	"fmt"
	"math"
	"time"

	"github.com/penny-vault/marketdash/dataframe"
)

// PriceSet holds daily bars for a set of tickers. Each frame in Bars has the
// columns named by BarColumns; Tickers preserves the requested order.
type PriceSet struct {
	Tickers []string                        `json:"tickers"`
	Bars    map[string]*dataframe.DataFrame `json:"bars"`
}

// ColumnKey identifies a column of a two-level (field, ticker) price table
type ColumnKey struct {
	Field  string
	Ticker string
}

func NewPriceSet() *PriceSet {
	return &PriceSet{
		Tickers: []string{},
		Bars:    make(map[string]*dataframe.DataFrame),
	}
}

// FromMultiLevel splits a two-level price table into per-ticker bars. Fields that
// are not bar metrics (dividends, splits) are ignored and metrics absent from the
// table are filled with NaN.
func FromMultiLevel(dates []time.Time, keys []ColumnKey, vals [][]float64) (*PriceSet, error) {
	if len(keys) != len(vals) {
		return nil, fmt.Errorf("%w: %d column keys for %d columns", dataframe.ErrColumnLength, len(keys), len(vals))
	}

	ps := NewPriceSet()
	for idx, key := range keys {
		metric, err := ParseMetric(key.Field)
		if err != nil {
			continue
		}

		bars, ok := ps.Bars[key.Ticker]
		if !ok {
			bars = emptyBars(dates)
			ps.Add(key.Ticker, bars)
		}

		colIdx := bars.ColIndex(string(metric))
		bars.Vals[colIdx] = vals[idx]
	}

	return ps, nil
}

// emptyBars creates a frame with every bar column set to NaN
func emptyBars(dates []time.Time) *dataframe.DataFrame {
	cols := BarColumns()
	vals := make([][]float64, len(cols))
	for idx := range vals {
		vals[idx] = make([]float64, len(dates))
		for rowIdx := range vals[idx] {
			vals[idx][rowIdx] = math.NaN()
		}
	}

	return &dataframe.DataFrame{
		Dates:    dates,
		ColNames: cols,
		Vals:     vals,
	}
}

// Add sets the bars for ticker
func (ps *PriceSet) Add(ticker string, bars *dataframe.DataFrame) {
	if _, ok := ps.Bars[ticker]; !ok {
		ps.Tickers = append(ps.Tickers, ticker)
	}
	ps.Bars[ticker] = bars
}

// Get returns the bars for ticker
func (ps *PriceSet) Get(ticker string) (*dataframe.DataFrame, error) {
	bars, ok := ps.Bars[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotLoaded, ticker)
	}
	return bars, nil
}

// Missing returns the tickers that have no bars, or no rows, in the price set
func (ps *PriceSet) Missing(tickers []string) []string {
	missing := []string{}
	for _, ticker := range tickers {
		if bars, ok := ps.Bars[ticker]; !ok || bars.Len() == 0 {
			missing = append(missing, ticker)
		}
	}
	return missing
}

// Merge adds every ticker of other to ps
func (ps *PriceSet) Merge(other *PriceSet) *PriceSet {
	for _, ticker := range other.Tickers {
		ps.Add(ticker, other.Bars[ticker])
	}
	return ps
}

// Select returns a new price set restricted to tickers (in the given order) and
// the inclusive date range [begin, end]
func (ps *PriceSet) Select(tickers []string, begin, end time.Time) (*PriceSet, error) {
	res := NewPriceSet()
	for _, ticker := range tickers {
		bars, err := ps.Get(ticker)
		if err != nil {
			return nil, err
		}
		res.Add(ticker, bars.Trim(begin, end))
	}
	return res, nil
}

// Fill aligns every ticker on the union of dates in the set and fills gaps, first
// forward then backward. The result has no missing sessions unless a ticker has
// no observations for a metric at all.
func (ps *PriceSet) Fill() *PriceSet {
	aligned := dataframe.Map(ps.Bars).Reindex()
	res := NewPriceSet()
	for _, ticker := range ps.Tickers {
		res.Add(ticker, aligned[ticker].FFill().BFill())
	}
	return res
}

// Flatten builds a price table with one column per ticker holding metric. When
// AdjustedClose is requested but a ticker has none, Close is used.
func (ps *PriceSet) Flatten(metric Metric) (*dataframe.DataFrame, error) {
	cols := make(dataframe.Map, len(ps.Tickers))
	for _, ticker := range ps.Tickers {
		bars := ps.Bars[ticker]
		col, err := bars.Column(string(metric))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedMetric, metric)
		}

		if metric == MetricAdjustedClose && allNaN(col) {
			if col, err = bars.Column(string(MetricClose)); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedMetric, MetricClose)
			}
		}

		cols[ticker] = &dataframe.DataFrame{
			Dates:    bars.Dates,
			ColNames: []string{ticker},
			Vals:     [][]float64{col},
		}
	}

	return cols.Merge().Select(ps.Tickers...)
}

func allNaN(col []float64) bool {
	for _, val := range col {
		if !math.IsNaN(val) {
			return false
		}
	}
	return true
}
