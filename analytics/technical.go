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
	"time"

	"github.com/penny-vault/marketdash/dataframe"
)

// Candle is a single OHLC bar with its moving average. SMA is nil during the warm-up period.
type Candle struct {
	Date  time.Time `json:"date"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
	SMA   *float64  `json:"sma"`
}

// TechnicalSeries is a candlestick series with a simple moving average overlay
type TechnicalSeries struct {
	Ticker  string   `json:"ticker"`
	Window  int      `json:"window"`
	Candles []Candle `json:"candles"`
}

// SMA computes the trailing arithmetic mean of closes over window sessions. The
// result has the same index as closes with NaN for the first window-1 sessions.
func SMA(closes *dataframe.DataFrame, window int) (*dataframe.DataFrame, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, window)
	}
	return closes.SMA(window), nil
}

// Technical builds candlestick bars for one asset from a frame with Open, High, Low
// and Close columns and overlays the window-session SMA of Close.
func Technical(ticker string, bars *dataframe.DataFrame, window int) (*TechnicalSeries, error) {
	ohlc, err := bars.Select("Open", "High", "Low", "Close")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingOHLC, err.Error())
	}

	if ohlc.Len() == 0 {
		return nil, fmt.Errorf("%w: no bars for %s", ErrInsufficientData, ticker)
	}

	closes, err := ohlc.Select("Close")
	if err != nil {
		return nil, err
	}

	sma, err := SMA(closes, window)
	if err != nil {
		return nil, err
	}

	smaVals := dataframe.NullableColumn(sma.Vals[0])
	series := &TechnicalSeries{
		Ticker:  ticker,
		Window:  window,
		Candles: make([]Candle, ohlc.Len()),
	}

	// sources that only report closes produce flat candles
	valueOrClose := func(col, rowIdx int) float64 {
		if val := ohlc.Vals[col][rowIdx]; !math.IsNaN(val) {
			return val
		}
		return ohlc.Vals[3][rowIdx]
	}

	for rowIdx, dt := range ohlc.Dates {
		series.Candles[rowIdx] = Candle{
			Date:  dt,
			Open:  valueOrClose(0, rowIdx),
			High:  valueOrClose(1, rowIdx),
			Low:   valueOrClose(2, rowIdx),
			Close: ohlc.Vals[3][rowIdx],
			SMA:   smaVals[rowIdx],
		}
	}

	return series, nil
}
