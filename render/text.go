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

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"

	"github.com/penny-vault/marketdash/dashboard"
)

// Text writes every view present in result as tables, with an ascii chart of
// the performance and technical series
func Text(w io.Writer, result *dashboard.Result) {
	if result.Performance != nil {
		performance(w, result.Performance)
	}

	if result.Risk != nil {
		risk(w, result.Risk)
	}

	if result.Correlation != nil {
		correlation(w, result.Correlation)
	}

	if result.Technical != nil {
		technical(w, result.Technical)
	}
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	return table
}

func performance(w io.Writer, view *dashboard.PerformanceView) {
	fmt.Fprintln(w, "PERFORMANCE (base 100)")

	series := make([][]float64, 0, len(view.Series))
	names := make([]string, 0, len(view.Series))
	for _, s := range view.Series {
		vals := make([]float64, 0, len(s.Values))
		for _, val := range s.Values {
			if val != nil {
				vals = append(vals, *val)
			}
		}
		if len(vals) > 0 {
			series = append(series, vals)
			names = append(names, s.Name)
		}
	}

	if len(series) > 0 && len(view.Dates) > 0 {
		caption := fmt.Sprintf("%s: %s to %s", strings.Join(names, ", "), view.Dates[0], view.Dates[len(view.Dates)-1])
		fmt.Fprintln(w, asciigraph.PlotMany(series, asciigraph.Height(15), asciigraph.Width(80), asciigraph.Caption(caption)))
		fmt.Fprintln(w)
	}

	table := newTable(w, "Asset", "Ticker", "Change %")
	for _, perf := range view.Performance {
		table.Append([]string{perf.Name, perf.Ticker, fmt.Sprintf("%.2f", perf.Percent)})
	}
	table.Render()
	fmt.Fprintln(w)
}

func risk(w io.Writer, view *dashboard.RiskView) {
	fmt.Fprintln(w, "RISK / REWARD")

	table := newTable(w, "Asset", "Ticker", "Ann. Return %", "Ann. Volatility %", "Sharpe", "Bubble")
	for _, point := range view.Points {
		table.Append([]string{
			point.Name,
			point.Ticker,
			fmt.Sprintf("%.2f", point.AnnualizedReturn),
			fmt.Sprintf("%.2f", point.AnnualizedVolatility),
			fmt.Sprintf("%.3f", point.Sharpe),
			fmt.Sprintf("%.3f", point.BubbleSize),
		})
	}
	table.Render()

	if len(view.Excluded) > 0 {
		fmt.Fprintf(w, "excluded (no defined Sharpe ratio): %s\n", strings.Join(view.Excluded, ", "))
	}
	fmt.Fprintln(w)
}

func correlation(w io.Writer, view *dashboard.CorrelationView) {
	fmt.Fprintln(w, "CORRELATION OF DAILY RETURNS")

	table := newTable(w, append([]string{""}, view.Names...)...)
	for idx, name := range view.Names {
		row := make([]string, 0, len(view.Values[idx])+1)
		row = append(row, name)
		for _, val := range view.Values[idx] {
			row = append(row, fmt.Sprintf("%.3f", val))
		}
		table.Append(row)
	}
	table.Render()

	if len(view.Excluded) > 0 {
		fmt.Fprintf(w, "excluded (zero variance): %s\n", strings.Join(view.Excluded, ", "))
	}
	fmt.Fprintln(w)
}

func technical(w io.Writer, view *dashboard.TechnicalView) {
	fmt.Fprintf(w, "TECHNICAL: %s with %d-session moving average\n", view.Name, view.Window)

	closes := make([]float64, len(view.Candles))
	sma := make([]float64, 0, len(view.Candles))
	for idx, candle := range view.Candles {
		closes[idx] = candle.Close
		if candle.SMA != nil {
			sma = append(sma, *candle.SMA)
		}
	}

	if len(closes) > 0 {
		fmt.Fprintln(w, asciigraph.Plot(closes, asciigraph.Height(15), asciigraph.Width(80), asciigraph.Caption("close")))
	}
	if len(sma) > 0 {
		fmt.Fprintln(w, asciigraph.Plot(sma, asciigraph.Height(8), asciigraph.Width(80), asciigraph.Caption(fmt.Sprintf("SMA%d", view.Window))))
	}

	table := newTable(w, "Date", "Open", "High", "Low", "Close", fmt.Sprintf("SMA%d", view.Window))
	start := len(view.Candles) - 10
	if start < 0 {
		start = 0
	}
	for _, candle := range view.Candles[start:] {
		smaStr := "-"
		if candle.SMA != nil {
			smaStr = fmt.Sprintf("%.2f", *candle.SMA)
		}
		table.Append([]string{
			candle.Date.Format("2006-01-02"),
			fmt.Sprintf("%.2f", candle.Open),
			fmt.Sprintf("%.2f", candle.High),
			fmt.Sprintf("%.2f", candle.Low),
			fmt.Sprintf("%.2f", candle.Close),
			smaStr,
		})
	}
	table.Render()
	fmt.Fprintln(w)
}
