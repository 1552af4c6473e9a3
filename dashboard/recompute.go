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
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/penny-vault/marketdash/analytics"
	"github.com/penny-vault/marketdash/common"
	"github.com/penny-vault/marketdash/data"
	"github.com/penny-vault/marketdash/dataframe"
	"github.com/penny-vault/marketdash/observability/opentelemetry"
)

// Recompute loads prices for the selected assets and builds the requested views.
// A load failure aborts the whole computation; nothing is partially computed.
func Recompute(ctx context.Context, loader data.PriceLoader, universe *data.Universe, state *State) (*Result, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "dashboard.Recompute")
	defer span.End()

	state = state.Resolve(universe)
	span.SetAttributes(
		attribute.StringSlice("Assets", state.Assets),
		attribute.String("View", string(state.View)),
	)

	subLog := log.With().Object("State", state).Logger()

	if err := state.Validate(); err != nil {
		subLog.Warn().Err(err).Msg("invalid dashboard state")
		return nil, err
	}

	req, err := data.NewRequest(state.Assets, state.Begin, state.End)
	if err != nil {
		return nil, err
	}

	ps, err := loader.Load(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		subLog.Error().Err(err).Msg("could not load prices for dashboard")
		return nil, err
	}

	result := &Result{
		State: state,
	}

	want := func(view View) bool {
		return state.View == view || state.View == ViewAll
	}

	var prices *dataframe.DataFrame
	if want(ViewPerformance) || want(ViewRisk) || want(ViewCorrelation) {
		if prices, err = ps.Flatten(data.MetricAdjustedClose); err != nil {
			return nil, err
		}

		if err := checkComplete(prices); err != nil {
			span.RecordError(err)
			subLog.Error().Err(err).Msg("prices incomplete after filling gaps")
			return nil, err
		}
	}

	if want(ViewPerformance) {
		if result.Performance, err = performanceView(universe, prices); err != nil {
			return nil, err
		}
	}

	if want(ViewRisk) {
		if result.Risk, err = riskView(universe, prices); err != nil {
			return nil, err
		}
	}

	if want(ViewCorrelation) {
		if result.Correlation, err = correlationView(universe, prices); err != nil {
			return nil, err
		}
	}

	if want(ViewTechnical) {
		if result.Technical, err = technicalView(universe, ps, state.Focus, state.Window); err != nil {
			return nil, err
		}
	}

	subLog.Debug().Msg("recomputed dashboard")
	return result, nil
}

// checkComplete fails with a LoadError naming every ticker that still has missing
// prices after gap filling, which only happens when a source returned no usable
// price for it at all
func checkComplete(prices *dataframe.DataFrame) error {
	if !prices.HasNA() {
		return nil
	}

	cols := prices.Breakout()
	incomplete := []string{}
	for _, ticker := range prices.ColNames {
		if cols[ticker].HasNA() {
			incomplete = append(incomplete, ticker)
		}
	}

	return &data.LoadError{Tickers: incomplete, Err: data.ErrNoData}
}

func performanceView(universe *data.Universe, prices *dataframe.DataFrame) (*PerformanceView, error) {
	normalized, err := analytics.Normalize(prices)
	if err != nil {
		return nil, err
	}

	perf, err := analytics.Performance(prices)
	if err != nil {
		return nil, err
	}

	view := &PerformanceView{
		Dates:       make([]string, normalized.Len()),
		Series:      make([]Series, 0, normalized.ColCount()),
		Performance: make([]AssetPerformance, 0, normalized.ColCount()),
	}

	for idx, dt := range normalized.Dates {
		view.Dates[idx] = dt.Format(common.DateLayout)
	}

	for idx, ticker := range normalized.ColNames {
		asset := universe.Lookup(ticker)
		view.Series = append(view.Series, Series{
			Ticker: ticker,
			Name:   asset.Name,
			Color:  asset.Color,
			Values: dataframe.NullableColumn(normalized.Vals[idx]),
		})
		view.Performance = append(view.Performance, AssetPerformance{
			Ticker:  ticker,
			Name:    asset.Name,
			Color:   asset.Color,
			Percent: perf[ticker],
		})
	}

	return view, nil
}

func riskView(universe *data.Universe, prices *dataframe.DataFrame) (*RiskView, error) {
	report, err := analytics.Risk(prices)
	if err != nil {
		return nil, err
	}

	view := &RiskView{
		Points:   make([]RiskPoint, 0, len(report.Rows)),
		Excluded: report.Excluded,
	}

	for _, row := range report.Rows {
		asset := universe.Lookup(row.Ticker)
		view.Points = append(view.Points, RiskPoint{
			RiskRow:    row,
			Name:       asset.Name,
			Color:      asset.Color,
			BubbleSize: row.BubbleSize(),
		})
	}

	return view, nil
}

func correlationView(universe *data.Universe, prices *dataframe.DataFrame) (*CorrelationView, error) {
	rets, err := analytics.DailyReturns(prices)
	if err != nil {
		return nil, err
	}

	matrix, err := analytics.Correlation(rets)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(matrix.Tickers))
	for idx, ticker := range matrix.Tickers {
		names[idx] = universe.Lookup(ticker).Name
	}

	return &CorrelationView{
		Tickers:  matrix.Tickers,
		Names:    names,
		Values:   matrix.Values,
		Excluded: matrix.Excluded,
	}, nil
}

func technicalView(universe *data.Universe, ps *data.PriceSet, focus string, window int) (*TechnicalView, error) {
	bars, err := ps.Get(focus)
	if err != nil {
		return nil, err
	}

	series, err := analytics.Technical(focus, bars, window)
	if err != nil {
		return nil, err
	}

	asset := universe.Lookup(focus)
	return &TechnicalView{
		Name:            asset.Name,
		Color:           asset.Color,
		TechnicalSeries: series,
	}, nil
}

// UserMessage converts an error returned by Recompute into a single sentence
// suitable for display
func UserMessage(err error) string {
	var loadErr *data.LoadError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoAssets):
		return "Please select at least one asset."
	case errors.As(err, &loadErr):
		return "Could not load price data for " + strings.Join(loadErr.Tickers, ", ") + ". Check the symbols and date range and try again."
	case errors.Is(err, data.ErrBeginAfterEnd):
		return "The start date must not be after the end date."
	case errors.Is(err, ErrFocusNotSelected):
		return "The asset shown on the technical view must be one of the selected assets."
	case errors.Is(err, ErrInvalidView):
		return "Unknown view. Choose performance, risk, correlation or technical."
	case errors.Is(err, analytics.ErrInvalidWindow):
		return "The moving average window must be a positive number of sessions."
	case errors.Is(err, analytics.ErrInsufficientData):
		return "The selected range has too few trading sessions to compute statistics."
	case errors.Is(err, analytics.ErrInvalidBaseValue):
		return "A selected asset has no price on the first day of the range."
	}

	return "Something went wrong while computing the dashboard."
}
