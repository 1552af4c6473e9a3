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
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/penny-vault/marketdash/common"
	"github.com/penny-vault/marketdash/dataframe"
	"github.com/penny-vault/marketdash/observability/opentelemetry"
)

var yahooAPI = "https://query2.finance.yahoo.com"

const yahooUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Yahoo loads daily bars from the Yahoo Finance v8 chart API
type Yahoo struct {
	client *http.Client
}

type yahooChartResponse struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooChartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		Currency             string `json:"currency"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// NewYahoo creates a Yahoo provider that issues requests with client
func NewYahoo(client *http.Client) *Yahoo {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Yahoo{
		client: client,
	}
}

func (y *Yahoo) Name() string {
	return ProviderYahoo
}

// Fetch requests every ticker concurrently
func (y *Yahoo) Fetch(ctx context.Context, req *Request) (*PriceSet, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "yahoo.Fetch")
	defer span.End()

	ps, err := fetchConcurrently(ctx, req, y.fetchTicker)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "yahoo fetch failed")
		return nil, err
	}
	return ps, nil
}

func yahooChartURL(ticker string, begin, end time.Time) string {
	// period2 is exclusive so request through the end of the last day
	return fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=history&includeAdjustedClose=true",
		yahooAPI, url.PathEscape(ticker), begin.Unix(), end.AddDate(0, 0, 1).Unix())
}

func (y *Yahoo) fetchTicker(ctx context.Context, ticker string, begin, end time.Time) (*dataframe.DataFrame, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "yahoo.fetchTicker")
	defer span.End()

	subLog := log.With().Str("Ticker", ticker).Time("Begin", begin).Time("End", end).Logger()
	chartURL := yahooChartURL(ticker, begin, end)

	span.SetAttributes(
		attribute.String("Url", chartURL),
		attribute.String("Ticker", ticker),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, chartURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", yahooUserAgent)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := y.client.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		msg := "yahoo http request failed"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Msg(msg)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		msg := "could not read yahoo body"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Msg(msg)
		return nil, err
	}

	if resp.StatusCode >= 400 {
		span.SetAttributes(attribute.Int("StatusCode", resp.StatusCode))
		msg := "yahoo returned invalid response code"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Int("HTTPResponseStatusCode", resp.StatusCode).Msg(msg)
		return nil, fmt.Errorf("%w: HTTP status code %d", ErrUnexpectedResponse, resp.StatusCode)
	}

	chart := yahooChartResponse{}
	if err := json.Unmarshal(body, &chart); err != nil {
		span.RecordError(err)
		msg := "could not unmarshal json"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Msg(msg)
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedResponse, err.Error())
	}

	if chart.Chart.Error != nil {
		subLog.Error().Str("Code", chart.Chart.Error.Code).Str("Description", chart.Chart.Error.Description).Msg("yahoo returned an error")
		return nil, fmt.Errorf("%w: %s", ErrNotFound, chart.Chart.Error.Description)
	}

	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: empty chart result", ErrNoData)
	}

	return chart.Chart.Result[0].bars()
}

// bars converts the parallel arrays of a chart result into a frame. Yahoo reports
// nulls for sessions where a field is unavailable; those become NaN.
func (result *yahooChartResult) bars() (*dataframe.DataFrame, error) {
	n := len(result.Timestamp)
	if n == 0 || len(result.Indicators.Quote) == 0 {
		return nil, ErrNoData
	}

	tz, err := time.LoadLocation(result.Meta.ExchangeTimezoneName)
	if err != nil || result.Meta.ExchangeTimezoneName == "" {
		tz = time.UTC
	}

	quote := result.Indicators.Quote[0]
	var adjClose []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	bars := &dataframe.DataFrame{
		ColNames: BarColumns(),
	}

	for idx, ts := range result.Timestamp {
		dt := common.Day(time.Unix(ts, 0).In(tz))
		vals := []float64{
			valueAt(quote.Open, idx),
			valueAt(quote.High, idx),
			valueAt(quote.Low, idx),
			valueAt(quote.Close, idx),
			valueAt(adjClose, idx),
			valueAt(quote.Volume, idx),
		}

		// yahoo occasionally repeats the last session with an intraday timestamp
		if bars.Len() > 0 && !bars.End().Before(dt) {
			last := bars.Len() - 1
			for colIdx := range bars.Vals {
				bars.Vals[colIdx][last] = vals[colIdx]
			}
			continue
		}

		bars.InsertRow(dt, vals...)
	}

	return bars, nil
}

func valueAt(vals []*float64, idx int) float64 {
	if idx >= len(vals) || vals[idx] == nil {
		return math.NaN()
	}
	return *vals[idx]
}
