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
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/penny-vault/marketdash/common"
	"github.com/penny-vault/marketdash/dataframe"
	"github.com/penny-vault/marketdash/observability/opentelemetry"
)

var tiingoAPI = "https://api.tiingo.com"

// Tiingo loads daily bars from the Tiingo end-of-day prices endpoint in CSV format
type Tiingo struct {
	apikey string
	client *http.Client
}

// NewTiingo Create a new Tiingo data provider
func NewTiingo(key string, client *http.Client) *Tiingo {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Tiingo{
		apikey: key,
		client: client,
	}
}

func (t *Tiingo) Name() string {
	return ProviderTiingo
}

// Fetch requests every ticker concurrently
func (t *Tiingo) Fetch(ctx context.Context, req *Request) (*PriceSet, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "tiingo.Fetch")
	defer span.End()

	if t.apikey == "" {
		log.Warn().Msg("no tiingo API key provided")
	}

	ps, err := fetchConcurrently(ctx, req, t.fetchTicker)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tiingo fetch failed")
		return nil, err
	}
	return ps, nil
}

func (t *Tiingo) fetchTicker(ctx context.Context, ticker string, begin, end time.Time) (*dataframe.DataFrame, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "tiingo.fetchTicker")
	defer span.End()

	subLog := log.With().Str("Ticker", ticker).Time("Begin", begin).Time("End", end).Logger()

	// tiingo uses dashes where other vendors use dots (BRK.B -> BRK-B)
	symbol := strings.ReplaceAll(ticker, ".", "-")
	endpoint := fmt.Sprintf("%s/tiingo/daily/%s/prices?startDate=%s&endDate=%s&format=csv&resampleFreq=daily",
		tiingoAPI, symbol, begin.Format(common.DateLayout), end.Format(common.DateLayout))

	span.SetAttributes(
		attribute.String("Url", endpoint),
		attribute.String("Ticker", ticker),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s&token=%s", endpoint, t.apikey), nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		msg := "tiingo http request failed"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Msg(msg)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		msg := "could not read tiingo body"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Msg(msg)
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		subLog.Error().Msg("tiingo does not know the ticker")
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
	}

	if resp.StatusCode >= 400 {
		span.SetAttributes(attribute.Int("StatusCode", resp.StatusCode))
		msg := "tiingo returned invalid response code"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Int("HTTPResponseStatusCode", resp.StatusCode).Msg(msg)
		return nil, fmt.Errorf("%w: HTTP status code %d", ErrUnexpectedResponse, resp.StatusCode)
	}

	bars, err := parseTiingoCSV(body)
	if err != nil {
		span.RecordError(err)
		msg := "could not parse tiingo csv"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Msg(msg)
		return nil, err
	}

	return bars, nil
}

// parseTiingoCSV reads the columns date,close,high,low,open,volume,adjClose,... by
// header name so column order changes on the vendor side do not break parsing
func parseTiingoCSV(body []byte) (*dataframe.DataFrame, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedResponse, err.Error())
	}

	dateIdx := -1
	metricIdx := make(map[Metric]int)
	for idx, name := range header {
		name = strings.TrimSpace(name)
		if name == "date" {
			dateIdx = idx
			continue
		}
		if metric, err := ParseMetric(name); err == nil {
			metricIdx[metric] = idx
		}
	}

	if dateIdx == -1 {
		return nil, fmt.Errorf("%w: missing date column", ErrUnexpectedResponse)
	}

	bars := &dataframe.DataFrame{
		ColNames: BarColumns(),
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnexpectedResponse, err.Error())
		}

		dt, err := common.ParseDate(strings.TrimSpace(record[dateIdx]))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnexpectedResponse, err.Error())
		}

		vals := make([]float64, len(BarMetrics))
		for colIdx, metric := range BarMetrics {
			vals[colIdx] = math.NaN()
			if idx, ok := metricIdx[metric]; ok && idx < len(record) {
				if val, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64); err == nil {
					vals[colIdx] = val
				}
			}
		}

		bars.InsertRow(dt, vals...)
	}

	if bars.Len() == 0 {
		return nil, ErrNoData
	}

	return bars, nil
}
