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
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/penny-vault/marketdash/common"
	"github.com/penny-vault/marketdash/dataframe"
	"github.com/penny-vault/marketdash/observability/opentelemetry"
)

// CSVFile loads prices from a local csv export. Path may name a single file
// holding every ticker or a directory with one <TICKER>.csv file per ticker.
//
// Two header layouts are recognized. A single-level header names the date
// column followed by either tickers (each column a close price) or bar fields
// (Open, High, Low, Close, Adj Close, Volume) for the ticker named by the file.
// A two-level header, as written by yfinance for multiple tickers, has a field
// row starting with "Price" followed by a ticker row starting with "Ticker" and
// an optional "Date" row.
type CSVFile struct {
	path string
}

func NewCSVFile(path string) *CSVFile {
	return &CSVFile{
		path: path,
	}
}

func (c *CSVFile) Name() string {
	return ProviderCSV
}

func (c *CSVFile) Fetch(ctx context.Context, req *Request) (*PriceSet, error) {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "csv.Fetch")
	defer span.End()

	subLog := log.With().Str("Path", c.path).Object("Request", req).Logger()

	info, err := os.Stat(c.path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "csv path not readable")
		subLog.Error().Err(err).Msg("could not stat csv path")
		return nil, err
	}

	ps := NewPriceSet()
	if info.IsDir() {
		for _, ticker := range req.Tickers {
			fn := filepath.Join(c.path, fmt.Sprintf("%s.csv", ticker))
			filePs, err := ReadPriceCSV(fn)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "csv read failed")
				subLog.Error().Err(err).Str("FileName", fn).Msg("could not read csv")
				return nil, fmt.Errorf("%s: %w", ticker, err)
			}
			ps.Merge(filePs)
		}
	} else {
		if ps, err = ReadPriceCSV(c.path); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "csv read failed")
			subLog.Error().Err(err).Msg("could not read csv")
			return nil, err
		}
	}

	if missing := ps.Missing(req.Tickers); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.Join(missing, ","))
	}

	return ps.Select(req.Tickers, req.Begin, req.End)
}

// ReadPriceCSV parses a csv price file in either header layout
func ReadPriceCSV(fn string) (*PriceSet, error) {
	fh, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	reader := csv.NewReader(fh)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCSV, err.Error())
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%w: %s has no data rows", ErrInvalidCSV, fn)
	}

	stem := strings.ToUpper(strings.TrimSuffix(filepath.Base(fn), filepath.Ext(fn)))
	if isMultiLevel(records) {
		return parseMultiLevel(records)
	}
	return parseSingleLevel(records, stem)
}

func isMultiLevel(records [][]string) bool {
	first := strings.TrimSpace(records[0][0])
	second := strings.TrimSpace(records[1][0])
	return strings.EqualFold(first, "Price") || strings.EqualFold(second, "Ticker")
}

func parseMultiLevel(records [][]string) (*PriceSet, error) {
	fields := records[0]
	tickers := records[1]
	body := records[2:]

	// yfinance writes an empty "Date" row below the ticker row
	if len(body) > 0 && strings.EqualFold(strings.TrimSpace(body[0][0]), "Date") {
		body = body[1:]
	}

	ncols := len(fields) - 1
	if len(tickers) != len(fields) {
		return nil, fmt.Errorf("%w: field and ticker rows have different lengths", ErrInvalidCSV)
	}

	keys := make([]ColumnKey, ncols)
	for idx := 0; idx < ncols; idx++ {
		keys[idx] = ColumnKey{
			Field:  strings.TrimSpace(fields[idx+1]),
			Ticker: strings.ToUpper(strings.TrimSpace(tickers[idx+1])),
		}
	}

	dates, vals, err := parseBody(body, ncols)
	if err != nil {
		return nil, err
	}

	return FromMultiLevel(dates, keys, vals)
}

func parseSingleLevel(records [][]string, stem string) (*PriceSet, error) {
	header := records[0]
	ncols := len(header) - 1

	dates, vals, err := parseBody(records[1:], ncols)
	if err != nil {
		return nil, err
	}

	// a header of bar fields describes a single ticker; otherwise every column
	// is the close of the ticker it names
	barFields := true
	for _, name := range header[1:] {
		if _, err := ParseMetric(strings.TrimSpace(name)); err != nil {
			barFields = false
			break
		}
	}

	keys := make([]ColumnKey, ncols)
	for idx, name := range header[1:] {
		name = strings.TrimSpace(name)
		if barFields {
			keys[idx] = ColumnKey{Field: name, Ticker: stem}
		} else {
			keys[idx] = ColumnKey{Field: string(MetricClose), Ticker: strings.ToUpper(name)}
		}
	}

	return FromMultiLevel(dates, keys, vals)
}

// parseBody reads date-first rows into an ascending date index and column major
// values; blank cells become NaN
func parseBody(rows [][]string, ncols int) ([]time.Time, [][]float64, error) {
	df := &dataframe.DataFrame{
		ColNames: make([]string, ncols),
	}

	for rowIdx, row := range rows {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		dt, err := parseCSVDate(row[0])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: row %d: %s", ErrInvalidCSV, rowIdx+1, err.Error())
		}

		vals := make([]float64, ncols)
		for colIdx := range vals {
			vals[colIdx] = math.NaN()
			if colIdx+1 < len(row) {
				cell := strings.TrimSpace(row[colIdx+1])
				if cell == "" {
					continue
				}
				val, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, nil, fmt.Errorf("%w: row %d: %s", ErrInvalidCSV, rowIdx+1, err.Error())
				}
				vals[colIdx] = val
			}
		}

		if df.Len() > 0 && !df.End().Before(dt) {
			return nil, nil, fmt.Errorf("%w: dates must be ascending and unique (row %d)", ErrInvalidCSV, rowIdx+1)
		}
		df.InsertRow(dt, vals...)
	}

	if df.Len() == 0 {
		return nil, nil, fmt.Errorf("%w: no data rows", ErrInvalidCSV)
	}

	if df.Vals == nil {
		df.Vals = make([][]float64, ncols)
	}

	return df.Dates, df.Vals, nil
}

// parseCSVDate accepts plain dates and the timestamp forms pandas writes
func parseCSVDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(common.DateLayout) {
		return time.Time{}, errors.New("date too short")
	}
	return common.ParseDate(s[:len(common.DateLayout)])
}
