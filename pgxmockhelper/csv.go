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

// Package pgxmockhelper turns csv fixtures into pgxmock result sets
package pgxmockhelper

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgconn"
	"github.com/pashagolub/pgxmock"
	"github.com/rs/zerolog/log"
)

// CSVRows holds typed rows read from a csv fixture
type CSVRows struct {
	rows    [][]any
	header  []string
	dateCol int
}

// NewCSVRows reads fn and converts columns listed in typeMap to "date" or
// "float64"; other columns are kept as strings. Malformed fixtures panic.
func NewCSVRows(fn string, typeMap map[string]string) *CSVRows {
	subLog := log.With().Str("CsvFn", fn).Logger()

	fh, err := os.Open(fn)
	if err != nil {
		subLog.Panic().Err(err).Msg("could not open fixture")
	}
	defer fh.Close()

	records, err := csv.NewReader(fh).ReadAll()
	if err != nil {
		subLog.Panic().Err(err).Msg("could not parse fixture")
	}

	if len(records) < 1 {
		subLog.Panic().Msg("fixture needs a header row")
	}

	res := &CSVRows{
		header:  records[0],
		dateCol: -1,
		rows:    make([][]any, 0, len(records)-1),
	}

	for _, record := range records[1:] {
		row := make([]any, len(record))
		for idx, val := range record {
			colName := res.header[idx]
			switch typeMap[colName] {
			case "date":
				parsed, err := time.Parse("2006-01-02", val)
				if err != nil {
					subLog.Panic().Err(err).Str("Val", val).Msg("could not convert val to date")
				}
				row[idx] = parsed
				res.dateCol = idx
			case "float64":
				parsed, err := strconv.ParseFloat(val, 64)
				if err != nil {
					subLog.Panic().Err(err).Str("Val", val).Msg("could not convert val to float64")
				}
				row[idx] = parsed
			default:
				row[idx] = val
			}
		}
		res.rows = append(res.rows, row)
	}

	return res
}

// Between keeps rows whose date column is in [a, b]
func (csvRows *CSVRows) Between(a, b time.Time) *CSVRows {
	if len(csvRows.rows) == 0 {
		return csvRows
	}

	if csvRows.dateCol == -1 {
		log.Panic().Time("a", a).Time("b", b).Msg("no date column found")
	}

	kept := make([][]any, 0, len(csvRows.rows))
	for _, row := range csvRows.rows {
		t := row[csvRows.dateCol].(time.Time)
		if !t.Before(a) && !t.After(b) {
			kept = append(kept, row)
		}
	}
	csvRows.rows = kept
	return csvRows
}

// Tickers keeps rows whose ticker column is in tickers
func (csvRows *CSVRows) Tickers(tickers ...string) *CSVRows {
	tickerCol := -1
	for idx, name := range csvRows.header {
		if name == "ticker" {
			tickerCol = idx
		}
	}

	if tickerCol == -1 {
		log.Panic().Msg("no ticker column found")
	}

	want := make(map[string]bool, len(tickers))
	for _, ticker := range tickers {
		want[ticker] = true
	}

	kept := make([][]any, 0, len(csvRows.rows))
	for _, row := range csvRows.rows {
		if want[row[tickerCol].(string)] {
			kept = append(kept, row)
		}
	}
	csvRows.rows = kept
	return csvRows
}

func (csvRows *CSVRows) Rows() *pgxmock.Rows {
	r := pgxmock.NewRows(csvRows.header)
	for _, row := range csvRows.rows {
		r.AddRow(row...)
	}
	return r
}

// MockEodQuery expects a role switch followed by the eod query and answers it
// with the rows of fn for tickers between begin and end
func MockEodQuery(db pgxmock.PgxConnIface, fn string, tickers []string, begin, end time.Time) {
	db.ExpectBegin()
	db.ExpectExec("SET ROLE").WillReturnResult(pgconn.CommandTag("SET ROLE"))
	db.ExpectQuery("SELECT event_date, ticker").WillReturnRows(
		NewCSVRows(fn, map[string]string{
			"event_date": "date",
			"open":       "float64",
			"high":       "float64",
			"low":        "float64",
			"close":      "float64",
			"adj_close":  "float64",
			"volume":     "float64",
		}).Tickers(tickers...).Between(begin, end).Rows())
	db.ExpectCommit()
}
