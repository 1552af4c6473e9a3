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
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/penny-vault/marketdash/common"
	"github.com/penny-vault/marketdash/data/database"
	"github.com/penny-vault/marketdash/dataframe"
	"github.com/penny-vault/marketdash/observability/opentelemetry"
)

const defaultDatabaseRole = "pvuser"

// missing values are returned as NaN so every column scans into a float64
const eodSQL = `SELECT event_date, ticker,
	COALESCE(open, 'NaN'::double precision),
	COALESCE(high, 'NaN'::double precision),
	COALESCE(low, 'NaN'::double precision),
	COALESCE(close, 'NaN'::double precision),
	COALESCE(adj_close, 'NaN'::double precision),
	COALESCE(volume::double precision, 'NaN'::double precision)
FROM eod WHERE ticker = ANY($1) AND event_date BETWEEN $2 AND $3 ORDER BY ticker, event_date`

// PvDb loads end-of-day bars from the eod table of a penny-vault database
type PvDb struct {
	role string
}

// NewPvDb creates a database provider that queries as role
func NewPvDb(role ...string) *PvDb {
	p := &PvDb{
		role: defaultDatabaseRole,
	}
	if len(role) > 0 && role[0] != "" {
		p.role = role[0]
	}
	return p
}

func (p *PvDb) Name() string {
	return ProviderPvDb
}

// Fetch loads every ticker with a single query
func (p *PvDb) Fetch(ctx context.Context, req *Request) (*PriceSet, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "pvdb.Fetch")
	defer span.End()

	span.SetAttributes(attribute.StringSlice("Tickers", req.Tickers))
	subLog := log.With().Object("Request", req).Logger()

	trx, err := database.TrxForRole(ctx, p.role)
	if err != nil {
		span.RecordError(err)
		msg := "failed to load eod prices -- could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Err(err).Msg(msg)
		return nil, err
	}

	rows, err := trx.Query(ctx, eodSQL, req.Tickers, req.Begin, req.End)
	if err != nil {
		span.RecordError(err)
		msg := "failed to load eod prices -- db query failed"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Err(err).Msg(msg)
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}
	defer rows.Close()

	ps := NewPriceSet()
	for rows.Next() {
		var eventDate time.Time
		var ticker string
		vals := make([]float64, len(BarMetrics))

		if err := rows.Scan(&eventDate, &ticker, &vals[0], &vals[1], &vals[2], &vals[3], &vals[4], &vals[5]); err != nil {
			span.RecordError(err)
			subLog.Error().Err(err).Msg("failed to load eod prices -- db query scan failed")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}

		bars, ok := ps.Bars[ticker]
		if !ok {
			bars = &dataframe.DataFrame{ColNames: BarColumns()}
			ps.Add(ticker, bars)
		}
		bars.InsertRow(common.Day(eventDate), vals...)
	}

	rows.Close()
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		subLog.Error().Err(err).Msg("failed to load eod prices -- row iteration failed")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Err(err).Msg("error committing transaction")
	}

	// the query orders by ticker; restore the requested order
	res := NewPriceSet()
	for _, ticker := range req.Tickers {
		if bars, ok := ps.Bars[ticker]; ok {
			res.Add(ticker, bars)
		}
	}

	return res, nil
}
