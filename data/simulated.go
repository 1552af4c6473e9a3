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
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
	"go.opentelemetry.io/otel"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/penny-vault/marketdash/dataframe"
	"github.com/penny-vault/marketdash/observability/opentelemetry"
)

// WalkParams describes the distribution of daily increments of a simulated series
type WalkParams struct {
	Mu    float64
	Sigma float64
}

// SimulatedOrigin is the first day of every simulated series
var SimulatedOrigin = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

var defaultWalkParams = WalkParams{Mu: 0.0005, Sigma: 0.015}

// Simulated generates calendar-daily random walks of the form
// 100 * (1 + cumsum(N(mu, sigma))) starting at SimulatedOrigin. Each ticker has
// its own deterministic stream so a series is identical across requests.
type Simulated struct {
	seed   int64
	params map[string]WalkParams
}

// NewSimulated creates a simulated provider whose walks are derived from seed
func NewSimulated(seed int64) *Simulated {
	return &Simulated{
		seed: seed,
		params: map[string]WalkParams{
			"NVDA":  {Mu: 0.0015, Sigma: 0.02},
			"GC=F":  {Mu: 0.002, Sigma: 0.01},
			"^GSPC": {Mu: 0.0006, Sigma: 0.012},
		},
	}
}

// SetParams overrides the walk distribution for ticker
func (s *Simulated) SetParams(ticker string, params WalkParams) {
	s.params[ticker] = params
}

func (s *Simulated) Name() string {
	return ProviderSimulated
}

func (s *Simulated) Fetch(ctx context.Context, req *Request) (*PriceSet, error) {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "simulated.Fetch")
	defer span.End()

	if req.End.Before(SimulatedOrigin) {
		return nil, fmt.Errorf("%w: simulated series begin %s", ErrNoData, SimulatedOrigin.Format("2006-01-02"))
	}

	ps := NewPriceSet()
	for _, ticker := range req.Tickers {
		bars := s.walk(ticker, req.End)
		ps.Add(ticker, bars.Trim(req.Begin, req.End))
	}

	log.Debug().Object("Request", req).Msg("generated simulated prices")
	return ps, nil
}

func (s *Simulated) tickerSeed(ticker string) uint64 {
	digest := blake3.Sum256([]byte(ticker))
	return binary.LittleEndian.Uint64(digest[:8]) ^ uint64(s.seed)
}

// walk generates the series from SimulatedOrigin through end. Open is the previous
// close so candles have bodies; the first open equals the first close.
func (s *Simulated) walk(ticker string, end time.Time) *dataframe.DataFrame {
	params, ok := s.params[ticker]
	if !ok {
		params = defaultWalkParams
	}

	dist := distuv.Normal{
		Mu:    params.Mu,
		Sigma: params.Sigma,
		Src:   rand.NewSource(s.tickerSeed(ticker)),
	}

	bars := &dataframe.DataFrame{
		ColNames: BarColumns(),
	}

	cumsum := 0.0
	prevClose := math.NaN()
	for dt := SimulatedOrigin; !dt.After(end); dt = dt.AddDate(0, 0, 1) {
		cumsum += dist.Rand()
		closePrice := 100 * (1 + cumsum)
		openPrice := prevClose
		if math.IsNaN(openPrice) {
			openPrice = closePrice
		}

		bars.InsertRow(dt,
			openPrice,
			math.Max(openPrice, closePrice),
			math.Min(openPrice, closePrice),
			closePrice,
			closePrice,
			math.NaN(),
		)
		prevClose = closePrice
	}

	return bars
}
