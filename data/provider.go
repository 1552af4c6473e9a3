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
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/penny-vault/marketdash/dataframe"
)

// Provider retrieves daily bars for every ticker in a request. A provider either
// returns bars for all requested tickers or an error.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, req *Request) (*PriceSet, error)
}

const (
	ProviderYahoo     = "yahoo"
	ProviderTiingo    = "tiingo"
	ProviderPvDb      = "pvdb"
	ProviderCSV       = "csv"
	ProviderSimulated = "simulated"
)

// fetchChunkSize bounds the number of concurrent requests made to a provider
const fetchChunkSize = 10

// NewProvider constructs the provider named by name using configuration from viper
func NewProvider(name string) (Provider, error) {
	client := &http.Client{
		Timeout: viper.GetDuration("data.http_timeout"),
	}

	switch strings.ToLower(name) {
	case ProviderYahoo:
		return NewYahoo(client), nil
	case ProviderTiingo:
		return NewTiingo(viper.GetString("tiingo.token"), client), nil
	case ProviderPvDb:
		return NewPvDb(viper.GetString("database.role")), nil
	case ProviderCSV:
		return NewCSVFile(viper.GetString("csv.path")), nil
	case ProviderSimulated:
		return NewSimulated(viper.GetInt64("simulated.seed")), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}

type fetchFunc func(ctx context.Context, ticker string, begin, end time.Time) (*dataframe.DataFrame, error)

// fetchConcurrently calls fetch for every ticker in req, at most fetchChunkSize at a
// time. The first error cancels outstanding requests and is returned.
func fetchConcurrently(ctx context.Context, req *Request, fetch fetchFunc) (*PriceSet, error) {
	results := make(map[string]*dataframe.DataFrame, len(req.Tickers))
	var locker sync.Mutex

	for _, chunk := range partitionArray(req.Tickers, fetchChunkSize) {
		grp, grpCtx := errgroup.WithContext(ctx)
		for _, ticker := range chunk {
			ticker := ticker
			grp.Go(func() error {
				bars, err := fetch(grpCtx, ticker, req.Begin, req.End)
				if err != nil {
					return fmt.Errorf("%s: %w", ticker, err)
				}
				locker.Lock()
				results[ticker] = bars
				locker.Unlock()
				return nil
			})
		}

		if err := grp.Wait(); err != nil {
			return nil, err
		}
	}

	ps := NewPriceSet()
	for _, ticker := range req.Tickers {
		ps.Add(ticker, results[ticker])
	}
	return ps, nil
}

func partitionArray(xs []string, chunkSize int) [][]string {
	if len(xs) == 0 {
		return nil
	}

	divided := make([][]string, 0, (len(xs)+chunkSize-1)/chunkSize)
	for start := 0; start < len(xs); start += chunkSize {
		end := start + chunkSize
		if end > len(xs) {
			end = len(xs)
		}
		divided = append(divided, xs[start:end])
	}
	return divided
}
