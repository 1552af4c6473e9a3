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
	"fmt"
	"os"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"
)

// Asset describes how a ticker is presented
type Asset struct {
	Ticker string `json:"ticker" toml:"ticker"`
	Name   string `json:"name" toml:"name"`
	Color  string `json:"color" toml:"color"`
}

// Universe is the list of assets offered for selection, in display order
type Universe struct {
	Assets []Asset `json:"assets" toml:"asset"`
}

// fallbackPalette colors tickers that are not in the universe
var fallbackPalette = []string{"#1b9e77", "#d95f02", "#7570b3", "#e7298a", "#66a61e", "#e6ab02", "#a6761d"}

// DefaultUniverse is NVIDIA, gold futures and the S&P 500 index
func DefaultUniverse() *Universe {
	return &Universe{
		Assets: []Asset{
			{Ticker: "NVDA", Name: "NVIDIA", Color: "#084594"},
			{Ticker: "GC=F", Name: "Gold", Color: "#ef3b2c"},
			{Ticker: "^GSPC", Name: "S&P 500", Color: "#737373"},
		},
	}
}

// LoadUniverse reads a toml file with one [[asset]] table per ticker
func LoadUniverse(fn string) (*Universe, error) {
	buf, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}

	universe := &Universe{}
	if err := toml.Unmarshal(buf, universe); err != nil {
		return nil, fmt.Errorf("could not parse universe %s: %w", fn, err)
	}

	for idx := range universe.Assets {
		asset := &universe.Assets[idx]
		asset.Ticker = strings.ToUpper(strings.TrimSpace(asset.Ticker))
		if asset.Ticker == "" {
			return nil, fmt.Errorf("%w: asset %d in %s", ErrNoTickers, idx+1, fn)
		}
		if asset.Name == "" {
			asset.Name = asset.Ticker
		}
		if asset.Color == "" {
			asset.Color = fallbackPalette[idx%len(fallbackPalette)]
		}
		if _, err := colorful.Hex(asset.Color); err != nil {
			return nil, fmt.Errorf("%w: %s has color %q", ErrInvalidColor, asset.Ticker, asset.Color)
		}
	}

	return universe, nil
}

// Tickers returns the tickers of the universe in display order
func (u *Universe) Tickers() []string {
	tickers := make([]string, len(u.Assets))
	for idx, asset := range u.Assets {
		tickers[idx] = asset.Ticker
	}
	return tickers
}

// Lookup returns the asset for ticker. Unknown tickers are named after themselves
// and given a stable color from the fallback palette.
func (u *Universe) Lookup(ticker string) Asset {
	for _, asset := range u.Assets {
		if asset.Ticker == ticker {
			return asset
		}
	}

	sum := 0
	for _, r := range ticker {
		sum += int(r)
	}

	return Asset{
		Ticker: ticker,
		Name:   ticker,
		Color:  fallbackPalette[sum%len(fallbackPalette)],
	}
}

// Resolve maps a ticker or display name (case insensitive) to a ticker
func (u *Universe) Resolve(s string) string {
	s = strings.TrimSpace(s)
	for _, asset := range u.Assets {
		if strings.EqualFold(asset.Ticker, s) || strings.EqualFold(asset.Name, s) {
			return asset.Ticker
		}
	}
	return strings.ToUpper(s)
}
