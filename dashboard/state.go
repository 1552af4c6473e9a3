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

// Package dashboard holds the state of a market dashboard and recomputes its
// views from that state. Every interaction produces a new State which is passed
// to Recompute; no derived data is kept between calls.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/penny-vault/marketdash/analytics"
	"github.com/penny-vault/marketdash/common"
	"github.com/penny-vault/marketdash/data"
)

type View string

const (
	ViewPerformance View = "performance"
	ViewRisk        View = "risk"
	ViewCorrelation View = "correlation"
	ViewTechnical   View = "technical"
	ViewAll         View = "all"
)

var views = []View{ViewPerformance, ViewRisk, ViewCorrelation, ViewTechnical, ViewAll}

// ParseView accepts a view name in any case
func ParseView(s string) (View, error) {
	for _, view := range views {
		if strings.EqualFold(string(view), strings.TrimSpace(s)) {
			return view, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidView, s)
}

// State is everything the user selected on the dashboard
type State struct {
	Assets []string  `json:"assets"`
	Begin  time.Time `json:"begin"`
	End    time.Time `json:"end"`
	View   View      `json:"view"`
	Focus  string    `json:"focus"`
	Window int       `json:"window"`
}

// DefaultRange is the calendar year the dashboard opens on
var DefaultRange = data.Interval{
	Begin: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC),
}

// DefaultState selects every asset in universe over DefaultRange and shows the
// performance view
func DefaultState(universe *data.Universe) *State {
	tickers := universe.Tickers()
	focus := ""
	if len(tickers) > 0 {
		focus = tickers[0]
	}

	return &State{
		Assets: tickers,
		Begin:  DefaultRange.Begin,
		End:    DefaultRange.End,
		View:   ViewPerformance,
		Focus:  focus,
		Window: analytics.DefaultSMAWindow,
	}
}

// Resolve returns a copy of the state with assets and focus mapped to tickers
// through universe, duplicates removed, dates truncated to days and defaults
// applied to an empty view or focus. Window is kept as given; start from
// DefaultState for the default window.
func (s *State) Resolve(universe *data.Universe) *State {
	res := &State{
		Assets: make([]string, 0, len(s.Assets)),
		Begin:  common.Day(s.Begin),
		End:    common.Day(s.End),
		View:   s.View,
		Window: s.Window,
	}

	seen := make(map[string]bool, len(s.Assets))
	for _, asset := range s.Assets {
		if strings.TrimSpace(asset) == "" {
			continue
		}
		ticker := universe.Resolve(asset)
		if !seen[ticker] {
			seen[ticker] = true
			res.Assets = append(res.Assets, ticker)
		}
	}

	if res.View == "" {
		res.View = ViewPerformance
	}

	if strings.TrimSpace(s.Focus) != "" {
		res.Focus = universe.Resolve(s.Focus)
	} else if len(res.Assets) > 0 {
		res.Focus = res.Assets[0]
	}

	return res
}

// Validate checks that the state describes a computable dashboard
func (s *State) Validate() error {
	if len(s.Assets) == 0 {
		return ErrNoAssets
	}

	if _, err := ParseView(string(s.View)); err != nil {
		return err
	}

	interval := data.Interval{Begin: s.Begin, End: s.End}
	if err := interval.Valid(); err != nil {
		return err
	}

	if s.Window <= 0 {
		return fmt.Errorf("%w: got %d", analytics.ErrInvalidWindow, s.Window)
	}

	if s.View == ViewTechnical || s.View == ViewAll {
		found := false
		for _, asset := range s.Assets {
			if asset == s.Focus {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrFocusNotSelected, s.Focus)
		}
	}

	return nil
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler
func (s *State) MarshalZerologObject(e *zerolog.Event) {
	e.Strs("Assets", s.Assets).
		Str("Begin", s.Begin.Format(common.DateLayout)).
		Str("End", s.End.Format(common.DateLayout)).
		Str("View", string(s.View)).
		Str("Focus", s.Focus).
		Int("Window", s.Window)
}
