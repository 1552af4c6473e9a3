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

package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/penny-vault/marketdash/common"
	"github.com/penny-vault/marketdash/dashboard"
	"github.com/penny-vault/marketdash/data"
)

// parseState builds a dashboard state from the query string, starting from the
// default state of universe. Recognized parameters are assets (comma separated
// tickers or names), begin, end, view, focus and window.
func parseState(c *fiber.Ctx, universe *data.Universe) (*dashboard.State, error) {
	state := dashboard.DefaultState(universe)
	state.Focus = ""

	if assets := c.Query("assets"); assets != "" {
		state.Assets = strings.Split(assets, ",")
	}

	if begin := c.Query("begin"); begin != "" {
		dt, err := common.ParseDate(begin)
		if err != nil {
			return nil, fmt.Errorf("%w: begin must be YYYY-MM-DD, got %q", ErrInvalidQuery, begin)
		}
		state.Begin = dt
	}

	if end := c.Query("end"); end != "" {
		dt, err := common.ParseDate(end)
		if err != nil {
			return nil, fmt.Errorf("%w: end must be YYYY-MM-DD, got %q", ErrInvalidQuery, end)
		}
		state.End = dt
	}

	if view := c.Query("view"); view != "" {
		parsed, err := dashboard.ParseView(view)
		if err != nil {
			return nil, err
		}
		state.View = parsed
	}

	state.Focus = c.Query("focus")

	if window := c.Query("window"); window != "" {
		parsed, err := strconv.Atoi(window)
		if err != nil {
			return nil, fmt.Errorf("%w: window must be an integer, got %q", ErrInvalidQuery, window)
		}
		state.Window = parsed
	}

	return state.Resolve(universe), nil
}

var (
	invalidateFrom  = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	invalidateUntil = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// parseInvalidation builds the request whose cached prices should be dropped from
// the assets, begin and end parameters. Without begin or end every cached range
// of the asset set is covered.
func parseInvalidation(c *fiber.Ctx, universe *data.Universe) (*data.Request, error) {
	tickers := []string{}
	for _, asset := range strings.Split(c.Query("assets"), ",") {
		if strings.TrimSpace(asset) != "" {
			tickers = append(tickers, universe.Resolve(asset))
		}
	}

	begin, end := invalidateFrom, invalidateUntil
	if val := c.Query("begin"); val != "" {
		dt, err := common.ParseDate(val)
		if err != nil {
			return nil, fmt.Errorf("%w: begin must be YYYY-MM-DD, got %q", ErrInvalidQuery, val)
		}
		begin = dt
	}

	if val := c.Query("end"); val != "" {
		dt, err := common.ParseDate(val)
		if err != nil {
			return nil, fmt.Errorf("%w: end must be YYYY-MM-DD, got %q", ErrInvalidQuery, val)
		}
		end = dt
	}

	return data.NewRequest(tickers, begin, end)
}
