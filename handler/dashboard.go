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
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/penny-vault/marketdash/analytics"
	"github.com/penny-vault/marketdash/dashboard"
	"github.com/penny-vault/marketdash/data"
	"github.com/penny-vault/marketdash/dataframe"
	"github.com/penny-vault/marketdash/observability/opentelemetry"
)

// Dashboard serves the dashboard views from a loader and asset universe
type Dashboard struct {
	loader   *data.Loader
	universe *data.Universe
}

// PricesResponse is a price table with one column per asset
type PricesResponse struct {
	Metric     data.Metric          `json:"metric"`
	Normalized bool                 `json:"normalized"`
	Assets     []data.Asset         `json:"assets"`
	Prices     *dataframe.DataFrame `json:"prices"`
}

type PurgeResponse struct {
	Status string `json:"status"`
}

func NewDashboard(loader *data.Loader, universe *data.Universe) *Dashboard {
	return &Dashboard{
		loader:   loader,
		universe: universe,
	}
}

// Universe lists the assets offered for selection
func (d *Dashboard) Universe(c *fiber.Ctx) error {
	return c.JSON(d.universe)
}

// Get recomputes the dashboard for the state in the query string
func (d *Dashboard) Get(c *fiber.Ctx) error {
	state, err := parseState(c, d.universe)
	if err != nil {
		return err
	}

	result, err := d.recompute(c, state)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Risk returns the risk/reward scatter for the selected assets
func (d *Dashboard) Risk(c *fiber.Ctx) error {
	state, err := parseState(c, d.universe)
	if err != nil {
		return err
	}

	state.View = dashboard.ViewRisk
	result, err := d.recompute(c, state)
	if err != nil {
		return err
	}
	return c.JSON(result.Risk)
}

// Correlation returns the daily return correlation heatmap for the selected assets
func (d *Dashboard) Correlation(c *fiber.Ctx) error {
	state, err := parseState(c, d.universe)
	if err != nil {
		return err
	}

	state.View = dashboard.ViewCorrelation
	result, err := d.recompute(c, state)
	if err != nil {
		return err
	}
	return c.JSON(result.Correlation)
}

// Technical returns candles with a moving average for the ticker in the path
func (d *Dashboard) Technical(c *fiber.Ctx) error {
	state, err := parseState(c, d.universe)
	if err != nil {
		return err
	}

	ticker := d.universe.Resolve(c.Params("ticker"))
	state.View = dashboard.ViewTechnical
	state.Assets = []string{ticker}
	state.Focus = ticker

	result, err := d.recompute(c, state)
	if err != nil {
		return err
	}
	return c.JSON(result.Technical)
}

// Prices returns the filled price table for the selected assets. metric selects
// the bar field (default adjusted close) and normalize=true rebases to 100.
func (d *Dashboard) Prices(c *fiber.Ctx) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(c.UserContext(), "handler.Prices")
	defer span.End()
	span.SetAttributes(opentelemetry.SpanAttributesFromFiber(c)...)

	state, err := parseState(c, d.universe)
	if err != nil {
		return err
	}

	metric := data.MetricAdjustedClose
	if name := c.Query("metric"); name != "" {
		if metric, err = data.ParseMetric(name); err != nil {
			return err
		}
	}

	normalize := false
	if val := c.Query("normalize"); val != "" {
		if normalize, err = strconv.ParseBool(val); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "normalize must be true or false")
		}
	}

	req, err := data.NewRequest(state.Assets, state.Begin, state.End)
	if err != nil {
		return err
	}

	ps, err := d.loader.Load(ctx, req)
	if err != nil {
		return err
	}

	prices, err := ps.Flatten(metric)
	if err != nil {
		return err
	}

	if normalize {
		if prices, err = analytics.Normalize(prices); err != nil {
			return err
		}
	}

	assets := make([]data.Asset, len(ps.Tickers))
	for idx, ticker := range ps.Tickers {
		assets[idx] = d.universe.Lookup(ticker)
	}

	return c.JSON(PricesResponse{
		Metric:     metric,
		Normalized: normalize,
		Assets:     assets,
		Prices:     prices,
	})
}

// PurgeCache empties the price cache. When assets is given only the cached prices
// of that asset set are dropped, limited to the ranges overlapping begin and end
// when either is given.
func (d *Dashboard) PurgeCache(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if c.Query("assets") != "" {
		req, err := parseInvalidation(c, d.universe)
		if err != nil {
			return err
		}

		d.loader.Invalidate(ctx, req)
		log.Info().Object("Request", req).Msg("cache invalidated")
		return c.JSON(PurgeResponse{Status: "success"})
	}

	if err := d.loader.Purge(ctx); err != nil {
		log.Error().Err(err).Msg("could not purge cache")
		return fiber.NewError(fiber.StatusInternalServerError, "could not purge cache")
	}

	log.Info().Msg("cache purged")
	return c.JSON(PurgeResponse{Status: "success"})
}

func (d *Dashboard) recompute(c *fiber.Ctx, state *dashboard.State) (*dashboard.Result, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(c.UserContext(), "handler.Recompute")
	defer span.End()

	span.SetAttributes(opentelemetry.SpanAttributesFromFiber(c)...)
	span.SetAttributes(attribute.String("View", string(state.View)))

	return dashboard.Recompute(ctx, d.loader, d.universe, state)
}
