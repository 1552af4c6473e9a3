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

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/marketdash/common"
	"github.com/penny-vault/marketdash/dashboard"
	"github.com/penny-vault/marketdash/data"
	"github.com/penny-vault/marketdash/data/database"
)

// newLoader builds the configured provider behind a cache
func newLoader(ctx context.Context) (*data.Loader, *data.Cache, error) {
	providerName := viper.GetString("data.provider")
	provider, err := data.NewProvider(providerName)
	if err != nil {
		return nil, nil, err
	}

	if provider.Name() == data.ProviderPvDb {
		if err := database.Connect(ctx, viper.GetString("database.url")); err != nil {
			return nil, nil, err
		}
	}

	cache, err := data.NewCacheFromConfig()
	if err != nil {
		return nil, nil, err
	}

	loader := data.NewLoader(provider, cache)
	if timeout := viper.GetDuration("data.fetch_timeout"); timeout > 0 {
		loader.SetFetchTimeout(timeout)
	}

	log.Info().Str("Provider", provider.Name()).Dur("CacheTTL", cache.TTL()).Msg("initialized data loader")
	return loader, cache, nil
}

// loadUniverse reads universe.path or falls back to the default universe
func loadUniverse() (*data.Universe, error) {
	fn := viper.GetString("universe.path")
	if fn == "" {
		return data.DefaultUniverse(), nil
	}
	return data.LoadUniverse(fn)
}

// addStateFlags registers the flags that select a dashboard state
func addStateFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("assets", nil, "Assets to include, by ticker or name (default every asset in the universe)")
	cmd.Flags().String("begin", dashboard.DefaultRange.Begin.Format(common.DateLayout), "First day of the range (YYYY-MM-DD)")
	cmd.Flags().String("end", dashboard.DefaultRange.End.Format(common.DateLayout), "Last day of the range (YYYY-MM-DD)")
	cmd.Flags().String("focus", "", "Asset shown on the technical view (default first asset)")
	cmd.Flags().Int("window", 20, "Moving average window in sessions")
}

// stateFromFlags reads the flags registered by addStateFlags
func stateFromFlags(cmd *cobra.Command, universe *data.Universe, view dashboard.View) (*dashboard.State, error) {
	state := dashboard.DefaultState(universe)
	state.View = view

	assets, err := cmd.Flags().GetStringSlice("assets")
	if err != nil {
		return nil, err
	}
	if len(assets) > 0 {
		state.Assets = assets
	}

	parseDate := func(flag string) (time.Time, error) {
		val, err := cmd.Flags().GetString(flag)
		if err != nil {
			return time.Time{}, err
		}
		dt, err := common.ParseDate(strings.TrimSpace(val))
		if err != nil {
			return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", flag, err)
		}
		return dt, nil
	}

	if state.Begin, err = parseDate("begin"); err != nil {
		return nil, err
	}
	if state.End, err = parseDate("end"); err != nil {
		return nil, err
	}

	if state.Focus, err = cmd.Flags().GetString("focus"); err != nil {
		return nil, err
	}
	if state.Window, err = cmd.Flags().GetInt("window"); err != nil {
		return nil, err
	}

	return state.Resolve(universe), nil
}
