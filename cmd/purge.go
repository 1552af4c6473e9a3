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

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/penny-vault/marketdash/data"
)

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the price cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every cached price set",
	Long: `Delete every cached price set. Only the redis tier outlives the process,
so this is useful when cache.redis is enabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := data.NewCacheFromConfig()
		if err != nil {
			return err
		}

		if err := cache.Purge(context.Background()); err != nil {
			log.Error().Err(err).Msg("could not purge cache")
			return err
		}

		fmt.Println("cache purged")
		return nil
	},
}
