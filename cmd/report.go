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
	"os"

	"github.com/spf13/cobra"

	"github.com/penny-vault/marketdash/dashboard"
	"github.com/penny-vault/marketdash/render"
)

func init() {
	addStateFlags(reportCmd)
	reportCmd.Flags().String("view", string(dashboard.ViewAll), "View to print: performance, risk, correlation, technical or all")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print dashboard views to the terminal",
	Long: `Load prices for the selected assets and print the performance, risk,
correlation and technical views as tables and ascii charts.`,
	Example: `  marketdash report --assets NVDA,Gold --begin 2025-01-01 --end 2025-06-30 --view risk`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		viewName, err := cmd.Flags().GetString("view")
		if err != nil {
			return err
		}
		view, err := dashboard.ParseView(viewName)
		if err != nil {
			return err
		}

		universe, err := loadUniverse()
		if err != nil {
			return err
		}

		state, err := stateFromFlags(cmd, universe, view)
		if err != nil {
			return err
		}

		loader, _, err := newLoader(ctx)
		if err != nil {
			return err
		}

		result, err := dashboard.Recompute(ctx, loader, universe, state)
		if err != nil {
			return fmt.Errorf("%s: %w", dashboard.UserMessage(err), err)
		}

		render.Text(os.Stdout, result)
		return nil
	},
}
