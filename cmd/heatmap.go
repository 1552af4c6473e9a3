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

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/penny-vault/marketdash/dashboard"
	"github.com/penny-vault/marketdash/render"
)

func init() {
	addStateFlags(heatmapCmd)
	heatmapCmd.Flags().StringP("output", "o", "correlation_heatmap.png", "PNG file to write")
	heatmapCmd.Flags().Int("cell-size", 80, "Width and height in pixels of each cell")
	rootCmd.AddCommand(heatmapCmd)
}

var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Write a correlation heatmap of daily returns to a PNG file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}
		cellSize, err := cmd.Flags().GetInt("cell-size")
		if err != nil {
			return err
		}

		universe, err := loadUniverse()
		if err != nil {
			return err
		}

		state, err := stateFromFlags(cmd, universe, dashboard.ViewCorrelation)
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

		if err := writeHeatmap(output, result.Correlation, cellSize); err != nil {
			return err
		}

		log.Info().Str("FileName", output).Strs("Tickers", result.Correlation.Tickers).Msg("wrote correlation heatmap")

		// the image has no labels; print the order of rows and columns
		render.Text(os.Stdout, &dashboard.Result{Correlation: result.Correlation})
		fmt.Printf("heatmap written to %s\n", output)
		return nil
	},
}

// writeHeatmap renders view as a PNG into fn. The file is closed before returning
// so a failed flush is reported.
func writeHeatmap(fn string, view *dashboard.CorrelationView, cellSize int) error {
	fh, err := os.Create(fn)
	if err != nil {
		return err
	}

	if err := render.Heatmap(fh, view, cellSize); err != nil {
		fh.Close()
		return err
	}

	if err := fh.Close(); err != nil {
		return fmt.Errorf("could not close %s: %w", fn, err)
	}
	return nil
}
