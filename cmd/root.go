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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/marketdash/common"
)

var Profile bool
var Trace bool

func bindFlag(key string, cmd *cobra.Command, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		log.Panic().Err(err).Str("Key", key).Msg("could not bind flag")
	}
}

func bindEnv(key, env string) {
	if err := viper.BindEnv(key, env); err != nil {
		log.Panic().Err(err).Str("Key", key).Msg("could not bind environment variable")
	}
}

func init() {
	viper.SetEnvPrefix("MARKETDASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Data
	rootCmd.PersistentFlags().String("provider", "simulated", "Price provider: one of yahoo, tiingo, pvdb, csv or simulated")
	bindFlag("data.provider", rootCmd, "provider")
	viper.SetDefault("data.http_timeout", "30s")
	viper.SetDefault("data.fetch_timeout", "2m")

	bindEnv("tiingo.token", "TIINGO_TOKEN")
	rootCmd.PersistentFlags().String("tiingo-token", "", "Tiingo API token")
	bindFlag("tiingo.token", rootCmd, "tiingo-token")

	rootCmd.PersistentFlags().String("csv-path", "", "CSV price file or directory of <TICKER>.csv files")
	bindFlag("csv.path", rootCmd, "csv-path")

	rootCmd.PersistentFlags().Int64("seed", 42, "Seed of the simulated price provider")
	bindFlag("simulated.seed", rootCmd, "seed")

	rootCmd.PersistentFlags().String("universe", "", "TOML file listing the assets offered for selection")
	bindFlag("universe.path", rootCmd, "universe")

	// Database
	bindEnv("database.url", "DATABASE_URL")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	bindFlag("database.url", rootCmd, "database-url")
	viper.SetDefault("database.role", "pvuser")

	// Cache
	viper.SetDefault("cache.local_size", 128)
	viper.SetDefault("cache.ttl", "1h")
	viper.SetDefault("cache.purge_schedule", "*/15 * * * *")
	viper.SetDefault("cache.redis", false)
	bindEnv("cache.redis_url", "REDIS_URL")
	viper.SetDefault("cache.redis_url", "redis://localhost:6379/0")

	// Logging configuration
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	bindFlag("log.level", rootCmd, "log-level")

	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	bindFlag("log.report_caller", rootCmd, "log-report-caller")

	rootCmd.PersistentFlags().String("log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	bindFlag("log.output", rootCmd, "log-output")

	rootCmd.PersistentFlags().Bool("log-pretty", false, "Write human readable logs instead of json")
	bindFlag("log.pretty", rootCmd, "log-pretty")

	// Tracing
	viper.SetDefault("otlp.endpoint", "")
	viper.SetDefault("otlp.http", false)
	viper.SetDefault("otlp.insecure", false)

	rootCmd.PersistentFlags().BoolVar(&Profile, "cpu-profile", false, "Run pprof and save in profile.out")
	rootCmd.PersistentFlags().BoolVar(&Trace, "trace", false, "Trace program execution and save in trace.out")
}

var rootCmd = &cobra.Command{
	Use:     common.ProgramName,
	Version: common.CurrentVersion.String(),
	Short:   "marketdash computes and serves market dashboards",
	Long: `marketdash loads daily prices for a set of assets and computes normalized
performance, annualized risk and return, Sharpe ratios, return correlations and
moving averages. Results are served as chart-ready JSON or printed to the terminal.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		closer, err := common.SetupLogging()
		if err != nil {
			return err
		}
		logCloser = closer
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
	SilenceUsage: true,
}

var logCloser io.Closer

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
