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
	"os/signal"
	"runtime/pprof"
	"runtime/trace"

	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/marketdash/handler"
	"github.com/penny-vault/marketdash/observability/opentelemetry"
	"github.com/penny-vault/marketdash/router"
)

func init() {
	bindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	if err := viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port")); err != nil {
		log.Panic().Err(err).Msg("could not bind server.port")
	}

	serveCmd.Flags().String("cors-origins", "*", "Comma separated list of origins allowed to call the API")
	if err := viper.BindPFlag("server.cors_origins", serveCmd.Flags().Lookup("cors-origins")); err != nil {
		log.Panic().Err(err).Msg("could not bind server.cors_origins")
	}

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the marketdash server",
	Long:  `Run HTTP server that serves dashboard views as JSON`,
	Run: func(cmd *cobra.Command, args []string) {
		if Profile {
			f, err := os.Create("profile.out")
			if err != nil {
				log.Fatal().Err(err).Msg("could not create profile output file")
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				log.Fatal().Err(err).Msg("could not start cpu profile")
			}
			defer pprof.StopCPUProfile()
		}

		if Trace {
			f, err := os.Create("trace.out")
			if err != nil {
				log.Fatal().Err(err).Msg("failed to create trace output file")
			}
			defer func() {
				if err := f.Close(); err != nil {
					log.Fatal().Err(err).Msg("failed to close trace file")
				}
			}()

			if err := trace.Start(f); err != nil {
				log.Fatal().Err(err).Msg("failed to start trace")
			}
			defer trace.Stop()
		}

		ctx := context.Background()

		shutdownTracing, err := opentelemetry.Setup(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not setup tracing")
		}
		defer func() {
			if err := shutdownTracing(ctx); err != nil {
				log.Error().Err(err).Msg("could not flush traces")
			}
		}()

		loader, cache, err := newLoader(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not initialize data loader")
		}

		universe, err := loadUniverse()
		if err != nil {
			log.Fatal().Err(err).Msg("could not load asset universe")
		}

		// Purge expired cache entries
		scheduler, err := cache.SchedulePurge(viper.GetString("cache.purge_schedule"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not schedule cache purge")
		}
		defer scheduler.Stop()

		// Configure CORS
		corsConfig := cors.Config{
			AllowOrigins: viper.GetString("server.cors_origins"),
			AllowHeaders: "*",
			AllowMethods: "GET,HEAD,DELETE",
		}

		app := router.New(handler.NewDashboard(loader, universe), cors.New(corsConfig))

		// shutdown cleanly on interrupt
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go func() {
			sig := <-c // block until signal is read
			fmt.Printf("Received signal: '%s'; shutting down...\n", sig.String())
			if err := app.Shutdown(); err != nil {
				log.Error().Err(err).Msg("error shutting down server")
			}
		}()

		log.Info().Int("Port", viper.GetInt("server.port")).Strs("Assets", universe.Tickers()).Msg("starting server")
		if err := app.Listen(fmt.Sprintf(":%d", viper.GetInt("server.port"))); err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
	},
}
