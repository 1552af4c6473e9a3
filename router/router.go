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

package router

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/penny-vault/marketdash/common"
	"github.com/penny-vault/marketdash/handler"
	"github.com/penny-vault/marketdash/middleware"
)

// SetupRoutes setup router api
func SetupRoutes(app *fiber.App, dash *handler.Dashboard) {
	api := app.Group("/v1", middleware.NewRequestID(), middleware.NewLogger())
	api.Get("/", handler.Ping)

	api.Get("/universe", dash.Universe)
	api.Get("/dashboard", dash.Get)

	// Individual views
	api.Get("/prices", dash.Prices)
	api.Get("/risk", dash.Risk)
	api.Get("/correlation", dash.Correlation)
	api.Get("/technical/:ticker", dash.Technical)

	// Cache
	api.Delete("/cache", dash.PurgeCache)
}

// New creates a fiber app that encodes json with goccy/go-json and reports
// errors as json. Handlers in global run before every route.
func New(dash *handler.Dashboard, global ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               common.ProgramName,
		DisableStartupMessage: true,
		UnescapePath:          true,
		ErrorHandler:          handler.ErrorHandler,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	for _, h := range global {
		app.Use(h)
	}

	SetupRoutes(app, dash)
	return app
}
