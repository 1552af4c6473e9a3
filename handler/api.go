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
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/penny-vault/marketdash/analytics"
	"github.com/penny-vault/marketdash/common"
	"github.com/penny-vault/marketdash/dashboard"
	"github.com/penny-vault/marketdash/data"
)

type PingResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"API is alive"`
	Version string `json:"version" example:"0.3.0"`
	Time    string `json:"time" example:"2025-06-19T08:09:10.115924-05:00"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Status  string `json:"status" example:"error"`
	Message string `json:"message"`
}

func Ping(c *fiber.Ctx) error {
	now, err := time.Now().MarshalText()
	if err != nil {
		log.Error().Err(err).Msg("error while getting time in ping")
		return c.JSON(PingResponse{
			Status:  "error",
			Message: err.Error(),
			Version: common.CurrentVersion.String(),
		})
	}

	return c.JSON(PingResponse{
		Status:  "success",
		Message: "API is alive",
		Version: common.CurrentVersion.String(),
		Time:    string(now),
	})
}

// StatusCode maps an error to the HTTP status reported to the client. Invalid
// input is the caller's fault, a failed load is an upstream failure and data
// too degenerate to analyze is unprocessable.
func StatusCode(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}

	switch {
	case errors.Is(err, data.ErrLoadFailed):
		return fiber.StatusBadGateway
	case errors.Is(err, ErrInvalidQuery),
		errors.Is(err, dashboard.ErrNoAssets),
		errors.Is(err, dashboard.ErrInvalidView),
		errors.Is(err, dashboard.ErrFocusNotSelected),
		errors.Is(err, data.ErrNoTickers),
		errors.Is(err, data.ErrBeginAfterEnd),
		errors.Is(err, data.ErrUnsupportedMetric),
		errors.Is(err, analytics.ErrInvalidWindow):
		return fiber.StatusBadRequest
	case errors.Is(err, analytics.ErrInsufficientData),
		errors.Is(err, analytics.ErrInvalidBaseValue),
		errors.Is(err, analytics.ErrMissingOHLC):
		return fiber.StatusUnprocessableEntity
	}

	return fiber.StatusInternalServerError
}

// ErrorHandler writes err as a json ErrorResponse
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := StatusCode(err)

	msg := dashboard.UserMessage(err)
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		msg = fiberErr.Message
	case errors.Is(err, ErrInvalidQuery), errors.Is(err, data.ErrUnsupportedMetric):
		msg = err.Error()
	}

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Int("StatusCode", code).Str("Path", c.Path()).Msg("request failed")
	}

	return c.Status(code).JSON(ErrorResponse{
		Status:  "error",
		Message: msg,
	})
}
