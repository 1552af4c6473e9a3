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

package data

import "errors"

var (
	ErrLoadFailed         = errors.New("could not load price data")
	ErrNoTickers          = errors.New("at least one ticker is required")
	ErrBeginAfterEnd      = errors.New("invalid interval; begin after end date")
	ErrNoData             = errors.New("provider returned no data")
	ErrNotFound           = errors.New("ticker not found")
	ErrTickerNotLoaded    = errors.New("ticker not present in price set")
	ErrUnknownProvider    = errors.New("unknown data provider")
	ErrUnsupportedMetric  = errors.New("unsupported metric")
	ErrUnexpectedResponse = errors.New("provider returned an unexpected response")
	ErrInvalidCSV         = errors.New("invalid csv price file")
	ErrInvalidSchedule    = errors.New("invalid cron schedule")
	ErrInvalidColor       = errors.New("color must be a #rrggbb hex string")
)
