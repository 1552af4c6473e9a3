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

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/penny-vault/marketdash/common"
)

// Request identifies a set of tickers over an inclusive date range
type Request struct {
	Tickers []string
	Begin   time.Time
	End     time.Time
}

// NewRequest normalizes tickers (trimmed, upper case, de-duplicated with the first
// occurrence kept) and truncates dates to UTC days
func NewRequest(tickers []string, begin, end time.Time) (*Request, error) {
	req := &Request{
		Tickers: make([]string, 0, len(tickers)),
		Begin:   common.Day(begin),
		End:     common.Day(end),
	}

	seen := make(map[string]bool, len(tickers))
	for _, ticker := range tickers {
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		if ticker == "" || seen[ticker] {
			continue
		}
		seen[ticker] = true
		req.Tickers = append(req.Tickers, ticker)
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return req, nil
}

// Validate checks that the request names at least one ticker and has an ordered range
func (req *Request) Validate() error {
	if len(req.Tickers) == 0 {
		return ErrNoTickers
	}
	return req.Interval().Valid()
}

// Interval returns the date range of the request
func (req *Request) Interval() *Interval {
	return &Interval{
		Begin: req.Begin,
		End:   req.End,
	}
}

// SortedTickers returns a sorted copy of the tickers
func (req *Request) SortedTickers() []string {
	sorted := make([]string, len(req.Tickers))
	copy(sorted, req.Tickers)
	sort.Strings(sorted)
	return sorted
}

func (req *Request) String() string {
	return fmt.Sprintf("%s [%s, %s]", strings.Join(req.Tickers, ","),
		req.Begin.Format(common.DateLayout), req.End.Format(common.DateLayout))
}

// MarshalZerologObject implement the log marshaller interface for zerolog
func (req *Request) MarshalZerologObject(e *zerolog.Event) {
	e.Strs("Tickers", req.Tickers).
		Str("Begin", req.Begin.Format(common.DateLayout)).
		Str("End", req.End.Format(common.DateLayout))
}
