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

package data_test

import (
	"context"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock"

	"github.com/penny-vault/marketdash/data"
	"github.com/penny-vault/marketdash/data/database"
	"github.com/penny-vault/marketdash/pgxmockhelper"
)

func fixture(fn string) []byte {
	content, err := os.ReadFile(fn)
	Expect(err).To(BeNil())
	return content
}

var _ = Describe("Providers", func() {
	var (
		ctx    context.Context
		client *http.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &http.Client{}
		httpmock.ActivateNonDefault(client)
	})

	AfterEach(func() {
		httpmock.DeactivateAndReset()
	})

	Context("when fetching from yahoo", func() {
		It("decodes the chart api and converts nulls to NaN", func() {
			httpmock.RegisterResponder("GET", `=~^https://query2\.finance\.yahoo\.com/v8/finance/chart/NVDA\?period1=`,
				httpmock.NewBytesResponder(200, fixture("testdata/yahoo_nvda.json")))

			req, err := data.NewRequest([]string{"NVDA"}, jan(2), jan(7))
			Expect(err).To(BeNil())

			ps, err := data.NewYahoo(client).Fetch(ctx, req)
			Expect(err).To(BeNil())

			nvda, err := ps.Get("NVDA")
			Expect(err).To(BeNil())
			Expect(nvda.Dates).To(Equal([]time.Time{jan(2), jan(3), jan(6), jan(7)}))

			closes, _ := nvda.Column("Close")
			Expect(closes[:3]).To(Equal([]float64{138.31, 144.47, 149.43}))
			Expect(math.IsNaN(closes[3])).To(BeTrue())

			adj, _ := nvda.Column("AdjustedClose")
			Expect(adj[0]).To(Equal(138.29))
		})

		It("returns an error for an unknown symbol", func() {
			httpmock.RegisterResponder("GET", `=~^https://query2\.finance\.yahoo\.com/v8/finance/chart/`,
				httpmock.NewBytesResponder(404, fixture("testdata/yahoo_notfound.json")))

			req, err := data.NewRequest([]string{"NOPE"}, jan(2), jan(7))
			Expect(err).To(BeNil())

			_, err = data.NewYahoo(client).Fetch(ctx, req)
			Expect(err).To(MatchError(data.ErrUnexpectedResponse))
		})

		It("reports chart errors in a successful response", func() {
			httpmock.RegisterResponder("GET", `=~^https://query2\.finance\.yahoo\.com/v8/finance/chart/`,
				httpmock.NewBytesResponder(200, fixture("testdata/yahoo_notfound.json")))

			req, err := data.NewRequest([]string{"NOPE"}, jan(2), jan(7))
			Expect(err).To(BeNil())

			_, err = data.NewYahoo(client).Fetch(ctx, req)
			Expect(err).To(MatchError(data.ErrNotFound))
		})

		It("fails the whole fetch when one ticker fails", func() {
			httpmock.RegisterResponder("GET", `=~^https://query2\.finance\.yahoo\.com/v8/finance/chart/NVDA\?`,
				httpmock.NewBytesResponder(200, fixture("testdata/yahoo_nvda.json")))
			httpmock.RegisterResponder("GET", `=~^https://query2\.finance\.yahoo\.com/v8/finance/chart/GC=F\?`,
				httpmock.NewStringResponder(500, "boom"))

			req, err := data.NewRequest([]string{"NVDA", "GC=F"}, jan(2), jan(7))
			Expect(err).To(BeNil())

			ps, err := data.NewYahoo(client).Fetch(ctx, req)
			Expect(err).ToNot(BeNil())
			Expect(ps).To(BeNil())
		})
	})

	Context("when fetching from tiingo", func() {
		It("parses the csv endpoint", func() {
			httpmock.RegisterResponder("GET", "https://api.tiingo.com/tiingo/daily/GLD/prices?startDate=2025-01-02&endDate=2025-01-06&format=csv&resampleFreq=daily&token=TEST",
				httpmock.NewBytesResponder(200, fixture("testdata/tiingo_gld.csv")))

			req, err := data.NewRequest([]string{"GLD"}, jan(2), jan(6))
			Expect(err).To(BeNil())

			ps, err := data.NewTiingo("TEST", client).Fetch(ctx, req)
			Expect(err).To(BeNil())

			gld, err := ps.Get("GLD")
			Expect(err).To(BeNil())
			Expect(gld.Len()).To(Equal(3))

			opens, _ := gld.Column("Open")
			Expect(opens).To(Equal([]float64{241.2, 242.4, 240.9}))
			adj, _ := gld.Column("AdjustedClose")
			Expect(adj).To(Equal([]float64{242.06, 241.13, 240.0}))
		})

		It("maps 404 to not found", func() {
			httpmock.RegisterResponder("GET", `=~^https://api\.tiingo\.com/tiingo/daily/`,
				httpmock.NewStringResponder(404, `{"detail":"Error: Ticker 'NOPE' not found"}`))

			req, err := data.NewRequest([]string{"NOPE"}, jan(2), jan(6))
			Expect(err).To(BeNil())

			_, err = data.NewTiingo("TEST", client).Fetch(ctx, req)
			Expect(err).To(MatchError(data.ErrNotFound))
		})
	})

	Context("when reading csv files", func() {
		It("reads a single-level table of closes", func() {
			req, err := data.NewRequest([]string{"GC=F", "NVDA"}, jan(1), jan(31))
			Expect(err).To(BeNil())

			ps, err := data.NewCSVFile("testdata/prices_single.csv").Fetch(ctx, req)
			Expect(err).To(BeNil())
			Expect(ps.Tickers).To(Equal([]string{"GC=F", "NVDA"}))

			gold, _ := ps.Bars["GC=F"].Column("Close")
			Expect(math.IsNaN(gold[1])).To(BeTrue())

			table, err := ps.Fill().Flatten(data.MetricAdjustedClose)
			Expect(err).To(BeNil())
			Expect(table.Vals[0]).To(Equal([]float64{2658.9, 2658.9, 2638.1, 2659.2}))
		})

		It("flattens a two-level yfinance export", func() {
			req, err := data.NewRequest([]string{"NVDA"}, jan(3), jan(31))
			Expect(err).To(BeNil())

			ps, err := data.NewCSVFile("testdata/prices_multi.csv").Fetch(ctx, req)
			Expect(err).To(BeNil())

			nvda := ps.Bars["NVDA"]
			Expect(nvda.Dates).To(Equal([]time.Time{jan(3), jan(6)}))
			highs, _ := nvda.Column("High")
			Expect(highs).To(Equal([]float64{144.9, 152.16}))
		})

		It("reads one file per ticker from a directory", func() {
			req, err := data.NewRequest([]string{"NVDA"}, jan(1), jan(31))
			Expect(err).To(BeNil())

			ps, err := data.NewCSVFile("testdata").Fetch(ctx, req)
			Expect(err).To(BeNil())
			adj, _ := ps.Bars["NVDA"].Column("AdjustedClose")
			Expect(adj).To(Equal([]float64{138.29, 144.45, 149.41}))
		})

		It("fails when a ticker is absent", func() {
			req, err := data.NewRequest([]string{"NVDA", "MSFT"}, jan(1), jan(31))
			Expect(err).To(BeNil())

			_, err = data.NewCSVFile("testdata/prices_single.csv").Fetch(ctx, req)
			Expect(err).To(MatchError(data.ErrNotFound))
		})
	})

	Context("when simulating prices", func() {
		It("is deterministic and starts near 100", func() {
			req, err := data.NewRequest([]string{"NVDA", "GC=F", "^GSPC"}, jan(1), time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
			Expect(err).To(BeNil())

			sim := data.NewSimulated(42)
			ps1, err := sim.Fetch(ctx, req)
			Expect(err).To(BeNil())
			ps2, err := sim.Fetch(ctx, req)
			Expect(err).To(BeNil())

			nvda := ps1.Bars["NVDA"]
			Expect(nvda.Len()).To(Equal(365))
			closes, _ := nvda.Column("Close")
			Expect(closes[0]).To(BeNumerically("~", 100, 10))
			again, _ := ps2.Bars["NVDA"].Column("Close")
			Expect(again).To(Equal(closes))
			gold, _ := ps1.Bars["GC=F"].Column("Close")
			Expect(gold).ToNot(Equal(closes))
		})

		It("returns the same values for a sub-range", func() {
			sim := data.NewSimulated(7)
			full, err := data.NewRequest([]string{"NVDA"}, jan(1), jan(31))
			Expect(err).To(BeNil())
			part, err := data.NewRequest([]string{"NVDA"}, jan(10), jan(20))
			Expect(err).To(BeNil())

			ps1, _ := sim.Fetch(ctx, full)
			ps2, _ := sim.Fetch(ctx, part)
			Expect(ps2.Bars["NVDA"].Vals[3]).To(Equal(ps1.Bars["NVDA"].Trim(jan(10), jan(20)).Vals[3]))
		})

		It("has no data before the origin", func() {
			req, err := data.NewRequest([]string{"NVDA"}, jan(1).AddDate(-1, 0, 0), jan(1).AddDate(0, 0, -1))
			Expect(err).To(BeNil())
			_, err = data.NewSimulated(1).Fetch(ctx, req)
			Expect(err).To(MatchError(data.ErrNoData))
		})

		It("follows overridden walk parameters", func() {
			sim := data.NewSimulated(3)
			sim.SetParams("XYZ", data.WalkParams{Mu: 0.01, Sigma: 0})
			req, err := data.NewRequest([]string{"XYZ"}, jan(1), jan(3))
			Expect(err).To(BeNil())

			ps, err := sim.Fetch(ctx, req)
			Expect(err).To(BeNil())
			closes, _ := ps.Bars["XYZ"].Column("Close")
			Expect(closes).To(HaveLen(3))
			Expect(closes[0]).To(BeNumerically("~", 101, 1e-9))
			Expect(closes[2]).To(BeNumerically("~", 103, 1e-9))
		})
	})

	Context("when querying pvdb", func() {
		var (
			dbPool pgxmock.PgxConnIface
		)

		BeforeEach(func() {
			var err error
			dbPool, err = pgxmock.NewConn()
			Expect(err).To(BeNil())
			database.SetPool(dbPool)
		})

		It("loads every ticker in the requested order", func() {
			tickers := []string{"NVDA", "GC=F"}
			pgxmockhelper.MockEodQuery(dbPool, "testdata/eod.csv", tickers, jan(2), jan(3))

			req, err := data.NewRequest(tickers, jan(2), jan(3))
			Expect(err).To(BeNil())

			ps, err := data.NewPvDb().Fetch(ctx, req)
			Expect(err).To(BeNil())
			Expect(ps.Tickers).To(Equal([]string{"NVDA", "GC=F"}))

			closes, _ := ps.Bars["NVDA"].Column("Close")
			Expect(closes).To(Equal([]float64{138.31, 144.47}))
			Expect(ps.Bars["GC=F"].Dates).To(Equal([]time.Time{jan(2), jan(3)}))
		})

		It("omits tickers the database does not have", func() {
			pgxmockhelper.MockEodQuery(dbPool, "testdata/eod.csv", []string{"MSFT"}, jan(2), jan(3))

			req, err := data.NewRequest([]string{"MSFT"}, jan(2), jan(3))
			Expect(err).To(BeNil())

			ps, err := data.NewPvDb().Fetch(ctx, req)
			Expect(err).To(BeNil())
			Expect(ps.Missing(req.Tickers)).To(Equal([]string{"MSFT"}))
		})
	})

	Context("when selecting a provider by name", func() {
		DescribeTable("known providers",
			func(name, expected string) {
				provider, err := data.NewProvider(name)
				Expect(err).To(BeNil())
				Expect(provider.Name()).To(Equal(expected))
			},
			Entry("yahoo", "yahoo", data.ProviderYahoo),
			Entry("tiingo", "Tiingo", data.ProviderTiingo),
			Entry("pvdb", "pvdb", data.ProviderPvDb),
			Entry("csv", "csv", data.ProviderCSV),
			Entry("simulated", "simulated", data.ProviderSimulated),
		)

		It("rejects an unknown provider", func() {
			_, err := data.NewProvider("bloomberg")
			Expect(err).To(MatchError(data.ErrUnknownProvider))
		})
	})
})
