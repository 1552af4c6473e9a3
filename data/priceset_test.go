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
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/marketdash/data"
	"github.com/penny-vault/marketdash/dataframe"
)

func bars(dates []time.Time, closes ...float64) *dataframe.DataFrame {
	df := &dataframe.DataFrame{ColNames: data.BarColumns()}
	for idx, dt := range dates {
		c := closes[idx]
		df.InsertRow(dt, c, c, c, c, c, math.NaN())
	}
	return df
}

var _ = Describe("Request", func() {
	It("normalizes tickers", func() {
		req, err := data.NewRequest([]string{" nvda", "GC=F", "NVDA", ""}, jan(2).Add(5*time.Hour), jan(10))
		Expect(err).To(BeNil())
		Expect(req.Tickers).To(Equal([]string{"NVDA", "GC=F"}))
		Expect(req.Begin).To(Equal(jan(2)))
		Expect(req.SortedTickers()).To(Equal([]string{"GC=F", "NVDA"}))
		Expect(req.String()).To(Equal("NVDA,GC=F [2025-01-02, 2025-01-10]"))
	})

	It("requires a ticker", func() {
		_, err := data.NewRequest([]string{" "}, jan(2), jan(10))
		Expect(err).To(MatchError(data.ErrNoTickers))
	})

	It("requires an ordered range", func() {
		_, err := data.NewRequest([]string{"NVDA"}, jan(10), jan(2))
		Expect(err).To(MatchError(data.ErrBeginAfterEnd))
	})
})

var _ = Describe("Interval", func() {
	DescribeTable("containment",
		func(a, b *data.Interval, expected bool) {
			Expect(a.Contains(b)).To(Equal(expected))
		},
		Entry("when b is inside a", &data.Interval{Begin: jan(1), End: jan(10)}, &data.Interval{Begin: jan(2), End: jan(9)}, true),
		Entry("when b equals a", &data.Interval{Begin: jan(1), End: jan(10)}, &data.Interval{Begin: jan(1), End: jan(10)}, true),
		Entry("when b extends past a", &data.Interval{Begin: jan(1), End: jan(10)}, &data.Interval{Begin: jan(2), End: jan(11)}, false),
		Entry("when b starts before a", &data.Interval{Begin: jan(2), End: jan(10)}, &data.Interval{Begin: jan(1), End: jan(5)}, false),
	)

	DescribeTable("overlap",
		func(a, b *data.Interval, expected bool) {
			Expect(a.Overlaps(b)).To(Equal(expected))
		},
		Entry("when they share a day", &data.Interval{Begin: jan(1), End: jan(5)}, &data.Interval{Begin: jan(5), End: jan(9)}, true),
		Entry("when they are disjoint", &data.Interval{Begin: jan(1), End: jan(5)}, &data.Interval{Begin: jan(6), End: jan(9)}, false),
	)

	It("rejects begin after end", func() {
		Expect((&data.Interval{Begin: jan(5), End: jan(1)}).Valid()).To(MatchError(data.ErrBeginAfterEnd))
	})
})

var _ = Describe("PriceSet", func() {
	var (
		ps *data.PriceSet
	)

	BeforeEach(func() {
		ps = data.NewPriceSet()
		ps.Add("NVDA", bars([]time.Time{jan(2), jan(3), jan(6)}, 10, 11, 12))
		ps.Add("GC=F", bars([]time.Time{jan(3), jan(7)}, 100, 104))
	})

	It("keeps insertion order", func() {
		Expect(ps.Tickers).To(Equal([]string{"NVDA", "GC=F"}))
	})

	It("reports missing tickers", func() {
		ps.Add("EMPTY", &dataframe.DataFrame{ColNames: data.BarColumns(), Vals: make([][]float64, 6)})
		Expect(ps.Missing([]string{"NVDA", "EMPTY", "MSFT"})).To(Equal([]string{"EMPTY", "MSFT"}))
	})

	It("fills gaps forward and then backward on the union of dates", func() {
		filled := ps.Fill()
		nvda, err := filled.Get("NVDA")
		Expect(err).To(BeNil())
		gold, err := filled.Get("GC=F")
		Expect(err).To(BeNil())

		Expect(nvda.Dates).To(Equal([]time.Time{jan(2), jan(3), jan(6), jan(7)}))
		Expect(gold.Dates).To(Equal(nvda.Dates))

		closes, _ := nvda.Column("Close")
		Expect(closes).To(Equal([]float64{10, 11, 12, 12}))

		closes, _ = gold.Column("Close")
		Expect(closes).To(Equal([]float64{100, 100, 100, 104}))
	})

	It("flattens a metric into one column per ticker", func() {
		table, err := ps.Fill().Flatten(data.MetricClose)
		Expect(err).To(BeNil())
		Expect(table.ColNames).To(Equal([]string{"NVDA", "GC=F"}))
		Expect(table.Len()).To(Equal(4))
		Expect(table.Vals[1]).To(Equal([]float64{100, 100, 100, 104}))
	})

	It("falls back to close when adjusted close is absent", func() {
		dates := []time.Time{jan(2), jan(3)}
		ms, err := data.FromMultiLevel(dates, []data.ColumnKey{{Field: "Close", Ticker: "X"}}, [][]float64{{1, 2}})
		Expect(err).To(BeNil())

		table, err := ms.Flatten(data.MetricAdjustedClose)
		Expect(err).To(BeNil())
		Expect(table.Vals[0]).To(Equal([]float64{1, 2}))
	})

	It("selects tickers and dates", func() {
		sel, err := ps.Select([]string{"GC=F"}, jan(4), jan(10))
		Expect(err).To(BeNil())
		Expect(sel.Tickers).To(Equal([]string{"GC=F"}))
		Expect(sel.Bars["GC=F"].Dates).To(Equal([]time.Time{jan(7)}))

		_, err = ps.Select([]string{"MSFT"}, jan(4), jan(10))
		Expect(err).To(MatchError(data.ErrTickerNotLoaded))
	})

	It("splits a two-level table by ticker", func() {
		dates := []time.Time{jan(2), jan(3)}
		keys := []data.ColumnKey{
			{Field: "Close", Ticker: "A"},
			{Field: "Close", Ticker: "B"},
			{Field: "Open", Ticker: "A"},
			{Field: "Dividends", Ticker: "A"},
		}
		ms, err := data.FromMultiLevel(dates, keys, [][]float64{{1, 2}, {3, 4}, {5, 6}, {0, 0}})
		Expect(err).To(BeNil())
		Expect(ms.Tickers).To(Equal([]string{"A", "B"}))

		opens, _ := ms.Bars["A"].Column("Open")
		Expect(opens).To(Equal([]float64{5, 6}))

		bOpens, _ := ms.Bars["B"].Column("Open")
		Expect(math.IsNaN(bOpens[0])).To(BeTrue())
	})
})
