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

package dataframe_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/marketdash/dataframe"
)

var _ = Describe("When computing the SMA", func() {
	Context("with 5 values", func() {
		var (
			df1 *dataframe.DataFrame
		)

		BeforeEach(func() {
			df1 = &dataframe.DataFrame{
				Dates:    []time.Time{day(1), day(2), day(3), day(6), day(7)},
				Vals:     [][]float64{{1.0, 2.0, 3.0, 4.0, 5.0}},
				ColNames: []string{"test"},
			}
		})

		It("yields all NaN for lookback of 0", func() {
			sma := df1.SMA(0)
			Expect(sma.Len()).To(Equal(5))
			for _, val := range sma.Vals[0] {
				Expect(math.IsNaN(val)).To(BeTrue())
			}
		})

		It("yields all NaN when lookback exceeds the number of rows", func() {
			sma := df1.SMA(6)
			Expect(sma.Len()).To(Equal(5))
			for _, val := range sma.Vals[0] {
				Expect(math.IsNaN(val)).To(BeTrue())
			}
		})

		It("yields correct results for lookback of 2", func() {
			sma := df1.SMA(2)
			Expect(sma.Dates).To(Equal(df1.Dates))

			col1 := sma.Vals[0]
			Expect(math.IsNaN(col1[0])).Should(BeTrue())
			Expect(col1[1:]).Should(Equal([]float64{1.5, 2.5, 3.5, 4.5}))
		})

		It("yields correct results for lookback of 3", func() {
			col1 := df1.SMA(3).Vals[0]
			Expect(math.IsNaN(col1[0])).Should(BeTrue())
			Expect(math.IsNaN(col1[1])).Should(BeTrue())
			Expect(col1[2:]).Should(Equal([]float64{2.0, 3.0, 4.0}))
		})

		It("yields correct results for lookback of 5", func() {
			col1 := df1.SMA(5).Vals[0]
			Expect(math.IsNaN(col1[3])).Should(BeTrue())
			Expect(col1[4]).Should(Equal(3.0))
		})
	})
})

var _ = Describe("When doing arithmetic", func() {
	var (
		df *dataframe.DataFrame
	)

	BeforeEach(func() {
		df = &dataframe.DataFrame{
			Dates:    []time.Time{day(2), day(3), day(6)},
			Vals:     [][]float64{{100, 110, 121}, {50, 50, 50}},
			ColNames: []string{"A", "B"},
		}
	})

	It("computes percent change with a leading NaN", func() {
		pct := df.PctChange()
		Expect(pct.Len()).To(Equal(3))
		Expect(math.IsNaN(pct.Vals[0][0])).To(BeTrue())
		Expect(pct.Vals[0][1]).To(BeNumerically("~", 0.1, 1e-12))
		Expect(pct.Vals[0][2]).To(BeNumerically("~", 0.1, 1e-12))
		Expect(pct.Vals[1][1]).To(Equal(0.0))
	})

	It("scales without modifying the source", func() {
		scaled := df.MulScalar(2)
		Expect(scaled.Vals[0]).To(Equal([]float64{200, 220, 242}))
		Expect(df.Vals[0][0]).To(Equal(100.0))
	})

	It("adds a scalar", func() {
		Expect(df.AddScalar(-50).Vals[1]).To(Equal([]float64{0, 0, 0}))
	})

	It("divides like columns", func() {
		res := df.Div(df)
		Expect(res.Vals[0]).To(Equal([]float64{1, 1, 1}))
	})

	It("computes column statistics", func() {
		Expect(df.Mean()["A"]).To(BeNumerically("~", 110.333333, 1e-5))
		Expect(df.StdDev()["B"]).To(Equal(0.0))
	})

	It("builds a dense matrix", func() {
		m := df.Matrix()
		r, c := m.Dims()
		Expect(r).To(Equal(3))
		Expect(c).To(Equal(2))
		Expect(m.At(2, 0)).To(Equal(121.0))
	})
})
