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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/marketdash/data"
)

var _ = Describe("Universe", func() {
	It("defaults to NVIDIA, gold and the S&P 500", func() {
		universe := data.DefaultUniverse()
		Expect(universe.Tickers()).To(Equal([]string{"NVDA", "GC=F", "^GSPC"}))
		Expect(universe.Lookup("GC=F").Color).To(Equal("#ef3b2c"))
	})

	It("loads assets from toml and fills in defaults", func() {
		universe, err := data.LoadUniverse("testdata/universe.toml")
		Expect(err).To(BeNil())
		Expect(universe.Assets).To(Equal([]data.Asset{
			{Ticker: "NVDA", Name: "NVIDIA", Color: "#084594"},
			{Ticker: "MSFT", Name: "MSFT", Color: "#d95f02"},
		}))
	})

	It("rejects colors that are not hex strings", func() {
		_, err := data.LoadUniverse("testdata/universe_badcolor.toml")
		Expect(err).To(MatchError(data.ErrInvalidColor))
	})

	It("fails for a missing file", func() {
		_, err := data.LoadUniverse("testdata/does-not-exist.toml")
		Expect(err).ToNot(BeNil())
	})

	It("gives unknown tickers a stable presentation", func() {
		universe := data.DefaultUniverse()
		first := universe.Lookup("AAPL")
		Expect(first.Name).To(Equal("AAPL"))
		Expect(first.Color).ToNot(BeEmpty())
		Expect(universe.Lookup("AAPL")).To(Equal(first))
	})

	DescribeTable("resolving user input",
		func(input, expected string) {
			Expect(data.DefaultUniverse().Resolve(input)).To(Equal(expected))
		},
		Entry("ticker", "NVDA", "NVDA"),
		Entry("lower case ticker", "gc=f", "GC=F"),
		Entry("display name", "s&p 500", "^GSPC"),
		Entry("name with spaces", "  Gold ", "GC=F"),
		Entry("unknown", "msft", "MSFT"),
	)
})
