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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/marketdash/dashboard"
	"github.com/penny-vault/marketdash/data"
)

var _ = Describe("State flags", func() {
	var (
		cmd      *cobra.Command
		universe *data.Universe
	)

	BeforeEach(func() {
		cmd = &cobra.Command{Use: "test"}
		addStateFlags(cmd)
		universe = data.DefaultUniverse()
	})

	It("defaults to every asset over the default range", func() {
		Expect(cmd.ParseFlags([]string{})).To(Succeed())

		state, err := stateFromFlags(cmd, universe, dashboard.ViewAll)
		Expect(err).To(BeNil())
		Expect(state.Assets).To(Equal(universe.Tickers()))
		Expect(state.Begin).To(Equal(dashboard.DefaultRange.Begin))
		Expect(state.End).To(Equal(dashboard.DefaultRange.End))
		Expect(state.View).To(Equal(dashboard.ViewAll))
		Expect(state.Window).To(Equal(20))
		Expect(state.Focus).To(Equal(universe.Tickers()[0]))
	})

	It("resolves asset names and the focus", func() {
		Expect(cmd.ParseFlags([]string{
			"--assets", "Gold,NVDA,gold",
			"--begin", "2025-03-01",
			"--end", "2025-06-30",
			"--focus", "NVIDIA",
			"--window", "5",
		})).To(Succeed())

		state, err := stateFromFlags(cmd, universe, dashboard.ViewTechnical)
		Expect(err).To(BeNil())
		Expect(state.Assets).To(Equal([]string{"GC=F", "NVDA"}))
		Expect(state.Begin).To(Equal(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)))
		Expect(state.End).To(Equal(time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)))
		Expect(state.Focus).To(Equal("NVDA"))
		Expect(state.Window).To(Equal(5))
		Expect(state.Validate()).To(Succeed())
	})

	It("rejects a malformed date", func() {
		Expect(cmd.ParseFlags([]string{"--begin", "03/01/2025"})).To(Succeed())

		_, err := stateFromFlags(cmd, universe, dashboard.ViewPerformance)
		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(HavePrefix("--begin must be YYYY-MM-DD"))
	})
})

var _ = Describe("Universe config", func() {
	AfterEach(func() {
		viper.Set("universe.path", "")
	})

	It("uses the default universe when no path is configured", func() {
		viper.Set("universe.path", "")
		universe, err := loadUniverse()
		Expect(err).To(BeNil())
		Expect(universe.Tickers()).To(Equal(data.DefaultUniverse().Tickers()))
	})

	It("loads the configured universe file", func() {
		viper.Set("universe.path", "../data/testdata/universe.toml")
		universe, err := loadUniverse()
		Expect(err).To(BeNil())
		Expect(universe.Lookup("MSFT").Color).To(Equal("#d95f02"))
	})
})
