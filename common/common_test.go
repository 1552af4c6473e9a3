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
package common_test

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/penny-vault/marketdash/common"
)

var _ = Describe("Compression", func() {
	It("round trips a payload", func() {
		payload := bytes.Repeat([]byte("NVDA,GC=F,^GSPC;"), 256)
		compressed, err := common.Compress(payload)
		Expect(err).To(BeNil())
		Expect(len(compressed)).To(BeNumerically("<", len(payload)))

		decompressed, err := common.Decompress(compressed)
		Expect(err).To(BeNil())
		Expect(decompressed).To(Equal(payload))
	})

	It("fails on garbage input", func() {
		_, err := common.Decompress([]byte("not an lz4 frame"))
		Expect(err).ToNot(BeNil())
	})
})

var _ = Describe("Dates", func() {
	It("truncates to a UTC day", func() {
		nyc, err := time.LoadLocation("America/New_York")
		Expect(err).To(BeNil())
		t := time.Date(2025, 3, 14, 23, 30, 0, 0, nyc)
		Expect(common.Day(t)).To(Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)))
	})

	DescribeTable("parses ISO dates",
		func(s string, expected time.Time, ok bool) {
			t, err := common.ParseDate(s)
			if !ok {
				Expect(err).ToNot(BeNil())
				return
			}
			Expect(err).To(BeNil())
			Expect(t).To(Equal(expected))
		},
		Entry("valid date", "2025-01-01", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), true),
		Entry("leap day", "2024-02-29", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), true),
		Entry("wrong layout", "01/02/2025", time.Time{}, false),
		Entry("empty", "", time.Time{}, false),
	)
})

var _ = Describe("Version", func() {
	It("formats with a suffix", func() {
		v := common.Version{Major: 1, Minor: 2, Patch: 3, Suffix: "rc1"}
		Expect(v.String()).To(Equal("1.2.3-rc1"))
	})

	It("formats without a suffix", func() {
		v := common.Version{Major: 1, Minor: 2, Patch: 3}
		Expect(v.String()).To(Equal("1.2.3"))
	})
})

var _ = Describe("Logging", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "marketdash-log")
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		viper.Set("log.output", "")
		viper.Set("log.level", "")
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
		log.Logger = log.Output(GinkgoWriter)
		os.RemoveAll(dir)
	})

	It("writes to the configured log file at the configured level", func() {
		fn := filepath.Join(dir, "marketdash.log")
		viper.Set("log.output", fn)
		viper.Set("log.level", "info")

		closer, err := common.SetupLogging()
		Expect(err).To(BeNil())
		log.Debug().Msg("hidden message")
		Expect(closer.Close()).To(Succeed())

		contents, err := os.ReadFile(fn)
		Expect(err).To(BeNil())
		Expect(string(contents)).To(ContainSubstring("initialized logging"))
		Expect(string(contents)).ToNot(ContainSubstring("hidden message"))
	})
})
