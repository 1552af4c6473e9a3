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
	"image/png"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/marketdash/dashboard"
	"github.com/penny-vault/marketdash/render"
)

var _ = Describe("Heatmap file", func() {
	var (
		dir  string
		view *dashboard.CorrelationView
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "marketdash-heatmap")
		Expect(err).To(BeNil())

		view = &dashboard.CorrelationView{
			Tickers: []string{"NVDA", "GC=F"},
			Names:   []string{"NVIDIA", "Gold"},
			Values:  [][]float64{{1, -0.4}, {-0.4, 1}},
		}
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("writes a decodable png", func() {
		fn := filepath.Join(dir, "heatmap.png")
		Expect(writeHeatmap(fn, view, 10)).To(Succeed())

		fh, err := os.Open(fn)
		Expect(err).To(BeNil())
		defer fh.Close()

		img, err := png.Decode(fh)
		Expect(err).To(BeNil())
		Expect(img.Bounds().Dx()).To(Equal(20))
		Expect(img.Bounds().Dy()).To(Equal(20))
	})

	It("reports render errors", func() {
		fn := filepath.Join(dir, "empty.png")
		err := writeHeatmap(fn, &dashboard.CorrelationView{}, 10)
		Expect(err).To(MatchError(render.ErrEmptyMatrix))
	})

	It("fails when the file cannot be created", func() {
		err := writeHeatmap(filepath.Join(dir, "missing", "heatmap.png"), view, 10)
		Expect(err).ToNot(BeNil())
	})
})
