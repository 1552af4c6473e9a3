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

// Package render draws dashboard results for terminals and image files
package render

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/penny-vault/marketdash/dashboard"
)

var (
	ErrEmptyMatrix     = errors.New("correlation matrix is empty")
	ErrInvalidCellSize = errors.New("cell size must be positive")
)

// diverging red/blue scale centered on white at zero correlation
var (
	negativeColor, _ = colorful.Hex("#2166ac")
	neutralColor, _  = colorful.Hex("#f7f7f7")
	positiveColor, _ = colorful.Hex("#b2182b")
	missingColor     = color.RGBA{R: 0xbd, G: 0xbd, B: 0xbd, A: 0xff}
)

// CorrelationColor maps a correlation in [-1, 1] onto the heatmap scale. Values
// outside the range are clamped; NaN is drawn grey.
func CorrelationColor(val float64) color.Color {
	if math.IsNaN(val) {
		return missingColor
	}

	val = math.Max(-1, math.Min(1, val))
	if val < 0 {
		return neutralColor.BlendLab(negativeColor, -val).Clamped()
	}
	return neutralColor.BlendLab(positiveColor, val).Clamped()
}

// Heatmap writes the correlation matrix as a PNG with one cellSize square per
// pair of assets, in the order of view.Tickers
func Heatmap(w io.Writer, view *dashboard.CorrelationView, cellSize int) error {
	if cellSize <= 0 {
		return ErrInvalidCellSize
	}

	n := len(view.Tickers)
	if n == 0 {
		return ErrEmptyMatrix
	}

	img := image.NewRGBA(image.Rect(0, 0, n*cellSize, n*cellSize))
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			fill := CorrelationColor(view.Values[row][col])
			for y := row * cellSize; y < (row+1)*cellSize; y++ {
				for x := col * cellSize; x < (col+1)*cellSize; x++ {
					img.Set(x, y, fill)
				}
			}
		}
	}

	return png.Encode(w, img)
}
