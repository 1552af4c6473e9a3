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

import "fmt"

// Metric names a field of a daily price bar. Metric values double as the column
// names of the per-ticker dataframes in a PriceSet.
type Metric string

const (
	MetricOpen          Metric = "Open"
	MetricHigh          Metric = "High"
	MetricLow           Metric = "Low"
	MetricClose         Metric = "Close"
	MetricAdjustedClose Metric = "AdjustedClose"
	MetricVolume        Metric = "Volume"
)

// BarMetrics is the column order of every per-ticker frame
var BarMetrics = []Metric{
	MetricOpen,
	MetricHigh,
	MetricLow,
	MetricClose,
	MetricAdjustedClose,
	MetricVolume,
}

// BarColumns returns BarMetrics as dataframe column names
func BarColumns() []string {
	cols := make([]string, len(BarMetrics))
	for idx, metric := range BarMetrics {
		cols[idx] = string(metric)
	}
	return cols
}

// ParseMetric converts the common spellings used by providers and csv exports
// ("Adj Close", "adjClose", "close") to a Metric
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "Open", "open":
		return MetricOpen, nil
	case "High", "high":
		return MetricHigh, nil
	case "Low", "low":
		return MetricLow, nil
	case "Close", "close":
		return MetricClose, nil
	case "AdjustedClose", "Adj Close", "adjClose", "adj_close", "adjclose":
		return MetricAdjustedClose, nil
	case "Volume", "volume":
		return MetricVolume, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMetric, s)
}
