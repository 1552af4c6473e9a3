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

package dataframe

import (
	"sort"
	"time"
)

// Map holds one dataframe per key (typically a ticker)
type Map map[string]*DataFrame

// Keys returns the keys of the map in sorted order
func (dfMap Map) Keys() []string {
	keys := make([]string, 0, len(dfMap))
	for k := range dfMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DateUnion returns the sorted union of every date index in the map
func (dfMap Map) DateUnion() []time.Time {
	seen := make(map[time.Time]bool)
	dates := make([]time.Time, 0)
	for _, df := range dfMap {
		for _, dt := range df.Dates {
			if !seen[dt] {
				seen[dt] = true
				dates = append(dates, dt)
			}
		}
	}

	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	return dates
}

// Reindex conforms every dataframe to the union of dates in the map. Dates missing
// from an individual dataframe are filled with NaN.
func (dfMap Map) Reindex() Map {
	dates := dfMap.DateUnion()
	res := make(Map, len(dfMap))
	for k, df := range dfMap {
		res[k] = df.Reindex(dates)
	}
	return res
}

// Merge outer joins all dataframes in the map into a single dataframe on the union of
// their dates. Columns are ordered by sorted key and then by the order within each
// dataframe; when a dataframe has a single column the column is named after its key.
func (dfMap Map) Merge() *DataFrame {
	dates := dfMap.DateUnion()
	res := &DataFrame{
		Dates:    dates,
		ColNames: []string{},
		Vals:     [][]float64{},
	}

	for _, k := range dfMap.Keys() {
		df := dfMap[k].Reindex(dates)
		if df.ColCount() == 1 {
			res.ColNames = append(res.ColNames, k)
		} else {
			res.ColNames = append(res.ColNames, df.ColNames...)
		}
		res.Vals = append(res.Vals, df.Vals...)
	}

	return res
}
