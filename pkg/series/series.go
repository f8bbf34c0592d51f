/*
 * Copyright (C) 2024 IBM, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

// Package series holds the univariate time series types and the normalization
// step that reindexes raw observations onto a uniform calendar grid.
package series

import (
	"math"
	"time"
)

// Point is a single raw observation.
type Point struct {
	Timestamp time.Time
	Value     float64
}

// Series is a uniformly spaced series. Slots without a usable value hold NaN;
// downstream stages must treat NaN as undefined, never as zero.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Freq       Frequency
}

// Len returns the number of grid slots.
func (s *Series) Len() int {
	return len(s.Values)
}

// IsDefined reports whether slot i holds a usable value.
func (s *Series) IsDefined(i int) bool {
	return !math.IsNaN(s.Values[i])
}

// DefinedCount returns the number of defined slots.
func (s *Series) DefinedCount() int {
	count := 0
	for i := range s.Values {
		if s.IsDefined(i) {
			count++
		}
	}
	return count
}

// FullyDefined reports whether every slot holds a usable value.
func (s *Series) FullyDefined() bool {
	return s.DefinedCount() == s.Len()
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)
	timestamps := make([]time.Time, len(s.Timestamps))
	copy(timestamps, s.Timestamps)
	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Freq:       s.Freq,
	}
}
