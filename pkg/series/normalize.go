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

package series

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrValidation marks malformed or insufficient input shape.
var ErrValidation = errors.New("validation error")

var nlog = logrus.WithField("component", "series.Normalize")

// Normalize reindexes raw observations onto a uniform grid spanning
// [min(timestamp), max(timestamp)] at the given frequency. Observations are
// sorted; duplicate timestamps keep the last observation. Grid slots without
// an observation are filled by linear interpolation between the nearest known
// neighbors; slots that cannot be interpolated are left NaN and are excluded
// from downstream scoring. The transform is pure: the input slice is not
// modified.
func Normalize(points []Point, freq Frequency) (*Series, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 observations, got %d", ErrValidation, len(points))
	}
	for _, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return nil, fmt.Errorf("%w: non-numeric value at %s", ErrValidation, p.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
		}
	}

	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	first := sorted[0].Timestamp
	last := sorted[len(sorted)-1].Timestamp
	if !first.Before(last) {
		return nil, fmt.Errorf("%w: all timestamps collapse to a single instant", ErrValidation)
	}

	// Build the calendar grid and assign each observation to the latest slot
	// not after it. Later observations win on collisions.
	var timestamps []time.Time
	for t := first; !t.After(last); t = freq.Step(t) {
		timestamps = append(timestamps, t)
	}
	values := make([]float64, len(timestamps))
	for i := range values {
		values[i] = math.NaN()
	}
	slot := 0
	for _, p := range sorted {
		for slot+1 < len(timestamps) && !timestamps[slot+1].After(p.Timestamp) {
			slot++
		}
		values[slot] = p.Value
	}

	observed := 0
	for i := range values {
		if !math.IsNaN(values[i]) {
			observed++
		}
	}
	if observed < 2 {
		return nil, fmt.Errorf("%w: observations collapse to a single grid slot at frequency %s", ErrValidation, freq)
	}

	filled := interpolate(values)
	if filled > 0 {
		nlog.Debugf("filled %d missing slots by linear interpolation", filled)
	}

	return &Series{Timestamps: timestamps, Values: values, Freq: freq}, nil
}

// interpolate fills interior NaN runs linearly between their defined
// neighbors, in place. Leading and trailing runs have only one neighbor and
// stay NaN. Returns the number of slots filled.
func interpolate(values []float64) int {
	filled := 0
	prev := -1
	for i := 0; i < len(values); i++ {
		if math.IsNaN(values[i]) {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			step := (values[i] - values[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				values[j] = values[prev] + step*float64(j-prev)
				filled++
			}
		}
		prev = i
	}
	return filled
}
