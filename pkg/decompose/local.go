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

package decompose

import (
	"context"
	"math"
	"sort"

	"github.com/seriesmon/anomaly-pipeline/pkg/series"
	"github.com/sirupsen/logrus"
)

const defaultRobustIterations = 2

var localLog = logrus.WithField("component", "decompose.Local")

// localDecomposer performs a robust seasonal-trend split on history only:
// a centered running-median trend (the window shrinks at the edges, so the
// trend is defined at every slot), then bisquare-weighted per-slot seasonal
// averages. Outliers get near-zero weight and therefore surface in the
// residual instead of being absorbed into the seasonal pattern. Deterministic.
type localDecomposer struct {
	robustIters int
}

func newLocal(opts Options) *localDecomposer {
	iters := opts.RobustIterations
	if iters <= 0 {
		iters = defaultRobustIterations
	}
	return &localDecomposer{robustIters: iters}
}

func (l *localDecomposer) Decompose(ctx context.Context, s *series.Series, period int) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := s.Len()
	if err := checkLength(n, period); err != nil {
		return nil, err
	}

	window := period
	if window%2 == 0 {
		window++
	}
	trend := runningMedian(s.Values, window)

	detrended := make([]float64, n)
	for i := 0; i < n; i++ {
		detrended[i] = s.Values[i] - trend[i]
	}

	weights := robustWeights(detrended)
	var seasonal, residual []float64
	for iter := 0; iter < l.robustIters; iter++ {
		pattern := weightedSlotMeans(detrended, weights, period)
		seasonal = make([]float64, n)
		residual = make([]float64, n)
		for i := 0; i < n; i++ {
			seasonal[i] = pattern[i%period]
			residual[i] = detrended[i] - seasonal[i]
		}
		if iter < l.robustIters-1 {
			weights = robustWeights(residual)
		}
	}
	localLog.Debugf("decomposed %d samples, period=%d, window=%d", n, period, window)

	return &Result{Trend: trend, Seasonal: seasonal, Residual: residual}, nil
}

// runningMedian computes a centered running median with the given odd window.
// Near the edges the window shrinks to the available samples. NaN inputs are
// skipped; a window with no defined samples yields NaN.
func runningMedian(values []float64, window int) []float64 {
	n := len(values)
	half := window / 2
	out := make([]float64, n)
	buf := make([]float64, 0, window)
	for i := 0; i < n; i++ {
		lo, hi := i-half, i+half
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		buf = buf[:0]
		for j := lo; j <= hi; j++ {
			if !math.IsNaN(values[j]) {
				buf = append(buf, values[j])
			}
		}
		out[i] = median(buf)
	}
	return out
}

func median(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, data)
	sort.Float64s(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// robustWeights computes bisquare weights against 6 times the median absolute
// deviation. A flat deviation profile keeps every weight at 1. NaN deviations
// weigh 0.
func robustWeights(deviations []float64) []float64 {
	abs := make([]float64, 0, len(deviations))
	for _, d := range deviations {
		if !math.IsNaN(d) {
			abs = append(abs, math.Abs(d))
		}
	}
	h := 6 * median(abs)
	weights := make([]float64, len(deviations))
	for i, d := range deviations {
		switch {
		case math.IsNaN(d):
			weights[i] = 0
		case h <= 0:
			weights[i] = 1
		default:
			u := math.Abs(d) / h
			if u < 1 {
				weights[i] = (1 - u*u) * (1 - u*u)
			}
		}
	}
	return weights
}

// weightedSlotMeans averages the detrended values per seasonal slot using the
// robustness weights, then centers the pattern so the seasonal component sums
// to zero over one cycle. A slot whose weights all vanish falls back to the
// unweighted mean of its defined values.
func weightedSlotMeans(detrended, weights []float64, period int) []float64 {
	sums := make([]float64, period)
	wsums := make([]float64, period)
	plainSums := make([]float64, period)
	counts := make([]int, period)
	for i, d := range detrended {
		if math.IsNaN(d) {
			continue
		}
		idx := i % period
		sums[idx] += d * weights[i]
		wsums[idx] += weights[i]
		plainSums[idx] += d
		counts[idx]++
	}

	pattern := make([]float64, period)
	for i := 0; i < period; i++ {
		switch {
		case wsums[i] > 1e-12:
			pattern[i] = sums[i] / wsums[i]
		case counts[i] > 0:
			pattern[i] = plainSums[i] / float64(counts[i])
		default:
			pattern[i] = math.NaN()
		}
	}

	sum, defined := 0.0, 0
	for _, v := range pattern {
		if !math.IsNaN(v) {
			sum += v
			defined++
		}
	}
	if defined > 0 {
		mean := sum / float64(defined)
		for i := range pattern {
			pattern[i] -= mean
		}
	}
	return pattern
}
