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
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/seriesmon/anomaly-pipeline/pkg/series"
	"github.com/sirupsen/logrus"
)

const (
	defaultFitTolerance   = 1e-3
	defaultMaxRefinements = 32
	forecastInterval      = 1.96 // 95% band on horizon predictions
)

var forecastLog = logrus.WithField("component", "decompose.Forecast")

// forecastDecomposer fits an additive Holt-Winters model (level, trend,
// seasonal) to the full history and treats the in-sample one-step-ahead
// fitted values as trend+seasonal. The smoothing parameters are chosen by a
// deterministic coarse grid search followed by successive neighborhood
// refinement minimizing the one-step-ahead squared error. The search is
// deterministic, but small numeric differences across platforms are expected
// and acceptable; flags derived from it are stable well beyond that tolerance.
type forecastDecomposer struct {
	horizon        int
	tolerance      float64
	maxRefinements int
}

func newForecast(opts Options) *forecastDecomposer {
	tol := opts.Tolerance
	if tol <= 0 {
		tol = defaultFitTolerance
	}
	maxRef := opts.MaxRefinements
	if maxRef <= 0 {
		maxRef = defaultMaxRefinements
	}
	return &forecastDecomposer{
		horizon:        opts.Horizon,
		tolerance:      tol,
		maxRefinements: maxRef,
	}
}

type hwParams struct {
	alpha, beta, gamma float64
}

type hwState struct {
	level    float64
	trend    float64
	seasonal []float64
}

func (f *forecastDecomposer) Decompose(ctx context.Context, s *series.Series, period int) (*Result, error) {
	n := s.Len()
	if err := checkLength(n, period); err != nil {
		return nil, err
	}
	if !s.FullyDefined() {
		return nil, fmt.Errorf("%w: forecast decomposition requires a gap-free series", series.ErrValidation)
	}

	params, sse, err := f.fit(ctx, s.Values, period)
	if err != nil {
		return nil, err
	}
	forecastLog.Debugf("fitted alpha=%.3f beta=%.3f gamma=%.3f sse=%.4f", params.alpha, params.beta, params.gamma, sse)

	trend := make([]float64, n)
	seasonal := make([]float64, n)
	residual := make([]float64, n)
	state := hwInit(s.Values, period)
	for i := 0; i < n; i++ {
		si := state.seasonal[i%period]
		fitted := state.level + state.trend + si
		trend[i] = fitted - si
		seasonal[i] = si
		residual[i] = s.Values[i] - fitted
		state.update(s.Values[i], i%period, params)
	}

	result := &Result{Trend: trend, Seasonal: seasonal, Residual: residual}
	if f.horizon > 0 {
		result.Forecast = f.extend(s, state, period, residual)
	}
	return result, nil
}

// fit selects alpha/beta/gamma minimizing the one-step-ahead SSE over the
// history past the first cycle. Coarse 5x5x5 grid, then a shrinking 3x3x3
// neighborhood around the best point until the step drops below the
// tolerance.
func (f *forecastDecomposer) fit(ctx context.Context, values []float64, period int) (hwParams, float64, error) {
	if err := ctx.Err(); err != nil {
		return hwParams{}, 0, errors.Wrapf(ErrTimeout, "forecast fit aborted before start: %v", err)
	}
	coarse := []float64{0.05, 0.25, 0.45, 0.65, 0.85}
	best := hwParams{alpha: 0.5, beta: 0.1, gamma: 0.1}
	bestSSE := math.Inf(1)
	for _, a := range coarse {
		for _, b := range coarse {
			for _, g := range coarse {
				p := hwParams{alpha: a, beta: b, gamma: g}
				if sse := hwSSE(values, period, p); sse < bestSSE {
					best, bestSSE = p, sse
				}
			}
		}
	}

	step := 0.1
	rounds := 0
	for step >= f.tolerance {
		if err := ctx.Err(); err != nil {
			return best, bestSSE, errors.Wrapf(ErrTimeout, "forecast fit interrupted after %d refinement rounds: %v", rounds, err)
		}
		if rounds >= f.maxRefinements {
			return best, bestSSE, errors.Wrapf(ErrConvergence, "refinement budget of %d rounds exhausted at step %g", f.maxRefinements, step)
		}
		improved := false
		for _, da := range []float64{-step, 0, step} {
			for _, db := range []float64{-step, 0, step} {
				for _, dg := range []float64{-step, 0, step} {
					p := hwParams{
						alpha: clampParam(best.alpha + da),
						beta:  clampParam(best.beta + db),
						gamma: clampParam(best.gamma + dg),
					}
					if sse := hwSSE(values, period, p); sse < bestSSE {
						best, bestSSE = p, sse
						improved = true
					}
				}
			}
		}
		if !improved {
			step /= 2
		}
		rounds++
	}
	if math.IsInf(bestSSE, 1) || math.IsNaN(bestSSE) {
		return best, bestSSE, errors.Wrap(ErrConvergence, "squared error did not reach a finite value")
	}
	return best, bestSSE, nil
}

func clampParam(v float64) float64 {
	if v < 0.001 {
		return 0.001
	}
	if v > 0.999 {
		return 0.999
	}
	return v
}

// hwInit seeds level with the first cycle mean, trend with the averaged
// cycle-over-cycle change, and the seasonal pattern with centered first-cycle
// offsets.
func hwInit(values []float64, period int) *hwState {
	first, second := 0.0, 0.0
	for i := 0; i < period; i++ {
		first += values[i]
		second += values[period+i]
	}
	first /= float64(period)
	second /= float64(period)

	seasonal := make([]float64, period)
	sum := 0.0
	for i := 0; i < period; i++ {
		seasonal[i] = values[i] - first
		sum += seasonal[i]
	}
	mean := sum / float64(period)
	for i := range seasonal {
		seasonal[i] -= mean
	}

	return &hwState{
		level:    first,
		trend:    (second - first) / float64(period),
		seasonal: seasonal,
	}
}

func (st *hwState) update(value float64, slot int, p hwParams) {
	prevLevel := st.level
	st.level = p.alpha*(value-st.seasonal[slot]) + (1-p.alpha)*(st.level+st.trend)
	st.trend = p.beta*(st.level-prevLevel) + (1-p.beta)*st.trend
	st.seasonal[slot] = p.gamma*(value-st.level) + (1-p.gamma)*st.seasonal[slot]
}

// hwSSE runs one smoothing pass and accumulates squared one-step-ahead errors
// past the initialization cycle.
func hwSSE(values []float64, period int, p hwParams) float64 {
	state := hwInit(values, period)
	sse := 0.0
	for i := 0; i < len(values); i++ {
		fitted := state.level + state.trend + state.seasonal[i%period]
		if i >= period {
			diff := values[i] - fitted
			sse += diff * diff
		}
		state.update(values[i], i%period, p)
	}
	if math.IsNaN(sse) {
		return math.Inf(1)
	}
	return sse
}

// extend produces horizon predictions beyond the last observation with a
// widening 95% band derived from the in-sample residual spread.
func (f *forecastDecomposer) extend(s *series.Series, state *hwState, period int, residual []float64) []ForecastPoint {
	sumSq := 0.0
	for _, r := range residual {
		sumSq += r * r
	}
	sigma := math.Sqrt(sumSq / float64(len(residual)))

	n := s.Len()
	points := make([]ForecastPoint, 0, f.horizon)
	t := s.Timestamps[n-1]
	for k := 1; k <= f.horizon; k++ {
		t = s.Freq.Step(t)
		value := state.level + float64(k)*state.trend + state.seasonal[(n+k-1)%period]
		band := forecastInterval * sigma * math.Sqrt(float64(k))
		points = append(points, ForecastPoint{
			Timestamp: t,
			Value:     value,
			Lower:     value - band,
			Upper:     value + band,
		})
	}
	return points
}
