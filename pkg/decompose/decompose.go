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

// Package decompose splits a normalized series into trend, seasonal and
// residual components. Two interchangeable strategies are provided: a fast
// robust local decomposition operating on history only, and a forecast-based
// decomposition that fits an additive trend+seasonality model and scores
// observed minus fitted. Both return the same Result shape so the scorer is
// method-agnostic.
package decompose

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/seriesmon/anomaly-pipeline/pkg/series"
)

var (
	// ErrInsufficientData marks too little history for the chosen period.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrConvergence marks a model fit that did not converge within budget.
	ErrConvergence = errors.New("fit did not converge")
	// ErrTimeout marks a decomposition that exceeded the caller's budget.
	ErrTimeout = errors.New("decomposition timed out")
)

// Method selects the decomposition strategy.
type Method string

const (
	MethodLocal    Method = "local"
	MethodForecast Method = "forecast"
)

// ForecastPoint is a prediction beyond the observed history. Such points are
// reported but never anomaly-scored.
type ForecastPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

// Result holds one component value per input slot. Undefined values are NaN,
// never silent zeros, and observed = Trend + Seasonal + Residual holds exactly
// at every defined slot.
type Result struct {
	Trend    []float64
	Seasonal []float64
	Residual []float64
	Forecast []ForecastPoint
}

// Fitted returns Trend + Seasonal at slot i.
func (r *Result) Fitted(i int) float64 {
	return r.Trend[i] + r.Seasonal[i]
}

// Decomposer is the single polymorphic operation of this package.
type Decomposer interface {
	Decompose(ctx context.Context, s *series.Series, period int) (*Result, error)
}

// Options carries strategy tuning shared by the factory.
type Options struct {
	// Horizon is the number of slots to forecast beyond history. Only the
	// forecast method uses it; 0 means in-sample only.
	Horizon int
	// RobustIterations is the number of reweighting passes of the local
	// method. 0 selects the default.
	RobustIterations int
	// Tolerance is the refinement step below which the forecast fit is
	// considered converged. 0 selects the default.
	Tolerance float64
	// MaxRefinements bounds the forecast fit refinement rounds. 0 selects
	// the default.
	MaxRefinements int
}

// NewDecomposer builds the strategy for the given method.
func NewDecomposer(method Method, opts Options) (Decomposer, error) {
	switch method {
	case MethodLocal, "":
		return newLocal(opts), nil
	case MethodForecast:
		return newForecast(opts), nil
	}
	return nil, fmt.Errorf("`decompose` method %s not defined", method)
}

func checkLength(n, period int) error {
	if period < 2 {
		return fmt.Errorf("%w: period must be at least 2, got %d", ErrInsufficientData, period)
	}
	if n < 2*period {
		return fmt.Errorf("%w: need at least %d samples for period %d, got %d", ErrInsufficientData, 2*period, period, n)
	}
	return nil
}
