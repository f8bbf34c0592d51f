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

// Package score standardizes decomposition residuals and classifies points
// against a threshold.
package score

import (
	"errors"
	"fmt"
	"math"

	"github.com/seriesmon/anomaly-pipeline/pkg/series"
	"github.com/sirupsen/logrus"
)

// ErrDegenerateScale marks residuals whose scale cannot be established at all
// (no defined residuals to compute statistics from).
var ErrDegenerateScale = errors.New("degenerate residual scale")

var slog = logrus.WithField("component", "score.ZScore")

// Result holds per-slot z-scores and anomaly flags. Undefined residuals carry
// a NaN z-score and are never flagged.
type Result struct {
	ZScores []float64
	Flags   []bool
	Mean    float64
	Std     float64
	Defined int
	// Degenerate is set when the defined residuals have zero spread.
	// Standardization is then impossible; nonzero residuals are flagged
	// directly and zero residuals are not.
	Degenerate bool
}

// Score standardizes the residuals by the mean and population standard
// deviation of the defined residuals only; undefined (NaN) residuals are
// excluded from the statistics so they cannot bias them. A point is flagged
// when |z| exceeds the threshold.
func Score(residuals []float64, threshold float64) (*Result, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("%w: threshold must be positive, got %g", series.ErrValidation, threshold)
	}

	sum, defined := 0.0, 0
	for _, r := range residuals {
		if !math.IsNaN(r) {
			sum += r
			defined++
		}
	}
	if defined == 0 {
		return nil, fmt.Errorf("%w: no defined residuals to score", ErrDegenerateScale)
	}
	mean := sum / float64(defined)

	sumSq := 0.0
	for _, r := range residuals {
		if !math.IsNaN(r) {
			diff := r - mean
			sumSq += diff * diff
		}
	}
	std := math.Sqrt(sumSq / float64(defined))

	result := &Result{
		ZScores: make([]float64, len(residuals)),
		Flags:   make([]bool, len(residuals)),
		Mean:    mean,
		Std:     std,
		Defined: defined,
	}

	if std == 0 {
		// Zero spread: instead of dividing by zero, flag exactly the
		// residuals that are nonzero and leave zero residuals unflagged.
		result.Degenerate = true
		slog.Warnf("degenerate residual scale (std=0 over %d residuals)", defined)
		for i, r := range residuals {
			if math.IsNaN(r) {
				result.ZScores[i] = math.NaN()
				continue
			}
			result.Flags[i] = r != 0
		}
		return result, nil
	}

	for i, r := range residuals {
		if math.IsNaN(r) {
			result.ZScores[i] = math.NaN()
			continue
		}
		z := (r - mean) / std
		result.ZScores[i] = z
		result.Flags[i] = math.Abs(z) > threshold
	}
	return result, nil
}
