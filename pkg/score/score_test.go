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

package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seriesmon/anomaly-pipeline/pkg/series"
)

func TestScoreFlagsOutlier(t *testing.T) {
	// residuals centered near zero with one clear outlier
	residuals := []float64{0.1, -0.2, 0.05, -0.1, 10, 0.15, -0.05, 0.1, -0.15, 0.05}
	res, err := Score(residuals, 2)
	require.NoError(t, err)

	assert.True(t, res.Flags[4])
	for i := range residuals {
		if i == 4 {
			continue
		}
		assert.False(t, res.Flags[i], "slot %d", i)
	}
	assert.False(t, res.Degenerate)
	assert.Equal(t, len(residuals), res.Defined)
}

func TestScoreUsesPopulationStd(t *testing.T) {
	residuals := []float64{-1, 1, -1, 1}
	res, err := Score(residuals, 3)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, res.Mean, 1e-12)
	// population convention: divide by n, not n-1
	assert.InDelta(t, 1.0, res.Std, 1e-12)
	assert.InDelta(t, 1.0, res.ZScores[1], 1e-12)
}

func TestScoreExcludesUndefinedResiduals(t *testing.T) {
	residuals := []float64{math.NaN(), -1, 1, -1, 1, math.NaN()}
	res, err := Score(residuals, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Defined)
	assert.True(t, math.IsNaN(res.ZScores[0]))
	assert.True(t, math.IsNaN(res.ZScores[5]))
	assert.False(t, res.Flags[0])
	assert.False(t, res.Flags[5])
	assert.InDelta(t, 1.0, res.Std, 1e-12)
}

func TestScoreDegenerateZeroResiduals(t *testing.T) {
	residuals := []float64{0, 0, 0, 0}
	res, err := Score(residuals, 3)
	require.NoError(t, err)
	assert.True(t, res.Degenerate)
	for i := range residuals {
		assert.False(t, res.Flags[i])
		assert.Equal(t, 0.0, res.ZScores[i])
	}
}

func TestScoreDegenerateNonzeroResiduals(t *testing.T) {
	// zero spread but a nonzero common residual: flagged directly rather
	// than divided by zero
	residuals := []float64{2, 2, math.NaN(), 2}
	res, err := Score(residuals, 3)
	require.NoError(t, err)
	assert.True(t, res.Degenerate)
	assert.True(t, res.Flags[0])
	assert.True(t, res.Flags[1])
	assert.False(t, res.Flags[2])
	assert.True(t, res.Flags[3])
	assert.True(t, math.IsNaN(res.ZScores[2]))
}

func TestScoreNoDefinedResiduals(t *testing.T) {
	_, err := Score([]float64{math.NaN(), math.NaN()}, 3)
	assert.ErrorIs(t, err, ErrDegenerateScale)
}

func TestScoreRejectsBadThreshold(t *testing.T) {
	_, err := Score([]float64{1, 2, 3}, 0)
	assert.ErrorIs(t, err, series.ErrValidation)
	_, err = Score([]float64{1, 2, 3}, -1)
	assert.ErrorIs(t, err, series.ErrValidation)
}

func TestScoreThresholdMonotonicity(t *testing.T) {
	residuals := []float64{0.1, -0.2, 0.05, -0.1, 10, 0.15, -0.05, 0.1, -0.15, 0.05}
	loose, err := Score(residuals, 2)
	require.NoError(t, err)
	tight, err := Score(residuals, 4)
	require.NoError(t, err)
	for i := range residuals {
		if tight.Flags[i] {
			assert.True(t, loose.Flags[i], "tightening the threshold must not add anomalies")
		}
	}
}
