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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seriesmon/anomaly-pipeline/pkg/series"
)

func dailySeries(values []float64) *series.Series {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	timestamps := make([]time.Time, len(values))
	for i := range values {
		timestamps[i] = start.AddDate(0, 0, i)
	}
	return &series.Series{Timestamps: timestamps, Values: values, Freq: series.FreqDaily}
}

func TestLocalAdditiveIdentity(t *testing.T) {
	values := []float64{10, 12, 11, 13, 12, 50, 11, 10, 12, 11, 13, 12, 11, 10}
	s := dailySeries(values)
	d, err := NewDecomposer(MethodLocal, Options{})
	require.NoError(t, err)

	res, err := d.Decompose(context.Background(), s, 7)
	require.NoError(t, err)
	require.Len(t, res.Trend, s.Len())
	require.Len(t, res.Seasonal, s.Len())
	require.Len(t, res.Residual, s.Len())
	for i := range values {
		sum := res.Trend[i] + res.Seasonal[i] + res.Residual[i]
		assert.InDelta(t, values[i], sum, 1e-9, "slot %d", i)
	}
}

func TestLocalSpikeSurfacesInResidual(t *testing.T) {
	values := []float64{10, 12, 11, 13, 12, 50, 11, 10, 12, 11, 13, 12, 11, 10}
	s := dailySeries(values)
	d, err := NewDecomposer(MethodLocal, Options{})
	require.NoError(t, err)

	res, err := d.Decompose(context.Background(), s, 7)
	require.NoError(t, err)
	// the spike must land in the residual, not be absorbed into the
	// seasonal pattern via its repeat slot
	assert.Greater(t, res.Residual[5], 30.0)
	for i := range values {
		if i == 5 {
			continue
		}
		assert.Less(t, math.Abs(res.Residual[i]), 3.0, "slot %d", i)
	}
}

func TestLocalMinimumHistoryBoundary(t *testing.T) {
	d, err := NewDecomposer(MethodLocal, Options{})
	require.NoError(t, err)

	short := dailySeries(make([]float64, 13))
	_, err = d.Decompose(context.Background(), short, 7)
	assert.ErrorIs(t, err, ErrInsufficientData)

	values := make([]float64, 14)
	for i := range values {
		values[i] = float64(i%7) + 1
	}
	_, err = d.Decompose(context.Background(), dailySeries(values), 7)
	assert.NoError(t, err)
}

func TestLocalRejectsDegeneratePeriod(t *testing.T) {
	d, err := NewDecomposer(MethodLocal, Options{})
	require.NoError(t, err)
	_, err = d.Decompose(context.Background(), dailySeries(make([]float64, 10)), 1)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestLocalDeterministic(t *testing.T) {
	values := []float64{10, 12, 11, 13, 12, 50, 11, 10, 12, 11, 13, 12, 11, 10}
	d, err := NewDecomposer(MethodLocal, Options{})
	require.NoError(t, err)

	first, err := d.Decompose(context.Background(), dailySeries(values), 7)
	require.NoError(t, err)
	second, err := d.Decompose(context.Background(), dailySeries(values), 7)
	require.NoError(t, err)
	assert.Equal(t, first.Residual, second.Residual)
	assert.Equal(t, first.Trend, second.Trend)
	assert.Equal(t, first.Seasonal, second.Seasonal)
}

func TestLocalKeepsUndefinedSlotsUndefined(t *testing.T) {
	values := []float64{math.NaN(), 12, 11, 13, 12, 14, 11, 10, 12, 11, 13, 12, 11, 10}
	d, err := NewDecomposer(MethodLocal, Options{})
	require.NoError(t, err)

	res, err := d.Decompose(context.Background(), dailySeries(values), 7)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(res.Residual[0]))
	for i := 1; i < len(values); i++ {
		assert.False(t, math.IsNaN(res.Residual[i]), "slot %d", i)
	}
}

func TestUnknownMethodRejected(t *testing.T) {
	_, err := NewDecomposer("stl", Options{})
	assert.Error(t, err)
}
