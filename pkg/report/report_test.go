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

package report

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seriesmon/anomaly-pipeline/pkg/decompose"
	"github.com/seriesmon/anomaly-pipeline/pkg/score"
	"github.com/seriesmon/anomaly-pipeline/pkg/series"
)

func sampleReport(t *testing.T) *AnomalyReport {
	t.Helper()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := &series.Series{
		Timestamps: []time.Time{start, start.AddDate(0, 0, 1), start.AddDate(0, 0, 2)},
		Values:     []float64{10, 50, math.NaN()},
		Freq:       series.FreqDaily,
	}
	d := &decompose.Result{
		Trend:    []float64{10, 11, math.NaN()},
		Seasonal: []float64{0.5, -0.5, math.NaN()},
		Residual: []float64{-0.5, 39.5, math.NaN()},
	}
	sc := &score.Result{
		ZScores: []float64{-0.7, 3.5, math.NaN()},
		Flags:   []bool{false, true, false},
		Defined: 2,
	}
	return Assemble(s, d, sc, decompose.MethodLocal, 7, 3)
}

func TestAssembleKeepsOrderAndColumns(t *testing.T) {
	rep := sampleReport(t)
	require.Equal(t, 3, rep.Len())

	table := rep.Table()
	require.Len(t, table, 3)
	assert.Equal(t, 10.0, table[0].Value)
	assert.Equal(t, 50.0, table[1].Value)
	assert.True(t, table[1].IsAnomaly)
	assert.True(t, math.IsNaN(table[2].ZScore))
	assert.True(t, table[0].Timestamp.Before(table[1].Timestamp))
}

func TestTableReturnsACopy(t *testing.T) {
	rep := sampleReport(t)
	table := rep.Table()
	table[0].Value = -999
	assert.Equal(t, 10.0, rep.Table()[0].Value)
}

func TestAnomaliesOnly(t *testing.T) {
	rep := sampleReport(t)
	anomalies := rep.AnomaliesOnly()
	require.Len(t, anomalies, 1)
	assert.Equal(t, 50.0, anomalies[0].Value)
	assert.True(t, anomalies[0].IsAnomaly)
}

func TestWriteCSVEmitsEmptyCellsForUndefined(t *testing.T) {
	rep := sampleReport(t)
	var buf bytes.Buffer
	require.NoError(t, rep.WriteCSV(&buf, false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "timestamp,value,trend,seasonal,residual,z_score,is_anomaly", lines[0])
	assert.Equal(t, "2024-03-01T00:00:00Z,10,10,0.5,-0.5,-0.7,false", lines[1])
	assert.Equal(t, "2024-03-02T00:00:00Z,50,11,-0.5,39.5,3.5,true", lines[2])
	// the undefined slot keeps its row but with empty numeric cells
	assert.Equal(t, "2024-03-03T00:00:00Z,,,,,,false", lines[3])
}

func TestWriteCSVAnomaliesOnly(t *testing.T) {
	rep := sampleReport(t)
	var buf bytes.Buffer
	require.NoError(t, rep.WriteCSV(&buf, true))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "2024-03-02T00:00:00Z")
}

func TestScoredPointJSONNullsUndefined(t *testing.T) {
	rep := sampleReport(t)
	raw, err := rep.Table()[2].MarshalJSON()
	require.NoError(t, err)
	js := string(raw)
	assert.Contains(t, js, `"value":null`)
	assert.Contains(t, js, `"z_score":null`)
	assert.Contains(t, js, `"is_anomaly":false`)

	raw, err = rep.Table()[1].MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"z_score":3.5`)
	assert.Contains(t, string(raw), `"is_anomaly":true`)
}

func TestSummaryMentionsCounts(t *testing.T) {
	rep := sampleReport(t)
	sum := rep.Summary()
	assert.Contains(t, sum, "3 points")
	assert.Contains(t, sum, "1 anomalies")
	assert.Contains(t, sum, "local")
}
