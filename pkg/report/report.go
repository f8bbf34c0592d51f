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

// Package report assembles the scored pipeline output into one ordered table
// and derives the anomalies-only view. Reports are value objects: produced
// once per run, never mutated, handed out as copies.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/seriesmon/anomaly-pipeline/pkg/decompose"
	"github.com/seriesmon/anomaly-pipeline/pkg/score"
	"github.com/seriesmon/anomaly-pipeline/pkg/series"
)

const timestampLayout = time.RFC3339

// ScoredPoint is one row of the output table. Undefined numeric cells are NaN
// and serialize as empty/null.
type ScoredPoint struct {
	Timestamp time.Time
	Value     float64
	Trend     float64
	Seasonal  float64
	Residual  float64
	ZScore    float64
	IsAnomaly bool
}

// MarshalJSON emits NaN cells as null so consumers see explicit undefineds.
func (p ScoredPoint) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 160)
	buf = append(buf, `{"timestamp":"`...)
	buf = append(buf, p.Timestamp.Format(timestampLayout)...)
	buf = append(buf, '"')
	for _, cell := range []struct {
		name  string
		value float64
	}{
		{"value", p.Value},
		{"trend", p.Trend},
		{"seasonal", p.Seasonal},
		{"residual", p.Residual},
		{"z_score", p.ZScore},
	} {
		buf = append(buf, ',', '"')
		buf = append(buf, cell.name...)
		buf = append(buf, '"', ':')
		if math.IsNaN(cell.value) {
			buf = append(buf, "null"...)
		} else {
			buf = strconv.AppendFloat(buf, cell.value, 'g', -1, 64)
		}
	}
	buf = append(buf, `,"is_anomaly":`...)
	buf = strconv.AppendBool(buf, p.IsAnomaly)
	buf = append(buf, '}')
	return buf, nil
}

// AnomalyReport is the full ordered table plus the run parameters it was
// produced under.
type AnomalyReport struct {
	Method     decompose.Method
	Period     int
	Threshold  float64
	Degenerate bool
	Forecast   []decompose.ForecastPoint

	points []ScoredPoint
}

// Assemble merges the normalized series, the decomposition and the scores
// into one table in the normalizer's canonical ascending order.
func Assemble(s *series.Series, d *decompose.Result, sc *score.Result, method decompose.Method, period int, threshold float64) *AnomalyReport {
	points := make([]ScoredPoint, s.Len())
	for i := range points {
		points[i] = ScoredPoint{
			Timestamp: s.Timestamps[i],
			Value:     s.Values[i],
			Trend:     d.Trend[i],
			Seasonal:  d.Seasonal[i],
			Residual:  d.Residual[i],
			ZScore:    sc.ZScores[i],
			IsAnomaly: sc.Flags[i],
		}
	}
	return &AnomalyReport{
		Method:     method,
		Period:     period,
		Threshold:  threshold,
		Degenerate: sc.Degenerate,
		Forecast:   d.Forecast,
		points:     points,
	}
}

// Len returns the number of table rows.
func (r *AnomalyReport) Len() int {
	return len(r.points)
}

// Table returns a copy of the full ordered table. Pure projection, no
// recomputation.
func (r *AnomalyReport) Table() []ScoredPoint {
	out := make([]ScoredPoint, len(r.points))
	copy(out, r.points)
	return out
}

// AnomaliesOnly returns the rows flagged as anomalies, same columns, same
// order.
func (r *AnomalyReport) AnomaliesOnly() []ScoredPoint {
	var out []ScoredPoint
	for _, p := range r.points {
		if p.IsAnomaly {
			out = append(out, p)
		}
	}
	return out
}

// WriteCSV serializes the table verbatim. NaN cells become empty fields, so a
// null z-score round-trips as an empty cell rather than a misleading zero.
func (r *AnomalyReport) WriteCSV(w io.Writer, anomaliesOnly bool) error {
	rows := r.points
	if anomaliesOnly {
		rows = r.AnomaliesOnly()
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "value", "trend", "seasonal", "residual", "z_score", "is_anomaly"}); err != nil {
		return err
	}
	for _, p := range rows {
		record := []string{
			p.Timestamp.Format(timestampLayout),
			formatCell(p.Value),
			formatCell(p.Trend),
			formatCell(p.Seasonal),
			formatCell(p.Residual),
			formatCell(p.ZScore),
			strconv.FormatBool(p.IsAnomaly),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Summary is a short human line for logs and notifications.
func (r *AnomalyReport) Summary() string {
	return fmt.Sprintf("%d points scored with method=%s period=%d threshold=%g: %d anomalies",
		r.Len(), r.Method, r.Period, r.Threshold, len(r.AnomaliesOnly()))
}
