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

package write

import (
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/seriesmon/anomaly-pipeline/pkg/api"
	"github.com/seriesmon/anomaly-pipeline/pkg/report"
)

var stdoutLog = log.WithField("component", "write.Stdout")

type writeStdout struct {
	format        api.WriteStdoutFormat
	anomaliesOnly bool
	out           io.Writer
}

// NewWriteStdout creates a writer printing the report to standard output.
func NewWriteStdout(params *api.WriteStdout) (Writer, error) {
	format := api.StdoutFormatTable
	anomaliesOnly := false
	if params != nil {
		anomaliesOnly = params.AnomaliesOnly
		if params.Format != "" {
			format = params.Format
		}
	}
	switch format {
	case api.StdoutFormatTable, api.StdoutFormatJSON:
	default:
		return nil, errors.Errorf("unknown stdout format %q", format)
	}
	return &writeStdout{format: format, anomaliesOnly: anomaliesOnly, out: os.Stdout}, nil
}

func (w *writeStdout) Write(rep *report.AnomalyReport) error {
	points := rep.Table()
	if w.anomaliesOnly {
		points = rep.AnomaliesOnly()
	}
	stdoutLog.Debugf("writing %d rows as %s", len(points), w.format)
	if w.format == api.StdoutFormatJSON {
		return w.writeJSON(points)
	}
	return w.writeTable(rep, points)
}

func (w *writeStdout) writeJSON(points []report.ScoredPoint) error {
	for i := range points {
		line, err := jsoniter.Marshal(&points[i])
		if err != nil {
			return errors.Wrap(err, "cannot marshal row")
		}
		fmt.Fprintln(w.out, string(line))
	}
	return nil
}

func (w *writeStdout) writeTable(rep *report.AnomalyReport, points []report.ScoredPoint) error {
	fmt.Fprintln(w.out, rep.Summary())
	tw := tabwriter.NewWriter(w.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tVALUE\tRESIDUAL\tZ-SCORE\tANOMALY")
	for i := range points {
		p := &points[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%v\n",
			p.Timestamp.Format(time.RFC3339),
			cell(p.Value), cell(p.Residual), cell(p.ZScore), p.IsAnomaly)
	}
	return tw.Flush()
}

func cell(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.4g", v)
}
