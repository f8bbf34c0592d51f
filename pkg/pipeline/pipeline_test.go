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

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seriesmon/anomaly-pipeline/pkg/api"
	"github.com/seriesmon/anomaly-pipeline/pkg/config"
	operationalMetrics "github.com/seriesmon/anomaly-pipeline/pkg/operational/metrics"
)

func writeSpikedCSV(t *testing.T) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("ds,y\n")
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range spikedWeeks {
		fmt.Fprintf(&sb, "%s,%g\n", start.AddDate(0, 0, i).Format("2006-01-02"), v)
	}
	path := filepath.Join(t.TempDir(), "metric.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o600))
	return path
}

func TestPipelineEndToEnd(t *testing.T) {
	input := writeSpikedCSV(t)
	output := filepath.Join(t.TempDir(), "report.csv")

	cfg := &config.ConfigFileStruct{
		Ingest: config.IngestParam{
			Type: "csv",
			CSV:  &api.IngestCSV{Filename: input},
		},
		Detect: api.Detect{
			Frequency: api.FrequencyDaily,
			Method:    api.DetectMethodLocal,
		},
		Write: []config.WriteParam{
			{Type: "csv", CSV: &api.WriteCSV{Filename: output, AnomaliesOnly: true}},
		},
	}
	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	rep, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.AnomaliesOnly(), 1)
	assert.Equal(t, 50.0, rep.AnomaliesOnly()[0].Value)

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "2024-03-06")
	assert.Contains(t, lines[1], "true")

	assert.NoError(t, p.IsAlive()())
	assert.NoError(t, p.IsReady()())
}

func TestPipelineFailedRunTurnsUnready(t *testing.T) {
	cfg := &config.ConfigFileStruct{
		Ingest: config.IngestParam{
			Type: "csv",
			CSV:  &api.IngestCSV{Filename: "/does/not/exist.csv"},
		},
	}
	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.Error(t, err)
	assert.NoError(t, p.IsAlive()())
	assert.Error(t, p.IsReady()())
}

func TestPipelineWriterFailureDoesNotFailRun(t *testing.T) {
	cfg := &config.ConfigFileStruct{
		Ingest: config.IngestParam{
			Type: "csv",
			CSV:  &api.IngestCSV{Filename: writeSpikedCSV(t)},
		},
		Write: []config.WriteParam{
			{Type: "csv", CSV: &api.WriteCSV{Filename: "/proc/forbidden/report.csv"}},
		},
	}
	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	rep, err := p.Run(context.Background())
	require.NoError(t, err, "a failing sink must not fail the run")
	assert.Len(t, rep.AnomaliesOnly(), 1)
	assert.NoError(t, p.IsReady()())
}

func TestOperationalMetricsAreDocumented(t *testing.T) {
	doc := operationalMetrics.GetDocumentation()
	assert.Contains(t, doc, "anomaly_pipeline_runs_total")
	assert.Contains(t, doc, "anomaly_pipeline_stage_errors_total")
	assert.Contains(t, doc, "anomaly_pipeline_anomalies_flagged_total")
	assert.Contains(t, doc, "anomaly_pipeline_last_run_seconds")
	assert.Contains(t, doc, "anomaly_pipeline_run_duration_seconds")
}

func TestNewPipelineUnknownStageTypes(t *testing.T) {
	_, err := NewPipeline(&config.ConfigFileStruct{
		Ingest: config.IngestParam{Type: "collector"},
	})
	assert.Error(t, err)

	base := config.IngestParam{Type: "csv", CSV: &api.IngestCSV{Filename: "x.csv"}}
	_, err = NewPipeline(&config.ConfigFileStruct{
		Ingest: base,
		Write:  []config.WriteParam{{Type: "loki"}},
	})
	assert.Error(t, err)

	_, err = NewPipeline(&config.ConfigFileStruct{
		Ingest: base,
		Notify: []config.NotifyParam{{Type: "pager"}},
	})
	assert.Error(t, err)
}
