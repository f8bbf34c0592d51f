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
	"sync/atomic"

	"github.com/heptiolabs/healthcheck"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/seriesmon/anomaly-pipeline/pkg/config"
	operationalMetrics "github.com/seriesmon/anomaly-pipeline/pkg/operational/metrics"
	"github.com/seriesmon/anomaly-pipeline/pkg/pipeline/ingest"
	"github.com/seriesmon/anomaly-pipeline/pkg/pipeline/notify"
	"github.com/seriesmon/anomaly-pipeline/pkg/pipeline/write"
	"github.com/seriesmon/anomaly-pipeline/pkg/report"
)

var plog = log.WithField("component", "pipeline.Pipeline")

var (
	runsTotal = operationalMetrics.NewCounterVec(prometheus.CounterOpts{
		Name: "anomaly_pipeline_runs_total",
		Help: "Number of completed monitor runs, by status",
	}, []string{"status"})

	stageErrors = operationalMetrics.NewCounterVec(prometheus.CounterOpts{
		Name: "anomaly_pipeline_stage_errors_total",
		Help: "Number of stage failures, by stage",
	}, []string{"stage"})

	anomaliesFlagged = operationalMetrics.NewCounter(prometheus.CounterOpts{
		Name: "anomaly_pipeline_anomalies_flagged_total",
		Help: "Number of points flagged as anomalous",
	})

	lastRunSeconds = operationalMetrics.NewGauge(prometheus.GaugeOpts{
		Name: "anomaly_pipeline_last_run_seconds",
		Help: "Duration of the most recent detection run",
	})

	runDuration = operationalMetrics.NewHistogram(prometheus.HistogramOpts{
		Name:    "anomaly_pipeline_run_duration_seconds",
		Help:    "Distribution of detection run durations",
		Buckets: prometheus.DefBuckets,
	})
)

// Run statuses reported through the readiness probe.
const (
	statusIdle int32 = iota
	statusRunning
	statusSucceeded
	statusFailed
)

// Pipeline wires one ingester through the detector into any number of report
// writers and anomaly notifiers.
type Pipeline struct {
	ingester  ingest.Ingester
	detector  *Detector
	writers   []write.Writer
	notifiers []notify.Notifier
	status    atomic.Int32
}

// NewPipeline builds all the stages named by the configuration.
func NewPipeline(cfg *config.ConfigFileStruct) (*Pipeline, error) {
	ingester, err := getIngester(cfg.Ingest)
	if err != nil {
		return nil, err
	}
	detector, err := NewDetectorFromAPI(cfg.Detect)
	if err != nil {
		return nil, err
	}

	writers := make([]write.Writer, 0, len(cfg.Write))
	for i := range cfg.Write {
		w, err := getWriter(cfg.Write[i])
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	if len(writers) == 0 {
		// a run with no sink at all would be invisible
		w, _ := write.NewWriteStdout(nil)
		writers = append(writers, w)
	}

	notifiers := make([]notify.Notifier, 0, len(cfg.Notify))
	for i := range cfg.Notify {
		n, err := getNotifier(cfg.Notify[i])
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}

	return &Pipeline{
		ingester:  ingester,
		detector:  detector,
		writers:   writers,
		notifiers: notifiers,
	}, nil
}

func getIngester(param config.IngestParam) (ingest.Ingester, error) {
	switch param.Type {
	case "csv":
		return ingest.NewIngestCSV(param.CSV)
	default:
		return nil, errors.Errorf("unknown ingest type %q", param.Type)
	}
}

func getWriter(param config.WriteParam) (write.Writer, error) {
	switch param.Type {
	case "stdout":
		return write.NewWriteStdout(param.Stdout)
	case "csv":
		return write.NewWriteCSV(param.CSV)
	case "s3":
		return write.NewWriteS3(param.S3)
	default:
		return nil, errors.Errorf("unknown write type %q", param.Type)
	}
}

func getNotifier(param config.NotifyParam) (notify.Notifier, error) {
	switch param.Type {
	case "email":
		return notify.NewNotifyEmail(param.Email)
	case "kafka":
		return notify.NewNotifyKafka(param.Kafka)
	default:
		return nil, errors.Errorf("unknown notify type %q", param.Type)
	}
}

// Run executes one ingest-detect-deliver cycle. A failing writer or notifier
// is logged and counted but does not fail the run; ingest and detection
// errors do.
func (p *Pipeline) Run(ctx context.Context) (*report.AnomalyReport, error) {
	p.status.Store(statusRunning)

	points, err := p.ingester.Ingest(ctx)
	if err != nil {
		p.fail()
		stageErrors.WithLabelValues("ingest").Inc()
		return nil, errors.Wrap(err, "ingest stage")
	}
	plog.Infof("ingested %d raw observations", len(points))

	rep, err := p.detector.Run(ctx, points)
	if err != nil {
		p.fail()
		return nil, err
	}
	anomaliesFlagged.Add(float64(len(rep.AnomaliesOnly())))

	for _, w := range p.writers {
		if err := w.Write(rep); err != nil {
			stageErrors.WithLabelValues("write").Inc()
			plog.Errorf("write error: %v", err)
		}
	}
	for _, n := range p.notifiers {
		if err := n.Notify(rep); err != nil {
			stageErrors.WithLabelValues("notify").Inc()
			plog.Errorf("notify error: %v", err)
		}
	}

	p.status.Store(statusSucceeded)
	runsTotal.WithLabelValues("success").Inc()
	return rep, nil
}

func (p *Pipeline) fail() {
	p.status.Store(statusFailed)
	runsTotal.WithLabelValues("failure").Inc()
}

// IsAlive reports liveness; the process serves probes as long as it runs.
func (p *Pipeline) IsAlive() healthcheck.Check {
	return func() error {
		return nil
	}
}

// IsReady reports readiness; a failed run turns the probe unhealthy.
func (p *Pipeline) IsReady() healthcheck.Check {
	return func() error {
		if p.status.Load() == statusFailed {
			return errors.New("last run failed")
		}
		return nil
	}
}
