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
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/seriesmon/anomaly-pipeline/pkg/api"
	"github.com/seriesmon/anomaly-pipeline/pkg/decompose"
	"github.com/seriesmon/anomaly-pipeline/pkg/report"
	"github.com/seriesmon/anomaly-pipeline/pkg/score"
	"github.com/seriesmon/anomaly-pipeline/pkg/series"
)

var dlog = log.WithField("component", "pipeline.Detector")

const defaultThreshold = 3.0

// DetectConfig are the resolved settings of a detection run.
type DetectConfig struct {
	Frequency series.Frequency
	Period    int
	Method    decompose.Method
	Threshold float64
	Horizon   int
	Timeout   time.Duration
}

// Detector runs the four detection stages in order: normalize the raw
// observations onto a regular grid, decompose the grid into trend, seasonal
// and residual parts, score the residuals, and assemble the report.
type Detector struct {
	cfg        DetectConfig
	decomposer decompose.Decomposer
	clock      clock.Clock
}

// NewDetector resolves defaults and builds the configured decomposer.
func NewDetector(cfg DetectConfig) (*Detector, error) {
	if cfg.Frequency == "" {
		cfg.Frequency = series.FreqDaily
	}
	if cfg.Period == 0 {
		cfg.Period = cfg.Frequency.DefaultPeriod()
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = defaultThreshold
	}
	decomposer, err := decompose.NewDecomposer(cfg.Method, decompose.Options{Horizon: cfg.Horizon})
	if err != nil {
		return nil, err
	}
	if cfg.Method == "" {
		cfg.Method = decompose.MethodLocal
	}
	return &Detector{cfg: cfg, decomposer: decomposer, clock: clock.New()}, nil
}

// NewDetectorFromAPI translates the external configuration block into a
// resolved DetectConfig.
func NewDetectorFromAPI(params api.Detect) (*Detector, error) {
	freq, err := series.ParseFrequency(string(params.Frequency))
	if err != nil {
		return nil, err
	}
	var timeout time.Duration
	if params.Timeout != "" {
		timeout, err = time.ParseDuration(params.Timeout)
		if err != nil {
			return nil, errors.Wrapf(err, "bad detect timeout %q", params.Timeout)
		}
	}
	return NewDetector(DetectConfig{
		Frequency: freq,
		Period:    params.Period,
		Method:    decompose.Method(params.Method),
		Threshold: params.Threshold,
		Horizon:   params.Horizon,
		Timeout:   timeout,
	})
}

// Config returns the resolved settings of the detector.
func (d *Detector) Config() DetectConfig {
	return d.cfg
}

// Run executes the detection stages over the raw observations. The configured
// timeout bounds the decompose stage only; normalization and scoring are
// cheap by comparison.
func (d *Detector) Run(ctx context.Context, points []series.Point) (*report.AnomalyReport, error) {
	start := d.clock.Now()

	s, err := series.Normalize(points, d.cfg.Frequency)
	if err != nil {
		stageErrors.WithLabelValues("normalize").Inc()
		return nil, errors.Wrap(err, "normalize stage")
	}
	dlog.WithField("points", s.Len()).Debugf("normalized in %v", d.clock.Since(start))

	decomposeCtx := ctx
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		decomposeCtx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}
	stageStart := d.clock.Now()
	dec, err := d.decomposer.Decompose(decomposeCtx, s, d.cfg.Period)
	if err != nil {
		stageErrors.WithLabelValues("decompose").Inc()
		return nil, errors.Wrapf(err, "decompose stage (%s)", d.cfg.Method)
	}
	dlog.Debugf("decomposed in %v", d.clock.Since(stageStart))

	stageStart = d.clock.Now()
	scored, err := score.Score(dec.Residual, d.cfg.Threshold)
	if err != nil {
		stageErrors.WithLabelValues("score").Inc()
		return nil, errors.Wrap(err, "score stage")
	}
	dlog.Debugf("scored in %v", d.clock.Since(stageStart))

	rep := report.Assemble(s, dec, scored, d.cfg.Method, d.cfg.Period, d.cfg.Threshold)
	elapsed := d.clock.Since(start)
	lastRunSeconds.Set(elapsed.Seconds())
	runDuration.Observe(elapsed.Seconds())
	dlog.WithField("anomalies", len(rep.AnomaliesOnly())).Infof("detection finished in %v", elapsed)
	return rep, nil
}
