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
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/seriesmon/anomaly-pipeline/pkg/api"
	"github.com/seriesmon/anomaly-pipeline/pkg/report"
)

var csvLog = log.WithField("component", "write.CSV")

type writeCSV struct {
	filename      string
	anomaliesOnly bool
}

// NewWriteCSV creates a writer saving the report to a csv file.
func NewWriteCSV(params *api.WriteCSV) (Writer, error) {
	if params == nil || params.Filename == "" {
		return nil, errors.New("csv write requires a filename")
	}
	return &writeCSV{filename: params.Filename, anomaliesOnly: params.AnomaliesOnly}, nil
}

func (w *writeCSV) Write(rep *report.AnomalyReport) error {
	f, err := os.Create(w.filename)
	if err != nil {
		return errors.Wrapf(err, "cannot create %s", w.filename)
	}
	defer f.Close()
	if err := rep.WriteCSV(f, w.anomaliesOnly); err != nil {
		return errors.Wrapf(err, "cannot write %s", w.filename)
	}
	csvLog.Infof("wrote report to %s", w.filename)
	return nil
}
