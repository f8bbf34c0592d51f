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

package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/seriesmon/anomaly-pipeline/pkg/api"
	"github.com/seriesmon/anomaly-pipeline/pkg/series"
)

var ilog = log.WithField("component", "ingest.CSV")

// timestampLayouts are tried in order when no explicit format is configured.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

var (
	timestampHeaders = []string{"ds", "date", "timestamp", "time"}
	valueHeaders     = []string{"y", "value"}
)

type ingestCSV struct {
	params api.IngestCSV
}

// NewIngestCSV creates a file reader for a two-column csv time series.
func NewIngestCSV(params *api.IngestCSV) (Ingester, error) {
	if params == nil || params.Filename == "" {
		return nil, errors.New("csv ingest requires a filename")
	}
	return &ingestCSV{params: *params}, nil
}

func (ing *ingestCSV) Ingest(ctx context.Context) ([]series.Point, error) {
	f, err := os.Open(ing.params.Filename)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", ing.params.Filename)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read header of %s", ing.params.Filename)
	}
	tsCol, valCol, err := ing.resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var points []series.Point
	skipped := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "malformed csv record in %s", ing.params.Filename)
		}
		if tsCol >= len(record) || valCol >= len(record) {
			skipped++
			continue
		}
		rawTS := strings.TrimSpace(record[tsCol])
		rawVal := strings.TrimSpace(record[valCol])
		if rawTS == "" || rawVal == "" || isNA(rawVal) {
			skipped++
			continue
		}
		ts, err := ing.parseTimestamp(rawTS)
		if err != nil {
			return nil, errors.Wrapf(err, "bad timestamp %q in %s", rawTS, ing.params.Filename)
		}
		val, err := strconv.ParseFloat(rawVal, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad value %q in %s", rawVal, ing.params.Filename)
		}
		points = append(points, series.Point{Timestamp: ts, Value: val})
	}

	if skipped > 0 {
		ilog.Infof("skipped %d incomplete records in %s", skipped, ing.params.Filename)
	}
	ilog.Debugf("ingested %d points from %s", len(points), ing.params.Filename)
	return points, nil
}

// resolveColumns maps the configured (or auto-detected) column names to
// indexes in the header record. Header matching is case-insensitive.
func (ing *ingestCSV) resolveColumns(header []string) (int, int, error) {
	tsCol := findColumn(header, ing.params.TimestampColumn, timestampHeaders)
	if tsCol < 0 {
		return 0, 0, errors.Errorf("no timestamp column found in header %v", header)
	}
	valCol := findColumn(header, ing.params.ValueColumn, valueHeaders)
	if valCol < 0 {
		return 0, 0, errors.Errorf("no value column found in header %v", header)
	}
	if tsCol == valCol {
		return 0, 0, errors.New("timestamp and value columns must differ")
	}
	return tsCol, valCol, nil
}

func findColumn(header []string, explicit string, candidates []string) int {
	if explicit != "" {
		candidates = []string{explicit}
	}
	for _, want := range candidates {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				return i
			}
		}
	}
	return -1
}

func (ing *ingestCSV) parseTimestamp(raw string) (time.Time, error) {
	if ing.params.TimestampFormat != "" {
		return time.Parse(ing.params.TimestampFormat, raw)
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, errors.Errorf("no known layout matches %q", raw)
}

func isNA(raw string) bool {
	switch strings.ToUpper(raw) {
	case "NA", "N/A", "NAN", "NULL":
		return true
	}
	return false
}
