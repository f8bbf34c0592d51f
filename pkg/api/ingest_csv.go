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

package api

// IngestCSV describes a csv file with one timestamp column and one numeric
// value column.
type IngestCSV struct {
	Filename        string `yaml:"filename" json:"filename" doc:"path of the csv file to ingest"`
	TimestampColumn string `yaml:"timestampColumn,omitempty" json:"timestampColumn,omitempty" doc:"header of the timestamp column; common names (ds, date, timestamp) are auto-detected when empty"`
	ValueColumn     string `yaml:"valueColumn,omitempty" json:"valueColumn,omitempty" doc:"header of the numeric value column; common names (y, value) are auto-detected when empty"`
	TimestampFormat string `yaml:"timestampFormat,omitempty" json:"timestampFormat,omitempty" doc:"Go reference layout of the timestamp column; several common layouts are tried when empty"`
}
