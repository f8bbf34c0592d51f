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

// WriteStdoutFormat defines the supported stdout formats.
// For doc generation, enum definitions must match format `Constant Type = "value" // doc`
type WriteStdoutFormat string

const (
	StdoutFormatTable WriteStdoutFormat = "table" // aligned text table, one row per point
	StdoutFormatJSON  WriteStdoutFormat = "json"  // one json object per line
)

// WriteStdout describes writing the report to standard output.
type WriteStdout struct {
	Format        WriteStdoutFormat `yaml:"format,omitempty" json:"format,omitempty" doc:"(enum) output format: table or json"`
	AnomaliesOnly bool              `yaml:"anomaliesOnly,omitempty" json:"anomaliesOnly,omitempty" doc:"write only the rows flagged as anomalies"`
}

// WriteCSV describes writing the report to a csv file.
type WriteCSV struct {
	Filename      string `yaml:"filename" json:"filename" doc:"path of the csv file to write"`
	AnomaliesOnly bool   `yaml:"anomaliesOnly,omitempty" json:"anomaliesOnly,omitempty" doc:"write only the rows flagged as anomalies"`
}

// WriteS3 describes uploading the csv serialization of the report to an
// s3-compatible object store.
type WriteS3 struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint" doc:"address of the s3 server"`
	AccessKeyID     string `yaml:"accessKeyId" json:"accessKeyId" doc:"access key to connect to the server"`
	SecretAccessKey string `yaml:"secretAccessKey" json:"secretAccessKey" doc:"secret key to connect to the server"`
	Bucket          string `yaml:"bucket" json:"bucket" doc:"bucket into which to store the report object"`
	ObjectName      string `yaml:"objectName,omitempty" json:"objectName,omitempty" doc:"object key; a timestamped name is generated when empty"`
	Secure          bool   `yaml:"secure,omitempty" json:"secure,omitempty" doc:"use TLS when connecting to the server"`
	WriteTimeout    int64  `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty" doc:"timeout (in seconds) for the upload operation"`
	AnomaliesOnly   bool   `yaml:"anomaliesOnly,omitempty" json:"anomaliesOnly,omitempty" doc:"upload only the rows flagged as anomalies"`
}
