/*
 * Copyright (C) 2022 IBM, Inc.
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

const TagYaml = "yaml"
const TagDoc = "doc"

// Note: items beginning with doc: "## title" are top level items that get divided into sections inside api.md.

type API struct {
	IngestCSV   IngestCSV   `yaml:"csv" doc:"## CSV ingest API\nFollowing is the supported API format for csv series ingestion:\n"`
	Detect      Detect      `yaml:"detect" doc:"## Detect API\nFollowing is the supported API format for anomaly detection:\n"`
	WriteStdout WriteStdout `yaml:"stdout" doc:"## Stdout write API\nFollowing is the supported API format for writing the report to stdout:\n"`
	WriteCSV    WriteCSV    `yaml:"csvfile" doc:"## CSV file write API\nFollowing is the supported API format for writing the report to a csv file:\n"`
	WriteS3     WriteS3     `yaml:"s3" doc:"## S3 write API\nFollowing is the supported API format for uploading the report to object storage:\n"`
	NotifyEmail NotifyEmail `yaml:"email" doc:"## Email notify API\nFollowing is the supported API format for emailing the anomaly list:\n"`
	NotifyKafka NotifyKafka `yaml:"kafka" doc:"## Kafka notify API\nFollowing is the supported API format for publishing anomalies to kafka:\n"`
}
