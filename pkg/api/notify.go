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

// NotifyEmail describes an SMTP alert carrying the anomalies-only rows.
// Credentials fall back to the MONITOR_EMAIL_USER and MONITOR_EMAIL_PWD
// environment variables when left empty.
type NotifyEmail struct {
	SMTPHost string   `yaml:"smtpHost" json:"smtpHost" doc:"hostname of the smtp server"`
	SMTPPort int      `yaml:"smtpPort,omitempty" json:"smtpPort,omitempty" doc:"port of the smtp server; 0 selects 587"`
	From     string   `yaml:"from,omitempty" json:"from,omitempty" doc:"sender address; defaults to the username"`
	To       []string `yaml:"to" json:"to" doc:"list of recipient addresses"`
	Subject  string   `yaml:"subject,omitempty" json:"subject,omitempty" doc:"subject line; a default mentioning the anomaly count is used when empty"`
	Username string   `yaml:"username,omitempty" json:"username,omitempty" doc:"smtp username; falls back to MONITOR_EMAIL_USER"`
	Password string   `yaml:"password,omitempty" json:"password,omitempty" doc:"smtp password; falls back to MONITOR_EMAIL_PWD"`
}

// KafkaNotifyBalancerName defines the supported kafka balancers.
// For doc generation, enum definitions must match format `Constant Type = "value" // doc`
type KafkaNotifyBalancerName string

const (
	KafkaRoundRobin KafkaNotifyBalancerName = "roundRobin" // RoundRobin balancer
	KafkaLeastBytes KafkaNotifyBalancerName = "leastBytes" // LeastBytes balancer
	KafkaHash       KafkaNotifyBalancerName = "hash"       // Hash balancer
	KafkaCrc32      KafkaNotifyBalancerName = "crc32"      // Crc32 balancer
	KafkaMurmur2    KafkaNotifyBalancerName = "murmur2"    // Murmur2 balancer
)

// NotifyKafka describes publishing each anomaly row as a json message.
type NotifyKafka struct {
	Address      string                  `yaml:"address" json:"address" doc:"address of the kafka server"`
	Topic        string                  `yaml:"topic" json:"topic" doc:"kafka topic to write anomalies to"`
	Balancer     KafkaNotifyBalancerName `yaml:"balancer,omitempty" json:"balancer,omitempty" doc:"(enum) one of the supported balancers"`
	WriteTimeout int64                   `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty" doc:"timeout (in seconds) for the write operation"`
	BatchSize    int                     `yaml:"batchSize,omitempty" json:"batchSize,omitempty" doc:"limit on how many messages are buffered per batch"`
}
