/*
 * Copyright (C) 2023 IBM, Inc.
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

package config

import (
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/seriesmon/anomaly-pipeline/pkg/api"
)

var clog = logrus.WithField("component", "config")

// Options holds the command line / environment settings.
type Options struct {
	ConfigPath string
	Parameters string
	LogLevel   string
	Health     Health
	Metrics    Metrics
	Profile    Profile
}

// Health holds the address of the health-check server.
type Health struct {
	Address string
	Port    string
}

// Metrics holds the address of the prometheus endpoint.
type Metrics struct {
	Address string
	Port    int
}

// Profile holds the pprof server settings. A zero port disables it.
type Profile struct {
	Port int
}

// ConfigFileStruct is the yaml representation of a full monitor run: one
// ingest source, one detection block, any number of report writers and
// anomaly notifiers.
type ConfigFileStruct struct {
	LogLevel string        `yaml:"log-level,omitempty" json:"log-level,omitempty"`
	Ingest   IngestParam   `yaml:"ingest" json:"ingest"`
	Detect   api.Detect    `yaml:"detect,omitempty" json:"detect,omitempty"`
	Write    []WriteParam  `yaml:"write,omitempty" json:"write,omitempty"`
	Notify   []NotifyParam `yaml:"notify,omitempty" json:"notify,omitempty"`
}

type IngestParam struct {
	Type string         `yaml:"type" json:"type"`
	CSV  *api.IngestCSV `yaml:"csv,omitempty" json:"csv,omitempty"`
}

type WriteParam struct {
	Type   string           `yaml:"type" json:"type"`
	Stdout *api.WriteStdout `yaml:"stdout,omitempty" json:"stdout,omitempty"`
	CSV    *api.WriteCSV    `yaml:"csv,omitempty" json:"csv,omitempty"`
	S3     *api.WriteS3     `yaml:"s3,omitempty" json:"s3,omitempty"`
}

type NotifyParam struct {
	Type  string           `yaml:"type" json:"type"`
	Email *api.NotifyEmail `yaml:"email,omitempty" json:"email,omitempty"`
	Kafka *api.NotifyKafka `yaml:"kafka,omitempty" json:"kafka,omitempty"`
}

// ParseConfig reads the yaml config file named by opts.ConfigPath, then
// applies any inline json overrides carried in opts.Parameters on top of it.
func ParseConfig(opts *Options) (*ConfigFileStruct, error) {
	out := ConfigFileStruct{}

	if opts.ConfigPath != "" {
		raw, err := os.ReadFile(opts.ConfigPath)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading config file %s", opts.ConfigPath)
		}
		if err := yaml.Unmarshal(raw, &out); err != nil {
			return nil, errors.Wrapf(err, "error parsing config file %s", opts.ConfigPath)
		}
		clog.Debugf("parsed config file: %v", out)
	}

	if opts.Parameters != "" {
		if err := applyOverrides(&out, opts.Parameters); err != nil {
			return nil, err
		}
		clog.Debugf("config after overrides: %v", out)
	}

	if out.Ingest.Type == "" {
		return nil, errors.New("missing ingest section in configuration")
	}
	return &out, nil
}

// applyOverrides decodes a json object of partial settings and merges it into
// cfg, reusing the yaml tags so the same field names work in both formats.
func applyOverrides(cfg *ConfigFileStruct, params string) error {
	var overrides map[string]interface{}
	if err := jsoniter.Unmarshal([]byte(params), &overrides); err != nil {
		return errors.Wrap(err, "error parsing inline parameters")
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  cfg,
		TagName: api.TagYaml,
	})
	if err != nil {
		return errors.Wrap(err, "error creating parameters decoder")
	}
	if err := decoder.Decode(overrides); err != nil {
		return errors.Wrap(err, "error applying inline parameters")
	}
	return nil
}
