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

package notify

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	kafkago "github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"github.com/seriesmon/anomaly-pipeline/pkg/api"
	"github.com/seriesmon/anomaly-pipeline/pkg/report"
)

var kafkaLog = log.WithField("component", "notify.Kafka")

const defaultWriteTimeoutSeconds = int64(10)

type kafkaWriteMessage interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type notifyKafka struct {
	params      api.NotifyKafka
	kafkaWriter kafkaWriteMessage
}

// Notify publishes one json message per anomaly row.
func (n *notifyKafka) Notify(rep *report.AnomalyReport) error {
	anomalies := rep.AnomaliesOnly()
	if len(anomalies) == 0 {
		kafkaLog.Debug("no anomalies, nothing to publish")
		return nil
	}
	msgs := make([]kafkago.Message, 0, len(anomalies))
	for i := range anomalies {
		raw, err := jsoniter.Marshal(&anomalies[i])
		if err != nil {
			return errors.Wrap(err, "cannot marshal anomaly")
		}
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(anomalies[i].Timestamp.UTC().Format(time.RFC3339)),
			Value: raw,
		})
	}
	if err := n.kafkaWriter.WriteMessages(context.Background(), msgs...); err != nil {
		return errors.Wrapf(err, "cannot publish to topic %s", n.params.Topic)
	}
	kafkaLog.Infof("published %d anomalies to topic %s", len(msgs), n.params.Topic)
	return nil
}

// NewNotifyKafka creates a notifier publishing anomalies to a kafka topic.
func NewNotifyKafka(params *api.NotifyKafka) (Notifier, error) {
	if params == nil || params.Address == "" || params.Topic == "" {
		return nil, errors.New("kafka notify requires an address and a topic")
	}

	var balancer kafkago.Balancer
	switch params.Balancer {
	case api.KafkaRoundRobin:
		balancer = &kafkago.RoundRobin{}
	case api.KafkaLeastBytes:
		balancer = &kafkago.LeastBytes{}
	case api.KafkaHash:
		balancer = &kafkago.Hash{}
	case api.KafkaCrc32:
		balancer = &kafkago.CRC32Balancer{}
	case api.KafkaMurmur2:
		balancer = &kafkago.Murmur2Balancer{}
	case "":
		balancer = nil
	default:
		return nil, errors.Errorf("unknown kafka balancer %q", params.Balancer)
	}

	writeTimeoutSecs := defaultWriteTimeoutSeconds
	if params.WriteTimeout != 0 {
		writeTimeoutSecs = params.WriteTimeout
	}

	kafkaWriter := kafkago.Writer{
		Addr:         kafkago.TCP(params.Address),
		Topic:        params.Topic,
		Balancer:     balancer,
		WriteTimeout: time.Duration(writeTimeoutSecs) * time.Second,
		BatchSize:    params.BatchSize,
	}

	return &notifyKafka{
		params:      *params,
		kafkaWriter: &kafkaWriter,
	}, nil
}
