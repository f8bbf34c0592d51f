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
	"net/smtp"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seriesmon/anomaly-pipeline/pkg/api"
	"github.com/seriesmon/anomaly-pipeline/pkg/decompose"
	"github.com/seriesmon/anomaly-pipeline/pkg/report"
	"github.com/seriesmon/anomaly-pipeline/pkg/score"
	"github.com/seriesmon/anomaly-pipeline/pkg/series"
)

func buildReport(t *testing.T, flagged bool) *report.AnomalyReport {
	t.Helper()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := &series.Series{
		Timestamps: []time.Time{start, start.AddDate(0, 0, 1)},
		Values:     []float64{10, 50},
		Freq:       series.FreqDaily,
	}
	d := &decompose.Result{
		Trend:    []float64{10, 11},
		Seasonal: []float64{0.5, -0.5},
		Residual: []float64{-0.5, 39.5},
	}
	sc := &score.Result{
		ZScores: []float64{-0.7, 3.5},
		Flags:   []bool{false, flagged},
		Defined: 2,
	}
	return report.Assemble(s, d, sc, decompose.MethodLocal, 7, 3)
}

type sentMail struct {
	addr string
	from string
	to   []string
	msg  []byte
}

func stubbedEmail(params api.NotifyEmail, sent *[]sentMail) *notifyEmail {
	return &notifyEmail{
		params:   params,
		username: "monitor@example.com",
		password: "secret",
		sendMail: func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			*sent = append(*sent, sentMail{addr: addr, from: from, to: to, msg: msg})
			return nil
		},
	}
}

func TestNotifyEmailSendsOnAnomalies(t *testing.T) {
	var sent []sentMail
	n := stubbedEmail(api.NotifyEmail{
		SMTPHost: "smtp.example.com",
		To:       []string{"oncall@example.com"},
	}, &sent)

	require.NoError(t, n.Notify(buildReport(t, true)))
	require.Len(t, sent, 1)
	assert.Equal(t, "smtp.example.com:587", sent[0].addr)
	assert.Equal(t, "monitor@example.com", sent[0].from)
	assert.Equal(t, []string{"oncall@example.com"}, sent[0].to)

	body := string(sent[0].msg)
	assert.Contains(t, body, "Subject: Anomaly alert: 1 anomalous points detected")
	assert.Contains(t, body, "2024-03-02T00:00:00Z")
	assert.NotContains(t, body, "2024-03-01T00:00:00Z", "only the anomalies travel in the alert")
}

func TestNotifyEmailSkipsCleanReport(t *testing.T) {
	var sent []sentMail
	n := stubbedEmail(api.NotifyEmail{
		SMTPHost: "smtp.example.com",
		To:       []string{"oncall@example.com"},
	}, &sent)

	require.NoError(t, n.Notify(buildReport(t, false)))
	assert.Empty(t, sent)
}

func TestNotifyEmailCustomSubjectAndPort(t *testing.T) {
	var sent []sentMail
	n := stubbedEmail(api.NotifyEmail{
		SMTPHost: "mail.internal",
		SMTPPort: 2525,
		From:     "alerts@example.com",
		To:       []string{"a@example.com", "b@example.com"},
		Subject:  "metric went sideways",
	}, &sent)

	require.NoError(t, n.Notify(buildReport(t, true)))
	require.Len(t, sent, 1)
	assert.Equal(t, "mail.internal:2525", sent[0].addr)
	assert.Equal(t, "alerts@example.com", sent[0].from)
	assert.Contains(t, string(sent[0].msg), "Subject: metric went sideways")
}

func TestNewNotifyEmailValidation(t *testing.T) {
	_, err := NewNotifyEmail(nil)
	assert.Error(t, err)
	_, err = NewNotifyEmail(&api.NotifyEmail{SMTPHost: "smtp.example.com"})
	assert.Error(t, err, "a recipient is required")
}

type fakeKafkaWriter struct {
	messages []kafkago.Message
}

func (f *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.messages = append(f.messages, msgs...)
	return nil
}

func TestNotifyKafkaPublishesAnomalies(t *testing.T) {
	fake := &fakeKafkaWriter{}
	n := &notifyKafka{
		params:      api.NotifyKafka{Topic: "anomalies"},
		kafkaWriter: fake,
	}

	require.NoError(t, n.Notify(buildReport(t, true)))
	require.Len(t, fake.messages, 1)

	var row map[string]interface{}
	require.NoError(t, jsoniter.Unmarshal(fake.messages[0].Value, &row))
	assert.Equal(t, true, row["is_anomaly"])
	assert.Equal(t, 50.0, row["value"])
	assert.True(t, strings.HasPrefix(string(fake.messages[0].Key), "2024-03-02"))
}

func TestNotifyKafkaSkipsCleanReport(t *testing.T) {
	fake := &fakeKafkaWriter{}
	n := &notifyKafka{
		params:      api.NotifyKafka{Topic: "anomalies"},
		kafkaWriter: fake,
	}
	require.NoError(t, n.Notify(buildReport(t, false)))
	assert.Empty(t, fake.messages)
}

func TestNewNotifyKafkaValidation(t *testing.T) {
	_, err := NewNotifyKafka(nil)
	assert.Error(t, err)
	_, err = NewNotifyKafka(&api.NotifyKafka{Address: "localhost:9092"})
	assert.Error(t, err, "a topic is required")
	_, err = NewNotifyKafka(&api.NotifyKafka{Address: "localhost:9092", Topic: "t", Balancer: "bogus"})
	assert.Error(t, err)
}

func TestNewNotifyKafkaBalancers(t *testing.T) {
	for _, b := range []api.KafkaNotifyBalancerName{
		api.KafkaRoundRobin, api.KafkaLeastBytes, api.KafkaHash, api.KafkaCrc32, api.KafkaMurmur2,
	} {
		_, err := NewNotifyKafka(&api.NotifyKafka{Address: "localhost:9092", Topic: "t", Balancer: b})
		assert.NoError(t, err, string(b))
	}
}
