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
	"bytes"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/seriesmon/anomaly-pipeline/pkg/api"
	"github.com/seriesmon/anomaly-pipeline/pkg/report"
)

var emailLog = log.WithField("component", "notify.Email")

const (
	envEmailUser = "MONITOR_EMAIL_USER"
	envEmailPwd  = "MONITOR_EMAIL_PWD"

	defaultSMTPPort = 587
)

// sendMailFunc is swapped in tests.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type notifyEmail struct {
	params   api.NotifyEmail
	username string
	password string
	sendMail sendMailFunc
}

// NewNotifyEmail creates a notifier mailing the anomaly rows over SMTP.
// Credentials left out of the configuration are read from the
// MONITOR_EMAIL_USER and MONITOR_EMAIL_PWD environment variables.
func NewNotifyEmail(params *api.NotifyEmail) (Notifier, error) {
	if params == nil || params.SMTPHost == "" {
		return nil, errors.New("email notify requires an smtp host")
	}
	if len(params.To) == 0 {
		return nil, errors.New("email notify requires at least one recipient")
	}
	username := params.Username
	if username == "" {
		username = os.Getenv(envEmailUser)
	}
	password := params.Password
	if password == "" {
		password = os.Getenv(envEmailPwd)
	}
	if username == "" || password == "" {
		return nil, errors.Errorf("missing smtp credentials; set them in the config or via %s / %s", envEmailUser, envEmailPwd)
	}
	return &notifyEmail{
		params:   *params,
		username: username,
		password: password,
		sendMail: smtp.SendMail,
	}, nil
}

func (n *notifyEmail) Notify(rep *report.AnomalyReport) error {
	anomalies := rep.AnomaliesOnly()
	if len(anomalies) == 0 {
		emailLog.Debug("no anomalies, skipping alert")
		return nil
	}

	from := n.params.From
	if from == "" {
		from = n.username
	}
	subject := n.params.Subject
	if subject == "" {
		subject = fmt.Sprintf("Anomaly alert: %d anomalous points detected", len(anomalies))
	}

	body, err := n.buildMessage(from, subject, rep)
	if err != nil {
		return err
	}

	port := n.params.SMTPPort
	if port == 0 {
		port = defaultSMTPPort
	}
	addr := net.JoinHostPort(n.params.SMTPHost, strconv.Itoa(port))
	auth := smtp.PlainAuth("", n.username, n.password, n.params.SMTPHost)

	if err := n.sendMail(addr, auth, from, n.params.To, body); err != nil {
		return errors.Wrapf(err, "cannot send alert via %s", addr)
	}
	emailLog.Infof("sent alert with %d anomalies to %s", len(anomalies), strings.Join(n.params.To, ", "))
	return nil
}

func (n *notifyEmail) buildMessage(from, subject string, rep *report.AnomalyReport) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(n.params.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(rep.Summary())
	buf.WriteString("\r\n\r\n")
	if err := rep.WriteCSV(&buf, true); err != nil {
		return nil, errors.Wrap(err, "cannot serialize anomalies")
	}
	return buf.Bytes(), nil
}
