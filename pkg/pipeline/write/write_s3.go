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
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/seriesmon/anomaly-pipeline/pkg/api"
	"github.com/seriesmon/anomaly-pipeline/pkg/report"
)

var s3Log = log.WithField("component", "write.S3")

const defaultS3Timeout = 60 * time.Second

type writeS3 struct {
	params api.WriteS3
	client *minio.Client
}

// NewWriteS3 creates a writer uploading the report csv to an s3-compatible
// object store.
func NewWriteS3(params *api.WriteS3) (Writer, error) {
	if params == nil || params.Endpoint == "" || params.Bucket == "" {
		return nil, errors.New("s3 write requires an endpoint and a bucket")
	}
	client, err := minio.New(params.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(params.AccessKeyID, params.SecretAccessKey, ""),
		Secure: params.Secure,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cannot connect to %s", params.Endpoint)
	}
	return &writeS3{params: *params, client: client}, nil
}

func (w *writeS3) Write(rep *report.AnomalyReport) error {
	var buf bytes.Buffer
	if err := rep.WriteCSV(&buf, w.params.AnomaliesOnly); err != nil {
		return errors.Wrap(err, "cannot serialize report")
	}

	objectName := w.params.ObjectName
	if objectName == "" {
		objectName = fmt.Sprintf("anomaly-report-%s.csv", time.Now().UTC().Format("20060102T150405Z"))
	}

	timeout := defaultS3Timeout
	if w.params.WriteTimeout > 0 {
		timeout = time.Duration(w.params.WriteTimeout) * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	info, err := w.client.PutObject(ctx, w.params.Bucket, objectName,
		bytes.NewReader(buf.Bytes()), int64(buf.Len()),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return errors.Wrapf(err, "cannot upload %s to bucket %s", objectName, w.params.Bucket)
	}
	s3Log.Infof("uploaded %s (%d bytes) to bucket %s", objectName, info.Size, w.params.Bucket)
	return nil
}
