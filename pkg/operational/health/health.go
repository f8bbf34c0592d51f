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

package health

import (
	"net"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	log "github.com/sirupsen/logrus"

	"github.com/seriesmon/anomaly-pipeline/pkg/config"
)

type Server struct {
	handler healthcheck.Handler
	address string
}

func (hs *Server) Serve() {
	for {
		err := http.ListenAndServe(hs.address, hs.handler)
		log.Errorf("http.ListenAndServe error %v", err)
		time.Sleep(60 * time.Second)
	}
}

// NewHealthServer starts serving liveness and readiness probes for the
// monitor in the background.
func NewHealthServer(opts *config.Options, isAlive, isReady healthcheck.Check) *Server {
	handler := healthcheck.NewHandler()
	address := net.JoinHostPort(opts.Health.Address, opts.Health.Port)

	handler.AddLivenessCheck("MonitorCheck", isAlive)
	handler.AddReadinessCheck("MonitorCheck", isReady)

	server := &Server{
		handler: handler,
		address: address,
	}

	go server.Serve()

	return server
}
