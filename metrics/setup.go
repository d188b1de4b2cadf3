// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.


package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ledgerwatch/log/v3"
)

const PrometheusPath = "/debug/metrics/prometheus"

// Setup serves the registered metrics at PrometheusPath on address. The
// returned server is stopped with Shutdown.
func Setup(address string, logger log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(PrometheusPath, Handler())

	srv := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("Starting metrics server", "addr", "http://"+address+PrometheusPath)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failure in running metrics server", "err", err)
		}
	}()
	return srv
}

// Shutdown stops srv, waiting at most a second for pending scrapes.
func Shutdown(srv *http.Server) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
