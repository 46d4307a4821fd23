// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package intake exposes the reporter over http.
package intake

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gardener/elasticsearch-reporter/pkg/reporter/reportable"
	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch/bulk"
	"github.com/gardener/elasticsearch-reporter/pkg/version"
)

// MaxBodySize is the maximum size of a request body.
const MaxBodySize = 10 << 20

const shutdownTimeout = 5 * time.Second

// Reporter accepts events and document lines.
type Reporter interface {
	Report(event reportable.Reportable)
	IndexLine(line bulk.DocumentLine)
	Ready() bool
}

type server struct {
	log      logr.Logger
	reporter Reporter
}

// NewRouter creates the router of the intake api.
// Metrics of the given gatherer are exposed on /metrics if it is not nil.
func NewRouter(log logr.Logger, r Reporter, gatherer prometheus.Gatherer) *mux.Router {
	s := &server{log: log, reporter: r}

	router := mux.NewRouter()
	router.Use(loggingMiddleware(log.WithName("trace")))
	router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/report/{type}", s.report).Methods(http.MethodPost)
	api.HandleFunc("/bulk", s.bulk).Methods(http.MethodPost)
	return router
}

// Serve serves the handler on the given address until the context is done.
func Serve(ctx context.Context, log logr.Logger, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "unable to start HTTP server")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "unable to shut down HTTP server")
	}
	log.Info("HTTP server stopped")
	return nil
}

func (s *server) healthz(w http.ResponseWriter, _ *http.Request) {
	if !s.reporter.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	if _, err := w.Write([]byte(version.Get().String())); err != nil {
		s.log.V(5).Info(err.Error())
	}
}

func (s *server) report(w http.ResponseWriter, r *http.Request) {
	event, err := reportable.ForType(mux.Vars(r)["type"])
	if err != nil {
		s.respondError(w, http.StatusNotFound, err)
		return
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err := dec.Decode(event); err != nil {
		s.respondError(w, http.StatusBadRequest, errors.Wrapf(err, "unable to decode %s", event.DocumentType()))
		return
	}

	s.reporter.Report(event)
	s.respond(w, http.StatusAccepted, map[string]int{"accepted": 1})
}

func (s *server) bulk(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	lines, err := bulk.ParseBulkFile(s.log, nil, data).Marshal()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	for _, line := range lines {
		s.reporter.IndexLine(line)
	}
	s.respond(w, http.StatusAccepted, map[string]int{"accepted": len(lines)})
}

func (s *server) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.V(5).Info("unable to write response", "error", err.Error())
	}
}

func (s *server) respondError(w http.ResponseWriter, status int, err error) {
	s.log.V(3).Info("request failed", "status", status, "error", err.Error())
	s.respond(w, status, map[string]string{"error": err.Error()})
}

func loggingMiddleware(log logr.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.V(10).Info(r.RequestURI, "method", r.Method)
			next.ServeHTTP(w, r)
		})
	}
}
