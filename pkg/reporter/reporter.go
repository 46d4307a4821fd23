// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package reporter reports gateway events to elasticsearch.
// It bootstraps the cluster, serializes events into bulk document lines and
// hands them to the indexer that flushes them in batches.
package reporter

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"github.com/gardener/elasticsearch-reporter/pkg/apis/config"
	"github.com/gardener/elasticsearch-reporter/pkg/reporter/bootstrap"
	"github.com/gardener/elasticsearch-reporter/pkg/reporter/indexer"
	"github.com/gardener/elasticsearch-reporter/pkg/reporter/metrics"
	"github.com/gardener/elasticsearch-reporter/pkg/reporter/reportable"
	"github.com/gardener/elasticsearch-reporter/pkg/reporter/submitter"
	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch"
	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch/bulk"
)

// Reporter is the entrypoint for all reported events.
type Reporter struct {
	log    logr.Logger
	cfg    *config.Configuration
	client elasticsearch.Client

	clock     clock.Clock
	metrics   *metrics.Metrics
	submitter submitter.Submitter

	bootstrapper *bootstrap.Bootstrapper
	indexer      *indexer.Indexer

	mut        sync.RWMutex
	serializer *reportable.Serializer
}

// Option configures optional dependencies of a reporter.
type Option func(r *Reporter)

// WithClock sets the clock of the indexer and the serializer.
func WithClock(c clock.Clock) Option {
	return func(r *Reporter) {
		r.clock = c
	}
}

// WithMetrics sets the collectors that are updated by the reporter.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reporter) {
		r.metrics = m
	}
}

// WithSubmitter overwrites the submitter that is derived from the client configuration.
func WithSubmitter(s submitter.Submitter) Option {
	return func(r *Reporter) {
		r.submitter = s
	}
}

// New creates a new reporter. The reporter has to be started before events are flushed.
func New(log logr.Logger, cfg *config.Configuration, client elasticsearch.Client, opts ...Option) (*Reporter, error) {
	r := &Reporter{
		log:    log,
		cfg:    cfg,
		client: client,
	}
	for _, o := range opts {
		o(r)
	}
	if r.clock == nil {
		r.clock = clock.RealClock{}
	}
	if r.metrics == nil {
		r.metrics = metrics.New()
	}
	if r.submitter == nil {
		s, err := submitter.New(log.WithName("submitter"), cfg.ElasticSearch, client)
		if err != nil {
			return nil, err
		}
		r.submitter = s
	}

	r.bootstrapper = bootstrap.New(log.WithName("bootstrap"), client, cfg)

	indexerOpts := indexer.OptionsFromConfig(cfg.Bulk)
	indexerOpts.Clock = r.clock
	indexerOpts.Metrics = r.metrics
	r.indexer = indexer.New(log.WithName("indexer"), r.submitter, r.bootstrapper.Ready(), indexerOpts)
	return r, nil
}

// Start starts the indexer and bootstraps the cluster.
// Bootstrap errors are returned and are fatal for the reporter.
// Lines that were indexed before are flushed once the cluster is ready.
func (r *Reporter) Start(ctx context.Context) error {
	r.indexer.Start(ctx)
	if err := r.bootstrapper.Run(ctx); err != nil {
		return err
	}

	r.mut.Lock()
	r.serializer = &reportable.Serializer{
		Profile:     r.bootstrapper.Profile(),
		IndexPrefix: r.cfg.ElasticSearch.Index,
		Pipeline:    r.bootstrapper.Pipeline(),
		NodeID:      r.cfg.Gateway.NodeID,
		Hostname:    r.cfg.Gateway.Hostname,
		Clock:       r.clock,
	}
	r.mut.Unlock()
	return nil
}

// Report serializes the event and adds its documents to the buffer.
// It never blocks on the network. Events that cannot be serialized or that
// are reported before the cluster is ready are dropped.
func (r *Reporter) Report(event reportable.Reportable) {
	r.mut.RLock()
	s := r.serializer
	r.mut.RUnlock()
	if s == nil {
		r.log.V(3).Info("cluster is not ready, dropping event")
		r.metrics.Dropped(metrics.DropReasonNotReady, 1)
		return
	}

	lines, err := s.Serialize(event)
	if err != nil {
		r.log.Error(err, "unable to serialize event")
		r.metrics.Dropped(metrics.DropReasonSerialization, 1)
		return
	}
	for _, line := range lines {
		r.indexer.Index(line)
	}
}

// IndexLine adds an already serialized document line to the buffer.
func (r *Reporter) IndexLine(line bulk.DocumentLine) {
	r.indexer.Index(line)
}

// Stop flushes all buffered lines and waits for running bulk requests until the context is done.
func (r *Reporter) Stop(ctx context.Context) error {
	return r.indexer.Stop(ctx)
}

// Health returns the health of the cluster.
func (r *Reporter) Health(ctx context.Context) (*elasticsearch.ClusterHealth, error) {
	return elasticsearch.GetClusterHealth(ctx, r.client)
}

// Ready returns true once the cluster is bootstrapped.
func (r *Reporter) Ready() bool {
	return r.bootstrapper.State() == bootstrap.Ready
}

// State returns the bootstrap state of the cluster.
func (r *Reporter) State() bootstrap.State {
	return r.bootstrapper.State()
}

// Buffered returns the number of lines that wait for a flush.
func (r *Reporter) Buffered() int {
	return r.indexer.Buffered()
}

// Metrics returns the collectors of the reporter.
func (r *Reporter) Metrics() *metrics.Metrics {
	return r.metrics
}
