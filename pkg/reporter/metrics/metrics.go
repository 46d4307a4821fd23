// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package metrics contains the prometheus collectors of the reporting pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/gardener/elasticsearch-reporter/pkg/reporter/submitter"
)

const namespace = "es_reporter"

// Reasons for dropped document lines.
const (
	DropReasonStopped       = "stopped"
	DropReasonBufferFull    = "buffer_full"
	DropReasonNotReady      = "not_ready"
	DropReasonSerialization = "serialization"
	DropReasonCanceled      = "canceled"
)

// Metrics are the collectors of the bulk pipeline.
type Metrics struct {
	LinesIndexed     prometheus.Counter
	LinesDropped     *prometheus.CounterVec
	BatchesSubmitted prometheus.Counter
	BatchesFailed    prometheus.Counter
	ItemsFailed      prometheus.Counter
	BufferedLines    prometheus.Gauge
	InFlightRequests prometheus.Gauge
	BulkDuration     prometheus.Histogram
}

// New creates a new unregistered set of collectors.
func New() *Metrics {
	return &Metrics{
		LinesIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_indexed_total",
			Help:      "Number of document lines that were accepted into the buffer.",
		}),
		LinesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_dropped_total",
			Help:      "Number of document lines that were dropped before they were submitted.",
		}, []string{"reason"}),
		BatchesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_submitted_total",
			Help:      "Number of bulk requests that were sent.",
		}),
		BatchesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_failed_total",
			Help:      "Number of bulk requests that failed as a whole.",
		}),
		ItemsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_failed_total",
			Help:      "Number of documents that were rejected within successful bulk requests.",
		}),
		BufferedLines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffered_lines",
			Help:      "Number of document lines waiting for the next flush.",
		}),
		InFlightRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_requests",
			Help:      "Number of bulk requests in flight.",
		}),
		BulkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bulk_request_duration_seconds",
			Help:      "Round trip time of bulk requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
}

// Register registers all collectors.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.LinesIndexed,
		m.LinesDropped,
		m.BatchesSubmitted,
		m.BatchesFailed,
		m.ItemsFailed,
		m.BufferedLines,
		m.InFlightRequests,
		m.BulkDuration,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Dropped counts dropped lines.
func (m *Metrics) Dropped(reason string, lines int) {
	m.LinesDropped.WithLabelValues(reason).Add(float64(lines))
}

// Observe records the result of a bulk submission.
func (m *Metrics) Observe(res submitter.BulkResult) {
	if res.Skipped() {
		return
	}
	m.BatchesSubmitted.Inc()
	m.BulkDuration.Observe(res.Duration.Seconds())
	if res.Failed() {
		m.BatchesFailed.Inc()
	}
	m.ItemsFailed.Add(float64(res.FailedItems))
}

// Summary are the totals of the counters.
type Summary struct {
	Indexed   int
	Dropped   int
	Submitted int
	Failed    int

	// FailedItems are the documents rejected inside of successful bulk responses.
	FailedItems int
}

// Summarize reads the current totals of the counters.
func (m *Metrics) Summarize() Summary {
	return Summary{
		Indexed:   int(counterValue(m.LinesIndexed)),
		Dropped:   int(sumValues(m.LinesDropped)),
		Submitted: int(counterValue(m.BatchesSubmitted)),
		Failed:    int(counterValue(m.BatchesFailed)),

		FailedItems: int(counterValue(m.ItemsFailed)),
	}
}

func counterValue(c prometheus.Metric) float64 {
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}

func sumValues(c prometheus.Collector) float64 {
	ch := make(chan prometheus.Metric)
	go func() {
		c.Collect(ch)
		close(ch)
	}()
	var sum float64
	for m := range ch {
		sum += counterValue(m)
	}
	return sum
}
