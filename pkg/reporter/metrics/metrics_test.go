// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package metrics_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gardener/elasticsearch-reporter/pkg/reporter/metrics"
	"github.com/gardener/elasticsearch-reporter/pkg/reporter/submitter"
)

var _ = Describe("metrics", func() {
	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.New()
	})

	It("should register all collectors once", func() {
		reg := prometheus.NewRegistry()
		Expect(m.Register(reg)).To(Succeed())
		Expect(m.Register(reg)).ToNot(Succeed())
	})

	It("should observe bulk results", func() {
		m.Observe(submitter.BulkResult{})
		Expect(testutil.ToFloat64(m.BatchesSubmitted)).To(BeZero())

		m.Observe(submitter.BulkResult{Documents: 2, Duration: time.Millisecond})
		m.Observe(submitter.BulkResult{Documents: 2, Err: &submitter.SubmissionFailure{StatusCode: 500}})
		m.Observe(submitter.BulkResult{Documents: 2, FailedItems: 1, Err: &submitter.SubmissionFailure{FailedItems: 1, Err: errors.New("item")}})

		Expect(testutil.ToFloat64(m.BatchesSubmitted)).To(Equal(float64(3)))
		Expect(testutil.ToFloat64(m.BatchesFailed)).To(Equal(float64(1)))
		Expect(testutil.ToFloat64(m.ItemsFailed)).To(Equal(float64(1)))
	})

	It("should count dropped lines by reason", func() {
		m.Dropped(metrics.DropReasonStopped, 3)
		Expect(testutil.ToFloat64(m.LinesDropped.WithLabelValues(metrics.DropReasonStopped))).To(Equal(float64(3)))
	})
})

var _ = Describe("summary", func() {
	It("should sum up all counters", func() {
		m := metrics.New()
		m.LinesIndexed.Add(5)
		m.Dropped(metrics.DropReasonStopped, 2)
		m.Dropped(metrics.DropReasonBufferFull, 1)
		m.Observe(submitter.BulkResult{Documents: 2})
		m.Observe(submitter.BulkResult{Documents: 2, Err: &submitter.SubmissionFailure{StatusCode: 500}})
		m.Observe(submitter.BulkResult{Documents: 3, StatusCode: 200, FailedItems: 2, Err: &submitter.SubmissionFailure{StatusCode: 200}})

		Expect(m.Summarize()).To(Equal(metrics.Summary{
			Indexed:     5,
			Dropped:     3,
			Submitted:   3,
			Failed:      1,
			FailedItems: 2,
		}))
	})
})
