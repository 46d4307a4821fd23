// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package reportable_test

import (
	"bytes"
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	testclock "k8s.io/utils/clock/testing"

	"github.com/gardener/elasticsearch-reporter/pkg/reporter/profile"
	"github.com/gardener/elasticsearch-reporter/pkg/reporter/reportable"
	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch/bulk"
)

// splitLine returns the decoded action header and source of a document line.
func splitLine(line bulk.DocumentLine) (map[string]map[string]string, map[string]interface{}) {
	ExpectWithOffset(1, string(line)).To(HaveSuffix("\n"))
	parts := bytes.Split(bytes.TrimSuffix(line, []byte("\n")), []byte("\n"))
	ExpectWithOffset(1, parts).To(HaveLen(2))

	header := map[string]map[string]string{}
	ExpectWithOffset(1, json.Unmarshal(parts[0], &header)).To(Succeed())
	source := map[string]interface{}{}
	ExpectWithOffset(1, json.Unmarshal(parts[1], &source)).To(Succeed())
	return header, source
}

var _ = Describe("serializer", func() {
	var (
		ts time.Time
		s  *reportable.Serializer
	)

	BeforeEach(func() {
		ts = time.Date(2024, 3, 7, 10, 11, 12, 345000000, time.UTC)
		s = &reportable.Serializer{
			Profile:     profile.ForMajor(5),
			IndexPrefix: "gravitee",
			Pipeline:    "gravitee_pipeline",
			NodeID:      "node-1",
			Hostname:    "gw-1",
		}
	})

	It("should serialize request metrics", func() {
		lines, err := s.Serialize(&reportable.Metrics{
			Timestamp:             ts,
			RequestID:             "req-1",
			TransactionID:         "tx-1",
			API:                   "api-1",
			Method:                "GET",
			URI:                   "/foo?bar=<baz>",
			Status:                200,
			ProxyResponseTimeMs:   12,
			APIResponseTimeMs:     10,
			ProxyLatencyMs:        -1,
			RequestContentLength:  0,
			ResponseContentLength: -1,
			RemoteAddress:         "10.0.0.1",
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(lines).To(HaveLen(1))
		Expect(string(lines[0])).To(ContainSubstring("<baz>"))

		header, source := splitLine(lines[0])
		Expect(header).To(HaveKeyWithValue("index", map[string]string{
			"_index":   "gravitee-2024.03.07",
			"_type":    "request",
			"_id":      "req-1",
			"pipeline": "gravitee_pipeline",
		}))
		Expect(source).To(HaveKeyWithValue("gateway", "node-1"))
		Expect(source).To(HaveKeyWithValue("hostname", "gw-1"))
		Expect(source).To(HaveKeyWithValue("@timestamp", "2024-03-07T10:11:12.345Z"))
		Expect(source).To(HaveKeyWithValue("transaction", "tx-1"))
		Expect(source).To(HaveKeyWithValue("status", BeNumerically("==", 200)))
		Expect(source).To(HaveKeyWithValue("response-time", BeNumerically("==", 12)))
		Expect(source).To(HaveKeyWithValue("api-response-time", BeNumerically("==", 10)))
		Expect(source).To(HaveKeyWithValue("request-content-length", BeNumerically("==", 0)))
		Expect(source).ToNot(HaveKey("proxy-latency"))
		Expect(source).ToNot(HaveKey("response-content-length"))
		Expect(source).ToNot(HaveKey("local-address"))
	})

	It("should serialize metrics with a log into a request and a log document", func() {
		lines, err := s.Serialize(&reportable.Metrics{
			Timestamp: ts,
			RequestID: "req-1",
			Log: &reportable.Log{
				ClientRequest:  &reportable.Request{Method: "POST", URI: "/foo", Body: "{}"},
				ClientResponse: &reportable.Response{Status: 201},
			},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(lines).To(HaveLen(2))

		header, source := splitLine(lines[1])
		Expect(header["index"]).To(Equal(map[string]string{
			"_index": "gravitee-2024.03.07",
			"_type":  "log",
			"_id":    "req-1",
		}))
		Expect(source).To(HaveKeyWithValue("@timestamp", "2024-03-07T10:11:12.345Z"))
		Expect(source).To(HaveKey("client-request"))
		Expect(source).To(HaveKeyWithValue("client-response", HaveKeyWithValue("status", BeNumerically("==", 201))))
		Expect(source).ToNot(HaveKey("proxy-request"))
	})

	It("should use single type indices for elasticsearch 6", func() {
		s.Profile = profile.ForMajor(6)
		lines, err := s.Serialize(&reportable.EndpointStatus{
			Timestamp: ts,
			API:       "api-1",
			Endpoint:  "http://backend",
			Available: true,
			Steps:     []reportable.Step{{Name: "default-step", Success: true, ResponseTime: 5}},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(lines).To(HaveLen(1))

		header, source := splitLine(lines[0])
		Expect(header["index"]).To(Equal(map[string]string{
			"_index": "gravitee-health-2024.03.07",
			"_type":  "doc",
		}))
		Expect(source).To(HaveKeyWithValue("available", true))
		Expect(source).To(HaveKeyWithValue("steps", ConsistOf(HaveKeyWithValue("response-time", BeNumerically("==", 5)))))
	})

	It("should not add a pipeline if none is configured", func() {
		s.Pipeline = ""
		lines, err := s.Serialize(&reportable.Metrics{Timestamp: ts, RequestID: "req-1"})
		Expect(err).ToNot(HaveOccurred())
		header, _ := splitLine(lines[0])
		Expect(header["index"]).ToNot(HaveKey("pipeline"))
	})

	It("should serialize monitor snapshots", func() {
		lines, err := s.Serialize(&reportable.Monitor{
			Timestamp: ts,
			OS: &reportable.OS{
				CPU: &reportable.CPU{Percent: 12, LoadAverage: []float64{1.5, -1, 0.5}},
				Mem: &reportable.Memory{Total: 100, Free: 40, Used: 60, FreePercent: 40, UsedPercent: 60},
			},
			Runtime: &reportable.Runtime{Goroutines: 42},
		})
		Expect(err).ToNot(HaveOccurred())
		header, source := splitLine(lines[0])
		Expect(header["index"]).To(HaveKeyWithValue("_type", "monitor"))
		Expect(header["index"]).ToNot(HaveKey("_id"))
		Expect(header["index"]).ToNot(HaveKey("pipeline"))

		cpu := source["os"].(map[string]interface{})["cpu"].(map[string]interface{})
		Expect(cpu["load_average"]).To(Equal(map[string]interface{}{"1m": 1.5, "15m": 0.5}))
		mem := source["os"].(map[string]interface{})["mem"].(map[string]interface{})
		Expect(mem).To(HaveKeyWithValue("used_in_bytes", BeNumerically("==", 60)))
		Expect(source).To(HaveKeyWithValue("runtime", HaveKeyWithValue("goroutines", BeNumerically("==", 42))))
		Expect(source).ToNot(HaveKey("process"))
	})

	It("should use the clock for reportables without timestamp", func() {
		s.Clock = testclock.NewFakePassiveClock(time.Date(2024, 12, 31, 23, 59, 59, 0, time.FixedZone("CET", 3600)))
		lines, err := s.Serialize(&reportable.Monitor{})
		Expect(err).ToNot(HaveOccurred())
		header, source := splitLine(lines[0])
		Expect(header["index"]).To(HaveKeyWithValue("_index", "gravitee-2024.12.31"))
		Expect(source).To(HaveKeyWithValue("@timestamp", "2024-12-31T22:59:59.000Z"))
	})

	It("should fail for unknown reportables", func() {
		_, err := s.Serialize(nil)
		Expect(err).To(HaveOccurred())
	})

	Context("ForType", func() {
		It("should return empty reportables of the given type", func() {
			r, err := reportable.ForType("request")
			Expect(err).ToNot(HaveOccurred())
			Expect(r).To(BeAssignableToTypeOf(&reportable.Metrics{}))

			r, err = reportable.ForType("health")
			Expect(err).ToNot(HaveOccurred())
			Expect(r.DocumentType()).To(Equal(profile.TypeHealth))

			_, err = reportable.ForType("log")
			Expect(err).To(HaveOccurred())
		})
	})
})
