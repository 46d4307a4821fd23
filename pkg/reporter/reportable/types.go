// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package reportable contains the events that are reported by the gateway
// and their conversion into bulk document lines.
package reportable

import (
	"time"

	"github.com/pkg/errors"

	"github.com/gardener/elasticsearch-reporter/pkg/reporter/profile"
)

// Reportable is an event that can be reported to elasticsearch.
type Reportable interface {
	DocumentType() profile.DocumentType
}

// Metrics are the metrics of one request that passed the gateway.
// Negative durations and content lengths mark unknown values.
type Metrics struct {
	Timestamp     time.Time `json:"timestamp"`
	RequestID     string    `json:"requestId"`
	TransactionID string    `json:"transactionId,omitempty"`

	API          string `json:"api,omitempty"`
	Application  string `json:"application,omitempty"`
	Plan         string `json:"plan,omitempty"`
	APIKey       string `json:"apiKey,omitempty"`
	Subscription string `json:"subscription,omitempty"`
	Tenant       string `json:"tenant,omitempty"`
	User         string `json:"user,omitempty"`
	UserAgent    string `json:"userAgent,omitempty"`
	Host         string `json:"host,omitempty"`
	Endpoint     string `json:"endpoint,omitempty"`

	LocalAddress  string `json:"localAddress,omitempty"`
	RemoteAddress string `json:"remoteAddress,omitempty"`

	Method string `json:"method,omitempty"`
	URI    string `json:"uri,omitempty"`
	Path   string `json:"path,omitempty"`
	Status int    `json:"status"`

	RequestContentLength  int64 `json:"requestContentLength"`
	ResponseContentLength int64 `json:"responseContentLength"`
	ProxyResponseTimeMs   int64 `json:"proxyResponseTimeMs"`
	APIResponseTimeMs     int64 `json:"apiResponseTimeMs"`
	ProxyLatencyMs        int64 `json:"proxyLatencyMs"`

	ErrorKey string `json:"errorKey,omitempty"`
	Message  string `json:"message,omitempty"`

	// Log is reported as a separate log document.
	Log *Log `json:"log,omitempty"`
}

func (*Metrics) DocumentType() profile.DocumentType { return profile.TypeRequest }

// Log contains the requests and responses of the client and proxy side of one request.
type Log struct {
	Timestamp      time.Time `json:"timestamp"`
	RequestID      string    `json:"requestId"`
	ClientRequest  *Request  `json:"clientRequest,omitempty"`
	ClientResponse *Response `json:"clientResponse,omitempty"`
	ProxyRequest   *Request  `json:"proxyRequest,omitempty"`
	ProxyResponse  *Response `json:"proxyResponse,omitempty"`
}

func (*Log) DocumentType() profile.DocumentType { return profile.TypeLog }

// Request is a logged http request.
type Request struct {
	Method  string              `json:"method,omitempty"`
	URI     string              `json:"uri,omitempty"`
	Headers map[string][]string `json:"headers,omitempty"`
	Body    string              `json:"body,omitempty"`
}

// Response is a logged http response.
type Response struct {
	Status  int                 `json:"status"`
	Headers map[string][]string `json:"headers,omitempty"`
	Body    string              `json:"body,omitempty"`
}

// EndpointStatus is the result of a health check of an api endpoint.
type EndpointStatus struct {
	Timestamp    time.Time `json:"timestamp"`
	API          string    `json:"api"`
	Endpoint     string    `json:"endpoint"`
	Available    bool      `json:"available"`
	Success      bool      `json:"success"`
	State        int       `json:"state"`
	ResponseTime int64     `json:"responseTime"`
	Steps        []Step    `json:"steps,omitempty"`
}

func (*EndpointStatus) DocumentType() profile.DocumentType { return profile.TypeHealth }

// Step is one step of a health check.
type Step struct {
	Name         string    `json:"name"`
	Success      bool      `json:"success"`
	Request      *Request  `json:"request,omitempty"`
	Response     *Response `json:"response,omitempty"`
	ResponseTime int64     `json:"responseTime"`
	Message      string    `json:"message,omitempty"`
}

// Monitor is a resource snapshot of a gateway node.
type Monitor struct {
	Timestamp time.Time `json:"timestamp"`
	OS        *OS       `json:"os,omitempty"`
	Process   *Process  `json:"process,omitempty"`
	Runtime   *Runtime  `json:"runtime,omitempty"`
}

func (*Monitor) DocumentType() profile.DocumentType { return profile.TypeMonitor }

type OS struct {
	CPU *CPU    `json:"cpu,omitempty"`
	Mem *Memory `json:"mem,omitempty"`
}

type CPU struct {
	Percent int `json:"percent"`
	// LoadAverage contains the 1m, 5m and 15m load. -1 marks an unknown value.
	LoadAverage []float64 `json:"loadAverage,omitempty"`
}

type Memory struct {
	Total       int64 `json:"total"`
	Free        int64 `json:"free"`
	Used        int64 `json:"used"`
	FreePercent int   `json:"freePercent"`
	UsedPercent int   `json:"usedPercent"`
}

type Process struct {
	Timestamp           int64 `json:"timestamp"`
	OpenFileDescriptors int64 `json:"openFileDescriptors"`
	MaxFileDescriptors  int64 `json:"maxFileDescriptors"`
}

// Runtime describes the runtime of the reporting process.
type Runtime struct {
	Timestamp          int64 `json:"timestamp"`
	UptimeMillis       int64 `json:"uptimeMillis"`
	HeapUsed           int64 `json:"heapUsed"`
	HeapCommitted      int64 `json:"heapCommitted"`
	Goroutines         int   `json:"goroutines"`
	GCCount            int64 `json:"gcCount"`
	GCPauseTotalMillis int64 `json:"gcPauseTotalMillis"`
}

// ForType returns an empty reportable of the given document type.
// Log documents are only reported as part of request metrics.
func ForType(docType string) (Reportable, error) {
	switch profile.DocumentType(docType) {
	case profile.TypeRequest:
		return &Metrics{}, nil
	case profile.TypeHealth:
		return &EndpointStatus{}, nil
	case profile.TypeMonitor:
		return &Monitor{}, nil
	default:
		return nil, errors.Errorf("unknown reportable type %q", docType)
	}
}
