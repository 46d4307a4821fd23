// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Configuration contains the reporter configuration values
type Configuration struct {
	ElasticSearch ElasticSearch `json:"elasticsearch"`
	Bulk          Bulk          `json:"bulk"`
	Pipeline      Pipeline      `json:"pipeline,omitempty"`
	Settings      IndexSettings `json:"settings"`
	Gateway       Gateway       `json:"gateway,omitempty"`
	Server        Server        `json:"server,omitempty"`
}

// ClientType selects the implementation that is used to submit bulk requests.
type ClientType string

const (
	// ClientTypeHTTP submits bulk requests with the plain wire client.
	ClientTypeHTTP ClientType = "http"
	// ClientTypeTransport submits bulk requests through the elastic transport
	// which round-robins over all configured endpoints.
	ClientTypeTransport ClientType = "transport"
)

// ElasticSearch holds information about the elasticsearch cluster the reports are written to.
type ElasticSearch struct {
	// Endpoints is a list of elasticsearch endpoints, e.g. https://example.com:9200.
	// The first endpoint is the primary one.
	Endpoints []string `json:"endpoints"`
	Username  string   `json:"username,omitempty"`
	Password  string   `json:"password,omitempty"`

	// InsecureSkipVerify disables the tls certificate verification.
	InsecureSkipVerify bool `json:"insecureSkipVerify,omitempty"`

	// Index is the prefix of all indices that are written.
	Index string `json:"index"`

	// Client is the bulk client type to use (http or transport).
	Client ClientType `json:"client,omitempty"`

	// RequestTimeout is the timeout of a single request against elasticsearch.
	RequestTimeout metav1.Duration `json:"requestTimeout,omitempty"`
}

// Bulk configures the buffering of documents before they are sent to elasticsearch.
type Bulk struct {
	// Actions is the number of buffered documents that triggers a flush.
	Actions int `json:"actions"`
	// FlushInterval is the maximum number of seconds a document is buffered.
	FlushInterval int `json:"flushInterval"`
	// ConcurrentRequests is the maximum number of bulk requests in flight.
	ConcurrentRequests int `json:"concurrentRequests"`
	// MaxBufferedActions caps the buffer. Documents exceeding the cap are dropped.
	// 0 means the buffer is unbounded.
	MaxBufferedActions int `json:"maxBufferedActions,omitempty"`
	// ShutdownTimeout bounds the time to wait for in-flight requests on shutdown.
	ShutdownTimeout metav1.Duration `json:"shutdownTimeout,omitempty"`
}

// Pipeline configures the ingest pipeline that is registered on startup.
type Pipeline struct {
	Name    string   `json:"name,omitempty"`
	Plugins []string `json:"plugins,omitempty"`
}

// IndexSettings are rendered into the index templates.
type IndexSettings struct {
	NumberOfShards   int    `json:"numberOfShards"`
	NumberOfReplicas int    `json:"numberOfReplicas"`
	RefreshInterval  string `json:"refreshInterval,omitempty"`
}

// Gateway describes the gateway node the reports originate from.
type Gateway struct {
	NodeID   string `json:"nodeID,omitempty"`
	Hostname string `json:"hostname,omitempty"`
}

// Server configures the intake http server.
type Server struct {
	Address string `json:"address,omitempty"`
}
