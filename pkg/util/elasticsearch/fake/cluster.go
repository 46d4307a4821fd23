// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package fake provides an in-memory elasticsearch cluster for tests.
package fake

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Request is a request that was received by the fake cluster.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Cluster answers the api calls of the reporter.
// All requests are recorded.
type Cluster struct {
	*httptest.Server

	mut          sync.Mutex
	version      string
	bulkStatus   int
	bulkResponse string
	requests     []Request
}

// NewCluster starts a fake cluster of the given version.
func NewCluster(version string) *Cluster {
	c := &Cluster{
		version:      version,
		bulkStatus:   http.StatusOK,
		bulkResponse: `{"took":1,"errors":false,"items":[]}`,
	}
	c.Server = httptest.NewServer(c)
	return c
}

// SetBulkResponse sets the response of all following bulk requests.
func (c *Cluster) SetBulkResponse(status int, body string) {
	c.mut.Lock()
	defer c.mut.Unlock()
	c.bulkStatus = status
	c.bulkResponse = body
}

func (c *Cluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	c.mut.Lock()
	c.requests = append(c.requests, Request{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
	version := c.version
	bulkStatus, bulkResponse := c.bulkStatus, c.bulkResponse
	c.mut.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/":
		fmt.Fprintf(w, `{"name":"fake","cluster_name":"fake-cluster","version":{"number":%q}}`, version)
	case r.Method == http.MethodGet && r.URL.Path == "/_cluster/health":
		fmt.Fprint(w, `{"cluster_name":"fake-cluster","status":"green","number_of_nodes":1,"number_of_data_nodes":1,"active_primary_shards":5,"active_shards":5}`)
	case r.Method == http.MethodPut && (strings.HasPrefix(r.URL.Path, "/_template/") || strings.HasPrefix(r.URL.Path, "/_ingest/pipeline/")):
		fmt.Fprint(w, `{"acknowledged":true}`)
	case r.URL.Path == "/_bulk":
		w.WriteHeader(bulkStatus)
		fmt.Fprint(w, bulkResponse)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, `{"error":"no handler found for %s %s"}`, r.Method, r.URL.Path)
	}
}

// Requests returns all recorded requests.
func (c *Cluster) Requests() []Request {
	c.mut.Lock()
	defer c.mut.Unlock()
	return append([]Request(nil), c.requests...)
}

// BulkRequests returns the recorded bulk requests.
func (c *Cluster) BulkRequests() []Request {
	var bulks []Request
	for _, r := range c.Requests() {
		if r.Path == "/_bulk" {
			bulks = append(bulks, r)
		}
	}
	return bulks
}

// Documents returns the number of documents of all bulk requests.
func (c *Cluster) Documents() int {
	docs := 0
	for _, r := range c.BulkRequests() {
		docs += bytes.Count(r.Body, []byte("\n")) / 2
	}
	return docs
}

// Paths returns the method and path of all recorded requests.
func (c *Cluster) Paths() []string {
	var paths []string
	for _, r := range c.Requests() {
		paths = append(paths, r.Method+" "+r.Path)
	}
	return paths
}
