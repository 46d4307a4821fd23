// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package elasticsearch_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gardener/elasticsearch-reporter/pkg/apis/config"
	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

type fakeCluster struct {
	mut      sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mut.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	status, resBody := f.status, f.body
	f.mut.Unlock()
	w.WriteHeader(status)
	_, _ = w.Write([]byte(resBody))
}

func (f *fakeCluster) respond(status int, body string) {
	f.mut.Lock()
	defer f.mut.Unlock()
	f.status, f.body = status, body
}

func (f *fakeCluster) last() recordedRequest {
	f.mut.Lock()
	defer f.mut.Unlock()
	return f.requests[len(f.requests)-1]
}

var _ = Describe("wire client", func() {
	var (
		ctx     context.Context
		cluster *fakeCluster
		server  *httptest.Server
		client  elasticsearch.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		cluster = &fakeCluster{status: http.StatusOK, body: "{}"}
		server = httptest.NewServer(cluster)

		var err error
		client, err = elasticsearch.NewClient(config.ElasticSearch{
			Endpoints: []string{server.URL},
			Username:  "elastic",
			Password:  "changeme",
		})
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("should add the common headers to every request", func() {
		res, err := client.Get(ctx, "/")
		Expect(err).ToNot(HaveOccurred())
		Expect(res.StatusCode).To(Equal(http.StatusOK))

		req := cluster.last()
		Expect(req.Method).To(Equal(http.MethodGet))
		Expect(req.Path).To(Equal("/"))
		Expect(req.Header.Get("Accept")).To(Equal("application/json;charset=UTF-8"))
		Expect(req.Header.Get("Accept-Charset")).To(Equal("UTF-8"))
		Expect(req.Header.Get("Content-Type")).To(Equal("application/json"))
		Expect(req.Header.Get("Authorization")).To(Equal("Basic ZWxhc3RpYzpjaGFuZ2VtZQ=="))
	})

	It("should not send an authorization header without credentials", func() {
		var err error
		client, err = elasticsearch.NewClient(config.ElasticSearch{Endpoints: []string{server.URL}})
		Expect(err).ToNot(HaveOccurred())

		_, err = client.Put(ctx, "/_template/gravitee", []byte("{}"))
		Expect(err).ToNot(HaveOccurred())
		Expect(cluster.last().Header.Get("Authorization")).To(BeEmpty())
		Expect(cluster.last().Body).To(Equal("{}"))
	})

	It("should send bulk requests as ndjson", func() {
		payload := "{\"index\":{}}\n{\"a\":1}\n"
		_, err := client.Bulk(ctx, []byte(payload))
		Expect(err).ToNot(HaveOccurred())

		req := cluster.last()
		Expect(req.Method).To(Equal(http.MethodPost))
		Expect(req.Path).To(Equal("/_bulk"))
		Expect(req.Header.Get("Content-Type")).To(Equal("application/x-ndjson"))
		Expect(req.Body).To(Equal(payload))
	})

	It("should keep query parameters", func() {
		_, err := client.Get(ctx, "/_cluster/health?timeout=5s")
		Expect(err).ToNot(HaveOccurred())
		Expect(cluster.last().Path).To(Equal("/_cluster/health"))
		Expect(cluster.last().Query).To(Equal("timeout=5s"))
	})

	It("should return non 2xx responses as data", func() {
		cluster.respond(http.StatusInternalServerError, "boom")
		res, err := client.Post(ctx, "/_bulk", nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(res.IsSuccess()).To(BeFalse())
		Expect(string(res.Body)).To(Equal("boom"))
	})

	It("should convert non 200 responses of checked calls into technical errors with a truncated body", func() {
		cluster.respond(http.StatusBadRequest, strings.Repeat("x", 2*elasticsearch.MaxErrorBodyLength))
		_, err := elasticsearch.CheckOK(client.Get(ctx, "/"))
		Expect(err).To(HaveOccurred())

		var techErr *elasticsearch.TechnicalError
		Expect(errors.As(err, &techErr)).To(BeTrue())
		Expect(techErr.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(len(techErr.Body)).To(BeNumerically("<", 2*elasticsearch.MaxErrorBodyLength))
		Expect(techErr.Body).To(HaveSuffix("(512 more bytes)"))
	})

	It("should return a transport error if the cluster is not reachable", func() {
		server.Close()
		_, err := client.Get(ctx, "/")
		var transportErr *elasticsearch.TransportError
		Expect(errors.As(err, &transportErr)).To(BeTrue())
		Expect(transportErr.Method).To(Equal(http.MethodGet))
	})

	It("should parse the cluster info and health", func() {
		cluster.respond(http.StatusOK, `{"name":"node-1","cluster_name":"es","version":{"number":"5.6.1"}}`)
		info, err := elasticsearch.GetClusterInfo(ctx, client)
		Expect(err).ToNot(HaveOccurred())
		Expect(info.Version.Number).To(Equal("5.6.1"))
		Expect(info.Response.StatusCode).To(Equal(http.StatusOK))
		Expect(info.Response.Path).To(Equal("/"))

		cluster.respond(http.StatusOK, `{"cluster_name":"es","status":"green","number_of_nodes":3}`)
		health, err := elasticsearch.GetClusterHealth(ctx, client)
		Expect(err).ToNot(HaveOccurred())
		Expect(health.Status).To(Equal("green"))
		Expect(health.NumberOfNodes).To(Equal(3))
		Expect(cluster.last().Path).To(Equal("/_cluster/health"))
	})

	It("should fail on unparsable cluster info", func() {
		cluster.respond(http.StatusOK, "not json")
		_, err := elasticsearch.GetClusterInfo(ctx, client)
		var techErr *elasticsearch.TechnicalError
		Expect(errors.As(err, &techErr)).To(BeTrue())
	})
})
