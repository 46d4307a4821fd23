// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package submitter

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"

	"github.com/elastic/elastic-transport-go/v8/elastictransport"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/gardener/elasticsearch-reporter/pkg/apis/config"
	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch"
	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch/bulk"
	"github.com/gardener/elasticsearch-reporter/pkg/version"
)

type transportSubmitter struct {
	log       logr.Logger
	transport esapi.Transport
}

// NewTransport creates an elastic transport that round-robins over all configured endpoints.
// Retries are disabled as failed batches are dropped.
func NewTransport(cfg config.ElasticSearch) (*elastictransport.Client, error) {
	endpoints, err := config.ParseEndpoints(cfg.Endpoints)
	if err != nil {
		return nil, err
	}
	urls := make([]*url.URL, 0, len(endpoints))
	for _, ep := range endpoints {
		urls = append(urls, ep.URL())
	}

	httpTransport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		httpTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- explicitly configured by the user
	}

	header := http.Header{}
	header.Set("Accept", "application/json;charset=UTF-8")
	header.Set("Accept-Charset", "UTF-8")

	tp, err := elastictransport.New(elastictransport.Config{
		URLs:         urls,
		Username:     cfg.Username,
		Password:     cfg.Password,
		UserAgent:    "elasticsearch-reporter/" + version.Get().GitVersion,
		Header:       header,
		DisableRetry: true,
		Transport:    httpTransport,
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to create elastic transport")
	}
	return tp, nil
}

// NewTransportSubmitter creates a submitter that sends batches through the given transport.
func NewTransportSubmitter(log logr.Logger, transport esapi.Transport) Submitter {
	return &transportSubmitter{
		log:       log,
		transport: transport,
	}
}

func (s *transportSubmitter) Submit(ctx context.Context, batch bulk.Batch) BulkResult {
	return submit(ctx, s.log, batch, func(ctx context.Context, payload []byte) (int, []byte, error) {
		req := esapi.BulkRequest{
			Body:   bytes.NewReader(payload),
			Header: http.Header{"Content-Type": []string{elasticsearch.ContentTypeNDJSON}},
		}
		res, err := req.Do(ctx, s.transport)
		if err != nil {
			return 0, nil, &elasticsearch.TransportError{Method: http.MethodPost, Path: "/_bulk", Err: err}
		}
		defer res.Body.Close()

		body, err := io.ReadAll(res.Body)
		if err != nil {
			return res.StatusCode, nil, &elasticsearch.TransportError{Method: http.MethodPost, Path: "/_bulk", Err: errors.Wrap(err, "unable to read response body")}
		}
		return res.StatusCode, body, nil
	})
}

// New creates the submitter of the configured client type.
func New(log logr.Logger, cfg config.ElasticSearch, client elasticsearch.Client) (Submitter, error) {
	switch cfg.Client {
	case config.ClientTypeTransport:
		tp, err := NewTransport(cfg)
		if err != nil {
			return nil, err
		}
		return NewTransportSubmitter(log.WithName("transport"), tp), nil
	case config.ClientTypeHTTP, "":
		return NewHTTPSubmitter(log.WithName("http"), client), nil
	default:
		return nil, errors.Errorf("unknown client type %q", cfg.Client)
	}
}
