// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package elasticsearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/pkg/errors"

	"github.com/gardener/elasticsearch-reporter/pkg/apis/config"
)

const (
	ContentTypeJSON   = "application/json"
	ContentTypeNDJSON = "application/x-ndjson"

	acceptHeader        = "application/json;charset=UTF-8"
	acceptCharsetHeader = "UTF-8"
)

// Client defines an interface to interact with an elasticsearch instance.
// Non-2xx responses are returned as data; only network and protocol failures are returned as TransportError.
type Client interface {
	Get(ctx context.Context, path string) (*Response, error)
	Put(ctx context.Context, path string, body []byte) (*Response, error)
	Post(ctx context.Context, path string, body []byte) (*Response, error)
	// Bulk posts a newline delimited json payload to /_bulk.
	Bulk(ctx context.Context, payload []byte) (*Response, error)
	// Endpoint returns the primary endpoint the client talks to.
	Endpoint() string
}

// Response is the status and the fully read body of an elasticsearch response.
type Response struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

// IsSuccess returns true for 2xx status codes.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

type client struct {
	*http.Client

	endpoint      string
	authorization string
}

// NewClient creates a wire client for the first configured endpoint.
func NewClient(cfg config.ElasticSearch) (Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, errors.New("at least one elasticsearch endpoint has to be defined")
	}
	ep, err := config.ParseEndpoint(cfg.Endpoints[0])
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- explicitly configured by the user
	}

	c := &client{
		Client: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout.Duration,
		},
		endpoint: ep.String(),
	}
	if len(cfg.Username) != 0 {
		c.authorization = BasicAuth(cfg.Username, cfg.Password)
	}
	return c, nil
}

// BasicAuth computes the value of a basic auth authorization header.
func BasicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func (c *client) Endpoint() string {
	return c.endpoint
}

func (c *client) Get(ctx context.Context, rawPath string) (*Response, error) {
	return c.do(ctx, http.MethodGet, rawPath, ContentTypeJSON, nil)
}

func (c *client) Put(ctx context.Context, rawPath string, body []byte) (*Response, error) {
	return c.do(ctx, http.MethodPut, rawPath, ContentTypeJSON, body)
}

func (c *client) Post(ctx context.Context, rawPath string, body []byte) (*Response, error) {
	return c.do(ctx, http.MethodPost, rawPath, ContentTypeJSON, body)
}

func (c *client) Bulk(ctx context.Context, payload []byte) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/_bulk", ContentTypeNDJSON, payload)
}

func (c *client) do(ctx context.Context, httpMethod, rawPath, contentType string, body []byte) (*Response, error) {
	esURL, err := c.parseUrlNoEscape(rawPath)
	if err != nil {
		return nil, &TransportError{Method: httpMethod, Path: rawPath, Err: err}
	}
	var payload io.Reader
	if body != nil {
		payload = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, httpMethod, esURL, payload)
	if err != nil {
		return nil, &TransportError{Method: httpMethod, Path: rawPath, Err: err}
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Charset", acceptCharsetHeader)
	req.Header.Set("Content-Type", contentType)
	if len(c.authorization) != 0 {
		req.Header.Set("Authorization", c.authorization)
	}

	res, err := c.Do(req)
	if err != nil {
		return nil, &TransportError{Method: httpMethod, Path: rawPath, Err: err}
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransportError{Method: httpMethod, Path: rawPath, Err: errors.Wrap(err, "unable to read response body")}
	}
	return &Response{
		Method:     httpMethod,
		Path:       rawPath,
		StatusCode: res.StatusCode,
		Body:       resBody,
	}, nil
}

func (c *client) parseUrlNoEscape(rawPath string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", err
	}
	p, err := url.Parse(rawPath)
	if err != nil {
		return "", err
	}
	u.Path = path.Join("/", u.Path, p.Path)
	result := u.Scheme + "://" + u.Host + u.Path
	if p.RawQuery != "" {
		result += "?" + p.RawQuery
	}
	return result, nil
}
