// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Endpoint is a single parsed elasticsearch endpoint.
type Endpoint struct {
	Scheme string
	Host   string
	Port   int
}

// URL returns the base url of the endpoint without any path.
func (e Endpoint) URL() *url.URL {
	return &url.URL{
		Scheme: e.Scheme,
		Host:   net.JoinHostPort(e.Host, strconv.Itoa(e.Port)),
	}
}

func (e Endpoint) String() string {
	return e.URL().String()
}

// ParseEndpoint parses a raw endpoint like "https://es.example.com:9243" or "localhost:9200".
// Endpoints without a scheme are treated as http and a missing port defaults to the scheme's port.
func ParseEndpoint(raw string) (Endpoint, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) == 0 {
		return Endpoint{}, errors.New("endpoint must not be empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, errors.Wrapf(err, "unable to parse endpoint %q", raw)
	}

	ep := Endpoint{Scheme: strings.ToLower(u.Scheme), Host: u.Hostname()}
	switch ep.Scheme {
	case "http":
		ep.Port = 80
	case "https":
		ep.Port = 443
	default:
		return Endpoint{}, errors.Errorf("unsupported scheme %q of endpoint %q", u.Scheme, raw)
	}
	if len(ep.Host) == 0 {
		return Endpoint{}, errors.Errorf("endpoint %q has no host", raw)
	}
	if p := u.Port(); len(p) != 0 {
		ep.Port, err = strconv.Atoi(p)
		if err != nil {
			return Endpoint{}, errors.Wrapf(err, "invalid port of endpoint %q", raw)
		}
	}
	return ep, nil
}

// ParseEndpoints parses all endpoints. The order of the endpoints is preserved.
func ParseEndpoints(raw []string) ([]Endpoint, error) {
	endpoints := make([]Endpoint, 0, len(raw))
	for i, r := range raw {
		ep, err := ParseEndpoint(r)
		if err != nil {
			return nil, errors.Wrapf(err, "endpoint %d", i)
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}
