// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package elasticsearch

import (
	"fmt"
	"net/http"

	"github.com/gardener/elasticsearch-reporter/pkg/util"
)

// MaxErrorBodyLength is the maximum number of body bytes that are kept for diagnostics.
const MaxErrorBodyLength = 512

// TransportError is returned if a request could not be sent or its response could not be read.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("unable to do %s request to %s: %s", e.Method, e.Path, e.Err.Error())
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TechnicalError is returned by calls that require a definite answer
// if elasticsearch responded with an unexpected status or payload.
type TechnicalError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
	Reason     string
}

func (e *TechnicalError) Error() string {
	if len(e.Reason) != 0 {
		return fmt.Sprintf("%s %s: %s (status %d): %s", e.Method, e.Path, e.Reason, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s returned status code %d with body %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// NewTechnicalError creates a technical error for the given response with a truncated body.
func NewTechnicalError(res *Response, reason string) *TechnicalError {
	return &TechnicalError{
		Method:     res.Method,
		Path:       res.Path,
		StatusCode: res.StatusCode,
		Body:       util.Truncate(res.Body, MaxErrorBodyLength),
		Reason:     reason,
	}
}

// CheckOK converts every response that is not 200 OK into a TechnicalError.
// It is meant to directly wrap a client call:
//
//	res, err := elasticsearch.CheckOK(c.Get(ctx, "/"))
func CheckOK(res *Response, err error) (*Response, error) {
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, NewTechnicalError(res, "")
	}
	return res, nil
}
