// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package submitter sends batches of document lines to the bulk api of elasticsearch.
package submitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/gardener/elasticsearch-reporter/pkg/util"
	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch"
	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch/bulk"
)

const (
	// maxPreviewLength is the number of payload and response bytes that are logged on failures.
	maxPreviewLength = 512
	// maxItemErrors is the number of item errors that are kept per bulk response.
	maxItemErrors = 10
)

// Submitter submits a batch with one bulk request.
// Implementations never panic and never return errors past their boundary;
// all failures are logged and described by the result.
type Submitter interface {
	Submit(ctx context.Context, batch bulk.Batch) BulkResult
}

// BulkResult describes the outcome of one bulk submission.
type BulkResult struct {
	// Documents is the number of documents of the batch.
	Documents int
	// StatusCode is the http status of the bulk response or 0 if no response was received.
	StatusCode int
	// Took is the processing time reported by elasticsearch.
	Took time.Duration
	// Duration is the round trip time of the request.
	Duration time.Duration
	// FailedItems is the number of documents that elasticsearch rejected in a successful response.
	FailedItems int
	// Err is a *SubmissionFailure if the batch or some of its documents failed.
	Err error
}

// Skipped returns true if no request was sent.
func (r BulkResult) Skipped() bool {
	return r.Documents == 0
}

// Failed returns true if the whole batch failed.
func (r BulkResult) Failed() bool {
	return r.Err != nil && r.FailedItems == 0
}

// SubmissionFailure describes a failed bulk request or failed documents of a bulk request.
type SubmissionFailure struct {
	StatusCode int
	// Preview is the truncated request payload.
	Preview string
	// Response is the truncated response body.
	Response string
	// FailedItems is the number of failed documents.
	FailedItems int
	Err         error
}

func (e *SubmissionFailure) Error() string {
	switch {
	case e.FailedItems != 0:
		return fmt.Sprintf("%d documents of the bulk request failed: %s", e.FailedItems, e.Err.Error())
	case e.StatusCode != 0:
		return fmt.Sprintf("bulk request failed with status code %d: %s", e.StatusCode, e.Response)
	default:
		return fmt.Sprintf("bulk request failed: %s", e.Err.Error())
	}
}

func (e *SubmissionFailure) Unwrap() error {
	return e.Err
}

// submitFunc sends the payload and returns the status code and body of the response.
type submitFunc func(ctx context.Context, payload []byte) (int, []byte, error)

// submit runs a bulk request through the given submit function and evaluates its response.
func submit(ctx context.Context, log logr.Logger, batch bulk.Batch, do submitFunc) (result BulkResult) {
	if len(batch) == 0 {
		return BulkResult{}
	}
	result.Documents = len(batch)
	payload := batch.Payload()

	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("panic during bulk request: %v", r)
			log.Error(err, "bulk request failed", "documents", len(batch))
			result.Err = &SubmissionFailure{Preview: util.Truncate(payload, maxPreviewLength), Err: err}
		}
	}()

	start := time.Now()
	status, body, err := do(ctx, payload)
	result.Duration = time.Since(start)
	result.StatusCode = status
	if err != nil {
		log.Error(err, "bulk request failed", "documents", len(batch), "payload", util.Truncate(payload, maxPreviewLength))
		result.Err = &SubmissionFailure{Preview: util.Truncate(payload, maxPreviewLength), Err: err}
		return result
	}
	if status != http.StatusOK {
		failure := &SubmissionFailure{
			StatusCode: status,
			Preview:    util.Truncate(payload, maxPreviewLength),
			Response:   util.Truncate(body, maxPreviewLength),
		}
		log.Error(failure, "bulk request failed", "status", status, "documents", len(batch), "payload", failure.Preview)
		result.Err = failure
		return result
	}

	res, failedItems, itemErr, err := parseBulkResponse(body)
	if err != nil {
		log.Error(err, "unable to parse bulk response", "documents", len(batch), "response", util.Truncate(body, maxPreviewLength))
		result.Err = &SubmissionFailure{StatusCode: status, Response: util.Truncate(body, maxPreviewLength), Err: err}
		return result
	}
	result.Took = time.Duration(res.Took) * time.Millisecond
	if failedItems != 0 {
		failure := &SubmissionFailure{
			StatusCode:  status,
			FailedItems: failedItems,
			Err:         itemErr,
		}
		log.Error(failure, "documents of the bulk request failed", "failed", failedItems, "documents", len(batch))
		result.FailedItems = failedItems
		result.Err = failure
		return result
	}

	log.V(3).Info("bulk request succeeded", "documents", len(batch), "took", result.Took.String(), "duration", result.Duration.String())
	return result
}

// parseBulkResponse parses the bulk response and counts the failed documents.
// itemErr aggregates the first failures of documents.
func parseBulkResponse(body []byte) (res *elasticsearch.BulkResponse, failed int, itemErr error, err error) {
	res = &elasticsearch.BulkResponse{}
	if err := json.Unmarshal(body, res); err != nil {
		return nil, 0, nil, errors.Wrap(err, "unable to unmarshal bulk response")
	}
	if !res.Errors {
		return res, 0, nil, nil
	}
	failed, itemErr, err = parseItemErrors(res)
	if err != nil {
		return nil, 0, nil, err
	}
	if failed == 0 {
		return nil, 0, nil, errors.New("elastic search returned an error without failed documents")
	}
	return res, failed, itemErr, nil
}

// parseItemErrors returns the number of failed documents and an aggregated error of the first failures.
func parseItemErrors(res *elasticsearch.BulkResponse) (int, error, error) {
	items := make([]map[string]elasticsearch.BulkResponseItem, 0)
	if err := json.Unmarshal(res.Items, &items); err != nil {
		return 0, nil, errors.Wrap(err, "unable to parse bulk items")
	}

	var (
		failed    int
		allErrors *multierror.Error
	)
	for _, action := range items {
		for _, item := range action {
			if item.Status >= 200 && item.Status <= 299 {
				continue
			}
			failed++
			if failed <= maxItemErrors {
				allErrors = multierror.Append(allErrors, errors.Errorf("%s/%s/%s: status %d: %s", item.Index, item.Type, item.ID, item.Status, formatItemError(item.Error)))
			}
		}
	}
	return failed, util.ReturnMultiError(allErrors), nil
}

func formatItemError(itemErr interface{}) string {
	switch e := itemErr.(type) {
	case nil:
		return "unknown error"
	case string:
		return e
	case map[string]interface{}:
		if reason, ok := e["reason"].(string); ok {
			if errType, ok := e["type"].(string); ok {
				return fmt.Sprintf("%s: %s", errType, reason)
			}
			return reason
		}
	}
	data, err := json.Marshal(itemErr)
	if err != nil {
		return fmt.Sprintf("%#v", itemErr)
	}
	return string(data)
}
