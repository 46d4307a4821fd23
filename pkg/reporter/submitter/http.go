// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package submitter

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch"
	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch/bulk"
)

type httpSubmitter struct {
	log    logr.Logger
	client elasticsearch.Client
}

// NewHTTPSubmitter creates a submitter that posts batches with the wire client to its primary endpoint.
func NewHTTPSubmitter(log logr.Logger, client elasticsearch.Client) Submitter {
	return &httpSubmitter{
		log:    log,
		client: client,
	}
}

func (s *httpSubmitter) Submit(ctx context.Context, batch bulk.Batch) BulkResult {
	return submit(ctx, s.log, batch, func(ctx context.Context, payload []byte) (int, []byte, error) {
		res, err := s.client.Bulk(ctx, payload)
		if err != nil {
			return 0, nil, err
		}
		return res.StatusCode, res.Body, nil
	})
}
