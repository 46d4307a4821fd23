// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package elasticsearch

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// BulkResponse is the response that is returned by elastic search when doing a bulk request
type BulkResponse struct {
	Took   int             `json:"took"`
	Errors bool            `json:"errors"`
	Items  json.RawMessage `json:"items"`
}

// BulkResponseItem is response of one document from a bulk request
type BulkResponseItem struct {
	Index  string      `json:"_index"`
	Type   string      `json:"_type"`
	ID     string      `json:"_id"`
	Status int         `json:"status"`
	Error  interface{} `json:"error"`
}

// ClusterHealth is the response of the cluster health api.
type ClusterHealth struct {
	ClusterName         string `json:"cluster_name"`
	Status              string `json:"status"`
	TimedOut            bool   `json:"timed_out"`
	NumberOfNodes       int    `json:"number_of_nodes"`
	NumberOfDataNodes   int    `json:"number_of_data_nodes"`
	ActivePrimaryShards int    `json:"active_primary_shards"`
	ActiveShards        int    `json:"active_shards"`
	RelocatingShards    int    `json:"relocating_shards"`
	InitializingShards  int    `json:"initializing_shards"`
	UnassignedShards    int    `json:"unassigned_shards"`
}

// ClusterInfo is the response of the root endpoint.
type ClusterInfo struct {
	Name        string `json:"name"`
	ClusterName string `json:"cluster_name"`
	Version     struct {
		Number string `json:"number"`
	} `json:"version"`

	// Response is the raw response the info was parsed from.
	Response *Response `json:"-"`
}

// GetClusterInfo fetches the cluster info from the root endpoint.
func GetClusterInfo(ctx context.Context, c Client) (*ClusterInfo, error) {
	res, err := CheckOK(c.Get(ctx, "/"))
	if err != nil {
		return nil, err
	}
	info := &ClusterInfo{}
	if err := json.Unmarshal(res.Body, info); err != nil {
		return nil, NewTechnicalError(res, errors.Wrap(err, "unable to parse cluster info").Error())
	}
	info.Response = res
	return info, nil
}

// GetClusterHealth fetches the health of the cluster.
func GetClusterHealth(ctx context.Context, c Client) (*ClusterHealth, error) {
	res, err := CheckOK(c.Get(ctx, "/_cluster/health"))
	if err != nil {
		return nil, err
	}
	health := &ClusterHealth{}
	if err := json.Unmarshal(res.Body, health); err != nil {
		return nil, NewTechnicalError(res, errors.Wrap(err, "unable to parse cluster health").Error())
	}
	return health, nil
}
