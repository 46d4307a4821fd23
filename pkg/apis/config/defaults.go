// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultEndpoint           = "http://localhost:9200"
	DefaultIndex              = "gravitee"
	DefaultBulkActions        = 500
	DefaultFlushInterval      = 1
	DefaultConcurrentRequests = 5
	DefaultPipelineName       = "gravitee_pipeline"
	DefaultNumberOfShards     = 5
	DefaultNumberOfReplicas   = 1
	DefaultRefreshInterval    = "5s"
	DefaultServerAddress      = ":8080"
	DefaultRequestTimeout     = 30 * time.Second
	DefaultShutdownTimeout    = 30 * time.Second
)

// SetDefaults_Configuration sets default values for all unset configuration fields.
func SetDefaults_Configuration(obj *Configuration) {
	SetDefaults_ElasticSearch(&obj.ElasticSearch)
	SetDefaults_Bulk(&obj.Bulk)
	SetDefaults_Pipeline(&obj.Pipeline)
	SetDefaults_IndexSettings(&obj.Settings)
	SetDefaults_Gateway(&obj.Gateway)

	if len(obj.Server.Address) == 0 {
		obj.Server.Address = DefaultServerAddress
	}
}

// SetDefaults_ElasticSearch sets default values for the ElasticSearch objects
func SetDefaults_ElasticSearch(obj *ElasticSearch) {
	if len(obj.Endpoints) == 0 {
		obj.Endpoints = []string{DefaultEndpoint}
	}
	if len(obj.Index) == 0 {
		obj.Index = DefaultIndex
	}
	if len(obj.Client) == 0 {
		obj.Client = ClientTypeHTTP
	}
	if obj.RequestTimeout.Duration == 0 {
		obj.RequestTimeout.Duration = DefaultRequestTimeout
	}
}

// SetDefaults_Bulk sets default values for the Bulk objects
func SetDefaults_Bulk(obj *Bulk) {
	if obj.Actions == 0 {
		obj.Actions = DefaultBulkActions
	}
	if obj.FlushInterval == 0 {
		obj.FlushInterval = DefaultFlushInterval
	}
	if obj.ShutdownTimeout.Duration == 0 {
		obj.ShutdownTimeout.Duration = DefaultShutdownTimeout
	}
}

// SetDefaults_Pipeline sets default values for the Pipeline objects
func SetDefaults_Pipeline(obj *Pipeline) {
	if len(obj.Name) == 0 {
		obj.Name = DefaultPipelineName
	}
}

// SetDefaults_IndexSettings sets default values for the IndexSettings objects
func SetDefaults_IndexSettings(obj *IndexSettings) {
	if obj.NumberOfShards == 0 {
		obj.NumberOfShards = DefaultNumberOfShards
	}
	if obj.NumberOfReplicas == 0 {
		obj.NumberOfReplicas = DefaultNumberOfReplicas
	}
	if len(obj.RefreshInterval) == 0 {
		obj.RefreshInterval = DefaultRefreshInterval
	}
}

// SetDefaults_Gateway sets default values for the Gateway objects
func SetDefaults_Gateway(obj *Gateway) {
	if len(obj.NodeID) == 0 {
		obj.NodeID = uuid.New().String()
	}
	if len(obj.Hostname) == 0 {
		if hostname, err := os.Hostname(); err == nil {
			obj.Hostname = hostname
		}
	}
}
