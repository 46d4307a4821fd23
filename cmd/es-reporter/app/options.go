// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"github.com/go-logr/logr"
	flag "github.com/spf13/pflag"

	"github.com/gardener/elasticsearch-reporter/pkg/apis/config"
	"github.com/gardener/elasticsearch-reporter/pkg/apis/config/validation"
	"github.com/gardener/elasticsearch-reporter/pkg/logger"
	viperutil "github.com/gardener/elasticsearch-reporter/pkg/util/cmdutil/viper"
)

// EnvPrefix is the prefix of all environment variables, e.g. ES_REPORTER_BULK_ACTIONS.
const EnvPrefix = "ES_REPORTER"

type options struct {
	log   logr.Logger
	cfg   config.Configuration
	viper *viperutil.Helper
}

// NewOptions creates new options with an empty configuration.
func NewOptions() *options {
	return &options{
		log:   logr.Discard(),
		viper: viperutil.NewViperHelper(nil, EnvPrefix),
	}
}

// AddFlags adds all configuration flags and binds them to their configuration keys.
func (o *options) AddFlags(fs *flag.FlagSet) {
	o.viper.InitFlags(fs)
	logger.InitFlags(fs)

	es := &o.cfg.ElasticSearch
	fs.StringSliceVar(&es.Endpoints, "endpoints", []string{config.DefaultEndpoint}, "Elasticsearch endpoints, e.g. https://example.com:9200")
	fs.StringVar(&es.Username, "username", "", "Elasticsearch basic auth username")
	fs.StringVar(&es.Password, "password", "", "Elasticsearch basic auth password")
	fs.BoolVar(&es.InsecureSkipVerify, "insecure-skip-verify", false, "Skip the verification of the elasticsearch tls certificate")
	fs.StringVar(&es.Index, "index", config.DefaultIndex, "Prefix of all written indices")
	fs.StringVar((*string)(&es.Client), "client", string(config.ClientTypeHTTP), "Client that submits bulk requests (http or transport)")
	fs.DurationVar(&es.RequestTimeout.Duration, "request-timeout", config.DefaultRequestTimeout, "Timeout of a single elasticsearch request")

	b := &o.cfg.Bulk
	fs.IntVar(&b.Actions, "bulk-actions", config.DefaultBulkActions, "Number of buffered documents that triggers a bulk request")
	fs.IntVar(&b.FlushInterval, "bulk-flush-interval", config.DefaultFlushInterval, "Maximum number of seconds a document is buffered")
	fs.IntVar(&b.ConcurrentRequests, "bulk-concurrent-requests", config.DefaultConcurrentRequests, "Maximum number of bulk requests in flight")
	fs.IntVar(&b.MaxBufferedActions, "bulk-max-buffered-actions", 0, "Maximum number of buffered documents, 0 means unbounded")
	fs.DurationVar(&b.ShutdownTimeout.Duration, "bulk-shutdown-timeout", config.DefaultShutdownTimeout, "Maximum time to wait for running bulk requests on shutdown")

	fs.StringVar(&o.cfg.Pipeline.Name, "pipeline-name", config.DefaultPipelineName, "Name of the ingest pipeline")
	fs.StringSliceVar(&o.cfg.Pipeline.Plugins, "pipeline-plugins", nil, "Ingest plugins of the pipeline, e.g. geoip")

	s := &o.cfg.Settings
	fs.IntVar(&s.NumberOfShards, "number-of-shards", config.DefaultNumberOfShards, "Number of shards of the index templates")
	fs.IntVar(&s.NumberOfReplicas, "number-of-replicas", config.DefaultNumberOfReplicas, "Number of replicas of the index templates")
	fs.StringVar(&s.RefreshInterval, "refresh-interval", config.DefaultRefreshInterval, "Refresh interval of the index templates")

	fs.StringVar(&o.cfg.Gateway.NodeID, "node-id", "", "ID of the gateway node, defaults to a random uuid")
	fs.StringVar(&o.cfg.Gateway.Hostname, "hostname", "", "Hostname of the gateway node, defaults to the hostname of the machine")
	fs.StringVar(&o.cfg.Server.Address, "address", config.DefaultServerAddress, "Listen address of the intake server")

	for name, key := range map[string]string{
		"endpoints":            "elasticsearch.endpoints",
		"username":             "elasticsearch.username",
		"password":             "elasticsearch.password",
		"insecure-skip-verify": "elasticsearch.insecureSkipVerify",
		"index":                "elasticsearch.index",
		"client":               "elasticsearch.client",
		"request-timeout":      "elasticsearch.requestTimeout",
		"pipeline-name":        "pipeline.name",
		"pipeline-plugins":     "pipeline.plugins",
		"number-of-shards":     "settings.numberOfShards",
		"number-of-replicas":   "settings.numberOfReplicas",
		"refresh-interval":     "settings.refreshInterval",
		"node-id":              "gateway.nodeID",
		"hostname":             "gateway.hostname",
		"address":              "server.address",

		"bulk-actions":              "bulk.actions",
		"bulk-flush-interval":       "bulk.flushInterval",
		"bulk-concurrent-requests":  "bulk.concurrentRequests",
		"bulk-max-buffered-actions": "bulk.maxBufferedActions",
		"bulk-shutdown-timeout":     "bulk.shutdownTimeout",
	} {
		o.viper.BindPFlagFromFlagSet(fs, name, key)
	}
}

// Complete reads the configuration file and environment, sets the logger and
// defaults all unset values.
func (o *options) Complete() error {
	log, err := logger.New(nil)
	if err != nil {
		return err
	}
	logger.SetLogger(log)
	o.log = log

	if err := o.viper.ReadInConfig(); err != nil {
		return err
	}
	config.SetDefaults_Configuration(&o.cfg)
	return nil
}

// Validate validates the effective configuration.
func (o *options) Validate() error {
	return validation.ValidateConfiguration(&o.cfg).ToAggregate()
}
