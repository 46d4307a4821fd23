// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gardener/elasticsearch-reporter/pkg/reporter"
	"github.com/gardener/elasticsearch-reporter/pkg/reporter/intake"
	"github.com/gardener/elasticsearch-reporter/pkg/reporter/metrics"
	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch"
	"github.com/gardener/elasticsearch-reporter/pkg/version"
)

func newServeCommand(ctx context.Context, o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Bootstraps elasticsearch and serves the intake api until the process is terminated",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.Validate(); err != nil {
				return err
			}
			return o.serve(ctx)
		},
	}
}

func (o *options) serve(ctx context.Context) error {
	o.log.Info(fmt.Sprintf("start elasticsearch reporter with version %s", version.Get().String()),
		"endpoints", o.cfg.ElasticSearch.Endpoints, "node", o.cfg.Gateway.NodeID)

	client, err := elasticsearch.NewClient(o.cfg.ElasticSearch)
	if err != nil {
		return errors.Wrap(err, "unable to create elasticsearch client")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		return err
	}

	rep, err := reporter.New(o.log.WithName("reporter"), &o.cfg, client, reporter.WithMetrics(m))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return intake.Serve(gctx, o.log.WithName("intake"), o.cfg.Server.Address, intake.NewRouter(o.log.WithName("intake"), rep, reg))
	})
	g.Go(func() error {
		if err := rep.Start(gctx); err != nil {
			return errors.Wrap(err, "unable to bootstrap elasticsearch")
		}
		return nil
	})
	runErr := g.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), o.cfg.Bulk.ShutdownTimeout.Duration)
	defer cancel()
	if err := rep.Stop(stopCtx); err != nil {
		o.log.Error(err, "unable to flush all documents before shutdown")
	}
	o.log.Info("elasticsearch reporter stopped")
	return runErr
}
