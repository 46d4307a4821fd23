// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gardener/elasticsearch-reporter/pkg/reporter"
	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch"
	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch/bulk"
)

func newIngestCommand(ctx context.Context, o *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Indexes all documents of a bulk file through the reporter",
		PreRun: func(cmd *cobra.Command, _ []string) {
			o.log.Info("Starting 'es-reporter ingest'", "file", file, "endpoints", o.cfg.ElasticSearch.Endpoints)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.Validate(); err != nil {
				return err
			}
			if err := o.ingest(ctx, file); err != nil {
				o.log.Error(err, "error during execution")
				return err
			}
			return nil
		},
		PostRun: func(cmd *cobra.Command, _ []string) {
			o.log.Info("Finished 'es-reporter ingest'")
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to a bulk ingestion file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (o *options) ingest(ctx context.Context, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrapf(err, "unable to read bulk file %s", file)
	}
	lines, err := bulk.ParseBulkFile(o.log, nil, data).Marshal()
	if err != nil {
		return err
	}

	client, err := elasticsearch.NewClient(o.cfg.ElasticSearch)
	if err != nil {
		return err
	}
	rep, err := reporter.New(o.log.WithName("reporter"), &o.cfg, client)
	if err != nil {
		return err
	}
	for _, line := range lines {
		rep.IndexLine(line)
	}
	if err := rep.Start(ctx); err != nil {
		_ = rep.Stop(ctx)
		return err
	}

	stopCtx, cancel := context.WithTimeout(ctx, o.cfg.Bulk.ShutdownTimeout.Duration)
	defer cancel()
	if err := rep.Stop(stopCtx); err != nil {
		return errors.Wrap(err, "not all documents were submitted")
	}

	summary := rep.Metrics().Summarize()
	o.log.Info("ingested bulk file", "documents", len(lines), "batches", summary.Submitted, "failedBatches", summary.Failed,
		"failedDocuments", summary.FailedItems, "dropped", summary.Dropped)
	if summary.Failed != 0 {
		return errors.Errorf("%d of %d bulk requests failed", summary.Failed, summary.Submitted)
	}
	if summary.FailedItems != 0 {
		return errors.Errorf("%d of %d documents were rejected by elasticsearch", summary.FailedItems, len(lines))
	}
	return nil
}
