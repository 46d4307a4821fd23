// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gardener/elasticsearch-reporter/pkg/util/cmdutil"
	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch"
)

func newHealthCommand(ctx context.Context, o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Prints the version and health of the elasticsearch cluster",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.Validate(); err != nil {
				return err
			}
			client, err := elasticsearch.NewClient(o.cfg.ElasticSearch)
			if err != nil {
				return err
			}

			info, err := elasticsearch.GetClusterInfo(ctx, client)
			if err != nil {
				return err
			}
			health, err := elasticsearch.GetClusterHealth(ctx, client)
			if err != nil {
				return err
			}

			headers := []string{"CLUSTER", "VERSION", "STATUS", "NODES", "DATA NODES", "ACTIVE SHARDS", "UNASSIGNED SHARDS"}
			content := [][]string{{
				health.ClusterName,
				info.Version.Number,
				health.Status,
				strconv.Itoa(health.NumberOfNodes),
				strconv.Itoa(health.NumberOfDataNodes),
				strconv.Itoa(health.ActiveShards),
				strconv.Itoa(health.UnassignedShards),
			}}
			return cmdutil.PrintTable(cmd.OutOrStdout(), headers, content)
		},
	}
}
