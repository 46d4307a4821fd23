// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"

	"github.com/spf13/cobra"
)

// NewReporterCommand creates the root command of the elasticsearch reporter.
func NewReporterCommand(ctx context.Context) *cobra.Command {
	o := NewOptions()

	cmd := &cobra.Command{
		Use:           "es-reporter",
		Short:         "Reports api gateway requests, health checks and node metrics to elasticsearch",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.Complete()
		},
	}
	o.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newServeCommand(ctx, o),
		newHealthCommand(ctx, o),
		newIngestCommand(ctx, o),
		newConfigCommand(o),
		newVersionCommand(),
	)
	return cmd
}
