// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

const redacted = "<redacted>"

func newConfigCommand(o *options) *cobra.Command {
	var keys bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Prints the effective configuration as yaml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if keys {
				usage, err := o.viper.Usage()
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), usage)
				return err
			}

			cfg := o.cfg
			if len(cfg.ElasticSearch.Password) != 0 {
				cfg.ElasticSearch.Password = redacted
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&keys, "keys", false, "print all configuration keys and their description")
	return cmd
}
