/*
Copyright SUSE LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"

	"github.com/Masterminds/log-go"
	"github.com/spf13/cobra"

	"github.com/rancher-sandbox/depsolve/pkg/action"
	"github.com/rancher-sandbox/depsolve/pkg/eyecandy"
)

const dbImportDesc = `
Record rpm files as installed in the installed package database. Only the
package headers are read, nothing is installed.

The database is the 'installed' file of the configuration, below
--installroot.
`

func newDBCmd(logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db import [ARGS]",
		Short: "manage the installed package database",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newDBImportCmd(logger))
	return cmd
}

func newDBImportCmd(logger log.Logger) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import [RPM...]",
		Short: "record rpm files as installed",
		Long:  dbImportDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := action.NewConfiguration(settings, logger)
			if err != nil {
				return err
			}
			client := action.NewImport(cfg)
			client.Replace = replace

			added, err := client.Run(context.Background(), args)
			if err != nil {
				return err
			}
			for _, p := range added {
				logger.Info(eyecandy.ESPrintf(settings.NoEmojis, ":inbox_tray: %s", p))
			}
			logger.Info(eyecandy.ESPrint(settings.NoEmojis, "Done! :clapping_hands:"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "drop the current content of the database first")
	return cmd
}
