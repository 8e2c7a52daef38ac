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
	"errors"
	"io"
	"os"

	"github.com/Masterminds/log-go"
	logcli "github.com/Masterminds/log-go/impl/cli"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rancher-sandbox/depsolve/pkg/eyecandy"
)

var globalUsage = `Usage: depsolve command

Compute the transaction installing, updating or erasing rpm packages would
take, from an installed package database and a set of repositories.

Environment variables:

| Name                         | Description                                         |
|------------------------------|-----------------------------------------------------|
| $DEPSOLVE_DEBUG              | enable verbose output                               |
| $DEPSOLVE_NO_COLORS          | disable colorized output                            |
| $DEPSOLVE_NO_EMOJIS          | disable emojis in output                            |
| $DEPSOLVE_CONFIG             | path to the configuration file                      |
| $DEPSOLVE_INSTALLROOT        | directory the installed database is read from       |
| $DEPSOLVE_REPOSITORY_CONFIG  | path to a file with extra repositories              |
`

func newLogger(out io.Writer) log.Logger {
	logger := logcli.NewStandard()
	logger.InfoOut = out
	logger.WarnOut = out
	logger.ErrorOut = out
	logger.DebugOut = out
	if settings.Debug {
		logger.Level = log.DebugLevel
	}
	return logger
}

func newRootCmd(out io.Writer, args []string) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:          "depsolve",
		Short:        "An rpm dependency resolver",
		Long:         globalUsage,
		SilenceUsage: false,
	}

	flags := cmd.PersistentFlags()
	settings.AddFlags(flags)

	flags.ParseErrorsWhitelist.UnknownFlags = true
	err := flags.Parse(args)

	if err != nil && !errors.Is(err, pflag.ErrHelp) {
		return nil, err
	}

	if settings.NoColors || !eyecandy.IsTerminal(os.Stdout) {
		color.NoColor = true // disable colorized output
	}

	logger := newLogger(out)

	cmd.AddCommand(
		newInstallCmd(logger),
		newUpdateCmd(logger),
		newUpgradeCmd(logger),
		newEraseCmd(logger),
		newReinstallCmd(logger),
		newDowngradeCmd(logger),
		newShellCmd(logger),
		newListCmd(logger),
		newSearchCmd(logger),
		newRepoCmd(logger),
		newDBCmd(logger),
		newVersionCmd(logger),
	)

	return cmd, nil
}
