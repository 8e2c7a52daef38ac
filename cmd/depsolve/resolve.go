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
	"fmt"

	"github.com/Masterminds/log-go"
	logio "github.com/Masterminds/log-go/io"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rancher-sandbox/depsolve/internal/solver"
	"github.com/rancher-sandbox/depsolve/pkg/action"
	"github.com/rancher-sandbox/depsolve/pkg/eyecandy"
)

const specHelp = `
Packages are given as name specs: name, name.arch, name-version,
name-version-release, name-version-release.arch, name-epoch:version-release.arch
or epoch:name-version-release.arch, any of them with shell globs. A spec that
matches no package name is looked up as a capability, so
'depsolve install /usr/bin/tmux' works.

Nothing is installed: the transaction is computed and printed.
`

const installDesc = `
This command computes the transaction installing packages and everything they
require.

Installing a package already installed in an older version updates it.
` + specHelp

const updateDesc = `
This command computes the transaction updating the given packages, or every
installed package when none is given, to their newest available version.
` + specHelp

const upgradeDesc = `
This command computes the transaction updating every installed package to its
newest available version, with obsoletes processing.
`

const eraseDesc = `
This command computes the transaction erasing packages. Installed packages
requiring them are erased too.
` + specHelp

const reinstallDesc = `
This command computes the transaction reinstalling packages in the installed
version.
` + specHelp

const downgradeDesc = `
This command computes the transaction replacing installed packages with the
next older available version.
` + specHelp

type jobOptions struct {
	kind   solver.JobKind
	outfmt solver.OutputMode
}

func newJobCmd(logger log.Logger, kind solver.JobKind, short, long string, args cobra.PositionalArgs, aliases ...string) *cobra.Command {
	o := &jobOptions{kind: kind}

	cmd := &cobra.Command{
		Use:     fmt.Sprintf("%s [PACKAGE...]", kind),
		Aliases: aliases,
		Short:   short,
		Long:    long,
		Args:    args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, solver.NewJobs(o.kind, args...), logger)
		},
	}
	bindOutputFlag(cmd, &o.outfmt)
	return cmd
}

func newInstallCmd(logger log.Logger) *cobra.Command {
	return newJobCmd(logger, solver.JobInstall, "install packages", installDesc, cobra.MinimumNArgs(1))
}

func newUpdateCmd(logger log.Logger) *cobra.Command {
	return newJobCmd(logger, solver.JobUpdate, "update packages", updateDesc, cobra.ArbitraryArgs)
}

func newUpgradeCmd(logger log.Logger) *cobra.Command {
	return newJobCmd(logger, solver.JobUpgrade, "update every installed package", upgradeDesc, cobra.NoArgs, "upgrade-all")
}

func newEraseCmd(logger log.Logger) *cobra.Command {
	return newJobCmd(logger, solver.JobErase, "erase packages", eraseDesc, cobra.MinimumNArgs(1), "remove")
}

func newReinstallCmd(logger log.Logger) *cobra.Command {
	return newJobCmd(logger, solver.JobReinstall, "reinstall packages", reinstallDesc, cobra.MinimumNArgs(1))
}

func newDowngradeCmd(logger log.Logger) *cobra.Command {
	return newJobCmd(logger, solver.JobDowngrade, "downgrade packages", downgradeDesc, cobra.MinimumNArgs(1))
}

func (o *jobOptions) run(cmd *cobra.Command, jobs []solver.Job, logger log.Logger) error {
	cfg, err := action.NewConfiguration(settings, logger)
	if err != nil {
		return err
	}
	res, err := action.NewResolve(cfg).Run(context.Background(), jobs)
	if err != nil {
		return err
	}
	// resolution failures are not usage errors
	cmd.SilenceUsage = true
	return writeResult(logger, res, o.outfmt)
}

// writeResult prints the result and turns a failed resolution into an
// error, so that the exit status reflects it.
func writeResult(logger log.Logger, res *solver.Result, outfmt solver.OutputMode) error {
	// Get an io.Writer compliant logger instance at the info level.
	wInfo := logio.NewWriter(logger, log.InfoLevel)
	if _, err := fmt.Fprint(wInfo, res.Format(outfmt)); err != nil {
		return err
	}

	if outfmt == solver.Table {
		switch res.Code {
		case solver.ResultOK:
			logger.Info(green(eyecandy.Status(settings.NoEmojis, string(res.Code), "Done! :clapping_hands:")))
		case solver.ResultEmpty:
			logger.Info(yellow(eyecandy.Status(settings.NoEmojis, string(res.Code), "Nothing to do.")))
		case solver.ResultErr:
			logger.Error(red(eyecandy.Status(settings.NoEmojis, string(res.Code), "Could not resolve the transaction.")))
		}
	}

	if res.Code == solver.ResultErr {
		return errors.Errorf("%d problem(s) found while resolving", len(res.Failures))
	}
	return nil
}
