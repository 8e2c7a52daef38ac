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
	"bufio"
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Masterminds/log-go"
	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rancher-sandbox/depsolve/internal/solver"
	"github.com/rancher-sandbox/depsolve/pkg/action"
)

const shellDesc = `
This command reads job lines from a script, or from standard input when no
script is given, and resolves them together as one transaction:

    # comments and blank lines are ignored
    install tmux
    erase zsh
    update
    run

Each 'run' resolves the jobs read so far and starts a new transaction. Jobs
left when the input ends are resolved as well. 'config skip_broken true'
drops unresolvable jobs instead of failing, 'exit' stops reading.
`

type shellOptions struct {
	outfmt solver.OutputMode
}

func newShellCmd(logger log.Logger) *cobra.Command {
	o := &shellOptions{}

	cmd := &cobra.Command{
		Use:   "shell [SCRIPT]",
		Short: "resolve a script of jobs as one transaction",
		Long:  shellDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			cfg, err := action.NewConfiguration(settings, logger)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return o.run(in, action.NewResolve(cfg), logger)
		},
	}
	bindOutputFlag(cmd, &o.outfmt)
	return cmd
}

func (o *shellOptions) run(in io.Reader, client *action.Resolve, logger log.Logger) error {
	var jobs []solver.Job
	resolve := func() error {
		if len(jobs) == 0 {
			return nil
		}
		res, err := client.Run(context.Background(), jobs)
		jobs = nil
		if err != nil {
			return err
		}
		return writeResult(logger, res, o.outfmt)
	}

	scanner := bufio.NewScanner(in)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words, err := shellwords.Parse(line)
		if err != nil {
			return errors.Wrapf(err, "line %d", lineno)
		}
		if len(words) == 0 {
			continue
		}

		switch words[0] {
		case "run":
			if err := resolve(); err != nil {
				return err
			}
			continue
		case "exit", "quit":
			logger.Debugf("leaving shell at line %d", lineno)
			return nil
		case "config":
			if err := o.config(client, words[1:]); err != nil {
				return errors.Wrapf(err, "line %d", lineno)
			}
			continue
		}

		parsed, err := solver.ParseJobLine(words)
		if err != nil {
			return errors.Wrapf(err, "line %d", lineno)
		}
		jobs = append(jobs, parsed...)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return resolve()
}

func (o *shellOptions) config(client *action.Resolve, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: config skip_broken true|false")
	}
	switch args[0] {
	case "skip_broken":
		v, err := strconv.ParseBool(args[1])
		if err != nil {
			return errors.Wrapf(err, "skip_broken")
		}
		client.SkipBroken = v
	default:
		return errors.Errorf("unknown option %q", args[0])
	}
	return nil
}
