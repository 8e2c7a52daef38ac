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
	"fmt"
	"io"
	"os"

	"github.com/Masterminds/log-go"
	logio "github.com/Masterminds/log-go/io"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rancher-sandbox/depsolve/pkg/repo"
)

var repoDepsolve = `
This command consists of multiple subcommands to interact with repositories.

Repositories are kept in the file given with --repository-config (or
$DEPSOLVE_REPOSITORY_CONFIG). They are read on top of the repositories of the
configuration file.
`

func newRepoCmd(logger log.Logger) *cobra.Command {
	wInfo := logio.NewWriter(logger, log.InfoLevel)
	cmd := &cobra.Command{
		Use:   "repo add|remove|list|index [ARGS]",
		Short: "add, list, remove, and index repositories",
		Long:  repoDepsolve,
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(
		newRepoAddCmd(wInfo),
		newRepoListCmd(wInfo),
		newRepoIndexCmd(wInfo, logger),
		newRepoRemoveCmd(wInfo),
	)

	return cmd
}

func repositoryConfig() (string, error) {
	if settings.RepositoryConfig == "" {
		return "", errors.New("no repositories file, set --repository-config")
	}
	return settings.RepositoryConfig, nil
}

type repoAddOptions struct {
	name     string
	path     string
	disabled bool
	repoFile string
}

func newRepoAddCmd(out io.Writer) *cobra.Command {
	o := &repoAddOptions{}

	cmd := &cobra.Command{
		Use:   "add [NAME] [PATH]",
		Short: "add a repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if o.repoFile, err = repositoryConfig(); err != nil {
				return err
			}
			o.name = args[0]
			o.path = args[1]
			return o.run(out)
		},
	}
	cmd.Flags().BoolVar(&o.disabled, "disabled", false, "add the repository disabled")
	return cmd
}

func (o *repoAddOptions) run(out io.Writer) error {
	r, err := repo.LoadFile(o.repoFile)
	if err != nil && !isNotExist(err) {
		return err
	}
	if isNotExist(err) {
		r = repo.NewFile()
	}
	if r.Has(o.name) {
		return errors.Errorf("repository name (%s) already exists, please specify a different name", o.name)
	}

	r.Update(&repo.Entry{Name: o.name, Path: o.path, Disabled: o.disabled})
	if err := r.WriteFile(o.repoFile, 0644); err != nil {
		return err
	}
	fmt.Fprintf(out, "%q has been added to your repositories\n", o.name)
	return nil
}

func newRepoListCmd(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "list repositories",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repoFile, err := repositoryConfig()
			if err != nil {
				return err
			}
			r, err := repo.LoadFile(repoFile)
			if isNotExist(err) || (err == nil && len(r.Repositories) == 0) {
				return errors.New("no repositories to show")
			}
			if err != nil {
				return err
			}

			table := uitable.New()
			table.AddRow("NAME", "PATH", "ENABLED")
			for _, e := range r.Repositories {
				table.AddRow(e.Name, e.Path, !e.Disabled)
			}
			fmt.Fprintln(out, table.String())
			return nil
		},
	}
	return cmd
}

func isNotExist(err error) bool {
	return os.IsNotExist(errors.Cause(err))
}
