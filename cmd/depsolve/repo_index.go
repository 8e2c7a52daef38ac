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
	"path/filepath"

	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rancher-sandbox/depsolve/internal/rpmdb"
	"github.com/rancher-sandbox/depsolve/pkg/eyecandy"
	"github.com/rancher-sandbox/depsolve/pkg/repo"
)

const repoIndexDesc = `
Read the current directory and generate an index file based on the rpm
packages found.

This tool is used for creating an 'index.yaml' file for a repository. A
directory holding an index.yaml is loaded from it instead of reading every
rpm again.

'--merge' will merge the given index into the newly generated one. Packages
found in the directory win over the ones of the merged index.
`

type repoIndexOptions struct {
	dir   string
	merge string
}

func newRepoIndexCmd(out io.Writer, logger log.Logger) *cobra.Command {
	o := &repoIndexOptions{}

	cmd := &cobra.Command{
		Use:   "index [DIR]",
		Short: "generate an index file given a directory containing rpm packages",
		Long:  repoIndexDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.dir = args[0]
			return o.run(out, logger)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.merge, "merge", "", "merge the generated index into the given index")

	return cmd
}

func (i *repoIndexOptions) run(out io.Writer, logger log.Logger) error {
	path, err := filepath.Abs(i.dir)
	if err != nil {
		return err
	}
	return index(path, i.merge, out, logger)
}

func index(dir, mergeTo string, w io.Writer, logger log.Logger) error {
	out := filepath.Join(dir, repo.IndexFileName)

	i, err := repo.IndexDirectory(dir, logger)
	if err != nil {
		return err
	}
	if mergeTo != "" {
		// if index.yaml is missing then create an empty one to merge into
		var i2 *rpmdb.IndexFile
		if _, err := os.Stat(mergeTo); os.IsNotExist(err) {
			i2 = rpmdb.NewIndexFile()
			if err := i2.WriteFile(mergeTo, 0644); err != nil {
				return err
			}
		} else {
			i2, err = rpmdb.LoadIndexFile(mergeTo, logger)
			if err != nil {
				return errors.Wrap(err, "merge failed")
			}
		}
		i.Merge(i2)
	}
	i.SortEntries()
	if err := i.WriteFile(out, 0644); err != nil {
		return err
	}
	fmt.Fprintln(w, eyecandy.ESPrintf(settings.NoEmojis, ":package: indexed %d packages into %s", len(i.Packages), out))
	return nil
}
