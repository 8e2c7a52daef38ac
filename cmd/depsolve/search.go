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

	pkg "github.com/rancher-sandbox/depsolve/internal/package"
	"github.com/rancher-sandbox/depsolve/pkg/action"
	"github.com/rancher-sandbox/depsolve/pkg/search"
)

const searchDesc = `
Search reads through the packages of all the configured repositories, and
looks for matches in package names, then in capabilities, then in files.

It will display the newest version of the packages found. If you want to
search using a version constraint, use --version.

Examples:

    # Search for packages matching the keyword "zsh"
    $ depsolve search zsh

    # Search for the package providing a library
    $ depsolve search libevent-2.1.so.7

    # Search for zsh older than 5.9
    $ depsolve search zsh --version '< 5.9'
`

type searchOptions struct {
	search.Options
	installed bool
}

func newSearchCmd(logger log.Logger) *cobra.Command {
	o := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search [keyword]",
		Short: "search for a keyword in packages",
		Long:  searchDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := action.NewConfiguration(settings, logger)
			if err != nil {
				return err
			}
			var sack pkg.Sack
			if o.installed {
				sack, err = cfg.LoadInstalled(context.Background())
			} else {
				sack, err = cfg.LoadAvailable()
			}
			if err != nil {
				return err
			}
			return o.Run(logger, args, sack)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&o.Regexp, "regexp", "r", false, "use regular expressions for searching")
	f.BoolVarP(&o.Versions, "versions", "l", false, "show the long listing, with each version of each package on its own line")
	f.StringVar(&o.Version, "version", "", "search using an rpm version constraint, such as '>= 5.9'")
	f.UintVar(&o.MaxColWidth, "max-col-width", 50, "maximum column width for output table")
	f.BoolVar(&o.installed, "installed", false, "search the installed packages instead of the repositories")
	bindOutputFlag(cmd, &o.OutputFormat)

	return cmd
}
