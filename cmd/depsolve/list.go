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
	"encoding/json"
	"io"

	"github.com/Masterminds/log-go"
	logio "github.com/Masterminds/log-go/io"
	units "github.com/docker/go-units"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	pkg "github.com/rancher-sandbox/depsolve/internal/package"
	"github.com/rancher-sandbox/depsolve/internal/solver"
	"github.com/rancher-sandbox/depsolve/pkg/action"
)

var listHelp = `
List installed or available packages. Patterns are name specs, as for install.

    depsolve list
    depsolve list available 'zsh*'
`

func newListCmd(logger log.Logger) *cobra.Command {
	var outfmt solver.OutputMode

	cmd := &cobra.Command{
		Use:     "list [installed|available] [PATTERN...]",
		Short:   "list packages",
		Long:    listHelp,
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := action.NewConfiguration(settings, logger)
			if err != nil {
				return err
			}
			client := action.NewList(cfg)
			if len(args) > 0 {
				if source, err := action.ParseListSource(args[0]); err == nil {
					client.Source = source
					args = args[1:]
				}
			}
			client.Patterns = args

			results, err := client.Run(context.Background())
			if err != nil {
				return err
			}

			// Get an io.Writer compliant logger instance at the info level.
			wInfo := logio.NewWriter(logger, log.InfoLevel)
			return newPkgListWriter(results).write(wInfo, outfmt)
		},
	}

	bindOutputFlag(cmd, &outfmt)
	return cmd
}

type pkgElement struct {
	Name    string `json:"name" yaml:"name"`
	Arch    string `json:"arch" yaml:"arch"`
	Version string `json:"version" yaml:"version"`
	Repo    string `json:"repo" yaml:"repo"`
	Size    int64  `json:"size,omitempty" yaml:"size,omitempty"`
}

type pkgListWriter struct {
	pkgs []pkgElement
}

func newPkgListWriter(pkgs []*pkg.Pkg) *pkgListWriter {
	// Initialize the array so no results returns an empty array instead of null
	elements := make([]pkgElement, 0, len(pkgs))
	for _, p := range pkgs {
		elements = append(elements, pkgElement{
			Name:    p.Name,
			Arch:    p.Arch,
			Version: p.EVR().String(),
			Repo:    p.RepoID,
			Size:    p.Size,
		})
	}
	return &pkgListWriter{elements}
}

func (w *pkgListWriter) write(out io.Writer, outfmt solver.OutputMode) error {
	switch outfmt {
	case solver.JSON:
		return w.WriteJSON(out)
	case solver.YAML:
		return w.WriteYAML(out)
	}
	return w.WriteTable(out)
}

func (w *pkgListWriter) WriteTable(out io.Writer) error {
	table := uitable.New()
	table.AddRow("NAME", "ARCH", "VERSION", "REPO", "SIZE")
	for _, p := range w.pkgs {
		size := "-"
		if p.Size > 0 {
			size = units.HumanSize(float64(p.Size))
		}
		table.AddRow(p.Name, p.Arch, p.Version, p.Repo, size)
	}
	_, err := io.WriteString(out, table.String()+"\n")
	return err
}

func (w *pkgListWriter) WriteJSON(out io.Writer) error {
	b, err := json.Marshal(w.pkgs)
	if err != nil {
		return err
	}
	_, err = out.Write(append(b, '\n'))
	return err
}

func (w *pkgListWriter) WriteYAML(out io.Writer) error {
	b, err := yaml.Marshal(w.pkgs)
	if err != nil {
		return err
	}
	_, err = out.Write(b)
	return err
}
