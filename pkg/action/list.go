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

package action

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	pkg "github.com/rancher-sandbox/depsolve/internal/package"
)

// ListSource selects which side of the universe to list.
type ListSource string

const (
	ListInstalled ListSource = "installed"
	ListAvailable ListSource = "available"
)

// ParseListSource accepts "installed" and "available".
func ParseListSource(s string) (ListSource, error) {
	switch ListSource(s) {
	case ListInstalled, ListAvailable:
		return ListSource(s), nil
	}
	return "", errors.Errorf("unknown package list %q, expected %q or %q", s, ListInstalled, ListAvailable)
}

// List is the action for listing packages.
//
// It provides the implementation of 'depsolve list'.
type List struct {
	cfg *Configuration

	Source ListSource
	// Patterns are name specs. No pattern lists everything.
	Patterns []string
}

// NewList constructs a new *List
func NewList(cfg *Configuration) *List {
	return &List{
		cfg:    cfg,
		Source: ListInstalled,
	}
}

// Run returns the matching packages sorted by name, newest first.
func (l *List) Run(ctx context.Context) ([]*pkg.Pkg, error) {
	var sack *pkg.MemorySack
	var err error
	switch l.Source {
	case ListInstalled:
		sack, err = l.cfg.LoadInstalled(ctx)
	case ListAvailable:
		sack, err = l.cfg.LoadAvailable()
	default:
		return nil, errors.Errorf("unknown package list %q", l.Source)
	}
	if err != nil {
		return nil, err
	}

	var out []*pkg.Pkg
	if len(l.Patterns) == 0 {
		out = append(out, sack.Packages()...)
	}
	for _, spec := range l.Patterns {
		if !pkg.IsGlob(spec) {
			if byName := sack.ByName(spec); len(byName) > 0 {
				out = appendNew(out, byName...)
				continue
			}
		}
		for _, p := range sack.Packages() {
			if pkg.MatchSpec(p, spec) != pkg.NoMatch {
				out = appendNew(out, p)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		if c := pkg.CompareEVR(out[i].EVR(), out[j].EVR()); c != 0 {
			return c > 0
		}
		return out[i].Arch < out[j].Arch
	})
	return out, nil
}

func appendNew(pkgs []*pkg.Pkg, add ...*pkg.Pkg) []*pkg.Pkg {
	for _, p := range add {
		found := false
		for _, o := range pkgs {
			if o == p {
				found = true
				break
			}
		}
		if !found {
			pkgs = append(pkgs, p)
		}
	}
	return pkgs
}
