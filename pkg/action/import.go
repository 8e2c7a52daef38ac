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

	pkg "github.com/rancher-sandbox/depsolve/internal/package"
	"github.com/rancher-sandbox/depsolve/internal/rpmdb"
)

// Import is the action recording rpm files as installed.
//
// It provides the implementation of 'depsolve db import'. Only the headers
// are read; this is how an installed database is seeded from the packages
// actually present on a system.
type Import struct {
	cfg *Configuration

	// Replace drops the current content of the database first.
	Replace bool
}

// NewImport creates a new Import object with the given configuration.
func NewImport(cfg *Configuration) *Import {
	return &Import{
		cfg: cfg,
	}
}

// Run adds the packages in paths to the installed database and returns
// what was added. A NEVRA already recorded is replaced.
func (i *Import) Run(ctx context.Context, paths []string) ([]*pkg.Pkg, error) {
	db, err := i.cfg.InstalledDB()
	if err != nil {
		return nil, err
	}

	idx := rpmdb.NewIndexFile()
	if !i.Replace {
		current, err := db.Load(ctx, i.cfg.Interner)
		if err != nil {
			return nil, err
		}
		idx.Packages = append(idx.Packages, current.Packages()...)
	}

	var added []*pkg.Pkg
	for _, path := range paths {
		p, err := rpmdb.ReadPackageFile(path, i.cfg.Interner, pkg.Installed, rpmdb.InstalledRepoID)
		if err != nil {
			return nil, err
		}
		i.cfg.Log.Debugf("recording %s from %s", p, path)
		idx.Add(p)
		added = append(added, p)
	}

	if err := db.Save(ctx, idx.Packages); err != nil {
		return nil, err
	}
	return added, nil
}
