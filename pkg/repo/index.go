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

package repo

import (
	"os"
	"path/filepath"

	"github.com/Masterminds/log-go"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/pkg/errors"

	pkg "github.com/rancher-sandbox/depsolve/internal/package"
	"github.com/rancher-sandbox/depsolve/internal/rpmdb"
)

// IndexFileName is the index looked up inside a repository directory.
const IndexFileName = "index.yaml"

// IndexDirectory reads a directory of rpm files, one level of
// subdirectories included, and generates an index.
//
// Files that are not readable rpms are skipped. The index returned will be
// sorted.
func IndexDirectory(dir string, logger log.Logger) (*rpmdb.IndexFile, error) {
	archives, err := filepath.Glob(filepath.Join(dir, "*.rpm"))
	if err != nil {
		return nil, err
	}
	moreArchives, err := filepath.Glob(filepath.Join(dir, "**/*.rpm"))
	if err != nil {
		return nil, err
	}
	archives = append(archives, moreArchives...)

	index := rpmdb.NewIndexFile()
	for _, arch := range archives {
		p, err := rpmdb.ReadPackageFile(arch, nil, pkg.Available, "")
		if err != nil {
			// Assume this is not an rpm.
			logger.Debugf("skipping %s: %s", arch, err)
			continue
		}
		if index.Has(p.Tuple) {
			return index, errors.Errorf("failed adding %s to index: %s is already indexed", arch, p)
		}
		index.Add(p)
	}
	index.SortEntries()
	return index, nil
}

// Repository is a configured repository and the packages it offers.
type Repository struct {
	Config *Entry
	Index  *rpmdb.IndexFile
}

// Load reads the repository content. Relative paths are resolved inside root.
func Load(e *Entry, root string, logger log.Logger) (*Repository, error) {
	path := e.Path
	if root != "" && root != "/" {
		var err error
		if path, err = securejoin.SecureJoin(root, e.Path); err != nil {
			return nil, errors.Wrapf(err, "resolving repository %s", e.Name)
		}
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "repository %s", e.Name)
	}

	var idx *rpmdb.IndexFile
	switch {
	case !fi.IsDir():
		idx, err = rpmdb.LoadIndexFile(path, logger)
	default:
		indexPath := filepath.Join(path, IndexFileName)
		if _, statErr := os.Stat(indexPath); statErr == nil {
			idx, err = rpmdb.LoadIndexFile(indexPath, logger)
		} else {
			logger.Debugf("repository %s has no %s, indexing rpms in %s", e.Name, IndexFileName, path)
			idx, err = IndexDirectory(path, logger)
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "repository %s", e.Name)
	}
	return &Repository{Config: e, Index: idx}, nil
}

// Sack returns the packages of the repository, tagged with its name.
func (r *Repository) Sack(in *pkg.Interner) (*pkg.MemorySack, error) {
	sack, err := r.Index.Sack(in, pkg.Available, r.Config.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "repository %s", r.Config.Name)
	}
	return sack, nil
}
