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

package rpmdb

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/log-go"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	pkg "github.com/rancher-sandbox/depsolve/internal/package"
)

// DefaultPath is where the installed database lives below the install root.
const DefaultPath = "/var/lib/depsolve/installed.yaml"

// InstalledRepoID is the repository id given to installed packages.
const InstalledRepoID = "installed"

// DB is the installed package database: an index file below an install root,
// read under a shared lock and written under an exclusive one.
type DB struct {
	Path       string
	RetryDelay time.Duration
	logger     log.Logger
}

// Open returns the database at path below root. The path cannot escape root.
func Open(root, path string, logger log.Logger) (*DB, error) {
	if path == "" {
		path = DefaultPath
	}
	if root == "" {
		root = "/"
	}
	full, err := securejoin.SecureJoin(root, path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s in %s", path, root)
	}
	return &DB{Path: full, RetryDelay: 100 * time.Millisecond, logger: logger}, nil
}

func (db *DB) lockPath() string {
	return db.Path + ".lock"
}

// Load reads the installed packages. A database that does not exist yet is
// empty.
func (db *DB) Load(ctx context.Context, in *pkg.Interner) (*pkg.MemorySack, error) {
	if _, err := os.Stat(db.Path); os.IsNotExist(err) {
		db.logger.Debugf("no installed database at %s", db.Path)
		return pkg.NewMemorySack(), nil
	}

	lock := flock.New(db.lockPath())
	locked, err := lock.TryRLockContext(ctx, db.RetryDelay)
	if err != nil {
		return nil, errors.Wrapf(err, "locking %s", db.lockPath())
	}
	if !locked {
		return nil, errors.Errorf("could not lock %s", db.lockPath())
	}
	defer lock.Unlock()

	idx, err := LoadIndexFile(db.Path, db.logger)
	if err != nil {
		return nil, err
	}
	sack, err := idx.Sack(in, pkg.Installed, InstalledRepoID)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading %s", db.Path)
	}
	db.logger.Debugf("loaded %d installed packages from %s", sack.Len(), db.Path)
	return sack, nil
}

// Save replaces the database content with pkgs.
func (db *DB) Save(ctx context.Context, pkgs []*pkg.Pkg) error {
	if err := os.MkdirAll(filepath.Dir(db.Path), 0755); err != nil {
		return err
	}
	lock := flock.New(db.lockPath())
	locked, err := lock.TryLockContext(ctx, db.RetryDelay)
	if err != nil {
		return errors.Wrapf(err, "locking %s", db.lockPath())
	}
	if !locked {
		return errors.Errorf("could not lock %s", db.lockPath())
	}
	defer lock.Unlock()

	idx := NewIndexFile()
	for _, p := range pkgs {
		idx.Add(p)
	}
	idx.SortEntries()
	return idx.WriteFile(db.Path, 0644)
}
