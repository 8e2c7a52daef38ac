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

package solver

import (
	"sort"
	"sync"

	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"

	pkg "github.com/rancher-sandbox/depsolve/internal/package"
)

// PkgDB is the provider index over both sides of the universe: the installed
// packages and the available ones. It maps capability names, file paths and
// obsoleted names to packages.
//
// A package present on both sides (same NEVRA) is represented by its
// installed copy in every query result, and the installed copy's metadata is
// what queries match against: a provide only the repository copy declares is
// not seen.
//
// PkgDB is filled with Add and then sealed by the solver; adding to a sealed
// database is a programming error and panics.
type PkgDB struct {
	arches *Arches

	installed        []*pkg.Pkg
	available        []*pkg.Pkg
	installedByTuple map[pkg.Tuple]*pkg.Pkg
	availableByTuple map[pkg.Tuple]*pkg.Pkg

	// name -> packages of that name, both sides
	byName map[string][]*pkg.Pkg
	// capability name -> packages with a provide of that name, self provide included
	provides map[string][]*pkg.Pkg
	// file path -> packages shipping it
	files map[string][]*pkg.Pkg
	// obsoleted name -> available packages obsoleting it
	obsoletes map[string][]*pkg.Pkg
	// obsoleted name -> installed packages obsoleting it
	installedObsoletes map[string][]*pkg.Pkg

	sealed bool

	mu    sync.Mutex
	cache map[string][]*pkg.Pkg
}

// NewPkgDB creates an empty database. Available packages whose arch is not
// compatible with arches are ignored by Add.
func NewPkgDB(arches *Arches) *PkgDB {
	return &PkgDB{
		arches:           arches,
		installedByTuple: map[pkg.Tuple]*pkg.Pkg{},
		availableByTuple: map[pkg.Tuple]*pkg.Pkg{},
		byName:           map[string][]*pkg.Pkg{},
		provides:         map[string][]*pkg.Pkg{},
		files:            map[string][]*pkg.Pkg{},
		obsoletes:        map[string][]*pkg.Pkg{},
		cache:            map[string][]*pkg.Pkg{},

		installedObsoletes: map[string][]*pkg.Pkg{},
	}
}

// BuildPkgDB fills a database from the installed sack and the available
// sacks.
func BuildPkgDB(arches *Arches, installed pkg.Sack, available ...pkg.Sack) (*PkgDB, error) {
	db := NewPkgDB(arches)
	if installed != nil {
		for _, p := range installed.Packages() {
			if !p.IsInstalled() {
				return nil, errors.Errorf("package %s of the installed sack is marked %s", p, p.Variant)
			}
			if err := db.Add(p); err != nil {
				return nil, err
			}
		}
	}
	for _, sack := range available {
		for _, p := range sack.Packages() {
			if p.IsInstalled() {
				return nil, errors.Errorf("package %s of an available sack is marked %s", p, p.Variant)
			}
			if err := db.Add(p); err != nil {
				return nil, err
			}
		}
	}
	return db, nil
}

// Add indexes p on the side given by its Variant. Two packages with the same
// NEVRA on the same side are an error.
func (pkgdb *PkgDB) Add(p *pkg.Pkg) error {
	if pkgdb.sealed {
		panic("solver: package database modified during resolution")
	}
	if p.Variant == pkg.Installed {
		if _, ok := pkgdb.installedByTuple[p.Tuple]; ok {
			return errors.Errorf("duplicate installed package %s", p)
		}
		pkgdb.installedByTuple[p.Tuple] = p
		pkgdb.installed = append(pkgdb.installed, p)
		for _, obs := range p.Obsoletes {
			pkgdb.installedObsoletes[obs.Name] = appendOnce(pkgdb.installedObsoletes[obs.Name], p)
		}
	} else {
		if pkgdb.arches != nil && !pkgdb.arches.IsCompatible(p.Arch) {
			return nil
		}
		if _, ok := pkgdb.availableByTuple[p.Tuple]; ok {
			return errors.Errorf("duplicate available package %s (repo %s)", p, p.RepoID)
		}
		pkgdb.availableByTuple[p.Tuple] = p
		pkgdb.available = append(pkgdb.available, p)
		for _, obs := range p.Obsoletes {
			pkgdb.obsoletes[obs.Name] = appendOnce(pkgdb.obsoletes[obs.Name], p)
		}
	}

	pkgdb.byName[p.Name] = append(pkgdb.byName[p.Name], p)
	pkgdb.provides[p.Name] = appendOnce(pkgdb.provides[p.Name], p)
	for _, prov := range p.Provides {
		pkgdb.provides[prov.Name] = appendOnce(pkgdb.provides[prov.Name], p)
	}
	for _, f := range p.Files {
		pkgdb.files[f] = appendOnce(pkgdb.files[f], p)
	}
	return nil
}

func appendOnce(pkgs []*pkg.Pkg, p *pkg.Pkg) []*pkg.Pkg {
	if n := len(pkgs); n > 0 && pkgs[n-1] == p {
		return pkgs
	}
	return append(pkgs, p)
}

// Seal freezes the database.
func (pkgdb *PkgDB) Seal() {
	pkgdb.sealed = true
}

// Installed returns the installed packages in insertion order.
func (pkgdb *PkgDB) Installed() []*pkg.Pkg {
	return pkgdb.installed
}

// Available returns the available packages in insertion order.
func (pkgdb *PkgDB) Available() []*pkg.Pkg {
	return pkgdb.available
}

// InstalledByTuple returns the installed package with tuple t, or nil.
func (pkgdb *PkgDB) InstalledByTuple(t pkg.Tuple) *pkg.Pkg {
	return pkgdb.installedByTuple[t]
}

// AvailableByTuple returns the available package with tuple t, or nil.
func (pkgdb *PkgDB) AvailableByTuple(t pkg.Tuple) *pkg.Pkg {
	return pkgdb.availableByTuple[t]
}

// InstalledByName returns the installed packages named name, sorted.
func (pkgdb *PkgDB) InstalledByName(name string) []*pkg.Pkg {
	var out []*pkg.Pkg
	for _, p := range pkgdb.byName[name] {
		if p.IsInstalled() {
			out = append(out, p)
		}
	}
	sortPkgs(out)
	return out
}

// AvailableByName returns the available packages named name, sorted. Copies
// of installed NEVRAs are included.
func (pkgdb *PkgDB) AvailableByName(name string) []*pkg.Pkg {
	var out []*pkg.Pkg
	for _, p := range pkgdb.byName[name] {
		if !p.IsInstalled() {
			out = append(out, p)
		}
	}
	sortPkgs(out)
	return out
}

// IsNameInstalled reports whether any package called name is installed.
func (pkgdb *PkgDB) IsNameInstalled(name string) bool {
	for _, p := range pkgdb.byName[name] {
		if p.IsInstalled() {
			return true
		}
	}
	return false
}

// canonical returns the installed copy of an available package of the same
// NEVRA, if any.
func (pkgdb *PkgDB) canonical(p *pkg.Pkg) *pkg.Pkg {
	if p.IsInstalled() {
		return p
	}
	if i, ok := pkgdb.installedByTuple[p.Tuple]; ok {
		return i
	}
	return p
}

// WhatProvides returns the packages satisfying req, sorted by NEVRA. File
// paths match the file lists and explicit provides of the same path; other
// names match provides (and the implicit self provide) following the rpm
// flag algebra.
func (pkgdb *PkgDB) WhatProvides(req pkg.Relation) []*pkg.Pkg {
	key := req.String()
	pkgdb.mu.Lock()
	cached, ok := pkgdb.cache[key]
	pkgdb.mu.Unlock()
	if ok {
		return cached
	}

	var candidates []*pkg.Pkg
	if req.IsFile() {
		candidates = append(candidates, pkgdb.files[req.Name]...)
	}
	candidates = append(candidates, pkgdb.provides[req.Name]...)

	seen := map[*pkg.Pkg]bool{}
	out := []*pkg.Pkg{}
	for _, p := range candidates {
		p = pkgdb.canonical(p)
		if seen[p] || !p.Satisfies(req) {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sortPkgs(out)

	pkgdb.mu.Lock()
	pkgdb.cache[key] = out
	pkgdb.mu.Unlock()
	return out
}

// ObsoletersOf returns the available packages with an obsoletes entry
// matching the name and version of p, sorted by NEVRA.
func (pkgdb *PkgDB) ObsoletersOf(p *pkg.Pkg) []*pkg.Pkg {
	out := []*pkg.Pkg{}
	for _, o := range pkgdb.obsoletes[p.Name] {
		if o.Tuple != p.Tuple && o.ObsoletesPkg(p) {
			out = append(out, o)
		}
	}
	sortPkgs(out)
	return out
}

// InstalledObsoletersOf returns the installed packages, other than p's own
// name, with an obsoletes entry matching p.
func (pkgdb *PkgDB) InstalledObsoletersOf(p *pkg.Pkg) []*pkg.Pkg {
	out := []*pkg.Pkg{}
	for _, o := range pkgdb.installedObsoletes[p.Name] {
		if o.Name != p.Name && o.ObsoletesPkg(p) {
			out = append(out, o)
		}
	}
	sortPkgs(out)
	return out
}

// ObsoletersOfName returns the available packages with an obsoletes entry on
// name, whatever its version, sorted by NEVRA.
func (pkgdb *PkgDB) ObsoletersOfName(name string) []*pkg.Pkg {
	out := append([]*pkg.Pkg{}, pkgdb.obsoletes[name]...)
	sortPkgs(out)
	return out
}

func (pkgdb *PkgDB) DebugPrintDB(logger log.Logger) {
	logger.Debugf("Printing DB: %d installed, %d available", len(pkgdb.installed), len(pkgdb.available))
	for _, p := range pkgdb.installed {
		logger.Debugf("  installed %s", p)
	}
	for _, p := range pkgdb.available {
		logger.Debugf("  available %s (%s)", p, p.RepoID)
	}
}

// sortPkgs orders packages by NEVRA string, installed first on ties.
func sortPkgs(pkgs []*pkg.Pkg) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		si, sj := pkgs[i].String(), pkgs[j].String()
		if si != sj {
			return si < sj
		}
		return pkgs[i].IsInstalled() && !pkgs[j].IsInstalled()
	})
}
