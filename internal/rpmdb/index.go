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
	"io/ioutil"
	"os"
	"sort"
	"time"

	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	pkg "github.com/rancher-sandbox/depsolve/internal/package"
)

// APIVersionV1 is the v1 API version for index files.
const APIVersionV1 = "v1"

var (
	// ErrNoAPIVersion indicates that an API version was not specified.
	ErrNoAPIVersion = errors.New("no API version specified")
)

// IndexFile is a list of packages with their relations, as written for the
// installed database and for repositories.
type IndexFile struct {
	APIVersion string     `json:"apiVersion"`
	Generated  time.Time  `json:"generated"`
	Packages   []*pkg.Pkg `json:"packages"`
}

// NewIndexFile initializes an index.
func NewIndexFile() *IndexFile {
	return &IndexFile{
		APIVersion: APIVersionV1,
		Generated:  time.Now(),
		Packages:   []*pkg.Pkg{},
	}
}

// LoadIndexFile takes a file at the given path and returns an IndexFile object.
// Invalid entries are logged and skipped.
func LoadIndexFile(path string, logger log.Logger) (*IndexFile, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	i, err := loadIndex(b, path, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading %s", path)
	}
	return i, nil
}

// loadIndex loads an index file and does minimal validity checking.
//
// The source parameter is only used for logging.
func loadIndex(data []byte, source string, logger log.Logger) (*IndexFile, error) {
	i := &IndexFile{}
	if err := yaml.UnmarshalStrict(data, i); err != nil {
		return i, err
	}
	if i.APIVersion == "" {
		return i, ErrNoAPIVersion
	}

	valid := i.Packages[:0]
	for _, p := range i.Packages {
		if p == nil {
			continue
		}
		if err := validate(p); err != nil {
			logger.Warnf("skipping invalid entry %q from %s: %s", p.Name, source, err)
			continue
		}
		valid = append(valid, p)
	}
	i.Packages = valid
	i.SortEntries()
	return i, nil
}

func validate(p *pkg.Pkg) error {
	switch {
	case p.Name == "":
		return errors.New("missing name")
	case p.Version == "":
		return errors.New("missing version")
	case p.Arch == "":
		return errors.New("missing arch")
	}
	return nil
}

// Add appends a package, replacing an entry with the same NEVRA.
func (i *IndexFile) Add(p *pkg.Pkg) {
	for n, o := range i.Packages {
		if o.Tuple == p.Tuple {
			i.Packages[n] = p
			return
		}
	}
	i.Packages = append(i.Packages, p)
}

// Has reports whether the index holds the NEVRA t.
func (i *IndexFile) Has(t pkg.Tuple) bool {
	for _, p := range i.Packages {
		if p.Tuple == t {
			return true
		}
	}
	return false
}

// Merge merges the given index file into this index.
//
// Entries of f not already present by NEVRA are added. In all other cases,
// the existing record is preserved.
//
// This can leave the index in an unsorted state
func (i *IndexFile) Merge(f *IndexFile) {
	for _, p := range f.Packages {
		if !i.Has(p.Tuple) {
			i.Packages = append(i.Packages, p)
		}
	}
}

// SortEntries sorts the packages by name, then newest version first.
func (i *IndexFile) SortEntries() {
	sort.SliceStable(i.Packages, func(a, b int) bool {
		pa, pb := i.Packages[a], i.Packages[b]
		if pa.Name != pb.Name {
			return pa.Name < pb.Name
		}
		if c := pkg.CompareEVR(pa.EVR(), pb.EVR()); c != 0 {
			return c > 0
		}
		return pa.Arch < pb.Arch
	})
}

// Sack builds the packages of the index into a sack. Packages are rebuilt
// through pkg.NewPkg so their strings are interned in in and their file
// index is set up.
func (i *IndexFile) Sack(in *pkg.Interner, variant pkg.Variant, repo string) (*pkg.MemorySack, error) {
	sack := pkg.NewMemorySack()
	for _, e := range i.Packages {
		r := repo
		if r == "" {
			r = e.RepoID
		}
		p := pkg.NewPkg(in, e.Tuple, variant, r)
		p.AddProvides(e.Provides...)
		p.AddRequires(e.Requires...)
		p.AddObsoletes(e.Obsoletes...)
		p.AddConflicts(e.Conflicts...)
		p.AddFiles(e.Files...)
		p.Size = e.Size
		if err := sack.Add(p); err != nil {
			return nil, err
		}
	}
	return sack, nil
}

// WriteFile writes an index file to the given destination path.
//
// The mode on the file is set to 'mode'.
func (i *IndexFile) WriteFile(dest string, mode os.FileMode) error {
	b, err := yaml.Marshal(i)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(dest, b, mode)
}
