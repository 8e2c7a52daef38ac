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

package pkg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Variant tells on which side of the universe a package lives.
type Variant int

const (
	Available Variant = iota
	Installed
)

func (v Variant) String() string {
	if v == Installed {
		return "installed"
	}
	return "available"
}

// Tuple is the identity of a package build. Two packages with equal tuples
// are the same NEVRA.
type Tuple struct {
	Name    string `json:"name" yaml:"name"`
	Arch    string `json:"arch" yaml:"arch"`
	Epoch   string `json:"epoch,omitempty" yaml:"epoch,omitempty"`
	Version string `json:"version" yaml:"version"`
	Release string `json:"release" yaml:"release"`
}

// EVR returns the version part of the tuple.
func (t Tuple) EVR() EVR {
	return EVR{Epoch: t.Epoch, Version: t.Version, Release: t.Release}
}

// NA returns "name.arch".
func (t Tuple) NA() string {
	return t.Name + "." + t.Arch
}

// SameNA reports whether both tuples share name and arch.
func (t Tuple) SameNA(o Tuple) bool {
	return t.Name == o.Name && t.Arch == o.Arch
}

// String returns the NEVRA, "name-[epoch:]version-release.arch".
func (t Tuple) String() string {
	return fmt.Sprintf("%s-%s.%s", t.Name, t.EVR(), t.Arch)
}

// ParseNEVRA parses "name-[epoch:]version-release.arch" and the
// "epoch:name-version-release.arch" spelling.
func ParseNEVRA(s string) (Tuple, error) {
	var t Tuple
	dot := strings.LastIndex(s, ".")
	if dot < 0 {
		return t, errors.Errorf("%q is not a NEVRA: missing arch", s)
	}
	t.Arch = s[dot+1:]
	rest := s[:dot]

	rdash := strings.LastIndex(rest, "-")
	if rdash < 0 {
		return t, errors.Errorf("%q is not a NEVRA: missing release", s)
	}
	t.Release = rest[rdash+1:]
	rest = rest[:rdash]

	vdash := strings.LastIndex(rest, "-")
	if vdash < 0 {
		return t, errors.Errorf("%q is not a NEVRA: missing version", s)
	}
	t.Version = rest[vdash+1:]
	t.Name = rest[:vdash]

	if i := strings.Index(t.Version, ":"); i >= 0 {
		t.Epoch = t.Version[:i]
		t.Version = t.Version[i+1:]
	} else if i := strings.Index(t.Name, ":"); i >= 0 {
		t.Epoch = t.Name[:i]
		t.Name = t.Name[i+1:]
	}
	if t.Name == "" || t.Version == "" || t.Arch == "" {
		return t, errors.Errorf("%q is not a NEVRA", s)
	}
	return t, nil
}

// Pkg is the minimum object the solver reasons about: a package build with
// its dependency relations, either installed or available from a repository.
// Pkgs are immutable once handed to a package database.
type Pkg struct {
	Tuple     `yaml:",inline"`
	Provides  []Relation `json:"provides,omitempty" yaml:"provides,omitempty"`
	Requires  []Relation `json:"requires,omitempty" yaml:"requires,omitempty"`
	Obsoletes []Relation `json:"obsoletes,omitempty" yaml:"obsoletes,omitempty"`
	Conflicts []Relation `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	Files     []string   `json:"files,omitempty" yaml:"files,omitempty"`
	Size      int64      `json:"size,omitempty" yaml:"size,omitempty"`
	RepoID    string     `json:"repo" yaml:"repo"`
	Variant   Variant    `json:"-" yaml:"-"`

	in    *Interner
	files map[string]struct{}
}

// NewPkg creates a package with no relations. Strings are interned in in,
// which may be nil. An epoch of "0" is stored empty, so both spellings are the
// same NEVRA.
func NewPkg(in *Interner, t Tuple, variant Variant, repo string) *Pkg {
	if t.Epoch == "0" {
		t.Epoch = ""
	}
	return &Pkg{
		Tuple: Tuple{
			Name:    in.Intern(t.Name),
			Arch:    in.Intern(t.Arch),
			Epoch:   in.Intern(t.Epoch),
			Version: in.Intern(t.Version),
			Release: in.Intern(t.Release),
		},
		RepoID:  in.Intern(repo),
		Variant: variant,
		in:      in,
		files:   map[string]struct{}{},
	}
}

// NewPkgMock creates a package from a NEVRA string and relation strings of the
// form "name [op evr]". Useful for testing.
func NewPkgMock(in *Interner, nevra string, variant Variant,
	provides, requires, obsoletes, conflicts, files []string) *Pkg {

	t, err := ParseNEVRA(nevra)
	if err != nil {
		panic(err)
	}
	repo := "installed"
	if variant == Available {
		repo = "ourrepo"
	}
	p := NewPkg(in, t, variant, repo)
	for _, s := range provides {
		p.AddProvides(MustParseRelation(s))
	}
	for _, s := range requires {
		p.AddRequires(MustParseRelation(s))
	}
	for _, s := range obsoletes {
		p.AddObsoletes(MustParseRelation(s))
	}
	for _, s := range conflicts {
		p.AddConflicts(MustParseRelation(s))
	}
	p.AddFiles(files...)
	return p
}

func (p *Pkg) intern(rels []Relation) []Relation {
	for i := range rels {
		rels[i].Name = p.in.Intern(rels[i].Name)
		rels[i].EVR = EVR{
			Epoch:   p.in.Intern(rels[i].EVR.Epoch),
			Version: p.in.Intern(rels[i].EVR.Version),
			Release: p.in.Intern(rels[i].EVR.Release),
		}
	}
	return rels
}

func (p *Pkg) AddProvides(rels ...Relation) {
	p.Provides = append(p.Provides, p.intern(rels)...)
}

func (p *Pkg) AddRequires(rels ...Relation) {
	p.Requires = append(p.Requires, p.intern(rels)...)
}

func (p *Pkg) AddObsoletes(rels ...Relation) {
	p.Obsoletes = append(p.Obsoletes, p.intern(rels)...)
}

func (p *Pkg) AddConflicts(rels ...Relation) {
	p.Conflicts = append(p.Conflicts, p.intern(rels)...)
}

func (p *Pkg) AddFiles(paths ...string) {
	if p.files == nil {
		p.files = map[string]struct{}{}
	}
	for _, f := range paths {
		if _, ok := p.files[f]; ok {
			continue
		}
		f = p.in.Intern(f)
		p.files[f] = struct{}{}
		p.Files = append(p.Files, f)
	}
}

// HasFile reports whether path is one of the package files.
func (p *Pkg) HasFile(path string) bool {
	if p.files == nil {
		for _, f := range p.Files {
			if f == path {
				return true
			}
		}
		return false
	}
	_, ok := p.files[path]
	return ok
}

// SelfProvide is the implicit "name = epoch:version-release" every package
// provides.
func (p *Pkg) SelfProvide() Relation {
	return Relation{Name: p.Name, Flag: FlagEQ, EVR: p.EVR()}
}

// Satisfies reports whether the package fulfils req. File paths are matched
// against the file list and explicit provides only.
func (p *Pkg) Satisfies(req Relation) bool {
	if req.IsFile() {
		if p.HasFile(req.Name) {
			return true
		}
		for _, prov := range p.Provides {
			if prov.Name == req.Name {
				return true
			}
		}
		return false
	}
	if p.SelfProvide().Overlaps(req) {
		return true
	}
	for _, prov := range p.Provides {
		if prov.Overlaps(req) {
			return true
		}
	}
	return false
}

// ObsoletesPkg reports whether one of p's obsoletes matches the name and
// version of o. Obsoletes never match capabilities.
func (p *Pkg) ObsoletesPkg(o *Pkg) bool {
	for _, obs := range p.Obsoletes {
		if obs.Name == o.Name && RangesOverlap(obs.Flag, obs.EVR, FlagEQ, o.EVR()) {
			return true
		}
	}
	return false
}

// ConflictsWith reports whether one of p's conflicts is satisfied by o.
func (p *Pkg) ConflictsWith(o *Pkg) (Relation, bool) {
	for _, c := range p.Conflicts {
		if o.Satisfies(c) {
			return c, true
		}
	}
	return Relation{}, false
}

// IsInstalled reports whether the package comes from the installed side.
func (p *Pkg) IsInstalled() bool {
	return p.Variant == Installed
}

// JSON serializes package p into JSON, returning a []byte
func (p *Pkg) JSON() ([]byte, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(p)
	return buffer.Bytes(), err
}

func (p *Pkg) String() string {
	return p.Tuple.String()
}
