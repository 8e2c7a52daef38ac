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
	"github.com/pkg/errors"
)

// Sack is a read-only collection of packages, as handed out by a repository
// or by the installed package database.
type Sack interface {
	Packages() []*Pkg
}

// InstalledSack is the installed side of the universe. On top of iteration
// it supports point lookups.
type InstalledSack interface {
	Sack
	ByName(name string) []*Pkg
	ByTuple(t Tuple) *Pkg
}

// MemorySack keeps packages in insertion order and indexes them by name and
// tuple. It implements both Sack and InstalledSack.
type MemorySack struct {
	pkgs    []*Pkg
	byName  map[string][]*Pkg
	byTuple map[Tuple]*Pkg
}

// NewMemorySack returns an empty sack.
func NewMemorySack() *MemorySack {
	return &MemorySack{
		byName:  map[string][]*Pkg{},
		byTuple: map[Tuple]*Pkg{},
	}
}

// Add appends packages. A NEVRA already in the sack is an error and leaves
// the sack unchanged from that package on.
func (s *MemorySack) Add(pkgs ...*Pkg) error {
	for _, p := range pkgs {
		if _, ok := s.byTuple[p.Tuple]; ok {
			return errors.Errorf("duplicate package %s in %s sack", p, p.Variant)
		}
		s.pkgs = append(s.pkgs, p)
		s.byName[p.Name] = append(s.byName[p.Name], p)
		s.byTuple[p.Tuple] = p
	}
	return nil
}

// MustAdd is Add for tests and fixtures.
func (s *MemorySack) MustAdd(pkgs ...*Pkg) *MemorySack {
	if err := s.Add(pkgs...); err != nil {
		panic(err)
	}
	return s
}

func (s *MemorySack) Packages() []*Pkg {
	return s.pkgs
}

func (s *MemorySack) ByName(name string) []*Pkg {
	return s.byName[name]
}

func (s *MemorySack) ByTuple(t Tuple) *Pkg {
	return s.byTuple[t]
}

func (s *MemorySack) Len() int {
	return len(s.pkgs)
}
