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
	"path"
	"strings"
)

// SpecMatch is how precisely a user supplied name spec matched a package.
type SpecMatch int

const (
	NoMatch SpecMatch = iota
	// MatchName: "name" or a glob over it.
	MatchName
	// MatchNameArch: "name.arch".
	MatchNameArch
	// MatchVersion: any form carrying a version, the user pinned it.
	MatchVersion
)

// IsGlob reports whether spec contains shell glob characters.
func IsGlob(spec string) bool {
	return strings.ContainsAny(spec, "*?[")
}

// MatchSpec matches spec against the forms a user may type for p:
//
//	name
//	name.arch
//	name-ver
//	name-ver-rel
//	name-ver-rel.arch
//	name-epoch:ver-rel.arch
//	epoch:name-ver-rel.arch
//
// Any of them may be a glob.
func MatchSpec(p *Pkg, spec string) SpecMatch {
	match := func(form string) bool {
		if form == spec {
			return true
		}
		if !IsGlob(spec) {
			return false
		}
		ok, err := path.Match(spec, form)
		return err == nil && ok
	}

	epoch := p.Epoch
	if epoch == "" {
		epoch = "0"
	}
	vr := p.Version + "-" + p.Release
	versioned := []string{
		p.Name + "-" + p.Version,
		p.Name + "-" + vr,
		p.Name + "-" + vr + "." + p.Arch,
		p.Name + "-" + epoch + ":" + vr + "." + p.Arch,
		epoch + ":" + p.Name + "-" + vr + "." + p.Arch,
	}
	// a glob like "zsh*" also matches the versioned forms, the least precise
	// form is the one the user meant
	if match(p.Name) {
		return MatchName
	}
	if match(p.NA()) {
		return MatchNameArch
	}
	for _, form := range versioned {
		if match(form) {
			return MatchVersion
		}
	}
	return NoMatch
}
