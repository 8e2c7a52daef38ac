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

	"github.com/pkg/errors"
)

const NoArch = "noarch"

// compatArches lists, for each base arch, the arches it can run, best first.
var compatArches = map[string][]string{
	"x86_64":  {"x86_64", "athlon", "i686", "i586", "i486", "i386", NoArch},
	"athlon":  {"athlon", "i686", "i586", "i486", "i386", NoArch},
	"i686":    {"i686", "i586", "i486", "i386", NoArch},
	"i586":    {"i586", "i486", "i386", NoArch},
	"i486":    {"i486", "i386", NoArch},
	"i386":    {"i386", NoArch},
	"aarch64": {"aarch64", NoArch},
	"ppc64le": {"ppc64le", NoArch},
	"ppc64":   {"ppc64", "ppc", NoArch},
	"ppc":     {"ppc", NoArch},
	"s390x":   {"s390x", "s390", NoArch},
	"s390":    {"s390", NoArch},
	NoArch:    {NoArch},
}

// KnownBaseArches returns the base arches with a builtin compatibility list.
func KnownBaseArches() []string {
	out := make([]string, 0, len(compatArches))
	for a := range compatArches {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Arches is the architecture compatibility table of one resolution.
type Arches struct {
	Base       string
	Compatible []string
	score      map[string]int
}

// NewArches builds the table for base. A non empty compat overrides the
// builtin list; it is ordered best first and noarch is always appended.
func NewArches(base string, compat []string) (*Arches, error) {
	if len(compat) == 0 {
		builtin, ok := compatArches[base]
		if !ok {
			return nil, errors.Errorf("unknown base architecture %q", base)
		}
		compat = builtin
	}
	a := &Arches{Base: base, score: map[string]int{}}
	for _, arch := range append([]string{base}, compat...) {
		if _, ok := a.score[arch]; ok || arch == NoArch {
			continue
		}
		a.score[arch] = len(a.Compatible)
		a.Compatible = append(a.Compatible, arch)
	}
	a.score[NoArch] = len(a.Compatible)
	a.Compatible = append(a.Compatible, NoArch)
	return a, nil
}

// IsCompatible reports whether packages of arch can be installed.
func (a *Arches) IsCompatible(arch string) bool {
	_, ok := a.score[arch]
	return ok
}

// Score is the position of arch in the compatible list, lower is better.
// Incompatible arches score after every compatible one.
func (a *Arches) Score(arch string) int {
	if s, ok := a.score[arch]; ok {
		return s
	}
	return len(a.Compatible)
}

// Rank orders a candidate arch for something that wants arch want (the arch
// of a requirer, or of the package being replaced): same arch first, then
// noarch, then by score.
func (a *Arches) Rank(cand, want string) int {
	switch {
	case cand == want:
		return 0
	case cand == NoArch:
		return 1
	}
	return 2 + a.Score(cand)
}

// Best returns the best scoring arch of arches.
func (a *Arches) Best(arches []string) string {
	best := ""
	for _, arch := range arches {
		if best == "" || a.Score(arch) < a.Score(best) {
			best = arch
		}
	}
	return best
}
