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

	pkg "github.com/rancher-sandbox/depsolve/internal/package"
)

// ObsoletesGraph answers "what replaces this package" over the available
// side of a PkgDB.
type ObsoletesGraph struct {
	db     *PkgDB
	arches *Arches
}

func NewObsoletesGraph(db *PkgDB, arches *Arches) *ObsoletesGraph {
	return &ObsoletesGraph{db: db, arches: arches}
}

// Obsoleters returns the available packages replacing p, one per name. For
// each name the candidate closest in arch to p wins, then the newest.
//
// Packages of p's own name never obsolete it. An obsoleter whose name is
// installed is kept: scheduling it updates that name.
func (g *ObsoletesGraph) Obsoleters(p *pkg.Pkg) []*pkg.Pkg {
	best := map[string]*pkg.Pkg{}
	for _, o := range g.db.ObsoletersOf(p) {
		if o.Name == p.Name {
			continue
		}
		cur, ok := best[o.Name]
		if !ok || g.better(o, cur, p.Arch) {
			best[o.Name] = o
		}
	}
	out := make([]*pkg.Pkg, 0, len(best))
	for _, o := range best {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (g *ObsoletesGraph) better(a, b *pkg.Pkg, want string) bool {
	ra, rb := g.arches.Rank(a.Arch, want), g.arches.Rank(b.Arch, want)
	if ra != rb {
		return ra < rb
	}
	return pkg.VerGT(a.EVR(), b.EVR())
}

// Final follows obsoletes from p breadth first and returns the packages that
// end up replacing it, p itself when nothing does.
func (g *ObsoletesGraph) Final(p *pkg.Pkg) []*pkg.Pkg {
	finals, _ := g.Chain(p)
	return finals
}

// Chain walks the obsoletes graph from p breadth first. It returns the final
// packages and, in visiting order, the packages passed through on the way
// (p first when it is replaced). Every node is expanded at most once: when
// all obsoleters of a node were already visited (a cycle), the node is final.
func (g *ObsoletesGraph) Chain(p *pkg.Pkg) (finals, via []*pkg.Pkg) {
	visited := map[pkg.Tuple]bool{p.Tuple: true}
	queue := []*pkg.Pkg{p}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		var next []*pkg.Pkg
		for _, o := range g.Obsoleters(n) {
			if !visited[o.Tuple] {
				next = append(next, o)
			}
		}
		if len(next) == 0 {
			finals = append(finals, n)
			continue
		}
		via = append(via, n)
		for _, o := range next {
			visited[o.Tuple] = true
			queue = append(queue, o)
		}
	}
	return finals, via
}
