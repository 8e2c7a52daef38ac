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
	"fmt"

	pkg "github.com/rancher-sandbox/depsolve/internal/package"
)

// State is what a transaction member does to the system.
type State int

const (
	Install State = iota
	Update
	Erase
	Obsoleting
	Obsoleted
	Reinstall
	Downgrade
)

func (s State) String() string {
	switch s {
	case Install:
		return "install"
	case Update:
		return "update"
	case Erase:
		return "erase"
	case Obsoleting:
		return "obsoleting"
	case Obsoleted:
		return "obsoleted"
	case Reinstall:
		return "reinstall"
	case Downgrade:
		return "downgrade"
	}
	panic(fmt.Sprintf("solver: unknown member state %d", int(s)))
}

// Adds reports whether members in this state end up on the system.
func (s State) Adds() bool {
	switch s {
	case Install, Update, Obsoleting, Reinstall, Downgrade:
		return true
	case Erase, Obsoleted:
		return false
	}
	panic(fmt.Sprintf("solver: unknown member state %d", int(s)))
}

// replaces reports whether the related packages of a member in this state
// leave the system with it.
func (s State) replaces() bool {
	switch s {
	case Update, Downgrade:
		return true
	case Install, Obsoleting, Reinstall, Erase, Obsoleted:
		return false
	}
	panic(fmt.Sprintf("solver: unknown member state %d", int(s)))
}

// Member is one package of the transaction and what happens to it.
type Member struct {
	Pkg   *pkg.Pkg
	State State
	// RelatedTo holds, in insertion order, the installed packages an
	// update replaces, the packages an obsoleter obsoletes, or what caused an
	// erase or an obsoletion.
	RelatedTo []pkg.Tuple
	// Tasks are the ids of the tasks that brought the member in.
	Tasks []int
}

func (m *Member) addRelated(ts ...pkg.Tuple) {
	for _, t := range ts {
		if !containsTuple(m.RelatedTo, t) {
			m.RelatedTo = append(m.RelatedTo, t)
		}
	}
}

func (m *Member) addTasks(ids ...int) {
	for _, id := range ids {
		if !containsInt(m.Tasks, id) {
			m.Tasks = append(m.Tasks, id)
		}
	}
}

func (m *Member) String() string {
	return fmt.Sprintf("%s %s", m.State, m.Pkg)
}

// Transaction is the ordered set of members built by one resolution, keyed by
// NEVRA.
type Transaction struct {
	order   []pkg.Tuple
	members map[pkg.Tuple]*Member
	removed map[pkg.Tuple]bool
}

func NewTransaction() *Transaction {
	return &Transaction{
		members: map[pkg.Tuple]*Member{},
		removed: map[pkg.Tuple]bool{},
	}
}

// Get returns the member for t, or nil.
func (tx *Transaction) Get(t pkg.Tuple) *Member {
	return tx.members[t]
}

// Members returns the members in insertion order.
func (tx *Transaction) Members() []*Member {
	out := make([]*Member, 0, len(tx.order))
	for _, t := range tx.order {
		out = append(out, tx.members[t])
	}
	return out
}

// Len returns the number of members.
func (tx *Transaction) Len() int {
	return len(tx.order)
}

// IsRemoved reports whether the installed package t leaves the system.
func (tx *Transaction) IsRemoved(t pkg.Tuple) bool {
	return tx.removed[t]
}

// Removed returns the tuples leaving the system, in the order they were
// decided.
func (tx *Transaction) Removed() []pkg.Tuple {
	var out []pkg.Tuple
	seen := map[pkg.Tuple]bool{}
	for _, t := range tx.order {
		m := tx.members[t]
		var cands []pkg.Tuple
		if !m.State.Adds() {
			cands = []pkg.Tuple{t}
		} else if m.State.replaces() {
			cands = m.RelatedTo
		}
		for _, c := range cands {
			if tx.removed[c] && !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// add inserts a new member. The caller checks Get first.
func (tx *Transaction) add(m *Member) {
	if _, ok := tx.members[m.Pkg.Tuple]; ok {
		panic(fmt.Sprintf("solver: member %s added twice", m.Pkg))
	}
	tx.order = append(tx.order, m.Pkg.Tuple)
	tx.members[m.Pkg.Tuple] = m
	if !m.State.Adds() {
		tx.removed[m.Pkg.Tuple] = true
	}
	if m.State.replaces() {
		for _, t := range m.RelatedTo {
			tx.removed[t] = true
		}
	}
}

// relate records more related tuples on an existing member, keeping the
// removed set in sync.
func (tx *Transaction) relate(m *Member, ts ...pkg.Tuple) {
	m.addRelated(ts...)
	if m.State.replaces() {
		for _, t := range ts {
			tx.removed[t] = true
		}
	}
}

func containsTuple(ts []pkg.Tuple, t pkg.Tuple) bool {
	for _, o := range ts {
		if o == t {
			return true
		}
	}
	return false
}

func containsInt(is []int, i int) bool {
	for _, o := range is {
		if o == i {
			return true
		}
	}
	return false
}
