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
	"sort"
	"strconv"

	"github.com/crillab/gophersat/maxsat"
	"github.com/pkg/errors"
)

// skipBroken chooses the tasks to keep after failed runs. Each failure asks
// for at least one of its tasks to be dropped; as few tasks as possible are
// dropped, and among sets of the same size the later tasks go first.
type skipBroken struct {
	tasks []*Task
	// failure task sets, keyed by their sorted ids
	clauses map[string][]int
	// task id -> messages of the failures it took part in
	reasons map[int][]string
}

func newSkipBroken(tasks []*Task) *skipBroken {
	return &skipBroken{
		tasks:   tasks,
		clauses: map[string][]int{},
		reasons: map[int][]string{},
	}
}

func taskVar(id int) string {
	return "task" + strconv.Itoa(id)
}

func (sb *skipBroken) addFailures(failures []Failure) {
	for _, f := range failures {
		if len(f.Tasks) == 0 {
			continue
		}
		ids := append([]int{}, f.Tasks...)
		sort.Ints(ids)
		sb.clauses[fmt.Sprint(ids)] = ids
		for _, id := range ids {
			if !containsString(sb.reasons[id], f.Message) {
				sb.reasons[id] = append(sb.reasons[id], f.Message)
			}
		}
	}
}

// keep solves the weighted MaxSAT problem over the task variables: hard
// clauses drop one task of each failure, soft clauses keep each task. The
// weights make any set with fewer dropped tasks cheaper, then favour keeping
// earlier tasks.
func (sb *skipBroken) keep() ([]*Task, error) {
	n := len(sb.tasks)
	keys := make([]string, 0, len(sb.clauses))
	for k := range sb.clauses {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	constrs := []maxsat.Constr{}
	for _, k := range keys {
		var lits []maxsat.Lit
		for _, id := range sb.clauses[k] {
			lits = append(lits, maxsat.Not(taskVar(id)))
		}
		constrs = append(constrs, maxsat.HardClause(lits...))
	}
	for i, t := range sb.tasks {
		weight := n*n + n - i
		constrs = append(constrs, maxsat.WeightedClause([]maxsat.Lit{maxsat.Var(taskVar(t.ID))}, weight))
	}

	model, _ := maxsat.New(constrs...).Solve()
	if model == nil {
		return nil, errors.New("no set of tasks avoids the failures")
	}
	var out []*Task
	for _, t := range sb.tasks {
		if model[taskVar(t.ID)] {
			out = append(out, t)
		}
	}
	return out, nil
}

func containsString(ss []string, s string) bool {
	for _, o := range ss {
		if o == s {
			return true
		}
	}
	return false
}
