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
	"strings"

	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"

	pkg "github.com/rancher-sandbox/depsolve/internal/package"
)

// ResultCode is the outcome of a resolution.
type ResultCode string

const (
	// ResultOK: the transaction is not empty and nothing failed.
	ResultOK ResultCode = "ok"
	// ResultEmpty: nothing to do.
	ResultEmpty ResultCode = "empty"
	// ResultErr: at least one failure.
	ResultErr ResultCode = "err"
)

// Result is what a resolution returns to its caller.
type Result struct {
	Code        ResultCode
	Messages    []string
	Failures    []Failure
	Transaction *Transaction
	Tasks       []*Task
}

type Solver struct {
	PkgDB  *PkgDB             // DB containing packages
	Ctx    *ResolutionContext // resolution configuration
	Tx     *Transaction       // transaction of the last run
	Result *Result            // outcome of the last Solve
	graph  *ObsoletesGraph
	logger log.Logger

	// state of one run
	queue    []*reqBatch
	failures []Failure
	messages []string
	checked  map[pkg.Tuple]bool
	steps    int
}

// reqBatch holds the requirements of one new member, processed together so
// that provider selection can look at sibling requirements.
type reqBatch struct {
	member *Member
	reqs   []pkg.Relation
}

// New creates a new Solver over db.
func New(db *PkgDB, ctx *ResolutionContext, logger log.Logger) *Solver {
	return &Solver{
		PkgDB:  db,
		Ctx:    ctx,
		graph:  NewObsoletesGraph(db, ctx.Arches),
		logger: logger,
	}
}

// BuildTransaction resolves jobs against the installed and available sacks.
// The returned error is only about building the package database; resolution
// failures are part of the Result.
func BuildTransaction(jobs []Job, installed pkg.InstalledSack, available pkg.Sack,
	ctx *ResolutionContext, logger log.Logger) (*Result, error) {

	db, err := BuildPkgDB(ctx.Arches, installed, available)
	if err != nil {
		return nil, errors.Wrap(err, "building package database")
	}
	return New(db, ctx, logger).Solve(jobs), nil
}

// Solve resolves jobs. With skip-broken enabled, failed runs are followed by
// new runs over the largest set of tasks that avoids every failure seen so
// far. The number of retries is bounded by the number of tasks, which for an
// update of everything is one per installed name.arch rather than one per
// job.
func (s *Solver) Solve(jobs []Job) *Result {
	s.PkgDB.Seal()
	tasks := expandJobs(jobs, s.PkgDB)
	s.logger.Debugf("resolving %d jobs as %d tasks", len(jobs), len(tasks))

	sb := newSkipBroken(tasks)
	active := tasks
	for attempt := 0; ; attempt++ {
		res := s.run(active)
		res.Tasks = tasks
		if res.Code != ResultErr || !s.Ctx.SkipBroken || attempt >= len(tasks) {
			return s.finish(res, sb, active)
		}

		sb.addFailures(res.Failures)
		next, err := sb.keep()
		if err != nil {
			s.logger.Warnf("skip-broken: %s", err)
			return s.finish(res, sb, active)
		}
		if sameTasks(next, active) {
			return s.finish(res, sb, active)
		}
		s.logger.Debugf("skip-broken: retrying with %d of %d tasks", len(next), len(tasks))
		active = next
	}
}

// finish reports the tasks left out of the last run as skipped.
func (s *Solver) finish(res *Result, sb *skipBroken, active []*Task) *Result {
	kept := map[int]bool{}
	for _, t := range active {
		kept[t.ID] = true
	}
	var skipped []string
	for _, t := range res.Tasks {
		if kept[t.ID] {
			continue
		}
		t.State = TaskFailed
		msg := fmt.Sprintf("Skipping broken %s: %s", t.Job, strings.Join(sb.reasons[t.ID], "; "))
		s.logger.Info(msg)
		skipped = append(skipped, msg)
	}
	res.Messages = append(skipped, res.Messages...)
	s.Result = res
	return res
}

func sameTasks(a, b []*Task) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

func brokenTasks(failures []Failure) map[int]bool {
	broken := map[int]bool{}
	for _, f := range failures {
		for _, id := range f.Tasks {
			broken[id] = true
		}
	}
	return broken
}

// run is one resolution from scratch over tasks.
func (s *Solver) run(tasks []*Task) *Result {
	s.Tx = NewTransaction()
	s.queue = nil
	s.failures = nil
	s.messages = nil
	s.checked = map[pkg.Tuple]bool{}
	s.steps = 0

	for _, t := range tasks {
		t.State = TaskPending
		t.NoOp = false
	}
	for _, t := range tasks {
		t.State = TaskExpanding
		s.logger.Debugf("expanding task %s", t)
		s.expand(t)
	}
	s.converge()

	res := &Result{
		Transaction: s.Tx,
		Messages:    s.messages,
		Failures:    s.failures,
	}
	failed := brokenTasks(s.failures)
	for _, t := range tasks {
		if failed[t.ID] {
			t.State = TaskFailed
		} else {
			t.State = TaskResolved
		}
	}
	switch {
	case len(s.failures) > 0:
		res.Code = ResultErr
	case s.Tx.Len() > 0:
		res.Code = ResultOK
	default:
		res.Code = ResultEmpty
	}
	s.logger.Debugf("resolution finished: %s, %d members, %d failures", res.Code, s.Tx.Len(), len(s.failures))
	return res
}

// converge processes pending requirements, then removals and conflicts,
// until nothing changes.
func (s *Solver) converge() {
	for {
		for len(s.queue) > 0 {
			if s.overBudget() {
				return
			}
			b := s.queue[0]
			s.queue = s.queue[1:]
			s.processBatch(b)
		}
		if s.overBudget() {
			return
		}
		if s.checkRemovals() {
			continue
		}
		if s.checkConflicts() {
			continue
		}
		return
	}
}

func (s *Solver) overBudget() bool {
	s.steps++
	if s.steps <= s.Ctx.maxSteps() {
		return false
	}
	if len(s.queue) == 0 {
		s.fail(NoProgress, nil, "giving up after %d steps", s.Ctx.maxSteps())
	}
	for _, b := range s.queue {
		for _, req := range b.reqs {
			if !s.satisfied(req) {
				s.fail(NoProgress, b.member.Tasks, "giving up after %d steps: %s requires %s",
					s.Ctx.maxSteps(), b.member.Pkg, req)
			}
		}
	}
	s.queue = nil
	return true
}

func (s *Solver) fail(kind FailureKind, tasks []int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	for i := range s.failures {
		if s.failures[i].Message == msg {
			for _, id := range tasks {
				if !containsInt(s.failures[i].Tasks, id) {
					s.failures[i].Tasks = append(s.failures[i].Tasks, id)
				}
			}
			return
		}
	}
	s.logger.Debugf("failure (%s): %s", kind, msg)
	s.failures = append(s.failures, Failure{Kind: kind, Message: msg, Tasks: append([]int{}, tasks...)})
	s.messages = append(s.messages, msg)
}

func (s *Solver) noop(t *Task, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	t.NoOp = true
	s.logger.Debugf("task %s is a no-op: %s", t, msg)
	s.messages = append(s.messages, msg)
}

//
// name specs
//

func (s *Solver) match(spec string, pkgs []*pkg.Pkg) []*pkg.Pkg {
	var out []*pkg.Pkg
	for _, p := range pkgs {
		if pkg.MatchSpec(p, spec) != pkg.NoMatch {
			out = append(out, p)
		}
	}
	return out
}

// newestPerNA keeps the newest package of each name.arch, sorted by NEVRA.
func newestPerNA(pkgs []*pkg.Pkg) []*pkg.Pkg {
	best := map[string]*pkg.Pkg{}
	for _, p := range pkgs {
		if cur, ok := best[p.NA()]; !ok || pkg.VerGT(p.EVR(), cur.EVR()) {
			best[p.NA()] = p
		}
	}
	out := make([]*pkg.Pkg, 0, len(best))
	for _, p := range best {
		out = append(out, p)
	}
	sortPkgs(out)
	return out
}

// applyMultilib picks the arches to install for each name. An arch typed by
// the user is kept; otherwise installed arches of the name win, then the
// policy decides.
func (s *Solver) applyMultilib(spec string, cands []*pkg.Pkg) []*pkg.Pkg {
	byName := map[string][]*pkg.Pkg{}
	var names []string
	for _, c := range cands {
		if _, ok := byName[c.Name]; !ok {
			names = append(names, c.Name)
		}
		byName[c.Name] = append(byName[c.Name], c)
	}

	var out []*pkg.Pkg
	for _, name := range names {
		group := byName[name]
		if len(group) == 1 || archExplicit(spec, group[0]) {
			out = append(out, group...)
			continue
		}

		installedArches := map[string]bool{}
		for _, i := range s.PkgDB.InstalledByName(name) {
			installedArches[i.Arch] = true
		}
		var kept []*pkg.Pkg
		for _, c := range group {
			if installedArches[c.Arch] {
				kept = append(kept, c)
			}
		}
		switch {
		case len(kept) > 0:
		case s.Ctx.MultilibPolicy == MultilibAll:
			kept = group
		default:
			arches := make([]string, 0, len(group))
			for _, c := range group {
				arches = append(arches, c.Arch)
			}
			best := s.Ctx.Arches.Best(arches)
			for _, c := range group {
				if c.Arch == best {
					kept = append(kept, c)
				}
			}
		}
		s.logger.Debugf("multilib %s: %s keeps %v", s.Ctx.MultilibPolicy, name, kept)
		out = append(out, kept...)
	}
	return out
}

func archExplicit(spec string, p *pkg.Pkg) bool {
	switch pkg.MatchSpec(p, spec) {
	case pkg.MatchNameArch:
		return true
	case pkg.MatchVersion:
		return strings.HasSuffix(spec, "."+p.Arch)
	}
	return false
}

// obsoletersOfSpec finds available packages obsoleting a name ("name" or
// "name.arch") that no longer exists in the repositories.
func (s *Solver) obsoletersOfSpec(spec string) []*pkg.Pkg {
	try := func(name, arch string) []*pkg.Pkg {
		want := arch
		if want == "" {
			want = s.Ctx.Arches.Base
		}
		best := map[string]*pkg.Pkg{}
		for _, o := range s.PkgDB.ObsoletersOfName(name) {
			if arch != "" && o.Arch != arch && o.Arch != NoArch {
				continue
			}
			cur, ok := best[o.Name]
			if !ok || s.Ctx.Arches.Rank(o.Arch, want) < s.Ctx.Arches.Rank(cur.Arch, want) ||
				(o.Arch == cur.Arch && pkg.VerGT(o.EVR(), cur.EVR())) {
				best[o.Name] = o
			}
		}
		var out []*pkg.Pkg
		for _, o := range best {
			out = append(out, o)
		}
		sortPkgs(out)
		return out
	}
	if out := try(spec, ""); len(out) > 0 {
		return out
	}
	if i := strings.LastIndex(spec, "."); i > 0 {
		return try(spec[:i], spec[i+1:])
	}
	return nil
}

//
// job expansion
//

func (s *Solver) expand(t *Task) {
	switch t.Job.Kind {
	case JobInstall:
		s.expandInstall(t)
	case JobUpdate, JobUpgrade:
		s.expandUpdate(t)
	case JobErase:
		s.expandErase(t)
	case JobReinstall:
		s.expandReinstall(t)
	case JobDowngrade:
		s.expandDowngrade(t)
	default:
		panic(fmt.Sprintf("solver: unknown job kind %d", int(t.Job.Kind)))
	}
}

func (s *Solver) expandInstall(t *Task) {
	spec := t.Job.Spec
	cands := newestPerNA(s.match(spec, s.PkgDB.Available()))
	if len(cands) > 0 {
		cands = s.applyMultilib(spec, cands)
	}
	if len(cands) == 0 {
		if inst := s.match(spec, s.PkgDB.Installed()); len(inst) > 0 {
			for _, i := range inst {
				s.noop(t, "Package %s already installed and latest version", i)
			}
			return
		}
		cands = s.obsoletersOfSpec(spec)
	}
	if len(cands) == 0 {
		req, err := pkg.ParseRelation(spec)
		if err == nil {
			for _, p := range s.PkgDB.WhatProvides(req) {
				if s.isPresent(p) {
					s.noop(t, "%s is already provided by installed %s", spec, p)
					return
				}
			}
			if provs := s.providerCandidates(req); len(provs) > 0 {
				s.sortCandidates(provs, s.Ctx.Arches.Base, nil)
				s.logger.Debugf("%s matched as a capability, provided by %s", spec, provs[0])
				cands = provs[:1]
			}
		}
	}
	if len(cands) == 0 {
		s.fail(MalformedSpec, []int{t.ID}, "No package %s available.", spec)
		return
	}
	for _, c := range cands {
		s.installCandidate(t, c)
	}
}

func (s *Solver) installCandidate(t *Task, c *pkg.Pkg) {
	if inst := s.PkgDB.InstalledByTuple(c.Tuple); inst != nil && s.isPresent(inst) {
		s.noop(t, "Package %s already installed and latest version", inst)
		return
	}
	for _, o := range s.PkgDB.InstalledObsoletersOf(c) {
		if s.isPresent(o) {
			s.noop(t, "Package %s is obsoleted by %s which is already installed", c, o)
			return
		}
	}
	if !s.isInstallOnly(c) {
		for _, i := range s.installedUpdatable(c) {
			if !pkg.VerGT(c.EVR(), i.EVR()) {
				s.noop(t, "Package %s: a newer or equal version %s is already installed", c, i)
				return
			}
		}
	}

	if !s.Ctx.Obsoletes {
		s.addPackage(c, []int{t.ID})
		return
	}
	finals, via := s.graph.Chain(c)
	for _, f := range finals {
		if f != c {
			s.logger.Debugf("%s is obsoleted by %s, installing that instead", c, f)
		}
		s.addReplacement(f, via, []int{t.ID})
	}
}

func (s *Solver) expandUpdate(t *Task) {
	spec := t.Job.Spec
	targets := s.match(spec, s.PkgDB.Installed())
	if len(targets) == 0 {
		if len(s.match(spec, s.PkgDB.Available())) > 0 {
			s.noop(t, "Package(s) %s available, but not installed.", spec)
			return
		}
		s.fail(MalformedSpec, []int{t.ID}, "No package %s installed.", spec)
		return
	}
	before := s.Tx.Len()
	for _, i := range targets {
		s.updateInstalled(t, i)
	}
	if s.Tx.Len() == before {
		t.NoOp = true
		s.logger.Debugf("task %s: nothing to update", t)
	}
}

func (s *Solver) updateInstalled(t *Task, i *pkg.Pkg) {
	if m := s.Tx.Get(i.Tuple); m != nil && m.State == Erase {
		return
	}
	tasks := []int{t.ID}

	if s.Ctx.Obsoletes {
		if obs := s.graph.Obsoleters(i); len(obs) > 0 {
			for _, o := range obs {
				finals, via := s.graph.Chain(o)
				for _, f := range finals {
					s.logger.Debugf("%s is obsoleted by %s", i, f)
					s.addReplacement(f, via, tasks)
				}
			}
			return
		}
	}

	if s.isInstallOnly(i) {
		newest := newestPerNA(s.PkgDB.AvailableByName(i.Name))
		for _, n := range newest {
			if n.Arch != i.Arch || s.PkgDB.InstalledByTuple(n.Tuple) != nil {
				continue
			}
			newer := true
			for _, other := range s.PkgDB.InstalledByName(i.Name) {
				if !pkg.VerGT(n.EVR(), other.EVR()) {
					newer = false
				}
			}
			if newer {
				s.addPackage(n, tasks)
			}
		}
		return
	}

	if up := s.newestUpdate(i); up != nil {
		s.addPackage(up, tasks)
	}
}

func (s *Solver) expandErase(t *Task) {
	spec := t.Job.Spec
	targets := s.match(spec, s.PkgDB.Installed())
	if len(targets) == 0 {
		if req, err := pkg.ParseRelation(spec); err == nil {
			for _, p := range s.PkgDB.WhatProvides(req) {
				if p.IsInstalled() {
					targets = append(targets, p)
				}
			}
		}
	}
	if len(targets) == 0 {
		s.fail(MalformedSpec, []int{t.ID}, "No package %s installed.", spec)
		return
	}
	for _, i := range targets {
		s.addMember(i, Erase, nil, []int{t.ID})
	}
}

func (s *Solver) expandReinstall(t *Task) {
	spec := t.Job.Spec
	targets := s.match(spec, s.PkgDB.Installed())
	if len(targets) == 0 {
		s.fail(MalformedSpec, []int{t.ID}, "No package %s installed.", spec)
		return
	}
	for _, i := range targets {
		avail := s.PkgDB.AvailableByTuple(i.Tuple)
		if avail == nil {
			s.fail(MalformedSpec, []int{t.ID}, "Installed package %s not available.", i)
			continue
		}
		s.addMember(avail, Reinstall, []pkg.Tuple{i.Tuple}, []int{t.ID})
	}
}

func (s *Solver) expandDowngrade(t *Task) {
	spec := t.Job.Spec
	avail := s.match(spec, s.PkgDB.Available())
	targets := s.match(spec, s.PkgDB.Installed())
	if len(targets) == 0 {
		seen := map[pkg.Tuple]bool{}
		for _, a := range avail {
			for _, i := range s.PkgDB.InstalledByName(a.Name) {
				if i.Arch == a.Arch && !seen[i.Tuple] {
					seen[i.Tuple] = true
					targets = append(targets, i)
				}
			}
		}
	}
	if len(targets) == 0 {
		s.fail(MalformedSpec, []int{t.ID}, "No package %s installed.", spec)
		return
	}
	for _, i := range targets {
		var best *pkg.Pkg
		for _, a := range avail {
			if a.SameNA(i.Tuple) && pkg.VerLT(a.EVR(), i.EVR()) &&
				(best == nil || pkg.VerGT(a.EVR(), best.EVR())) {
				best = a
			}
		}
		if best == nil {
			s.noop(t, "Only Upgrade available on package: %s", i)
			continue
		}
		s.addMember(best, Downgrade, []pkg.Tuple{i.Tuple}, []int{t.ID})
	}
}

//
// transaction members
//

func (s *Solver) isInstallOnly(p *pkg.Pkg) bool {
	if s.Ctx.InstallOnly[p.Name] {
		return true
	}
	for _, prov := range p.Provides {
		if s.Ctx.InstallOnly[prov.Name] {
			return true
		}
	}
	return false
}

// isPresent reports whether p is on the system once the transaction as built
// so far is applied.
func (s *Solver) isPresent(p *pkg.Pkg) bool {
	if m := s.Tx.Get(p.Tuple); m != nil {
		return m.State.Adds()
	}
	return p.IsInstalled() && !s.Tx.IsRemoved(p.Tuple)
}

// PresentPackages returns what is on the system once the transaction of the
// last run is applied, sorted by NEVRA.
func (s *Solver) PresentPackages() []*pkg.Pkg {
	if s.Tx == nil {
		return nil
	}
	out := s.presentPkgs()
	sortPkgs(out)
	return out
}

// presentPkgs returns the packages on the system after the transaction:
// installed ones not removed, then new members in transaction order.
func (s *Solver) presentPkgs() []*pkg.Pkg {
	var out []*pkg.Pkg
	seen := map[pkg.Tuple]bool{}
	for _, i := range s.PkgDB.Installed() {
		if s.isPresent(i) {
			seen[i.Tuple] = true
			out = append(out, i)
		}
	}
	for _, m := range s.Tx.Members() {
		if m.State.Adds() && !seen[m.Pkg.Tuple] {
			seen[m.Pkg.Tuple] = true
			out = append(out, m.Pkg)
		}
	}
	return out
}

// installedUpdatable returns the present installed packages that p would
// replace as an update: same name, and same arch unless one side is noarch.
func (s *Solver) installedUpdatable(p *pkg.Pkg) []*pkg.Pkg {
	var out []*pkg.Pkg
	for _, i := range s.PkgDB.InstalledByName(p.Name) {
		if !s.isPresent(i) {
			continue
		}
		if i.Arch == p.Arch || i.Arch == NoArch || p.Arch == NoArch {
			out = append(out, i)
		}
	}
	return out
}

// newestUpdate returns the newest available package updating the installed
// package i, or nil.
func (s *Solver) newestUpdate(i *pkg.Pkg) *pkg.Pkg {
	var best *pkg.Pkg
	for _, a := range s.PkgDB.AvailableByName(i.Name) {
		if a.Arch != i.Arch && a.Arch != NoArch && i.Arch != NoArch {
			continue
		}
		if !pkg.VerGT(a.EVR(), i.EVR()) {
			continue
		}
		if best == nil {
			best = a
			continue
		}
		switch c := pkg.CompareEVR(a.EVR(), best.EVR()); {
		case c > 0:
			best = a
		case c == 0 && s.Ctx.Arches.Rank(a.Arch, i.Arch) < s.Ctx.Arches.Rank(best.Arch, i.Arch):
			best = a
		}
	}
	return best
}

// admissible tells why p cannot join the transaction as an install-like
// member, or "" when it can.
func (s *Solver) admissible(p *pkg.Pkg) string {
	if m := s.Tx.Get(p.Tuple); m != nil {
		if !m.State.Adds() {
			return fmt.Sprintf("%s is scheduled for %s", p, m.State)
		}
		return ""
	}
	if s.isInstallOnly(p) {
		return ""
	}
	for _, m := range s.Tx.Members() {
		if m.State.Adds() && m.State != Reinstall && m.Pkg.SameNA(p.Tuple) {
			return fmt.Sprintf("%s is already scheduled, cannot also install %s", m.Pkg, p)
		}
	}
	for _, i := range s.installedUpdatable(p) {
		if pkg.VerLT(p.EVR(), i.EVR()) {
			return fmt.Sprintf("%s is older than the installed %s", p, i)
		}
	}
	return ""
}

// addPackage schedules an available package, as an update of the installed
// packages of the same name.arch when there are some, as an install
// otherwise.
func (s *Solver) addPackage(p *pkg.Pkg, tasks []int) *Member {
	if p.IsInstalled() && s.isPresent(p) {
		return nil
	}
	state := Install
	var related []pkg.Tuple
	if !s.isInstallOnly(p) {
		for _, i := range s.installedUpdatable(p) {
			if pkg.VerGT(p.EVR(), i.EVR()) {
				state = Update
				related = append(related, i.Tuple)
			}
		}
	}
	return s.addMember(p, state, related, tasks)
}

// addMember adds or merges a member. For new install-like members the
// requirements are queued, obsoletes applied to the installed packages and
// the install-only limit enforced.
func (s *Solver) addMember(p *pkg.Pkg, state State, related []pkg.Tuple, tasks []int) *Member {
	if m := s.Tx.Get(p.Tuple); m != nil {
		if m.State.Adds() != state.Adds() {
			s.fail(Conflict, append(append([]int{}, m.Tasks...), tasks...),
				"%s cannot be scheduled for %s, it is already scheduled for %s", p, state, m.State)
			return nil
		}
		s.Tx.relate(m, related...)
		m.addTasks(tasks...)
		return m
	}
	if state == Install || state == Update || state == Obsoleting {
		if why := s.admissible(p); why != "" {
			s.fail(Conflict, tasks, "%s", why)
			return nil
		}
	}

	m := &Member{Pkg: p, State: state}
	m.addRelated(related...)
	m.addTasks(tasks...)
	s.Tx.add(m)
	s.logger.Debugf("transaction: %s %v", m, m.RelatedTo)

	if !state.Adds() {
		return m
	}
	var reqs []pkg.Relation
	for _, req := range p.Requires {
		if !req.IsRpmlib() {
			reqs = append(reqs, req)
		}
	}
	if len(reqs) > 0 {
		s.queue = append(s.queue, &reqBatch{member: m, reqs: reqs})
	}
	if s.Ctx.Obsoletes {
		s.applyObsoletes(m)
	}
	if s.isInstallOnly(p) {
		s.applyInstallOnlyLimit(m)
	}
	return m
}

// applyObsoletes marks the installed packages obsoleted by a new member.
func (s *Solver) applyObsoletes(m *Member) {
	s.obsoleteInstalled(m, m.Pkg)
}

// obsoleteInstalled marks the installed packages obsoleted by p as replaced
// by the member m. p is m's package, or a link of the obsoletes chain that
// ended with it.
func (s *Solver) obsoleteInstalled(m *Member, p *pkg.Pkg) {
	if len(p.Obsoletes) == 0 {
		return
	}
	for _, i := range s.PkgDB.Installed() {
		if i.Name == p.Name || i.Name == m.Pkg.Name || !p.ObsoletesPkg(i) {
			continue
		}
		s.markObsoleted(m, i)
	}
}

// markObsoleted records that the member m replaces the installed package i.
func (s *Solver) markObsoleted(m *Member, i *pkg.Pkg) {
	if existing := s.Tx.Get(i.Tuple); existing != nil {
		if existing.State != Obsoleted {
			return
		}
		s.Tx.relate(existing, m.Pkg.Tuple)
	} else {
		if s.Tx.IsRemoved(i.Tuple) {
			return
		}
		s.logger.Debugf("%s obsoletes installed %s", m.Pkg, i)
		if s.addMember(i, Obsoleted, []pkg.Tuple{m.Pkg.Tuple}, m.Tasks) == nil {
			return
		}
	}
	s.Tx.relate(m, i.Tuple)
	if m.State == Install {
		m.State = Obsoleting
	}
}

// addReplacement schedules f, the end of an obsoletes chain. The installed
// packages obsoleted by the links of the chain in via leave with f.
func (s *Solver) addReplacement(f *pkg.Pkg, via []*pkg.Pkg, tasks []int) *Member {
	m := s.addPackage(f, tasks)
	if m == nil || !m.State.Adds() {
		return m
	}
	for _, v := range via {
		if v.Tuple != f.Tuple {
			s.obsoleteInstalled(m, v)
		}
	}
	return m
}

// applyInstallOnlyLimit erases the oldest installed versions of an
// install-only package beyond the configured limit.
func (s *Solver) applyInstallOnlyLimit(m *Member) {
	limit := s.Ctx.InstallOnlyLimit
	if limit <= 0 {
		return
	}
	var installed []*pkg.Pkg
	for _, i := range s.PkgDB.InstalledByName(m.Pkg.Name) {
		if s.isPresent(i) {
			installed = append(installed, i)
		}
	}
	incoming := 0
	for _, o := range s.Tx.Members() {
		if o.State.Adds() && o.Pkg.Name == m.Pkg.Name && !o.Pkg.IsInstalled() {
			incoming++
		}
	}
	excess := len(installed) + incoming - limit
	if excess <= 0 {
		return
	}
	sort.SliceStable(installed, func(a, b int) bool {
		return pkg.VerLT(installed[a].EVR(), installed[b].EVR())
	})
	for _, i := range installed[:minInt(excess, len(installed))] {
		s.logger.Debugf("install-only limit %d: erasing %s", limit, i)
		s.addMember(i, Erase, []pkg.Tuple{m.Pkg.Tuple}, m.Tasks)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

//
// requirements
//

func (s *Solver) satisfied(req pkg.Relation) bool {
	if req.IsRpmlib() {
		return true
	}
	for _, p := range s.PkgDB.WhatProvides(req) {
		if s.isPresent(p) {
			return true
		}
	}
	return false
}

func (s *Solver) processBatch(b *reqBatch) {
	var pending []pkg.Relation
	for _, req := range b.reqs {
		if !s.satisfied(req) {
			pending = append(pending, req)
		}
	}
	for idx, req := range pending {
		if s.satisfied(req) {
			continue
		}
		var siblings []pkg.Relation
		for _, other := range pending[idx+1:] {
			if !s.satisfied(other) {
				siblings = append(siblings, other)
			}
		}
		s.resolveRequirement(b.member, req, siblings)
	}
}

// providerCandidates returns the available packages that could be added to
// satisfy req, newest per name.arch.
func (s *Solver) providerCandidates(req pkg.Relation) []*pkg.Pkg {
	var out []*pkg.Pkg
	for _, p := range s.PkgDB.WhatProvides(req) {
		if p.IsInstalled() {
			continue
		}
		if m := s.Tx.Get(p.Tuple); m != nil && !m.State.Adds() {
			continue
		}
		obsoleted := false
		for _, o := range s.PkgDB.InstalledObsoletersOf(p) {
			if s.isPresent(o) {
				obsoleted = true
			}
		}
		if !obsoleted {
			out = append(out, p)
		}
	}
	return newestPerNA(out)
}

// sortCandidates orders providers, best first:
//  1. already part of the transaction
//  2. satisfies more of the sibling requirements
//  3. newer version
//  4. arch closer to want
//  5. NEVRA
func (s *Solver) sortCandidates(cands []*pkg.Pkg, want string, siblings []pkg.Relation) {
	type key struct {
		inTx     bool
		siblings int
	}
	keys := map[*pkg.Pkg]key{}
	for _, c := range cands {
		k := key{}
		if m := s.Tx.Get(c.Tuple); m != nil && m.State.Adds() {
			k.inTx = true
		}
		for _, sib := range siblings {
			if c.Satisfies(sib) {
				k.siblings++
			}
		}
		keys[c] = k
	}
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		ka, kb := keys[a], keys[b]
		if ka.inTx != kb.inTx {
			return ka.inTx
		}
		if ka.siblings != kb.siblings {
			return ka.siblings > kb.siblings
		}
		if c := pkg.CompareEVR(a.EVR(), b.EVR()); c != 0 {
			return c > 0
		}
		if ra, rb := s.Ctx.Arches.Rank(a.Arch, want), s.Ctx.Arches.Rank(b.Arch, want); ra != rb {
			return ra < rb
		}
		return a.String() < b.String()
	})
}

// resolveRequirement adds a provider for req, on behalf of member m. The
// chosen provider goes through the obsoletes graph; when what replaces it
// no longer provides req the next provider is tried as well.
func (s *Solver) resolveRequirement(m *Member, req pkg.Relation, siblings []pkg.Relation) {
	cands := s.providerCandidates(req)
	if len(cands) == 0 {
		s.fail(UnresolvedRequirement, m.Tasks, "%s requires %s", m.Pkg, req)
		return
	}
	s.sortCandidates(cands, m.Pkg.Arch, siblings)

	var reasons []string
	for _, c := range cands {
		if why := s.admissible(c); why != "" {
			reasons = append(reasons, why)
			continue
		}
		finals, via := []*pkg.Pkg{c}, []*pkg.Pkg(nil)
		if s.Ctx.Obsoletes {
			finals, via = s.graph.Chain(c)
		}
		provided := false
		for _, f := range finals {
			if f != c {
				if why := s.admissible(f); why != "" {
					reasons = append(reasons, why)
					continue
				}
				s.logger.Debugf("provider %s of %s is obsoleted by %s", c, req, f)
			}
			s.addReplacement(f, via, m.Tasks)
			if f.Satisfies(req) {
				provided = true
			}
		}
		if provided {
			s.logger.Debugf("%s requires %s: selected %s", m.Pkg, req, c)
			return
		}
		s.logger.Debugf("%s requires %s: %s is replaced by a package not providing it, trying the next provider", m.Pkg, req, c)
	}
	msg := fmt.Sprintf("%s requires %s", m.Pkg, req)
	if len(reasons) > 0 {
		msg += " (" + strings.Join(reasons, "; ") + ")"
	}
	s.fail(UnresolvedRequirement, m.Tasks, "%s", msg)
}

//
// removals and conflicts
//

// removalCause returns the member responsible for the removal of t.
func (s *Solver) removalCause(t pkg.Tuple) *Member {
	if m := s.Tx.Get(t); m != nil && !m.State.Adds() {
		return m
	}
	for _, m := range s.Tx.Members() {
		if m.State.replaces() && containsTuple(m.RelatedTo, t) {
			return m
		}
	}
	return nil
}

// checkRemovals looks for present packages that lose a requirement through
// a removal decided so far, and repairs what it can. It reports whether the
// transaction changed.
func (s *Solver) checkRemovals() bool {
	progress := false
	for _, r := range s.Tx.Removed() {
		if s.checked[r] {
			continue
		}
		s.checked[r] = true
		removed := s.PkgDB.InstalledByTuple(r)
		cause := s.removalCause(r)
		if removed == nil || cause == nil {
			continue
		}
		for _, d := range s.presentPkgs() {
			for _, req := range d.Requires {
				if req.IsRpmlib() || !removed.Satisfies(req) || s.satisfied(req) {
					continue
				}
				if s.repairBroken(d, req, removed, cause) {
					progress = true
				}
			}
		}
	}
	return progress
}

func (s *Solver) repairBroken(d *pkg.Pkg, req pkg.Relation, removed *pkg.Pkg, cause *Member) bool {
	dm := s.Tx.Get(d.Tuple)
	tasks := append([]int{}, cause.Tasks...)
	if dm != nil {
		tasks = append(tasks, dm.Tasks...)
	}

	if cause.State == Erase {
		if dm == nil && d.IsInstalled() {
			s.logger.Debugf("erasing %s: requires %s from %s", d, req, removed)
			s.addMember(d, Erase, []pkg.Tuple{removed.Tuple}, cause.Tasks)
			return true
		}
		s.fail(UnresolvedRequirement, tasks, "%s requires %s, which is being erased with %s", d, req, removed)
		return false
	}

	if dm == nil && d.IsInstalled() {
		if up := s.newestUpdate(d); up != nil && !requiresRelation(up, req) && s.admissible(up) == "" {
			s.logger.Debugf("updating %s to %s: it requires %s from %s", d, up, req, removed)
			s.addPackage(up, cause.Tasks)
			return true
		}
	}

	if req.IsFile() {
		// an alternate provider of a file is not substituted here
		s.fail(UnresolvedRequirement, tasks, "%s requires %s, which is no longer provided once %s is replaced", d, req, removed)
		return false
	}

	cands := s.providerCandidates(req)
	s.sortCandidates(cands, d.Arch, nil)
	for _, c := range cands {
		if s.admissible(c) != "" || !c.Satisfies(req) {
			continue
		}
		s.logger.Debugf("pulling in %s: %s requires %s, no longer provided by %s", c, d, req, removed)
		s.addPackage(c, tasks)
		return true
	}
	s.fail(UnresolvedRequirement, tasks, "%s requires %s, which is no longer provided once %s is replaced", d, req, removed)
	return false
}

func requiresRelation(p *pkg.Pkg, req pkg.Relation) bool {
	for _, r := range p.Requires {
		if r == req {
			return true
		}
	}
	return false
}

// checkConflicts verifies that no two packages on the resulting system
// conflict, unless both were already installed untouched. A conflict with
// an untouched installed package is repaired by updating it when possible.
// It reports whether the transaction changed.
func (s *Solver) checkConflicts() bool {
	progress := false
	reported := map[string]bool{}
	for _, x := range s.presentPkgs() {
		for _, c := range x.Conflicts {
			if !s.isPresent(x) {
				break
			}
			for _, y := range s.PkgDB.WhatProvides(c) {
				if y.Tuple == x.Tuple || !s.isPresent(y) {
					continue
				}
				xm, ym := s.Tx.Get(x.Tuple), s.Tx.Get(y.Tuple)
				if xm == nil && ym == nil {
					continue
				}
				if ym == nil && s.updateAway(y, x) {
					progress = true
					continue
				}
				if xm == nil && s.updateAway(x, y) {
					progress = true
					continue
				}

				pair := []string{x.String(), y.String()}
				sort.Strings(pair)
				key := strings.Join(pair, " ")
				if reported[key] {
					continue
				}
				reported[key] = true

				var tasks []int
				if xm != nil {
					tasks = append(tasks, xm.Tasks...)
				}
				if ym != nil {
					tasks = append(tasks, ym.Tasks...)
				}
				if common := s.commonObsoleted(xm, ym); common != nil {
					s.fail(AmbiguousObsoletion, tasks, "%s and %s both obsolete %s and conflict with each other", x, y, common)
					continue
				}
				s.fail(Conflict, tasks, "%s conflicts with %s", x, y)
			}
		}
	}
	return progress
}

// updateAway updates the untouched installed package i to a version that no
// longer conflicts with p.
func (s *Solver) updateAway(i, p *pkg.Pkg) bool {
	if !i.IsInstalled() {
		return false
	}
	up := s.newestUpdate(i)
	if up == nil || s.admissible(up) != "" {
		return false
	}
	if _, bad := up.ConflictsWith(p); bad {
		return false
	}
	if _, bad := p.ConflictsWith(up); bad {
		return false
	}
	var tasks []int
	if m := s.Tx.Get(p.Tuple); m != nil {
		tasks = m.Tasks
	}
	s.logger.Debugf("updating %s to %s to resolve a conflict with %s", i, up, p)
	return s.addPackage(up, tasks) != nil
}

func (s *Solver) commonObsoleted(a, b *Member) *pkg.Tuple {
	if a == nil || b == nil {
		return nil
	}
	for _, t := range a.RelatedTo {
		if !containsTuple(b.RelatedTo, t) {
			continue
		}
		if m := s.Tx.Get(t); m != nil && m.State == Obsoleted {
			t := t
			return &t
		}
	}
	return nil
}
