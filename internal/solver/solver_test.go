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
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"testing"

	"github.com/Masterminds/log-go"
	logcli "github.com/Masterminds/log-go/impl/cli"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkg "github.com/rancher-sandbox/depsolve/internal/package"
)

func newTestLogger() (log.Logger, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	logger := logcli.NewStandard()
	logger.InfoOut = buf
	logger.WarnOut = buf
	logger.ErrorOut = buf
	logger.DebugOut = buf
	logger.Level = log.DebugLevel
	return logger, buf
}

// mock builds a package from a NEVRA and relations prefixed with P: (provides),
// R: (requires), O: (obsoletes), C: (conflicts) or F: (files).
func mock(variant pkg.Variant, nevra string, rels ...string) *pkg.Pkg {
	p := pkg.NewPkgMock(nil, nevra, variant, nil, nil, nil, nil, nil)
	for _, r := range rels {
		val := r[2:]
		switch r[:2] {
		case "P:":
			p.AddProvides(pkg.MustParseRelation(val))
		case "R:":
			p.AddRequires(pkg.MustParseRelation(val))
		case "O:":
			p.AddObsoletes(pkg.MustParseRelation(val))
		case "C:":
			p.AddConflicts(pkg.MustParseRelation(val))
		case "F:":
			p.AddFiles(val)
		default:
			panic("bad relation " + r)
		}
	}
	return p
}

func inst(nevra string, rels ...string) *pkg.Pkg  { return mock(pkg.Installed, nevra, rels...) }
func avail(nevra string, rels ...string) *pkg.Pkg { return mock(pkg.Available, nevra, rels...) }

func resolve(t *testing.T, ctx *ResolutionContext, installed, available []*pkg.Pkg, jobs ...Job) *Solver {
	t.Helper()
	logger, _ := newTestLogger()
	db := NewPkgDB(ctx.Arches)
	for _, p := range installed {
		require.NoError(t, db.Add(p))
	}
	for _, p := range available {
		require.NoError(t, db.Add(p))
	}
	s := New(db, ctx, logger)
	s.Solve(jobs)
	return s
}

func members(res *Result) []string {
	out := []string{}
	for _, m := range res.Transaction.Members() {
		out = append(out, m.String())
	}
	return out
}

func present(s *Solver) []string {
	out := []string{}
	for _, p := range s.PresentPackages() {
		out = append(out, p.String())
	}
	sort.Strings(out)
	return out
}

func failureKinds(res *Result) []FailureKind {
	var out []FailureKind
	for _, f := range res.Failures {
		out = append(out, f.Kind)
	}
	return out
}

func install(specs ...string) []Job { return NewJobs(JobInstall, specs...) }

func TestSolver(t *testing.T) {
	for _, tcase := range []struct {
		name      string
		ctx       func() *ResolutionContext
		installed []*pkg.Pkg
		available []*pkg.Pkg
		jobs      []Job
		code      ResultCode
		members   []string
		present   []string
		failures  []FailureKind
	}{
		{
			name: "empty world",
			jobs: NewJobs(JobUpgrade),
			code: ResultEmpty,
		},
		{
			name: "one provider covering all requirements wins",
			available: []*pkg.Pkg{
				avail("A-1-1.noarch", "R:LibB", "R:LibC", "R:LibD"),
				avail("B-1-1.noarch", "P:LibB"),
				avail("C-1-1.noarch", "P:LibC"),
				avail("D-1-1.noarch", "P:LibD"),
				avail("BCD-1-1.noarch", "P:LibB", "P:LibC", "P:LibD"),
			},
			jobs:    install("A"),
			code:    ResultOK,
			members: []string{"install A-1-1.noarch", "install BCD-1-1.noarch"},
			present: []string{"A-1-1.noarch", "BCD-1-1.noarch"},
		},
		{
			name: "mutual obsoletes with both names installed update both",
			installed: []*pkg.Pkg{
				inst("ccc-1-1.noarch"),
				inst("ddd-1-1.noarch"),
			},
			available: []*pkg.Pkg{
				avail("ccc-2-1.noarch", "O:ddd < 2"),
				avail("ddd-2-1.noarch", "O:ccc < 2"),
			},
			jobs:    NewJobs(JobUpgrade),
			code:    ResultOK,
			members: []string{"update ddd-2-1.noarch", "obsoleted ccc-1-1.noarch", "install ccc-2-1.noarch"},
			present: []string{"ccc-2-1.noarch", "ddd-2-1.noarch"},
		},
		{
			name:      "obsoletes chain replaces the installed package",
			installed: []*pkg.Pkg{inst("zed-1-1.noarch")},
			available: []*pkg.Pkg{
				avail("why-1-1.noarch", "O:zed"),
				avail("ex-1-1.noarch", "O:why"),
			},
			jobs:    NewJobs(JobUpgrade),
			code:    ResultOK,
			members: []string{"obsoleting ex-1-1.noarch", "obsoleted zed-1-1.noarch"},
			present: []string{"ex-1-1.noarch"},
		},
		{
			name:      "install at the start of an obsoletes chain",
			installed: []*pkg.Pkg{inst("zed-1-1.noarch")},
			available: []*pkg.Pkg{
				avail("why-1-1.noarch", "O:zed"),
				avail("ex-1-1.noarch", "O:why"),
			},
			jobs:    install("why"),
			code:    ResultOK,
			members: []string{"obsoleting ex-1-1.noarch", "obsoleted zed-1-1.noarch"},
			present: []string{"ex-1-1.noarch"},
		},
		{
			name: "obsoleter of an installed name updates it",
			installed: []*pkg.Pkg{
				inst("foo-1-1.noarch"),
				inst("bar-1-1.noarch"),
			},
			available: []*pkg.Pkg{avail("bar-2-1.noarch", "O:foo")},
			jobs:      NewJobs(JobUpdate, "foo"),
			code:      ResultOK,
			members:   []string{"update bar-2-1.noarch", "obsoleted foo-1-1.noarch"},
			present:   []string{"bar-2-1.noarch"},
		},
		{
			name: "obsoletes disabled",
			ctx: func() *ResolutionContext {
				ctx := MustResolutionContext("x86_64")
				ctx.Obsoletes = false
				return ctx
			},
			installed: []*pkg.Pkg{inst("foo-1-1.noarch")},
			available: []*pkg.Pkg{avail("bar-1-1.noarch", "O:foo")},
			jobs:      install("bar"),
			code:      ResultOK,
			members:   []string{"install bar-1-1.noarch"},
			present:   []string{"bar-1-1.noarch", "foo-1-1.noarch"},
		},
		{
			name:      "update with obsoletes disabled ignores obsoleters",
			ctx: func() *ResolutionContext {
				ctx := MustResolutionContext("x86_64")
				ctx.Obsoletes = false
				return ctx
			},
			installed: []*pkg.Pkg{inst("foo-1-1.noarch")},
			available: []*pkg.Pkg{avail("bar-1-1.noarch", "O:foo")},
			jobs:      NewJobs(JobUpdate, "foo"),
			code:      ResultEmpty,
			members:   []string{},
		},
		{
			name: "obsoleted provider not providing the capability",
			available: []*pkg.Pkg{
				avail("app-1-1.noarch", "R:cap"),
				avail("xxx-1-1.noarch", "P:cap"),
				avail("yyy-1-1.noarch", "O:xxx"),
				avail("zzz-1-1.noarch", "P:cap"),
			},
			jobs:    install("app"),
			code:    ResultOK,
			members: []string{"install app-1-1.noarch", "install yyy-1-1.noarch", "install zzz-1-1.noarch"},
			present: []string{"app-1-1.noarch", "yyy-1-1.noarch", "zzz-1-1.noarch"},
		},
		{
			name:      "targeted update with conflicting obsoleters",
			installed: []*pkg.Pkg{inst("foo-1-1.noarch")},
			available: []*pkg.Pkg{
				avail("bar-1-1.noarch", "O:foo", "C:baz"),
				avail("baz-1-1.noarch", "O:foo"),
			},
			jobs:     NewJobs(JobUpdate, "foo"),
			code:     ResultErr,
			failures: []FailureKind{AmbiguousObsoletion},
		},
		{
			name:      "conflicting obsoleters of one package",
			installed: []*pkg.Pkg{inst("foo-1-1.noarch")},
			available: []*pkg.Pkg{
				avail("bar-1-1.noarch", "O:foo", "C:baz"),
				avail("baz-1-1.noarch", "O:foo"),
			},
			jobs:     NewJobs(JobUpgrade),
			code:     ResultErr,
			failures: []FailureKind{AmbiguousObsoletion},
		},
		{
			name:      "installing an obsoleted package is a no-op",
			installed: []*pkg.Pkg{inst("zsh-ng-2-1.x86_64", "O:zsh")},
			available: []*pkg.Pkg{avail("zsh-1-1.x86_64")},
			jobs:      install("zsh"),
			code:      ResultEmpty,
			members:   []string{},
			present:   []string{"zsh-ng-2-1.x86_64"},
		},
		{
			name: "install name.arch of an obsoleted package picks the matching obsoleter",
			available: []*pkg.Pkg{
				avail("zsh-1-1.x86_64"),
				avail("zsh-ng-2-1.i386", "O:zsh"),
				avail("zsh-ng-2-1.x86_64", "O:zsh"),
			},
			jobs:    install("zsh.x86_64"),
			code:    ResultOK,
			members: []string{"install zsh-ng-2-1.x86_64"},
			present: []string{"zsh-ng-2-1.x86_64"},
		},
		{
			name: "file requirement lost through obsoletes",
			installed: []*pkg.Pkg{
				inst("R-1-1.noarch", "R:/usr/bin/tool"),
				inst("P-1-1.noarch", "F:/usr/bin/tool"),
			},
			available: []*pkg.Pkg{
				avail("Q-1-1.noarch", "O:P"),
				avail("Alt-1-1.noarch", "F:/usr/bin/tool"),
			},
			jobs:     install("Q"),
			code:     ResultErr,
			failures: []FailureKind{UnresolvedRequirement},
		},
		{
			name: "capability lost through obsoletes is provided again",
			installed: []*pkg.Pkg{
				inst("R-1-1.noarch", "R:tool"),
				inst("P-1-1.noarch", "P:tool"),
			},
			available: []*pkg.Pkg{
				avail("Q-1-1.noarch", "O:P"),
				avail("Alt-1-1.noarch", "P:tool"),
			},
			jobs:    install("Q"),
			code:    ResultOK,
			members: []string{"obsoleting Q-1-1.noarch", "obsoleted P-1-1.noarch", "install Alt-1-1.noarch"},
			present: []string{"Alt-1-1.noarch", "Q-1-1.noarch", "R-1-1.noarch"},
		},
		{
			name: "erase cascades to dependents",
			installed: []*pkg.Pkg{
				inst("A-1-1.noarch", "R:B"),
				inst("B-1-1.noarch"),
				inst("C-1-1.noarch"),
			},
			jobs:    NewJobs(JobErase, "B"),
			code:    ResultOK,
			members: []string{"erase B-1-1.noarch", "erase A-1-1.noarch"},
			present: []string{"C-1-1.noarch"},
		},
		{
			name:      "requirement forces an update",
			installed: []*pkg.Pkg{inst("foo-1-1.x86_64")},
			available: []*pkg.Pkg{
				avail("foo-2-1.x86_64"),
				avail("X-1-1.x86_64", "R:foo >= 2"),
			},
			jobs:    install("X"),
			code:    ResultOK,
			members: []string{"install X-1-1.x86_64", "update foo-2-1.x86_64"},
			present: []string{"X-1-1.x86_64", "foo-2-1.x86_64"},
		},
		{
			name: "install-only limit erases the oldest",
			ctx: func() *ResolutionContext {
				ctx := MustResolutionContext("x86_64")
				ctx.InstallOnlyLimit = 2
				return ctx
			},
			installed: []*pkg.Pkg{
				inst("kernel-1-1.x86_64"),
				inst("kernel-2-1.x86_64"),
			},
			available: []*pkg.Pkg{avail("kernel-3-1.x86_64")},
			jobs:      NewJobs(JobUpdate, "kernel"),
			code:      ResultOK,
			members:   []string{"install kernel-3-1.x86_64", "erase kernel-1-1.x86_64"},
			present:   []string{"kernel-2-1.x86_64", "kernel-3-1.x86_64"},
		},
		{
			name:      "conflict with an installed package updates it away",
			installed: []*pkg.Pkg{inst("old-1-1.noarch")},
			available: []*pkg.Pkg{
				avail("old-2-1.noarch"),
				avail("new-1-1.noarch", "C:old < 2"),
			},
			jobs:    install("new"),
			code:    ResultOK,
			members: []string{"install new-1-1.noarch", "update old-2-1.noarch"},
			present: []string{"new-1-1.noarch", "old-2-1.noarch"},
		},
		{
			name:      "conflict with an installed package without update",
			installed: []*pkg.Pkg{inst("old-1-1.noarch")},
			available: []*pkg.Pkg{avail("new-1-1.noarch", "C:old < 2")},
			jobs:      install("new"),
			code:      ResultErr,
			failures:  []FailureKind{Conflict},
		},
		{
			name:      "reinstall",
			installed: []*pkg.Pkg{inst("foo-2-1.noarch")},
			available: []*pkg.Pkg{avail("foo-1-1.noarch"), avail("foo-2-1.noarch")},
			jobs:      NewJobs(JobReinstall, "foo"),
			code:      ResultOK,
			members:   []string{"reinstall foo-2-1.noarch"},
			present:   []string{"foo-2-1.noarch"},
		},
		{
			name:      "downgrade",
			installed: []*pkg.Pkg{inst("foo-2-1.noarch")},
			available: []*pkg.Pkg{avail("foo-1-1.noarch"), avail("foo-2-1.noarch")},
			jobs:      NewJobs(JobDowngrade, "foo"),
			code:      ResultOK,
			members:   []string{"downgrade foo-1-1.noarch"},
			present:   []string{"foo-1-1.noarch"},
		},
		{
			name:      "downgrade without older version",
			installed: []*pkg.Pkg{inst("foo-1-1.noarch")},
			available: []*pkg.Pkg{avail("foo-1-1.noarch")},
			jobs:      NewJobs(JobDowngrade, "foo"),
			code:      ResultEmpty,
			members:   []string{},
		},
		{
			name:     "unknown package",
			jobs:     install("nothere"),
			code:     ResultErr,
			failures: []FailureKind{MalformedSpec},
		},
		{
			name:      "missing requirement",
			available: []*pkg.Pkg{avail("bad-1-1.noarch", "R:missing")},
			jobs:      install("bad"),
			code:      ResultErr,
			failures:  []FailureKind{UnresolvedRequirement},
		},
		{
			name: "step budget",
			ctx: func() *ResolutionContext {
				ctx := MustResolutionContext("x86_64")
				ctx.MaxSteps = 1
				return ctx
			},
			available: []*pkg.Pkg{
				avail("a-1-1.noarch", "R:b"),
				avail("b-1-1.noarch", "R:c"),
				avail("c-1-1.noarch"),
			},
			jobs:     install("a"),
			code:     ResultErr,
			failures: []FailureKind{NoProgress},
		},
	} {
		t.Run(tcase.name, func(t *testing.T) {
			is := assert.New(t)
			ctx := MustResolutionContext("x86_64")
			if tcase.ctx != nil {
				ctx = tcase.ctx()
			}
			s := resolve(t, ctx, tcase.installed, tcase.available, tcase.jobs...)
			is.Equal(tcase.code, s.Result.Code, "messages: %v failures: %v", s.Result.Messages, s.Result.Failures)
			if tcase.members != nil {
				is.Equal(tcase.members, members(s.Result))
			}
			if tcase.present != nil {
				is.Equal(tcase.present, present(s))
			}
			is.Equal(tcase.failures, failureKinds(s.Result))
		})
	}
}

// Every combination of arches between an installed package and its single
// obsoleter ends with the obsoleter installed.
func TestObsoletesAcrossArches(t *testing.T) {
	arches := []string{"noarch", "i386", "x86_64"}
	for _, ia := range arches {
		for _, oa := range arches {
			t.Run(ia+"/"+oa, func(t *testing.T) {
				is := assert.New(t)
				s := resolve(t, MustResolutionContext("x86_64"),
					[]*pkg.Pkg{inst("foo-1-1." + ia)},
					[]*pkg.Pkg{avail("bar-2-1."+oa, "O:foo")},
					NewJobs(JobUpdate)...)
				is.Equal(ResultOK, s.Result.Code)
				is.Equal([]string{"obsoleting bar-2-1." + oa, "obsoleted foo-1-1." + ia}, members(s.Result))
				is.Equal([]string{"bar-2-1." + oa}, present(s))
			})
		}
	}

	t.Run("multilib obsoleter of a noarch package", func(t *testing.T) {
		is := assert.New(t)
		ctx := MustResolutionContext("x86_64")
		ctx.MultilibPolicy = MultilibAll
		s := resolve(t, ctx,
			[]*pkg.Pkg{inst("foo-1-1.noarch")},
			[]*pkg.Pkg{avail("bar-2-1.i386", "O:foo"), avail("bar-2-1.x86_64", "O:foo")},
			NewJobs(JobUpdate)...)
		is.Equal(ResultOK, s.Result.Code)
		is.Equal([]string{"bar-2-1.x86_64"}, present(s))
	})

	t.Run("multilib obsoleters of multilib packages", func(t *testing.T) {
		is := assert.New(t)
		ctx := MustResolutionContext("x86_64")
		ctx.MultilibPolicy = MultilibAll
		s := resolve(t, ctx,
			[]*pkg.Pkg{inst("foo-1-1.i386"), inst("foo-1-1.x86_64")},
			[]*pkg.Pkg{avail("bar-2-1.i386", "O:foo"), avail("bar-2-1.x86_64", "O:foo")},
			NewJobs(JobUpdate)...)
		is.Equal(ResultOK, s.Result.Code)
		is.Equal([]string{"bar-2-1.i386", "bar-2-1.x86_64"}, present(s))
	})
}

func TestNameSpecs(t *testing.T) {
	available := []*pkg.Pkg{
		avail("foo-1-1.x86_64"),
		avail("foo-2-1.x86_64"),
		avail("foo-2-1.i386"),
		avail("libbar-1-1.x86_64", "P:libbar.so.1"),
	}
	for _, tcase := range []struct {
		spec    string
		policy  MultilibPolicy
		members []string
	}{
		{spec: "foo", members: []string{"install foo-2-1.x86_64"}},
		{spec: "foo-1", members: []string{"install foo-1-1.x86_64"}},
		{spec: "foo.i386", members: []string{"install foo-2-1.i386"}},
		{spec: "fo*", members: []string{"install foo-2-1.x86_64"}},
		{spec: "libbar.so.1", members: []string{"install libbar-1-1.x86_64"}},
		{spec: "foo", policy: MultilibAll, members: []string{"install foo-2-1.i386", "install foo-2-1.x86_64"}},
	} {
		t.Run(tcase.spec+"/"+string(tcase.policy), func(t *testing.T) {
			is := assert.New(t)
			ctx := MustResolutionContext("x86_64")
			if tcase.policy != "" {
				ctx.MultilibPolicy = tcase.policy
			}
			s := resolve(t, ctx, nil, available, install(tcase.spec)...)
			is.Equal(ResultOK, s.Result.Code)
			is.Equal(tcase.members, members(s.Result))
		})
	}
}

func TestSkipBroken(t *testing.T) {
	is := assert.New(t)
	available := []*pkg.Pkg{
		avail("good-1-1.noarch"),
		avail("bad-1-1.noarch", "R:missing"),
	}

	s := resolve(t, MustResolutionContext("x86_64"), nil, available, install("good", "bad")...)
	is.Equal(ResultErr, s.Result.Code)
	is.Equal("bad-1-1.noarch requires missing", s.Result.Failures[0].Message)
	is.Equal([]int{2}, s.Result.Failures[0].Tasks)

	ctx := MustResolutionContext("x86_64")
	ctx.SkipBroken = true
	s = resolve(t, ctx, nil, available, install("good", "bad")...)
	is.Equal(ResultOK, s.Result.Code)
	is.Equal([]string{"install good-1-1.noarch"}, members(s.Result))
	is.Len(s.Result.Messages, 1)
	is.True(strings.HasPrefix(s.Result.Messages[0], "Skipping broken install bad"))
	is.Equal(TaskResolved, s.Result.Tasks[0].State)
	is.Equal(TaskFailed, s.Result.Tasks[1].State)
}

func TestSkipBrokenConflict(t *testing.T) {
	is := assert.New(t)
	available := []*pkg.Pkg{
		avail("a-1-1.noarch", "C:b"),
		avail("b-1-1.noarch"),
		avail("c-1-1.noarch"),
	}

	s := resolve(t, MustResolutionContext("x86_64"), nil, available, install("a", "b", "c")...)
	is.Equal(ResultErr, s.Result.Code)
	is.Equal([]FailureKind{Conflict}, failureKinds(s.Result))
	is.Equal([]int{1, 2}, s.Result.Failures[0].Tasks)

	ctx := MustResolutionContext("x86_64")
	ctx.SkipBroken = true
	s = resolve(t, ctx, nil, available, install("a", "b", "c")...)
	is.Equal(ResultOK, s.Result.Code)
	is.Equal([]string{"install a-1-1.noarch", "install c-1-1.noarch"}, members(s.Result))
	is.Equal([]string{"Skipping broken install b: a-1-1.noarch conflicts with b-1-1.noarch"}, s.Result.Messages)
	is.Equal(TaskResolved, s.Result.Tasks[0].State)
	is.Equal(TaskFailed, s.Result.Tasks[1].State)
	is.Equal(TaskResolved, s.Result.Tasks[2].State)
}

func TestSkipBrokenKeepsMost(t *testing.T) {
	is := assert.New(t)
	// dropping a alone clears both conflicts
	available := []*pkg.Pkg{
		avail("a-1-1.noarch", "C:b", "C:c"),
		avail("b-1-1.noarch"),
		avail("c-1-1.noarch"),
	}
	ctx := MustResolutionContext("x86_64")
	ctx.SkipBroken = true
	s := resolve(t, ctx, nil, available, install("a", "b", "c")...)
	is.Equal(ResultOK, s.Result.Code)
	is.Equal([]string{"install b-1-1.noarch", "install c-1-1.noarch"}, members(s.Result))
	is.Len(s.Result.Messages, 1)
	is.True(strings.HasPrefix(s.Result.Messages[0], "Skipping broken install a"))
}

func TestSolveIsIdempotent(t *testing.T) {
	is := assert.New(t)
	installed := []*pkg.Pkg{inst("ccc-1-1.noarch"), inst("ddd-1-1.noarch")}
	available := []*pkg.Pkg{
		avail("ccc-2-1.noarch", "O:ddd < 2"),
		avail("ddd-2-1.noarch", "O:ccc < 2"),
		avail("eee-1-1.noarch", "R:ccc"),
	}
	jobs := append(NewJobs(JobUpgrade), install("eee")...)

	s := resolve(t, MustResolutionContext("x86_64"), installed, available, jobs...)
	first := members(s.Result)
	s.Solve(jobs)
	if diff := cmp.Diff(first, members(s.Result)); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}

	fresh := resolve(t, MustResolutionContext("x86_64"), installed, available, jobs...)
	is.Equal(first, members(fresh.Result))
}

func TestPkgDB(t *testing.T) {
	is := assert.New(t)
	arches, err := NewArches("x86_64", nil)
	is.NoError(err)

	db := NewPkgDB(arches)
	is.NoError(db.Add(avail("foo-1-1.x86_64", "P:libfoo")))
	is.NoError(db.Add(avail("foo-1-1.ppc64")))
	is.Error(db.Add(avail("foo-1-1.x86_64")))
	is.NoError(db.Add(inst("foo-1-1.x86_64", "P:libfoo-installed")))
	is.Error(db.Add(inst("foo-1-1.x86_64")))
	db.Seal()
	is.Panics(func() { _ = db.Add(avail("bar-1-1.x86_64")) })

	is.Len(db.Available(), 1, "incompatible arches are left out")
	is.True(db.IsNameInstalled("foo"))

	// the installed copy of a NEVRA answers for both copies
	is.Empty(db.WhatProvides(pkg.MustParseRelation("libfoo")))
	provs := db.WhatProvides(pkg.MustParseRelation("libfoo-installed"))
	require.Len(t, provs, 1)
	is.True(provs[0].IsInstalled())
	provs = db.WhatProvides(pkg.MustParseRelation("foo"))
	require.Len(t, provs, 1)
	is.True(provs[0].IsInstalled())

	installed := pkg.NewMemorySack().MustAdd(avail("bar-1-1.noarch"))
	_, err = BuildPkgDB(arches, installed)
	is.Error(err)
}

func TestBuildTransaction(t *testing.T) {
	is := assert.New(t)
	logger, _ := newTestLogger()
	installed := pkg.NewMemorySack().MustAdd(inst("foo-1-1.noarch"))
	available := pkg.NewMemorySack().MustAdd(avail("foo-2-1.noarch"), avail("bar-1-1.noarch", "R:foo >= 2"))

	res, err := BuildTransaction(install("bar"), installed, available, MustResolutionContext("x86_64"), logger)
	is.NoError(err)
	is.Equal(ResultOK, res.Code)
	is.Equal([]string{"install bar-1-1.noarch", "update foo-2-1.noarch"}, members(res))
	is.Equal([]pkg.Tuple{installed.Packages()[0].Tuple}, res.Transaction.Get(available.Packages()[0].Tuple).RelatedTo)
}

func TestArches(t *testing.T) {
	is := assert.New(t)
	a, err := NewArches("x86_64", nil)
	is.NoError(err)
	is.True(a.IsCompatible("i686"))
	is.True(a.IsCompatible(NoArch))
	is.False(a.IsCompatible("ppc64"))
	is.Equal(0, a.Rank("x86_64", "x86_64"))
	is.Equal(1, a.Rank(NoArch, "x86_64"))
	is.True(a.Rank("i386", "x86_64") > 1)
	is.Equal("x86_64", a.Best([]string{"i386", "x86_64", NoArch}))

	_, err = NewArches("vax", nil)
	is.Error(err)
	_, err = NewResolutionContext("vax")
	is.Error(err)
}

func TestParseJobs(t *testing.T) {
	for _, tcase := range []struct {
		line string
		jobs []Job
		err  bool
	}{
		{line: "install foo bar", jobs: []Job{{JobInstall, "foo"}, {JobInstall, "bar"}}},
		{line: "remove foo", jobs: []Job{{JobErase, "foo"}}},
		{line: "upgrade-all", jobs: []Job{{Kind: JobUpgrade}}},
		{line: "update", jobs: []Job{{Kind: JobUpdate}}},
		{line: "install", err: true},
		{line: "frobnicate foo", err: true},
		{line: "", err: true},
	} {
		t.Run(tcase.line, func(t *testing.T) {
			is := assert.New(t)
			jobs, err := ParseJobLine(strings.Fields(tcase.line))
			if tcase.err {
				is.Error(err)
				return
			}
			is.NoError(err)
			is.Equal(tcase.jobs, jobs)
		})
	}

	is := assert.New(t)
	p, err := ParseMultilibPolicy("all")
	is.NoError(err)
	is.Equal(MultilibAll, p)
	_, err = ParseMultilibPolicy("some")
	is.Error(err)
}

func TestFormatOutput(t *testing.T) {
	is := assert.New(t)
	big := avail("big-1-1.noarch")
	big.Size = 2000000
	s := resolve(t, MustResolutionContext("x86_64"), nil, []*pkg.Pkg{big}, install("big")...)
	is.Equal(ResultOK, s.Result.Code)

	rs := PkgResultSet{}
	is.NoError(json.Unmarshal([]byte(s.FormatOutput(JSON)), &rs))
	is.Equal(ResultOK, rs.Status)
	is.Equal(1, rs.Summary.Install)
	is.Equal(int64(2000000), rs.Summary.DownloadSize)

	y := s.FormatOutput(YAML)
	is.Contains(y, "status: ok")
	is.Contains(y, "package: big-1-1.noarch")

	table := s.FormatOutput(Table)
	is.Contains(table, "Transaction Summary")
	is.Contains(table, "Total download size: 2MB")

	s = resolve(t, MustResolutionContext("x86_64"), nil, nil, install("nothere")...)
	is.Contains(s.FormatOutput(YAML), "kind: MalformedSpec")

	for _, mode := range []string{"json", "yaml", "table"} {
		_, err := ParseOutputMode(mode)
		is.NoError(err)
	}
	_, err := ParseOutputMode("xml")
	is.Error(err)

	var zero OutputMode
	is.Equal(Table, zero)
	is.Equal("table", zero.String())
}
