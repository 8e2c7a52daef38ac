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
	"strings"

	"github.com/pkg/errors"
)

// JobKind is the operation a user asks for.
type JobKind int

const (
	JobInstall JobKind = iota
	JobUpdate
	JobErase
	JobUpgrade
	JobReinstall
	JobDowngrade
)

var jobKindNames = map[JobKind]string{
	JobInstall:   "install",
	JobUpdate:    "update",
	JobErase:     "erase",
	JobUpgrade:   "upgrade",
	JobReinstall: "reinstall",
	JobDowngrade: "downgrade",
}

func (k JobKind) String() string {
	return jobKindNames[k]
}

// ParseJobKind accepts the command names and their usual aliases.
func ParseJobKind(s string) (JobKind, error) {
	switch s {
	case "remove":
		return JobErase, nil
	case "upgrade-all":
		return JobUpgrade, nil
	}
	for k, n := range jobKindNames {
		if n == s {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown operation %q", s)
}

// Job is one user request. Spec is a name spec (see pkg.MatchSpec), "*" or
// empty for update and upgrade meaning every installed package.
type Job struct {
	Kind JobKind
	Spec string
}

func (j Job) String() string {
	if j.Spec == "" {
		return j.Kind.String()
	}
	return j.Kind.String() + " " + j.Spec
}

// NewJobs returns one job of kind per spec. Update and upgrade without specs
// return a single job over everything installed.
func NewJobs(kind JobKind, specs ...string) []Job {
	if len(specs) == 0 {
		return []Job{{Kind: kind}}
	}
	jobs := make([]Job, 0, len(specs))
	for _, s := range specs {
		jobs = append(jobs, Job{Kind: kind, Spec: s})
	}
	return jobs
}

// ParseJobLine parses "operation [spec...]".
func ParseJobLine(words []string) ([]Job, error) {
	if len(words) == 0 {
		return nil, errors.New("empty job line")
	}
	kind, err := ParseJobKind(words[0])
	if err != nil {
		return nil, err
	}
	specs := words[1:]
	switch kind {
	case JobUpdate, JobUpgrade:
	default:
		if len(specs) == 0 {
			return nil, errors.Errorf("%s needs at least one package", kind)
		}
	}
	return NewJobs(kind, specs...), nil
}

// TaskState is the lifecycle of a task inside one resolution.
type TaskState int

const (
	TaskPending TaskState = iota
	TaskExpanding
	TaskResolved
	TaskFailed
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskExpanding:
		return "expanding"
	case TaskResolved:
		return "resolved"
	case TaskFailed:
		return "failed"
	}
	return fmt.Sprintf("TaskState(%d)", int(s))
}

// Task is a job expanded against the universe: update-all becomes one task
// per installed name.arch.
type Task struct {
	ID    int
	Job   Job
	State TaskState
	// NoOp is set when the task asked for something already true.
	NoOp bool
}

func (t *Task) String() string {
	return fmt.Sprintf("#%d %s", t.ID, t.Job)
}

// FailureKind classifies why a resolution failed.
type FailureKind int

const (
	UnresolvedRequirement FailureKind = iota
	Conflict
	AmbiguousObsoletion
	MalformedSpec
	NoProgress
)

func (k FailureKind) String() string {
	switch k {
	case UnresolvedRequirement:
		return "UnresolvedRequirement"
	case Conflict:
		return "Conflict"
	case AmbiguousObsoletion:
		return "AmbiguousObsoletion"
	case MalformedSpec:
		return "MalformedSpec"
	case NoProgress:
		return "NoProgress"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// MarshalText makes failure kinds readable in YAML and JSON output.
func (k FailureKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Failure is an expected resolution failure. It is reported, never raised.
type Failure struct {
	Kind    FailureKind `json:"kind" yaml:"kind"`
	Message string      `json:"message" yaml:"message"`
	Tasks   []int       `json:"tasks,omitempty" yaml:"tasks,omitempty"`
}

func (f Failure) String() string {
	return f.Message
}

// expandJobs turns jobs into tasks, numbered from 1.
func expandJobs(jobs []Job, db *PkgDB) []*Task {
	var tasks []*Task
	add := func(j Job) {
		tasks = append(tasks, &Task{ID: len(tasks) + 1, Job: j})
	}
	for _, j := range jobs {
		spec := strings.TrimSpace(j.Spec)
		everything := spec == "" || spec == "*"
		switch {
		case j.Kind == JobUpgrade && !everything:
			add(Job{Kind: JobUpdate, Spec: spec})
		case (j.Kind == JobUpgrade || j.Kind == JobUpdate) && everything:
			seen := map[string]bool{}
			for _, p := range db.Installed() {
				if !seen[p.NA()] {
					seen[p.NA()] = true
					add(Job{Kind: JobUpdate, Spec: p.NA()})
				}
			}
		default:
			add(Job{Kind: j.Kind, Spec: spec})
		}
	}
	return tasks
}
