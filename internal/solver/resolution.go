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
	"github.com/pkg/errors"
)

// MultilibPolicy decides how many arches of a package get installed.
type MultilibPolicy string

const (
	// MultilibBest installs the best arch only.
	MultilibBest MultilibPolicy = "best"
	// MultilibAll installs every compatible arch.
	MultilibAll MultilibPolicy = "all"
)

// ParseMultilibPolicy validates a configuration value.
func ParseMultilibPolicy(s string) (MultilibPolicy, error) {
	switch MultilibPolicy(s) {
	case MultilibBest, "":
		return MultilibBest, nil
	case MultilibAll:
		return MultilibAll, nil
	}
	return "", errors.Errorf("unknown multilib policy %q, expected %q or %q", s, MultilibBest, MultilibAll)
}

// DefaultInstallOnly are the packages installed side by side by default.
var DefaultInstallOnly = []string{
	"kernel", "kernel-bigmem", "kernel-enterprise", "kernel-smp", "kernel-debug",
	"kernel-unsupported", "kernel-source", "kernel-devel", "kernel-PAE", "kernel-PAE-debug",
	"installonlypkg(kernel)", "installonlypkg(kernel-module)",
}

// DefaultMaxSteps bounds the fixed point loop of a single resolution.
const DefaultMaxSteps = 100000

// ResolutionContext is the per call configuration of the resolver.
type ResolutionContext struct {
	Arches           *Arches
	MultilibPolicy   MultilibPolicy
	Obsoletes        bool
	SkipBroken       bool
	InstallOnly      map[string]bool
	InstallOnlyLimit int
	MaxSteps         int
}

// NewResolutionContext returns the defaults for basearch: best multilib
// policy, obsoletes processing on, skip-broken off.
func NewResolutionContext(basearch string) (*ResolutionContext, error) {
	arches, err := NewArches(basearch, nil)
	if err != nil {
		return nil, err
	}
	return DefaultResolutionContext(arches), nil
}

// DefaultResolutionContext is NewResolutionContext over an existing table.
func DefaultResolutionContext(arches *Arches) *ResolutionContext {
	ctx := &ResolutionContext{
		Arches:         arches,
		MultilibPolicy: MultilibBest,
		Obsoletes:      true,
		MaxSteps:       DefaultMaxSteps,
	}
	ctx.SetInstallOnly(DefaultInstallOnly)
	return ctx
}

// MustResolutionContext is NewResolutionContext for tests and examples.
func MustResolutionContext(basearch string) *ResolutionContext {
	ctx, err := NewResolutionContext(basearch)
	if err != nil {
		panic(err)
	}
	return ctx
}

// SetInstallOnly replaces the install-only name set.
func (c *ResolutionContext) SetInstallOnly(names []string) {
	c.InstallOnly = make(map[string]bool, len(names))
	for _, n := range names {
		c.InstallOnly[n] = true
	}
}

func (c *ResolutionContext) maxSteps() int {
	if c.MaxSteps <= 0 {
		return DefaultMaxSteps
	}
	return c.MaxSteps
}
