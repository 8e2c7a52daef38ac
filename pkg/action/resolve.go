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

package action

import (
	"context"

	"github.com/pkg/errors"

	"github.com/rancher-sandbox/depsolve/internal/solver"
)

// Resolve is the action computing the transaction for a list of jobs.
//
// It provides the implementation of 'depsolve install', 'update', 'erase'
// and friends, as well as 'depsolve shell'. The transaction is only
// computed, nothing is installed.
type Resolve struct {
	cfg *Configuration

	// SkipBroken overrides the configuration when set.
	SkipBroken bool
}

// NewResolve creates a new Resolve object with the given configuration.
func NewResolve(cfg *Configuration) *Resolve {
	return &Resolve{
		cfg: cfg,
	}
}

// Run loads the universe and resolves jobs against it.
//
// The returned error covers loading the configuration and the package sets.
// Jobs that cannot be satisfied are reported in the Result.
func (r *Resolve) Run(ctx context.Context, jobs []solver.Job) (*solver.Result, error) {
	if len(jobs) == 0 {
		return nil, errors.New("nothing to do")
	}
	rctx, err := r.cfg.ResolutionContext()
	if err != nil {
		return nil, err
	}
	if r.SkipBroken {
		rctx.SkipBroken = true
	}

	installed, err := r.cfg.LoadInstalled(ctx)
	if err != nil {
		return nil, err
	}
	available, err := r.cfg.LoadAvailable()
	if err != nil {
		return nil, err
	}
	r.cfg.Log.Debugf("resolving %v with %d installed and %d available packages",
		jobs, installed.Len(), available.Len())

	return solver.BuildTransaction(jobs, installed, available, rctx, r.cfg.Log)
}
