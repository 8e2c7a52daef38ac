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

package cli

import (
	"io/ioutil"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/rancher-sandbox/depsolve/internal/solver"
	"github.com/rancher-sandbox/depsolve/pkg/repo"
)

// Config is the content of the configuration file.
type Config struct {
	BaseArch         string        `json:"basearch,omitempty"`
	Arches           []string      `json:"arches,omitempty"`
	MultilibPolicy   string        `json:"multilib_policy,omitempty"`
	Obsoletes        *bool         `json:"obsoletes,omitempty"`
	SkipBroken       bool          `json:"skip_broken,omitempty"`
	InstallOnlyPkgs  []string      `json:"installonlypkgs,omitempty"`
	InstallOnlyLimit int           `json:"installonly_limit,omitempty"`
	MaxSteps         int           `json:"max_steps,omitempty"`
	Installed        string        `json:"installed,omitempty"`
	Repos            []*repo.Entry `json:"repos,omitempty"`
}

var goArches = map[string]string{
	"amd64":   "x86_64",
	"386":     "i686",
	"arm64":   "aarch64",
	"ppc64le": "ppc64le",
	"ppc64":   "ppc64",
	"s390x":   "s390x",
}

// HostArch returns the rpm base arch of the running machine.
func HostArch() string {
	if a, ok := goArches[runtime.GOARCH]; ok {
		return a
	}
	return runtime.GOARCH
}

// LoadConfig reads the configuration file. The default file may be missing,
// an explicitly configured one may not.
func (s *EnvSettings) LoadConfig() (*Config, error) {
	cfg := &Config{}
	b, err := ioutil.ReadFile(s.ConfigFile)
	switch {
	case os.IsNotExist(err) && s.ConfigFile == DefaultConfigFile:
	case err != nil:
		return nil, errors.Wrapf(err, "couldn't load configuration file (%s)", s.ConfigFile)
	default:
		if err := yaml.UnmarshalStrict(b, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", s.ConfigFile)
		}
	}

	if s.Arch != "" {
		cfg.BaseArch = s.Arch
	}
	if cfg.BaseArch == "" {
		cfg.BaseArch = HostArch()
	}
	if s.SkipBroken {
		cfg.SkipBroken = true
	}
	if s.RepositoryConfig != "" {
		rf, err := repo.LoadFile(s.RepositoryConfig)
		if err != nil {
			return nil, err
		}
		cfg.Repos = append(cfg.Repos, rf.Enabled()...)
	}
	return cfg, nil
}

// ResolutionContext turns the configuration into resolver settings.
func (c *Config) ResolutionContext() (*solver.ResolutionContext, error) {
	arches, err := solver.NewArches(c.BaseArch, c.Arches)
	if err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	ctx := solver.DefaultResolutionContext(arches)

	if ctx.MultilibPolicy, err = solver.ParseMultilibPolicy(c.MultilibPolicy); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if c.Obsoletes != nil {
		ctx.Obsoletes = *c.Obsoletes
	}
	ctx.SkipBroken = c.SkipBroken
	if len(c.InstallOnlyPkgs) > 0 {
		ctx.SetInstallOnly(c.InstallOnlyPkgs)
	}
	if c.InstallOnlyLimit < 0 {
		return nil, errors.Errorf("invalid configuration: installonly_limit %d is negative", c.InstallOnlyLimit)
	}
	ctx.InstallOnlyLimit = c.InstallOnlyLimit
	if c.MaxSteps > 0 {
		ctx.MaxSteps = c.MaxSteps
	}
	return ctx, nil
}
