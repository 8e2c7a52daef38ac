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
	"os"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/depsolve/internal/solver"
)

func TestEnvSettings(t *testing.T) {
	tests := []struct {
		name string

		// input
		args    string
		envvars map[string]string

		// expected values
		debug       bool
		noColors    bool
		installRoot string
	}{
		{
			name:        "defaults",
			installRoot: "/",
		},
		{
			name:        "with flags set",
			args:        "--debug --nocolor --installroot /mnt/sysimage",
			debug:       true,
			noColors:    true,
			installRoot: "/mnt/sysimage",
		},
		{
			name:        "with envvars set",
			envvars:     map[string]string{"DEPSOLVE_DEBUG": "true", "DEPSOLVE_NO_COLORS": "true", "DEPSOLVE_INSTALLROOT": "/tmp/root"},
			debug:       true,
			noColors:    true,
			installRoot: "/tmp/root",
		},
		{
			name:        "with args and envvars set",
			args:        "--debug --nocolor",
			envvars:     map[string]string{"DEPSOLVE_DEBUG": "false", "DEPSOLVE_NO_COLORS": "false"},
			debug:       true,
			noColors:    true,
			installRoot: "/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer resetEnv()()

			for k, v := range tt.envvars {
				os.Setenv(k, v)
			}

			flags := pflag.NewFlagSet("testing", pflag.ContinueOnError)

			settings := New()
			settings.AddFlags(flags)
			flags.Parse(strings.Fields(tt.args))

			if settings.Debug != tt.debug {
				t.Errorf("expected debug %t, got %t", tt.debug, settings.Debug)
			}
			if settings.NoColors != tt.noColors {
				t.Errorf("expected noColors %t, got %t", tt.noColors, settings.NoColors)
			}
			if settings.InstallRoot != tt.installRoot {
				t.Errorf("expected installRoot %q, got %q", tt.installRoot, settings.InstallRoot)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	defer resetEnv()()
	is := assert.New(t)

	settings := New()
	settings.ConfigFile = "testdata/depsolve.yaml"
	settings.RepositoryConfig = "testdata/repositories.yaml"
	cfg, err := settings.LoadConfig()
	require.NoError(t, err)
	is.Equal("x86_64", cfg.BaseArch)
	is.Equal(3, cfg.InstallOnlyLimit)
	var repos []string
	for _, r := range cfg.Repos {
		repos = append(repos, r.Name)
	}
	is.Equal([]string{"base", "updates", "extras"}, repos)

	ctx, err := cfg.ResolutionContext()
	require.NoError(t, err)
	is.Equal(solver.MultilibAll, ctx.MultilibPolicy)
	is.False(ctx.Obsoletes)
	is.True(ctx.SkipBroken)
	is.Equal(3, ctx.InstallOnlyLimit)
	is.True(ctx.InstallOnly["kernel-core"])
	is.False(ctx.InstallOnly["kernel-devel"])
	is.Equal("x86_64", ctx.Arches.Base)

	settings.Arch = "i686"
	cfg, err = settings.LoadConfig()
	require.NoError(t, err)
	ctx, err = cfg.ResolutionContext()
	require.NoError(t, err)
	is.Equal("i686", ctx.Arches.Base)
	is.False(ctx.Arches.IsCompatible("x86_64"))
}

func TestLoadConfigErrors(t *testing.T) {
	defer resetEnv()()
	is := assert.New(t)

	settings := New()
	settings.ConfigFile = "testdata/bad-policy.yaml"
	cfg, err := settings.LoadConfig()
	require.NoError(t, err)
	_, err = cfg.ResolutionContext()
	is.Error(err)

	settings.ConfigFile = "testdata/nothere.yaml"
	_, err = settings.LoadConfig()
	is.Error(err)

	settings.ConfigFile = DefaultConfigFile
	if _, statErr := os.Stat(DefaultConfigFile); os.IsNotExist(statErr) {
		cfg, err = settings.LoadConfig()
		is.NoError(err)
		is.Equal(HostArch(), cfg.BaseArch)
	}

	_, err = (&Config{BaseArch: "vax"}).ResolutionContext()
	is.Error(err)
	_, err = (&Config{BaseArch: "x86_64", InstallOnlyLimit: -1}).ResolutionContext()
	is.Error(err)

	ctx, err := (&Config{BaseArch: "armv7hl", Arches: []string{"armv7hl", "armv6hl"}}).ResolutionContext()
	is.NoError(err)
	is.Equal([]string{"armv7hl", "armv6hl", solver.NoArch}, ctx.Arches.Compatible)
}

func resetEnv() func() {
	origEnv := os.Environ()

	// ensure any local envvars do not hose us
	for e := range New().EnvVars() {
		os.Unsetenv(e)
	}

	return func() {
		for _, pair := range origEnv {
			kv := strings.SplitN(pair, "=", 2)
			os.Setenv(kv[0], kv[1])
		}
	}
}
