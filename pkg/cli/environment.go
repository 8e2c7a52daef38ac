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

/*Package cli describes the operating environment for the depsolve CLI: the
environment variables and global flags, and the configuration file they
point to.
*/
package cli

import (
	"os"
	"strconv"

	"github.com/spf13/pflag"
)

// DefaultConfigFile is read when no configuration file is given.
const DefaultConfigFile = "/etc/depsolve/depsolve.yaml"

// EnvSettings describes all of the environment settings.
type EnvSettings struct {
	// Debug indicates whether or not depsolve is running in Debug mode.
	Debug bool
	// NoColors disables colorized output.
	NoColors bool
	// NoEmojis disables emojis in output.
	NoEmojis bool
	// ConfigFile is the path to the configuration file.
	ConfigFile string
	// InstallRoot is the directory the installed database and relative
	// repository paths are resolved in.
	InstallRoot string
	// RepositoryConfig is the path to an extra repositories file.
	RepositoryConfig string

	// Arch overrides the base architecture of the configuration.
	Arch string
	// SkipBroken overrides skip_broken of the configuration.
	SkipBroken bool
}

// New returns the settings from the environment.
func New() *EnvSettings {
	env := &EnvSettings{
		ConfigFile:       envOr("DEPSOLVE_CONFIG", DefaultConfigFile),
		InstallRoot:      envOr("DEPSOLVE_INSTALLROOT", "/"),
		RepositoryConfig: os.Getenv("DEPSOLVE_REPOSITORY_CONFIG"),
	}
	env.Debug, _ = strconv.ParseBool(os.Getenv("DEPSOLVE_DEBUG"))
	env.NoColors, _ = strconv.ParseBool(os.Getenv("DEPSOLVE_NO_COLORS"))
	env.NoEmojis, _ = strconv.ParseBool(os.Getenv("DEPSOLVE_NO_EMOJIS"))
	return env
}

// AddFlags binds flags to the given flagset.
func (s *EnvSettings) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&s.Debug, "debug", s.Debug, "enable verbose output")
	fs.BoolVar(&s.NoColors, "nocolor", s.NoColors, "disable colorized output")
	fs.BoolVar(&s.NoEmojis, "noemoji", s.NoEmojis, "disable emojis in output")
	fs.StringVarP(&s.ConfigFile, "config", "c", s.ConfigFile, "path to the configuration file")
	fs.StringVar(&s.InstallRoot, "installroot", s.InstallRoot, "directory the installed database is read from")
	fs.StringVar(&s.RepositoryConfig, "repository-config", s.RepositoryConfig, "path to a file containing repository names and paths")
	fs.StringVar(&s.Arch, "basearch", s.Arch, "base architecture, overrides the configuration file")
	fs.BoolVar(&s.SkipBroken, "skip-broken", s.SkipBroken, "drop the jobs that cannot be resolved instead of failing")
}

func envOr(name, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return def
}

// EnvVars returns the environment variables depsolve reads, with their
// current values.
func (s *EnvSettings) EnvVars() map[string]string {
	return map[string]string{
		"DEPSOLVE_DEBUG":             strconv.FormatBool(s.Debug),
		"DEPSOLVE_NO_COLORS":         strconv.FormatBool(s.NoColors),
		"DEPSOLVE_NO_EMOJIS":         strconv.FormatBool(s.NoEmojis),
		"DEPSOLVE_CONFIG":            s.ConfigFile,
		"DEPSOLVE_INSTALLROOT":       s.InstallRoot,
		"DEPSOLVE_REPOSITORY_CONFIG": s.RepositoryConfig,
	}
}
