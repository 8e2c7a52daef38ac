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

	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"

	pkg "github.com/rancher-sandbox/depsolve/internal/package"
	"github.com/rancher-sandbox/depsolve/internal/rpmdb"
	"github.com/rancher-sandbox/depsolve/internal/solver"
	"github.com/rancher-sandbox/depsolve/pkg/cli"
	"github.com/rancher-sandbox/depsolve/pkg/repo"
)

// Configuration injects the dependencies that all actions share.
type Configuration struct {
	Settings *cli.EnvSettings
	Config   *cli.Config
	// Interner is shared by every sack loaded through this configuration.
	Interner *pkg.Interner
	Log      log.Logger
}

// NewConfiguration reads the configuration file the settings point to.
func NewConfiguration(settings *cli.EnvSettings, logger log.Logger) (*Configuration, error) {
	cfg, err := settings.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &Configuration{
		Settings: settings,
		Config:   cfg,
		Interner: pkg.NewInterner(),
		Log:      logger,
	}, nil
}

// ResolutionContext returns the resolver settings of the configuration.
func (c *Configuration) ResolutionContext() (*solver.ResolutionContext, error) {
	return c.Config.ResolutionContext()
}

// InstalledDB opens the installed database below the install root.
func (c *Configuration) InstalledDB() (*rpmdb.DB, error) {
	return rpmdb.Open(c.Settings.InstallRoot, c.Config.Installed, c.Log)
}

// LoadInstalled reads the installed packages.
func (c *Configuration) LoadInstalled(ctx context.Context) (*pkg.MemorySack, error) {
	db, err := c.InstalledDB()
	if err != nil {
		return nil, err
	}
	return db.Load(ctx, c.Interner)
}

// LoadAvailable reads every configured repository into one sack. A NEVRA
// offered by more than one repository is taken from the first one listing
// it.
func (c *Configuration) LoadAvailable() (*pkg.MemorySack, error) {
	available := pkg.NewMemorySack()
	for _, e := range c.Config.Repos {
		if e.Disabled {
			continue
		}
		r, err := repo.Load(e, c.Settings.InstallRoot, c.Log)
		if err != nil {
			return nil, err
		}
		sack, err := r.Sack(c.Interner)
		if err != nil {
			return nil, err
		}
		for _, p := range sack.Packages() {
			if o := available.ByTuple(p.Tuple); o != nil {
				c.Log.Debugf("%s from %s is shadowed by %s", p, p.RepoID, o.RepoID)
				continue
			}
			if err := available.Add(p); err != nil {
				return nil, errors.Wrapf(err, "repository %s", e.Name)
			}
		}
		c.Log.Debugf("loaded %d packages from repository %s", sack.Len(), e.Name)
	}
	return available, nil
}
