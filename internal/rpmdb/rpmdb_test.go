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

package rpmdb

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Masterminds/log-go"
	logcli "github.com/Masterminds/log-go/impl/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkg "github.com/rancher-sandbox/depsolve/internal/package"
)

const testIndexFile = "testdata/installed.yaml"

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

func TestReadPackageFile(t *testing.T) {
	for _, tcase := range []struct {
		file  string
		nevra string
		files int
	}{
		{file: "testdata/simple-1.0.1-1.i386.rpm", nevra: "simple-1.0.1-1.i386", files: 3},
		{file: "testdata/one-epoch-0.1-1.x86_64.rpm", nevra: "one-epoch-1:0.1-1.x86_64", files: 1},
	} {
		t.Run(tcase.file, func(t *testing.T) {
			is := assert.New(t)
			in := pkg.NewInterner()
			p, err := ReadPackageFile(tcase.file, in, pkg.Available, "local")
			require.NoError(t, err)
			is.Equal(tcase.nevra, p.String())
			is.Equal("local", p.RepoID)
			is.Len(p.Files, tcase.files)
			for _, f := range p.Files {
				is.True(p.HasFile(f))
			}
			fi, err := os.Stat(tcase.file)
			is.NoError(err)
			is.Equal(fi.Size(), p.Size)
			is.True(p.Satisfies(p.SelfProvide()))
		})
	}

	_, err := ReadPackage(strings.NewReader("not an rpm"), nil, pkg.Available, "local")
	assert.Error(t, err)
	_, err = ReadPackageFile("testdata/nothere.rpm", nil, pkg.Available, "local")
	assert.Error(t, err)
}

func TestLoadIndexFile(t *testing.T) {
	is := assert.New(t)
	logger, buf := newTestLogger()

	idx, err := LoadIndexFile(testIndexFile, logger)
	require.NoError(t, err)
	is.Equal(APIVersionV1, idx.APIVersion)
	is.Len(idx.Packages, 2)
	is.Equal("bash", idx.Packages[0].Name)
	is.Equal("glibc", idx.Packages[1].Name)
	is.Contains(buf.String(), `skipping invalid entry "broken"`)

	bash := idx.Packages[0]
	is.Equal([]pkg.Relation{pkg.MustParseRelation("libc.so.6"), pkg.MustParseRelation("rpmlib(CompressedFileNames) <= 3.0.4-1")}, bash.Requires)
	is.Equal(int64(1500000), bash.Size)
	is.Equal("fedora", bash.RepoID)

	in := pkg.NewInterner()
	sack, err := idx.Sack(in, pkg.Installed, "")
	require.NoError(t, err)
	is.Equal(2, sack.Len())
	b := sack.ByName("bash")[0]
	is.True(b.IsInstalled())
	is.Equal("fedora", b.RepoID)
	is.True(b.HasFile("/bin/bash"))
	is.True(b.Satisfies(pkg.MustParseRelation("/bin/sh")))

	sack, err = idx.Sack(in, pkg.Installed, InstalledRepoID)
	require.NoError(t, err)
	is.Equal(InstalledRepoID, sack.ByName("bash")[0].RepoID)

	_, err = LoadIndexFile("testdata/nothere.yaml", logger)
	is.Error(err)
	_, err = loadIndex([]byte("packages: []\n"), "inline", logger)
	is.Equal(ErrNoAPIVersion, err)
	_, err = loadIndex([]byte("apiVersion: v1\nunknown: 1\n"), "inline", logger)
	is.Error(err)
}

func TestIndexMerge(t *testing.T) {
	is := assert.New(t)
	a := NewIndexFile()
	a.Add(pkg.NewPkgMock(nil, "foo-1-1.noarch", pkg.Available, nil, nil, nil, nil, nil))
	a.Add(pkg.NewPkgMock(nil, "foo-1-1.noarch", pkg.Available, []string{"bar"}, nil, nil, nil, nil))
	is.Len(a.Packages, 1)
	is.Len(a.Packages[0].Provides, 1)

	b := NewIndexFile()
	b.Add(pkg.NewPkgMock(nil, "foo-1-1.noarch", pkg.Available, nil, nil, nil, nil, nil))
	b.Add(pkg.NewPkgMock(nil, "foo-2-1.noarch", pkg.Available, nil, nil, nil, nil, nil))
	a.Merge(b)
	a.SortEntries()
	is.Len(a.Packages, 2)
	is.Equal("foo-2-1.noarch", a.Packages[0].String())
	is.Len(a.Packages[1].Provides, 1, "existing records are kept")
}

func TestDB(t *testing.T) {
	is := assert.New(t)
	logger, _ := newTestLogger()
	root := t.TempDir()
	ctx := context.Background()

	db, err := Open(root, "", logger)
	require.NoError(t, err)
	is.Equal(filepath.Join(root, DefaultPath), db.Path)

	sack, err := db.Load(ctx, nil)
	require.NoError(t, err)
	is.Equal(0, sack.Len())

	pkgs := []*pkg.Pkg{
		pkg.NewPkgMock(nil, "zsh-5.8-1.x86_64", pkg.Installed, nil, []string{"libc.so.6"}, nil, nil, []string{"/bin/zsh"}),
		pkg.NewPkgMock(nil, "glibc-2.33-5.x86_64", pkg.Installed, []string{"libc.so.6"}, nil, nil, nil, nil),
	}
	require.NoError(t, db.Save(ctx, pkgs))

	sack, err = db.Load(ctx, pkg.NewInterner())
	require.NoError(t, err)
	is.Equal(2, sack.Len())
	zsh := sack.ByName("zsh")
	require.Len(t, zsh, 1)
	is.True(zsh[0].HasFile("/bin/zsh"))
	is.Equal(pkgs[0].Requires, zsh[0].Requires)
	is.Equal(InstalledRepoID, zsh[0].RepoID)

	escaped, err := Open(root, "../../../etc/installed.yaml", logger)
	require.NoError(t, err)
	is.True(strings.HasPrefix(escaped.Path, root), "%s escapes %s", escaped.Path, root)
}
