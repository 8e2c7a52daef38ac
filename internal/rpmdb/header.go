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
	"io"
	"os"

	"github.com/pkg/errors"
	rpmutils "github.com/sassoftware/go-rpmutils"

	pkg "github.com/rancher-sandbox/depsolve/internal/package"
)

const senseMask = rpmutils.RPMSENSE_LESS | rpmutils.RPMSENSE_GREATER | rpmutils.RPMSENSE_EQUAL

// header is the part of an rpm header a package is built from.
type header interface {
	GetNEVRA() (*rpmutils.NEVRA, error)
	GetStrings(tag int) ([]string, error)
	GetInts(tag int) ([]int, error)
	GetFiles() ([]rpmutils.FileInfo, error)
	InstalledSize() (int64, error)
}

var relationTags = []struct {
	kind                 string
	name, flags, version int
	add                  func(*pkg.Pkg, ...pkg.Relation)
}{
	{"provides", rpmutils.PROVIDENAME, rpmutils.PROVIDEFLAGS, rpmutils.PROVIDEVERSION, (*pkg.Pkg).AddProvides},
	{"requires", rpmutils.REQUIRENAME, rpmutils.REQUIREFLAGS, rpmutils.REQUIREVERSION, (*pkg.Pkg).AddRequires},
	{"obsoletes", rpmutils.OBSOLETENAME, rpmutils.OBSOLETEFLAGS, rpmutils.OBSOLETEVERSION, (*pkg.Pkg).AddObsoletes},
	{"conflicts", rpmutils.CONFLICTNAME, rpmutils.CONFLICTFLAGS, rpmutils.CONFLICTVERSION, (*pkg.Pkg).AddConflicts},
}

// ReadPackage reads the lead and headers of an rpm and returns the package
// they describe. The payload is not read.
func ReadPackage(r io.Reader, in *pkg.Interner, variant pkg.Variant, repo string) (*pkg.Pkg, error) {
	hdr, err := rpmutils.ReadHeader(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading rpm header")
	}
	return fromHeader(hdr, in, variant, repo)
}

// ReadPackageFile is ReadPackage on a file. The size of the package is the
// size of the file, which is what has to be downloaded.
func ReadPackageFile(path string, in *pkg.Interner, variant pkg.Variant, repo string) (*pkg.Pkg, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := ReadPackage(f, in, variant, repo)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading %s", path)
	}
	if fi, err := f.Stat(); err == nil {
		p.Size = fi.Size()
	}
	return p, nil
}

func fromHeader(hdr header, in *pkg.Interner, variant pkg.Variant, repo string) (*pkg.Pkg, error) {
	nevra, err := hdr.GetNEVRA()
	if err != nil {
		return nil, errors.Wrap(err, "reading NEVRA")
	}
	p := pkg.NewPkg(in, pkg.Tuple{
		Name:    nevra.Name,
		Arch:    nevra.Arch,
		Epoch:   nevra.Epoch,
		Version: nevra.Version,
		Release: nevra.Release,
	}, variant, repo)

	for _, tags := range relationTags {
		rels, err := readRelations(hdr, tags.name, tags.flags, tags.version)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s of %s", tags.kind, p)
		}
		tags.add(p, rels...)
	}

	files, err := hdr.GetFiles()
	if err != nil {
		return nil, errors.Wrapf(err, "reading files of %s", p)
	}
	for _, f := range files {
		p.AddFiles(f.Name())
	}

	if size, err := hdr.InstalledSize(); err == nil {
		p.Size = size
	}
	return p, nil
}

// readRelations zips the parallel name, flags and version arrays of one
// dependency kind. A missing name tag means no relations.
func readRelations(hdr header, nameTag, flagsTag, versionTag int) ([]pkg.Relation, error) {
	names, err := hdr.GetStrings(nameTag)
	if err != nil {
		if isNoSuchTag(err) {
			return nil, nil
		}
		return nil, err
	}
	flags, err := hdr.GetInts(flagsTag)
	if err != nil && !isNoSuchTag(err) {
		return nil, err
	}
	versions, err := hdr.GetStrings(versionTag)
	if err != nil && !isNoSuchTag(err) {
		return nil, err
	}

	rels := make([]pkg.Relation, 0, len(names))
	for i, name := range names {
		rel := pkg.Relation{Name: name}
		if i < len(flags) && i < len(versions) && versions[i] != "" {
			if f := pkg.Flag(flags[i] & senseMask); f != pkg.FlagNone {
				rel.Flag = f
				rel.EVR = pkg.ParseEVR(versions[i])
			}
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

func isNoSuchTag(err error) bool {
	var nst rpmutils.NoSuchTagError
	return errors.As(err, &nst)
}
