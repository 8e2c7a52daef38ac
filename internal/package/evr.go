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

package pkg

import (
	"fmt"
	"strconv"
	"strings"

	rpmutils "github.com/sassoftware/go-rpmutils"
)

// EVR is the (epoch, version, release) part of a package identity. An empty
// Epoch means 0.
type EVR struct {
	Epoch   string `json:"epoch,omitempty" yaml:"epoch,omitempty"`
	Version string `json:"version" yaml:"version"`
	Release string `json:"release,omitempty" yaml:"release,omitempty"`
}

// ParseEVR parses "[epoch:]version[-release]".
func ParseEVR(s string) EVR {
	var evr EVR
	if i := strings.Index(s, ":"); i >= 0 {
		evr.Epoch = s[:i]
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "-"); i >= 0 {
		evr.Release = s[i+1:]
		s = s[:i]
	}
	evr.Version = s
	return evr
}

// String renders the EVR the way rpm prints it, omitting a zero epoch.
func (e EVR) String() string {
	var sb strings.Builder
	if e.epochNum() != 0 {
		sb.WriteString(e.Epoch)
		sb.WriteString(":")
	}
	sb.WriteString(e.Version)
	if e.Release != "" {
		sb.WriteString("-")
		sb.WriteString(e.Release)
	}
	return sb.String()
}

// IsZero reports whether no version information is present.
func (e EVR) IsZero() bool {
	return e.Epoch == "" && e.Version == "" && e.Release == ""
}

func (e EVR) epochNum() int64 {
	if e.Epoch == "" {
		return 0
	}
	n, err := strconv.ParseInt(e.Epoch, 10, 64)
	if err != nil {
		// rpm treats a non numeric epoch as 0
		return 0
	}
	return n
}

// CompareEVR is a total order over EVRs: epochs compare numerically, version
// and release with the rpm segment algorithm (rpmvercmp). It returns -1, 0 or 1.
func CompareEVR(a, b EVR) int {
	if ea, eb := a.epochNum(), b.epochNum(); ea != eb {
		if ea < eb {
			return -1
		}
		return 1
	}
	if c := rpmutils.Vercmp(a.Version, b.Version); c != 0 {
		return sign(c)
	}
	return sign(rpmutils.Vercmp(a.Release, b.Release))
}

// compareDepEVR compares two EVRs the way rpm compares dependency ranges: a
// release missing on either side is not taken into account.
func compareDepEVR(a, b EVR) int {
	if ea, eb := a.epochNum(), b.epochNum(); ea != eb {
		if ea < eb {
			return -1
		}
		return 1
	}
	if c := rpmutils.Vercmp(a.Version, b.Version); c != 0 {
		return sign(c)
	}
	if a.Release == "" || b.Release == "" {
		return 0
	}
	return sign(rpmutils.Vercmp(a.Release, b.Release))
}

func sign(c int) int {
	switch {
	case c < 0:
		return -1
	case c > 0:
		return 1
	}
	return 0
}

// VerGT reports whether a is newer than b.
func VerGT(a, b EVR) bool { return CompareEVR(a, b) > 0 }

// VerEQ reports whether a and b are the same EVR.
func VerEQ(a, b EVR) bool { return CompareEVR(a, b) == 0 }

// VerLT reports whether a is older than b.
func VerLT(a, b EVR) bool { return CompareEVR(a, b) < 0 }

// GoString helps when a test prints an EVR with %#v.
func (e EVR) GoString() string {
	return fmt.Sprintf("pkg.EVR{%q, %q, %q}", e.Epoch, e.Version, e.Release)
}
