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
	"strings"

	"github.com/pkg/errors"
)

// Flag is the relational operator of a dependency, using the rpm sense bits.
type Flag int

const (
	FlagNone Flag = 0
	FlagLT   Flag = 1 << 1
	FlagGT   Flag = 1 << 2
	FlagEQ   Flag = 1 << 3
	FlagLE        = FlagLT | FlagEQ
	FlagGE        = FlagGT | FlagEQ

	flagMask = FlagLT | FlagGT | FlagEQ
)

var flagStrings = map[Flag]string{
	FlagLT: "<",
	FlagGT: ">",
	FlagEQ: "=",
	FlagLE: "<=",
	FlagGE: ">=",
}

func (f Flag) String() string {
	return flagStrings[f&flagMask]
}

// ParseFlag accepts both the operator and the yum spelling (EQ, LE, ...).
func ParseFlag(s string) (Flag, error) {
	switch strings.ToUpper(s) {
	case "":
		return FlagNone, nil
	case "=", "==", "EQ":
		return FlagEQ, nil
	case "<", "LT":
		return FlagLT, nil
	case "<=", "LE":
		return FlagLE, nil
	case ">", "GT":
		return FlagGT, nil
	case ">=", "GE":
		return FlagGE, nil
	}
	return FlagNone, errors.Errorf("unknown relation operator %q", s)
}

// Relation is one entry of a provides, requires, obsoletes or conflicts list.
// Name is a capability or an absolute file path.
type Relation struct {
	Name string
	Flag Flag
	EVR  EVR
}

// ParseRelation parses "name", or "name op [epoch:]version[-release]".
func ParseRelation(s string) (Relation, error) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		return Relation{Name: fields[0]}, nil
	case 3:
		f, err := ParseFlag(fields[1])
		if err != nil {
			return Relation{}, errors.Wrapf(err, "parsing relation %q", s)
		}
		if f == FlagNone {
			return Relation{}, errors.Errorf("parsing relation %q: missing operator", s)
		}
		return Relation{Name: fields[0], Flag: f, EVR: ParseEVR(fields[2])}, nil
	}
	return Relation{}, errors.Errorf("parsing relation %q: expected \"name\" or \"name op evr\"", s)
}

// MustParseRelation is ParseRelation for literals in tests and examples.
func MustParseRelation(s string) Relation {
	r, err := ParseRelation(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Relation) String() string {
	if !r.Versioned() {
		return r.Name
	}
	return fmt.Sprintf("%s %s %s", r.Name, r.Flag, r.EVR)
}

// Versioned reports whether the relation carries a version constraint.
func (r Relation) Versioned() bool {
	return r.Flag&flagMask != 0
}

// IsFile reports whether the relation names a file path.
func (r Relation) IsFile() bool {
	return strings.HasPrefix(r.Name, "/")
}

// IsRpmlib reports whether the relation is one of rpm's own features,
// satisfied by rpm itself and never by a package.
func (r Relation) IsRpmlib() bool {
	return strings.HasPrefix(r.Name, "rpmlib(")
}

// Overlaps reports whether the ranges described by two relations on the same
// name intersect. An unversioned relation on either side always overlaps.
func (r Relation) Overlaps(o Relation) bool {
	if r.Name != o.Name {
		return false
	}
	return RangesOverlap(r.Flag, r.EVR, o.Flag, o.EVR)
}

// RangesOverlap implements the rpm flag algebra: it reports whether
// "x aflag aevr" and "x bflag bevr" can both hold for some x.
func RangesOverlap(aflag Flag, aevr EVR, bflag Flag, bevr EVR) bool {
	aflag &= flagMask
	bflag &= flagMask
	if aflag == FlagNone || bflag == FlagNone {
		return true
	}

	sense := compareDepEVR(aevr, bevr)
	switch {
	case sense < 0:
		return aflag&FlagGT != 0 || bflag&FlagLT != 0
	case sense > 0:
		return aflag&FlagLT != 0 || bflag&FlagGT != 0
	}
	// equal versions
	return aflag&bflag&(FlagEQ|FlagLT|FlagGT) != 0
}

// MarshalText renders the relation as "name op evr".
func (r Relation) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses the form written by MarshalText.
func (r *Relation) UnmarshalText(b []byte) error {
	parsed, err := ParseRelation(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (r Relation) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Relation) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return r.UnmarshalText([]byte(s))
}
