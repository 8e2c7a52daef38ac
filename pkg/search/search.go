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

/* Package search implements the search for packages by name, capability or
file, over the packages of the configured repositories or the installed ones.
*/
package search

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/log-go"
	logio "github.com/Masterminds/log-go/io"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	pkg "github.com/rancher-sandbox/depsolve/internal/package"
	"github.com/rancher-sandbox/depsolve/internal/solver"
)

// MaxScore suggests that any score higher than this is not considered a match.
const MaxScore = 25

const (
	providesScore = 10
	filesScore    = 20
)

// Result is a search result.
//
// Score indicates how close it is to match. The higher the score, the longer
// the distance.
type Result struct {
	Name string
	// Matched is the name, capability or file the query matched.
	Matched string
	Score   int
	Pkg     *pkg.Pkg
}

// Index is a searchable index of packages.
type Index struct {
	pkgs []*pkg.Pkg
	// all keeps every version, otherwise only the newest of each name.arch.
	all bool
}

// NewIndex creates a new Index. With all set, every version of a package is
// kept.
func NewIndex(all bool) *Index {
	return &Index{all: all}
}

// Add adds the packages of a sack to the index.
func (i *Index) Add(sack pkg.Sack) {
	for _, p := range sack.Packages() {
		if i.all {
			i.pkgs = append(i.pkgs, p)
			continue
		}
		replaced := false
		for n, o := range i.pkgs {
			if o.SameNA(p.Tuple) {
				if pkg.VerGT(p.EVR(), o.EVR()) {
					i.pkgs[n] = p
				}
				replaced = true
				break
			}
		}
		if !replaced {
			i.pkgs = append(i.pkgs, p)
		}
	}
}

// All returns all packages in the index as results, with a score of 0.
func (i *Index) All() []*Result {
	res := make([]*Result, 0, len(i.pkgs))
	for _, p := range i.pkgs {
		res = append(res, &Result{Name: p.Name, Matched: p.Name, Pkg: p})
	}
	return res
}

// Search searches the index for packages matching term. Names are matched
// first, then capabilities, then files. Results scoring above threshold are
// dropped.
func (i *Index) Search(term string, threshold int, regex bool) ([]*Result, error) {
	if regex {
		return i.SearchRegexp(term, threshold)
	}
	return i.SearchLiteral(term, threshold), nil
}

// SearchLiteral does a case insensitive substring search.
func (i *Index) SearchLiteral(term string, threshold int) []*Result {
	term = strings.ToLower(term)
	return i.search(threshold, func(s string) int {
		return strings.Index(strings.ToLower(s), term)
	})
}

// SearchRegexp searches using a regular expression.
func (i *Index) SearchRegexp(re string, threshold int) ([]*Result, error) {
	matcher, err := regexp.Compile(re)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid regular expression %q", re)
	}
	return i.search(threshold, func(s string) int {
		if loc := matcher.FindStringIndex(s); loc != nil {
			return loc[0]
		}
		return -1
	}), nil
}

// search scores every package with match, which returns the position of the
// match in a string or -1.
func (i *Index) search(threshold int, match func(string) int) []*Result {
	var res []*Result
	for _, p := range i.pkgs {
		r := score(p, match)
		if r != nil && r.Score <= threshold {
			res = append(res, r)
		}
	}
	return res
}

func score(p *pkg.Pkg, match func(string) int) *Result {
	if n := match(p.Name); n >= 0 {
		return &Result{Name: p.Name, Matched: p.Name, Score: n, Pkg: p}
	}
	for _, prov := range p.Provides {
		if n := match(prov.Name); n >= 0 {
			return &Result{Name: p.Name, Matched: prov.String(), Score: providesScore + n, Pkg: p}
		}
	}
	for _, f := range p.Files {
		if n := match(f); n >= 0 {
			return &Result{Name: p.Name, Matched: f, Score: filesScore + n, Pkg: p}
		}
	}
	return nil
}

// SortScore does an in-place sort of the results.
//
// Lowest scores are highest on the list. Matching scores are subsorted by
// name, then newest version first.
func SortScore(r []*Result) {
	sort.SliceStable(r, func(i, j int) bool {
		a, b := r[i], r[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if c := pkg.CompareEVR(a.Pkg.EVR(), b.Pkg.EVR()); c != 0 {
			return c > 0
		}
		return a.Pkg.Arch < b.Pkg.Arch
	})
}

// Options is the struct used to search, and stores the different options to
// filter and configure the output
type Options struct {
	Versions     bool
	Regexp       bool
	Version      string
	MaxColWidth  uint
	OutputFormat solver.OutputMode
}

// Run searches the sacks and prints the packages found.
func (o *Options) Run(logger log.Logger, args []string, sacks ...pkg.Sack) error {
	wInfo := logio.NewWriter(logger, log.InfoLevel)

	index := NewIndex(o.Versions || o.Version != "")
	for _, s := range sacks {
		index.Add(s)
	}

	var res []*Result
	var err error
	if len(args) == 0 {
		res = index.All()
	} else {
		q := strings.Join(args, " ")
		res, err = index.Search(q, MaxScore, o.Regexp)
		if err != nil {
			return err
		}
	}

	SortScore(res)
	data, err := o.applyConstraint(res)
	if err != nil {
		return err
	}
	logger.Debugf("%d packages match %v", len(data), args)

	return (&searchWriter{data, o.MaxColWidth}).write(wInfo, o.OutputFormat)
}

// applyConstraint filters the results on the version constraint set, an
// operator and a version such as ">= 5.9". A bare version means "=".
func (o *Options) applyConstraint(res []*Result) ([]*Result, error) {
	if o.Version == "" {
		return res, nil
	}

	fields := strings.Fields(o.Version)
	if len(fields) == 1 {
		fields = []string{"=", fields[0]}
	}
	constraint, err := pkg.ParseRelation("constraint " + strings.Join(fields, " "))
	if err != nil {
		return res, errors.Wrap(err, "an invalid version/constraint format")
	}

	data := res[:0]
	foundNames := map[string]bool{}
	for _, r := range res {
		// if not returning all versions and already have found a result,
		// you're done!
		if !o.Versions && foundNames[r.Pkg.NA()] {
			continue
		}
		if pkg.RangesOverlap(pkg.FlagEQ, r.Pkg.EVR(), constraint.Flag, constraint.EVR) {
			data = append(data, r)
			foundNames[r.Pkg.NA()] = true
		}
	}

	return data, nil
}

// searchElement is used to store the final package values that will get printed
type searchElement struct {
	Name    string `json:"name" yaml:"name"`
	Arch    string `json:"arch" yaml:"arch"`
	Version string `json:"version" yaml:"version"`
	Repo    string `json:"repo" yaml:"repo"`
	Matched string `json:"matched" yaml:"matched"`
}

// searchWriter is used to store and print the search results
type searchWriter struct {
	results     []*Result
	columnWidth uint
}

func (r *searchWriter) write(out io.Writer, format solver.OutputMode) error {
	switch format {
	case solver.JSON:
		return r.WriteJSON(out)
	case solver.YAML:
		return r.WriteYAML(out)
	}
	return r.WriteTable(out)
}

// WriteTable writes the results as a table
func (r *searchWriter) WriteTable(out io.Writer) error {
	if len(r.results) == 0 {
		_, err := out.Write([]byte("No results found\n"))
		if err != nil {
			return fmt.Errorf("unable to write results: %s", err)
		}
		return nil
	}
	table := uitable.New()
	table.MaxColWidth = r.columnWidth
	table.AddRow("NAME", "ARCH", "VERSION", "REPO", "MATCHED")
	for _, r := range r.results {
		table.AddRow(r.Name, r.Pkg.Arch, r.Pkg.EVR().String(), r.Pkg.RepoID, r.Matched)
	}
	_, err := io.WriteString(out, table.String()+"\n")
	return err
}

// WriteJSON prints the results as a json
func (r *searchWriter) WriteJSON(out io.Writer) error {
	b, err := json.Marshal(r.elements())
	if err != nil {
		return err
	}
	_, err = out.Write(append(b, '\n'))
	return err
}

// WriteYAML prints the results as a yaml
func (r *searchWriter) WriteYAML(out io.Writer) error {
	b, err := yaml.Marshal(r.elements())
	if err != nil {
		return err
	}
	_, err = out.Write(b)
	return err
}

// elements creates the final list that will get formatted into the final results
func (r *searchWriter) elements() []searchElement {
	// Initialize the array so no results returns an empty array instead of null
	list := make([]searchElement, 0, len(r.results))
	for _, r := range r.results {
		list = append(list, searchElement{
			Name:    r.Name,
			Arch:    r.Pkg.Arch,
			Version: r.Pkg.EVR().String(),
			Repo:    r.Pkg.RepoID,
			Matched: r.Matched,
		})
	}
	return list
}
