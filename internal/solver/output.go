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

package solver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/docker/go-units"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// OutputMode selects how results are rendered. The zero value is Table.
type OutputMode int

const (
	Table OutputMode = iota
	JSON
	YAML
)

var outputModeNames = map[OutputMode]string{
	JSON:  "json",
	YAML:  "yaml",
	Table: "table",
}

func (o OutputMode) String() string {
	return outputModeNames[o]
}

// OutputModes returns the names ParseOutputMode accepts.
func OutputModes() []string {
	return []string{"table", "json", "yaml"}
}

// ParseOutputMode accepts "json", "yaml" and "table".
func ParseOutputMode(s string) (OutputMode, error) {
	switch strings.ToLower(s) {
	case "json":
		return JSON, nil
	case "yaml":
		return YAML, nil
	case "table", "":
		return Table, nil
	}
	return Table, errors.Errorf("unknown output format %q", s)
}

// MemberResult is a transaction member as rendered.
type MemberResult struct {
	State     string   `json:"state" yaml:"state"`
	Package   string   `json:"package" yaml:"package"`
	Repo      string   `json:"repo" yaml:"repo"`
	Size      int64    `json:"size,omitempty" yaml:"size,omitempty"`
	RelatedTo []string `json:"relatedTo,omitempty" yaml:"relatedto,omitempty"`
}

// Summary counts what the transaction does.
type Summary struct {
	Install      int   `json:"install" yaml:"install"`
	Update       int   `json:"update" yaml:"update"`
	Remove       int   `json:"remove" yaml:"remove"`
	Reinstall    int   `json:"reinstall" yaml:"reinstall"`
	Downgrade    int   `json:"downgrade" yaml:"downgrade"`
	DownloadSize int64 `json:"downloadSize" yaml:"downloadsize"`
}

// PkgResultSet contains the status outcome of solving and the transaction.
// It will be marshalled into Yaml and Json.
type PkgResultSet struct {
	Status      ResultCode     `json:"status" yaml:"status"`
	Transaction []MemberResult `json:"transaction" yaml:"transaction"`
	Summary     Summary        `json:"summary" yaml:"summary"`
	Failures    []Failure      `json:"failures,omitempty" yaml:"failures,omitempty"`
	Messages    []string       `json:"messages" yaml:"messages"`
}

// ResultSet flattens the result for rendering.
func (r *Result) ResultSet() PkgResultSet {
	rs := PkgResultSet{
		Status:      r.Code,
		Transaction: []MemberResult{},
		Failures:    r.Failures,
		Messages:    append([]string{}, r.Messages...),
	}
	if r.Transaction == nil {
		return rs
	}
	for _, m := range r.Transaction.Members() {
		mr := MemberResult{
			State:   m.State.String(),
			Package: m.Pkg.String(),
			Repo:    m.Pkg.RepoID,
		}
		for _, t := range m.RelatedTo {
			mr.RelatedTo = append(mr.RelatedTo, t.String())
		}
		switch m.State {
		case Install, Obsoleting:
			rs.Summary.Install++
		case Update:
			rs.Summary.Update++
		case Erase, Obsoleted:
			rs.Summary.Remove++
		case Reinstall:
			rs.Summary.Reinstall++
		case Downgrade:
			rs.Summary.Downgrade++
		}
		if m.State.Adds() {
			mr.Size = m.Pkg.Size
			rs.Summary.DownloadSize += m.Pkg.Size
		}
		rs.Transaction = append(rs.Transaction, mr)
	}
	return rs
}

// FormatOutput renders the outcome of the last Solve.
func (s *Solver) FormatOutput(t OutputMode) (output string) {
	if s.Result == nil {
		return ""
	}
	return s.Result.Format(t)
}

func (r *Result) Format(t OutputMode) string {
	rs := r.ResultSet()
	var sb strings.Builder
	switch t {
	case Table:
		sb.WriteString(fmt.Sprintf("Status: %s\n", rs.Status))
		if len(rs.Transaction) > 0 {
			table := uitable.New()
			table.AddRow("STATE", "PACKAGE", "REPO", "SIZE", "RELATED")
			for _, m := range rs.Transaction {
				size := ""
				if m.Size > 0 {
					size = units.HumanSize(float64(m.Size))
				}
				table.AddRow(m.State, m.Package, m.Repo, size, strings.Join(m.RelatedTo, ", "))
			}
			sb.WriteString(table.String())
			sb.WriteString("\n\nTransaction Summary\n")
			summary := uitable.New()
			for _, row := range []struct {
				label string
				n     int
			}{
				{"Install", rs.Summary.Install},
				{"Update", rs.Summary.Update},
				{"Reinstall", rs.Summary.Reinstall},
				{"Downgrade", rs.Summary.Downgrade},
				{"Remove", rs.Summary.Remove},
			} {
				if row.n > 0 {
					summary.AddRow(row.label, fmt.Sprintf("%d Package(s)", row.n))
				}
			}
			sb.WriteString(summary.String())
			sb.WriteString("\n")
			sb.WriteString(fmt.Sprintf("Total download size: %s\n", units.HumanSize(float64(rs.Summary.DownloadSize))))
		}
		if len(rs.Messages) > 0 {
			sb.WriteString("Messages:\n")
			for _, msg := range rs.Messages {
				sb.WriteString(fmt.Sprintf("\t%s\n", msg))
			}
		}
	case YAML:
		o, err := yaml.Marshal(rs)
		if err != nil {
			return fmt.Sprintf("error: %v\n", err)
		}
		sb.Write(o)
	case JSON:
		o, err := json.Marshal(rs)
		if err != nil {
			return fmt.Sprintf("{\"error\": %q}\n", err.Error())
		}
		sb.Write(o)
		sb.WriteString("\n")
	}
	return sb.String()
}
