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
	"bytes"
	"fmt"

	"github.com/Masterminds/log-go"
	logcli "github.com/Masterminds/log-go/impl/cli"

	pkg "github.com/rancher-sandbox/depsolve/internal/package"
)

func ExampleSolver_Solve() {

	in := pkg.NewInterner()

	// nothing installed, and a repository where A needs three libraries,
	// available separately or all together in BCD:
	installed := pkg.NewMemorySack()
	available := pkg.NewMemorySack().MustAdd(
		pkg.NewPkgMock(in, "A-1-1.noarch", pkg.Available,
			nil, []string{"LibB", "LibC", "LibD"}, nil, nil, nil),
		pkg.NewPkgMock(in, "B-1-1.noarch", pkg.Available, []string{"LibB"}, nil, nil, nil, nil),
		pkg.NewPkgMock(in, "C-1-1.noarch", pkg.Available, []string{"LibC"}, nil, nil, nil, nil),
		pkg.NewPkgMock(in, "D-1-1.noarch", pkg.Available, []string{"LibD"}, nil, nil, nil, nil),
		pkg.NewPkgMock(in, "BCD-1-1.noarch", pkg.Available,
			[]string{"LibB", "LibC", "LibD"}, nil, nil, nil, nil),
	)

	// create our own Logger that satisfies impl/cli.Logger, but with a buffer for tests
	buf := new(bytes.Buffer)
	logger := logcli.NewStandard()
	logger.InfoOut = buf
	logger.WarnOut = buf
	logger.ErrorOut = buf
	logger.DebugOut = buf
	log.Current = logger
	// logger.Level = log.DebugLevel

	ctx := MustResolutionContext("x86_64")
	db, err := BuildPkgDB(ctx.Arches, installed, available)
	if err != nil {
		fmt.Println(err)
		return
	}
	db.DebugPrintDB(logger)

	s := New(db, ctx, logger)
	s.Solve(NewJobs(JobInstall, "A"))

	fmt.Println(s.FormatOutput(YAML))

	// Output:
	// status: ok
	// transaction:
	// - state: install
	//   package: A-1-1.noarch
	//   repo: ourrepo
	// - state: install
	//   package: BCD-1-1.noarch
	//   repo: ourrepo
	// summary:
	//   install: 2
	//   update: 0
	//   remove: 0
	//   reinstall: 0
	//   downgrade: 0
	//   downloadsize: 0
	// messages: []
}
