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

package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"

	"github.com/rancher-sandbox/depsolve/pkg/cli"
)

// cmdTestCase describes a test case run against a copy of testdata/root.
// In cmd, {root} is replaced by the install root.
type cmdTestCase struct {
	name      string
	cmd       string
	wantError bool
	// contains are substrings expected in the output.
	contains []string
	// excludes are substrings that must not be in the output.
	excludes []string
	// Number of repeats (in case a feature was previously flaky and the test checks
	// it's now stably producing identical results). 0 means test is run exactly once.
	repeat int
}

func runTestCmd(t *testing.T, tests []cmdTestCase) {
	t.Helper()
	for _, tt := range tests {
		for i := 0; i <= tt.repeat; i++ {
			t.Run(tt.name, func(t *testing.T) {
				defer resetEnv()()

				root := testRoot(t)
				cmd := strings.ReplaceAll(tt.cmd, "{root}", root)
				t.Logf("running cmd (attempt %d): %s", i+1, cmd)
				_, out, err := executeCommandStdinC(cmd)
				if (err != nil) != tt.wantError {
					t.Errorf("expected error %v, got '%v'\n%s", tt.wantError, err, out)
				}
				for _, s := range tt.contains {
					if !strings.Contains(out, s) {
						t.Errorf("expected %q in output:\n%s", s, out)
					}
				}
				for _, s := range tt.excludes {
					if strings.Contains(out, s) {
						t.Errorf("unexpected %q in output:\n%s", s, out)
					}
				}
			})
		}
	}
}

func executeCommandStdinC(cmd string) (*cobra.Command, string, error) {
	return executeCommandWithInput(cmd, nil)
}

func executeCommandWithInput(cmd string, in io.Reader) (*cobra.Command, string, error) {

	args, err := shellwords.Parse(cmd)

	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	root, err := newRootCmd(buf, args)
	if err != nil {
		return nil, "", err
	}

	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	if in != nil {
		root.SetIn(in)
	}

	c, err := root.ExecuteC()
	result := buf.String()

	return c, result, err
}

func resetEnv() func() {
	origEnv := os.Environ()
	return func() {
		os.Clearenv()
		for _, pair := range origEnv {
			kv := strings.SplitN(pair, "=", 2)
			os.Setenv(kv[0], kv[1])
		}
		settings = cli.New()
	}
}

// testRoot copies testdata/root, so that lock files and database writes
// stay out of the tree.
func testRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	err := filepath.Walk("testdata/root", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel("testdata/root", path)
		if err != nil {
			return err
		}
		target := filepath.Join(root, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target)
	})
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func copyFile(src, dst string) error {
	i, err := os.Open(src)
	if err != nil {
		return err
	}
	defer i.Close()

	o, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer o.Close()

	_, err = io.Copy(o, i)
	return err
}
