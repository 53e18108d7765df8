//
// Copyright 2026 Nestybox, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package process

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"syscall"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {

	// Disable log generation during UT.
	logrus.SetOutput(ioutil.Discard)

	os.Exit(m.Run())
}

func newTestProcessService(t *testing.T) *processService {
	fs := afero.NewMemMapFs()

	files := map[string]os.FileMode{
		"/usr/bin/guest":     0755,
		"/usr/local/bin/cfg": 0644,
		"/opt/bin/guest":     0755,
		"/opt/bin/cfg":       0700,
		"guest-local":        0755,
	}
	for name, mode := range files {
		if err := afero.WriteFile(fs, name, []byte("#!/bin/sh\n"), mode); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
	if err := fs.MkdirAll("/usr/bin/dir", 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	return &processService{
		fs:   fs,
		path: "/usr/local/bin:/usr/bin:/opt/bin",
	}
}

func TestLookPath(t *testing.T) {
	ps := newTestProcessService(t)

	tests := []struct {
		name    string
		file    string
		path    string
		want    string
		wantErr error
	}{
		// Names with a slash are used verbatim.
		{"absolute", "/usr/bin/guest", "", "/usr/bin/guest", nil},
		{"relative with slash", "./guest-local", "", "./guest-local", nil},
		{"absolute missing", "/usr/bin/nope", "", "", os.ErrNotExist},
		{"absolute not executable", "/usr/local/bin/cfg", "", "", os.ErrPermission},
		{"absolute directory", "/usr/bin/dir", "", "", syscall.EISDIR},

		// Bare names go through the search list, first match wins, and
		// non-executable candidates are skipped.
		{"search first match", "guest", "", "/usr/bin/guest", nil},
		{"search skips non-executable", "cfg", "", "/opt/bin/cfg", nil},
		{"search miss", "missing", "", "", ErrNotFound},
		{"search empty element", "guest-local", ":/usr/bin", "./guest-local", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.path != "" {
				ps.path = tt.path
				defer func() { ps.path = "/usr/local/bin:/usr/bin:/opt/bin" }()
			}

			got, err := ps.lookPath(tt.file)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got error %v, want %v", err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLaunchMissingExecutable(t *testing.T) {
	ps := newTestProcessService(t)

	tracee, err := ps.Launch("does-not-exist")
	assert.Nil(t, tracee)

	var le *LaunchError
	if assert.True(t, errors.As(err, &le)) {
		assert.Equal(t, "does-not-exist", le.Path)
		assert.Equal(t, 127, le.ExitCode())
	}
}

func TestLaunchErrorExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found in path", ErrNotFound, 127},
		{"no such file", &os.PathError{Op: "fork/exec", Path: "/x", Err: syscall.ENOENT}, 127},
		{"permission", os.ErrPermission, 126},
		{"exec format", &os.PathError{Op: "fork/exec", Path: "/x", Err: syscall.ENOEXEC}, 126},
		{"wait failure", fmt.Errorf("wait4 on pid 1: %w", syscall.ECHILD), 126},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			le := &LaunchError{Path: "/x", Err: tt.err}
			assert.Equal(t, tt.want, le.ExitCode())
			assert.Contains(t, le.Error(), "failed to launch /x")
			assert.True(t, errors.Is(le, tt.err))
		})
	}
}
