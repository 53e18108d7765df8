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

package config_test

import (
	"fmt"
	"io/ioutil"
	"os"
	"testing"

	"github.com/nestybox/sysbox-ptrace/config"
	"github.com/nestybox/sysbox-ptrace/handler"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {

	// Disable log generation during UT.
	logrus.SetOutput(ioutil.Discard)

	os.Exit(m.Run())
}

type tableResolver map[string]int64

func (r tableResolver) SyscallNumber(name string) (int64, error) {
	if nr, ok := r[name]; ok {
		return nr, nil
	}
	return 0, fmt.Errorf("unknown syscall %q", name)
}

func (r tableResolver) SyscallName(nr int64) (string, error) {
	return "", fmt.Errorf("unknown syscall %d", nr)
}

var testResolver = tableResolver{"open": 2, "creat": 85, "openat": 257}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    *config.Config
		wantErr bool
	}{
		{
			name:    "empty file",
			content: "",
			want:    config.Default(),
		},
		{
			name: "full",
			content: `
mem-parser: procfs
output: /var/log/trace.log
policy:
  confined-marker: /scratch/
  inspect-limit: 256
syscalls:
  creat:
    enabled: false
`,
			want: func() *config.Config {
				c := config.Default()
				c.MemParser = "procfs"
				c.Output = "/var/log/trace.log"
				c.Policy.ConfinedMarker = "/scratch/"
				c.Policy.InspectLimit = 256
				disabled := false
				c.Syscalls = map[string]config.SyscallConfig{"creat": {Enabled: &disabled}}
				return c
			}(),
		},
		{
			name:    "partial keeps defaults",
			content: "mem-parser: iovec\n",
			want: func() *config.Config {
				c := config.Default()
				c.MemParser = "iovec"
				return c
			}(),
		},
		{name: "unknown key", content: "mem_parser: iovec\n", wantErr: true},
		{name: "unknown mem-parser", content: "mem-parser: kmem\n", wantErr: true},
		{name: "empty marker", content: "policy:\n  confined-marker: \"\"\n", wantErr: true},
		{name: "negative limit", content: "policy:\n  inspect-limit: -1\n", wantErr: true},
		{name: "malformed", content: "policy: [\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/etc/sysbox-ptrace.yaml", []byte(tt.content), 0644))

			got, err := config.Load(fs, "/etc/sysbox-ptrace.yaml")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(afero.NewMemMapFs(), "/nonexistent.yaml")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefault_Valid(t *testing.T) {
	assert.NoError(t, config.Default().Validate())
}

func TestApplyHandlers(t *testing.T) {
	hds, err := handler.NewHandlerService(handler.DefaultHandlers(), testResolver)
	require.NoError(t, err)

	off, on := false, true

	cfg := config.Default()
	cfg.Syscalls = map[string]config.SyscallConfig{
		"openat": {Enabled: &off},
		"open":   {Enabled: &on},
		"creat":  {},
	}
	require.NoError(t, cfg.ApplyHandlers(hds))

	_, ok := hds.LookupHandler(257)
	assert.False(t, ok)
	_, ok = hds.LookupHandler(2)
	assert.True(t, ok)
	_, ok = hds.LookupHandler(85)
	assert.True(t, ok)

	cfg.Syscalls = map[string]config.SyscallConfig{"mount": {Enabled: &on}}
	assert.Error(t, cfg.ApplyHandlers(hds))
}
