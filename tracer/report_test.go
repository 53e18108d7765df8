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

package tracer

import (
	"bytes"
	"testing"

	"github.com/nestybox/sysbox-ptrace/domain"
	"github.com/nestybox/sysbox-ptrace/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/sys/unix"
)

func TestReporter_Report(t *testing.T) {
	hds, err := handler.NewHandlerService(handler.DefaultHandlers(), testResolver)
	require.NoError(t, err)

	tests := []struct {
		name string
		si   syscallInfo
		want string
	}{
		{
			name: "plain",
			si:   syscallInfo{nr: nrGetpid, ret: 4242, returned: true},
			want: "39 getpid(0x0, 0x0, 0x0, 0x0, 0x0, 0x0) = 4242\n",
		},
		{
			name: "denied",
			si: syscallInfo{
				nr:       nrOpenat,
				args:     [domain.SyscallArgs]uint64{0xffffffffffffff9c, 0x10010, 0x241, 0x1b6},
				branch:   domain.BranchDenied,
				path:     []byte("/etc/foo"),
				verdict:  domain.Verdict{Action: domain.Deny},
				ret:      -int64(unix.EPERM),
				returned: true,
			},
			want: "257 openat(0xffffffffffffff9c, 0x10010, 0x241, 0x1b6, 0x0, 0x0)  [denied \"/etc/foo\"] = -1 (EPERM)\n",
		},
		{
			name: "fast path",
			si: syscallInfo{
				nr:       nrOpen,
				args:     [domain.SyscallArgs]uint64{0x10010},
				branch:   domain.BranchReadOnly,
				ret:      3,
				returned: true,
			},
			want: "2 open(0x10010, 0x0, 0x0, 0x0, 0x0, 0x0)  [read-only] = 3\n",
		},
		{
			name: "confined with error",
			si: syscallInfo{
				nr:       nrOpen,
				args:     [domain.SyscallArgs]uint64{0x10010, 0x41},
				branch:   domain.BranchConfined,
				path:     []byte("/tmp/none/x"),
				ret:      -int64(unix.ENOENT),
				returned: true,
			},
			want: "2 open(0x10010, 0x41, 0x0, 0x0, 0x0, 0x0)  [temp-confined \"/tmp/none/x\"] = -2 (ENOENT)\n",
		},
		{
			name: "never returned",
			si:   syscallInfo{nr: nrExitGroup},
			want: "231 exit_group(0x0, 0x0, 0x0, 0x0, 0x0, 0x0) = ?\n",
		},
		{
			name: "unknown syscall",
			si:   syscallInfo{nr: 999, ret: -int64(unix.ENOSYS), returned: true},
			want: "999 syscall_999(0x0, 0x0, 0x0, 0x0, 0x0, 0x0) = -38 (ENOSYS)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r := newReporter(&out, hds)

			require.NoError(t, r.report(&tt.si))
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestTraceStats_Record(t *testing.T) {
	var s traceStats

	for _, b := range []domain.Branch{
		domain.BranchNone,
		domain.BranchReadOnly,
		domain.BranchSetup,
		domain.BranchConfined,
		domain.BranchDenied,
		domain.BranchDenied,
	} {
		s.record(&syscallInfo{branch: b})
	}

	assert.Equal(t, uint64(6), s.syscalls)
	assert.Equal(t, uint64(2), s.fastPath)
	assert.Equal(t, uint64(3), s.inspected)
	assert.Equal(t, uint64(2), s.denied)
}
