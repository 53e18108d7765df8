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
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/nestybox/sysbox-ptrace/domain"
	"github.com/sirupsen/logrus"

	"golang.org/x/sys/unix"
)

// Largest errno encoded in a syscall return value.
const maxErrno = 4095

// reporter prints one line per intercepted syscall:
//
//	257 openat(0xffffffffffffff9c, 0x7ffd5e1c, 0x241, 0x1b6, 0x0, 0x0)  [denied "/etc/foo"] = -1 (EPERM)
//
// Syscalls that never return (i.e. exit_group) end in "= ?".
type reporter struct {
	out io.Writer
	hds domain.HandlerServiceIface
}

func newReporter(out io.Writer, hds domain.HandlerServiceIface) *reporter {
	return &reporter{out: out, hds: hds}
}

func (r *reporter) report(si *syscallInfo) error {

	var b strings.Builder

	fmt.Fprintf(&b, "%d %s(", si.nr, r.hds.SyscallName(si.nr))
	for i, arg := range si.args {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%#x", arg)
	}
	b.WriteString(")")

	if si.branch != domain.BranchNone {
		fmt.Fprintf(&b, "  [%s", si.branch)
		if si.path != nil {
			fmt.Fprintf(&b, " %q", si.path)
		}
		b.WriteString("]")
	}

	if !si.returned {
		b.WriteString(" = ?")
	} else if si.ret < 0 && si.ret >= -maxErrno {
		fmt.Fprintf(&b, " = %d (%s)", si.ret, errnoName(syscall.Errno(-si.ret)))
	} else {
		fmt.Fprintf(&b, " = %d", si.ret)
	}
	b.WriteString("\n")

	if _, err := io.WriteString(r.out, b.String()); err != nil {
		return fmt.Errorf("failed to write trace output: %w", err)
	}

	return nil
}

func errnoName(e syscall.Errno) string {
	if name := unix.ErrnoName(e); name != "" {
		return name
	}
	return fmt.Sprintf("errno %d", int(e))
}

// traceStats accumulates per-session counters.
type traceStats struct {
	syscalls    uint64
	inspected   uint64
	fastPath    uint64
	denied      uint64
	windowBytes uint64
}

func (s *traceStats) record(si *syscallInfo) {
	s.syscalls++

	switch si.branch {
	case domain.BranchReadOnly, domain.BranchSetup:
		s.fastPath++
	case domain.BranchConfined:
		s.inspected++
	case domain.BranchDenied:
		s.inspected++
		s.denied++
	}
}

func (s *traceStats) log(pid, exitCode int) {
	logrus.Infof("Tracee %d finished with exit code %d: %s syscalls, %s path checks (%s denied, %s fast-path), %s inspected",
		pid,
		exitCode,
		humanize.Comma(int64(s.syscalls)),
		humanize.Comma(int64(s.inspected)),
		humanize.Comma(int64(s.denied)),
		humanize.Comma(int64(s.fastPath)),
		humanize.Bytes(s.windowBytes))
}
