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

	"github.com/nestybox/sysbox-ptrace/domain"
	"github.com/sirupsen/logrus"

	"golang.org/x/sys/unix"
)

const (
	// Open flags allowed without looking at the path.
	readOnlyFlags = unix.O_RDONLY
	setupFlags    = unix.O_RDONLY | unix.O_CLOEXEC
)

// syscallInfo holds what is known about one syscall between its entry and exit
// stops.
type syscallInfo struct {
	nr       int64
	args     [domain.SyscallArgs]uint64
	branch   domain.Branch
	path     []byte
	verdict  domain.Verdict
	ret      int64
	returned bool
}

func newSyscallInfo(regs *domain.Regs) *syscallInfo {
	return &syscallInfo{
		nr:   regs.Syscall,
		args: regs.Args,
	}
}

func (si *syscallInfo) denied() bool {
	return !si.verdict.Allowed()
}

// processOpen classifies an open-class syscall at its entry stop. Read-only
// and setup opens are allowed as is; anything else is decided by the policy
// over the path argument.
func (t *SyscallTracer) processOpen(
	h *handshake,
	hdlr domain.SyscallHandlerIface,
	regs *domain.Regs,
	si *syscallInfo) error {

	switch hdlr.OpenFlags(regs) {
	case readOnlyFlags:
		si.branch = domain.BranchReadOnly
		return nil
	case setupFlags:
		si.branch = domain.BranchSetup
		return nil
	}

	limit := t.pls.InspectLimit()

	window, err := h.readPath(t.mp, hdlr.PathAddr(regs), limit)
	if err != nil {
		return err
	}

	t.stats.windowBytes += uint64(len(window))

	si.path = pathOf(window, limit)
	si.verdict = t.pls.Evaluate(window)

	if si.verdict.Allowed() {
		si.branch = domain.BranchConfined
	} else {
		si.branch = domain.BranchDenied
		logrus.Debugf("Denying %s() from pid %d: %s",
			hdlr.GetName(), h.tracee.Pid(), si.verdict.Reason)
	}

	return nil
}

// pathOf extracts the printable path from a memory window.
func pathOf(window []byte, limit int) []byte {
	if i := bytes.IndexByte(window, 0); i >= 0 {
		window = window[:i]
	}
	if len(window) > limit {
		window = window[:limit]
	}
	return window
}
