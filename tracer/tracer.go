//
// Copyright 2019-2026 Nestybox, Inc.
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
	"errors"
	"io"
	"runtime"

	"github.com/nestybox/sysbox-ptrace/domain"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"golang.org/x/sys/unix"
)

// SyscallTracer launches a program under ptrace and checks every open-class
// syscall it issues against the policy. External packages will solely rely on
// this struct for their syscall-tracing demands.
type SyscallTracer struct {
	prs   domain.ProcessServiceIface // for tracee creation
	hds   domain.HandlerServiceIface // open-class syscall handlers
	pls   domain.PolicyServiceIface  // path policy
	mp    memParser                  // memParser to utilize for tracee interactions
	rep   *reporter                  // per-syscall console lines
	stats traceStats
}

func NewSyscallTracer(
	prs domain.ProcessServiceIface,
	hds domain.HandlerServiceIface,
	pls domain.PolicyServiceIface,
	fs afero.Fs,
	memParserKind string,
	out io.Writer) (*SyscallTracer, error) {

	mp, err := newMemParser(memParserKind, fs)
	if err != nil {
		return nil, err
	}

	return &SyscallTracer{
		prs: prs,
		hds: hds,
		pls: pls,
		mp:  mp,
		rep: newReporter(out, hds),
	}, nil
}

// Run launches the executable at path and traces it until it terminates. The
// returned code is the tracee's exit status (128+signal if it was killed).
// Launch failures come back as *process.LaunchError; any other error means
// the tracer lost control of the tracee, which is killed.
func (t *SyscallTracer) Run(path string) (int, error) {

	// ptrace requests are only honored from the thread that attached.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	tracee, err := t.prs.Launch(path)
	if err != nil {
		return 0, err
	}

	code, err := t.trace(tracee)
	if err != nil {
		if kerr := tracee.Kill(); kerr != nil && !errors.Is(kerr, unix.ESRCH) {
			logrus.Warnf("Could not kill tracee %d: %v", tracee.Pid(), kerr)
		}
		return 0, err
	}

	return code, nil
}

// trace drives the stop/resume cycle of a freshly launched tracee.
func (t *SyscallTracer) trace(tracee domain.TraceeIface) (int, error) {

	var (
		h   = newHandshake(tracee)
		si  *syscallInfo // syscall in flight between its entry and exit stops
		err error
	)

	for {
		state, rerr := h.resume()
		if rerr != nil {
			return 0, rerr
		}

		logrus.Debugf("Tracee %d: %v", tracee.Pid(), state)

		switch state {
		case domain.TraceeEntryStopped:
			si, err = t.syscallEnter(h)
		case domain.TraceeExitStopped:
			if err = t.syscallExit(h, si); err == nil {
				si = nil
			}
		}

		if errors.Is(err, ErrTraceeTerminated) || h.State() == domain.TraceeTerminated {
			return t.finish(h, si)
		}
		if err != nil {
			return 0, err
		}
	}
}

// syscallEnter collects the syscall's number and arguments and, for the
// open-class, decides its verdict.
func (t *SyscallTracer) syscallEnter(h *handshake) (*syscallInfo, error) {

	regs, err := h.regs()
	if err != nil {
		return nil, err
	}

	si := newSyscallInfo(regs)

	hdlr, ok := t.hds.LookupHandler(regs.Syscall)
	if !ok {
		return si, nil
	}

	return si, t.processOpen(h, hdlr, regs, si)
}

// syscallExit picks up the syscall's result. Denied calls have already been
// serviced by the kernel at this point; only the result seen by the tracee is
// replaced with -EPERM.
func (t *SyscallTracer) syscallExit(h *handshake, si *syscallInfo) error {

	regs, err := h.regs()
	if err != nil {
		return err
	}

	if si == nil {
		si = newSyscallInfo(regs)
	}
	ret := regs.Ret

	if si.denied() {
		override := *regs
		override.Ret = -int64(unix.EPERM)

		if err := h.setRegs(&override); err != nil {
			return err
		}

		logrus.Debugf("Tracee %d: %s() returned %d, overridden with %d",
			h.tracee.Pid(), t.hds.SyscallName(si.nr), regs.Ret, override.Ret)

		ret = override.Ret
	}

	si.ret = ret
	si.returned = true
	t.stats.record(si)

	return t.rep.report(si)
}

// finish reports a syscall that never returned (i.e. exit_group) and wraps
// up the session.
func (t *SyscallTracer) finish(h *handshake, si *syscallInfo) (int, error) {

	if si != nil {
		t.stats.record(si)
		if err := t.rep.report(si); err != nil {
			return 0, err
		}
	}

	code := h.exitCode()
	t.stats.log(h.tracee.Pid(), code)

	return code, nil
}
