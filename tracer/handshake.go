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
	"errors"
	"fmt"

	"github.com/nestybox/sysbox-ptrace/domain"
	"github.com/sirupsen/logrus"

	"golang.org/x/sys/unix"
)

var (
	ErrTraceeTerminated = errors.New("tracee terminated")
	ErrTraceeNotStopped = errors.New("tracee not stopped")
)

// Stop signal reported for syscall-stops once PTRACE_O_TRACESYSGOOD is set.
const syscallStopSignal = unix.SIGTRAP | 0x80

// handshake is the stop/resume protocol between the tracer and its single
// tracee. It owns the tracee's state and is the only path through which
// registers and memory are accessed, so that they are never touched while
// the tracee runs.
type handshake struct {
	tracee  domain.TraceeIface
	state   domain.TraceeState
	pending unix.Signal     // signal to deliver on the next resume
	status  unix.WaitStatus // wait status once terminated
}

// newHandshake takes over a tracee sitting at its post-exec stop. That stop is
// accounted as a syscall exit (execve's), so the next stop is an entry.
func newHandshake(t domain.TraceeIface) *handshake {
	return &handshake{
		tracee: t,
		state:  domain.TraceeExitStopped,
	}
}

func (h *handshake) State() domain.TraceeState {
	return h.state
}

func (h *handshake) stopped() bool {
	return h.state == domain.TraceeEntryStopped || h.state == domain.TraceeExitStopped
}

// resume lets the tracee run until its next syscall-stop and blocks until it
// gets there (or terminates). Signal-delivery stops are passed through to the
// tracee and ptrace-event stops are skipped; neither counts as a syscall
// boundary. There is no timeout.
func (h *handshake) resume() (domain.TraceeState, error) {

	if h.state == domain.TraceeTerminated {
		return h.state, ErrTraceeTerminated
	}
	if !h.stopped() {
		return h.state, ErrTraceeNotStopped
	}

	prev := h.state
	next := domain.TraceeEntryStopped
	if prev == domain.TraceeEntryStopped {
		next = domain.TraceeExitStopped
	}

	for {
		if err := h.tracee.Resume(h.pending); err != nil {
			if errors.Is(err, unix.ESRCH) {
				return h.reap()
			}
			return h.state, fmt.Errorf("ptrace(SYSCALL) on pid %d: %w", h.tracee.Pid(), err)
		}
		h.pending = 0
		h.state = domain.TraceeRunning

		ws, err := h.tracee.Wait()
		if err != nil {
			if errors.Is(err, unix.ECHILD) {
				h.state = domain.TraceeTerminated
				return h.state, nil
			}
			return h.state, fmt.Errorf("wait4 on pid %d: %w", h.tracee.Pid(), err)
		}

		switch {
		case ws.Exited() || ws.Signaled():
			h.status = ws
			h.state = domain.TraceeTerminated
			logrus.Debugf("Tracee %d terminated (status %#x)", h.tracee.Pid(), uint32(ws))
			return h.state, nil

		case !ws.Stopped():
			return h.state, fmt.Errorf("unexpected wait status %#x for pid %d",
				uint32(ws), h.tracee.Pid())

		case ws.StopSignal() == syscallStopSignal:
			h.state = next
			return h.state, nil

		case ws.StopSignal() == unix.SIGTRAP && ws.TrapCause() > 0:
			logrus.Debugf("Tracee %d: ptrace event %d", h.tracee.Pid(), ws.TrapCause())

		default:
			h.pending = ws.StopSignal()
			logrus.Debugf("Tracee %d: forwarding signal %v", h.tracee.Pid(), h.pending)
		}

		// Still on the same side of the syscall boundary.
		h.state = prev
	}
}

// reap collects the final status of a tracee that vanished from under a
// ptrace request.
func (h *handshake) reap() (domain.TraceeState, error) {

	for {
		ws, err := h.tracee.Wait()
		if err != nil {
			if errors.Is(err, unix.ECHILD) {
				break
			}
			return h.state, fmt.Errorf("wait4 on pid %d: %w", h.tracee.Pid(), err)
		}
		if ws.Exited() || ws.Signaled() {
			h.status = ws
			break
		}

		// Stopped but unreachable through ptrace; make sure it goes away.
		h.tracee.Kill()
	}

	h.state = domain.TraceeTerminated

	return h.state, nil
}

// terminated maps a "no such process" failure to the Terminated state; any
// other failure is returned wrapped.
func (h *handshake) terminated(op string, err error) error {
	if errors.Is(err, unix.ESRCH) {
		if _, rerr := h.reap(); rerr != nil {
			return rerr
		}
		return ErrTraceeTerminated
	}
	return fmt.Errorf("%s on pid %d: %w", op, h.tracee.Pid(), err)
}

// regs takes a fresh register snapshot of the stopped tracee.
func (h *handshake) regs() (*domain.Regs, error) {

	if !h.stopped() {
		return nil, h.notStopped()
	}

	regs, err := h.tracee.GetRegs()
	if err != nil {
		return nil, h.terminated("ptrace(GETREGS)", err)
	}

	return regs, nil
}

func (h *handshake) setRegs(regs *domain.Regs) error {

	if !h.stopped() {
		return h.notStopped()
	}

	if err := h.tracee.SetRegs(regs); err != nil {
		return h.terminated("ptrace(SETREGS)", err)
	}

	return nil
}

// readPath recovers the path window at addr through mp.
func (h *handshake) readPath(mp memParser, addr uint64, limit int) ([]byte, error) {

	if !h.stopped() {
		return nil, h.notStopped()
	}

	window, err := mp.ReadPathWindow(h.tracee, addr, limit)
	if err != nil {
		return nil, h.terminated("memory read", err)
	}

	return window, nil
}

func (h *handshake) notStopped() error {
	if h.state == domain.TraceeTerminated {
		return ErrTraceeTerminated
	}
	return ErrTraceeNotStopped
}

// exitCode is the status the tracer reports for a terminated tracee: its exit
// status, or 128 plus the terminating signal.
func (h *handshake) exitCode() int {
	switch {
	case h.status.Exited():
		return h.status.ExitStatus()
	case h.status.Signaled():
		return 128 + int(h.status.Signal())
	}
	return 0
}
