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
	"io/ioutil"
	"os"
	"testing"

	"github.com/nestybox/sysbox-ptrace/domain"
	"github.com/sirupsen/logrus"

	"golang.org/x/sys/unix"
)

func TestMain(m *testing.M) {

	// Disable log generation during UT.
	logrus.SetOutput(ioutil.Discard)

	os.Exit(m.Run())
}

// amd64 syscall numbers used throughout the tests.
const (
	nrRead      = 0
	nrWrite     = 1
	nrOpen      = 2
	nrGetpid    = 39
	nrCreat     = 85
	nrExitGroup = 231
	nrOpenat    = 257
)

type tableResolver map[string]int64

func (r tableResolver) SyscallNumber(name string) (int64, error) {
	if nr, ok := r[name]; ok {
		return nr, nil
	}
	return 0, fmt.Errorf("unknown syscall %q", name)
}

func (r tableResolver) SyscallName(nr int64) (string, error) {
	for name, n := range r {
		if n == nr {
			return name, nil
		}
	}
	return "", fmt.Errorf("unknown syscall %d", nr)
}

var testResolver = tableResolver{
	"read":       nrRead,
	"write":      nrWrite,
	"open":       nrOpen,
	"getpid":     nrGetpid,
	"creat":      nrCreat,
	"exit_group": nrExitGroup,
	"openat":     nrOpenat,
}

//
// Wait status encoding.
//

func syscallStopStatus() unix.WaitStatus {
	return unix.WaitStatus(uint32(syscallStopSignal)<<8 | 0x7f)
}

func signalStopStatus(sig unix.Signal) unix.WaitStatus {
	return unix.WaitStatus(uint32(sig)<<8 | 0x7f)
}

func eventStopStatus(event int) unix.WaitStatus {
	return unix.WaitStatus((uint32(unix.SIGTRAP)|uint32(event)<<8)<<8 | 0x7f)
}

func exitStatus(code int) unix.WaitStatus {
	return unix.WaitStatus(uint32(code) << 8)
}

func killedStatus(sig unix.Signal) unix.WaitStatus {
	return unix.WaitStatus(uint32(sig))
}

// Tracee memory layout.
const (
	memBase = 0x10000
	memSize = 0x2000
)

type fakeStop struct {
	status unix.WaitStatus
	regs   domain.Regs
}

// fakeTracee replays a scripted sequence of stops. Registers of the current
// stop can be read and overwritten; memory is a flat zero-filled region.
type fakeTracee struct {
	pid   int
	stops []fakeStop
	next  int
	cur   *fakeStop
	mem   []byte

	resumed []unix.Signal // signals passed on every resume
	written []domain.Regs // register sets written back
	peeks   int
	killed  bool

	resumeErr error
	regsErr   error
	setErr    error
	peekErr   error
}

func newFakeTracee() *fakeTracee {
	return &fakeTracee{
		pid: 4242,
		mem: make([]byte, memSize),
	}
}

// poke stores a NUL-terminated string at addr.
func (ft *fakeTracee) poke(addr uint64, s string) uint64 {
	copy(ft.mem[addr-memBase:], append([]byte(s), 0))
	return addr
}

func (ft *fakeTracee) stop(status unix.WaitStatus) *fakeTracee {
	ft.stops = append(ft.stops, fakeStop{status: status})
	return ft
}

// call scripts the entry and exit stops of a syscall returning ret.
func (ft *fakeTracee) call(nr int64, ret int64, args ...uint64) *fakeTracee {
	var regs domain.Regs

	regs.Syscall = nr
	copy(regs.Args[:], args)

	regs.Ret = -int64(unix.ENOSYS)
	ft.stops = append(ft.stops, fakeStop{status: syscallStopStatus(), regs: regs})

	regs.Ret = ret
	ft.stops = append(ft.stops, fakeStop{status: syscallStopStatus(), regs: regs})

	return ft
}

// enter scripts an entry stop with no matching exit.
func (ft *fakeTracee) enter(nr int64, args ...uint64) *fakeTracee {
	var regs domain.Regs

	regs.Syscall = nr
	copy(regs.Args[:], args)
	regs.Ret = -int64(unix.ENOSYS)

	ft.stops = append(ft.stops, fakeStop{status: syscallStopStatus(), regs: regs})

	return ft
}

func (ft *fakeTracee) exit(code int) *fakeTracee {
	return ft.stop(exitStatus(code))
}

func (ft *fakeTracee) Pid() int {
	return ft.pid
}

func (ft *fakeTracee) Resume(sig unix.Signal) error {
	if ft.resumeErr != nil {
		return ft.resumeErr
	}
	ft.resumed = append(ft.resumed, sig)
	ft.cur = nil
	return nil
}

func (ft *fakeTracee) Wait() (unix.WaitStatus, error) {
	if ft.next >= len(ft.stops) {
		return 0, unix.ECHILD
	}
	ft.cur = &ft.stops[ft.next]
	ft.next++
	return ft.cur.status, nil
}

func (ft *fakeTracee) GetRegs() (*domain.Regs, error) {
	if ft.regsErr != nil {
		return nil, ft.regsErr
	}
	if ft.cur == nil {
		return nil, errors.New("GetRegs on a running tracee")
	}
	regs := ft.cur.regs
	return &regs, nil
}

func (ft *fakeTracee) SetRegs(regs *domain.Regs) error {
	if ft.setErr != nil {
		return ft.setErr
	}
	if ft.cur == nil {
		return errors.New("SetRegs on a running tracee")
	}
	ft.cur.regs = *regs
	ft.written = append(ft.written, *regs)
	return nil
}

func (ft *fakeTracee) PeekData(addr uint64, out []byte) (int, error) {
	ft.peeks++
	if ft.peekErr != nil {
		return 0, ft.peekErr
	}
	if ft.cur == nil {
		return 0, errors.New("PeekData on a running tracee")
	}
	if addr < memBase || addr+uint64(len(out)) > memBase+memSize {
		return 0, unix.EIO
	}
	return copy(out, ft.mem[addr-memBase:]), nil
}

func (ft *fakeTracee) Kill() error {
	ft.killed = true
	return nil
}
