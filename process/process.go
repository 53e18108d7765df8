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

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/nestybox/sysbox-ptrace/domain"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"golang.org/x/sys/unix"
)

// Options set on every tracee right after its initial stop. EXITKILL ensures
// the tracee never outlives (and thus never escapes) its tracer.
const traceOptions = unix.PTRACE_O_EXITKILL |
	unix.PTRACE_O_TRACESYSGOOD |
	unix.PTRACE_O_TRACEEXEC

// LaunchError reports a tracee that could not be brought up to its initial
// trace-stop. It is kept apart from a tracee's own (sandboxed) exit.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ExitCode follows the shell convention: 127 for a missing executable, 126
// for one that exists but cannot be executed.
func (e *LaunchError) ExitCode() int {
	if errors.Is(e.Err, ErrNotFound) || errors.Is(e.Err, os.ErrNotExist) {
		return 127
	}
	return 126
}

type processService struct {
	fs     afero.Fs  // fs used to locate executables
	path   string    // search list for names without a slash
	stdin  io.Reader // tracee stdio
	stdout io.Writer
	stderr io.Writer
}

func NewProcessService(fs afero.Fs) domain.ProcessServiceIface {
	return &processService{
		fs:     fs,
		path:   os.Getenv("PATH"),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// Launch creates a traced child running the executable at path, with the
// executable's basename as its sole argument. On return the child is halted
// right after image replacement.
//
// The calling goroutine must be locked to its OS thread (runtime.LockOSThread)
// and must remain so for as long as the tracee is controlled, as ptrace
// requests are only honored from the thread that became the tracer.
func (ps *processService) Launch(path string) (domain.TraceeIface, error) {

	exe, err := ps.lookPath(path)
	if err != nil {
		return nil, &LaunchError{Path: path, Err: err}
	}

	cmd := &exec.Cmd{
		Path:   exe,
		Args:   []string{filepath.Base(path)},
		Stdin:  ps.stdin,
		Stdout: ps.stdout,
		Stderr: ps.stderr,
		SysProcAttr: &syscall.SysProcAttr{
			Ptrace: true,
		},
	}

	// The child requests tracing (PTRACE_TRACEME) and execs. An exec failure
	// makes the child exit right away and is reported back here.
	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Path: path, Err: err}
	}

	pid := cmd.Process.Pid

	// Synchronize with the post-exec trap.
	var ws unix.WaitStatus
	for {
		_, err = unix.Wait4(pid, &ws, unix.WALL, nil)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		unix.Kill(pid, unix.SIGKILL)
		return nil, &LaunchError{Path: path, Err: fmt.Errorf("wait4 on pid %d: %w", pid, err)}
	}
	if !ws.Stopped() {
		return nil, &LaunchError{
			Path: path,
			Err:  fmt.Errorf("pid %d did not stop after exec (status %#x)", pid, uint32(ws)),
		}
	}

	if err := unix.PtraceSetOptions(pid, traceOptions); err != nil {
		unix.Kill(pid, unix.SIGKILL)
		return nil, &LaunchError{Path: path, Err: fmt.Errorf("ptrace(SETOPTIONS) on pid %d: %w", pid, err)}
	}

	logrus.Infof("Launched %s as traced pid %d", exe, pid)

	return &tracee{pid: pid}, nil
}

// tracee is the ptrace-backed debug interface to a launched child.
type tracee struct {
	pid int
}

func (t *tracee) Pid() int {
	return t.pid
}

// Resume lets the tracee run until its next syscall boundary, delivering sig
// (if non-zero) on the way.
func (t *tracee) Resume(sig unix.Signal) error {
	return unix.PtraceSyscall(t.pid, int(sig))
}

func (t *tracee) Wait() (unix.WaitStatus, error) {
	var ws unix.WaitStatus

	for {
		_, err := unix.Wait4(t.pid, &ws, unix.WALL, nil)
		if err == unix.EINTR {
			continue
		}
		return ws, err
	}
}

func (t *tracee) GetRegs() (*domain.Regs, error) {
	var raw unix.PtraceRegs

	if err := unix.PtraceGetRegs(t.pid, &raw); err != nil {
		return nil, err
	}

	return decodeRegs(&raw)
}

func (t *tracee) SetRegs(regs *domain.Regs) error {
	raw, err := encodeRegs(regs)
	if err != nil {
		return err
	}

	return unix.PtraceSetRegs(t.pid, raw)
}

func (t *tracee) PeekData(addr uint64, out []byte) (int, error) {
	return unix.PtracePeekData(t.pid, uintptr(addr), out)
}

func (t *tracee) Kill() error {
	return unix.Kill(t.pid, unix.SIGKILL)
}
