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

package domain

import (
	"golang.org/x/sys/unix"
)

// TraceeState tracks where a traced process stands within its stop/resume cycle.
type TraceeState int

const (
	TraceeRunning      TraceeState = iota // executing, registers off-limits
	TraceeEntryStopped                    // stopped at syscall entry
	TraceeExitStopped                     // stopped at syscall exit (or right after exec)
	TraceeTerminated                      // exited or killed, handle no longer valid
)

func (s TraceeState) String() string {
	switch s {
	case TraceeRunning:
		return "running"
	case TraceeEntryStopped:
		return "entry-stopped"
	case TraceeExitStopped:
		return "exit-stopped"
	case TraceeTerminated:
		return "terminated"
	}

	return "unknown"
}

// TraceeIface is the raw debug interface to a single traced process. None of
// these methods track the tracee's state; callers must only touch registers
// and memory while the tracee is stopped.
type TraceeIface interface {
	Pid() int
	Resume(sig unix.Signal) error
	Wait() (unix.WaitStatus, error)
	GetRegs() (*Regs, error)
	SetRegs(regs *Regs) error
	PeekData(addr uint64, out []byte) (int, error)
	Kill() error
}

// ProcessServiceIface launches executables as traced children. The returned
// tracee is halted right after image replacement.
type ProcessServiceIface interface {
	Launch(path string) (TraceeIface, error)
}
