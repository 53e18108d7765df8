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

// Number of argument slots in the syscall calling convention.
const SyscallArgs = 6

// Regs is a point-in-time snapshot of a tracee's register file taken at a
// syscall stop. Arguments are kept in calling-convention order. The full
// machine register file the snapshot was decoded from travels along in Raw so
// that it can be written back with only the named slots altered.
type Regs struct {
	Syscall int64               // syscall number
	Args    [SyscallArgs]uint64 // syscall arguments
	Ret     int64               // return-value register
	Raw     unix.PtraceRegs     // register file as read from the kernel
}

// Arg returns the i-th syscall argument, or zero for an out-of-range slot.
func (r *Regs) Arg(i int) uint64 {
	if i < 0 || i >= SyscallArgs {
		return 0
	}
	return r.Args[i]
}
