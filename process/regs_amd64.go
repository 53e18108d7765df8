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

package process

import (
	"github.com/nestybox/sysbox-ptrace/domain"

	"golang.org/x/sys/unix"
)

// x86-64 syscall convention: the number lives in orig_rax (rax is reused by
// the kernel for the return value), arguments go in rdi, rsi, rdx, r10, r8, r9.

func decodeRegs(raw *unix.PtraceRegs) (*domain.Regs, error) {
	return &domain.Regs{
		Syscall: int64(raw.Orig_rax),
		Args:    [domain.SyscallArgs]uint64{raw.Rdi, raw.Rsi, raw.Rdx, raw.R10, raw.R8, raw.R9},
		Ret:     int64(raw.Rax),
		Raw:     *raw,
	}, nil
}

func encodeRegs(regs *domain.Regs) (*unix.PtraceRegs, error) {
	raw := regs.Raw

	raw.Orig_rax = uint64(regs.Syscall)
	raw.Rdi = regs.Args[0]
	raw.Rsi = regs.Args[1]
	raw.Rdx = regs.Args[2]
	raw.R10 = regs.Args[3]
	raw.R8 = regs.Args[4]
	raw.R9 = regs.Args[5]
	raw.Rax = uint64(regs.Ret)

	return &raw, nil
}
