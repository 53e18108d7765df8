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

package handler

import (
	"github.com/nestybox/sysbox-ptrace/domain"
)

// Ensure OpenHandler implements SyscallHandlerIface.
var _ domain.SyscallHandlerIface = (*OpenHandler)(nil)

// OpenHandler describes a syscall that opens a path given as a single
// pointer-to-string argument.
type OpenHandler struct {
	Name         string
	PathArg      int    // argument slot holding the path pointer
	FlagsArg     int    // argument slot holding the open flags; -1 if implied
	ImpliedFlags uint64 // flags applied by the kernel when FlagsArg is -1
	Enabled      bool
}

func (h *OpenHandler) GetName() string {
	return h.Name
}

func (h *OpenHandler) GetEnabled() bool {
	return h.Enabled
}

func (h *OpenHandler) SetEnabled(val bool) {
	h.Enabled = val
}

func (h *OpenHandler) PathAddr(regs *domain.Regs) uint64 {
	return regs.Arg(h.PathArg)
}

// OpenFlags returns the call's open flags. The kernel takes them as a C int,
// so only the low 32 bits of the register are meaningful.
func (h *OpenHandler) OpenFlags(regs *domain.Regs) uint64 {
	if h.FlagsArg < 0 {
		return h.ImpliedFlags
	}
	return uint64(uint32(regs.Arg(h.FlagsArg)))
}
