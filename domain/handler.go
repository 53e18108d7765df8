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

// SyscallHandlerIface describes an "open a path" class syscall: where its path
// pointer and its open flags live within a register snapshot.
type SyscallHandlerIface interface {
	GetName() string
	GetEnabled() bool
	SetEnabled(val bool)
	PathAddr(regs *Regs) uint64
	OpenFlags(regs *Regs) uint64
}

type HandlerServiceIface interface {
	RegisterHandler(h SyscallHandlerIface) error
	UnregisterHandler(h SyscallHandlerIface) error
	LookupHandler(nr int64) (SyscallHandlerIface, bool)
	EnableHandler(name string, enabled bool) error
	HandlerNames() []string
	SyscallName(nr int64) string
}
