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
	libseccomp "github.com/seccomp/libseccomp-golang"
)

// SyscallResolver maps syscall names to numbers (and back) for the native
// architecture.
type SyscallResolver interface {
	SyscallNumber(name string) (int64, error)
	SyscallName(nr int64) (string, error)
}

type seccompResolver struct{}

func NewSeccompResolver() SyscallResolver {
	return &seccompResolver{}
}

func (r *seccompResolver) SyscallNumber(name string) (int64, error) {
	id, err := libseccomp.GetSyscallFromName(name)
	if err != nil {
		return 0, err
	}
	return int64(id), nil
}

func (r *seccompResolver) SyscallName(nr int64) (string, error) {
	return libseccomp.ScmpSyscall(nr).GetName()
}
