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

//go:build !amd64

package process

import (
	"fmt"
	"runtime"

	"github.com/nestybox/sysbox-ptrace/domain"

	"golang.org/x/sys/unix"
)

var errUnsupportedArch = fmt.Errorf("register layout of %s not supported", runtime.GOARCH)

func decodeRegs(raw *unix.PtraceRegs) (*domain.Regs, error) {
	return nil, errUnsupportedArch
}

func encodeRegs(regs *domain.Regs) (*unix.PtraceRegs, error) {
	return nil, errUnsupportedArch
}
