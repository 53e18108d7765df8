//
// Copyright 2022-2026 Nestybox, Inc.
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
	"fmt"

	"github.com/nestybox/sysbox-ptrace/domain"

	"golang.org/x/sys/unix"
)

// File contains memParser specialization logic to read the tracee's memory
// through a scatter-gather (IOvec) interface. Requires a kernel built with
// 'CONFIG_CROSS_MEMORY_ATTACH', the usual case in most of the linux distros.

type memParserIOvec struct{}

func (mp *memParserIOvec) ReadPathWindow(
	t domain.TraceeIface,
	addr uint64,
	limit int) ([]byte, error) {

	pid := t.Pid()

	return readPathWindow(addr, limit, func(a uint64, word []byte) error {
		return mp.readProcessMem(pid, word, a)
	})
}

func (mp *memParserIOvec) readProcessMem(pid int, local []byte, remote uint64) error {

	localIov := make([]unix.Iovec, 1)
	localIov[0].Base = &local[0]
	localIov[0].SetLen(len(local))

	remoteIov := []unix.RemoteIovec{
		{
			Base: uintptr(remote),
			Len:  len(local),
		},
	}

	n, err := unix.ProcessVMReadv(pid, localIov, remoteIov, 0)
	if err != nil {
		return err
	}
	if n != len(local) {
		return fmt.Errorf("short read (%d of %d bytes) from mem of pid %d at %#x",
			n, len(local), pid, remote)
	}

	return nil
}
