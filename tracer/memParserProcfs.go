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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nestybox/sysbox-ptrace/domain"
	"github.com/spf13/afero"

	"golang.org/x/sys/unix"
)

// File contains memParser specialization logic to read the tracee's memory
// through the /proc/<pid>/mem file. Slower than the IOvec flavor, but it works
// on kernels lacking cross-memory-attach support.

type memParserProcfs struct {
	fs afero.Fs
}

func (mp *memParserProcfs) ReadPathWindow(
	t domain.TraceeIface,
	addr uint64,
	limit int) ([]byte, error) {

	if addr == 0 {
		return nil, nil
	}

	name := filepath.Join("/proc", strconv.Itoa(t.Pid()), "mem")

	f, err := mp.fs.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, unix.ESRCH
		}
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	return readPathWindow(addr, limit, func(a uint64, word []byte) error {
		n, err := f.ReadAt(word, int64(a))
		if n == len(word) {
			return nil
		}
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("failed to read %s at %#x: %w", name, a, err)
	})
}
