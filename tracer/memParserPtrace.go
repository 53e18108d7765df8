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

package tracer

import (
	"fmt"

	"github.com/nestybox/sysbox-ptrace/domain"
)

// File contains the default memParser specialization: the tracee's memory is
// fetched one word at a time through the tracer's own debug interface
// (PTRACE_PEEKDATA). It needs nothing beyond ptrace access to the tracee.

type memParserPtrace struct{}

func (mp *memParserPtrace) ReadPathWindow(
	t domain.TraceeIface,
	addr uint64,
	limit int) ([]byte, error) {

	return readPathWindow(addr, limit, func(a uint64, word []byte) error {
		n, err := t.PeekData(a, word)
		if err != nil {
			return err
		}
		if n != len(word) {
			return fmt.Errorf("short peek at %#x of pid %d: %d bytes", a, t.Pid(), n)
		}
		return nil
	})
}
