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
	"bytes"
	"fmt"
	"unsafe"

	"github.com/nestybox/sysbox-ptrace/domain"
	"github.com/spf13/afero"
)

// memParser interface defines the operations required to extract state from
// the address space of a stopped tracee.
type memParser interface {
	// ReadPathWindow reads the string at addr in word-sized chunks until a
	// chunk holding a NUL byte has been read, or limit bytes are available.
	// The returned window starts at addr and may carry bytes past the
	// terminator; the consumer decides where the string ends.
	ReadPathWindow(t domain.TraceeIface, addr uint64, limit int) ([]byte, error)
}

const (
	MemParserPtrace = "ptrace" // PTRACE_PEEKDATA, one word per request
	MemParserIOvec  = "iovec"  // process_vm_readv()
	MemParserProcfs = "procfs" // /proc/<pid>/mem
)

// Size of the chunks read from the tracee: one machine word.
const wordSize = int(unsafe.Sizeof(uintptr(0)))

// newMemParser elects the memParser specialization to utilize.
func newMemParser(kind string, fs afero.Fs) (memParser, error) {
	switch kind {
	case "", MemParserPtrace:
		return &memParserPtrace{}, nil
	case MemParserIOvec:
		return &memParserIOvec{}, nil
	case MemParserProcfs:
		return &memParserProcfs{fs: fs}, nil
	}

	return nil, fmt.Errorf("unknown mem-parser %q", kind)
}

// wordReader fills word (wordSize bytes) with the tracee's memory at addr.
type wordReader func(addr uint64, word []byte) error

// memWindow is a read cursor over the tracee's address space that collects
// word-sized chunks into a growable buffer. Chunks are read at word-aligned
// addresses, so that a single chunk never straddles a page boundary; each new
// chunk lands at a fresh offset past all previously read ones.
type memWindow struct {
	addr uint64 // first byte of interest
	base uint64 // word-aligned address of the first chunk
	buf  []byte
	read wordReader
}

// newMemWindow provisions room for the chunks needed to cover limit bytes
// starting at addr.
func newMemWindow(addr uint64, limit int, read wordReader) *memWindow {
	base := addr &^ uint64(wordSize-1)

	return &memWindow{
		addr: addr,
		base: base,
		buf:  make([]byte, 0, chunksFor(int(addr-base), limit)*wordSize),
		read: read,
	}
}

// chunksFor returns the number of chunks spanning skip+limit bytes.
func chunksFor(skip, limit int) int {
	n := (skip + limit + wordSize - 1) / wordSize
	if n < 1 {
		n = 1
	}
	return n
}

// grow makes sure the buffer can take n more chunks without reallocating
// mid-read.
func (w *memWindow) grow(n int) {
	need := len(w.buf) + n*wordSize
	if need <= cap(w.buf) {
		return
	}

	newCap := 2 * cap(w.buf)
	if newCap < need {
		newCap = need
	}

	buf := make([]byte, len(w.buf), newCap)
	copy(buf, w.buf)
	w.buf = buf
}

// readChunk appends the next chunk and returns the part of it that lies at or
// past w.addr.
func (w *memWindow) readChunk() ([]byte, error) {
	w.grow(1)

	off := len(w.buf)
	chunk := w.buf[off : off+wordSize]

	if err := w.read(w.base+uint64(off), chunk); err != nil {
		return nil, err
	}
	w.buf = w.buf[:off+wordSize]

	skip := int(w.addr - w.base)
	if off < skip {
		return chunk[skip-off:], nil
	}
	return chunk, nil
}

// Bytes returns everything read so far starting at w.addr.
func (w *memWindow) Bytes() []byte {
	skip := int(w.addr - w.base)
	if skip >= len(w.buf) {
		return nil
	}
	return w.buf[skip:]
}

// readPathWindow drives a memWindow until the path's terminator shows up or
// limit bytes have been collected.
func readPathWindow(addr uint64, limit int, read wordReader) ([]byte, error) {

	if addr == 0 {
		return nil, nil
	}

	w := newMemWindow(addr, limit, read)

	for {
		chunk, err := w.readChunk()
		if err != nil {
			return nil, err
		}
		if bytes.IndexByte(chunk, 0) >= 0 || len(w.Bytes()) >= limit {
			return w.Bytes(), nil
		}
	}
}
