//
// Copyright 2019-2026 Nestybox, Inc.
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
	"fmt"
	"strconv"

	"github.com/nestybox/sysbox-ptrace/domain"
	"github.com/sirupsen/logrus"

	iradix "github.com/hashicorp/go-immutable-radix"
	"golang.org/x/sys/unix"
)

// DefaultHandlers returns a fresh set of the "open a path" class handlers.
// Please keep me alphabetically ordered.
func DefaultHandlers() []domain.SyscallHandlerIface {
	return []domain.SyscallHandlerIface{
		&OpenHandler{
			Name:         "creat",
			PathArg:      0,
			FlagsArg:     -1,
			ImpliedFlags: unix.O_CREAT | unix.O_WRONLY | unix.O_TRUNC,
			Enabled:      true,
		},
		&OpenHandler{
			Name:     "open",
			PathArg:  0,
			FlagsArg: 1,
			Enabled:  true,
		},
		&OpenHandler{
			Name:     "openat",
			PathArg:  1,
			FlagsArg: 2,
			Enabled:  true,
		},
	}
}

type handlerService struct {
	handlerDB *iradix.Tree                         // all registered handlers, indexed by syscall name
	nrDB      map[int64]domain.SyscallHandlerIface // enabled handlers, indexed by syscall number
	names     map[int64]string                     // syscall name cache
	resolver  SyscallResolver
}

func NewHandlerService(
	hs []domain.SyscallHandlerIface,
	resolver SyscallResolver) (domain.HandlerServiceIface, error) {

	if resolver == nil {
		resolver = NewSeccompResolver()
	}

	newhs := &handlerService{
		handlerDB: iradix.New(),
		nrDB:      make(map[int64]domain.SyscallHandlerIface),
		names:     make(map[int64]string),
		resolver:  resolver,
	}

	for _, h := range hs {
		if err := newhs.RegisterHandler(h); err != nil {
			return nil, err
		}
	}

	return newhs, nil
}

func (hs *handlerService) RegisterHandler(h domain.SyscallHandlerIface) error {

	name := h.GetName()

	if _, ok := hs.handlerDB.Get([]byte(name)); ok {
		return fmt.Errorf("handler %v already registered", name)
	}

	nr, err := hs.resolver.SyscallNumber(name)
	if err != nil {
		return fmt.Errorf("cannot register handler %v: %w", name, err)
	}

	hs.handlerDB, _, _ = hs.handlerDB.Insert([]byte(name), h)
	hs.names[nr] = name

	if h.GetEnabled() {
		hs.nrDB[nr] = h
	}

	logrus.Debugf("Registered handler %v (syscall %d, enabled %v)", name, nr, h.GetEnabled())

	return nil
}

func (hs *handlerService) UnregisterHandler(h domain.SyscallHandlerIface) error {

	name := h.GetName()

	var ok bool
	hs.handlerDB, _, ok = hs.handlerDB.Delete([]byte(name))
	if !ok {
		return fmt.Errorf("handler %v not found", name)
	}

	for nr, nh := range hs.nrDB {
		if nh.GetName() == name {
			delete(hs.nrDB, nr)
		}
	}

	return nil
}

// LookupHandler returns the enabled handler in charge of syscall nr, if any.
func (hs *handlerService) LookupHandler(nr int64) (domain.SyscallHandlerIface, bool) {
	h, ok := hs.nrDB[nr]
	return h, ok
}

func (hs *handlerService) EnableHandler(name string, enabled bool) error {

	val, ok := hs.handlerDB.Get([]byte(name))
	if !ok {
		return fmt.Errorf("handler %v not found", name)
	}
	h := val.(domain.SyscallHandlerIface)

	nr, err := hs.resolver.SyscallNumber(name)
	if err != nil {
		return err
	}

	h.SetEnabled(enabled)
	if enabled {
		hs.nrDB[nr] = h
	} else {
		delete(hs.nrDB, nr)
	}

	return nil
}

// HandlerNames returns the names of all registered handlers, enabled or not,
// in lexical order.
func (hs *handlerService) HandlerNames() []string {
	var names []string

	hs.handlerDB.Root().Walk(func(key []byte, val interface{}) bool {
		names = append(names, string(key))
		return false
	})

	return names
}

// SyscallName returns a printable name for syscall nr, falling back to its
// number when the resolver does not know it.
func (hs *handlerService) SyscallName(nr int64) string {

	if name, ok := hs.names[nr]; ok {
		return name
	}

	name, err := hs.resolver.SyscallName(nr)
	if err != nil || name == "" {
		name = "syscall_" + strconv.FormatInt(nr, 10)
	}
	hs.names[nr] = name

	return name
}
