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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

var ErrNotFound = errors.New("executable file not found in $PATH")

// lookPath locates an executable the way execlp(3) does: names carrying a
// slash are used as given, anything else is searched for in ps.path.
func (ps *processService) lookPath(file string) (string, error) {

	if strings.Contains(file, "/") {
		if err := ps.findExecutable(file); err != nil {
			return "", err
		}
		return file, nil
	}

	for _, dir := range filepath.SplitList(ps.path) {
		if dir == "" {
			// Unix shell semantics: empty path element means "."
			dir = "."
		}

		path := filepath.Join(dir, file)
		if err := ps.findExecutable(path); err == nil {
			if !strings.Contains(path, "/") {
				path = "./" + path
			}
			return path, nil
		}
	}

	return "", ErrNotFound
}

func (ps *processService) findExecutable(file string) error {

	fi, err := ps.fs.Stat(file)
	if err != nil {
		return err
	}

	m := fi.Mode()
	if m.IsDir() {
		return syscall.EISDIR
	}
	if m&0111 == 0 {
		return os.ErrPermission
	}

	return nil
}
