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

package policy

import (
	"bytes"
	"fmt"

	"github.com/nestybox/sysbox-ptrace/domain"

	"golang.org/x/sys/unix"
)

const (
	// Substring that confines a path to the temporary-file area.
	DefaultConfinedMarker = "tmp"

	// Number of path bytes inspected by default.
	DefaultInspectLimit = unix.PathMax
)

// The policy is a plain substring match: "/tmp/foo", "/var/tmp/x" and
// "/srv/htmpl/x" are all considered confined. This is weaker than a
// path-component or prefix check and is kept as is; tightening it would
// change which calls are allowed.
type policyService struct {
	marker []byte
	limit  int
}

func NewPolicyService(marker string, limit int) domain.PolicyServiceIface {

	if marker == "" {
		marker = DefaultConfinedMarker
	}
	if limit <= 0 {
		limit = DefaultInspectLimit
	}

	return &policyService{
		marker: []byte(marker),
		limit:  limit,
	}
}

func (ps *policyService) InspectLimit() int {
	return ps.limit
}

// Evaluate allows the path held in window if it contains the confined marker
// within its first InspectLimit bytes. The path ends at the first NUL byte;
// anything past it is ignored.
func (ps *policyService) Evaluate(window []byte) domain.Verdict {

	path := window
	if i := bytes.IndexByte(path, 0); i >= 0 {
		path = path[:i]
	}
	if len(path) > ps.limit {
		path = path[:ps.limit]
	}

	if bytes.Contains(path, ps.marker) {
		return domain.Verdict{Action: domain.Allow}
	}

	return domain.Verdict{
		Action: domain.Deny,
		Reason: fmt.Sprintf("path %q is not confined to %q", path, ps.marker),
	}
}
