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

type VerdictAction int

const (
	Allow VerdictAction = iota
	Deny
)

func (a VerdictAction) String() string {
	if a == Deny {
		return "deny"
	}
	return "allow"
}

// Verdict is the decision taken for a single intercepted syscall. It is
// consumed right away and never retained across stops.
type Verdict struct {
	Action VerdictAction
	Reason string
}

func (v Verdict) Allowed() bool {
	return v.Action == Allow
}

// Branch identifies the decision path an intercepted syscall went through.
type Branch string

const (
	BranchNone     Branch = ""
	BranchReadOnly Branch = "read-only"
	BranchSetup    Branch = "setup"
	BranchConfined Branch = "temp-confined"
	BranchDenied   Branch = "denied"
)

type PolicyServiceIface interface {
	// Evaluate decides over the bytes recovered from the tracee's path
	// argument. The window may carry bytes past the string terminator.
	Evaluate(window []byte) Verdict

	// InspectLimit is the maximum number of path bytes Evaluate looks at.
	InspectLimit() int
}
