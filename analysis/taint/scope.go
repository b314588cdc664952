// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package taint

// RootScope is the id of the scope of the straight-line code of an entry point
const RootScope = 0

// scopeFrame is an active branch scope: the body of an if, a loop, a try clause
type scopeFrame struct {
	id int
	// taint of the controlling condition
	taint Value
	// overlay is the union of the taints of this frame and the enclosing ones
	overlay Value
}

// ScopeTracker is the stack of active branch scopes of an entry point walk. The stack is shared by all the
// functions called in the walk, so that a function called inside a branch writes with the taint of the branch.
type ScopeTracker struct {
	frames []scopeFrame
	nextID int
}

// NewScopeTracker returns an empty tracker
func NewScopeTracker() *ScopeTracker {
	return &ScopeTracker{nextID: RootScope + 1}
}

// Push enters a new branch scope controlled by a condition with taint v and returns the scope id
func (s *ScopeTracker) Push(v Value) int {
	id := s.nextID
	s.nextID++
	s.PushID(id, v)
	return id
}

// PushID enters the scope id again. Loops re-enter the same scope on every pass over their body.
func (s *ScopeTracker) PushID(id int, v Value) {
	s.frames = append(s.frames, scopeFrame{id: id, taint: v, overlay: s.Overlay().Union(v)})
}

// Pop leaves the innermost scope
func (s *ScopeTracker) Pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Widen adds v to the condition of the innermost scope
func (s *ScopeTracker) Widen(v Value) {
	if len(s.frames) == 0 {
		return
	}
	top := &s.frames[len(s.frames)-1]
	top.taint = top.taint.Union(v)
	top.overlay = top.overlay.Union(v)
}

// Overlay returns the union of the taints of the active scopes
func (s *ScopeTracker) Overlay() Value {
	if len(s.frames) == 0 {
		return Clean
	}
	return s.frames[len(s.frames)-1].overlay
}

// Depth returns the number of active scopes
func (s *ScopeTracker) Depth() int {
	return len(s.frames)
}

// Current returns the id of the innermost scope, or RootScope
func (s *ScopeTracker) Current() int {
	if len(s.frames) == 0 {
		return RootScope
	}
	return s.frames[len(s.frames)-1].id
}

// Condition returns the taint of the condition of the innermost scope
func (s *ScopeTracker) Condition() Value {
	if len(s.frames) == 0 {
		return Clean
	}
	return s.frames[len(s.frames)-1].taint
}
