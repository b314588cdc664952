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

import (
	"github.com/awslabs/ar-sol-tools/analysis/ir"
	"golang.org/x/exp/maps"
)

// WriteEvent is a write to a state variable during an entry point walk
type WriteEvent struct {
	Variable *ir.StateVariable
	Taint    Value
	// Function is the canonical name of the function performing the write
	Function string
	// Scope is the id of the innermost branch scope active at the write
	Scope int
	// Partial writes (elements, members, push, pop) update part of the variable
	Partial bool
	// Superseded is set when a later write replaced the value written by this event
	Superseded bool
}

// Environment is the taint of the state variables during the walk of one entry point, and the writes performed.
// Its lifetime is exactly one entry point walk.
type Environment struct {
	state  map[*ir.StateVariable]Value
	events []*WriteEvent
}

// NewEnvironment returns an environment where every state variable is clean
func NewEnvironment() *Environment {
	return &Environment{state: map[*ir.StateVariable]Value{}}
}

// State returns the current taint of v
func (env *Environment) State(v *ir.StateVariable) Value {
	return env.state[v]
}

// Events returns the write events in program order
func (env *Environment) Events() []*WriteEvent {
	return env.events
}

// setState updates the taint of v. Strong updates replace the taint, weak updates add to it.
func (env *Environment) setState(v *ir.StateVariable, t Value, strong bool) {
	if strong {
		env.state[v] = t
	} else {
		env.state[v] = env.state[v].Union(t)
	}
}

// record adds the event ev. A write of the whole variable supersedes the earlier writes of the variable made in
// the same scope; writes made in other scopes, and partial writes, are never superseded.
func (env *Environment) record(ev *WriteEvent) {
	if !ev.Partial {
		for _, prev := range env.events {
			if prev.Variable == ev.Variable && prev.Scope == ev.Scope && !prev.Superseded {
				prev.Superseded = true
			}
		}
	}
	env.events = append(env.events, ev)
}

// Outcome is the final taint of a state variable after an entry point
type Outcome struct {
	Taint Value
	// Function is the function of the last write contributing taint
	Function string
}

// Outcomes returns the final taint of every written state variable: the union of the taints of the writes that
// have not been superseded.
func (env *Environment) Outcomes() map[*ir.StateVariable]Outcome {
	res := map[*ir.StateVariable]Outcome{}
	for _, ev := range env.events {
		if ev.Superseded {
			continue
		}
		o := res[ev.Variable]
		o.Taint = o.Taint.Union(ev.Taint)
		if !ev.Taint.IsClean() {
			o.Function = ev.Function
		}
		res[ev.Variable] = o
	}
	return res
}

// pendingTaint summarizes the live events per variable, used to detect the fixpoint of loops
func (env *Environment) pendingTaint() map[*ir.StateVariable]Value {
	res := map[*ir.StateVariable]Value{}
	for _, ev := range env.events {
		if !ev.Superseded {
			res[ev.Variable] = res[ev.Variable].Union(ev.Taint)
		}
	}
	return res
}

// local is the abstract state of a local variable
type local struct {
	taint Value
	// caller is set when the variable holds the address of the caller
	caller bool
	// scope depth at the declaration of the variable
	depth int
	// alias is the state variable designated by a storage reference
	alias *ir.StateVariable
}

// activation is the frame of a function or modifier being walked
type activation struct {
	fn *ir.Function
	// name is the canonical name of the function, used to attribute writes
	name   string
	locals map[*ir.Variable]*local
	// scope depth when the function was called
	depth   int
	returns Value
	// next runs the rest of the modifier chain when the activation is a modifier reaching its placeholder
	next func()
}

func newActivation(fn *ir.Function, name string, depth int) *activation {
	if fn != nil && name == "" {
		name = fn.CanonicalName()
	}
	return &activation{fn: fn, name: name, locals: map[*ir.Variable]*local{}, depth: depth}
}

func (a *activation) declare(v *ir.Variable, t Value, caller bool, depth int) *local {
	l := &local{taint: t, caller: caller, depth: depth}
	a.locals[v] = l
	return l
}

func (a *activation) lookup(v *ir.Variable) *local {
	return a.locals[v]
}

// snapshot of the part of the walk state a loop iteration can change
type snapshot struct {
	state   map[*ir.StateVariable]Value
	locals  map[*ir.Variable]Value
	pending map[*ir.StateVariable]Value
	returns Value
}

func takeSnapshot(env *Environment, act *activation) snapshot {
	locals := make(map[*ir.Variable]Value, len(act.locals))
	for v, l := range act.locals {
		locals[v] = l.taint
	}
	return snapshot{
		state:   maps.Clone(env.state),
		locals:  locals,
		pending: env.pendingTaint(),
		returns: act.returns,
	}
}

func (s snapshot) equal(t snapshot) bool {
	return maps.Equal(s.state, t.state) && maps.Equal(s.locals, t.locals) && maps.Equal(s.pending, t.pending) &&
		s.returns == t.returns
}
