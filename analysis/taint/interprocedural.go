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
	"fmt"
	"runtime/debug"

	"github.com/awslabs/ar-sol-tools/analysis/ir"
)

// call returns the taint of the value returned by an internal call. The callee is walked in place: its writes to
// state are performed under the branch scopes of the call site.
func (w *walker) call(x *ir.Call) Value {
	taints, callers := w.evalEach(x.Args)
	var caller *ir.Function
	if w.act != nil {
		caller = w.act.fn
	}
	callee := w.graph.ResolveCall(caller, x)
	if callee == nil || !callee.Implemented() {
		w.diag("unresolved call %s treated as clean", x)
		return Clean
	}
	if w.recursive[callee] && w.calls.HasAncestor(func(f *ir.Function) bool { return f == callee }) {
		w.diag("recursive call to %s approximated by {%s}", callee.CanonicalName(), w.returnTaint[callee])
		return w.returnTaint[callee]
	}
	if w.cfg.ExceedsMaxDepth(w.calls.Depth() + 1) {
		w.diag("call depth limit reached at %s", callee.CanonicalName())
		return w.returnTaint[callee]
	}
	return w.invoke(callee, taints, callers)
}

// invoke walks the function f, with its modifiers, called with arguments of taints args. It returns the taint of
// the returned values.
func (w *walker) invoke(f *ir.Function, args []Value, callers []bool) Value {
	savedAct, savedCalls := w.act, w.calls
	w.calls = w.calls.AddChild(f)
	act := newActivation(f, "", w.scopes.Depth())
	bindParams(act, f, args, callers)
	for _, r := range f.Returns {
		if r != nil && r.Name != "" {
			act.declare(r, Clean, false, act.depth)
		}
	}
	w.act = act
	w.jump = noJump

	w.runModifiers(act, f.Modifiers)

	res := act.returns
	for _, r := range f.Returns {
		if l := act.lookup(r); l != nil {
			res = res.Union(l.taint)
		}
	}
	w.returnTaint[f] = w.returnTaint[f].Union(res)

	w.act, w.calls = savedAct, savedCalls
	w.jump = noJump
	return res
}

func bindParams(act *activation, f *ir.Function, args []Value, callers []bool) {
	for i, p := range f.Params {
		if p == nil {
			continue
		}
		var t Value
		var c bool
		if i < len(args) {
			t = args[i]
		}
		if i < len(callers) {
			c = callers[i]
		}
		act.declare(p, t, c, act.depth)
	}
}

// runModifiers runs the modifier chain mods around the body of the function of act. Each modifier runs the rest
// of the chain when it reaches its placeholder; the body of the function runs at the end of the chain.
func (w *walker) runModifiers(act *activation, mods []*ir.ModifierInvocation) {
	for i, inv := range mods {
		if w.isBaseConstructor(inv.Name) {
			continue
		}
		m := w.graph.ResolveModifier(inv.Name)
		if m == nil {
			w.diag("unresolved modifier %s ignored", inv.Name)
			continue
		}
		// modifier arguments are evaluated in the context of the function
		taints, callers := w.evalEach(inv.Args)
		rest := mods[i+1:]

		savedCalls := w.calls
		w.calls = w.calls.AddChild(m)
		mact := newActivation(m, "", w.scopes.Depth())
		bindParams(mact, m, taints, callers)
		mact.next = func() {
			inner := w.act
			w.act = act
			w.runModifiers(act, rest)
			w.act = inner
			w.jump = noJump
		}
		w.act = mact
		w.block(m.Body)
		w.jump = noJump
		w.act = act
		w.calls = savedCalls
		return
	}
	w.block(act.fn.Body)
	w.jump = noJump
}

// isBaseConstructor returns true if the modifier invocation name refers to a contract
func (w *walker) isBaseConstructor(name string) bool {
	p := w.graph.Contract.Program
	return p != nil && p.Contract(name) != nil
}

// deploy walks the deployment of the derived contract: for each contract of the linearization, from the most
// base-like, the state initializers and then the constructor.
func (w *walker) deploy() {
	for _, link := range w.graph.ConstructorChain() {
		name := link.Contract.Name + ".constructor()"
		if link.Constructor != nil {
			name = link.Constructor.CanonicalName()
		}
		init := newActivation(link.Constructor, name, 0)
		w.act = init
		for _, v := range link.Initializers {
			w.writeState(v, w.eval(v.Init), false)
		}
		if link.Constructor == nil {
			continue
		}
		if link.Invoker != nil {
			// the arguments of base constructors are evaluated by the derived constructor, before its parameters
			// are bound
			w.act = newActivation(link.Invoker, "", 0)
		}
		taints, callers := w.evalEach(link.Args)
		w.act = init
		w.invoke(link.Constructor, taints, callers)
	}
	w.act = nil
}

// run walks the entry point. A panic while walking is reported as an error of the entry point.
func (w *walker) run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Errorf("panic while analyzing %s: %v", w.entry.Name(), r)
			w.logger.Debugf("%s", debug.Stack())
			err = fmt.Errorf("analysis of %s failed: %v", w.entry.Name(), r)
		}
	}()
	if w.entry.IsConstructor() {
		w.deploy()
		return nil
	}
	f := w.entry.Function
	// the parameters of an entry point are chosen by the caller and are clean
	w.invoke(f, make([]Value, len(f.Params)), nil)
	return nil
}
