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
)

// eval returns the taint of the expression e. Side effects of the expression (calls, increments, push and pop)
// are performed on the environment.
func (w *walker) eval(e ir.Expr) Value {
	switch x := e.(type) {
	case nil:
		return Clean
	case *ir.Literal:
		return Clean
	case *ir.Ident:
		return w.read(x)
	case *ir.Env:
		return w.classifier.Env(x)
	case *ir.Binary:
		return w.eval(x.X).Union(w.eval(x.Y))
	case *ir.Unary:
		if x.Op == "++" || x.Op == "--" {
			t := w.load(x.X)
			w.write(x.X, t, false, false)
			return t
		}
		return w.eval(x.X)
	case *ir.Conditional:
		// both arms are joined, the ternary does not select
		return w.eval(x.Cond).Union(w.eval(x.Then)).Union(w.eval(x.Else))
	case *ir.Call:
		return w.call(x)
	case *ir.ExternalCall:
		// the result of a message call is not tracked
		w.eval(x.Receiver)
		w.evalAll(x.Args)
		w.evalAll(x.Options)
		return Clean
	case *ir.BuiltinCall:
		t := w.evalAll(x.Args)
		if w.cfg.IsPropagator(x.Name) {
			return t
		}
		return Clean
	case *ir.ArrayOp:
		w.write(x.Array, w.evalAll(x.Args), false, true)
		return Clean
	case *ir.Balance:
		return w.eval(x.Of).Union(w.classifier.Balance(w.isCaller(x.Of)))
	case *ir.New:
		w.evalAll(x.Args)
		w.evalAll(x.Options)
		w.eval(x.Salt)
		return w.classifier.Create(x)
	case *ir.Cast:
		return w.eval(x.X)
	case *ir.Index:
		// element-level taint is not modeled: a read has the taint of the container
		w.eval(x.Key)
		return w.eval(x.Base)
	case *ir.Member:
		t := w.eval(x.Base)
		if x.Field == "length" {
			return Clean
		}
		return t
	case *ir.Tuple:
		return w.evalAll(x.Elems)
	case *ir.UnsupportedExpr:
		w.diag("unsupported expression %s treated as clean", x.What)
		return Clean
	}
	w.diag("unexpected expression %T treated as clean", e)
	return Clean
}

// evalAll returns the union of the taints of the expressions
func (w *walker) evalAll(exprs []ir.Expr) Value {
	t := Clean
	for _, x := range exprs {
		t = t.Union(w.eval(x))
	}
	return t
}

// evalEach returns the taint of each expression, and whether it holds the address of the caller
func (w *walker) evalEach(exprs []ir.Expr) ([]Value, []bool) {
	taints := make([]Value, len(exprs))
	callers := make([]bool, len(exprs))
	for i, x := range exprs {
		taints[i] = w.eval(x)
		callers[i] = w.isCaller(x)
	}
	return taints, callers
}

func (w *walker) read(x *ir.Ident) Value {
	switch {
	case x.Var != nil:
		l := w.act.lookup(x.Var)
		if l == nil {
			// a variable of another activation, such as the parameters of a constructor evaluating base arguments
			return Clean
		}
		if l.alias != nil {
			return l.taint.Union(w.env.State(l.alias))
		}
		return l.taint
	case x.State != nil:
		return w.env.State(x.State)
	}
	w.diag("unresolved identifier %s treated as clean", x.Name)
	return Clean
}

// isCaller returns true if e statically evaluates to the address of the caller
func (w *walker) isCaller(e ir.Expr) bool {
	switch x := e.(type) {
	case *ir.Env:
		return x.Name == "msg.sender"
	case *ir.Cast:
		return w.isCaller(x.X)
	case *ir.Ident:
		if x.Var != nil {
			l := w.act.lookup(x.Var)
			return l != nil && l.caller
		}
	}
	return false
}

// accessKeys returns the union of the taints of the keys along a chain of index and member accesses
func (w *walker) accessKeys(e ir.Expr) Value {
	t := Clean
	for {
		switch x := e.(type) {
		case *ir.Index:
			t = t.Union(w.eval(x.Key))
			e = x.Base
		case *ir.Member:
			e = x.Base
		case *ir.Cast:
			e = x.X
		default:
			return t
		}
	}
}

// load returns the taint of the location lhs before a read-modify-write. The index keys of lhs are not
// evaluated: write evaluates them. Locations that are not rooted in a variable are clean.
func (w *walker) load(lhs ir.Expr) Value {
	root, _ := ir.RootVariable(lhs)
	if root == nil {
		return Clean
	}
	return w.read(root)
}

// write assigns a value with taint t to the location lhs. The index keys of lhs are evaluated once, here. Writes through index and member accesses, and writes
// with forcePartial set, are partial: they add to the taint of the variable and never supersede earlier writes.
func (w *walker) write(lhs ir.Expr, t Value, caller bool, forcePartial bool) {
	if lhs == nil {
		return
	}
	if tuple, ok := lhs.(*ir.Tuple); ok {
		for _, elem := range tuple.Elems {
			w.write(elem, t, caller, forcePartial)
		}
		return
	}
	root, partial := ir.RootVariable(lhs)
	if root == nil {
		// a location that is not a variable, e.g. a member of a call result
		w.eval(lhs)
		return
	}
	partial = partial || forcePartial
	t = t.Union(w.accessKeys(lhs))
	switch {
	case root.Var != nil:
		w.writeLocal(root.Var, t, caller, partial)
	case root.State != nil:
		w.writeState(root.State, t, partial)
	default:
		w.diag("assignment to unresolved identifier %s ignored", root.Name)
	}
}

func (w *walker) writeLocal(v *ir.Variable, t Value, caller bool, partial bool) {
	l := w.act.lookup(v)
	if l == nil {
		l = w.act.declare(v, Clean, false, w.act.depth)
	}
	if l.alias != nil && partial {
		// write through a storage reference
		l.taint = l.taint.Union(t)
		w.writeState(l.alias, t, true)
		return
	}
	if !partial && w.scopes.Depth() == l.depth {
		l.taint = t
		l.caller = caller
		return
	}
	l.taint = l.taint.Union(t)
	l.caller = l.caller || caller
}

// writeState writes a value with taint t to the state variable v. The value is contaminated by the active branch
// scopes. Constants and immutables are tracked for reads but produce no write event.
func (w *walker) writeState(v *ir.StateVariable, t Value, partial bool) {
	t = t.Union(w.scopes.Overlay())
	w.env.setState(v, t, !partial && w.scopes.Depth() == 0)
	if !v.InStorage() {
		return
	}
	w.logger.Tracef("  write %s <- {%s} in %s (scope %d)", v.CanonicalName(), t, w.act.name, w.scopes.Current())
	w.env.record(&WriteEvent{
		Variable: v,
		Taint:    t,
		Function: w.act.name,
		Scope:    w.scopes.Current(),
		Partial:  partial,
	})
}
