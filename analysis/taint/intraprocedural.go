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

	"github.com/awslabs/ar-sol-tools/analysis/callgraph"
	"github.com/awslabs/ar-sol-tools/analysis/config"
	"github.com/awslabs/ar-sol-tools/analysis/ir"
	"github.com/awslabs/ar-sol-tools/internal/graphutil"
)

// jump is the abrupt completion of the statement being walked
type jump int

const (
	noJump jump = iota
	jumpBreak
	jumpContinue
	jumpReturn
)

// walker propagates taint along the statements of an entry point and of the functions it calls. A walker is owned
// by a single goroutine.
type walker struct {
	cfg        *config.Config
	logger     *config.LogGroup
	classifier Classifier
	graph      *callgraph.Graph
	entry      callgraph.EntryPoint

	env    *Environment
	scopes *ScopeTracker
	act    *activation

	// calls is the node of the current function in the tree of calls of the entry point. The root is unlabeled.
	calls *graphutil.Tree[*ir.Function]

	// recursive are the functions of the graph that belong to a call cycle
	recursive map[*ir.Function]bool

	// returnTaint accumulates the return taint of every function walked, reused on recursive calls
	returnTaint map[*ir.Function]Value

	jump        jump
	diagnostics []Diagnostic
}

func newWalker(a *analysis, g *callgraph.Graph, ep callgraph.EntryPoint, recursive map[*ir.Function]bool) *walker {
	return &walker{
		cfg:         a.cfg,
		logger:      a.logger,
		classifier:  a.classifier,
		graph:       g,
		entry:       ep,
		env:         NewEnvironment(),
		scopes:      NewScopeTracker(),
		calls:       graphutil.NewTree[*ir.Function](nil),
		recursive:   recursive,
		returnTaint: map[*ir.Function]Value{},
	}
}

func (w *walker) diag(format string, args ...any) {
	d := Diagnostic{
		Contract:   w.entry.Contract.Name,
		EntryPoint: w.entry.Name(),
		Message:    fmt.Sprintf(format, args...),
	}
	if w.act != nil {
		d.Function = w.act.name
	}
	if !w.cfg.SilenceWarn {
		w.logger.Warnf("%s", d)
	}
	w.diagnostics = append(w.diagnostics, d)
}

// block walks the statements of b. Statements after a break, continue or return are not walked.
func (w *walker) block(b *ir.Block) {
	if b == nil {
		return
	}
	frames := 0
	for _, s := range b.Stmts {
		frames += w.stmt(s)
		if w.jump != noJump {
			break
		}
	}
	for ; frames > 0; frames-- {
		w.scopes.Pop()
	}
}

// stmt walks one statement and returns the number of branch scopes it opened for the rest of the enclosing block
func (w *walker) stmt(s ir.Stmt) int {
	switch x := s.(type) {
	case *ir.Assign:
		w.assign(x)
	case *ir.VarDecl:
		w.varDecl(x)
	case *ir.ExprStmt:
		w.eval(x.X)
	case *ir.If:
		w.ifStmt(x)
	case *ir.Loop:
		w.loop(x)
	case *ir.Guard:
		t := w.evalAll(x.Args)
		if !w.cfg.IsGuard(x.Name) {
			// not a guard: the rest of the block executes under the condition
			w.scopes.Push(t)
			return 1
		}
	case *ir.Return:
		if x.Value != nil {
			w.act.returns = w.act.returns.Union(w.eval(x.Value))
		}
		w.jump = jumpReturn
	case *ir.Placeholder:
		if next := w.act.next; next != nil {
			next()
		}
	case *ir.Block:
		w.block(x)
	case *ir.Delete:
		w.write(x.X, Clean, false, false)
	case *ir.Revert:
		w.evalAll(x.Args)
		w.jump = jumpReturn
	case *ir.Emit:
		w.evalAll(x.Args)
	case *ir.Break:
		w.jump = jumpBreak
	case *ir.Continue:
		w.jump = jumpContinue
	case *ir.Try:
		w.tryStmt(x)
	case *ir.UnsupportedStmt:
		w.logger.Tracef("  %s not tracked in %s", x.What, w.act.name)
	default:
		w.diag("unexpected statement %T ignored", s)
	}
	return 0
}

func (w *walker) assign(x *ir.Assign) {
	if lhs, ok := x.LHS.(*ir.Tuple); ok {
		taints, callers := w.destructure(x.RHS, len(lhs.Elems))
		for i, elem := range lhs.Elems {
			w.write(elem, taints[i], callers[i], false)
		}
		return
	}
	t := w.eval(x.RHS)
	caller := false
	if x.Op == "=" || x.Op == "" {
		caller = w.isCaller(x.RHS)
	} else {
		t = t.Union(w.load(x.LHS))
	}
	w.write(x.LHS, t, caller, false)
}

// destructure returns the taints of n values unpacked from rhs. A tuple expression of the same arity is unpacked
// element-wise; any other expression (a call returning several values) gives the union of its taint to every
// destination.
func (w *walker) destructure(rhs ir.Expr, n int) ([]Value, []bool) {
	if tuple, ok := rhs.(*ir.Tuple); ok && len(tuple.Elems) == n {
		return w.evalEach(tuple.Elems)
	}
	t := w.eval(rhs)
	taints := make([]Value, n)
	for i := range taints {
		taints[i] = t
	}
	return taints, make([]bool, n)
}

func (w *walker) varDecl(x *ir.VarDecl) {
	depth := w.scopes.Depth()
	if len(x.Vars) == 1 {
		v := x.Vars[0]
		t := w.eval(x.Init)
		if v == nil {
			return
		}
		l := w.act.declare(v, t, w.isCaller(x.Init), depth)
		if v.Storage {
			l.alias = w.storageAlias(x.Init)
		}
		return
	}
	var taints []Value
	var callers []bool
	if x.Init != nil {
		taints, callers = w.destructure(x.Init, len(x.Vars))
	} else {
		taints, callers = make([]Value, len(x.Vars)), make([]bool, len(x.Vars))
	}
	for i, v := range x.Vars {
		if v != nil {
			w.act.declare(v, taints[i], callers[i], depth)
		}
	}
}

// storageAlias returns the state variable referenced by the initializer of a storage reference
func (w *walker) storageAlias(init ir.Expr) *ir.StateVariable {
	root, _ := ir.RootVariable(init)
	if root == nil {
		return nil
	}
	if root.State != nil {
		return root.State
	}
	if root.Var != nil {
		if l := w.act.lookup(root.Var); l != nil {
			return l.alias
		}
	}
	return nil
}

func (w *walker) ifStmt(x *ir.If) {
	c := w.eval(x.Cond)

	w.scopes.Push(c)
	w.block(x.Then)
	thenJump := w.jump
	w.jump = noJump
	w.scopes.Pop()

	elseJump := noJump
	if x.Else != nil {
		w.scopes.Push(c)
		w.block(x.Else)
		elseJump = w.jump
		w.jump = noJump
		w.scopes.Pop()
	}
	// the statements after the if are unreachable only if both branches jump
	if thenJump != noJump && elseJump != noJump {
		w.jump = thenJump
	}
}

// loop walks the body of a loop until the taint of the environment does not change, or the maximum number of
// iterations is reached. Every pass runs in the same branch scope, whose condition grows with the taint of the
// loop condition.
func (w *walker) loop(x *ir.Loop) {
	frames := 0
	if x.Init != nil {
		frames = w.stmt(x.Init)
	}
	c := Clean
	if !x.DoWhile {
		c = w.eval(x.Cond)
	}
	id := w.scopes.Push(c)
	max := w.cfg.MaxLoopIterations
	if max <= 0 {
		max = config.DefaultMaxLoopIterations
	}
	for i := 0; i < max; i++ {
		before := takeSnapshot(w.env, w.act)
		w.block(x.Body)
		w.jump = noJump
		if x.Post != nil {
			frames += w.stmt(x.Post)
		}
		w.scopes.Widen(w.eval(x.Cond))
		after := takeSnapshot(w.env, w.act)
		if before.equal(after) {
			w.logger.Tracef("  loop fixpoint after %d iterations in %s", i+1, w.act.name)
			break
		}
		if i == max-1 {
			w.logger.Debugf("loop in %s did not converge after %d iterations", w.act.name, max)
		}
		// re-enter the same scope under the widened condition
		cond := w.scopes.Condition()
		w.scopes.Pop()
		w.scopes.PushID(id, cond)
	}
	w.scopes.Pop()
	for ; frames > 0; frames-- {
		w.scopes.Pop()
	}
}

func (w *walker) tryStmt(x *ir.Try) {
	t := w.eval(x.Call)
	depth := w.scopes.Depth()

	w.scopes.Push(Clean)
	for _, v := range x.Returns {
		if v != nil {
			w.act.declare(v, t, false, depth+1)
		}
	}
	w.block(x.Body)
	w.jump = noJump
	w.scopes.Pop()

	for _, c := range x.Catches {
		w.scopes.Push(Clean)
		for _, v := range c.Params {
			if v != nil {
				w.act.declare(v, Clean, false, depth+1)
			}
		}
		w.block(c.Body)
		w.jump = noJump
		w.scopes.Pop()
	}
}
