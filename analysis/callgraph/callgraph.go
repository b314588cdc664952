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

// Package callgraph resolves internal calls and modifiers in the context of a derived contract and builds the
// static call graph of that contract.
package callgraph

import (
	"fmt"

	"github.com/awslabs/ar-sol-tools/analysis/ir"
	"github.com/awslabs/ar-sol-tools/internal/funcutil"
	"github.com/awslabs/ar-sol-tools/internal/graphutil"
	"github.com/yourbasic/graph"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/traverse"
)

// Graph is the static call graph of a derived contract. Nodes are the functions and modifiers that can execute
// in the context of the contract; edges are internal calls and modifier invocations.
type Graph struct {
	// Contract is the derived contract
	Contract *ir.Contract

	// Functions are the nodes of the graph; the id of a function in the underlying graph is its index
	Functions []*ir.Function

	// Unresolved lists the call sites whose target could not be resolved
	Unresolved []error

	ids map[*ir.Function]int64
	cg  graphutil.CGraph
}

// Build returns the call graph of the derived contract c
func Build(c *ir.Contract) *Graph {
	g := &Graph{Contract: c, ids: map[*ir.Function]int64{}}
	var todo []*ir.Function
	add := func(f *ir.Function) {
		if _, ok := g.ids[f]; !ok {
			g.ids[f] = int64(len(g.Functions))
			g.Functions = append(g.Functions, f)
			todo = append(todo, f)
		}
	}
	for _, x := range c.Linearization() {
		for _, f := range x.Functions {
			add(f)
		}
		for _, m := range x.Modifiers {
			add(m)
		}
	}

	type edge struct{ from, to *ir.Function }
	var edges []edge
	for len(todo) > 0 {
		f := todo[0]
		todo = todo[1:]
		for _, inv := range f.Modifiers {
			if c.Program != nil && c.Program.Contract(inv.Name) != nil {
				// base constructor invocation
				continue
			}
			if m := g.ResolveModifier(inv.Name); m != nil {
				add(m)
				edges = append(edges, edge{f, m})
			} else {
				g.Unresolved = append(g.Unresolved, fmt.Errorf("%s: unresolved modifier %s", f.CanonicalName(), inv.Name))
			}
		}
		if f.Body == nil {
			continue
		}
		ir.Inspect(f.Body, func(n ir.Node) bool {
			call, ok := n.(*ir.Call)
			if !ok {
				return true
			}
			if callee := g.ResolveCall(f, call); callee != nil {
				add(callee)
				edges = append(edges, edge{f, callee})
			} else {
				g.Unresolved = append(g.Unresolved, fmt.Errorf("%s: unresolved call %s", f.CanonicalName(), call))
			}
			return true
		})
	}

	g.cg = graphutil.NewCGraph(funcutil.Map(g.Functions, (*ir.Function).CanonicalName))
	for _, e := range edges {
		g.cg.AddEdge(g.ids[e.from], g.ids[e.to])
	}
	return g
}

// ResolveCall returns the function executed by call when it appears in caller, or nil if no implementation is
// found. Virtual calls are dispatched along the linearization of the derived contract, super calls start after the
// contract declaring the caller, and fixed calls go to their static target.
func (g *Graph) ResolveCall(caller *ir.Function, call *ir.Call) *ir.Function {
	match := matcher(call)
	switch call.Kind {
	case ir.CallFixed:
		if call.Target != nil {
			return call.Target
		}
		return nil
	case ir.CallSuper:
		lin := g.Contract.Linearization()
		for i, x := range lin {
			if caller != nil && x == caller.Contract {
				return findImplemented(lin[i+1:], match)
			}
		}
		return nil
	}
	lin := g.Contract.Linearization()
	if caller != nil && !g.Contract.Inherits(caller.Contract) {
		// internal calls inside a library function
		lin = caller.Contract.Linearization()
	}
	if f := findImplemented(lin, match); f != nil {
		return f
	}
	if call.Target != nil && call.Target.Implemented() {
		return call.Target
	}
	return nil
}

// ResolveModifier returns the implementation of the modifier name in the derived contract
func (g *Graph) ResolveModifier(name string) *ir.Function {
	for _, x := range g.Contract.Linearization() {
		for _, m := range x.Modifiers {
			if m.Name == name && m.Implemented() {
				return m
			}
		}
	}
	return nil
}

// matcher returns the predicate identifying the overrides of the call target. Calls with a known target match by
// signature; other calls match by name and number of arguments.
func matcher(call *ir.Call) func(*ir.Function) bool {
	if call.Target != nil {
		sig := call.Target.Signature()
		return func(f *ir.Function) bool { return f.Signature() == sig }
	}
	return func(f *ir.Function) bool { return f.Name == call.Name && len(f.Params) == len(call.Args) }
}

func findImplemented(lin []*ir.Contract, match func(*ir.Function) bool) *ir.Function {
	for _, x := range lin {
		for _, f := range x.Functions {
			if f.Kind != ir.FuncModifier && f.Implemented() && match(f) {
				return f
			}
		}
	}
	return nil
}

// Callees returns the functions called by f, including its modifiers
func (g *Graph) Callees(f *ir.Function) []*ir.Function {
	id, ok := g.ids[f]
	if !ok {
		return nil
	}
	return funcutil.Map(g.cg.Successors(id), func(i int64) *ir.Function { return g.Functions[i] })
}

// Reachable returns the functions reachable from f, including f
func (g *Graph) Reachable(f *ir.Function) []*ir.Function {
	id, ok := g.ids[f]
	if !ok {
		return nil
	}
	var res []*ir.Function
	w := traverse.DepthFirst{
		Visit: func(n gonum.Node) { res = append(res, g.Functions[n.ID()]) },
	}
	w.Walk(g.cg, g.cg.Node(id), nil)
	return res
}

// ReachableFrom returns the functions the entry point may execute, in discovery order. The deployment reaches
// the constructors of the whole linearization.
func (g *Graph) ReachableFrom(ep EntryPoint) []*ir.Function {
	roots := []*ir.Function{ep.Function}
	if ep.IsConstructor() {
		roots = nil
		for _, link := range g.ConstructorChain() {
			if link.Constructor != nil {
				roots = append(roots, link.Constructor)
			}
		}
	}
	seen := map[*ir.Function]bool{}
	var res []*ir.Function
	for _, r := range roots {
		for _, f := range g.Reachable(r) {
			if !seen[f] {
				seen[f] = true
				res = append(res, f)
			}
		}
	}
	return res
}

// Recursive returns the functions that are part of a call cycle
func (g *Graph) Recursive() map[*ir.Function]bool {
	return graphutil.Recursive(g.Functions, g.Callees)
}

// Cycles returns all the elementary call cycles of the graph
func (g *Graph) Cycles() [][]*ir.Function {
	return funcutil.Map(graphutil.FindAllElementaryCycles(g.cg), func(cycle []int64) []*ir.Function {
		return funcutil.Map(cycle, func(i int64) *ir.Function { return g.Functions[i] })
	})
}

// Stats returns statistics about the graph
func (g *Graph) Stats() graph.Stats {
	return graph.Check(g.cg)
}
