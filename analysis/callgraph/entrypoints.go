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

package callgraph

import (
	"github.com/awslabs/ar-sol-tools/analysis/ir"
	"github.com/awslabs/ar-sol-tools/internal/funcutil"
)

// EntryPoint is the root of one transaction: the deployment of the contract, or a call to one of its externally
// callable functions.
type EntryPoint struct {
	Contract *ir.Contract
	// Function is the externally callable function, or nil for the deployment
	Function *ir.Function
}

// IsConstructor is true for the deployment entry point
func (e EntryPoint) IsConstructor() bool {
	return e.Function == nil
}

// Name returns the canonical name of the entry point. Deployments are named after the constructor of the derived
// contract, even when it does not declare one.
func (e EntryPoint) Name() string {
	if e.Function == nil {
		if ctor := e.Contract.Constructor(); ctor != nil {
			return ctor.CanonicalName()
		}
		return e.Contract.Name + ".constructor()"
	}
	return e.Function.CanonicalName()
}

func (e EntryPoint) String() string {
	return e.Name()
}

// EntryPoints returns the entry points of the derived contract: the deployment first if there is code to run at
// deployment, then the implemented public and external functions, fallback and receive, in linearization order from
// the most derived contract. Overridden functions are not entry points.
func (g *Graph) EntryPoints() []EntryPoint {
	var res []EntryPoint
	for _, link := range g.ConstructorChain() {
		if link.Constructor != nil || funcutil.Exists(link.Initializers, (*ir.StateVariable).InStorage) {
			res = append(res, EntryPoint{Contract: g.Contract})
			break
		}
	}
	seen := map[string]bool{}
	for _, x := range g.Contract.Linearization() {
		for _, f := range x.Functions {
			if f.Kind == ir.FuncConstructor || !f.IsExternallyCallable() || !f.Implemented() {
				continue
			}
			sig := f.Signature()
			if seen[sig] {
				continue
			}
			seen[sig] = true
			res = append(res, EntryPoint{Contract: g.Contract, Function: f})
		}
	}
	return res
}

// ChainLink is one step of a deployment: the state initializers of a contract of the linearization, then its
// constructor.
type ChainLink struct {
	Contract *ir.Contract
	// Initializers are the state variables with an initializer, in declaration order. Constants and immutables are
	// included: they have no storage but their value can be read by the constructors.
	Initializers []*ir.StateVariable
	// Constructor is nil when the contract does not declare one
	Constructor *ir.Function
	// Args are the arguments of the constructor, given by a derived contract in its inheritance list or in the
	// modifier list of its constructor
	Args []ir.Expr
	// Invoker is the constructor evaluating Args, or nil if Args come from an inheritance list of a contract
	// without constructor
	Invoker *ir.Function
}

// ConstructorChain returns the deployment steps of the derived contract, from the most base-like contract
func (g *Graph) ConstructorChain() []ChainLink {
	lin := g.Contract.Linearization()
	var chain []ChainLink
	for i := len(lin) - 1; i >= 0; i-- {
		x := lin[i]
		link := ChainLink{Contract: x, Constructor: x.Constructor()}
		for _, v := range x.State {
			if v.Init != nil {
				link.Initializers = append(link.Initializers, v)
			}
		}
		link.Args, link.Invoker = baseArgs(lin[:i], x)
		chain = append(chain, link)
	}
	return chain
}

// baseArgs finds the arguments given to the constructor of base by one of the derived contracts
func baseArgs(derived []*ir.Contract, base *ir.Contract) ([]ir.Expr, *ir.Function) {
	for _, d := range derived {
		for _, b := range d.Bases {
			if b.Name == base.Name && len(b.Args) > 0 {
				return b.Args, d.Constructor()
			}
		}
		if ctor := d.Constructor(); ctor != nil {
			for _, inv := range ctor.Modifiers {
				if inv.Name == base.Name {
					return inv.Args, ctor
				}
			}
		}
	}
	return nil, nil
}
