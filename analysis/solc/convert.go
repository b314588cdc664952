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
package solc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/awslabs/ar-sol-tools/analysis/ir"
)

// converter builds a program from source units. Declarations are registered by AST id in a first pass, so that
// identifiers and call targets of bodies can be resolved across contracts and files.
type converter struct {
	prog      *ir.Program
	contracts map[int]*ir.Contract
	funcs     map[int]*ir.Function
	states    map[int]*ir.StateVariable
	vars      map[int]*ir.Variable
	// events and errors, which are called but have no body
	signals map[int]bool

	// the contract of the body being converted
	contract *ir.Contract
}

func newConverter() *converter {
	return &converter{
		prog:      ir.NewProgram(),
		contracts: map[int]*ir.Contract{},
		funcs:     map[int]*ir.Function{},
		states:    map[int]*ir.StateVariable{},
		vars:      map[int]*ir.Variable{},
		signals:   map[int]bool{},
	}
}

type pendingContract struct {
	contract *ir.Contract
	node     *node
	bodies   map[*ir.Function]*node
}

func (cv *converter) convert(units []*node) (*ir.Program, error) {
	var todo []pendingContract
	for _, u := range units {
		var unitContracts []*ir.Contract
		var fileStructs []*node
		var fileEnums []*node
		for _, n := range u.Nodes {
			if n == nil {
				continue
			}
			switch n.NodeType {
			case "ContractDefinition":
				p, err := cv.declareContract(n)
				if err != nil {
					return nil, err
				}
				unitContracts = append(unitContracts, p.contract)
				todo = append(todo, p)
			case "StructDefinition":
				fileStructs = append(fileStructs, n)
			case "EnumDefinition":
				fileEnums = append(fileEnums, n)
			case "EventDefinition", "ErrorDefinition":
				cv.signals[n.ID] = true
			}
		}
		// file-level types are visible in every contract of the file
		for _, c := range unitContracts {
			for _, s := range fileStructs {
				if _, ok := c.Structs[s.Name]; !ok {
					c.Structs[s.Name] = cv.structDef(c, s)
				}
			}
			for _, e := range fileEnums {
				if _, ok := c.Enums[e.Name]; !ok {
					c.Enums[e.Name] = enumMembers(e)
				}
			}
		}
	}

	if err := cv.prog.Link(); err != nil {
		return nil, err
	}

	for _, p := range todo {
		if err := cv.convertBodies(p); err != nil {
			return nil, fmt.Errorf("contract %s: %w", p.contract.Name, err)
		}
	}
	return cv.prog, nil
}

func (cv *converter) declareContract(n *node) (pendingContract, error) {
	kind, err := ir.ParseContractKind(n.ContractKind)
	if err != nil {
		return pendingContract{}, fmt.Errorf("contract %s: %w", n.Name, err)
	}
	if n.Abstract && kind == ir.KindContract {
		kind = ir.KindAbstract
	}
	c := ir.NewContract(n.Name, kind)
	cv.contracts[n.ID] = c
	for _, b := range n.BaseContracts {
		if b == nil || b.BaseName == nil {
			continue
		}
		c.Bases = append(c.Bases, ir.BaseSpec{Name: lastSegment(nameOf(b.BaseName))})
	}
	p := pendingContract{contract: c, node: n, bodies: map[*ir.Function]*node{}}
	for _, m := range n.Nodes {
		if m == nil {
			continue
		}
		switch m.NodeType {
		case "VariableDeclaration":
			v := &ir.StateVariable{
				Contract:  c,
				Name:      m.Name,
				Type:      cleanType(m.TypeDescriptions.TypeString),
				Constant:  m.Constant || m.Mutability == "constant",
				Immutable: m.Mutability == "immutable",
				Index:     len(c.State),
			}
			cv.states[m.ID] = v
			c.State = append(c.State, v)
		case "StructDefinition":
			c.Structs[m.Name] = cv.structDef(c, m)
		case "EnumDefinition":
			c.Enums[m.Name] = enumMembers(m)
		case "FunctionDefinition":
			f, err := cv.declareFunction(c, m, false)
			if err != nil {
				return p, err
			}
			c.Functions = append(c.Functions, f)
			p.bodies[f] = m
		case "ModifierDefinition":
			f, err := cv.declareFunction(c, m, true)
			if err != nil {
				return p, err
			}
			c.Modifiers = append(c.Modifiers, f)
			p.bodies[f] = m
		case "EventDefinition", "ErrorDefinition":
			cv.signals[m.ID] = true
		}
	}
	if err := cv.prog.AddContract(c); err != nil {
		return p, err
	}
	return p, nil
}

func (cv *converter) structDef(c *ir.Contract, n *node) *ir.Struct {
	s := &ir.Struct{Contract: c, Name: n.Name}
	for _, m := range n.Members {
		if m != nil {
			s.Fields = append(s.Fields, &ir.Variable{Name: m.Name, Type: cleanType(m.TypeDescriptions.TypeString)})
		}
	}
	return s
}

func enumMembers(n *node) []string {
	var res []string
	for _, m := range n.Members {
		if m != nil {
			res = append(res, m.Name)
		}
	}
	return res
}

func (cv *converter) declareFunction(c *ir.Contract, n *node, modifier bool) (*ir.Function, error) {
	f := &ir.Function{Contract: c, Name: n.Name, Virtual: n.Virtual}
	if modifier {
		f.Kind = ir.FuncModifier
		f.Visibility = ir.Internal
	} else {
		kind, err := ir.ParseFunctionKind(n.Kind)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", c.Name, n.Name, err)
		}
		f.Kind = kind
		vis, err := ir.ParseVisibility(n.Visibility)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", c.Name, n.Name, err)
		}
		f.Visibility = vis
	}
	for _, p := range n.parameterList() {
		f.Params = append(f.Params, cv.variable(p, ir.VarParam))
	}
	for _, r := range n.ReturnParameters.parameterList() {
		f.Returns = append(f.Returns, cv.variable(r, ir.VarReturn))
	}
	cv.funcs[n.ID] = f
	return f, nil
}

// variable registers the local variable declared by n
func (cv *converter) variable(n *node, kind ir.VarKind) *ir.Variable {
	if n == nil {
		return nil
	}
	v := &ir.Variable{
		Name:    n.Name,
		Type:    cleanType(n.TypeDescriptions.TypeString),
		Kind:    kind,
		Storage: n.StorageLocation == "storage",
	}
	cv.vars[n.ID] = v
	return v
}

func (cv *converter) convertBodies(p pendingContract) error {
	cv.contract = p.contract
	for i, b := range p.node.BaseContracts {
		if b == nil || i >= len(p.contract.Bases) {
			continue
		}
		p.contract.Bases[i].Args = cv.exprs(b.Arguments)
	}
	for _, m := range p.node.Nodes {
		if m == nil || m.NodeType != "VariableDeclaration" {
			continue
		}
		if init := m.valueNode(); init != nil {
			cv.states[m.ID].Init = cv.expr(init)
		}
	}
	for _, f := range append(append([]*ir.Function{}, p.contract.Modifiers...), p.contract.Functions...) {
		n := p.bodies[f]
		for _, inv := range n.Modifiers {
			if inv == nil || inv.ModifierName == nil {
				continue
			}
			f.Modifiers = append(f.Modifiers, &ir.ModifierInvocation{
				Name: lastSegment(nameOf(inv.ModifierName)),
				Args: cv.exprs(inv.Arguments),
			})
		}
		if n.Body != nil {
			f.Body = cv.block(n.Body)
		}
	}
	return nil
}

// nameOf returns the name of an identifier path or a user-defined type name
func nameOf(n *node) string {
	if n == nil {
		return ""
	}
	if n.Name != "" {
		return n.Name
	}
	if n.PathNode != nil {
		return n.PathNode.Name
	}
	return cleanType(n.TypeDescriptions.TypeString)
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

var (
	dataLocation  = regexp.MustCompile(`\s+(storage ref|storage pointer|storage|memory|calldata)\b`)
	typeQualifier = regexp.MustCompile(`\b(struct|enum|contract|interface|library)\s+`)
)

// cleanType converts a type string of the compiler into a type name: data locations and the struct, enum and
// contract qualifiers are dropped.
func cleanType(s string) string {
	return strings.TrimSpace(typeQualifier.ReplaceAllString(dataLocation.ReplaceAllString(s, ""), ""))
}
