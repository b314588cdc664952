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

package ir

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// The yaml representation of a program. Function bodies are kept as yaml nodes and decoded once every contract
// header is known, so that identifiers and call targets can be resolved.

type yamlProgram struct {
	Contracts []yamlContract `yaml:"contracts"`
}

type yamlContract struct {
	Name      string              `yaml:"name"`
	Kind      string              `yaml:"kind"`
	Inherits  []yamlInvocation    `yaml:"inherits"`
	State     []yamlStateVar      `yaml:"state"`
	Structs   map[string][]string `yaml:"structs"`
	Enums     map[string][]string `yaml:"enums"`
	Modifiers []yamlFunction      `yaml:"modifiers"`
	Functions []yamlFunction      `yaml:"functions"`
}

// yamlInvocation is either a name or a mapping {name: N, args: [...]}
type yamlInvocation struct {
	Name string
	Args []*yaml.Node
}

func (y *yamlInvocation) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		y.Name = n.Value
		return nil
	}
	var raw struct {
		Name string      `yaml:"name"`
		Args []yaml.Node `yaml:"args"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}
	y.Name = raw.Name
	for i := range raw.Args {
		y.Args = append(y.Args, &raw.Args[i])
	}
	return nil
}

// yamlStateVar is either a declaration string, optionally followed by "= expr", or a mapping {decl: D, init: E}
type yamlStateVar struct {
	Decl string
	Init *yaml.Node
}

func (y *yamlStateVar) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		decl, init, found := strings.Cut(n.Value, " = ")
		y.Decl = strings.TrimSpace(decl)
		if found {
			y.Init = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: strings.TrimSpace(init), Line: n.Line}
		}
		return nil
	}
	var raw struct {
		Decl string    `yaml:"decl"`
		Init yaml.Node `yaml:"init"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}
	y.Decl = raw.Decl
	if raw.Init.Kind != 0 {
		y.Init = &raw.Init
	}
	return nil
}

type yamlFunction struct {
	Name       string           `yaml:"name"`
	Kind       string           `yaml:"kind"`
	Visibility string           `yaml:"visibility"`
	Params     []string         `yaml:"params"`
	Returns    []string         `yaml:"returns"`
	Modifiers  []yamlInvocation `yaml:"modifiers"`
	Virtual    bool             `yaml:"virtual"`
	Body       yaml.Node        `yaml:"body"`
}

// LoadYAMLFile loads a program from a yaml file
func LoadYAMLFile(filename string) (*Program, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read program file: %w", err)
	}
	p, err := ParseYAML(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return p, nil
}

// ParseYAML decodes a program from its yaml representation and links it
func ParseYAML(data []byte) (*Program, error) {
	var yp yamlProgram
	if err := yaml.Unmarshal(data, &yp); err != nil {
		return nil, fmt.Errorf("could not unmarshal program: %w", err)
	}
	prog := NewProgram()
	type pending struct {
		contract *Contract
		raw      *yamlContract
		funcs    map[*Function]*yamlFunction
	}
	var todo []pending

	// First pass: declarations
	for i := range yp.Contracts {
		yc := &yp.Contracts[i]
		if yc.Name == "" {
			return nil, fmt.Errorf("contract %d has no name", i)
		}
		kind, err := ParseContractKind(yc.Kind)
		if err != nil {
			return nil, fmt.Errorf("contract %s: %w", yc.Name, err)
		}
		c := NewContract(yc.Name, kind)
		for _, inv := range yc.Inherits {
			c.Bases = append(c.Bases, BaseSpec{Name: inv.Name})
		}
		for j, sv := range yc.State {
			d, err := ParseDecl(sv.Decl, true)
			if err != nil {
				return nil, fmt.Errorf("contract %s: %w", yc.Name, err)
			}
			c.State = append(c.State, &StateVariable{
				Contract:  c,
				Name:      d.Name,
				Type:      d.Type,
				Constant:  d.Constant,
				Immutable: d.Immutable,
				Index:     j,
			})
		}
		for name, fields := range yc.Structs {
			s := &Struct{Contract: c, Name: name}
			for _, f := range fields {
				d, err := ParseDecl(f, true)
				if err != nil {
					return nil, fmt.Errorf("struct %s.%s: %w", yc.Name, name, err)
				}
				s.Fields = append(s.Fields, &Variable{Name: d.Name, Type: d.Type})
			}
			c.Structs[name] = s
		}
		for name, members := range yc.Enums {
			c.Enums[name] = members
		}
		p := pending{contract: c, raw: yc, funcs: map[*Function]*yamlFunction{}}
		for j := range yc.Modifiers {
			f, err := declareFunction(c, &yc.Modifiers[j], true)
			if err != nil {
				return nil, err
			}
			c.Modifiers = append(c.Modifiers, f)
			p.funcs[f] = &yc.Modifiers[j]
		}
		for j := range yc.Functions {
			f, err := declareFunction(c, &yc.Functions[j], false)
			if err != nil {
				return nil, err
			}
			c.Functions = append(c.Functions, f)
			p.funcs[f] = &yc.Functions[j]
		}
		if err := prog.AddContract(c); err != nil {
			return nil, err
		}
		todo = append(todo, p)
	}

	if err := prog.Link(); err != nil {
		return nil, err
	}

	// Second pass: expressions and bodies
	for _, p := range todo {
		b := &builder{prog: prog, contract: p.contract}
		for i, inv := range p.raw.Inherits {
			args, err := b.exprs(inv.Args)
			if err != nil {
				return nil, fmt.Errorf("contract %s: %w", p.contract.Name, err)
			}
			p.contract.Bases[i].Args = args
		}
		for i, sv := range p.raw.State {
			if sv.Init == nil {
				continue
			}
			init, err := b.expr(sv.Init)
			if err != nil {
				return nil, fmt.Errorf("contract %s: %w", p.contract.Name, err)
			}
			p.contract.State[i].Init = init
		}
		for _, f := range append(append([]*Function{}, p.contract.Modifiers...), p.contract.Functions...) {
			if err := b.function(f, p.funcs[f]); err != nil {
				return nil, fmt.Errorf("%s: %w", f.CanonicalName(), err)
			}
		}
	}
	return prog, nil
}

func declareFunction(c *Contract, yf *yamlFunction, modifier bool) (*Function, error) {
	kind, err := ParseFunctionKind(yf.Kind)
	if err != nil {
		return nil, fmt.Errorf("contract %s: %w", c.Name, err)
	}
	if modifier {
		kind = FuncModifier
	} else if yf.Kind == "" {
		switch yf.Name {
		case "constructor":
			kind = FuncConstructor
		case "fallback":
			kind = FuncFallback
		case "receive":
			kind = FuncReceive
		}
	}
	vis, err := ParseVisibility(yf.Visibility)
	if err != nil {
		return nil, fmt.Errorf("contract %s: %w", c.Name, err)
	}
	if yf.Visibility == "" {
		switch {
		case modifier:
			vis = Internal
		case kind == FuncFallback || kind == FuncReceive:
			vis = External
		}
	}
	name := yf.Name
	if name == "" {
		switch kind {
		case FuncConstructor:
			name = "constructor"
		case FuncFallback:
			name = "fallback"
		case FuncReceive:
			name = "receive"
		default:
			return nil, fmt.Errorf("contract %s: function without name", c.Name)
		}
	}
	f := &Function{
		Contract:   c,
		Name:       name,
		Kind:       kind,
		Visibility: vis,
		Virtual:    yf.Virtual,
	}
	for _, p := range yf.Params {
		v, err := parseVariable(p, VarParam)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		f.Params = append(f.Params, v)
	}
	for _, r := range yf.Returns {
		v, err := parseVariable(r, VarReturn)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		f.Returns = append(f.Returns, v)
	}
	return f, nil
}

func parseVariable(s string, kind VarKind) (*Variable, error) {
	d, err := ParseDecl(s, false)
	if err != nil {
		return nil, err
	}
	return &Variable{Name: d.Name, Type: d.Type, Kind: kind, Storage: d.Storage}, nil
}

// builder decodes the expressions and statements of one contract
type builder struct {
	prog     *Program
	contract *Contract
	scopes   []map[string]*Variable
}

func (b *builder) function(f *Function, yf *yamlFunction) error {
	b.scopes = nil
	b.push()
	defer b.pop()
	for _, v := range append(append([]*Variable{}, f.Params...), f.Returns...) {
		b.declare(v)
	}
	for _, inv := range yf.Modifiers {
		args, err := b.exprs(inv.Args)
		if err != nil {
			return err
		}
		f.Modifiers = append(f.Modifiers, &ModifierInvocation{Name: inv.Name, Args: args})
	}
	if yf.Body.Kind == 0 || yf.Body.Tag == "!!null" {
		return nil
	}
	body, err := b.block(&yf.Body)
	if err != nil {
		return err
	}
	f.Body = body
	return nil
}

func (b *builder) push() {
	b.scopes = append(b.scopes, map[string]*Variable{})
}

func (b *builder) pop() {
	b.scopes = b.scopes[:len(b.scopes)-1]
}

func (b *builder) declare(v *Variable) {
	if v == nil || v.Name == "" || len(b.scopes) == 0 {
		return
	}
	b.scopes[len(b.scopes)-1][v.Name] = v
}

func (b *builder) lookupLocal(name string) *Variable {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if v, ok := b.scopes[i][name]; ok {
			return v
		}
	}
	return nil
}

// lookupFunction returns the first function named name with nargs parameters along the linearization of c,
// starting after the contract skip when skip is not nil.
func lookupFunction(c *Contract, name string, nargs int, modifier bool, skip *Contract) *Function {
	lin := c.Linearization()
	if skip != nil {
		for i, x := range lin {
			if x == skip {
				lin = lin[i+1:]
				break
			}
		}
	}
	var byName *Function
	for _, x := range lin {
		fns := x.Functions
		if modifier {
			fns = x.Modifiers
		}
		for _, f := range fns {
			if f.Name != name {
				continue
			}
			if nargs < 0 || len(f.Params) == nargs {
				return f
			}
			if byName == nil {
				byName = f
			}
		}
	}
	return byName
}

func nodeErr(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", n.Line, fmt.Sprintf(format, args...))
}
