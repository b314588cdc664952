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
	"strings"
)

// ContractKind is the kind of a contract declaration
type ContractKind int

const (
	// KindContract is a concrete contract
	KindContract ContractKind = iota
	// KindAbstract is an abstract contract
	KindAbstract
	// KindLibrary is a library
	KindLibrary
	// KindInterface is an interface
	KindInterface
)

func (k ContractKind) String() string {
	switch k {
	case KindContract:
		return "contract"
	case KindAbstract:
		return "abstract"
	case KindLibrary:
		return "library"
	case KindInterface:
		return "interface"
	}
	return "unknown"
}

// ParseContractKind parses the kind keyword of a contract. The empty string is a concrete contract.
func ParseContractKind(s string) (ContractKind, error) {
	switch s {
	case "", "contract":
		return KindContract, nil
	case "abstract":
		return KindAbstract, nil
	case "library":
		return KindLibrary, nil
	case "interface":
		return KindInterface, nil
	}
	return KindContract, fmt.Errorf("unknown contract kind %q", s)
}

// A Program is a set of contracts compiled together.
type Program struct {
	// Contracts in declaration order
	Contracts []*Contract

	byName map[string]*Contract
}

// NewProgram returns an empty program
func NewProgram() *Program {
	return &Program{byName: map[string]*Contract{}}
}

// AddContract adds c to the program. Contract names must be unique.
func (p *Program) AddContract(c *Contract) error {
	if _, ok := p.byName[c.Name]; ok {
		return fmt.Errorf("duplicate contract %s", c.Name)
	}
	p.byName[c.Name] = c
	p.Contracts = append(p.Contracts, c)
	c.Program = p
	return nil
}

// Contract returns the contract named name, or nil
func (p *Program) Contract(name string) *Contract {
	return p.byName[name]
}

// Link resolves the base contracts of every contract and computes their linearization.
func (p *Program) Link() error {
	for _, c := range p.Contracts {
		c.bases = nil
		for _, b := range c.Bases {
			bc := p.byName[b.Name]
			if bc == nil {
				return fmt.Errorf("contract %s inherits from unknown contract %s", c.Name, b.Name)
			}
			c.bases = append(c.bases, bc)
		}
		c.linearization = nil
	}
	for _, c := range p.Contracts {
		if _, err := c.linearize(map[*Contract]bool{}); err != nil {
			return err
		}
	}
	return nil
}

// Derived returns the deployable contracts that are not inherited by any other contract of the program, in
// declaration order.
func (p *Program) Derived() []*Contract {
	inherited := map[*Contract]bool{}
	for _, c := range p.Contracts {
		for _, b := range c.bases {
			inherited[b] = true
		}
	}
	var res []*Contract
	for _, c := range p.Contracts {
		if !inherited[c] && (c.Kind == KindContract || c.Kind == KindAbstract) {
			res = append(res, c)
		}
	}
	return res
}

// BaseSpec is one entry of an inheritance list, with the optional arguments of the base constructor
type BaseSpec struct {
	Name string
	Args []Expr
}

// Contract is a contract, library or interface declaration
type Contract struct {
	Program *Program
	Name    string
	Kind    ContractKind

	// Bases as declared, from the most base-like to the most derived
	Bases []BaseSpec

	// State variables declared by this contract, in declaration order
	State []*StateVariable

	Structs map[string]*Struct
	Enums   map[string][]string

	// Functions declared by this contract, including constructor, fallback and receive
	Functions []*Function
	Modifiers []*Function

	bases         []*Contract
	linearization []*Contract
}

// NewContract returns an empty contract
func NewContract(name string, kind ContractKind) *Contract {
	return &Contract{
		Name:    name,
		Kind:    kind,
		Structs: map[string]*Struct{},
		Enums:   map[string][]string{},
	}
}

func (c *Contract) String() string {
	return c.Name
}

// Linearization returns the C3 linearization of the contract, starting with the contract itself and ending with
// its most base-like ancestor. It is only valid after the program has been linked.
func (c *Contract) Linearization() []*Contract {
	if c.linearization == nil {
		return []*Contract{c}
	}
	return c.linearization
}

// Inherits returns true if b is c or one of its ancestors
func (c *Contract) Inherits(b *Contract) bool {
	for _, x := range c.Linearization() {
		if x == b {
			return true
		}
	}
	return false
}

// linearize computes the C3 linearization of c. Solidity lists bases from the most base-like to the most derived,
// so the merge considers them right to left.
func (c *Contract) linearize(visiting map[*Contract]bool) ([]*Contract, error) {
	if c.linearization != nil {
		return c.linearization, nil
	}
	if visiting[c] {
		return nil, fmt.Errorf("cyclic inheritance involving %s", c.Name)
	}
	visiting[c] = true
	defer delete(visiting, c)

	var seqs [][]*Contract
	for i := len(c.bases) - 1; i >= 0; i-- {
		l, err := c.bases[i].linearize(visiting)
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, append([]*Contract{}, l...))
	}
	direct := make([]*Contract, 0, len(c.bases))
	for i := len(c.bases) - 1; i >= 0; i-- {
		direct = append(direct, c.bases[i])
	}
	seqs = append(seqs, direct)

	res := []*Contract{c}
	for {
		seqs = nonEmpty(seqs)
		if len(seqs) == 0 {
			break
		}
		var head *Contract
		for _, s := range seqs {
			if !inTail(s[0], seqs) {
				head = s[0]
				break
			}
		}
		if head == nil {
			return nil, fmt.Errorf("linearization of inheritance graph impossible for %s", c.Name)
		}
		res = append(res, head)
		for i, s := range seqs {
			if s[0] == head {
				seqs[i] = s[1:]
			}
		}
	}
	c.linearization = res
	return res, nil
}

func nonEmpty(seqs [][]*Contract) [][]*Contract {
	res := seqs[:0]
	for _, s := range seqs {
		if len(s) > 0 {
			res = append(res, s)
		}
	}
	return res
}

func inTail(c *Contract, seqs [][]*Contract) bool {
	for _, s := range seqs {
		for _, x := range s[1:] {
			if x == c {
				return true
			}
		}
	}
	return false
}

// LookupState returns the state variable named name visible from c, searching its linearization
func (c *Contract) LookupState(name string) *StateVariable {
	for _, x := range c.Linearization() {
		for _, v := range x.State {
			if v.Name == name {
				return v
			}
		}
	}
	return nil
}

// LookupStruct returns the struct type named name visible from c. Qualified names (Contract.Struct) are looked up
// in the contract they name. Unqualified names are looked up along the linearization, then in the whole program.
func (c *Contract) LookupStruct(name string) *Struct {
	if owner, member, ok := strings.Cut(name, "."); ok && c.Program != nil {
		if oc := c.Program.Contract(owner); oc != nil {
			return oc.Structs[member]
		}
		return nil
	}
	for _, x := range c.Linearization() {
		if s, ok := x.Structs[name]; ok {
			return s
		}
	}
	if c.Program != nil {
		for _, x := range c.Program.Contracts {
			if s, ok := x.Structs[name]; ok {
				return s
			}
		}
	}
	return nil
}

// LookupEnum returns the members of the enum type named name visible from c, or nil
func (c *Contract) LookupEnum(name string) []string {
	if owner, member, ok := strings.Cut(name, "."); ok && c.Program != nil {
		if oc := c.Program.Contract(owner); oc != nil {
			return oc.Enums[member]
		}
		return nil
	}
	for _, x := range c.Linearization() {
		if e, ok := x.Enums[name]; ok {
			return e
		}
	}
	if c.Program != nil {
		for _, x := range c.Program.Contracts {
			if e, ok := x.Enums[name]; ok {
				return e
			}
		}
	}
	return nil
}

// Constructor returns the constructor declared by c, or nil
func (c *Contract) Constructor() *Function {
	for _, f := range c.Functions {
		if f.Kind == FuncConstructor {
			return f
		}
	}
	return nil
}

// Struct is a struct type declaration
type Struct struct {
	Contract *Contract
	Name     string
	Fields   []*Variable
}

// StateVariable is a state variable declaration
type StateVariable struct {
	// Contract is the declaring contract
	Contract  *Contract
	Name      string
	Type      string
	Constant  bool
	Immutable bool
	// Index is the declaration order in the declaring contract
	Index int
	// Init is the initializer expression, or nil
	Init Expr
}

// CanonicalName returns Contract.name
func (v *StateVariable) CanonicalName() string {
	return v.Contract.Name + "." + v.Name
}

func (v *StateVariable) String() string {
	return v.CanonicalName()
}

// InStorage returns true if the variable occupies storage
func (v *StateVariable) InStorage() bool {
	return !v.Constant && !v.Immutable
}
