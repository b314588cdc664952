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
// Package formatutil manipulates string colors and other formatting operations.
package ir

import (
	"strings"
	"testing"
)

const inheritance = `
contracts:
  - name: Base
    kind: abstract
    state:
      - uint128 counter
    functions:
      - name: bump
        visibility: internal
        virtual: true
        params: [uint x]
        body:
          - assign: [counter, +=, x]
  - name: Vault
    inherits: [{name: Base}]
    state:
      - address owner
      - mapping(address => uint) balances
      - uint256 constant LIMIT = 10
    functions:
      - name: bump
        visibility: internal
        params: [uint x]
        body:
          - do: {call: super.bump, args: [x]}
      - name: deposit
        visibility: external
        body:
          - let: [uint256 g, gasleft()]
          - assign: ["balances[msg.sender]", g]
          - do: {call: bump, args: [g]}
          - require: [{bin: [g, ">", LIMIT]}]
`

func TestParseYAMLResolvesDeclarations(t *testing.T) {
	prog, err := ParseYAML([]byte(inheritance))
	if err != nil {
		t.Fatalf("failed to load program: %v", err)
	}
	vault := prog.Contract("Vault")
	base := prog.Contract("Base")
	if vault == nil || base == nil {
		t.Fatalf("missing contracts in %v", prog.Contracts)
	}
	if d := prog.Derived(); len(d) != 1 || d[0] != vault {
		t.Errorf("expected Vault to be the only derived contract, got %v", d)
	}
	if lin := vault.Linearization(); len(lin) != 2 || lin[0] != vault || lin[1] != base {
		t.Errorf("unexpected linearization %v", lin)
	}
	if sv := vault.LookupState("counter"); sv == nil || sv.Contract != base {
		t.Errorf("inherited state variable counter not found from Vault")
	}
	if limit := vault.LookupState("LIMIT"); limit == nil || !limit.Constant || limit.InStorage() {
		t.Errorf("LIMIT should be a constant without storage")
	}

	deposit := vault.Functions[1]
	if got := deposit.CanonicalName(); got != "Vault.deposit()" {
		t.Errorf("canonical name is %s", got)
	}
	if got := vault.Functions[0].CanonicalName(); got != "Vault.bump(uint256)" {
		t.Errorf("canonical name is %s, aliases should be expanded", got)
	}
	stmts := deposit.Body.Stmts
	if len(stmts) != 4 {
		t.Fatalf("expected 4 statements, got %d", len(stmts))
	}

	decl, ok := stmts[0].(*VarDecl)
	if !ok || len(decl.Vars) != 1 {
		t.Fatalf("expected a declaration, got %T", stmts[0])
	}
	if env, ok := decl.Init.(*Env); !ok || env.Name != "gasleft()" {
		t.Errorf("expected gasleft() to be an environment read, got %v", decl.Init)
	}

	assign := stmts[1].(*Assign)
	idx, ok := assign.LHS.(*Index)
	if !ok {
		t.Fatalf("expected an index expression, got %T", assign.LHS)
	}
	if id, ok := idx.Base.(*Ident); !ok || id.State == nil || id.State.Name != "balances" {
		t.Errorf("balances should resolve to the state variable, got %v", idx.Base)
	}
	if env, ok := idx.Key.(*Env); !ok || env.Name != "msg.sender" {
		t.Errorf("expected msg.sender key, got %v", idx.Key)
	}
	if id, ok := assign.RHS.(*Ident); !ok || id.Var != decl.Vars[0] {
		t.Errorf("g should resolve to the local declaration, got %v", assign.RHS)
	}

	call := stmts[2].(*ExprStmt).X.(*Call)
	if call.Kind != CallVirtual || call.Target != vault.Functions[0] {
		t.Errorf("bump should resolve to the override in Vault, got %v", call.Target)
	}
	super := vault.Functions[0].Body.Stmts[0].(*ExprStmt).X.(*Call)
	if super.Kind != CallSuper || super.Target != base.Functions[0] {
		t.Errorf("super.bump should resolve to Base.bump, got %v", super.Target)
	}
	compound := base.Functions[0].Body.Stmts[0].(*Assign)
	if compound.Op != "+=" {
		t.Errorf("expected a compound assignment, got %q", compound.Op)
	}

	guard, ok := stmts[3].(*Guard)
	if !ok || guard.Name != "require" || len(guard.Args) != 1 {
		t.Fatalf("expected a require guard, got %T", stmts[3])
	}
	if bin := guard.Args[0].(*Binary); bin.Op != ">" {
		t.Errorf("unexpected guard condition %v", bin)
	}
}

func TestLinearizationDiamond(t *testing.T) {
	src := `
contracts:
  - name: A
  - name: B
    inherits: [A]
  - name: C
    inherits: [A]
  - name: D
    inherits: [B, C]
`
	prog, err := ParseYAML([]byte(src))
	if err != nil {
		t.Fatalf("failed to load program: %v", err)
	}
	var names []string
	for _, c := range prog.Contract("D").Linearization() {
		names = append(names, c.Name)
	}
	if got := strings.Join(names, " "); got != "D C B A" {
		t.Errorf("linearization of D is %q", got)
	}
}

func TestParseYAMLErrors(t *testing.T) {
	tests := map[string]string{
		"unknown base": `
contracts:
  - name: A
    inherits: [Missing]`,
		"cyclic inheritance": `
contracts:
  - name: A
    inherits: [B]
  - name: B
    inherits: [A]`,
		"impossible linearization": `
contracts:
  - name: X
  - name: Y
    inherits: [X]
  - name: Z
    inherits: [Y, X]`,
		"duplicate contract": `
contracts:
  - name: A
  - name: A`,
		"bad kind": `
contracts:
  - name: A
    kind: module`,
		"expression with spaces": `
contracts:
  - name: A
    state: [uint256 x]
    functions:
      - name: f
        body:
          - assign: [x, a + b]`,
		"unnamed state variable": `
contracts:
  - name: A
    state: [uint256]`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseYAML([]byte(src)); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestParseDecl(t *testing.T) {
	d, err := ParseDecl("mapping(address => uint256) storage ref", true)
	if err != nil || d.Name != "ref" || !d.Storage || d.Type != "mapping(address => uint256)" {
		t.Errorf("unexpected declaration %+v (%v)", d, err)
	}
	d, err = ParseDecl("uint128 immutable start", true)
	if err != nil || !d.Immutable || d.Type != "uint128" {
		t.Errorf("unexpected declaration %+v (%v)", d, err)
	}
	if d, err = ParseDecl("bytes memory", false); err != nil || d.Name != "" || d.Type != "bytes" {
		t.Errorf("unexpected unnamed declaration %+v (%v)", d, err)
	}
	if got := NormalizeType("mapping(address payable => uint) memory"); got != "mapping(address=>uint256)" {
		t.Errorf("NormalizeType gave %q", got)
	}
}

func TestIsEnvName(t *testing.T) {
	for name, want := range map[string]bool{
		"gasleft()":          true,
		"msg.sender":         true,
		"block.basefee":      true,
		"tx.gasprice":        true,
		"msg.sender.balance": false,
		"block":              false,
		"owner":              false,
	} {
		if got := IsEnvName(name); got != want {
			t.Errorf("IsEnvName(%q) = %v", name, got)
		}
	}
}

func TestParseYAMLBodiesAndArguments(t *testing.T) {
	src := `
contracts:
  - name: Base
    functions:
      - name: constructor
        params: [uint256 g]
  - name: Meter
    inherits: [{name: Base, args: [gasleft()]}]
    state:
      - uint256 v
      - decl: uint256 start
        init: tx.gasprice
    modifiers:
      - name: stamp
        params: [uint256 x]
        body:
          - assign: [v, x]
          - _
    functions:
      - name: record
        modifiers: [{name: stamp, args: [block.basefee]}]
        body:
          - assign: [v, gasleft()]
      - name: declared
        body:
`
	prog, err := ParseYAML([]byte(src))
	if err != nil {
		t.Fatalf("failed to load program: %v", err)
	}
	meter := prog.Contract("Meter")
	if args := meter.Bases[0].Args; len(args) != 1 {
		t.Fatalf("expected one base constructor argument, got %v", args)
	} else if env, ok := args[0].(*Env); !ok || env.Name != "gasleft()" {
		t.Errorf("unexpected base argument %v", args[0])
	}
	if init, ok := meter.State[1].Init.(*Env); !ok || init.Name != "tx.gasprice" {
		t.Errorf("unexpected initializer %v", meter.State[1].Init)
	}
	if meter.State[0].Init != nil {
		t.Errorf("v has no initializer")
	}
	stamp := meter.Modifiers[0]
	if stamp.Body == nil || len(stamp.Body.Stmts) != 2 {
		t.Fatalf("modifier body not loaded")
	}
	if _, ok := stamp.Body.Stmts[1].(*Placeholder); !ok {
		t.Errorf("expected a placeholder, got %T", stamp.Body.Stmts[1])
	}
	record := meter.Functions[0]
	if len(record.Modifiers) != 1 || len(record.Modifiers[0].Args) != 1 {
		t.Fatalf("modifier invocation arguments not loaded: %v", record.Modifiers)
	}
	if record.Body == nil || len(record.Body.Stmts) != 1 {
		t.Fatalf("function body not loaded")
	}
	assign := record.Body.Stmts[0].(*Assign)
	if env, ok := assign.RHS.(*Env); !ok || env.Name != "gasleft()" {
		t.Errorf("unexpected right-hand side %v", assign.RHS)
	}
	if meter.Functions[1].Implemented() {
		t.Errorf("a function with an empty body should not be implemented")
	}
	if prog.Contract("Base").Functions[0].Implemented() {
		t.Errorf("a function without body should not be implemented")
	}
}
