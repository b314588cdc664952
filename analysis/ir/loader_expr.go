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
	"strings"

	"gopkg.in/yaml.v3"
)

// Builtins are the global functions of the language that the loaders recognize by name
var Builtins = map[string]bool{
	"keccak256":               true,
	"sha256":                  true,
	"ripemd160":               true,
	"ecrecover":               true,
	"addmod":                  true,
	"mulmod":                  true,
	"blockhash":               true,
	"blobhash":                true,
	"require":                 true,
	"assert":                  true,
	"revert":                  true,
	"selfdestruct":            true,
	"abi.encode":              true,
	"abi.encodePacked":        true,
	"abi.encodeWithSelector":  true,
	"abi.encodeWithSignature": true,
	"abi.encodeCall":          true,
	"abi.decode":              true,
	"bytes.concat":            true,
	"string.concat":           true,
}

// IsEnvName returns true if name is a read of the execution environment
func IsEnvName(name string) bool {
	switch name {
	case "gasleft()", "this", "now":
		return true
	}
	for _, prefix := range []string{"block.", "tx.", "msg."} {
		if rest, ok := strings.CutPrefix(name, prefix); ok {
			return rest != "" && !strings.ContainsAny(rest, ".[(")
		}
	}
	return false
}

// IsElementaryType returns true if name is an elementary type name usable in a conversion
func IsElementaryType(name string) bool {
	switch name {
	case "address", "payable", "bool", "string", "bytes", "uint", "int", "byte":
		return true
	}
	for _, prefix := range []string{"uint", "int", "bytes"} {
		if rest, ok := strings.CutPrefix(name, prefix); ok && rest != "" && isDigits(rest) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// StmtOf wraps an expression in a statement. Calls to require and assert become guards.
func StmtOf(x Expr) Stmt {
	if bc, ok := x.(*BuiltinCall); ok && (bc.Name == "require" || bc.Name == "assert") {
		return &Guard{Name: bc.Name, Args: bc.Args}
	}
	if bc, ok := x.(*BuiltinCall); ok && bc.Name == "revert" {
		return &Revert{Args: bc.Args}
	}
	return &ExprStmt{X: x}
}

func (b *builder) exprs(nodes []*yaml.Node) ([]Expr, error) {
	res := make([]Expr, 0, len(nodes))
	for _, n := range nodes {
		e, err := b.expr(n)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, nil
}

// seq returns the expressions of a sequence node; a single non-sequence node is a sequence of one element
func (b *builder) seq(n *yaml.Node) ([]Expr, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind == yaml.SequenceNode {
		return b.exprs(n.Content)
	}
	e, err := b.expr(n)
	if err != nil {
		return nil, err
	}
	return []Expr{e}, nil
}

func fields(n *yaml.Node) map[string]*yaml.Node {
	m := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		m[n.Content[i].Value] = n.Content[i+1]
	}
	return m
}

func (b *builder) expr(n *yaml.Node) (Expr, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!int", "!!float", "!!bool":
			return &Literal{Value: n.Value}, nil
		case "!!null":
			return nil, nil
		}
		return b.atom(n, strings.TrimSpace(n.Value))
	case yaml.SequenceNode:
		elems, err := b.exprs(n.Content)
		if err != nil {
			return nil, err
		}
		return &Tuple{Elems: elems}, nil
	case yaml.MappingNode:
		return b.compound(n)
	case yaml.AliasNode:
		return b.expr(n.Alias)
	}
	return nil, nodeErr(n, "unexpected expression node")
}

func (b *builder) compound(n *yaml.Node) (Expr, error) {
	if len(n.Content) < 2 {
		return nil, nodeErr(n, "empty expression")
	}
	key := n.Content[0].Value
	val := n.Content[1]
	f := fields(n)
	switch key {
	case "bin":
		if val.Kind != yaml.SequenceNode || len(val.Content) != 3 {
			return nil, nodeErr(n, "bin expects [left, op, right]")
		}
		x, err := b.expr(val.Content[0])
		if err != nil {
			return nil, err
		}
		y, err := b.expr(val.Content[2])
		if err != nil {
			return nil, err
		}
		return &Binary{Op: val.Content[1].Value, X: x, Y: y}, nil
	case "un":
		if val.Kind != yaml.SequenceNode || len(val.Content) != 2 {
			return nil, nodeErr(n, "un expects [op, operand]")
		}
		x, err := b.expr(val.Content[1])
		if err != nil {
			return nil, err
		}
		postfix := f["postfix"] != nil && f["postfix"].Value == "true"
		return &Unary{Op: val.Content[0].Value, X: x, Postfix: postfix}, nil
	case "cond":
		if val.Kind != yaml.SequenceNode || len(val.Content) != 3 {
			return nil, nodeErr(n, "cond expects [condition, then, else]")
		}
		es, err := b.exprs(val.Content)
		if err != nil {
			return nil, err
		}
		return &Conditional{Cond: es[0], Then: es[1], Else: es[2]}, nil
	case "call":
		args, err := b.seq(f["args"])
		if err != nil {
			return nil, err
		}
		return b.callByName(n, val.Value, args)
	case "builtin":
		args, err := b.seq(f["args"])
		if err != nil {
			return nil, err
		}
		return &BuiltinCall{Name: val.Value, Args: args}, nil
	case "ext":
		recv, err := b.expr(f["on"])
		if err != nil {
			return nil, err
		}
		if recv == nil {
			return nil, nodeErr(n, "ext expects a receiver in 'on'")
		}
		args, err := b.seq(f["args"])
		if err != nil {
			return nil, err
		}
		opts, err := b.seq(f["options"])
		if err != nil {
			return nil, err
		}
		return &ExternalCall{Receiver: recv, Method: val.Value, Args: args, Options: opts}, nil
	case "balance":
		x, err := b.expr(val)
		if err != nil {
			return nil, err
		}
		return &Balance{Of: x}, nil
	case "new":
		salt, err := b.expr(f["salt"])
		if err != nil {
			return nil, err
		}
		args, err := b.seq(f["args"])
		if err != nil {
			return nil, err
		}
		opts, err := b.seq(f["value"])
		if err != nil {
			return nil, err
		}
		return &New{Contract: val.Value, Salt: salt, Args: args, Options: opts}, nil
	case "cast":
		x, err := b.expr(f["of"])
		if err != nil {
			return nil, err
		}
		return &Cast{Type: val.Value, X: x}, nil
	case "index", "member":
		if val.Kind != yaml.SequenceNode || len(val.Content) != 2 {
			return nil, nodeErr(n, "%s expects [base, key]", key)
		}
		base, err := b.expr(val.Content[0])
		if err != nil {
			return nil, err
		}
		if key == "member" {
			return &Member{Base: base, Field: val.Content[1].Value}, nil
		}
		k, err := b.expr(val.Content[1])
		if err != nil {
			return nil, err
		}
		return &Index{Base: base, Key: k}, nil
	case "tuple":
		elems, err := b.seq(val)
		if err != nil {
			return nil, err
		}
		return &Tuple{Elems: elems}, nil
	case "struct":
		args, err := b.seq(f["args"])
		if err != nil {
			return nil, err
		}
		return &Tuple{Elems: args}, nil
	case "push", "pop":
		arr, err := b.expr(val)
		if err != nil {
			return nil, err
		}
		args, err := b.seq(f["args"])
		if err != nil {
			return nil, err
		}
		return &ArrayOp{Array: arr, Op: key, Args: args}, nil
	case "lit":
		return &Literal{Value: val.Value}, nil
	case "unsupported":
		return &UnsupportedExpr{What: val.Value}, nil
	}
	return nil, nodeErr(n, "unknown expression %q", key)
}

// atom parses the compact scalar notation: identifiers, environment reads, member and index accesses, calls with
// simple arguments and conversions.
func (b *builder) atom(n *yaml.Node, s string) (Expr, error) {
	if s == "" {
		return &Literal{Value: s}, nil
	}
	if s[0] == '"' || s[0] == '\'' || ('0' <= s[0] && s[0] <= '9') || s == "true" || s == "false" {
		return &Literal{Value: s}, nil
	}
	if strings.ContainsAny(s, " \t") {
		return nil, nodeErr(n, "%q is not a simple expression, use the structured form", s)
	}
	if s == "gasleft()" {
		return &Env{Name: s}, nil
	}
	if s == "now" {
		return &Env{Name: "block.timestamp"}, nil
	}
	if base, ok := strings.CutSuffix(s, "++"); ok {
		x, err := b.atom(n, base)
		return &Unary{Op: "++", X: x, Postfix: true}, err
	}
	if base, ok := strings.CutSuffix(s, "--"); ok {
		x, err := b.atom(n, base)
		return &Unary{Op: "--", X: x, Postfix: true}, err
	}
	if s[0] == '!' || s[0] == '-' || s[0] == '~' {
		x, err := b.atom(n, s[1:])
		return &Unary{Op: s[:1], X: x}, err
	}
	switch s[len(s)-1] {
	case ')':
		open := matchingOpen(s, '(', ')')
		if open <= 0 {
			return nil, nodeErr(n, "malformed call %q", s)
		}
		if s[:open] == "type" {
			return &Literal{Value: s}, nil
		}
		var args []Expr
		for _, a := range splitTopLevel(s[open+1 : len(s)-1]) {
			x, err := b.atom(n, a)
			if err != nil {
				return nil, err
			}
			args = append(args, x)
		}
		return b.callByName(n, s[:open], args)
	case ']':
		open := matchingOpen(s, '[', ']')
		if open <= 0 {
			return nil, nodeErr(n, "malformed index %q", s)
		}
		base, err := b.atom(n, s[:open])
		if err != nil {
			return nil, err
		}
		key, err := b.atom(n, s[open+1:len(s)-1])
		if err != nil {
			return nil, err
		}
		return &Index{Base: base, Key: key}, nil
	}
	if IsEnvName(s) {
		return &Env{Name: s}, nil
	}
	if dot := lastTopLevelDot(s); dot > 0 {
		head, field := s[:dot], s[dot+1:]
		base, err := b.atom(n, head)
		if err != nil {
			return nil, err
		}
		if field == "balance" {
			return &Balance{Of: base}, nil
		}
		if _, ok := base.(*Literal); ok {
			// Contract.CONSTANT, Enum.Member, type(x).max
			return &Literal{Value: s}, nil
		}
		return &Member{Base: base, Field: field}, nil
	}
	return b.ident(s), nil
}

func (b *builder) ident(name string) Expr {
	if v := b.lookupLocal(name); v != nil {
		return &Ident{Name: name, Var: v}
	}
	if b.contract != nil {
		if sv := b.contract.LookupState(name); sv != nil {
			return &Ident{Name: name, State: sv}
		}
		if b.contract.LookupEnum(name) != nil || b.contract.LookupStruct(name) != nil {
			return &Literal{Value: name}
		}
	}
	if b.prog.Contract(name) != nil {
		return &Literal{Value: name}
	}
	return &Ident{Name: name}
}

// callByName resolves a call written name(args)
func (b *builder) callByName(n *yaml.Node, name string, args []Expr) (Expr, error) {
	if IsElementaryType(name) || name == "address payable" {
		if len(args) != 1 {
			return nil, nodeErr(n, "conversion to %s expects one argument", name)
		}
		return &Cast{Type: name, X: args[0]}, nil
	}
	if Builtins[name] {
		return &BuiltinCall{Name: name, Args: args}, nil
	}
	if name == "gasleft" {
		return &Env{Name: "gasleft()"}, nil
	}
	if name == "type" {
		return &Literal{Value: "type"}, nil
	}
	c := b.contract
	if dot := lastTopLevelDot(name); dot > 0 {
		recv, method := name[:dot], name[dot+1:]
		if recv == "super" {
			return &Call{Name: method, Kind: CallSuper, Target: lookupFunction(c, method, len(args), false, c), Args: args}, nil
		}
		if target := b.prog.Contract(recv); target != nil {
			if c != nil && !c.Inherits(target) && target.Kind != KindLibrary {
				return nil, nodeErr(n, "%s is not a base or a library of %s", recv, c.Name)
			}
			return &Call{Name: method, Kind: CallFixed, Target: lookupFunction(target, method, len(args), false, nil), Args: args}, nil
		}
		recvExpr, err := b.atom(n, recv)
		if err != nil {
			return nil, err
		}
		switch method {
		case "push", "pop":
			return &ArrayOp{Array: recvExpr, Op: method, Args: args}, nil
		}
		return &ExternalCall{Receiver: recvExpr, Method: method, Args: args}, nil
	}
	if b.prog.Contract(name) != nil {
		if len(args) != 1 {
			return nil, nodeErr(n, "conversion to %s expects one argument", name)
		}
		return &Cast{Type: name, X: args[0]}, nil
	}
	if c != nil && c.LookupStruct(name) != nil {
		return &Tuple{Elems: args}, nil
	}
	var target *Function
	if c != nil {
		target = lookupFunction(c, name, len(args), false, nil)
	}
	return &Call{Name: name, Kind: CallVirtual, Target: target, Args: args}, nil
}

func matchingOpen(s string, open byte, close byte) int {
	depth := 0
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case close:
			depth++
		case open:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func lastTopLevelDot(s string) int {
	depth := 0
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ')', ']':
			depth++
		case '(', '[':
			depth--
		case '.':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}
