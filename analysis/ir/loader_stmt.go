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
	"gopkg.in/yaml.v3"
)

// block decodes a sequence of statements in a new scope
func (b *builder) block(n *yaml.Node) (*Block, error) {
	b.push()
	defer b.pop()
	return b.stmts(n)
}

func (b *builder) stmts(n *yaml.Node) (*Block, error) {
	blk := &Block{}
	if n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null") {
		return blk, nil
	}
	if n.Kind != yaml.SequenceNode {
		s, err := b.stmt(n)
		if err != nil {
			return nil, err
		}
		blk.Stmts = append(blk.Stmts, s)
		return blk, nil
	}
	for _, c := range n.Content {
		s, err := b.stmt(c)
		if err != nil {
			return nil, err
		}
		blk.Stmts = append(blk.Stmts, s)
	}
	return blk, nil
}

func (b *builder) stmt(n *yaml.Node) (Stmt, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.Value {
		case "_":
			return &Placeholder{}, nil
		case "break":
			return &Break{}, nil
		case "continue":
			return &Continue{}, nil
		case "return":
			return &Return{}, nil
		case "revert":
			return &Revert{}, nil
		}
		x, err := b.expr(n)
		if err != nil {
			return nil, err
		}
		return StmtOf(x), nil
	case yaml.MappingNode:
		return b.compoundStmt(n)
	}
	return nil, nodeErr(n, "unexpected statement node")
}

func (b *builder) compoundStmt(n *yaml.Node) (Stmt, error) {
	if len(n.Content) < 2 {
		return nil, nodeErr(n, "empty statement")
	}
	key := n.Content[0].Value
	val := n.Content[1]
	f := fields(n)
	switch key {
	case "assign":
		if val.Kind != yaml.SequenceNode || (len(val.Content) != 2 && len(val.Content) != 3) {
			return nil, nodeErr(n, "assign expects [lhs, rhs] or [lhs, op, rhs]")
		}
		op := "="
		rhsNode := val.Content[1]
		if len(val.Content) == 3 {
			op = val.Content[1].Value
			rhsNode = val.Content[2]
		}
		lhs, err := b.expr(val.Content[0])
		if err != nil {
			return nil, err
		}
		rhs, err := b.expr(rhsNode)
		if err != nil {
			return nil, err
		}
		return &Assign{LHS: lhs, Op: op, RHS: rhs}, nil
	case "let":
		return b.varDecl(n, val)
	case "do":
		x, err := b.expr(val)
		if err != nil {
			return nil, err
		}
		return StmtOf(x), nil
	case "if":
		cond, err := b.expr(val)
		if err != nil {
			return nil, err
		}
		then, err := b.block(f["then"])
		if err != nil {
			return nil, err
		}
		s := &If{Cond: cond, Then: then}
		if e, ok := f["else"]; ok {
			if s.Else, err = b.block(e); err != nil {
				return nil, err
			}
		}
		return s, nil
	case "while", "dowhile":
		cond, err := b.expr(val)
		if err != nil {
			return nil, err
		}
		body, err := b.block(f["body"])
		if err != nil {
			return nil, err
		}
		return &Loop{Cond: cond, Body: body, DoWhile: key == "dowhile"}, nil
	case "for":
		// the init declaration is visible in the condition, the post statement and the body
		b.push()
		defer b.pop()
		loop := &Loop{}
		var err error
		if init, ok := f["init"]; ok {
			if loop.Init, err = b.stmt(init); err != nil {
				return nil, err
			}
		}
		if loop.Cond, err = b.expr(val); err != nil {
			return nil, err
		}
		if post, ok := f["post"]; ok {
			if loop.Post, err = b.stmt(post); err != nil {
				return nil, err
			}
		}
		if loop.Body, err = b.block(f["body"]); err != nil {
			return nil, err
		}
		return loop, nil
	case "require", "assert":
		args, err := b.seq(val)
		if err != nil {
			return nil, err
		}
		return &Guard{Name: key, Args: args}, nil
	case "guard":
		args, err := b.seq(f["args"])
		if err != nil {
			return nil, err
		}
		return &Guard{Name: val.Value, Args: args}, nil
	case "return":
		x, err := b.expr(val)
		if err != nil {
			return nil, err
		}
		return &Return{Value: x}, nil
	case "delete":
		x, err := b.expr(val)
		if err != nil {
			return nil, err
		}
		return &Delete{X: x}, nil
	case "revert":
		args, err := b.seq(val)
		if err != nil {
			return nil, err
		}
		return &Revert{Args: args}, nil
	case "emit":
		args, err := b.seq(f["args"])
		if err != nil {
			return nil, err
		}
		return &Emit{Event: val.Value, Args: args}, nil
	case "block", "unchecked":
		blk, err := b.block(val)
		if err != nil {
			return nil, err
		}
		blk.Unchecked = key == "unchecked"
		return blk, nil
	case "asm":
		return &UnsupportedStmt{What: "inline assembly"}, nil
	case "try":
		return b.tryStmt(n, val, f)
	}
	// any other mapping is an expression statement
	x, err := b.compound(n)
	if err != nil {
		return nil, err
	}
	return StmtOf(x), nil
}

// varDecl decodes {let: decl}, {let: [decl, init]} and {let: [[decl1, decl2], init]}
func (b *builder) varDecl(n *yaml.Node, val *yaml.Node) (Stmt, error) {
	declNode := val
	var initNode *yaml.Node
	if val.Kind == yaml.SequenceNode {
		if len(val.Content) == 0 || len(val.Content) > 2 {
			return nil, nodeErr(n, "let expects a declaration and an optional initializer")
		}
		declNode = val.Content[0]
		if len(val.Content) == 2 {
			initNode = val.Content[1]
		}
	}
	// the initializer is resolved before the declared names are in scope
	init, err := b.expr(initNode)
	if err != nil {
		return nil, err
	}
	s := &VarDecl{Init: init}
	var decls []*yaml.Node
	if declNode.Kind == yaml.SequenceNode {
		decls = declNode.Content
	} else {
		decls = []*yaml.Node{declNode}
	}
	for _, d := range decls {
		if d.Tag == "!!null" || d.Value == "" {
			s.Vars = append(s.Vars, nil)
			continue
		}
		decl, err := ParseDecl(d.Value, true)
		if err != nil {
			return nil, nodeErr(d, "%v", err)
		}
		v := &Variable{Name: decl.Name, Type: decl.Type, Kind: VarLocal, Storage: decl.Storage}
		s.Vars = append(s.Vars, v)
	}
	for _, v := range s.Vars {
		b.declare(v)
	}
	return s, nil
}

func (b *builder) tryStmt(n *yaml.Node, val *yaml.Node, f map[string]*yaml.Node) (Stmt, error) {
	call, err := b.expr(val)
	if err != nil {
		return nil, err
	}
	s := &Try{Call: call}
	b.push()
	if r, ok := f["returns"]; ok {
		for _, d := range r.Content {
			v, err := parseVariable(d.Value, VarLocal)
			if err != nil {
				b.pop()
				return nil, nodeErr(d, "%v", err)
			}
			s.Returns = append(s.Returns, v)
			b.declare(v)
		}
	}
	s.Body, err = b.block(f["body"])
	b.pop()
	if err != nil {
		return nil, err
	}
	if c, ok := f["catch"]; ok {
		if c.Kind != yaml.SequenceNode {
			return nil, nodeErr(n, "catch expects a list of clauses")
		}
		for _, clause := range c.Content {
			body, err := b.block(clause)
			if err != nil {
				return nil, err
			}
			s.Catches = append(s.Catches, &Catch{Body: body})
		}
	}
	return s, nil
}
