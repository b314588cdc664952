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
	"github.com/awslabs/ar-sol-tools/analysis/ir"
)

func (cv *converter) block(n *node) *ir.Block {
	if n == nil {
		return nil
	}
	if n.NodeType != "Block" && n.NodeType != "UncheckedBlock" {
		// single statement bodies of if and loops
		return &ir.Block{Stmts: []ir.Stmt{cv.stmt(n)}}
	}
	b := &ir.Block{Unchecked: n.NodeType == "UncheckedBlock"}
	for _, s := range n.Statements {
		if s != nil {
			b.Stmts = append(b.Stmts, cv.stmt(s))
		}
	}
	return b
}

func (cv *converter) stmt(n *node) ir.Stmt {
	switch n.NodeType {
	case "Block", "UncheckedBlock":
		return cv.block(n)
	case "ExpressionStatement":
		return cv.exprStmt(n.Expression)
	case "VariableDeclarationStatement":
		d := &ir.VarDecl{}
		for _, v := range n.Declarations {
			d.Vars = append(d.Vars, cv.variable(v, ir.VarLocal))
		}
		d.Init = cv.expr(n.InitialValue)
		return d
	case "IfStatement":
		x := &ir.If{Cond: cv.expr(n.Condition), Then: cv.block(n.TrueBody)}
		if n.FalseBody != nil {
			x.Else = cv.block(n.FalseBody)
		}
		return x
	case "ForStatement":
		x := &ir.Loop{Cond: cv.expr(n.Condition), Body: cv.block(n.Body)}
		if n.InitializationExpression != nil {
			x.Init = cv.stmt(n.InitializationExpression)
		}
		if n.LoopExpression != nil {
			x.Post = cv.stmt(n.LoopExpression)
		}
		return x
	case "WhileStatement":
		return &ir.Loop{Cond: cv.expr(n.Condition), Body: cv.block(n.Body)}
	case "DoWhileStatement":
		return &ir.Loop{Cond: cv.expr(n.Condition), Body: cv.block(n.Body), DoWhile: true}
	case "Return":
		return &ir.Return{Value: cv.expr(n.Expression)}
	case "EmitStatement":
		e := &ir.Emit{}
		if n.EventCall != nil {
			e.Event = nameOf(n.EventCall.Expression)
			e.Args = cv.exprs(n.EventCall.Arguments)
		}
		return e
	case "RevertStatement":
		r := &ir.Revert{}
		if n.ErrorCall != nil {
			r.Args = cv.exprs(n.ErrorCall.Arguments)
		}
		return r
	case "PlaceholderStatement":
		return &ir.Placeholder{}
	case "Break":
		return &ir.Break{}
	case "Continue":
		return &ir.Continue{}
	case "TryStatement":
		return cv.tryStmt(n)
	case "InlineAssembly":
		return &ir.UnsupportedStmt{What: "inline assembly"}
	}
	return &ir.UnsupportedStmt{What: n.NodeType}
}

func (cv *converter) exprStmt(x *node) ir.Stmt {
	if x == nil {
		return &ir.Block{}
	}
	switch x.NodeType {
	case "Assignment":
		return &ir.Assign{LHS: cv.expr(x.LeftHandSide), Op: x.Operator, RHS: cv.expr(x.RightHandSide)}
	case "UnaryOperation":
		if x.Operator == "delete" {
			return &ir.Delete{X: cv.expr(x.SubExpression)}
		}
	}
	return ir.StmtOf(cv.expr(x))
}

// tryStmt converts a try statement. The first clause is the success clause, the others are catch clauses.
func (cv *converter) tryStmt(n *node) ir.Stmt {
	x := &ir.Try{Call: cv.expr(n.ExternalCall)}
	for i, c := range n.Clauses {
		if c == nil {
			continue
		}
		var params []*ir.Variable
		for _, p := range c.parameterList() {
			params = append(params, cv.variable(p, ir.VarLocal))
		}
		if i == 0 {
			x.Returns = params
			x.Body = cv.block(c.Block)
			continue
		}
		x.Catches = append(x.Catches, &ir.Catch{Params: params, Body: cv.block(c.Block)})
	}
	return x
}
