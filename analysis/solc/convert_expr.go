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
	"strings"

	"github.com/awslabs/ar-sol-tools/analysis/ir"
)

// magic are the global names of the language, which the compiler resolves to negative ids
var magic = map[string]bool{
	"msg":   true,
	"block": true,
	"tx":    true,
	"abi":   true,
	"this":  true,
	"super": true,
	"now":   true,
}

func (cv *converter) exprs(nodes []*node) []ir.Expr {
	res := make([]ir.Expr, 0, len(nodes))
	for _, n := range nodes {
		res = append(res, cv.expr(n))
	}
	return res
}

func (cv *converter) expr(n *node) ir.Expr {
	if n == nil {
		return nil
	}
	switch n.NodeType {
	case "Literal":
		v := n.literalValue()
		if n.Kind == "string" || n.Kind == "unicodeString" {
			v = "\"" + v + "\""
		}
		return &ir.Literal{Value: v}
	case "Identifier":
		return cv.identifier(n)
	case "MemberAccess":
		return cv.memberAccess(n)
	case "IndexAccess":
		if n.IndexExpression == nil {
			// array type expression, as in new uint[](n)
			return &ir.Literal{Value: cleanType(n.TypeDescriptions.TypeString)}
		}
		return &ir.Index{Base: cv.expr(n.BaseExpression), Key: cv.expr(n.IndexExpression)}
	case "IndexRangeAccess":
		return &ir.Member{Base: cv.expr(n.BaseExpression), Field: "slice"}
	case "BinaryOperation":
		return &ir.Binary{Op: n.Operator, X: cv.expr(n.LeftExpression), Y: cv.expr(n.RightExpression)}
	case "UnaryOperation":
		return &ir.Unary{Op: n.Operator, X: cv.expr(n.SubExpression), Postfix: !n.Prefix}
	case "Conditional":
		return &ir.Conditional{
			Cond: cv.expr(n.Condition),
			Then: cv.expr(n.TrueExpression),
			Else: cv.expr(n.FalseExpression),
		}
	case "TupleExpression":
		if len(n.Components) == 1 && !n.IsInlineArray {
			return cv.expr(n.Components[0])
		}
		return &ir.Tuple{Elems: cv.exprs(n.Components)}
	case "FunctionCall":
		return cv.call(n)
	case "ElementaryTypeNameExpression", "NewExpression":
		return &ir.Literal{Value: cleanType(n.TypeDescriptions.TypeString)}
	case "Assignment":
		return &ir.UnsupportedExpr{What: "assignment used as a value"}
	}
	return &ir.UnsupportedExpr{What: n.NodeType}
}

func (cv *converter) identifier(n *node) ir.Expr {
	ref := n.ref()
	if v, ok := cv.vars[ref]; ok {
		return &ir.Ident{Name: n.Name, Var: v}
	}
	if sv, ok := cv.states[ref]; ok {
		return &ir.Ident{Name: n.Name, State: sv}
	}
	if c, ok := cv.contracts[ref]; ok {
		return &ir.Literal{Value: c.Name}
	}
	switch n.Name {
	case "this":
		return &ir.Env{Name: "this"}
	case "now":
		return &ir.Env{Name: "block.timestamp"}
	}
	if magic[n.Name] && ref <= 0 {
		return &ir.Env{Name: n.Name}
	}
	if strings.HasPrefix(n.TypeDescriptions.TypeString, "type(") {
		// enum and struct types
		return &ir.Literal{Value: n.Name}
	}
	if _, ok := cv.funcs[ref]; ok || cv.signals[ref] {
		return &ir.Literal{Value: n.Name}
	}
	return &ir.Ident{Name: n.Name}
}

func (cv *converter) memberAccess(n *node) ir.Expr {
	base := n.Expression
	if base != nil && base.NodeType == "Identifier" && magic[base.Name] && base.ref() <= 0 {
		name := base.Name + "." + n.MemberName
		if ir.IsEnvName(name) {
			return &ir.Env{Name: name}
		}
	}
	x := cv.expr(base)
	if n.MemberName == "balance" {
		return &ir.Balance{Of: x}
	}
	if lit, ok := x.(*ir.Literal); ok {
		// constants of other contracts, enum members, type(x).max
		return &ir.Literal{Value: lit.Value + "." + n.MemberName}
	}
	return &ir.Member{Base: x, Field: n.MemberName}
}

// call converts a function call, according to the kind of its callee
func (cv *converter) call(n *node) ir.Expr {
	args := cv.exprs(n.Arguments)
	switch n.Kind {
	case "typeConversion":
		t := cleanType(n.TypeDescriptions.TypeString)
		if len(args) != 1 {
			return &ir.UnsupportedExpr{What: "conversion to " + t}
		}
		return &ir.Cast{Type: t, X: args[0]}
	case "structConstructorCall":
		return &ir.Tuple{Elems: args}
	}

	callee := n.Expression
	var options []ir.Expr
	var optionNames []string
	if callee != nil && callee.NodeType == "FunctionCallOptions" {
		options = cv.exprs(callee.Options)
		optionNames = callee.Names
		callee = callee.Expression
	}
	if callee == nil {
		return &ir.UnsupportedExpr{What: "call without callee"}
	}

	switch callee.NodeType {
	case "NewExpression":
		return cv.newExpr(callee, args, options, optionNames)
	case "Identifier":
		return cv.identifierCall(n, callee, args)
	case "MemberAccess":
		return cv.memberCall(n, callee, args, options)
	}
	return &ir.UnsupportedExpr{What: "call of " + callee.NodeType}
}

func (cv *converter) newExpr(callee *node, args []ir.Expr, options []ir.Expr, names []string) ir.Expr {
	name := ""
	if t := callee.typeNameNode(); t != nil {
		name = lastSegment(nameOf(t))
	}
	x := &ir.New{Contract: name, Args: args}
	for i, opt := range options {
		if i < len(names) && names[i] == "salt" {
			x.Salt = opt
			continue
		}
		x.Options = append(x.Options, opt)
	}
	return x
}

func (cv *converter) identifierCall(n *node, callee *node, args []ir.Expr) ir.Expr {
	name := callee.Name
	ref := callee.ref()
	if f, ok := cv.funcs[ref]; ok {
		return &ir.Call{Name: name, Kind: ir.CallVirtual, Target: f, Args: namedArgs(f, n.Names, args)}
	}
	if name == "gasleft" && ref <= 0 {
		return &ir.Env{Name: "gasleft()"}
	}
	if name == "type" && ref <= 0 {
		return &ir.Literal{Value: "type"}
	}
	if ir.Builtins[name] || cv.signals[ref] || ref < 0 {
		return &ir.BuiltinCall{Name: name, Args: args}
	}
	// free functions and function pointers are not represented: the call stays unresolved
	return &ir.Call{Name: name, Kind: ir.CallVirtual, Args: args}
}

func (cv *converter) memberCall(n *node, callee *node, args []ir.Expr, options []ir.Expr) ir.Expr {
	base := callee.Expression
	method := callee.MemberName
	target := cv.funcs[callee.ref()]

	if base != nil && base.NodeType == "Identifier" && base.ref() <= 0 {
		switch base.Name {
		case "super":
			return &ir.Call{Name: method, Kind: ir.CallSuper, Target: target, Args: namedArgs(target, n.Names, args)}
		case "abi", "bytes", "string":
			return &ir.BuiltinCall{Name: base.Name + "." + method, Args: args}
		}
	}
	if base != nil && base.NodeType == "Identifier" {
		if _, ok := cv.contracts[base.ref()]; ok {
			if target != nil {
				// library functions and Base.f()
				return &ir.Call{Name: method, Kind: ir.CallFixed, Target: target, Args: namedArgs(target, n.Names, args)}
			}
			return &ir.BuiltinCall{Name: base.Name + "." + method, Args: args}
		}
	}
	if target != nil && target.Contract != nil && target.Contract.Kind == ir.KindLibrary &&
		target.Visibility != ir.External && target.Visibility != ir.Public {
		// using L for T: the receiver is the first argument
		return &ir.Call{
			Name:   method,
			Kind:   ir.CallFixed,
			Target: target,
			Args:   append([]ir.Expr{cv.expr(base)}, namedArgs(target, n.Names, args)...),
		}
	}
	recv := cv.expr(base)
	switch method {
	case "push", "pop":
		if target == nil {
			return &ir.ArrayOp{Array: recv, Op: method, Args: args}
		}
	}
	return &ir.ExternalCall{Receiver: recv, Method: method, Args: args, Options: options}
}

// namedArgs orders the arguments of a call with named arguments as the parameters of f
func namedArgs(f *ir.Function, names []string, args []ir.Expr) []ir.Expr {
	if f == nil || len(names) == 0 || len(names) != len(args) {
		return args
	}
	res := make([]ir.Expr, len(f.Params))
	for i, name := range names {
		for j, p := range f.Params {
			if p != nil && p.Name == name {
				res[j] = args[i]
			}
		}
	}
	return res
}
