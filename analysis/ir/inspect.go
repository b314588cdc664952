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

// Inspect traverses the tree rooted at n in depth-first order. It calls f(n) for every node; if f returns false
// the children of the node are not visited. Nil nodes are skipped.
func Inspect(n Node, f func(Node) bool) {
	if isNil(n) || !f(n) {
		return
	}
	switch x := n.(type) {
	// Expressions
	case *Binary:
		Inspect(x.X, f)
		Inspect(x.Y, f)
	case *Unary:
		Inspect(x.X, f)
	case *Conditional:
		Inspect(x.Cond, f)
		Inspect(x.Then, f)
		Inspect(x.Else, f)
	case *Call:
		inspectExprs(x.Args, f)
	case *ExternalCall:
		Inspect(x.Receiver, f)
		inspectExprs(x.Options, f)
		inspectExprs(x.Args, f)
	case *BuiltinCall:
		inspectExprs(x.Args, f)
	case *ArrayOp:
		Inspect(x.Array, f)
		inspectExprs(x.Args, f)
	case *Balance:
		Inspect(x.Of, f)
	case *New:
		Inspect(x.Salt, f)
		inspectExprs(x.Options, f)
		inspectExprs(x.Args, f)
	case *Cast:
		Inspect(x.X, f)
	case *Index:
		Inspect(x.Base, f)
		Inspect(x.Key, f)
	case *Member:
		Inspect(x.Base, f)
	case *Tuple:
		inspectExprs(x.Elems, f)

	// Statements
	case *Assign:
		Inspect(x.LHS, f)
		Inspect(x.RHS, f)
	case *VarDecl:
		Inspect(x.Init, f)
	case *ExprStmt:
		Inspect(x.X, f)
	case *If:
		Inspect(x.Cond, f)
		Inspect(x.Then, f)
		Inspect(x.Else, f)
	case *Loop:
		Inspect(x.Init, f)
		Inspect(x.Cond, f)
		Inspect(x.Post, f)
		Inspect(x.Body, f)
	case *Guard:
		inspectExprs(x.Args, f)
	case *Return:
		Inspect(x.Value, f)
	case *Block:
		for _, s := range x.Stmts {
			Inspect(s, f)
		}
	case *Delete:
		Inspect(x.X, f)
	case *Revert:
		inspectExprs(x.Args, f)
	case *Emit:
		inspectExprs(x.Args, f)
	case *Try:
		Inspect(x.Call, f)
		Inspect(x.Body, f)
		for _, c := range x.Catches {
			Inspect(c.Body, f)
		}
	}
}

func inspectExprs(exprs []Expr, f func(Node) bool) {
	for _, e := range exprs {
		Inspect(e, f)
	}
}

// isNil catches both the nil interface and the nil blocks stored in optional fields
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	b, ok := n.(*Block)
	return ok && b == nil
}
