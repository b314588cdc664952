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

// Node is implemented by every expression and statement
type Node interface {
	node()
}

// Expr is an expression. The set of expressions is closed: every implementation is defined in this file.
type Expr interface {
	Node
	expr()
	String() string
}

// Literal is a constant: numbers, strings, booleans, enum members, type names
type Literal struct {
	Value string
}

// Ident is a reference to a local variable, a parameter or a state variable. When neither Var nor State is set the
// identifier could not be resolved by the front end.
type Ident struct {
	Name  string
	Var   *Variable
	State *StateVariable
}

// Resolved returns true if the identifier refers to a declaration
func (e *Ident) Resolved() bool {
	return e.Var != nil || e.State != nil
}

// Env is a read of the execution environment: gasleft(), msg.sender, block.*, tx.*, this
type Env struct {
	Name string
}

// Binary is a binary operation
type Binary struct {
	Op   string
	X, Y Expr
}

// Unary is a unary operation. Increments and decrements are unary operations with a side effect on X.
type Unary struct {
	Op      string
	X       Expr
	Postfix bool
}

// Conditional is the ternary operator
type Conditional struct {
	Cond, Then, Else Expr
}

// CallKind describes how the target of an internal call is resolved
type CallKind int

const (
	// CallVirtual calls are dispatched along the linearization of the analyzed contract
	CallVirtual CallKind = iota
	// CallSuper calls start the dispatch after the contract of the calling function
	CallSuper
	// CallFixed calls have a static target (library functions, Base.f())
	CallFixed
)

// Call is an internal call to a function of the program
type Call struct {
	Name string
	Kind CallKind
	// Target is the statically referenced declaration, if known
	Target *Function
	Args   []Expr
}

// ExternalCall is a message call to another account: interface calls, this.f(), address.call/transfer/send
type ExternalCall struct {
	Receiver Expr
	Method   string
	Args     []Expr
	// Options are the call options ({value: ..., gas: ...})
	Options []Expr
}

// BuiltinCall is a call to a global function: keccak256, abi.encode, ecrecover, blockhash...
type BuiltinCall struct {
	Name string
	Args []Expr
}

// ArrayOp is a push or pop on a dynamic array
type ArrayOp struct {
	Array Expr
	Op    string
	Args  []Expr
}

// Balance is addr.balance
type Balance struct {
	Of Expr
}

// New is a contract creation. The creation is salted (CREATE2) when Salt is not nil.
type New struct {
	Contract string
	Salt     Expr
	Args     []Expr
	Options  []Expr
}

// Cast is an explicit type conversion
type Cast struct {
	Type string
	X    Expr
}

// Index is an index access, on a mapping or an array
type Index struct {
	Base, Key Expr
}

// Member is a member access on a struct or on a builtin type (.length, .code, ...)
type Member struct {
	Base  Expr
	Field string
}

// Tuple is a tuple expression, also used for struct constructors and inline arrays. Elements may be nil in
// destructuring assignments.
type Tuple struct {
	Elems []Expr
}

// UnsupportedExpr is an expression the front end could not represent
type UnsupportedExpr struct {
	What string
}

func (*Literal) node()         {}
func (*Ident) node()           {}
func (*Env) node()             {}
func (*Binary) node()          {}
func (*Unary) node()           {}
func (*Conditional) node()     {}
func (*Call) node()            {}
func (*ExternalCall) node()    {}
func (*BuiltinCall) node()     {}
func (*ArrayOp) node()         {}
func (*Balance) node()         {}
func (*New) node()             {}
func (*Cast) node()            {}
func (*Index) node()           {}
func (*Member) node()          {}
func (*Tuple) node()           {}
func (*UnsupportedExpr) node() {}

func (*Literal) expr()         {}
func (*Ident) expr()           {}
func (*Env) expr()             {}
func (*Binary) expr()          {}
func (*Unary) expr()           {}
func (*Conditional) expr()     {}
func (*Call) expr()            {}
func (*ExternalCall) expr()    {}
func (*BuiltinCall) expr()     {}
func (*ArrayOp) expr()         {}
func (*Balance) expr()         {}
func (*New) expr()             {}
func (*Cast) expr()            {}
func (*Index) expr()           {}
func (*Member) expr()          {}
func (*Tuple) expr()           {}
func (*UnsupportedExpr) expr() {}

func (e *Literal) String() string { return e.Value }
func (e *Ident) String() string   { return e.Name }
func (e *Env) String() string     { return e.Name }
func (e *Binary) String() string  { return "(" + e.X.String() + " " + e.Op + " " + e.Y.String() + ")" }

func (e *Unary) String() string {
	if e.Postfix {
		return e.X.String() + e.Op
	}
	return e.Op + e.X.String()
}

func (e *Conditional) String() string {
	return "(" + e.Cond.String() + " ? " + e.Then.String() + " : " + e.Else.String() + ")"
}

func (e *Call) String() string {
	prefix := ""
	if e.Kind == CallSuper {
		prefix = "super."
	}
	return prefix + e.Name + "(" + joinExprs(e.Args) + ")"
}

func (e *ExternalCall) String() string {
	return e.Receiver.String() + "." + e.Method + "(" + joinExprs(e.Args) + ")"
}

func (e *BuiltinCall) String() string { return e.Name + "(" + joinExprs(e.Args) + ")" }
func (e *ArrayOp) String() string     { return e.Array.String() + "." + e.Op + "(" + joinExprs(e.Args) + ")" }
func (e *Balance) String() string     { return e.Of.String() + ".balance" }

func (e *New) String() string {
	salt := ""
	if e.Salt != nil {
		salt = "{salt: " + e.Salt.String() + "}"
	}
	return "new " + e.Contract + salt + "(" + joinExprs(e.Args) + ")"
}

func (e *Cast) String() string            { return e.Type + "(" + e.X.String() + ")" }
func (e *Index) String() string           { return e.Base.String() + "[" + e.Key.String() + "]" }
func (e *Member) String() string          { return e.Base.String() + "." + e.Field }
func (e *Tuple) String() string           { return "(" + joinExprs(e.Elems) + ")" }
func (e *UnsupportedExpr) String() string { return fmt.Sprintf("<unsupported %s>", e.What) }

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, x := range exprs {
		if x == nil {
			parts[i] = ""
		} else {
			parts[i] = x.String()
		}
	}
	return strings.Join(parts, ", ")
}

// RootVariable returns the identifier at the root of a chain of index and member accesses, and whether the chain
// is a partial access of that variable.
func RootVariable(e Expr) (*Ident, bool) {
	partial := false
	for {
		switch x := e.(type) {
		case *Ident:
			return x, partial
		case *Index:
			e = x.Base
			partial = true
		case *Member:
			e = x.Base
			partial = true
		case *Cast:
			e = x.X
		default:
			return nil, partial
		}
	}
}
