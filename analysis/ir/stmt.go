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

// Stmt is a statement. The set of statements is closed: every implementation is defined in this file.
type Stmt interface {
	Node
	stmt()
}

// Assign is an assignment. Op is "=" or a compound operator ("+=", "|=", ...).
type Assign struct {
	LHS Expr
	Op  string
	RHS Expr
}

// VarDecl declares one or more local variables. Several variables are declared by a destructuring declaration,
// in which case some entries may be nil.
type VarDecl struct {
	Vars []*Variable
	Init Expr
}

// ExprStmt is an expression evaluated for its side effects
type ExprStmt struct {
	X Expr
}

// If is a conditional. Else may be nil.
type If struct {
	Cond Expr
	Then *Block
	Else *Block
}

// Loop is a for, while or do-while loop. Init, Cond and Post may be nil.
type Loop struct {
	Init    Stmt
	Cond    Expr
	Post    Stmt
	Body    *Block
	DoWhile bool
}

// Guard is a call that aborts the transaction when its condition does not hold (require, assert)
type Guard struct {
	Name string
	Args []Expr
}

// Cond returns the guarded condition
func (g *Guard) Cond() Expr {
	if len(g.Args) == 0 {
		return nil
	}
	return g.Args[0]
}

// Return returns from the enclosing function. Value may be nil or a Tuple.
type Return struct {
	Value Expr
}

// Placeholder is the _ statement of a modifier body
type Placeholder struct{}

// Block is a sequence of statements
type Block struct {
	Stmts     []Stmt
	Unchecked bool
}

// Delete resets X to its default value
type Delete struct {
	X Expr
}

// Revert aborts the transaction
type Revert struct {
	Args []Expr
}

// Emit emits an event
type Emit struct {
	Event string
	Args  []Expr
}

// Break exits the innermost loop
type Break struct{}

// Continue skips to the next iteration of the innermost loop
type Continue struct{}

// Catch is a catch clause of a try statement
type Catch struct {
	Params []*Variable
	Body   *Block
}

// Try is a try/catch statement around an external call
type Try struct {
	Call    Expr
	Returns []*Variable
	Body    *Block
	Catches []*Catch
}

// UnsupportedStmt is a statement that is not tracked, such as inline assembly
type UnsupportedStmt struct {
	What string
}

func (*Assign) node()          {}
func (*VarDecl) node()         {}
func (*ExprStmt) node()        {}
func (*If) node()              {}
func (*Loop) node()            {}
func (*Guard) node()           {}
func (*Return) node()          {}
func (*Placeholder) node()     {}
func (*Block) node()           {}
func (*Delete) node()          {}
func (*Revert) node()          {}
func (*Emit) node()            {}
func (*Break) node()           {}
func (*Continue) node()        {}
func (*Try) node()             {}
func (*UnsupportedStmt) node() {}

func (*Assign) stmt()          {}
func (*VarDecl) stmt()         {}
func (*ExprStmt) stmt()        {}
func (*If) stmt()              {}
func (*Loop) stmt()            {}
func (*Guard) stmt()           {}
func (*Return) stmt()          {}
func (*Placeholder) stmt()     {}
func (*Block) stmt()           {}
func (*Delete) stmt()          {}
func (*Revert) stmt()          {}
func (*Emit) stmt()            {}
func (*Break) stmt()           {}
func (*Continue) stmt()        {}
func (*Try) stmt()             {}
func (*UnsupportedStmt) stmt() {}
