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

// FunctionKind distinguishes regular functions from the special functions of a contract
type FunctionKind int

const (
	FuncNormal FunctionKind = iota
	FuncConstructor
	FuncFallback
	FuncReceive
	FuncModifier
)

// ParseFunctionKind parses the kind of a function. The empty string is a regular function.
func ParseFunctionKind(s string) (FunctionKind, error) {
	switch s {
	case "", "function":
		return FuncNormal, nil
	case "constructor":
		return FuncConstructor, nil
	case "fallback":
		return FuncFallback, nil
	case "receive":
		return FuncReceive, nil
	case "modifier":
		return FuncModifier, nil
	}
	return FuncNormal, fmt.Errorf("unknown function kind %q", s)
}

// Visibility of a function
type Visibility int

const (
	Public Visibility = iota
	External
	Internal
	Private
)

func (v Visibility) String() string {
	switch v {
	case Public:
		return "public"
	case External:
		return "external"
	case Internal:
		return "internal"
	case Private:
		return "private"
	}
	return "unknown"
}

// ParseVisibility parses a visibility keyword. The empty string is public.
func ParseVisibility(s string) (Visibility, error) {
	switch s {
	case "", "public":
		return Public, nil
	case "external":
		return External, nil
	case "internal":
		return Internal, nil
	case "private":
		return Private, nil
	}
	return Public, fmt.Errorf("unknown visibility %q", s)
}

// VarKind is the kind of local variable
type VarKind int

const (
	VarLocal VarKind = iota
	VarParam
	VarReturn
)

// Variable is a local variable, a parameter or a named return value. Struct fields are also represented as
// variables.
type Variable struct {
	Name string
	Type string
	Kind VarKind
	// Storage is set when the variable is a reference to storage
	Storage bool
}

func (v *Variable) String() string {
	if v.Name == "" {
		return v.Type
	}
	return v.Name
}

// ModifierInvocation is an entry of a function's modifier list. Base constructor invocations in a constructor's
// modifier list are also represented as modifier invocations.
type ModifierInvocation struct {
	Name string
	Args []Expr
}

// Function is a function or modifier of a contract
type Function struct {
	// Contract is the declaring contract
	Contract   *Contract
	Name       string
	Kind       FunctionKind
	Visibility Visibility
	Params     []*Variable
	Returns    []*Variable
	Modifiers  []*ModifierInvocation
	Virtual    bool
	// Body is nil if the function is not implemented
	Body *Block
}

// Implemented returns true if the function has a body
func (f *Function) Implemented() bool {
	return f.Body != nil
}

// IsExternallyCallable returns true if the function can be the root of a transaction
func (f *Function) IsExternallyCallable() bool {
	switch f.Kind {
	case FuncConstructor, FuncFallback, FuncReceive:
		return true
	case FuncModifier:
		return false
	}
	return f.Visibility == Public || f.Visibility == External
}

// Signature returns the name of the function followed by its normalized parameter types
func (f *Function) Signature() string {
	name := f.Name
	switch f.Kind {
	case FuncConstructor:
		name = "constructor"
	case FuncFallback:
		name = "fallback"
	case FuncReceive:
		name = "receive"
	}
	types := make([]string, len(f.Params))
	for i, p := range f.Params {
		types[i] = NormalizeType(p.Type)
	}
	return name + "(" + strings.Join(types, ",") + ")"
}

// CanonicalName returns Contract.signature
func (f *Function) CanonicalName() string {
	if f.Contract == nil {
		return f.Signature()
	}
	return f.Contract.Name + "." + f.Signature()
}

func (f *Function) String() string {
	return f.CanonicalName()
}

// NormalizeType returns the canonical spelling of a type: data locations and the payable qualifier are dropped,
// and the integer and byte aliases are expanded.
func NormalizeType(t string) string {
	fields := strings.Fields(t)
	kept := fields[:0]
	for _, f := range fields {
		switch f {
		case "memory", "calldata", "storage", "payable", "transient":
			continue
		}
		kept = append(kept, f)
	}
	s := strings.Join(kept, " ")
	s = strings.ReplaceAll(s, " => ", "=>")
	return expandAliases(s)
}

// expandAliases rewrites uint, int and byte tokens into uint256, int256 and bytes1
func expandAliases(s string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		j := i
		for j < len(s) && isIdentChar(s[j]) {
			j++
		}
		if j > i {
			switch s[i:j] {
			case "uint":
				b.WriteString("uint256")
			case "int":
				b.WriteString("int256")
			case "byte":
				b.WriteString("bytes1")
			default:
				b.WriteString(s[i:j])
			}
			i = j
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '$' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
