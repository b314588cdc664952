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
// Package solc builds programs from the compact JSON AST produced by the Solidity compiler.
//
// The decoder accepts the output of solc --ast-compact-json, solc --combined-json ast and the sources section of a
// standard-JSON output. Identifiers are resolved through their referencedDeclaration, so the AST must come from a
// successful compilation.
package solc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/awslabs/ar-sol-tools/analysis/ir"
)

// node is a node of the compact AST. Only the fields used by the conversion are decoded.
type node struct {
	ID       int    `json:"id"`
	NodeType string `json:"nodeType"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`

	// source units and contracts
	Nodes         []*node `json:"nodes"`
	ContractKind  string  `json:"contractKind"`
	Abstract      bool    `json:"abstract"`
	BaseContracts []*node `json:"baseContracts"`
	BaseName      *node   `json:"baseName"`
	Members       []*node `json:"members"`
	LibraryName   *node   `json:"libraryName"`

	// declarations
	Visibility       string           `json:"visibility"`
	Virtual          bool             `json:"virtual"`
	Constant         bool             `json:"constant"`
	Mutability       string           `json:"mutability"`
	StateVariable    bool             `json:"stateVariable"`
	StorageLocation  string           `json:"storageLocation"`
	TypeDescriptions typeDescriptions `json:"typeDescriptions"`
	// TypeName is a node, or a plain string in the ASTs of old compilers
	TypeName         json.RawMessage `json:"typeName"`
	Parameters       json.RawMessage `json:"parameters"`
	ReturnParameters *node           `json:"returnParameters"`
	Modifiers        []*node         `json:"modifiers"`
	ModifierName     *node           `json:"modifierName"`
	PathNode         *node           `json:"pathNode"`

	// statements
	Body                     *node   `json:"body"`
	Statements               []*node `json:"statements"`
	Condition                *node   `json:"condition"`
	TrueBody                 *node   `json:"trueBody"`
	FalseBody                *node   `json:"falseBody"`
	InitializationExpression *node   `json:"initializationExpression"`
	LoopExpression           *node   `json:"loopExpression"`
	Declarations             []*node `json:"declarations"`
	InitialValue             *node   `json:"initialValue"`
	EventCall                *node   `json:"eventCall"`
	ErrorCall                *node   `json:"errorCall"`
	ExternalCall             *node   `json:"externalCall"`
	Clauses                  []*node `json:"clauses"`
	Block                    *node   `json:"block"`

	// expressions
	Expression            *node           `json:"expression"`
	Arguments             []*node         `json:"arguments"`
	Names                 []string        `json:"names"`
	Options               []*node         `json:"options"`
	ReferencedDeclaration *int            `json:"referencedDeclaration"`
	MemberName            string          `json:"memberName"`
	BaseExpression        *node           `json:"baseExpression"`
	IndexExpression       *node           `json:"indexExpression"`
	LeftExpression        *node           `json:"leftExpression"`
	RightExpression       *node           `json:"rightExpression"`
	LeftHandSide          *node           `json:"leftHandSide"`
	RightHandSide         *node           `json:"rightHandSide"`
	Operator              string          `json:"operator"`
	Prefix                bool            `json:"prefix"`
	SubExpression         *node           `json:"subExpression"`
	TrueExpression        *node           `json:"trueExpression"`
	FalseExpression       *node           `json:"falseExpression"`
	Components            []*node         `json:"components"`
	IsInlineArray         bool            `json:"isInlineArray"`
	Value                 json.RawMessage `json:"value"`
	HexValue              string          `json:"hexValue"`
}

type typeDescriptions struct {
	TypeString string `json:"typeString"`
}

// ref returns the referenced declaration, or 0 when the node has none. Builtin declarations have negative ids.
func (n *node) ref() int {
	if n == nil || n.ReferencedDeclaration == nil {
		return 0
	}
	return *n.ReferencedDeclaration
}

// typeNameNode decodes the type name of the node, or returns nil when it is missing or not a node
func (n *node) typeNameNode() *node {
	if len(n.TypeName) == 0 || n.TypeName[0] != '{' {
		return nil
	}
	var t node
	if err := json.Unmarshal(n.TypeName, &t); err != nil {
		return nil
	}
	return &t
}

// parameterList returns the parameters of a function, a modifier or a catch clause. The parameters field holds a
// ParameterList node in declarations and a list of declarations in the ParameterList itself.
func (n *node) parameterList() []*node {
	if n == nil || len(n.Parameters) == 0 {
		return nil
	}
	switch n.Parameters[0] {
	case '[':
		var res []*node
		if err := json.Unmarshal(n.Parameters, &res); err != nil {
			return nil
		}
		return res
	case '{':
		var list node
		if err := json.Unmarshal(n.Parameters, &list); err != nil {
			return nil
		}
		return list.parameterList()
	}
	return nil
}

// valueNode returns the initializer of a variable declaration
func (n *node) valueNode() *node {
	if len(n.Value) == 0 || n.Value[0] != '{' {
		return nil
	}
	var v node
	if err := json.Unmarshal(n.Value, &v); err != nil {
		return nil
	}
	return &v
}

// literalValue returns the value of a literal, falling back to the hexadecimal value for non-printable strings
func (n *node) literalValue() string {
	var s string
	if len(n.Value) > 0 && json.Unmarshal(n.Value, &s) == nil {
		return s
	}
	return "hex\"" + n.HexValue + "\""
}

// sourceUnits extracts the source units of a compiler output, ordered by source id, then by name
func sourceUnits(data []byte) ([]*node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty compiler output")
	}
	if data[0] != '{' {
		return textOutputUnits(data)
	}
	var top struct {
		NodeType string `json:"nodeType"`
		Sources  map[string]struct {
			ID       int             `json:"id"`
			AST      json.RawMessage `json:"AST"`
			LowerAST json.RawMessage `json:"ast"`
		} `json:"sources"`
	}
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("could not decode compiler output: %w", err)
	}
	if top.NodeType == "SourceUnit" {
		var u node
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, fmt.Errorf("could not decode source unit: %w", err)
		}
		return []*node{&u}, nil
	}
	if len(top.Sources) == 0 {
		return nil, fmt.Errorf("compiler output has no source unit")
	}
	type entry struct {
		name string
		id   int
		unit *node
	}
	var entries []entry
	for name, src := range top.Sources {
		raw := src.LowerAST
		if len(raw) == 0 {
			raw = src.AST
		}
		if len(raw) == 0 {
			return nil, fmt.Errorf("source %s has no AST, compile with --combined-json ast", name)
		}
		var u node
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, fmt.Errorf("could not decode AST of %s: %w", name, err)
		}
		entries = append(entries, entry{name: name, id: src.ID, unit: &u})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].id != entries[j].id {
			return entries[i].id < entries[j].id
		}
		return entries[i].name < entries[j].name
	})
	units := make([]*node, len(entries))
	for i, e := range entries {
		units[i] = e.unit
	}
	return units, nil
}

// textOutputUnits splits the output of solc --ast-compact-json, where each source unit follows a
// "======= file =======" header
func textOutputUnits(data []byte) ([]*node, error) {
	var units []*node
	for _, chunk := range strings.Split(string(data), "\n=======") {
		start := strings.Index(chunk, "{")
		if start < 0 {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(chunk[start:]))
		var u node
		if err := dec.Decode(&u); err != nil {
			return nil, fmt.Errorf("could not decode AST: %w", err)
		}
		if u.NodeType != "SourceUnit" {
			return nil, fmt.Errorf("expected a SourceUnit, got %q", u.NodeType)
		}
		units = append(units, &u)
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("no AST found in compiler output")
	}
	return units, nil
}

// Decode builds a program from a compiler output holding compact JSON ASTs
func Decode(data []byte) (*ir.Program, error) {
	units, err := sourceUnits(data)
	if err != nil {
		return nil, err
	}
	return newConverter().convert(units)
}

// DecodeFile reads and decodes the compiler output in filename
func DecodeFile(filename string) (*ir.Program, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", filename, err)
	}
	prog, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return prog, nil
}
