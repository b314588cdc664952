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

// Decl is a parsed declaration string such as "mapping(address => uint256) public balances"
type Decl struct {
	Type      string
	Name      string
	Constant  bool
	Immutable bool
	Storage   bool
}

var declKeywords = map[string]bool{
	"public":    true,
	"private":   true,
	"internal":  true,
	"external":  true,
	"constant":  true,
	"immutable": true,
	"override":  true,
	"transient": true,
	"memory":    true,
	"calldata":  true,
	"storage":   true,
	"indexed":   true,
}

// ParseDecl parses "type [keywords...] name". When named is false, the declaration may consist in a type only, as
// in unnamed parameters and return values.
func ParseDecl(s string, named bool) (Decl, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Decl{}, fmt.Errorf("empty declaration")
	}
	d := Decl{}
	last := fields[len(fields)-1]
	typeFields := fields
	if len(fields) > 1 && !declKeywords[last] && last != "payable" && !strings.ContainsAny(last, "()[]=>") {
		d.Name = last
		typeFields = fields[:len(fields)-1]
	} else if named {
		return Decl{}, fmt.Errorf("declaration %q has no name", s)
	}
	var parts []string
	for _, f := range typeFields {
		if declKeywords[f] {
			switch f {
			case "constant":
				d.Constant = true
			case "immutable":
				d.Immutable = true
			case "storage":
				d.Storage = true
			}
			continue
		}
		parts = append(parts, f)
	}
	if len(parts) == 0 {
		return Decl{}, fmt.Errorf("declaration %q has no type", s)
	}
	d.Type = strings.Join(parts, " ")
	return d, nil
}

// IsMapping returns true if the type is a mapping
func IsMapping(t string) bool {
	return strings.HasPrefix(strings.TrimSpace(t), "mapping")
}
