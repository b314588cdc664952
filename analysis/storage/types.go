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

package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/awslabs/ar-sol-tools/analysis/ir"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// SlotSize is the size in bytes of a storage slot
const SlotSize = 32

// TypeKind classifies how a type is laid out in storage
type TypeKind int

const (
	// Value types are packed within slots
	Value TypeKind = iota
	// Dynamic types (mappings, dynamic arrays, string, bytes) own a whole slot holding their length or nothing
	Dynamic
	// Composite types (structs and static arrays) start a fresh slot and occupy whole slots
	Composite
)

// Type is the storage footprint of a Solidity type
type Type struct {
	Kind TypeKind
	// Size is the size in bytes of a value type
	Size int
	// Slots is the number of slots occupied by a composite or dynamic type
	Slots uint64
}

// Resolver computes the storage footprint of type names in the scope of a contract
type Resolver struct {
	contract *ir.Contract
	// structs being resolved, to detect recursive struct definitions
	resolving map[*ir.Struct]bool
}

// NewResolver returns a type resolver for the types visible in contract c
func NewResolver(c *ir.Contract) *Resolver {
	return &Resolver{contract: c, resolving: map[*ir.Struct]bool{}}
}

// TypeOf returns the storage footprint of the type name t
func (r *Resolver) TypeOf(t string) (Type, error) {
	t = ir.NormalizeType(t)
	switch {
	case ir.IsMapping(t):
		return Type{Kind: Dynamic, Slots: 1}, nil
	case t == "string" || t == "bytes":
		return Type{Kind: Dynamic, Slots: 1}, nil
	case strings.HasSuffix(t, "[]"):
		return Type{Kind: Dynamic, Slots: 1}, nil
	case strings.HasSuffix(t, "]"):
		return r.staticArray(t)
	case strings.HasPrefix(t, "function"):
		// external function pointers are an address and a selector
		if strings.Contains(t, "external") {
			return Type{Kind: Value, Size: 24}, nil
		}
		return Type{Kind: Value, Size: 8}, nil
	}
	if size, ok := elementarySize(t); ok {
		return Type{Kind: Value, Size: size}, nil
	}
	if c := r.contract; c != nil {
		if members := c.LookupEnum(t); members != nil {
			return Type{Kind: Value, Size: enumSize(len(members))}, nil
		}
		if s := c.LookupStruct(t); s != nil {
			return r.structType(s)
		}
		if c.Program != nil && c.Program.Contract(t) != nil {
			// contract and interface types are addresses
			return Type{Kind: Value, Size: 20}, nil
		}
	}
	return Type{}, fmt.Errorf("unknown type %q", t)
}

// elementarySize returns the size of an elementary value type, using the abi type parser for integer, bytesN,
// address and bool types.
func elementarySize(t string) (int, bool) {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		return 0, false
	}
	switch typ.T {
	case abi.IntTy, abi.UintTy:
		return typ.Size / 8, true
	case abi.FixedBytesTy:
		return typ.Size, true
	case abi.AddressTy:
		return 20, true
	case abi.BoolTy:
		return 1, true
	case abi.FunctionTy:
		return 24, true
	}
	return 0, false
}

func enumSize(members int) int {
	size := 1
	for n := 256; members > n && size < SlotSize; n *= 256 {
		size++
	}
	return size
}

func (r *Resolver) staticArray(t string) (Type, error) {
	open := strings.LastIndex(t, "[")
	if open < 0 {
		return Type{}, fmt.Errorf("malformed array type %q", t)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(t[open+1:len(t)-1]), 10, 64)
	if err != nil {
		return Type{}, fmt.Errorf("array type %q: length must be a literal: %w", t, err)
	}
	elem, err := r.TypeOf(t[:open])
	if err != nil {
		return Type{}, err
	}
	if n == 0 {
		return Type{Kind: Composite, Slots: 0}, nil
	}
	if elem.Kind == Value {
		perSlot := uint64(SlotSize / elem.Size)
		return Type{Kind: Composite, Slots: (n + perSlot - 1) / perSlot}, nil
	}
	return Type{Kind: Composite, Slots: n * elem.Slots}, nil
}

func (r *Resolver) structType(s *ir.Struct) (Type, error) {
	if r.resolving[s] {
		return Type{}, fmt.Errorf("recursive struct %s", s.Name)
	}
	r.resolving[s] = true
	defer delete(r.resolving, s)

	var p packer
	for _, f := range s.Fields {
		ft, err := r.TypeOf(f.Type)
		if err != nil {
			return Type{}, fmt.Errorf("struct %s: %w", s.Name, err)
		}
		p.place(ft)
	}
	return Type{Kind: Composite, Slots: p.slotsUsed()}, nil
}
