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
	"math/big"

	"github.com/awslabs/ar-sol-tools/analysis/ir"
	"github.com/ethereum/go-ethereum/common"
)

// Location is the position of a state variable in storage
type Location struct {
	Slot uint64
	// Offset is the byte offset in the slot, from the least significant byte
	Offset int
}

// Hex returns the slot index as a 32-byte, 0x-prefixed hexadecimal string
func (l Location) Hex() string {
	return common.BigToHash(new(big.Int).SetUint64(l.Slot)).Hex()
}

func (l Location) String() string {
	return fmt.Sprintf("slot: %d, offset: %d", l.Slot, l.Offset)
}

// Entry is the placement of one state variable
type Entry struct {
	Variable *ir.StateVariable
	Type     Type
	Location Location
}

// Layout is the storage layout of a contract, including the variables of its ancestors
type Layout struct {
	Contract *ir.Contract
	// Entries in slot order
	Entries []Entry
	// Errors lists the variables whose type could not be resolved. They are assumed to occupy a whole slot.
	Errors []error

	byVar map[*ir.StateVariable]int
}

// Compute returns the storage layout of c. Variables of the most base-like contracts come first, then in
// declaration order. Constants and immutables have no storage.
func Compute(c *ir.Contract) *Layout {
	l := &Layout{Contract: c, byVar: map[*ir.StateVariable]int{}}
	r := NewResolver(c)
	lin := c.Linearization()
	var p packer
	for i := len(lin) - 1; i >= 0; i-- {
		for _, v := range lin[i].State {
			if !v.InStorage() {
				continue
			}
			t, err := r.TypeOf(v.Type)
			if err != nil {
				l.Errors = append(l.Errors, fmt.Errorf("%s: %w", v.CanonicalName(), err))
				t = Type{Kind: Dynamic, Slots: 1}
			}
			l.byVar[v] = len(l.Entries)
			l.Entries = append(l.Entries, Entry{Variable: v, Type: t, Location: p.place(t)})
		}
	}
	return l
}

// Location returns the location of v in the layout
func (l *Layout) Location(v *ir.StateVariable) (Location, bool) {
	i, ok := l.byVar[v]
	if !ok {
		return Location{}, false
	}
	return l.Entries[i].Location, true
}

// packer places values in consecutive slots. Value types are packed when they fit in the rest of the current slot;
// other types start at a fresh slot and the next variable starts at a fresh slot too.
type packer struct {
	slot   uint64
	offset int
}

func (p *packer) place(t Type) Location {
	if t.Kind == Value {
		if p.offset+t.Size > SlotSize {
			p.slot++
			p.offset = 0
		}
		loc := Location{Slot: p.slot, Offset: p.offset}
		p.offset += t.Size
		return loc
	}
	if p.offset > 0 {
		p.slot++
		p.offset = 0
	}
	loc := Location{Slot: p.slot, Offset: 0}
	p.slot += t.Slots
	return loc
}

// slotsUsed returns the number of slots touched by the values placed so far
func (p *packer) slotsUsed() uint64 {
	if p.offset > 0 {
		return p.slot + 1
	}
	return p.slot
}
