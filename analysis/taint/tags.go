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

package taint

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Tag identifies a kind of taint source
type Tag uint8

const (
	// GasRemaining is the remaining gas, gasleft()
	GasRemaining Tag = iota
	// TxGasPrice is the gas price of the transaction
	TxGasPrice
	// BlockBaseFee is the base fee of the block
	BlockBaseFee
	// BlockBlobBaseFee is the blob base fee of the block
	BlockBlobBaseFee
	// BlockGasLimit is the gas limit of the block
	BlockGasLimit
	// Create2Address is the address of a contract created with a salt
	Create2Address
	// CallerBalance is the balance of the caller of the transaction
	CallerBalance

	numTags
)

var tagNames = [numTags]string{
	"GAS_REMAINING",
	"TX_GAS_PRICE",
	"BLOCK_BASEFEE",
	"BLOCK_BLOB_BASEFEE",
	"BLOCK_GAS_LIMIT",
	"CREATE2_ADDRESS",
	"CALLER_BALANCE",
}

var sourceNames = [numTags]string{
	"gasleft()",
	"tx.gasprice",
	"block.basefee",
	"block.blobbasefee",
	"block.gaslimit",
	"CREATE2",
	"msg.sender.balance",
}

// String returns the name of the tag, e.g. GAS_REMAINING
func (t Tag) String() string {
	if t >= numTags {
		return fmt.Sprintf("Tag(%d)", t)
	}
	return tagNames[t]
}

// Source returns the name of the source as reported to users, e.g. gasleft()
func (t Tag) Source() string {
	if t >= numTags {
		return t.String()
	}
	return sourceNames[t]
}

// ParseTag returns the tag named s, by tag name or source name
func ParseTag(s string) (Tag, error) {
	for t := Tag(0); t < numTags; t++ {
		if s == tagNames[t] || s == sourceNames[t] {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown taint source %q", s)
}

// Value is a set of tags. The empty set is a clean value. Values form a join-semilattice under Union.
type Value uint8

// Clean is the empty value
const Clean Value = 0

// AllTags is the value holding every tag
const AllTags Value = 1<<numTags - 1

// Of returns the value holding the tags
func Of(tags ...Tag) Value {
	var v Value
	for _, t := range tags {
		v |= 1 << t
	}
	return v
}

// Union returns the join of v and w
func (v Value) Union(w Value) Value {
	return v | w
}

// Intersect returns the tags in both v and w
func (v Value) Intersect(w Value) Value {
	return v & w
}

// Has returns true if v contains t
func (v Value) Has(t Tag) bool {
	return v&(1<<t) != 0
}

// IsClean returns true if v is empty
func (v Value) IsClean() bool {
	return v == Clean
}

// Tags returns the tags of v in declaration order
func (v Value) Tags() []Tag {
	var tags []Tag
	for t := Tag(0); t < numTags; t++ {
		if v.Has(t) {
			tags = append(tags, t)
		}
	}
	return tags
}

// Sources returns the source names of v, sorted
func (v Value) Sources() []string {
	var names []string
	for _, t := range v.Tags() {
		names = append(names, t.Source())
	}
	slices.Sort(names)
	return names
}

// String returns the sorted source names joined with commas
func (v Value) String() string {
	return strings.Join(v.Sources(), ", ")
}
