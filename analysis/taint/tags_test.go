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
	"testing"

	"github.com/awslabs/ar-sol-tools/analysis/config"
	"github.com/awslabs/ar-sol-tools/analysis/ir"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Clean, ""},
		{Of(GasRemaining), "gasleft()"},
		{Of(CallerBalance, GasRemaining), "gasleft(), msg.sender.balance"},
		{Of(Create2Address, TxGasPrice, BlockBaseFee), "CREATE2, block.basefee, tx.gasprice"},
		{Of(GasRemaining).Union(Of(GasRemaining)), "gasleft()"},
	}
	for _, test := range tests {
		if got := test.v.String(); got != test.want {
			t.Errorf("%v: expected %q, got %q", test.v.Tags(), test.want, got)
		}
	}
}

func TestValueLattice(t *testing.T) {
	a := Of(GasRemaining, TxGasPrice)
	b := Of(TxGasPrice, BlockGasLimit)
	if a.Union(b) != b.Union(a) {
		t.Errorf("union should be commutative")
	}
	if a.Union(Clean) != a {
		t.Errorf("clean should be the identity of union")
	}
	if a.Intersect(b) != Of(TxGasPrice) {
		t.Errorf("unexpected intersection %v", a.Intersect(b))
	}
	if !Clean.IsClean() || a.IsClean() {
		t.Errorf("bad emptiness")
	}
	if len(AllTags.Tags()) != int(numTags) {
		t.Errorf("AllTags should hold %d tags", numTags)
	}
}

func TestParseTag(t *testing.T) {
	for tag := Tag(0); tag < numTags; tag++ {
		for _, name := range []string{tag.String(), tag.Source()} {
			got, err := ParseTag(name)
			if err != nil || got != tag {
				t.Errorf("ParseTag(%q) = %v, %v", name, got, err)
			}
		}
	}
	if _, err := ParseTag("block.number"); err == nil {
		t.Errorf("block.number is not a source")
	}
}

func TestClassifier(t *testing.T) {
	cfg := config.NewDefault()
	cfg.TaintedStorage.Sources = []string{"gasleft()", "CREATE2_ADDRESS"}
	c, err := NewClassifier(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Env(&ir.Env{Name: "gasleft()"}) != Of(GasRemaining) {
		t.Errorf("gasleft() should be a source")
	}
	if !c.Env(&ir.Env{Name: "tx.gasprice"}).IsClean() {
		t.Errorf("tx.gasprice is disabled")
	}
	if !c.Env(&ir.Env{Name: "block.number"}).IsClean() {
		t.Errorf("block.number is never a source")
	}
	if c.Create(&ir.New{Contract: "C", Salt: &ir.Literal{Value: "1"}}) != Of(Create2Address) {
		t.Errorf("salted creation should be a source")
	}
	if !c.Create(&ir.New{Contract: "C"}).IsClean() {
		t.Errorf("unsalted creation should be clean")
	}
	if !c.Balance(true).IsClean() {
		t.Errorf("caller balance is disabled")
	}
}
