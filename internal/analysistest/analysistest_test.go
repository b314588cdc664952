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
// Package formatutil manipulates string colors and other formatting operations.
package analysistest

import (
	"testing"

	"golang.org/x/exp/slices"
	"golang.org/x/tools/txtar"
)

const archive = `A packed contract.
-- config.yaml --
options:
  max-alarms: 3
-- contract.yaml --
contracts:
  - name: Meter
    state:
      - uint128 a
      - uint128 b               # @Tainted(gasleft(), tx.gasprice) @Slot(0, 16)
      - decl: uint256 price     # @Tainted(tx.gasprice) @Function(Meter.set(uint256))
        init: 1
      - uint256 clean           # nothing to see
    functions:
      - name: set
        params: [uint256 p]
        body:
          - assign: [b, {bin: [gasleft(), "+", tx.gasprice]}]
          - assign: [price, tx.gasprice]
`

func TestParseArchive(t *testing.T) {
	test, err := ParseArchive("testdata/Meter.txtar", txtar.Parse([]byte(archive)))
	if err != nil {
		t.Fatalf("failed to parse archive: %v", err)
	}
	if test.Name != "Meter" || test.Program.Contract("Meter") == nil {
		t.Fatalf("unexpected test %s", test.Name)
	}
	if test.Config.MaxAlarms != 3 {
		t.Errorf("config.yaml not loaded, max-alarms is %d", test.Config.MaxAlarms)
	}
	if len(test.Expected) != 2 {
		t.Fatalf("expected 2 expectations, got %v", test.Expected)
	}
	b := test.Expected["Meter.b"]
	if !slices.Equal(b.Sources, []string{"gasleft()", "tx.gasprice"}) || !b.HasSlot || b.Slot != 0 || b.Offset != 16 {
		t.Errorf("unexpected expectation %+v", b)
	}
	price := test.Expected["Meter.price"]
	if price.Function != "Meter.set(uint256)" || price.HasSlot {
		t.Errorf("unexpected expectation %+v", price)
	}
	if price.Pos.Line == 0 {
		t.Errorf("position of the expectation is not set")
	}
}

func TestParseArchiveErrors(t *testing.T) {
	tests := map[string]string{
		"missing program": "-- config.yaml --\noptions: {}\n",
		"unexpected file": "-- contract.yaml --\ncontracts: []\n-- notes.txt --\nhello\n",
		"bad slot": "-- contract.yaml --\ncontracts:\n  - name: C\n    state:\n" +
			"      - uint256 x # @Tainted(gasleft()) @Slot(zero, 0)\n",
		"incomplete slot": "-- contract.yaml --\ncontracts:\n  - name: C\n    state:\n" +
			"      - uint256 x # @Tainted(gasleft()) @Slot(1)\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseArchive(name+".txtar", txtar.Parse([]byte(src))); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestAnnotationArgs(t *testing.T) {
	args, ok := annotationArgs("@Tainted(gasleft(), CREATE2) trailing", "@Tainted")
	if !ok || args != "gasleft(), CREATE2" {
		t.Errorf("got %q, %v", args, ok)
	}
	if got := splitArgs(args); !slices.Equal(got, []string{"gasleft()", "CREATE2"}) {
		t.Errorf("splitArgs gave %v", got)
	}
	if _, ok := annotationArgs("@Tainted(gasleft()", "@Tainted"); ok {
		t.Errorf("unbalanced parentheses should not match")
	}
}
