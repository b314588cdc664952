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
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/awslabs/ar-sol-tools/analysis/config"
	"github.com/awslabs/ar-sol-tools/analysis/ir"
	"github.com/awslabs/ar-sol-tools/internal/analysistest"
	"golang.org/x/exp/slices"
)

func analyzeTest(t *testing.T, test *analysistest.Test) AnalysisResult {
	logger := config.NewLogGroup(test.Config)
	if !testing.Verbose() {
		logger.SetAllOutput(io.Discard)
	}
	res, err := AnalyzeWithLogger(logger, test.Config, test.Program)
	if err != nil {
		t.Fatalf("analysis of %s failed: %v", test.Name, err)
	}
	return res
}

// checkExpectations checks that the findings are exactly the annotated variables
func checkExpectations(t *testing.T, test *analysistest.Test, res AnalysisResult) {
	seen := map[string]bool{}
	for _, f := range res.Findings {
		name := f.Variable.CanonicalName()
		seen[name] = true
		e, ok := test.Expected[name]
		if !ok {
			t.Errorf("%s: unexpected finding %s", test.Name, f)
			continue
		}
		want := slices.Clone(e.Sources)
		slices.Sort(want)
		if got := f.Taint.Sources(); !slices.Equal(got, want) {
			t.Errorf("%s: %s is tainted by %v, expected %v", e.Pos, name, got, want)
		}
		if e.HasSlot && (f.Location.Slot != e.Slot || f.Location.Offset != e.Offset) {
			t.Errorf("%s: %s is at (%s), expected slot %d, offset %d", e.Pos, name, f.Location, e.Slot, e.Offset)
		}
		if e.Function != "" && f.Function != e.Function {
			t.Errorf("%s: %s reported in %s, expected %s", e.Pos, name, f.Function, e.Function)
		}
	}
	for name, e := range test.Expected {
		if !seen[name] {
			t.Errorf("%s: expected finding on %s not reported", e.Pos, name)
		}
	}
}

func TestAll(t *testing.T) {
	for _, test := range analysistest.LoadTests(t, filepath.Join("testdata", "*.txtar")) {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			res := analyzeTest(t, test)
			checkExpectations(t, test, res)
		})
	}
}

func loadInline(t *testing.T, src string) *analysistest.Test {
	prog, err := ir.ParseYAML([]byte(src))
	if err != nil {
		t.Fatalf("could not load program: %v", err)
	}
	cfg := config.NewDefault()
	cfg.SilenceWarn = true
	return &analysistest.Test{Name: t.Name(), Program: prog, Config: cfg}
}

func findingNames(res AnalysisResult) []string {
	var names []string
	for _, f := range res.Findings {
		names = append(names, f.Variable.CanonicalName())
	}
	return names
}

func TestLastWriteWins(t *testing.T) {
	test := loadInline(t, `
contracts:
  - name: C
    state:
      - uint256 v
      - uint256 w
    functions:
      - name: f
        body:
          - assign: [v, gasleft()]
          - assign: [v, 42]
          - assign: [w, 42]
          - assign: [w, gasleft()]
`)
	res := analyzeTest(t, test)
	if names := findingNames(res); !slices.Equal(names, []string{"C.w"}) {
		t.Errorf("expected only C.w to be reported, got %v", names)
	}
}

func TestBranchScope(t *testing.T) {
	test := loadInline(t, `
contracts:
  - name: C
    state:
      - uint256 inside
      - uint256 after
      - uint256 guarded
    functions:
      - name: f
        body:
          - if: {bin: [gasleft(), ">", 1000]}
            then:
              - assign: [inside, 1]
          - assign: [after, 2]
      - name: g
        body:
          - require: {bin: [gasleft(), ">", 1000]}
          - assign: [guarded, 3]
`)
	res := analyzeTest(t, test)
	if names := findingNames(res); !slices.Equal(names, []string{"C.inside"}) {
		t.Errorf("expected only C.inside to be reported, got %v", names)
	}
}

func TestStrictGuards(t *testing.T) {
	test := loadInline(t, `
contracts:
  - name: C
    state:
      - uint256 guarded
    functions:
      - name: g
        body:
          - require: {bin: [gasleft(), ">", 1000]}
          - assign: [guarded, 3]
`)
	// without guards, require opens a scope for the rest of the block
	test.Config.TaintedStorage.Guards = nil
	res := analyzeTest(t, test)
	if names := findingNames(res); !slices.Equal(names, []string{"C.guarded"}) {
		t.Errorf("expected C.guarded to be reported, got %v", names)
	}
}

func TestCalleeWritesAreIndependent(t *testing.T) {
	test := loadInline(t, `
contracts:
  - name: C
    state:
      - uint256 x
      - uint256 result
      - uint256 reader
    functions:
      - name: f
        visibility: internal
        returns: [uint256]
        body:
          - assign: [x, gasleft()]
          - return: 0
      - name: callF
        body:
          - assign: [result, f()]
      - name: readAfter
        body:
          - f()
          - assign: [reader, x]
`)
	res := analyzeTest(t, test)
	if names := findingNames(res); !slices.Equal(names, []string{"C.x", "C.reader"}) {
		t.Errorf("expected C.x and C.reader to be reported, got %v", names)
	}
	for _, f := range res.Findings {
		if f.Variable.Name == "x" && f.Function != "C.f()" {
			t.Errorf("write to x should be attributed to C.f(), got %s", f.Function)
		}
	}
}

func TestEverySourceIsSingleton(t *testing.T) {
	sources := map[string]string{
		"gasleft()":          "gasleft()",
		"tx.gasprice":        "tx.gasprice",
		"block.basefee":      "block.basefee",
		"block.blobbasefee":  "block.blobbasefee",
		"block.gaslimit":     "block.gaslimit",
		"msg.sender.balance": "msg.sender.balance",
		"{new: D, salt: s}":  "CREATE2",
	}
	for expr, want := range sources {
		expr, want := expr, want
		t.Run(want, func(t *testing.T) {
			test := loadInline(t, `
contracts:
  - name: D
  - name: C
    state:
      - uint256 v
    functions:
      - name: f
        params: [bytes32 s]
        body:
          - assign: [v, `+expr+`]
`)
			res := analyzeTest(t, test)
			if len(res.Findings) != 1 {
				t.Fatalf("expected one finding, got %v", findingNames(res))
			}
			if got := res.Findings[0].Taint.String(); got != want {
				t.Errorf("expected source %q, got %q", want, got)
			}
		})
	}
}

func TestNonSources(t *testing.T) {
	for _, expr := range []string{"block.number", "block.timestamp", "msg.value", "address(0x1234).balance",
		"{new: D}", "tx.origin"} {
		expr := expr
		t.Run(expr, func(t *testing.T) {
			test := loadInline(t, `
contracts:
  - name: D
  - name: C
    state:
      - uint256 v
    functions:
      - name: f
        body:
          - assign: [v, `+expr+`]
`)
			res := analyzeTest(t, test)
			if len(res.Findings) != 0 {
				t.Errorf("expected no finding for %s, got %v", expr, findingNames(res))
			}
		})
	}
}

func TestDisabledSources(t *testing.T) {
	test := loadInline(t, `
contracts:
  - name: C
    state:
      - uint256 gas
      - uint256 price
    functions:
      - name: f
        body:
          - assign: [gas, gasleft()]
          - assign: [price, tx.gasprice]
`)
	test.Config.TaintedStorage.Sources = []string{"TX_GAS_PRICE"}
	res := analyzeTest(t, test)
	if names := findingNames(res); !slices.Equal(names, []string{"C.price"}) {
		t.Errorf("expected only C.price to be reported, got %v", names)
	}
	test.Config.TaintedStorage.Sources = []string{"BLOCK_NUMBER"}
	if _, err := AnalyzeWithLogger(config.NewLogGroup(test.Config), test.Config, test.Program); err == nil {
		t.Errorf("expected an error for an unknown source")
	}
}

func TestSuppressAndMaxAlarms(t *testing.T) {
	test := loadInline(t, `
contracts:
  - name: C
    state:
      - uint256 a
      - uint256 b
      - uint256 c
    functions:
      - name: f
        body:
          - assign: [a, gasleft()]
          - assign: [b, gasleft()]
          - assign: [c, gasleft()]
`)
	test.Config.TaintedStorage.Suppress = []config.CodeIdentifier{
		config.CompileRegexes(config.CodeIdentifier{Variable: "C\\.b"}),
	}
	res := analyzeTest(t, test)
	if names := findingNames(res); !slices.Equal(names, []string{"C.a", "C.c"}) {
		t.Errorf("expected C.b to be suppressed, got %v", names)
	}
	test.Config.MaxAlarms = 1
	res = analyzeTest(t, test)
	if names := findingNames(res); !slices.Equal(names, []string{"C.a"}) {
		t.Errorf("expected one finding, got %v", names)
	}
}

func TestDiagnostics(t *testing.T) {
	test := loadInline(t, `
contracts:
  - name: C
    state:
      - uint256 a
      - uint256 b
      - uint256 c
    functions:
      - name: f
        body:
          - assign: [a, {unsupported: "type(C).creationCode"}]
          - assign: [b, undeclared]
          - assign: [c, gasleft()]
      - name: g
        body:
          - assign: [a, missing(1)]
`)
	res := analyzeTest(t, test)
	if names := findingNames(res); !slices.Equal(names, []string{"C.c"}) {
		t.Errorf("expected only C.c to be reported, got %v", names)
	}
	if len(res.Diagnostics) != 3 {
		t.Errorf("expected 3 diagnostics, got %v", res.Diagnostics)
	}
	if len(res.Errors) < len(res.Diagnostics) {
		t.Errorf("diagnostics should be mirrored in errors")
	}
	for _, d := range res.Diagnostics {
		if d.Contract != "C" || d.EntryPoint == "" {
			t.Errorf("diagnostic without context: %v", d)
		}
	}
}

func TestRecursionTerminates(t *testing.T) {
	test := loadInline(t, `
contracts:
  - name: C
    state:
      - uint256 depth
    functions:
      - name: down
        visibility: internal
        params: [uint256 n]
        returns: [uint256]
        body:
          - if: {bin: [n, "==", 0]}
            then:
              - return: gasleft()
          - return: {call: down, args: [{bin: [n, "-", 1]}]}
      - name: f
        body:
          - assign: [depth, down(3)]
`)
	res := analyzeTest(t, test)
	if names := findingNames(res); !slices.Equal(names, []string{"C.depth"}) {
		t.Errorf("expected C.depth to be reported, got %v", names)
	}
	c := test.Program.Contract("C")
	g := res.CallGraphs[c]
	if g == nil {
		t.Fatalf("no call graph for C")
	}
	if rec := g.Recursive(); !rec[c.Functions[0]] || rec[c.Functions[1]] {
		t.Errorf("expected only down to be recursive, got %v", rec)
	}
	if cycles := g.Cycles(); len(cycles) != 1 || CycleString(cycles[0]) != "C.down(uint256) -> C.down(uint256)" {
		t.Errorf("unexpected cycles %v", cycles)
	}
	found := false
	for _, d := range res.Diagnostics {
		found = found || strings.Contains(d.Message, "recursive call to C.down(uint256)")
	}
	if !found {
		t.Errorf("expected a diagnostic on the recursive call, got %v", res.Diagnostics)
	}
}

func TestParallelEntryPoints(t *testing.T) {
	src := `
contracts:
  - name: C
    state:
      - uint256 a
      - uint256 b
      - uint256 c
      - uint256 d
    functions:
      - name: fa
        body: [{assign: [a, gasleft()]}]
      - name: fb
        body: [{assign: [b, tx.gasprice]}]
      - name: fc
        body: [{assign: [c, 1]}]
      - name: fd
        body: [{assign: [d, block.basefee]}]
`
	seq := loadInline(t, src)
	par := loadInline(t, src)
	par.Config.NumRoutines = 4
	r1 := analyzeTest(t, seq)
	r2 := analyzeTest(t, par)
	if !slices.Equal(findingNames(r1), findingNames(r2)) {
		t.Errorf("parallel analysis differs: %v vs %v", findingNames(r1), findingNames(r2))
	}
	for i := range r1.Findings {
		if r1.Findings[i].Taint != r2.Findings[i].Taint || r1.Findings[i].Function != r2.Findings[i].Function {
			t.Errorf("parallel analysis differs on %s", r1.Findings[i].Variable)
		}
	}
}

func TestFirstEntryPointDecides(t *testing.T) {
	test := loadInline(t, `
contracts:
  - name: C
    state:
      - uint256 v
    functions:
      - name: first
        body: [{assign: [v, tx.gasprice]}]
      - name: second
        body: [{assign: [v, gasleft()]}]
`)
	res := analyzeTest(t, test)
	if len(res.Findings) != 1 {
		t.Fatalf("expected one finding, got %v", findingNames(res))
	}
	f := res.Findings[0]
	if f.Taint.String() != "gasleft(), tx.gasprice" {
		t.Errorf("sources of all entry points should be unioned, got %q", f.Taint)
	}
	if f.EntryPoint != "C.first()" || f.Function != "C.first()" {
		t.Errorf("expected the first entry point to decide, got %s in %s", f.Function, f.EntryPoint)
	}
}

func TestReadModifyWriteEvaluatesKeysOnce(t *testing.T) {
	test := loadInline(t, `
contracts:
  - name: C
    state:
      - mapping(uint256 => uint256) counts
      - mapping(uint256 => uint256) clean
      - uint256 calls
    functions:
      - name: next
        visibility: internal
        returns: [uint256]
        body:
          - assign: [calls, "+=", 1]
          - return: calls
      - name: add
        body:
          - assign: ["counts[gasleft()]", "+=", 1]
          - assign: ["clean[missing()]", "+=", 1]
      - name: inc
        body:
          - do: "clean[missing()]++"
          - do: "clean[next()]++"
`)
	res := analyzeTest(t, test)
	if names := findingNames(res); !slices.Equal(names, []string{"C.counts"}) {
		t.Errorf("expected only C.counts to be reported, got %v", names)
	}
	if len(res.Diagnostics) != 2 {
		t.Errorf("expected one diagnostic per unresolved key, got %v", res.Diagnostics)
	}
	for _, d := range res.Diagnostics {
		if !strings.Contains(d.Message, "missing") {
			t.Errorf("unexpected diagnostic %v", d)
		}
	}
}
