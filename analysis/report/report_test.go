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
package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/awslabs/ar-sol-tools/analysis/config"
	"github.com/awslabs/ar-sol-tools/analysis/ir"
	"github.com/awslabs/ar-sol-tools/analysis/storage"
	"github.com/awslabs/ar-sol-tools/analysis/taint"
	"github.com/awslabs/ar-sol-tools/internal/formatutil"
)

const vault = `
contracts:
  - name: Vault
    state:
      - uint128 a
      - uint128 gasUsed
      - uint256 price
    functions:
      - name: record
        body:
          - assign: [gasUsed, gasleft()]
          - do: {call: store, args: [tx.gasprice]}
      - name: store
        visibility: internal
        params: [uint256 p]
        body:
          - assign: [price, {bin: [p, "+", block.basefee]}]
`

func analyze(t *testing.T, src string) taint.AnalysisResult {
	t.Helper()
	prog, err := ir.ParseYAML([]byte(src))
	if err != nil {
		t.Fatalf("could not load program: %v", err)
	}
	cfg := config.NewDefault()
	cfg.SilenceWarn = true
	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(&bytes.Buffer{})
	res, err := taint.AnalyzeWithLogger(logger, cfg, prog)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	return res
}

func TestWriteJSON(t *testing.T) {
	res := analyze(t, vault)
	var buf bytes.Buffer
	if err := WriteJSON(&buf, res.Findings); err != nil {
		t.Fatalf("could not write json: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(got))
	}
	for _, key := range []string{"variable", "contract", "slot", "slot_hex", "offset", "taint_source", "function"} {
		if _, ok := got[0][key]; !ok {
			t.Errorf("missing field %q in %v", key, got[0])
		}
	}
	first := got[0]
	if first["variable"] != "Vault.gasUsed" || first["contract"] != "Vault" {
		t.Errorf("unexpected first finding %v", first)
	}
	if first["slot"] != float64(0) || first["offset"] != float64(16) {
		t.Errorf("expected gasUsed at slot 0 offset 16, got %v", first)
	}
	if first["slot_hex"] != "0x"+strings.Repeat("0", 64) {
		t.Errorf("unexpected slot_hex %v", first["slot_hex"])
	}
	second := got[1]
	if second["taint_source"] != "block.basefee, tx.gasprice" {
		t.Errorf("unexpected taint_source %v", second["taint_source"])
	}
	if second["function"] != "Vault.store(uint256)" || second["entry_point"] != "Vault.record()" {
		t.Errorf("unexpected function or entry point in %v", second)
	}
	if hex := second["slot_hex"].(string); !strings.HasSuffix(hex, "01") || len(hex) != 66 {
		t.Errorf("unexpected slot_hex %q", hex)
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("could not write json: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("expected an empty array, got %q", buf.String())
	}
}

func TestText(t *testing.T) {
	formatutil.SetColors(false)
	res := analyze(t, vault)
	want := "Vault.gasUsed (slot: 0, offset: 16) is tainted by gasleft() in Vault.record()"
	if got := Text(res.Findings[0]); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	var buf bytes.Buffer
	if err := WriteText(&buf, res.Findings); err != nil {
		t.Fatalf("could not write text: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.HasSuffix(lines[1], "(from Vault.record())") {
		t.Errorf("expected the entry point on the second line, got %q", lines[1])
	}
	if s := Summary(res); s != "RESULT: 2 tainted storage variables" {
		t.Errorf("unexpected summary %q", s)
	}
}

func TestWriteReport(t *testing.T) {
	res := analyze(t, vault)
	cfg := config.NewDefault()
	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(&bytes.Buffer{})

	name, err := WriteReport(cfg, logger, res.Findings)
	if err != nil || name != "" {
		t.Fatalf("expected no report by default, got %q, %v", name, err)
	}

	cfg.ReportJSON = true
	cfg.ReportsDir = t.TempDir()
	name, err = WriteReport(cfg, logger, res.Findings)
	if err != nil {
		t.Fatalf("could not write report: %v", err)
	}
	if filepath.Dir(name) != cfg.ReportsDir || !strings.HasPrefix(filepath.Base(name), "tainted-storage-") {
		t.Errorf("unexpected report file %s", name)
	}
	b, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("could not read report: %v", err)
	}
	var got []JSONFinding
	if err := json.Unmarshal(b, &got); err != nil || len(got) != 2 {
		t.Errorf("unexpected report content %s (%v)", b, err)
	}
}

func TestWriteLayout(t *testing.T) {
	formatutil.SetColors(false)
	res := analyze(t, vault)
	var layout *storage.Layout
	for _, l := range res.Layouts {
		layout = l
	}
	var buf bytes.Buffer
	if err := WriteLayout(&buf, layout, map[string]bool{"Vault.price": true}); err != nil {
		t.Fatalf("could not write layout: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected a title, a header and 3 rows, got %q", buf.String())
	}
	if f := strings.Fields(lines[3]); len(f) != 5 || f[0] != "0" || f[1] != "16" || f[2] != "16B" || f[3] != "Vault.gasUsed" {
		t.Errorf("unexpected row %q", lines[3])
	}
}

func TestWriteCallGraph(t *testing.T) {
	formatutil.SetColors(false)
	res := analyze(t, `
contracts:
  - name: Counter
    state: [uint256 n]
    functions:
      - name: run
        body:
          - do: {call: ping, args: [3]}
      - name: ping
        visibility: internal
        params: [uint256 k]
        body:
          - if: {bin: [k, ">", 0]}
            then:
              - do: {call: pong, args: [k]}
      - name: pong
        visibility: internal
        params: [uint256 k]
        body:
          - assign: [n, gasleft()]
          - do: {call: ping, args: [{bin: [k, "-", 1]}]}
`)
	var c *ir.Contract
	for k := range res.CallGraphs {
		c = k
	}
	if c == nil || c.Name != "Counter" {
		t.Fatalf("expected the call graph of Counter, got %v", res.CallGraphs)
	}
	var buf bytes.Buffer
	if err := WriteCallGraph(&buf, res.CallGraphs[c]); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected a summary and one cycle, got %q", buf.String())
	}
	if lines[0] != "call graph of Counter: 3 functions, 3 calls, 1 cycle" {
		t.Errorf("unexpected summary %q", lines[0])
	}
	if !strings.Contains(lines[1], "Counter.ping(uint256) -> Counter.pong(uint256) -> Counter.ping(uint256)") &&
		!strings.Contains(lines[1], "Counter.pong(uint256) -> Counter.ping(uint256) -> Counter.pong(uint256)") {
		t.Errorf("unexpected cycle %q", lines[1])
	}
	if len(res.Findings) != 1 || res.Findings[0].Variable.Name != "n" {
		t.Errorf("expected n to be reported through the cycle, got %v", res.Findings)
	}
}
