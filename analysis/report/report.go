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
// Package report renders the findings of the tainted-storage analysis as text and as JSON.
//
// The JSON fields variable, contract, slot, slot_hex, offset, taint_source and function are consumed by other
// tools and must not change. Fields may be added.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/awslabs/ar-sol-tools/analysis/config"
	"github.com/awslabs/ar-sol-tools/analysis/taint"
	"github.com/awslabs/ar-sol-tools/internal/formatutil"
)

// JSONFinding is the JSON representation of a finding
type JSONFinding struct {
	Variable    string   `json:"variable"`
	Contract    string   `json:"contract"`
	Slot        uint64   `json:"slot"`
	SlotHex     string   `json:"slot_hex"`
	Offset      int      `json:"offset"`
	TaintSource string   `json:"taint_source"`
	Function    string   `json:"function"`
	EntryPoint  string   `json:"entry_point,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ToJSON converts a finding to its JSON representation
func ToJSON(f taint.Finding) JSONFinding {
	j := JSONFinding{
		Variable:    f.Variable.CanonicalName(),
		Slot:        f.Location.Slot,
		SlotHex:     f.Location.Hex(),
		Offset:      f.Location.Offset,
		TaintSource: f.Taint.String(),
		Function:    f.Function,
		EntryPoint:  f.EntryPoint,
	}
	if f.Contract != nil {
		j.Contract = f.Contract.Name
	}
	for _, t := range f.Taint.Tags() {
		j.Tags = append(j.Tags, t.String())
	}
	return j
}

// WriteJSON writes the findings as an indented JSON array. An empty list of findings is written as [].
func WriteJSON(w io.Writer, findings []taint.Finding) error {
	res := make([]JSONFinding, 0, len(findings))
	for _, f := range findings {
		res = append(res, ToJSON(f))
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal findings: %w", err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// Text returns the one-line description of a finding
func Text(f taint.Finding) string {
	return fmt.Sprintf("%s (%s) is tainted by %s in %s", f.Variable.CanonicalName(), f.Location, f.Taint,
		f.Function)
}

// WriteText writes one line per finding, followed by the entry point when it differs from the function
func WriteText(w io.Writer, findings []taint.Finding) error {
	for _, f := range findings {
		line := formatutil.Red("[TAINTED] ") + Text(f)
		if f.EntryPoint != "" && f.EntryPoint != f.Function {
			line += formatutil.Faint(" (from " + f.EntryPoint + ")")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteDiagnostics writes one line per diagnostic
func WriteDiagnostics(w io.Writer, diagnostics []taint.Diagnostic) error {
	for _, d := range diagnostics {
		if _, err := fmt.Fprintln(w, formatutil.Yellow("[WARN] ")+formatutil.Sanitize(d.Error())); err != nil {
			return err
		}
	}
	return nil
}

// WriteReport writes the findings in a new tainted-storage-*.json file of the reports directory when the
// configuration requires it. It returns the name of the file, or "" when no report is required.
func WriteReport(cfg *config.Config, logger *config.LogGroup, findings []taint.Finding) (string, error) {
	if !cfg.ReportJSON {
		return "", nil
	}
	f, err := os.CreateTemp(cfg.ReportsDir, "tainted-storage-*.json")
	if err != nil {
		return "", fmt.Errorf("could not create report file: %w", err)
	}
	defer f.Close()
	if err := WriteJSON(f, findings); err != nil {
		return "", fmt.Errorf("could not write report %s: %w", f.Name(), err)
	}
	path, err := filepath.Abs(f.Name())
	if err != nil {
		path = f.Name()
	}
	logger.Infof("Report of %s written in %s", formatutil.Plural(len(findings), "finding"), path)
	return path, nil
}

// Summary returns the RESULT line of a run
func Summary(res taint.AnalysisResult) string {
	var b strings.Builder
	b.WriteString("RESULT: ")
	if len(res.Findings) == 0 {
		b.WriteString(formatutil.Green("no tainted storage variable"))
	} else {
		b.WriteString(formatutil.Red(formatutil.Plural(len(res.Findings), "tainted storage variable")))
	}
	if len(res.Diagnostics) > 0 {
		b.WriteString(", " + formatutil.Yellow(formatutil.Plural(len(res.Diagnostics), "diagnostic")))
	}
	return b.String()
}
