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
	"time"

	"github.com/awslabs/ar-sol-tools/analysis/callgraph"
	"github.com/awslabs/ar-sol-tools/analysis/config"
	"github.com/awslabs/ar-sol-tools/analysis/ir"
	"github.com/awslabs/ar-sol-tools/analysis/storage"
	"github.com/awslabs/ar-sol-tools/internal/funcutil"
	"golang.org/x/exp/slices"
)

// AnalysisResult contains the findings of the analysis and the problems encountered
type AnalysisResult struct {
	// Findings are ordered by derived contract, in declaration order, then by storage location
	Findings []Finding

	// Diagnostics are the problems encountered while walking entry points. They never stop the analysis.
	Diagnostics []Diagnostic

	// Errors contains a list of errors produced by the analysis, including the diagnostics. Errors may have been
	// added at different steps of the analysis.
	Errors []error

	// Layouts are the storage layouts of the analyzed contracts
	Layouts map[*ir.Contract]*storage.Layout

	// CallGraphs are the call graphs of the analyzed contracts
	CallGraphs map[*ir.Contract]*callgraph.Graph
}

// Finding is a storage variable whose value after some entry point depends on a taint source
type Finding struct {
	// Contract is the derived contract whose entry points write the variable
	Contract *ir.Contract
	Variable *ir.StateVariable
	Location storage.Location
	Taint    Value
	// Function is the canonical name of the function of the decisive write
	Function string
	// EntryPoint is the canonical name of the first entry point writing a tainted value
	EntryPoint string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s (%s) is tainted by %s in %s", f.Variable.CanonicalName(), f.Location, f.Taint,
		f.Function)
}

// Diagnostic is a problem encountered while walking an entry point. The sub-expression or statement concerned is
// treated as clean.
type Diagnostic struct {
	Contract   string
	EntryPoint string
	Function   string
	Message    string
}

func (d Diagnostic) Error() string {
	if d.Function != "" && d.Function != d.EntryPoint {
		return fmt.Sprintf("%s: %s (in %s): %s", d.Contract, d.EntryPoint, d.Function, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Contract, d.EntryPoint, d.Message)
}

// analysis holds what is shared by all the entry point walks. It is read-only during the walks.
type analysis struct {
	cfg        *config.Config
	logger     *config.LogGroup
	classifier Classifier
}

// entryResult is the outcome of the walk of one entry point
type entryResult struct {
	entry       callgraph.EntryPoint
	outcomes    map[*ir.StateVariable]Outcome
	diagnostics []Diagnostic
	err         error
}

// Analyze runs the tainted-storage analysis on the derived contracts of prog with the configuration cfg.
//
// Every entry point of a derived contract is walked with its own environment, and the final taint of each state
// variable is collected. A variable is reported when some entry point leaves it with a non-empty taint.
func Analyze(cfg *config.Config, prog *ir.Program) (AnalysisResult, error) {
	return AnalyzeWithLogger(config.NewLogGroup(cfg), cfg, prog)
}

// AnalyzeWithLogger is Analyze with a caller-provided logger
func AnalyzeWithLogger(logger *config.LogGroup, cfg *config.Config, prog *ir.Program) (AnalysisResult, error) {
	res := AnalysisResult{
		Layouts:    map[*ir.Contract]*storage.Layout{},
		CallGraphs: map[*ir.Contract]*callgraph.Graph{},
	}
	if prog == nil {
		return res, fmt.Errorf("no program to analyze")
	}
	classifier, err := NewClassifier(cfg)
	if err != nil {
		return res, err
	}
	a := &analysis{cfg: cfg, logger: logger, classifier: classifier}
	start := time.Now()

	for _, c := range prog.Derived() {
		if !cfg.MatchContractFilter(c.Name) {
			logger.Debugf("skipping %s (contract filter)", c.Name)
			continue
		}
		res.Findings = append(res.Findings, a.analyzeContract(c, &res)...)
	}

	if cfg.MaxAlarms > 0 && len(res.Findings) > cfg.MaxAlarms {
		logger.Warnf("%d findings, reporting the first %d (max-alarms)", len(res.Findings), cfg.MaxAlarms)
		res.Findings = res.Findings[:cfg.MaxAlarms]
	}
	logger.Infof("tainted-storage analysis: %d findings, %d diagnostics (%.2f s)", len(res.Findings),
		len(res.Diagnostics), time.Since(start).Seconds())
	return res, nil
}

func (a *analysis) analyzeContract(c *ir.Contract, res *AnalysisResult) []Finding {
	layout := storage.Compute(c)
	res.Layouts[c] = layout
	for _, err := range layout.Errors {
		res.Errors = append(res.Errors, fmt.Errorf("layout of %s: %w", c.Name, err))
	}

	g := callgraph.Build(c)
	res.CallGraphs[c] = g
	for _, err := range g.Unresolved {
		a.logger.Debugf("%s: %v", c.Name, err)
	}
	eps := g.EntryPoints()
	stats := g.Stats()
	a.logger.Debugf("%s: %d entry points, %d functions, %d calls", c.Name, len(eps), len(g.Functions), stats.Size)
	for _, cycle := range g.Cycles() {
		a.logger.Debugf("%s: call cycle %s", c.Name, CycleString(cycle))
	}
	recursive := g.Recursive()

	results := funcutil.MapParallel(eps, func(ep callgraph.EntryPoint) entryResult {
		a.logger.Debugf("analyzing %s (%d reachable functions)", ep.Name(), len(g.ReachableFrom(ep)))
		w := newWalker(a, g, ep, recursive)
		err := w.run()
		return entryResult{entry: ep, outcomes: w.env.Outcomes(), diagnostics: w.diagnostics, err: err}
	}, a.cfg.NumRoutines)

	return a.aggregate(c, layout, results, res)
}

// CycleString returns a call cycle, whose last function is its first one, as f -> g -> f
func CycleString(cycle []*ir.Function) string {
	return strings.Join(funcutil.Map(cycle, (*ir.Function).CanonicalName), " -> ")
}

// aggregate merges the outcomes of the entry points of c, in entry point order. The taint of a variable is the
// union over the entry points; the function and entry point are those of the first entry point leaving the
// variable tainted.
func (a *analysis) aggregate(c *ir.Contract, layout *storage.Layout, results []entryResult,
	res *AnalysisResult) []Finding {
	byVar := map[*ir.StateVariable]*Finding{}
	var order []*ir.StateVariable
	for _, r := range results {
		for _, d := range r.diagnostics {
			res.Diagnostics = append(res.Diagnostics, d)
			res.Errors = append(res.Errors, d)
		}
		if r.err != nil {
			res.Errors = append(res.Errors, r.err)
		}
		for v, o := range r.outcomes {
			if o.Taint.IsClean() || !v.InStorage() {
				continue
			}
			f, ok := byVar[v]
			if !ok {
				f = &Finding{Contract: c, Variable: v, Function: o.Function, EntryPoint: r.entry.Name()}
				byVar[v] = f
				order = append(order, v)
			}
			f.Taint = f.Taint.Union(o.Taint)
		}
	}

	var findings []Finding
	for _, v := range order {
		f := byVar[v]
		loc, ok := layout.Location(v)
		if !ok {
			res.Errors = append(res.Errors, fmt.Errorf("%s: no storage location for %s", c.Name, v.CanonicalName()))
			continue
		}
		f.Location = loc
		if a.cfg.IsSuppressed(c.Name, f.Function, v.CanonicalName()) {
			a.logger.Debugf("suppressed finding on %s in %s", v.CanonicalName(), f.Function)
			continue
		}
		findings = append(findings, *f)
	}
	slices.SortStableFunc(findings, func(x, y Finding) bool {
		if x.Location.Slot != y.Location.Slot {
			return x.Location.Slot < y.Location.Slot
		}
		return x.Location.Offset < y.Location.Offset
	})
	return findings
}
