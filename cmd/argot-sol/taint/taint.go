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
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/awslabs/ar-sol-tools/analysis/config"
	"github.com/awslabs/ar-sol-tools/analysis/report"
	"github.com/awslabs/ar-sol-tools/analysis/taint"
	"github.com/awslabs/ar-sol-tools/cmd/argot-sol/tools"
	"github.com/awslabs/ar-sol-tools/internal/formatutil"
)

const usage = ` Find storage variables tainted by gas, fee and deployment sources.
Usage:
  argot-sol taint [options] <file(s)>
Examples:
  % argot-sol taint -config config.yaml Vault.sol
  % argot-sol taint -json findings.json out.json
`

// Flags represents the parsed flags for the tainted-storage analysis.
type Flags struct {
	tools.CommonFlags
	jsonPath string
	dbPath   string
}

// NewFlags returns the parsed flags for the tainted-storage analysis with args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("taint")
	jsonPath := flags.FlagSet.String("json", "", "write the findings as JSON in this file, - for stdout")
	dbPath := flags.FlagSet.String("db", "", "record the findings in this SQLite database")
	tools.SetUsage(flags.FlagSet, usage)
	if err := flags.FlagSet.Parse(args); err != nil {
		return Flags{}, fmt.Errorf("failed to parse command taint with args %v: %w", args, err)
	}
	return Flags{
		CommonFlags: flags.Parsed(),
		jsonPath:    *jsonPath,
		dbPath:      *dbPath,
	}, nil
}

// Run runs the tainted-storage analysis with flags.
func Run(flags Flags) error {
	logger := log.New(os.Stdout, "", log.Flags())

	cfg, err := tools.LoadConfig(flags.ConfigPath)
	if err != nil {
		return err
	}
	// Override config parameters with command-line parameters
	if flags.Verbose {
		cfg.LogLevel = int(config.DebugLevel)
	}
	out := io.Writer(os.Stdout)
	if flags.jsonPath == "-" {
		// the standard output only holds the JSON document
		out = io.Discard
		cfg.LogLevel = int(config.ErrLevel)
		formatutil.SetColors(false)
	} else {
		logger.Println(formatutil.Faint("Argot tainted-storage tool - " + tools.Version))
		logger.Println(formatutil.Faint("Reading sources"))
	}

	inputs, err := tools.LoadInputs(context.Background(), flags.SolcPath, flags.FlagSet.Args())
	if err != nil {
		return err
	}

	var store *report.Store
	if flags.dbPath != "" {
		store, err = report.OpenStore(flags.dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	logGroup := config.NewLogGroup(cfg)
	var all []taint.Finding
	var failed []string
	start := time.Now()
	for _, input := range inputs {
		result, err := taint.AnalyzeWithLogger(logGroup, cfg, input.Program)
		if err != nil {
			return fmt.Errorf("taint analysis of %s failed: %w", input.Path, err)
		}
		for _, err := range result.Errors {
			logGroup.Debugf("%s: %v", input.Path, err)
		}
		if len(inputs) > 1 {
			fmt.Fprintln(out, formatutil.Bold(input.Path))
		}
		if err := report.WriteText(out, result.Findings); err != nil {
			return err
		}
		if flags.Verbose {
			if err := report.WriteDiagnostics(out, result.Diagnostics); err != nil {
				return err
			}
			for _, c := range input.Program.Derived() {
				if g, ok := result.CallGraphs[c]; ok {
					if err := report.WriteCallGraph(out, g); err != nil {
						return err
					}
				}
			}
		}
		if store != nil {
			if err := record(store, logGroup, input.Path, result.Findings); err != nil {
				return err
			}
		}
		if len(result.Errors) > len(result.Diagnostics) {
			failed = append(failed, input.Path)
		}
		all = append(all, result.Findings...)
		logGroup.Infof("%s", report.Summary(result))
	}
	logGroup.Infof("")
	logGroup.Infof("%s", strings.Repeat("*", 80))
	logGroup.Infof("Analysis took %3.4f s", time.Since(start).Seconds())
	logGroup.Infof("")
	if len(all) == 0 {
		logGroup.Infof("RESULT:\n\t\t%s", formatutil.Green("No tainted storage variable ✓")) // safe %s
	} else {
		logGroup.Errorf("RESULT:\n\t\t%s", formatutil.Red("Tainted storage variables detected!")) // safe %s
	}
	if len(failed) > 0 {
		logGroup.Warnf("some entry points or layouts could not be analyzed in %s", strings.Join(failed, ", "))
	}

	if err := writeJSON(flags.jsonPath, all); err != nil {
		return err
	}
	if _, err := report.WriteReport(cfg, logGroup, all); err != nil {
		return err
	}
	return nil
}

// record saves the findings of input in the store and logs the variables that were not tainted in the previous
// run on the same input
func record(store *report.Store, logGroup *config.LogGroup, input string, findings []taint.Finding) error {
	prev, err := store.LastRun(input)
	if err != nil {
		return err
	}
	run, err := store.Save(input, findings)
	if err != nil {
		return err
	}
	if prev == nil {
		logGroup.Infof("first recorded run on %s (run %d)", input, run.ID)
		return nil
	}
	for _, v := range report.NewVariables(prev, run) {
		logGroup.Warnf("%s is newly tainted since run %d", v, prev.ID)
	}
	return nil
}

func writeJSON(path string, findings []taint.Finding) error {
	switch path {
	case "":
		return nil
	case "-":
		return report.WriteJSON(os.Stdout, findings)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	defer f.Close()
	return report.WriteJSON(f, findings)
}
