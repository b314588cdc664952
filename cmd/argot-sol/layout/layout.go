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
// Package layout implements the front-end printing the storage layout of contracts.
package layout

import (
	"context"
	"fmt"
	"os"

	"github.com/awslabs/ar-sol-tools/analysis/config"
	"github.com/awslabs/ar-sol-tools/analysis/report"
	"github.com/awslabs/ar-sol-tools/analysis/storage"
	"github.com/awslabs/ar-sol-tools/analysis/taint"
	"github.com/awslabs/ar-sol-tools/cmd/argot-sol/tools"
)

const usage = ` Print the storage layout of the deployable contracts.
Usage:
  argot-sol layout [options] <file(s)>
Examples:
  % argot-sol layout Vault.sol
  % argot-sol layout -taint -config config.yaml out.json
`

// Flags represents the parsed flags for the layout command.
type Flags struct {
	tools.CommonFlags
	taint bool
}

// NewFlags returns the parsed flags for the layout command with args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("layout")
	withTaint := flags.FlagSet.Bool("taint", false, "run the tainted-storage analysis and highlight tainted variables")
	tools.SetUsage(flags.FlagSet, usage)
	if err := flags.FlagSet.Parse(args); err != nil {
		return Flags{}, fmt.Errorf("failed to parse command layout with args %v: %w", args, err)
	}
	return Flags{CommonFlags: flags.Parsed(), taint: *withTaint}, nil
}

// Run prints the layouts of the contracts of the inputs of flags
func Run(flags Flags) error {
	cfg, err := tools.LoadConfig(flags.ConfigPath)
	if err != nil {
		return err
	}
	if flags.Verbose {
		cfg.LogLevel = int(config.DebugLevel)
	}
	logger := config.NewLogGroup(cfg)
	inputs, err := tools.LoadInputs(context.Background(), flags.SolcPath, flags.FlagSet.Args())
	if err != nil {
		return err
	}
	for _, input := range inputs {
		tainted := map[string]bool{}
		if flags.taint {
			res, err := taint.AnalyzeWithLogger(logger, cfg, input.Program)
			if err != nil {
				return fmt.Errorf("taint analysis of %s failed: %w", input.Path, err)
			}
			for _, f := range res.Findings {
				tainted[f.Variable.CanonicalName()] = true
			}
		}
		for _, c := range input.Program.Derived() {
			if !cfg.MatchContractFilter(c.Name) {
				continue
			}
			if err := report.WriteLayout(os.Stdout, storage.Compute(c), tainted); err != nil {
				return err
			}
			fmt.Println()
		}
	}
	return nil
}
