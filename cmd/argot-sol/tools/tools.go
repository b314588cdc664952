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
// Package tools contains utility types and functions for the argot-sol tool frontends.
package tools

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/awslabs/ar-sol-tools/analysis/config"
	"github.com/awslabs/ar-sol-tools/analysis/ir"
	"github.com/awslabs/ar-sol-tools/analysis/solc"
	"golang.org/x/sync/errgroup"
)

// Version is the version of the tools
const Version = "v0.1.0"

// UnparsedCommonFlags represents an unparsed CLI sub-command flags.
type UnparsedCommonFlags struct {
	FlagSet    *flag.FlagSet
	ConfigPath *string
	Verbose    *bool
	SolcPath   *string
}

// NewUnparsedCommonFlags returns an unparsed flag set with a given name.
// This is useful for creating sub-commands that have the flags -config,
// -verbose and -solc but need other flags in addition.
func NewUnparsedCommonFlags(name string) UnparsedCommonFlags {
	cmd := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := cmd.String("config", "", "config file path for analysis")
	verbose := cmd.Bool("verbose", false, "verbose printing on standard output")
	solcPath := cmd.String("solc", solc.DefaultCompiler, "path of the solc compiler used for .sol inputs")
	return UnparsedCommonFlags{
		FlagSet:    cmd,
		ConfigPath: configPath,
		Verbose:    verbose,
		SolcPath:   solcPath,
	}
}

// CommonFlags represents a parsed CLI sub-command flags.
type CommonFlags struct {
	FlagSet    *flag.FlagSet
	ConfigPath string
	Verbose    bool
	SolcPath   string
}

// Parsed returns the values of the parsed flags
func (u UnparsedCommonFlags) Parsed() CommonFlags {
	return CommonFlags{
		FlagSet:    u.FlagSet,
		ConfigPath: *u.ConfigPath,
		Verbose:    *u.Verbose,
		SolcPath:   *u.SolcPath,
	}
}

// SetUsage sets cmd's usage (for --help flag) to output the string cmdUsage
// followed by each flag's documentation.
func SetUsage(cmd *flag.FlagSet, cmdUsage string) {
	cmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n", cmdUsage)
		fmt.Fprintf(os.Stderr, "Options:\n")
		cmd.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(os.Stderr, "  %s: %s (default: %q)\n", f.Name, f.Usage, f.DefValue)
		})
	}
}

// LoadConfig loads the config file from configPath. The default configuration is returned when configPath is
// empty.
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return config.NewDefault(), nil
	}
	config.SetGlobalConfig(configPath)
	cfg, err := config.LoadGlobal()
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// Input is a loaded input file
type Input struct {
	Path    string
	Program *ir.Program
}

// LoadInputs loads the programs of files concurrently. Programs are returned in the order of files.
//
// Files ending in .yaml or .yml hold a program in the yaml format, files ending in .json hold compiler outputs
// with ASTs and files ending in .sol are compiled with the compiler at solcPath.
func LoadInputs(ctx context.Context, solcPath string, files []string) ([]Input, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no input file")
	}
	inputs := make([]Input, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			prog, err := LoadInput(ctx, solcPath, file)
			if err != nil {
				return err
			}
			inputs[i] = Input{Path: file, Program: prog}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("could not load program: %w", err)
	}
	return inputs, nil
}

// LoadInput loads the program of one file
func LoadInput(ctx context.Context, solcPath string, file string) (*ir.Program, error) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return ir.LoadYAMLFile(file)
	case ".json":
		return solc.DecodeFile(file)
	case ".sol":
		return solc.Compile(ctx, solcPath, file)
	}
	return nil, fmt.Errorf("%s: unsupported input, expected a .yaml, .json or .sol file", file)
}
