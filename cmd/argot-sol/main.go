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
package main

import (
	"fmt"
	"os"

	"github.com/awslabs/ar-sol-tools/cmd/argot-sol/layout"
	"github.com/awslabs/ar-sol-tools/cmd/argot-sol/taint"
	"github.com/awslabs/ar-sol-tools/cmd/argot-sol/tools"
)

const usage = `Argot-sol: Automated Reasoning Solidity Tools
Usage:
  argot-sol [tool] [options] <file path(s)>
Inputs:
  .yaml/.yml programs, .json compiler outputs with ASTs, .sol sources compiled with solc
Tools:
  - taint: reports the storage variables tainted by gas, fee and deployment sources
  - layout: prints the storage layout of the deployable contracts
Examples:
  Run the tainted-storage analysis: argot-sol taint --config=config.yaml Vault.sol
  Print the storage layout: argot-sol layout -taint Vault.sol`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	// hardcode help flag
	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	// hardcode version flag
	if snd := os.Args[1]; snd == "-version" || snd == "--version" {
		fmt.Println(tools.Version)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "taint":
		flags, err := taint.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := taint.Run(flags); err != nil {
			errExit(err)
		}
	case "layout":
		flags, err := layout.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := layout.Run(flags); err != nil {
			errExit(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
		fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
		os.Exit(2)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	hint := tools.HintForErrorMessage(err.Error())
	if hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(2)
}
