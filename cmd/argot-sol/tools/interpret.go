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
package tools

import "regexp"

// Captures errors happening before any analysis starts (program could not load)
var regexCouldNotLoad = regexp.MustCompile("could not load program")

// Captures the errors of running a compiler that is not installed
var compilerNotFound = regexp.MustCompile("executable file not found|no such file or directory")

// Captures the kind of error that happen when you put a flag at the end instead of the input files
var flagAfterInputs = regexp.MustCompile("-\\w+: unsupported input")

// Captures the errors of compiler outputs that do not contain ASTs
var missingAST = regexp.MustCompile("has no AST|no AST found|no source unit")

// HintForErrorMessage looks for specific error message and returns some other message that might help the user
// resolve the problem.
func HintForErrorMessage(errMsg string) string {
	if regexCouldNotLoad.MatchString(errMsg) {
		if flagAfterInputs.MatchString(errMsg) {
			return "all command line flags should be before the paths of the files to analyze"
		}
		if compilerNotFound.MatchString(errMsg) {
			return "install solc or give the path of the compiler with -solc"
		}
		if missingAST.MatchString(errMsg) {
			return "json inputs must be produced with solc --combined-json ast or --ast-compact-json"
		}
		return "make sure you have provided the right arguments for an analyzer to load a program"
	}
	return ""
}
