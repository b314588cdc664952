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

package config

import (
	"regexp"
)

// CodeIdentifier identifies a code element in a Solidity program: a contract, one of its functions, or one of its
// state variables. Empty fields match anything.
type CodeIdentifier struct {
	Contract string `yaml:"contract"`
	Function string `yaml:"function"`
	Variable string `yaml:"variable"`
	// This will not be part of the yaml config
	computedRegexs *codeIdentifierRegex
}

type codeIdentifierRegex struct {
	contractRegex *regexp.Regexp
	functionRegex *regexp.Regexp
	variableRegex *regexp.Regexp
}

// CompileRegexes compiles the strings in the code identifier into regexes. It compiles all identifiers into regexes
// or none.
func CompileRegexes(cid CodeIdentifier) CodeIdentifier {
	contractRegex, err := regexp.Compile(cid.Contract)
	if err != nil {
		return cid
	}
	functionRegex, err := regexp.Compile(cid.Function)
	if err != nil {
		return cid
	}
	variableRegex, err := regexp.Compile(cid.Variable)
	if err != nil {
		return cid
	}
	cid.computedRegexs = &codeIdentifierRegex{contractRegex, functionRegex, variableRegex}
	return cid
}

// equalOnNonEmptyFields returns true if each of the receiver's fields are either equal to (or matched by) the
// corresponding argument's field, or the argument's field is empty
func (cid CodeIdentifier) equalOnNonEmptyFields(cidRef CodeIdentifier) bool {
	if cidRef.computedRegexs != nil {
		return (cidRef.Contract == "" || cidRef.computedRegexs.contractRegex.MatchString(cid.Contract)) &&
			(cidRef.Function == "" || cidRef.computedRegexs.functionRegex.MatchString(cid.Function)) &&
			(cidRef.Variable == "" || cidRef.computedRegexs.variableRegex.MatchString(cid.Variable))
	}
	return (cidRef.Contract == "" || cid.Contract == cidRef.Contract) &&
		(cidRef.Function == "" || cid.Function == cidRef.Function) &&
		(cidRef.Variable == "" || cid.Variable == cidRef.Variable)
}
