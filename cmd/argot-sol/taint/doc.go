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
/*
Package taint implements the front-end to the tainted-storage tool which reports the storage variables of
contracts whose value depends on gas, fee or deployment sources.

Usage:

	argot-sol taint [flags] contract.yaml|ast.json|Contract.sol...

The flags are:

	-config path      a path to the configuration file containing the options and the taint problem

	-verbose=false    setting verbose mode, overrides config file options if set

	-solc path        the compiler used to build the ASTs of .sol inputs

	-json path        write the findings as JSON in path, - for the standard output

	-db path          record the findings in a SQLite database and report the variables that are newly tainted
*/
package taint
