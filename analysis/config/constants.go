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

const (
	// DefaultMaxCallDepth is the default ceiling on the internal call depth explored from one entry point.
	DefaultMaxCallDepth = 64
	// DefaultMaxLoopIterations bounds the number of times a loop body is re-walked before the analysis
	// assumes its taint has stabilized.
	DefaultMaxLoopIterations = 8
	// DefaultNumRoutines is the number of entry points analyzed concurrently
	DefaultNumRoutines = 1
)

// DefaultGuards are the builtins that abort execution without introducing a branch body.
var DefaultGuards = []string{"require", "assert"}

// DefaultPropagators are the builtins whose result carries the union of their arguments' taint.
var DefaultPropagators = []string{
	"keccak256",
	"sha256",
	"ripemd160",
	"ecrecover",
	"addmod",
	"mulmod",
	"abi.encode",
	"abi.encodePacked",
	"abi.encodeWithSelector",
	"abi.encodeWithSignature",
	"abi.encodeCall",
	"abi.decode",
	"bytes.concat",
	"string.concat",
}
