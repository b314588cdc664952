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
Package ir defines the representation of Solidity programs consumed by the analyses: contracts with their state
variables, functions and modifiers, and function bodies as trees of statements and expressions with resolved
identifiers.

Expressions and statements are closed sets of variants; analyses switch over the concrete types.

Programs are produced by a front end. This package provides a loader for a compact yaml notation, used mostly in
tests:

	contracts:
	  - name: Meter
	    inherits: [Ownable]
	    state:
	      - uint256 lastGas
	      - mapping(address => uint256) perUser
	    functions:
	      - name: record
	        params: [uint256 amount]
	        modifiers: [onlyOwner]
	        body:
	          - let: [uint256 g, gasleft()]
	          - if: {bin: [g, ">", amount]}
	            then:
	              - assign: [lastGas, g]
	          - assign: ["perUser[msg.sender]", "+=", amount]

Scalars are literals, environment reads (gasleft(), msg.sender, block.basefee), identifiers, or simple member,
index and call expressions (keccak256(x), balances[msg.sender], address(this)). Operators use the structured forms
bin, un and cond; see the loader sources for the complete list of forms.

The solc package provides the front end for the compiler's JSON AST.
*/
package ir
