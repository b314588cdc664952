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
Package taint implements the tainted-storage analysis: it reports the state variables of a contract whose value,
after some transaction, depends on a quantity that is not fixed by the program text, such as the remaining gas,
the gas price, the balance of the caller or the address of a contract created with a salt.

The analysis walks each entry point of a derived contract (its deployment and its externally callable functions)
with a private environment. Expressions are evaluated to sets of source tags. Writes to state are recorded as
events carrying the tags of the written value and of the conditions of the enclosing branches; a later write of
the whole variable in the same branch scope supersedes earlier events. Internal calls and modifiers are walked in
place, so the state written by a callee is seen by the rest of the transaction.

Guards (require, assert) do not open branch scopes: a condition that only aborts the transaction does not taint
the writes that follow it. Values written by other transactions are not followed.
*/
package taint
