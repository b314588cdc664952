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
// Package formatutil manipulates string colors and other formatting operations.
package report

import (
	"fmt"
	"io"

	"github.com/awslabs/ar-sol-tools/analysis/callgraph"
	"github.com/awslabs/ar-sol-tools/analysis/taint"
	"github.com/awslabs/ar-sol-tools/internal/formatutil"
)

// WriteCallGraph prints the size of the call graph of a contract and its elementary call cycles
func WriteCallGraph(w io.Writer, g *callgraph.Graph) error {
	stats := g.Stats()
	cycles := g.Cycles()
	_, err := fmt.Fprintf(w, "%s %s: %s, %s, %s\n", formatutil.Bold("call graph of"), g.Contract.Name,
		formatutil.Plural(len(g.Functions), "function"), formatutil.Plural(stats.Size, "call"),
		formatutil.Plural(len(cycles), "cycle"))
	if err != nil {
		return err
	}
	for _, cycle := range cycles {
		if _, err := fmt.Fprintf(w, "  %s %s\n", formatutil.Yellow("cycle"), taint.CycleString(cycle)); err != nil {
			return err
		}
	}
	return nil
}
