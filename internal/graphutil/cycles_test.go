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

package graphutil_test

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/awslabs/ar-sol-tools/internal/funcutil"
	"github.com/awslabs/ar-sol-tools/internal/graphutil"
	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph/topo"
)

// testGraph builds a graph with n nodes labelled f0..fn-1
func testGraph(n int, edges [][2]int64) graphutil.CGraph {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("f%d", i)
	}
	g := graphutil.NewCGraph(labels)
	for _, e := range edges {
		g.AddEdge(e[0], e[1])
	}
	return g
}

func cycleStrings(cycles [][]int64) []string {
	results := funcutil.Map(cycles, func(cycle []int64) string {
		return strings.Join(funcutil.Map(cycle, func(x int64) string { return strconv.Itoa(int(x)) }), "")
	})
	sort.Strings(results)
	return results
}

func TestFindAllElementaryCycles(t *testing.T) {
	g := testGraph(11, [][2]int64{
		{0, 1}, {1, 2}, {2, 4}, {4, 2}, {2, 5}, {5, 10}, {10, 2}, {2, 6}, {6, 4},
		{3, 8}, {8, 3}, {3, 9}, {9, 8}, {7, 7}, {0, 3},
	})
	stats := graph.Check(g)
	t.Logf("Stats:\n\tsize: %d\n\tmulti: %d\n\tloops: %d\n\tisolated: %d",
		stats.Size, stats.Multi, stats.Loops, stats.Isolated)
	if stats.Loops != 1 {
		t.Errorf("expected one self-loop, got %d", stats.Loops)
	}

	results := cycleStrings(graphutil.FindAllElementaryCycles(g))
	expected := []string{"242", "25102", "2642", "383", "3983", "77"}
	if !slices.Equal(results, expected) {
		for i, s := range results {
			t.Logf("Cycle %d: %s", i, s)
		}
		t.Fatalf("Cycles not as expected, got %v", results)
	}
}

func TestFindCyclesSeparateComponents(t *testing.T) {
	// two components, the second one with a least node that would be skipped by processing components out of order
	g := testGraph(7, [][2]int64{
		{0, 1}, {1, 2}, {2, 0}, {1, 0},
		{4, 5}, {5, 4}, {5, 6}, {6, 5},
	})
	results := cycleStrings(graphutil.FindAllElementaryCycles(g))
	expected := []string{"010", "0120", "454", "565"}
	if !slices.Equal(results, expected) {
		t.Fatalf("Cycles not as expected, got %v", results)
	}
}

func TestAcyclic(t *testing.T) {
	g := testGraph(4, [][2]int64{{0, 1}, {1, 2}, {0, 2}, {2, 3}})
	if cycles := graphutil.FindAllElementaryCycles(g); len(cycles) != 0 {
		t.Errorf("expected no cycles, got %v", cycles)
	}
	if !graph.Acyclic(g) {
		t.Errorf("yourbasic reports a cycle in an acyclic graph")
	}
	order, err := topo.Sort(g)
	if err != nil {
		t.Fatalf("topological sort failed: %v", err)
	}
	if len(order) != 4 || order[0].ID() != 0 || order[3].ID() != 3 {
		t.Errorf("unexpected order %v", order)
	}
}

func TestGonumInterface(t *testing.T) {
	g := testGraph(4, [][2]int64{{0, 1}, {1, 0}, {1, 2}})
	sccs := topo.TarjanSCC(g)
	if len(sccs) != 3 {
		t.Fatalf("expected 3 components, got %d", len(sccs))
	}
	nodes := g.Nodes()
	n := 0
	for nodes.Next() {
		if nodes.Node().ID() != int64(n) {
			t.Errorf("node %d: unexpected id %d", n, nodes.Node().ID())
		}
		n++
	}
	if n != 4 {
		t.Errorf("iterator visited %d nodes, expected 4", n)
	}
	if !g.HasEdgeBetween(2, 1) || g.HasEdgeFromTo(2, 1) {
		t.Errorf("edge between 1 and 2 should be directed from 1 to 2")
	}
	if to := g.To(0); to.Len() != 1 {
		t.Errorf("expected one predecessor of 0, got %d", to.Len())
	}
	if g.Edge(1, 2).To().(graphutil.CNode).String() != "f2" {
		t.Errorf("unexpected edge target label")
	}
	if g.Node(10) != nil {
		t.Errorf("expected nil for a node outside the graph")
	}
}
