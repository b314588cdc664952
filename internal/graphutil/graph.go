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

package graphutil

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
)

// CGraph is a directed graph over dense node ids 0..n-1 that can be used with existing graph libraries. It
// implements the methods to satisfy yourbasic's graph.Iterator and Gonum's graph.Directed
type CGraph struct {
	// Labels are the names of the nodes. The id of a node is its index in Labels.
	Labels []string

	// Keys are all the node ids in the graph, sorted
	Keys []int64

	// Edges is an adjacency matrix: Edges[x][y] means there is a directed edge from x to y
	Edges map[int64]map[int64]bool
}

// NewCGraph returns a graph with one node per label and no edges
func NewCGraph(labels []string) CGraph {
	keys := make([]int64, len(labels))
	edges := make(map[int64]map[int64]bool, len(labels))
	for i := range labels {
		keys[i] = int64(i)
		edges[int64(i)] = map[int64]bool{}
	}
	return CGraph{Labels: labels, Keys: keys, Edges: edges}
}

// AddEdge adds a directed edge from x to y
func (c CGraph) AddEdge(x, y int64) {
	if c.Edges[x] == nil {
		c.Edges[x] = map[int64]bool{}
	}
	c.Edges[x][y] = true
}

// Successors returns the sorted targets of the edges out of x
func (c CGraph) Successors(x int64) []int64 {
	succ := maps.Keys(c.Edges[x])
	slices.Sort(succ)
	return succ
}

// Subgraph returns a new graph that is the original graph with only the nodes in include. Only the edges that have
// both the origin and destination nodes in the include nodes are kept in the resulting graph.
// The subgraph's order and labels are the same as in origin, meaning that node indices will stay consistent
// across subgraphs.
func Subgraph(original CGraph, include []int64) CGraph {
	in := make(map[int64]bool, len(include))
	for _, i := range include {
		in[i] = true
	}
	keys := slices.Clone(include)
	slices.Sort(keys)
	edges := make(map[int64]map[int64]bool, len(include))
	for _, i := range keys {
		edges[i] = map[int64]bool{}
		for e := range original.Edges[i] {
			if in[e] {
				edges[i][e] = true
			}
		}
	}
	return CGraph{Labels: original.Labels, Keys: keys, Edges: edges}
}

// Order implements the order of the graph.Iterator interface for the CGraph
func (c CGraph) Order() int {
	return len(c.Labels)
}

// Visit implements the graph.Iterator interface for the CGraph
func (c CGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if _, ok := c.Edges[int64(v)]; !ok {
		return false
	}
	for _, w := range c.Successors(int64(v)) {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// *************** Graph interface implementation **********************

// Node implements the Graph interface. It returns nil if the node is not in the graph.
func (c CGraph) Node(id int64) graph.Node {
	if _, ok := c.Edges[id]; !ok {
		return nil
	}
	return c.node(id)
}

func (c CGraph) node(id int64) CNode {
	return CNode{id: id, label: c.Labels[id]}
}

// Nodes returns the set of nodes in the graph
func (c CGraph) Nodes() graph.Nodes {
	return c.nodeSet(c.Keys)
}

// From returns the set of nodes reachable from the id
func (c CGraph) From(id int64) graph.Nodes {
	return c.nodeSet(c.Successors(id))
}

// To returns the set of nodes that have an edge to id
func (c CGraph) To(id int64) graph.Nodes {
	var ids []int64
	for _, k := range c.Keys {
		if c.Edges[k][id] {
			ids = append(ids, k)
		}
	}
	return c.nodeSet(ids)
}

func (c CGraph) nodeSet(ids []int64) *NodeSet {
	nodes := make([]CNode, len(ids))
	for i, id := range ids {
		nodes[i] = c.node(id)
	}
	return &NodeSet{nodes: nodes, cur: -1}
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers
func (c CGraph) HasEdgeBetween(xid, yid int64) bool {
	return c.Edges[xid][yid] || c.Edges[yid][xid]
}

// HasEdgeFromTo returns whether there is a directed edge from uid to vid
func (c CGraph) HasEdgeFromTo(uid, vid int64) bool {
	return c.Edges[uid][vid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (c CGraph) Edge(uid, vid int64) graph.Edge {
	if c.Edges[uid][vid] {
		return CEdge{from: c.node(uid), to: c.node(vid)}
	}
	return nil
}

// *************** Nodes implementation **********************

// CNode is a labelled node that implements the graph.Node interface
type CNode struct {
	id    int64
	label string
}

// ID returns the id of the node
func (n CNode) ID() int64 {
	return n.id
}

func (n CNode) String() string {
	return n.label
}

// NodeSet implements the graph.Nodes interface, an iterator over a set of nodes
type NodeSet struct {
	nodes []CNode

	// cur is the current index of the iterator. The iterator starts before the first node.
	// invariant: -1 <= cur < len(nodes)
	cur int
}

// Next moves the current node to the next, and returns true if such a node exists. Otherwise, returns false
// and the current node has not changed.
func (ns *NodeSet) Next() bool {
	if ns.cur < len(ns.nodes)-1 {
		ns.cur++
		return true
	}
	return false
}

// Len returns the number of nodes remaining in the iterator
func (ns *NodeSet) Len() int {
	return len(ns.nodes) - ns.cur - 1
}

// Reset resets the iterator before its first node
func (ns *NodeSet) Reset() {
	ns.cur = -1
}

// Node return the current node in the set
func (ns *NodeSet) Node() graph.Node {
	if ns.cur < 0 || ns.cur >= len(ns.nodes) {
		return nil
	}
	return ns.nodes[ns.cur]
}

// *************** Edge implementation **********************

// CEdge implements the graph.Edge interface
type CEdge struct {
	from CNode
	to   CNode
}

// From returns the origin of the edge
func (e CEdge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge
func (e CEdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge
func (e CEdge) ReversedEdge() graph.Edge {
	return CEdge{from: e.to, to: e.from}
}
