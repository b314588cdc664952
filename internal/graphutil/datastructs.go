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

import "github.com/awslabs/ar-sol-tools/internal/funcutil"

// Tree is a simple generic implementation of a tree. The analyses use it to record call paths: the path from the
// root to a node is the stack of active calls.
type Tree[T any] struct {
	Parent   *Tree[T]
	Children []*Tree[T]
	Label    T
	depth    int
}

// NewTree returns a new tree with the labels of the type provided
func NewTree[T any](rootLabel T) *Tree[T] {
	return &Tree[T]{Label: rootLabel}
}

// Label returns the label of the tree node
func Label[T any](t *Tree[T]) T {
	return t.Label
}

// AddChild adds a child with the label provided to the tree node and returns the child
func (t *Tree[T]) AddChild(label T) *Tree[T] {
	newChild := &Tree[T]{
		Parent: t,
		Label:  label,
		depth:  t.depth + 1,
	}
	t.Children = append(t.Children, newChild)
	return newChild
}

// Depth returns the distance from the root; the root has depth 0
func (t *Tree[T]) Depth() int {
	return t.depth
}

// Ancestors returns the n last ancestors of the node, including itself, from the most distant one. If n is
// negative, the path from the root is returned.
func (t *Tree[T]) Ancestors(n int) []*Tree[T] {
	var ans []*Tree[T]
	cur := t
	i := 0
	for cur != nil && (i < n || n < 0) {
		ans = append(ans, cur)
		cur = cur.Parent
		i++
	}
	funcutil.Reverse(ans)
	return ans
}

// Path returns the labels from the root to the node
func (t *Tree[T]) Path() []T {
	return funcutil.Map(t.Ancestors(-1), Label[T])
}

// HasAncestor returns true if the node or one of its ancestors satisfies f
func (t *Tree[T]) HasAncestor(f func(T) bool) bool {
	for cur := t; cur != nil; cur = cur.Parent {
		if f(cur.Label) {
			return true
		}
	}
	return false
}
