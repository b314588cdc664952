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
	"testing"

	"golang.org/x/exp/slices"
)

func TestTreePath(t *testing.T) {
	root := NewTree("deposit")
	a := root.AddChild("_record")
	b := a.AddChild("_hash")
	root.AddChild("_other")

	if b.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", b.Depth())
	}
	if p := b.Path(); !slices.Equal(p, []string{"deposit", "_record", "_hash"}) {
		t.Errorf("unexpected path %v", p)
	}
	if n := len(b.Ancestors(2)); n != 2 {
		t.Errorf("expected 2 ancestors, got %d", n)
	}
	if !b.HasAncestor(func(s string) bool { return s == "_record" }) {
		t.Errorf("_record should be an ancestor of _hash")
	}
	if b.HasAncestor(func(s string) bool { return s == "_other" }) {
		t.Errorf("_other should not be an ancestor of _hash")
	}
	if len(root.Children) != 2 {
		t.Errorf("expected 2 children, got %d", len(root.Children))
	}
}
