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
package funcutil

import (
	"strconv"
	"sync/atomic"
	"testing"

	"golang.org/x/exp/slices"
)

func TestMapParallelKeepsOrder(t *testing.T) {
	var a []int
	for i := 0; i < 100; i++ {
		a = append(a, i)
	}
	for _, n := range []int{0, 1, 4, 200} {
		var calls int32
		res := MapParallel(a, func(x int) string {
			atomic.AddInt32(&calls, 1)
			return strconv.Itoa(x * 2)
		}, n)
		if len(res) != len(a) || calls != int32(len(a)) {
			t.Fatalf("%d routines: got %d results for %d calls", n, len(res), calls)
		}
		for i, r := range res {
			if r != strconv.Itoa(i*2) {
				t.Fatalf("%d routines: result %d is %s", n, i, r)
			}
		}
	}
	if res := MapParallel([]int{}, strconv.Itoa, 4); len(res) != 0 {
		t.Errorf("expected no result, got %v", res)
	}
}

func TestSliceHelpers(t *testing.T) {
	a := []string{"a", "b", "c"}
	if got := Map(a, func(s string) string { return s + s }); !slices.Equal(got, []string{"aa", "bb", "cc"}) {
		t.Errorf("Map: got %v", got)
	}
	if !Contains(a, "b") || Contains(a, "d") {
		t.Errorf("Contains is wrong on %v", a)
	}
	if Exists(a, func(s string) bool { return len(s) > 1 }) {
		t.Errorf("Exists: no element of %v is longer than 1", a)
	}
	Reverse(a)
	if !slices.Equal(a, []string{"c", "b", "a"}) {
		t.Errorf("Reverse: got %v", a)
	}
}
