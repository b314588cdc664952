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
package formatutil

import "testing"

func TestColorDisabled(t *testing.T) {
	SetColors(false)
	if got := Red("x", 1); got != "x1" {
		t.Errorf("expected plain text, got %q", got)
	}
	SetColors(true)
	defer SetColors(false)
	if got := Green("ok"); got != "\033[1;32mok\033[0m" {
		t.Errorf("expected colored text, got %q", got)
	}
}

func TestSanitizeAndPlural(t *testing.T) {
	if got := Sanitize("a\nb\033"); got != "a\\nb\\x1b" {
		t.Errorf("unexpected %q", got)
	}
	if Plural(1, "finding") != "1 finding" || Plural(3, "finding") != "3 findings" {
		t.Errorf("bad plural")
	}
}
