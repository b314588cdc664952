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

// Package analysistest loads test programs with their expected findings.
//
// A test is a txtar archive holding a contract.yaml program and an optional config.yaml. Expectations are written
// as line comments on the state variable declarations of the program:
//
//	state:
//	  - uint256 storedGas        # @Tainted(gasleft())
//	  - uint128 b                # @Tainted(gasleft()) @Slot(0, 16)
//	  - uint256 gasRefund        # @Tainted(gasleft()) @Function(Vault.withdraw(uint256))
//	  - uint256 clean
//
// A variable without @Tainted annotation must not be reported.
package analysistest

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/awslabs/ar-sol-tools/analysis/config"
	"github.com/awslabs/ar-sol-tools/analysis/ir"
	"golang.org/x/tools/txtar"
	"gopkg.in/yaml.v3"
)

const (
	programFile = "contract.yaml"
	configFile  = "config.yaml"
)

// LPos is a position in a test file
type LPos struct {
	Filename string
	Line     int
}

func (p LPos) String() string {
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

// Expectation is the expected finding on a state variable
type Expectation struct {
	// Variable is the canonical name of the variable, Contract.name
	Variable string
	// Sources are the expected source names, sorted as written
	Sources []string
	// Slot and Offset are checked when HasSlot is set
	HasSlot bool
	Slot    uint64
	Offset  int
	// Function is checked when not empty
	Function string
	Pos      LPos
}

// Test is a test program loaded from an archive
type Test struct {
	Name    string
	Program *ir.Program
	Config  *config.Config
	// Expected maps the canonical name of each variable expected to be reported to its expectation
	Expected map[string]Expectation
}

// LoadTests loads all the archives matching the glob pattern
func LoadTests(t *testing.T, pattern string) []*Test {
	files, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatalf("bad pattern %q: %v", pattern, err)
	}
	if len(files) == 0 {
		t.Fatalf("no test archive matches %q", pattern)
	}
	var tests []*Test
	for _, f := range files {
		tests = append(tests, LoadTest(t, f))
	}
	return tests
}

// LoadTest loads the archive filename. The test fails if the archive is malformed.
func LoadTest(t *testing.T, filename string) *Test {
	ar, err := txtar.ParseFile(filename)
	if err != nil {
		t.Fatalf("could not read archive %s: %v", filename, err)
	}
	test, err := ParseArchive(filename, ar)
	if err != nil {
		t.Fatalf("%v", err)
	}
	return test
}

// ParseArchive decodes the program, the configuration and the expectations of an archive
func ParseArchive(filename string, ar *txtar.Archive) (*Test, error) {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	test := &Test{Name: name, Config: config.NewDefault()}
	var src []byte
	for _, f := range ar.Files {
		switch f.Name {
		case programFile:
			src = f.Data
		case configFile:
			cfg, err := config.LoadFromBytes(filepath.Join(filepath.Dir(filename), configFile), f.Data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", filename, err)
			}
			test.Config = cfg
		default:
			return nil, fmt.Errorf("%s: unexpected file %s in archive", filename, f.Name)
		}
	}
	if src == nil {
		return nil, fmt.Errorf("%s: archive has no %s", filename, programFile)
	}
	prog, err := ir.ParseYAML(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	test.Program = prog
	test.Expected, err = ParseExpectations(name, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return test, nil
}

// ParseExpectations reads the annotations of the state variables of the yaml program src
func ParseExpectations(filename string, src []byte) (map[string]Expectation, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, err
	}
	res := map[string]Expectation{}
	if len(doc.Content) == 0 {
		return res, nil
	}
	contracts := mappingValue(doc.Content[0], "contracts")
	if contracts == nil {
		return res, nil
	}
	for _, c := range contracts.Content {
		nameNode := mappingValue(c, "name")
		state := mappingValue(c, "state")
		if nameNode == nil || state == nil {
			continue
		}
		for _, sv := range state.Content {
			comment := sv.LineComment
			decl := sv.Value
			if sv.Kind == yaml.MappingNode {
				if d := mappingValue(sv, "decl"); d != nil {
					decl = d.Value
					if comment == "" {
						comment = d.LineComment
					}
				}
			}
			if comment == "" {
				continue
			}
			e, ok, err := parseAnnotations(comment)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", sv.Line, err)
			}
			if !ok {
				continue
			}
			d, err := ir.ParseDecl(strings.TrimSpace(strings.SplitN(decl, " = ", 2)[0]), true)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", sv.Line, err)
			}
			e.Variable = nameNode.Value + "." + d.Name
			e.Pos = LPos{Filename: filename, Line: sv.Line}
			res[e.Variable] = e
		}
	}
	return res, nil
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// parseAnnotations returns the expectation described by a comment. ok is false if the comment has no @Tainted
// annotation.
func parseAnnotations(comment string) (e Expectation, ok bool, err error) {
	args, ok := annotationArgs(comment, "@Tainted")
	if !ok {
		return e, false, nil
	}
	e.Sources = splitArgs(args)
	if slot, found := annotationArgs(comment, "@Slot"); found {
		parts := splitArgs(slot)
		if len(parts) != 2 {
			return e, false, fmt.Errorf("@Slot expects (slot, offset), got (%s)", slot)
		}
		s, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return e, false, fmt.Errorf("bad slot %q", parts[0])
		}
		o, err := strconv.Atoi(parts[1])
		if err != nil {
			return e, false, fmt.Errorf("bad offset %q", parts[1])
		}
		e.HasSlot, e.Slot, e.Offset = true, s, o
	}
	if fn, found := annotationArgs(comment, "@Function"); found {
		e.Function = strings.TrimSpace(fn)
	}
	return e, true, nil
}

// annotationArgs returns the text between the parentheses following name. Parentheses nest, so that the
// arguments can be source names such as gasleft().
func annotationArgs(comment string, name string) (string, bool) {
	i := strings.Index(comment, name+"(")
	if i < 0 {
		return "", false
	}
	start := i + len(name) + 1
	depth := 1
	for j := start; j < len(comment); j++ {
		switch comment[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return comment[start:j], true
			}
		}
	}
	return "", false
}

func splitArgs(s string) []string {
	var res []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				if a := strings.TrimSpace(s[start:i]); a != "" {
					res = append(res, a)
				}
				start = i + 1
			}
		}
	}
	if a := strings.TrimSpace(s[start:]); a != "" {
		res = append(res, a)
	}
	return res
}
