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
package solc

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/awslabs/ar-sol-tools/analysis/ir"
)

// DefaultCompiler is the compiler executable looked up in the PATH when none is given
const DefaultCompiler = "solc"

// Compile runs the compiler on the source file and builds the program from the ASTs of its output. Extra
// arguments, such as import remappings, are passed to the compiler before the file.
func Compile(ctx context.Context, solcPath string, file string, extraArgs ...string) (*ir.Program, error) {
	if solcPath == "" {
		solcPath = DefaultCompiler
	}
	args := append([]string{"--combined-json", "ast"}, extraArgs...)
	args = append(args, file)
	cmd := exec.CommandContext(ctx, solcPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed on %s: %w, stderr: %s", solcPath, file, err,
			strings.TrimSpace(stderr.String()))
	}
	prog, err := Decode(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return prog, nil
}
