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

package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

//go:embed testdata
var testfsys embed.FS

func checkEqualOnNonEmptyFields(t *testing.T, cid1 CodeIdentifier, cid2 CodeIdentifier) {
	cid2c := CompileRegexes(cid2)
	if !cid1.equalOnNonEmptyFields(cid2c) {
		t.Errorf("%v should be equal modulo empty fields to %v", cid1, cid2)
	}
}

func checkNotEqualOnNonEmptyFields(t *testing.T, cid1 CodeIdentifier, cid2 CodeIdentifier) {
	cid2c := CompileRegexes(cid2)
	if cid1.equalOnNonEmptyFields(cid2c) {
		t.Errorf("%v should not be equal modulo empty fields to %v", cid1, cid2)
	}
}

func TestCodeIdentifier_equalOnNonEmptyFields_selfEquals(t *testing.T) {
	cid1 := CodeIdentifier{Contract: "Vault", Variable: "owner"}
	checkEqualOnNonEmptyFields(t, cid1, cid1)
}

func TestCodeIdentifier_equalOnNonEmptyFields_emptyMatchesAny(t *testing.T) {
	cid1 := CodeIdentifier{Contract: "A", Function: "f", Variable: "x"}
	cid2 := CodeIdentifier{Contract: "Other", Function: "g()", Variable: "y"}
	checkEqualOnNonEmptyFields(t, cid1, CodeIdentifier{})
	checkEqualOnNonEmptyFields(t, cid2, CodeIdentifier{})
}

func TestCodeIdentifier_equalOnNonEmptyFields_oneDiff(t *testing.T) {
	cid1 := CodeIdentifier{Contract: "A", Function: "f"}
	cid2 := CodeIdentifier{Contract: "A"}
	checkEqualOnNonEmptyFields(t, cid1, cid2)
	checkNotEqualOnNonEmptyFields(t, cid2, cid1)
}

func TestCodeIdentifier_equalOnNonEmptyFields_regexes(t *testing.T) {
	cid1 := CodeIdentifier{Contract: "GasMeter", Variable: "lastExecGas"}
	cid1bis := CodeIdentifier{Contract: "Vault", Variable: "lastGasUsed"}
	cid2 := CodeIdentifier{Contract: "(GasMeter)|(Vault)$", Variable: "^last"}
	checkEqualOnNonEmptyFields(t, cid1, cid2)
	checkEqualOnNonEmptyFields(t, cid1bis, cid2)
	checkNotEqualOnNonEmptyFields(t, CodeIdentifier{Contract: "Vault", Variable: "owner"}, cid2)
}

func loadFromTestDir(filename string) (string, *Config, error) {
	filename = filepath.Join("testdata", filename)
	b, err := testfsys.ReadFile(filename)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read file %v: %v", filename, err)
	}
	config, err := LoadFromBytes(filename, b)
	if err != nil {
		return filename, nil, fmt.Errorf("failed to load file %v: %v", filename, err)
	}
	return filename, config, err
}

func testLoadOneFile(t *testing.T, filename string, expected Config) {
	configFileName, config, err := loadFromTestDir(filename)
	if err != nil {
		t.Fatalf("Error loading %q: %v", configFileName, err)
	}
	c1, err1 := yaml.Marshal(config)
	c2, err2 := yaml.Marshal(expected)
	if err1 != nil {
		t.Errorf("Error marshalling %v", config)
	}
	if err2 != nil {
		t.Errorf("Error marshalling %v", expected)
	}
	if string(c1) != string(c2) {
		t.Errorf("Error in %q:\n%q is not\n%q\n", filename, c1, c2)
	}
}

func TestNewDefault(t *testing.T) {
	c := NewDefault()
	if c.ContractFilter != "" {
		t.Errorf("Default for ContractFilter should be empty")
	}
	if !c.MatchContractFilter("Anything") {
		t.Errorf("Default contract filter should match any contract")
	}
	if !c.IsGuard("require") || !c.IsGuard("assert") {
		t.Errorf("Default guards should be require and assert")
	}
	if !c.IsPropagator("keccak256") || !c.IsPropagator("abi.encodePacked") {
		t.Errorf("Default propagators should include hashing and encoding builtins")
	}
	if c.IsPropagator("blockhash") {
		t.Errorf("blockhash should not be a default propagator")
	}
	if c.IsSuppressed("A", "f()", "x") {
		t.Errorf("Default config should not suppress findings")
	}
	if c.ExceedsMaxDepth(DefaultMaxCallDepth) || !c.ExceedsMaxDepth(DefaultMaxCallDepth+1) {
		t.Errorf("ExceedsMaxDepth should compare against the default depth")
	}
}

func TestLoadNonExistentFileReturnsError(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "does-not-exist.yaml"))
	if c != nil || err == nil {
		t.Errorf("Expected error and nil value when trying to load non existent file.")
	}
}

func TestLoadBadFormatFileReturnsError(t *testing.T) {
	_, config, err := loadFromTestDir("bad_format.yaml")
	if config != nil || err == nil {
		t.Errorf("Expected error and nil value when trying to load a badly formatted file.")
	}
}

func TestLoadWithReportNoDirReturnsError(t *testing.T) {
	_, config, err := loadFromTestDir("config_with_reports_bad_dir.yaml")
	if config != nil || err == nil {
		t.Errorf("Expected error and nil value when trying to load config with a report dir that has a non-existing" +
			"directory name")
	}
}

func TestLoadMisc(t *testing.T) {
	expected := NewDefault()
	expected.MaxDepth = 12
	expected.TaintedStorage.Guards = []string{"require"}
	testLoadOneFile(t, "config.yaml", *expected)
}

//gocyclo:ignore
func TestLoadFullConfig(t *testing.T) {
	fileName, config, err := loadFromTestDir("full-config.yaml")
	if config == nil || err != nil {
		t.Fatalf("Could not load %s: %v", fileName, err)
	}
	defer os.Remove(config.ReportsDir)
	if config.LogLevel != int(TraceLevel) {
		t.Error("full config should have set trace")
	}
	if !config.Verbose() {
		t.Error("full config should be verbose")
	}
	if !config.ReportJSON {
		t.Error("full config should have set report-json")
	}
	if config.MaxDepth != 42 {
		t.Error("full config should set max-depth to 42")
	}
	if config.MaxLoopIterations != 3 {
		t.Error("full config should set max-loop-iterations to 3")
	}
	if config.MaxAlarms != 16 {
		t.Error("full config should set MaxAlarms to 16")
	}
	if config.NumRoutines != 4 {
		t.Error("full config should set num-routines to 4")
	}
	if !config.SilenceWarn {
		t.Error("full config should have silence-warn set to true")
	}
	if !config.MatchContractFilter("VaultV2") || !config.MatchContractFilter("GasMeter") {
		t.Error("full config contract filter should match Vault and Gas contracts")
	}
	if config.MatchContractFilter("Ownable") {
		t.Error("full config contract filter should not match Ownable")
	}
	if len(config.TaintedStorage.Sources) != 2 {
		t.Error("full config should specify two sources")
	}
	if !config.IsGuard("revertIf") || config.IsPropagator("sha256") {
		t.Error("full config should override guards and propagators")
	}
	if !config.IsSuppressed("Vault", "Vault.deposit()", "lastGasUsed") {
		t.Error("full config should suppress Vault.lastGasUsed")
	}
	if config.IsSuppressed("Vault", "Vault.deposit()", "owner") {
		t.Error("full config should not suppress Vault.owner")
	}
	// the second identifier is not a regex and is compared as a string
	if !config.IsSuppressed("Any", "[(", "x") {
		t.Error("an identifier that does not compile should match literally")
	}
}
