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
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/awslabs/ar-sol-tools/internal/funcutil"
	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config contains the options of the analyzer and the specification of the tainted-storage problem.
// If some field is not defined in the config file, it will keep its default value.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:"options"`

	sourceFile string

	// if the ContractFilter is specified
	contractFilterRegex *regexp.Regexp

	// TaintedStorage specifies the sources, guards and propagators of the tainted-storage analysis
	TaintedStorage TaintedStorageSpec `yaml:"tainted-storage"`
}

// TaintedStorageSpec configures which expressions are sources, which builtins are guards and which builtins
// propagate the taint of their arguments.
type TaintedStorageSpec struct {
	// Sources lists the enabled sources, by tag name (GAS_REMAINING) or display name (gasleft()).
	// An empty list enables every source.
	Sources []string `yaml:"sources"`

	// Guards lists the builtins that abort execution without opening a branch scope
	Guards []string `yaml:"guards"`

	// Propagators lists the builtins whose result is the union of the taint of their arguments. Other builtins
	// return clean values.
	Propagators []string `yaml:"propagators"`

	// Suppress lists code identifiers of findings that must not be reported
	Suppress []CodeIdentifier `yaml:"suppress"`
}

// Options contains the global options of the analyzer
type Options struct {
	// ReportsDir is the directory where all the reports will be stored. If the yaml config file does not specify a
	// ReportsDir but sets ReportJSON to true, then ReportsDir will be created next to the config file.
	ReportsDir string `yaml:"reports-dir"`

	// ReportJSON specifies whether the findings should also be written as a JSON file in the reports directory
	ReportJSON bool `yaml:"report-json"`

	// ContractFilter restricts the analysis to the derived contracts whose name matches the filter
	ContractFilter string `yaml:"contract-filter"`

	// MaxDepth sets a limit for the internal call depth explored from an entry point.
	// If provided MaxDepth is <= 0, then the default is used.
	MaxDepth int `yaml:"max-depth"`

	// MaxLoopIterations bounds the number of passes over a loop body
	MaxLoopIterations int `yaml:"max-loop-iterations"`

	// MaxAlarms sets a limit for the number of findings reported. If MaxAlarms > 0, then at most MaxAlarms will be
	// reported. Otherwise, if MaxAlarms <= 0, it is ignored.
	MaxAlarms int `yaml:"max-alarms"`

	// NumRoutines is the number of entry points analyzed in parallel
	NumRoutines int `yaml:"num-routines"`

	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// Suppress warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns a default config.
func NewDefault() *Config {
	return &Config{
		sourceFile: "",
		TaintedStorage: TaintedStorageSpec{
			Sources:     nil,
			Guards:      append([]string{}, DefaultGuards...),
			Propagators: append([]string{}, DefaultPropagators...),
			Suppress:    nil,
		},
		Options: Options{
			ReportsDir:        "",
			ReportJSON:        false,
			ContractFilter:    "",
			MaxDepth:          DefaultMaxCallDepth,
			MaxLoopIterations: DefaultMaxLoopIterations,
			MaxAlarms:         0,
			NumRoutines:       DefaultNumRoutines,
			LogLevel:          int(InfoLevel),
			SilenceWarn:       false,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return LoadFromBytes(filename, b)
}

// LoadFromBytes parses the configuration in b. The filename is used to resolve relative paths and the reports
// directory.
func LoadFromBytes(filename string, b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}

	cfg.sourceFile = filename

	if cfg.ReportJSON {
		if err := setReportsDir(cfg, filename); err != nil {
			return nil, err
		}
	}

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxCallDepth
	}

	if cfg.MaxLoopIterations <= 0 {
		cfg.MaxLoopIterations = DefaultMaxLoopIterations
	}

	if cfg.NumRoutines <= 0 {
		cfg.NumRoutines = DefaultNumRoutines
	}

	if cfg.ContractFilter != "" {
		r, err := regexp.Compile(cfg.ContractFilter)
		if err == nil {
			cfg.contractFilterRegex = r
		}
	}

	cfg.TaintedStorage.Suppress = funcutil.Map(cfg.TaintedStorage.Suppress, CompileRegexes)

	return cfg, nil
}

func setReportsDir(c *Config, filename string) error {
	if c.ReportsDir == "" {
		tmpdir, err := os.MkdirTemp(path.Dir(filename), "*-report")
		if err != nil {
			return fmt.Errorf("could not create temp dir for reports: %w", err)
		}
		c.ReportsDir = tmpdir
	} else {
		err := os.Mkdir(c.ReportsDir, 0750)
		if err != nil {
			if !os.IsExist(err) {
				return fmt.Errorf("could not create directory %s", c.ReportsDir)
			}
		}
	}
	return nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// MatchContractFilter returns true if the contract name matches the contract filter set in the config file. If no
// filter has been set, it returns true. A filter that could not be compiled to a regex is used as a prefix.
func (c Config) MatchContractFilter(name string) bool {
	if c.contractFilterRegex != nil {
		return c.contractFilterRegex.MatchString(name)
	} else if c.ContractFilter != "" {
		return strings.HasPrefix(name, c.ContractFilter)
	} else {
		return true
	}
}

// Below are functions used to query the configuration on specific facts

// IsGuard returns true if the builtin name is configured as a guard
func (c Config) IsGuard(name string) bool {
	return funcutil.Contains(c.TaintedStorage.Guards, name)
}

// IsPropagator returns true if the builtin name is configured as a taint propagator
func (c Config) IsPropagator(name string) bool {
	return funcutil.Contains(c.TaintedStorage.Propagators, name)
}

// IsSuppressed returns true if a finding on variable, decided in function of contract, matches any of the
// suppression identifiers.
func (c Config) IsSuppressed(contract string, function string, variable string) bool {
	cid := CodeIdentifier{Contract: contract, Function: function, Variable: variable}
	return funcutil.Exists(c.TaintedStorage.Suppress, cid.equalOnNonEmptyFields)
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}

// ExceedsMaxDepth returns true if the input exceeds the maximum depth parameter of the configuration.
// (if the configuration setting is <= 0, then this returns false)
func (c Config) ExceedsMaxDepth(d int) bool {
	if c.MaxDepth <= 0 {
		return false
	}
	return d > c.MaxDepth
}
