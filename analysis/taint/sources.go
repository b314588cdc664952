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

package taint

import (
	"fmt"

	"github.com/awslabs/ar-sol-tools/analysis/config"
	"github.com/awslabs/ar-sol-tools/analysis/ir"
)

// envSources maps the environment reads that are sources to their tag
var envSources = map[string]Tag{
	"gasleft()":         GasRemaining,
	"msg.gas":           GasRemaining,
	"tx.gasprice":       TxGasPrice,
	"block.basefee":     BlockBaseFee,
	"block.blobbasefee": BlockBlobBaseFee,
	"block.gaslimit":    BlockGasLimit,
}

// Classifier recognizes the source expressions. Only the enabled tags are ever produced.
type Classifier struct {
	enabled Value
}

// NewClassifier returns the classifier for the sources enabled in the configuration. An empty list of sources
// enables all of them.
func NewClassifier(cfg *config.Config) (Classifier, error) {
	if len(cfg.TaintedStorage.Sources) == 0 {
		return Classifier{enabled: AllTags}, nil
	}
	var enabled Value
	for _, s := range cfg.TaintedStorage.Sources {
		t, err := ParseTag(s)
		if err != nil {
			return Classifier{}, fmt.Errorf("invalid tainted-storage configuration: %w", err)
		}
		enabled = enabled.Union(Of(t))
	}
	return Classifier{enabled: enabled}, nil
}

// Enabled returns the tags the classifier produces
func (c Classifier) Enabled() Value {
	return c.enabled
}

func (c Classifier) mask(t Tag) Value {
	return Of(t).Intersect(c.enabled)
}

// Env returns the taint of a read of the environment
func (c Classifier) Env(e *ir.Env) Value {
	if t, ok := envSources[e.Name]; ok {
		return c.mask(t)
	}
	return Clean
}

// Create returns the taint of the address of a new contract. Only salted creations are sources.
func (c Classifier) Create(e *ir.New) Value {
	if e.Salt != nil {
		return c.mask(Create2Address)
	}
	return Clean
}

// Balance returns the taint of a balance query on an address that is, or is not, the caller
func (c Classifier) Balance(ofCaller bool) Value {
	if ofCaller {
		return c.mask(CallerBalance)
	}
	return Clean
}
