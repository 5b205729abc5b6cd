// Copyright 2021 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package merkleset

// Default configuration values.
const (
	DefaultDepth     = 4
	DefaultLeafUnits = 16
)

// Config configures a Set's internal block geometry. Depth and LeafUnits
// never affect externally observable roots or proofs (spec Scenario B),
// only how the tree's arena is laid out in memory.
type Config struct {
	Depth     uint8  `validate:"gte=0"`
	LeafUnits uint16 `validate:"gte=1"`

	metrics *Metrics
}

// Option is a function that modifies a configuration.
type Option func(*Config)

// DefaultConfig is the set's default configuration.
var DefaultConfig = Config{
	Depth:     DefaultDepth,
	LeafUnits: DefaultLeafUnits,
}

// WithDepth sets how many inline levels each branch block spans below its
// mandatory root pair.
func WithDepth(depth uint8) Option {
	return func(config *Config) {
		config.Depth = depth
	}
}

// WithLeafUnits sets how many node cells each leaf block holds.
func WithLeafUnits(units uint16) Option {
	return func(config *Config) {
		config.LeafUnits = units
	}
}

// WithMetrics attaches a Metrics instance that records operation counts as
// Prometheus counters.
func WithMetrics(metrics *Metrics) Option {
	return func(config *Config) {
		config.metrics = metrics
	}
}
