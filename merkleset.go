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

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/optakt/merkle-set/internal/patricia"
)

// Set is an authenticated set of 256-bit digests. The zero value is not
// usable; construct with New.
type Set struct {
	log zerolog.Logger

	tree    *patricia.Tree
	metrics *Metrics
}

// New creates an empty set.
func New(log zerolog.Logger, opts ...Option) (*Set, error) {
	config := DefaultConfig
	for _, opt := range opts {
		opt(&config)
	}

	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := Set{
		log:     log.With().Str("component", "merkle_set").Logger(),
		tree:    patricia.New(config.Depth, config.LeafUnits),
		metrics: config.metrics,
	}

	return &s, nil
}

// AddHash inserts an already-hashed element idempotently.
func (s *Set) AddHash(h Hash) {
	s.tree.Add([32]byte(h))
	if s.metrics != nil {
		s.metrics.adds.Inc()
	}
}

// Add hashes raw and inserts it idempotently.
func (s *Set) Add(raw []byte) {
	s.AddHash(HashBytes(raw))
}

// RemoveHash deletes an already-hashed element if present.
func (s *Set) RemoveHash(h Hash) {
	s.tree.Remove([32]byte(h))
	if s.metrics != nil {
		s.metrics.removes.Inc()
	}
}

// Remove hashes raw and deletes it if present.
func (s *Set) Remove(raw []byte) {
	s.RemoveHash(HashBytes(raw))
}

// GetRoot returns the set's authenticated root digest.
func (s *Set) GetRoot() Hash {
	return Hash(s.tree.GetRoot())
}

// IsIncludedHash reports whether h is a member of the set and returns a
// proof that can be checked by ConfirmIncludedHash or
// ConfirmNotIncludedHash against the root returned at the time of the call.
func (s *Set) IsIncludedHash(h Hash) (bool, []byte) {
	proof := s.tree.Proof([32]byte(h))
	root := s.tree.GetRoot()
	included, _ := patricia.VerifyProof([32]byte(root), [32]byte(h), proof)
	if s.metrics != nil {
		s.metrics.includes.Inc()
	}
	return included, proof
}

// IsIncluded hashes raw and reports its membership, as IsIncludedHash.
func (s *Set) IsIncluded(raw []byte) (bool, []byte) {
	return s.IsIncludedHash(HashBytes(raw))
}

// Audit is a test-only invariant sweep: it fails unless every structural
// rule holds and the set's TERMINAL elements match expected exactly.
func (s *Set) Audit(expected []Hash) error {
	keys := make([][32]byte, len(expected))
	for i, h := range expected {
		keys[i] = [32]byte(h)
	}
	err := s.tree.Audit(keys)
	if s.metrics != nil {
		s.metrics.audits.Inc()
	}
	return err
}
