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

package reference

import (
	"fmt"
	"sort"
)

// Set is the reference implementation's authenticated set: a single
// immutable node rebuilt from the root down on every mutation. It trades
// every efficiency internal/patricia cares about (block packing, lazy
// hashing, in-place mutation) for an implementation short enough to read
// end to end and trust by inspection.
type Set struct {
	root node
}

// New returns an empty reference set.
func New() *Set {
	return &Set{root: empty}
}

// AddHash inserts an already-hashed element idempotently.
func (s *Set) AddHash(h Hash) {
	s.root = s.root.add(flipTag(h, tagTerminal), 0)
}

// RemoveHash deletes an already-hashed element if present.
func (s *Set) RemoveHash(h Hash) {
	s.root = s.root.remove(flipTag(h, tagTerminal), 0)
}

// GetRoot returns the set's root digest.
func (s *Set) GetRoot() Hash {
	return s.root.hash()
}

// IsIncludedHash reports whether h is a member and returns a proof
// checkable against the root by ConfirmIncludedHash / ConfirmNotIncludedHash.
func (s *Set) IsIncludedHash(h Hash) (bool, []byte) {
	var proof []byte
	included := s.root.isIncluded(flipTag(h, tagTerminal), 0, &proof)
	return included, proof
}

// Audit recomputes every TERMINAL reachable from the root and fails unless
// that multiset matches expected exactly.
func (s *Set) Audit(expected []Hash) error {
	var got []Hash
	s.root.auditCollect(&got, nil)

	sortHashes(got)
	want := make([]Hash, len(expected))
	for i, h := range expected {
		want[i] = flipTag(h, tagTerminal)
	}
	sortHashes(want)

	if len(got) != len(want) {
		return fmt.Errorf("terminal count mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			return fmt.Errorf("terminal set mismatch at position %d: got %x, want %x", i, got[i], want[i])
		}
	}
	return nil
}

func sortHashes(hs []Hash) {
	sort.Slice(hs, func(i, j int) bool {
		for k := range hs[i] {
			if hs[i][k] != hs[j][k] {
				return hs[i][k] < hs[j][k]
			}
		}
		return false
	})
}
