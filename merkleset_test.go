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

package merkleset_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optakt/merkle-set/internal/reference"
	"github.com/optakt/merkle-set/testing/helpers"

	merkleset "github.com/optakt/merkle-set"
)

func newSet(t *testing.T, opts ...merkleset.Option) *merkleset.Set {
	t.Helper()
	s, err := merkleset.New(zerolog.Nop(), opts...)
	require.NoError(t, err)
	return s
}

// TestScenarioA inserts h(0..200) one at a time; after each step it audits,
// checks every live element's inclusion proof against the current root and
// the reference implementation's membership answer, and records the root.
// It then removes the elements in reverse, auditing each intermediate state
// and checking that its root equals the one recorded at the same size.
func TestScenarioA(t *testing.T) {
	const count = 200
	elems := helpers.Elements(count)

	set := newSet(t)
	ref := reference.New()

	var live []merkleset.Hash
	var roots []merkleset.Hash
	for i, e := range elems {
		h := merkleset.Hash(e)
		set.AddHash(h)
		ref.AddHash(reference.Hash(e))
		live = append(live, h)

		require.NoErrorf(t, set.Audit(live), "audit failed after inserting element %d", i)

		for _, x := range live {
			includedOurs, proofOurs := set.IsIncludedHash(x)
			require.True(t, includedOurs)
			require.True(t, merkleset.ConfirmIncludedHash(set.GetRoot(), x, proofOurs))

			includedRef, _ := ref.IsIncludedHash(reference.Hash(x))
			assert.Truef(t, includedRef, "reference disagreed on inclusion of element %x at step %d", x, i)
		}

		roots = append(roots, set.GetRoot())
	}

	for i := count - 1; i >= 0; i-- {
		set.RemoveHash(live[i])
		ref.RemoveHash(reference.Hash(live[i]))
		live = live[:i]

		require.NoErrorf(t, set.Audit(live), "audit failed after removing down to %d elements", i)
		if i > 0 {
			assert.Equal(t, roots[i-1], set.GetRoot())
		}
	}

	var blank merkleset.Hash
	assert.Equal(t, blank, set.GetRoot())
	assert.Equal(t, reference.Hash(blank), ref.GetRoot())
}

// TestScenarioB sweeps block geometry and checks that it never leaks into
// externally observable roots or proofs.
func TestScenarioB(t *testing.T) {
	elems := helpers.Elements(48)

	type result struct {
		root  merkleset.Hash
		first []byte
	}
	var results []result

	for _, depth := range []uint8{1, 2, 3, 4} {
		for _, units := range []uint16{1, 2, 4, 8, 16, 32} {
			set := newSet(t, merkleset.WithDepth(depth), merkleset.WithLeafUnits(units))
			for _, e := range elems {
				set.AddHash(merkleset.Hash(e))
			}
			_, proof := set.IsIncludedHash(merkleset.Hash(elems[0]))
			results = append(results, result{root: set.GetRoot(), first: proof})
		}
	}

	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0].root, results[i].root)
		assert.Equal(t, results[0].first, results[i].first)
	}
}

// TestScenarioC checks that deferring GetRoot does not change the proof
// produced partway through a long insertion sequence.
func TestScenarioC(t *testing.T) {
	elems := helpers.Elements(100)
	midpoint := 50

	eager := newSet(t)
	var eagerProofAtMidpoint []byte
	for i, e := range elems {
		eager.AddHash(merkleset.Hash(e))
		eager.GetRoot()
		if i == midpoint-1 {
			_, eagerProofAtMidpoint = eager.IsIncludedHash(merkleset.Hash(elems[0]))
		}
	}

	lazy := newSet(t)
	for i := 0; i < midpoint; i++ {
		lazy.AddHash(merkleset.Hash(elems[i]))
	}
	_, lazyProof := lazy.IsIncludedHash(merkleset.Hash(elems[0]))

	assert.Equal(t, eagerProofAtMidpoint, lazyProof)
}

// TestScenarioD checks double-add and double-remove idempotence.
func TestScenarioD(t *testing.T) {
	elems := helpers.Elements(20)

	once := newSet(t)
	for _, e := range elems {
		once.AddHash(merkleset.Hash(e))
	}

	twiceAdded := newSet(t)
	for _, e := range elems {
		twiceAdded.AddHash(merkleset.Hash(e))
		twiceAdded.AddHash(merkleset.Hash(e))
	}
	assert.Equal(t, once.GetRoot(), twiceAdded.GetRoot())

	target := merkleset.Hash(elems[5])
	onceRemoved := newSet(t)
	for _, e := range elems {
		onceRemoved.AddHash(merkleset.Hash(e))
	}
	onceRemoved.RemoveHash(target)

	twiceRemoved := newSet(t)
	for _, e := range elems {
		twiceRemoved.AddHash(merkleset.Hash(e))
	}
	twiceRemoved.RemoveHash(target)
	twiceRemoved.RemoveHash(target)

	assert.Equal(t, onceRemoved.GetRoot(), twiceRemoved.GetRoot())
}

// TestScenarioE inserts three elements sharing a long common bit prefix
// (forcing deep nesting), then removes them one at a time, auditing after
// each step to confirm no unreachable blocks survive the collapse.
func TestScenarioE(t *testing.T) {
	base := helpers.ElementAt(0)
	a, b, c := base, base, base
	a[4] ^= 0x01
	b[4] ^= 0x02
	c[4] ^= 0x04

	set := newSet(t)
	set.AddHash(merkleset.Hash(a))
	set.AddHash(merkleset.Hash(b))
	set.AddHash(merkleset.Hash(c))
	require.NoError(t, set.Audit([]merkleset.Hash{merkleset.Hash(a), merkleset.Hash(b), merkleset.Hash(c)}))

	set.RemoveHash(merkleset.Hash(a))
	require.NoError(t, set.Audit([]merkleset.Hash{merkleset.Hash(b), merkleset.Hash(c)}))

	set.RemoveHash(merkleset.Hash(b))
	require.NoError(t, set.Audit([]merkleset.Hash{merkleset.Hash(c)}))

	set.RemoveHash(merkleset.Hash(c))
	require.NoError(t, set.Audit(nil))

	var blank merkleset.Hash
	assert.Equal(t, blank, set.GetRoot())
}

// TestScenarioF flips every byte of a genuine inclusion proof and checks
// that neither confirmation direction agrees with the tampered result.
func TestScenarioF(t *testing.T) {
	elems := helpers.Elements(40)

	set := newSet(t)
	for _, e := range elems {
		set.AddHash(merkleset.Hash(e))
	}
	root := set.GetRoot()
	candidate := merkleset.Hash(elems[9])
	_, proof := set.IsIncludedHash(candidate)

	for i := range proof {
		tampered := append([]byte(nil), proof...)
		tampered[i] ^= 0xFF

		assert.Falsef(t, merkleset.ConfirmIncludedHash(root, candidate, tampered), "byte %d", i)
		assert.Falsef(t, merkleset.ConfirmNotIncludedHash(root, candidate, tampered), "byte %d", i)
	}
}

func TestRootDeterminismAcrossInsertOrder(t *testing.T) {
	elems := helpers.Elements(30)

	forward := newSet(t)
	for _, e := range elems {
		forward.AddHash(merkleset.Hash(e))
	}

	backward := newSet(t)
	for i := len(elems) - 1; i >= 0; i-- {
		backward.AddHash(merkleset.Hash(elems[i]))
	}

	assert.Equal(t, forward.GetRoot(), backward.GetRoot())
}

func TestSingletonRootIsTerminalEncoding(t *testing.T) {
	set := newSet(t)
	h := merkleset.Hash(helpers.ElementAt(0))
	set.AddHash(h)

	root := set.GetRoot()
	assert.Equal(t, byte(0x40), root[0]&0xC0)
}

func TestConfigRejectsZeroLeafUnits(t *testing.T) {
	_, err := merkleset.New(zerolog.Nop(), merkleset.WithLeafUnits(0))
	assert.Error(t, err)
}
