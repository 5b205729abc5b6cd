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

package patricia_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optakt/merkle-set/internal/patricia"
	"github.com/optakt/merkle-set/testing/helpers"
)

func TestProof_IncludedElementVerifies(t *testing.T) {
	elems := helpers.Elements(40)

	tree := patricia.New(2, 4)
	for _, e := range elems {
		tree.Add(e)
	}

	for _, e := range elems {
		root := [32]byte(tree.GetRoot())
		proof := tree.Proof(e)

		included, ok := patricia.VerifyProof(root, e, proof)
		require.True(t, ok)
		assert.True(t, included)
	}
}

func TestProof_ExcludedElementVerifies(t *testing.T) {
	elems := helpers.Elements(40)

	tree := patricia.New(2, 4)
	for _, e := range elems[:20] {
		tree.Add(e)
	}

	root := [32]byte(tree.GetRoot())
	for _, e := range elems[20:] {
		proof := tree.Proof(e)

		included, ok := patricia.VerifyProof(root, e, proof)
		require.True(t, ok)
		assert.False(t, included)
	}
}

func TestProof_EmptySetExcludesEverything(t *testing.T) {
	tree := patricia.New(2, 4)
	root := [32]byte(tree.GetRoot())

	candidate := helpers.ElementAt(0)
	proof := tree.Proof(candidate)

	included, ok := patricia.VerifyProof(root, candidate, proof)
	require.True(t, ok)
	assert.False(t, included)
}

func TestProof_TamperedByteFailsBothDirections(t *testing.T) {
	elems := helpers.Elements(40)

	tree := patricia.New(2, 4)
	for _, e := range elems {
		tree.Add(e)
	}
	root := [32]byte(tree.GetRoot())
	candidate := elems[7]
	proof := tree.Proof(candidate)

	for i := range proof {
		tampered := append([]byte(nil), proof...)
		tampered[i] ^= 0xFF

		included, ok := patricia.VerifyProof(root, candidate, tampered)
		confirmIncluded := ok && included
		confirmNotIncluded := ok && !included

		assert.Falsef(t, confirmIncluded, "byte %d: tampered proof still confirmed inclusion", i)
		assert.Falsef(t, confirmNotIncluded, "byte %d: tampered proof confirmed exclusion of a member", i)
	}
}

func TestProof_MalformedNeverVerifies(t *testing.T) {
	tree := patricia.New(2, 4)
	tree.Add(helpers.ElementAt(0))
	root := [32]byte(tree.GetRoot())
	candidate := helpers.ElementAt(0)

	cases := map[string][]byte{
		"nil":                   nil,
		"empty":                 {},
		"truncated middle":      {byte(patricia.TagMiddle) << 6},
		"truncated terminal":    append([]byte{byte(patricia.TagTerminal) << 6}, make([]byte, 10)...),
		"trailing garbage byte": append(tree.Proof(candidate), 0x00),
	}

	for name, proof := range cases {
		_, ok := patricia.VerifyProof(root, candidate, proof)
		assert.Falsef(t, ok, "%s: malformed proof should never verify", name)
	}
}
