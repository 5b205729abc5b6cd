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

// Package helpers provides deterministic data generators shared by the
// test suites of internal/patricia, internal/reference, and the root
// merkleset package.
package helpers

import "golang.org/x/crypto/blake2s"

// LinearCongruentialGenerator is a deterministic pseudo-random number
// generator; the module's test suites do not use it. It
// uses the same magic constants as Microsoft Visual Basic 6's
// generator, chosen only for reproducibility, not statistical quality.
// See https://en.wikipedia.org/wiki/Linear_congruential_generator
type LinearCongruentialGenerator struct {
	seed uint64
}

// NewGenerator creates a new linear congruential generator.
func NewGenerator() *LinearCongruentialGenerator {
	return &LinearCongruentialGenerator{}
}

// Next returns the next pseudo-random number.
func (rng *LinearCongruentialGenerator) Next() uint16 {
	rng.seed = (rng.seed*1140671485 + 12820163) % 65536
	return uint16(rng.seed)
}

// ElementAt returns h(i): the 32-byte blake2s digest of i encoded as a
// 10-byte big-endian integer, the element sequence the test suite seeds
// its scenarios with.
func ElementAt(i int) [32]byte {
	var buf [10]byte
	n := uint64(i)
	for k := 9; k >= 0; k-- {
		buf[k] = byte(n)
		n >>= 8
	}
	return blake2s.Sum256(buf[:])
}

// Elements returns h(0)..h(count-1).
func Elements(count int) [][32]byte {
	out := make([][32]byte, count)
	for i := range out {
		out[i] = ElementAt(i)
	}
	return out
}
