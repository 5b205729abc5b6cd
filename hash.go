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

import "lukechampine.com/blake3"

// Hash is a 256-bit digest. Once it enters the set, only its low 254 bits
// are authenticated: the packed-patricia tree claims the top two bits of
// byte 0 for its own type tag (internal/patricia).
type Hash [32]byte

// HashBytes derives the Hash of an arbitrary byte slice, for callers that
// hold raw elements rather than pre-computed digests.
func HashBytes(data []byte) Hash {
	return Hash(blake3.Sum256(data))
}
