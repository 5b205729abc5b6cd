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

import "github.com/optakt/merkle-set/internal/patricia"

// ConfirmIncludedHash reports whether proof demonstrates that candidate is
// a member of the set whose root is root. It never panics on a malformed
// proof; it simply returns false.
func ConfirmIncludedHash(root Hash, candidate Hash, proof []byte) bool {
	included, ok := patricia.VerifyProof([32]byte(root), [32]byte(candidate), proof)
	return ok && included
}

// ConfirmNotIncludedHash reports whether proof demonstrates that candidate
// is absent from the set whose root is root.
func ConfirmNotIncludedHash(root Hash, candidate Hash, proof []byte) bool {
	included, ok := patricia.VerifyProof([32]byte(root), [32]byte(candidate), proof)
	return ok && !included
}

// ConfirmIncluded hashes raw and checks its inclusion, as
// ConfirmIncludedHash.
func ConfirmIncluded(root Hash, raw []byte, proof []byte) bool {
	return ConfirmIncludedHash(root, HashBytes(raw), proof)
}

// ConfirmNotIncluded hashes raw and checks its exclusion, as
// ConfirmNotIncludedHash.
func ConfirmNotIncluded(root Hash, raw []byte, proof []byte) bool {
	return ConfirmNotIncludedHash(root, HashBytes(raw), proof)
}
