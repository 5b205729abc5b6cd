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

package patricia

import "lukechampine.com/blake3"

// combine computes the MIDDLE digest of a node from its two already
// up-to-date children. Neither child may be LAZY: callers must force a
// recompute first (see lazy.go).
func combine(left, right Slot) Slot {
	if left.Tag() == TagLazy || right.Tag() == TagLazy {
		panic("patricia: combine called with a stale child")
	}
	var buf [65]byte
	buf[0] = byte(TagMiddle)
	copy(buf[1:33], left[:])
	copy(buf[33:65], right[:])
	sum := blake3.Sum256(buf[:])
	return Slot(sum).WithTag(TagMiddle)
}
