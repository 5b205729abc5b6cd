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

// addToLeaf is addToBranch's counterpart for the region below a branch's
// boundary: incremental growth of an already-populated leaf subtree by one
// value. Unlike placeGroupLeaf (which places a pre-sized, guaranteed-to-fit
// group), this must check capacity before committing any mutation, since
// a leaf block can run out of free cells mid-growth; in that case it backs
// out untouched and reports FULL so the caller can migrate first.
func (t *Tree) addToLeaf(lf *leafBlock, cellIdx uint16, bitIndex int, v Slot) status {
	cell := lf.get(cellIdx)
	bit := Bit([32]byte(v), bitIndex)
	slotPtr := cell.slot(bit)
	sibPtr := cell.sibling(bit)

	switch slotPtr.Tag() {
	case TagEmpty:
		if sibPtr.IsEmpty() {
			return notStarted()
		}
		*slotPtr = v
		return invalidating()

	case TagTerminal:
		if payloadEqual(*slotPtr, v) {
			return done()
		}
		w := *slotPtr

		if sibPtr.Tag() == TagTerminal {
			u := *sibPtr
			group := []Slot{v, w, u}
			needed := neededLeafCells(group, bitIndex) - 1
			if lf.freeCount() < needed {
				return full()
			}
			*slotPtr = Blank
			*sibPtr = Blank
			t.placeGroupLeaf(lf, cellIdx, bitIndex, group)
			return invalidating()
		}

		group := []Slot{v, w}
		needed := neededLeafCells(group, bitIndex+1)
		if lf.freeCount() < needed {
			return full()
		}
		t.descendIntoLeaf(lf, cellIdx, bit, bitIndex, group)
		return invalidating()

	default: // MIDDLE or LAZY
		result := t.addToLeaf(lf, cell.child(bit), bitIndex+1, v)
		return t.bubbleInvalidation(slotPtr, sibPtr, result)
	}
}
