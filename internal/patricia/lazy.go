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

// This file de-lazifies the tree: inserts and removes mark affected
// ancestors LAZY instead of recomputing their digest immediately, so a
// run of mutations pays for hashing once, on the next read, rather than
// once per mutation. GetRoot (and proof generation) call into here to
// force a slot's true value before exposing it.

// GetRoot returns the authenticated root digest, recomputing any stale
// subtree hashes along the way.
func (t *Tree) GetRoot() Slot {
	if t.root.Tag() != TagLazy {
		return t.root
	}
	b := t.arena.branch(t.rootBranch)
	left := t.forceBranchSlot(b, 1, 0, 0)
	right := t.forceBranchSlot(b, 1, 1, 0)
	t.root = combine(left, right)
	return t.root
}

// forceBranchSlot returns the up-to-date value of node idx's slot for the
// given bit inside branch block b, recomputing and caching it first if it
// is LAZY. level is idx's level within b (root pair is level 0).
func (t *Tree) forceBranchSlot(b *branchBlock, idx uint32, bit int, level uint8) Slot {
	slotPtr := b.slot(idx, bit)
	if slotPtr.Tag() != TagLazy {
		return *slotPtr
	}

	var combined Slot
	if level < b.depth {
		childIdx := b.child(idx, bit)
		left := t.forceBranchSlot(b, childIdx, 0, level+1)
		right := t.forceBranchSlot(b, childIdx, 1, level+1)
		combined = combine(left, right)
	} else {
		refIdx := b.refIndex(idx, bit)
		ref := b.refs[refIdx]
		if ref.isBranch() {
			nb := t.arena.branch(ref.Block)
			left := t.forceBranchSlot(nb, 1, 0, 0)
			right := t.forceBranchSlot(nb, 1, 1, 0)
			combined = combine(left, right)
		} else {
			lf := t.arena.leaf(ref.Block)
			left := t.forceLeafSlot(lf, ref.Pos, 0)
			right := t.forceLeafSlot(lf, ref.Pos, 1)
			combined = combine(left, right)
		}
	}

	*slotPtr = combined
	return combined
}

// forceLeafSlot is forceBranchSlot's counterpart for the linked-list tree
// living inside a leaf block.
func (t *Tree) forceLeafSlot(lf *leafBlock, cellIdx uint16, bit int) Slot {
	cell := lf.get(cellIdx)
	slotPtr := cell.slot(bit)
	if slotPtr.Tag() != TagLazy {
		return *slotPtr
	}

	childIdx := cell.child(bit)
	left := t.forceLeafSlot(lf, childIdx, 0)
	right := t.forceLeafSlot(lf, childIdx, 1)
	combined := combine(left, right)

	cell = lf.get(cellIdx)
	*cell.slot(bit) = combined
	return combined
}
