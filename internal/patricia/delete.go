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

// This file implements Remove (spec.md 4.3): removal bubbles one of five
// statuses up through the recursive frames it passes through. DONE and
// INVALIDATING need no comment beyond tree.go's insert-side handling, which
// this reuses verbatim (bubbleInvalidation). The other three drive the
// tree's "no TERMINAL next to an EMPTY sibling" invariant back into shape
// after a removal:
//
//   - NOTSTARTED means the slot just recursed into became entirely empty;
//     the caller clears its own pointer to it and, if that leaves its own
//     TERMINAL sibling stranded next to an EMPTY slot, bubbles the
//     survivor up as ONELEFT instead of writing it in an illegal position.
//   - ONELEFT(x) carries a surviving element up to be installed as a
//     TERMINAL in the parent slot — unless the parent's sibling is itself
//     EMPTY, in which case installing it would repeat the same illegal
//     shape one level up, so it keeps bubbling.
//   - FRAGILE would mean the subtree the caller just looked at holds
//     exactly two TERMINAL elements somewhere inside it, not yet
//     flattened; the statusFragile branches below let it bubble past an
//     EMPTY sibling and hand it to catch (collapseAt) at a non-EMPTY one.
//     No removal path returns it: a survivor installed beside a TERMINAL
//     sibling already sits at the node where the two values diverge, the
//     shape a fresh insert builds, so that step reports INVALIDATING and
//     those branches are not reached.

// Remove deletes key from the set if present; it is a no-op otherwise.
func (t *Tree) Remove(key [32]byte) {
	v := terminal(key)

	switch t.root.Tag() {
	case TagEmpty:
		return

	case TagTerminal:
		if payloadEqual(t.root, v) {
			t.root = Blank
		}
		return

	default: // MIDDLE or LAZY
		result := t.removeFromBranch(t.rootBranch, 1, 0, v)
		t.resolveRootResult(result)
	}
}

// resolveRootResult applies the result of removing from the root branch to
// the tree's single root slot, which (unlike every other slot in the tree)
// has no sibling: the "can_terminate" relaxation in spec.md 3 means a lone
// surviving element, or a lone fragile pair, is always legal here.
func (t *Tree) resolveRootResult(result status) {
	switch result.kind {
	case statusDone:
		return

	case statusInvalidating:
		if t.root.Tag() != TagLazy {
			t.root = t.root.WithTag(TagLazy)
		}

	case statusOneLeft:
		t.arena.freeBranch(t.rootBranch)
		t.rootBranch = nilHandle
		t.root = result.value

	case statusNotStarted:
		t.arena.freeBranch(t.rootBranch)
		t.rootBranch = nilHandle
		t.root = Blank

	case statusFragile:
		// No enclosing frame exists to call catch on our behalf, so finish
		// the job here: node 1 of the root branch, taken as a whole, holds
		// exactly two elements somewhere inside it.
		terms := t.collectBranchTerminals(t.rootBranch, 1, nil)
		if len(terms) == 2 {
			t.freeBranchContents(t.rootBranch, 1)
			b := t.arena.branch(t.rootBranch)
			t.placeCollapsedPair(b, 1, 0, terms)
		}
		if t.root.Tag() != TagLazy {
			t.root = t.root.WithTag(TagLazy)
		}
	}
}

// removeFromBranch mirrors addToBranch's recursive shape for deletion.
func (t *Tree) removeFromBranch(h handle, idx uint32, bitBase int, v Slot) status {
	b := t.arena.branch(h)
	level := localLevel(idx)
	bit := Bit([32]byte(v), bitBase+int(level))
	slotPtr := b.slot(idx, bit)
	sibPtr := b.sibling(idx, bit)

	switch slotPtr.Tag() {
	case TagEmpty:
		return done()

	case TagTerminal:
		if !payloadEqual(*slotPtr, v) {
			return done()
		}
		*slotPtr = Blank
		switch sibPtr.Tag() {
		case TagTerminal:
			survivor := *sibPtr
			*sibPtr = Blank
			return oneLeft(survivor)
		case TagEmpty:
			return notStarted()
		default:
			return invalidating()
		}

	default: // MIDDLE or LAZY
		var result status
		if level < b.depth {
			result = t.removeFromBranch(h, b.child(idx, bit), bitBase, v)
		} else {
			result = t.removeAtBoundary(b, idx, bit, bitBase+int(b.depth)+1, v)
		}
		return t.bubbleRemoval(h, idx, bit, bitBase, level, result)
	}
}

// bubbleRemoval applies the removal-status protocol to node idx's own
// (slot, sibling) pair for the given bit, given the result of whatever
// happened one level further down.
func (t *Tree) bubbleRemoval(h handle, idx uint32, bit int, bitBase int, level uint8, result status) status {
	b := t.arena.branch(h)
	slotPtr := b.slot(idx, bit)
	sibPtr := b.sibling(idx, bit)

	switch result.kind {
	case statusDone:
		return done()

	case statusNotStarted:
		*slotPtr = Blank
		switch sibPtr.Tag() {
		case TagTerminal:
			survivor := *sibPtr
			*sibPtr = Blank
			return oneLeft(survivor)
		case TagEmpty:
			return notStarted()
		default:
			return invalidating()
		}

	case statusInvalidating:
		return t.bubbleInvalidation(slotPtr, sibPtr, result)

	case statusOneLeft:
		switch sibPtr.Tag() {
		case TagEmpty:
			*slotPtr = Blank
			return oneLeft(result.value)
		case TagTerminal:
			*slotPtr = result.value
			return invalidating()
		default:
			*slotPtr = result.value
			return invalidating()
		}

	case statusFragile:
		if sibPtr.IsEmpty() {
			return fragile()
		}
		t.collapseAt(h, idx, bit, level, bitBase)
		*slotPtr = slotPtr.WithTag(TagLazy)
		return invalidating()

	default:
		return result
	}
}

// removeAtBoundary resolves the cross-reference at the bottom of a branch
// block and continues the removal on the other side of it, folding in the
// freeing of blocks that the removal emptied out entirely.
func (t *Tree) removeAtBoundary(b *branchBlock, idx uint32, bit int, bitIndex int, v Slot) status {
	refIdx := b.refIndex(idx, bit)
	ref := b.refs[refIdx]
	if ref.isNone() {
		return done()
	}

	if ref.isBranch() {
		result := t.removeFromBranch(ref.Block, 1, bitIndex, v)
		switch result.kind {
		case statusOneLeft, statusNotStarted:
			t.arena.freeBranch(ref.Block)
			b.refs[refIdx] = crossRef{}
			return result
		case statusFragile:
			terms := t.collectBranchTerminals(ref.Block, 1, nil)
			if len(terms) == 2 {
				t.freeBranchContents(ref.Block, 1)
				nb := t.arena.branch(ref.Block)
				t.placeCollapsedPair(nb, 1, bitIndex, terms)
			}
			return fragile()
		default:
			return result
		}
	}

	lf := t.arena.leaf(ref.Block)
	result := t.removeFromLeaf(lf, ref.Pos, bitIndex, v)
	switch result.kind {
	case statusOneLeft, statusNotStarted:
		lf.free(ref.Pos)
		lf.numInputs--
		if lf.numInputs == 0 {
			t.arena.freeLeaf(ref.Block)
		}
		b.refs[refIdx] = crossRef{}
		return result
	case statusFragile:
		terms := t.collectLeafTerminals(lf, ref.Pos, nil)
		if len(terms) == 2 {
			t.freeLeafDescendants(lf, ref.Pos)
			t.placeCollapsedPairLeaf(lf, ref.Pos, bitIndex, terms)
		}
		return fragile()
	default:
		return result
	}
}

// removeFromLeaf is removeFromBranch's counterpart for the linked-list
// tree inside a leaf block.
func (t *Tree) removeFromLeaf(lf *leafBlock, cellIdx uint16, bitIndex int, v Slot) status {
	cell := lf.get(cellIdx)
	bit := Bit([32]byte(v), bitIndex)
	slotPtr := cell.slot(bit)
	sibPtr := cell.sibling(bit)

	switch slotPtr.Tag() {
	case TagEmpty:
		return done()

	case TagTerminal:
		if !payloadEqual(*slotPtr, v) {
			return done()
		}
		*slotPtr = Blank
		switch sibPtr.Tag() {
		case TagTerminal:
			survivor := *sibPtr
			*sibPtr = Blank
			return oneLeft(survivor)
		case TagEmpty:
			return notStarted()
		default:
			return invalidating()
		}

	default: // MIDDLE or LAZY
		childIdx := cell.child(bit)
		result := t.removeFromLeaf(lf, childIdx, bitIndex+1, v)
		return t.bubbleRemovalLeaf(lf, cellIdx, bit, bitIndex, result)
	}
}

// bubbleRemovalLeaf is bubbleRemoval's counterpart for a leaf cell's own
// pair; unlike a branch's array slots, a leaf child that degenerates to
// fully empty owns an allocated cell that must be returned to the
// free-list.
func (t *Tree) bubbleRemovalLeaf(lf *leafBlock, cellIdx uint16, bit int, bitIndex int, result status) status {
	cell := lf.get(cellIdx)
	slotPtr := cell.slot(bit)
	sibPtr := cell.sibling(bit)
	childIdx := cell.child(bit)

	switch result.kind {
	case statusDone:
		return done()

	case statusNotStarted:
		lf.free(childIdx)
		cell.setChild(bit, 0)
		*slotPtr = Blank
		switch sibPtr.Tag() {
		case TagTerminal:
			survivor := *sibPtr
			*sibPtr = Blank
			return oneLeft(survivor)
		case TagEmpty:
			return notStarted()
		default:
			return invalidating()
		}

	case statusInvalidating:
		return t.bubbleInvalidation(slotPtr, sibPtr, result)

	case statusOneLeft:
		lf.free(childIdx)
		cell.setChild(bit, 0)
		switch sibPtr.Tag() {
		case TagEmpty:
			*slotPtr = Blank
			return oneLeft(result.value)
		case TagTerminal:
			*slotPtr = result.value
			return invalidating()
		default:
			*slotPtr = result.value
			return invalidating()
		}

	case statusFragile:
		if sibPtr.IsEmpty() {
			return fragile()
		}
		t.collapseLeafChild(lf, cellIdx, bit, bitIndex+1)
		*slotPtr = slotPtr.WithTag(TagLazy)
		return invalidating()

	default:
		return result
	}
}
