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

// Package patricia is the packed-patricia storage engine: a two-tier arena
// of branch blocks and leaf blocks encoding a binary radix tree over the
// bit-strings of hashed elements, with lazy subtree-hash invalidation,
// overflow migration between leaves and branches, and structural collapse
// on deletion.
package patricia

// Tree is an authenticated set of 32-byte keys, stored as a packed
// patricia tree. The zero value is not usable; construct with New.
type Tree struct {
	depth      uint8
	leafUnits  uint16
	root       Slot
	rootBranch handle
	arena      *arena
}

// New creates an empty tree. depth sets how many inline levels each
// branch block spans below its mandatory root pair; leafUnits sets how
// many node cells each leaf block holds.
func New(depth uint8, leafUnits uint16) *Tree {
	return &Tree{
		depth:     depth,
		leafUnits: leafUnits,
		arena:     newArena(),
	}
}

// Add inserts key (already tagged as a 32-byte value contributing its low
// 254 bits to the set) idempotently.
func (t *Tree) Add(key [32]byte) {
	v := terminal(key)

	switch t.root.Tag() {
	case TagEmpty:
		t.root = v
		return

	case TagTerminal:
		if payloadEqual(t.root, v) {
			return
		}
		w := t.root
		t.rootBranch = t.arena.allocBranch(t.depth)
		t.placeGroup(t.rootBranch, 1, 0, []Slot{v, w})
		t.root = Blank.WithTag(TagLazy)
		return

	default: // MIDDLE or LAZY
		result := t.addToBranch(t.rootBranch, 1, 0, v)
		if result.kind == statusInvalidating && t.root.Tag() != TagLazy {
			t.root = t.root.WithTag(TagLazy)
		}
	}
}

// addToBranch descends into branch h starting at node idx (bitBase is the
// bit index consumed by the branch's own root level).
func (t *Tree) addToBranch(h handle, idx uint32, bitBase int, v Slot) status {
	b := t.arena.branch(h)
	level := localLevel(idx)
	bit := Bit([32]byte(v), bitBase+int(level))
	slotPtr := b.slot(idx, bit)
	sibPtr := b.sibling(idx, bit)

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
			*slotPtr = Blank
			*sibPtr = Blank
			t.placeGroup(h, idx, bitBase, []Slot{v, w, u})
			return invalidating()
		}
		t.descendInto(h, idx, bit, bitBase, level, []Slot{v, w})
		return invalidating()

	default: // MIDDLE or LAZY
		var result status
		if level < b.depth {
			result = t.addToBranch(h, b.child(idx, bit), bitBase, v)
		} else {
			result = t.addAtBoundary(b, idx, bit, bitBase+int(b.depth)+1, v)
		}
		return t.bubbleInvalidation(slotPtr, sibPtr, result)
	}
}

// bubbleInvalidation applies the shared MIDDLE/LAZY upgrade rule: a fresh
// INVALIDATING result upgrades this slot to LAZY and propagates upward,
// unless the sibling is already LAZY (the ancestor has already been told).
// A result against an already-LAZY slot needs no write and no further
// propagation, since the ancestor learned about this subtree once already.
func (t *Tree) bubbleInvalidation(slotPtr, sibPtr *Slot, result status) status {
	if result.kind != statusInvalidating {
		return result
	}
	if slotPtr.Tag() == TagLazy {
		return done()
	}
	*slotPtr = slotPtr.WithTag(TagLazy)
	if sibPtr.Tag() == TagLazy {
		return done()
	}
	return invalidating()
}

// addAtBoundary resolves the cross-reference at the bottom of a branch
// block and continues the insert on the other side of it.
func (t *Tree) addAtBoundary(b *branchBlock, idx uint32, bit int, bitIndex int, v Slot) status {
	refIdx := b.refIndex(idx, bit)
	ref := b.refs[refIdx]

	if ref.isNone() {
		return notStarted()
	}
	if ref.isBranch() {
		return t.addToBranch(ref.Block, 1, bitIndex, v)
	}

	lf := t.arena.leaf(ref.Block)
	result := t.addToLeaf(lf, ref.Pos, bitIndex, v)
	if result.kind != statusFull {
		return result
	}

	// Migration: the target leaf could not accommodate the new value. A
	// relocated subtree can fill its fresh leaf again on the retry; that
	// leaf then holds a single subtree, so migrating once more promotes it
	// to a branch block. The copied subtree is stamped LAZY throughout, so
	// the retried insert may stop bubbling at a LAZY sibling and report
	// DONE; the value is new either way, so the slot above the boundary is
	// always invalidated.
	newRef := t.migrateOnFull(b, ref, bitIndex, v)
	for newRef.status.kind == statusFull {
		newRef = t.migrateOnFull(b, newRef.ref, bitIndex, v)
	}
	b.refs[refIdx] = newRef.ref
	if newRef.status.kind == statusDone {
		return invalidating()
	}
	return newRef.status
}
