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

import (
	"fmt"
	"sort"

	"github.com/gammazero/deque"
	"github.com/hashicorp/go-multierror"
)

// This file is the auditor (spec.md 4.5): a test-only, fail-fast sweep of
// the whole tree that checks every structural invariant at once and
// aggregates every violation it finds, rather than stopping at the first
// one. It runs two passes:
//
//   - a block-level breadth-first traversal (queueItem over a
//     gammazero/deque) that visits every branch and leaf block reachable
//     from the root exactly as many times as it is actually referenced,
//     checking pair shape (ordering, EMPTY-payload, canonical-pair,
//     sibling-EMPTY/TERMINAL) at every node along the way, collecting
//     TERMINAL values, and confirming every live block in the arena was
//     actually reached and every leaf free-list accounts for exactly the
//     cells that traversal did not reach;
//   - a bottom-up recomputation pass that re-derives every node's true
//     hash from its children and flags any MIDDLE-tagged slot (LAZY ones
//     are allowed to be stale by definition) whose stored value disagrees.
//
// Violations from both passes are collected with hashicorp/go-multierror
// so a single Audit call reports everything wrong with the tree, not just
// the first thing found.

// queueItem is one unit of BFS work: a branch block entered at its root
// pair, or a leaf block entered at one of its (possibly several)
// independently-referenced subtree roots.
type queueItem struct {
	isBranch bool
	handle   handle
	cell     uint16 // leaf subtree root; unused for branch items
}

// Audit verifies every structural invariant of the tree and that its
// TERMINAL elements match expected exactly (as a set). It is test-only:
// production code never calls it on a hot path, and a non-nil error means
// the tree has a bug, not a recoverable condition.
func (t *Tree) Audit(expected [][32]byte) error {
	var errs *multierror.Error

	terms, seenBranches, seenLeafEntries, reachableCells := t.auditReachability(&errs)
	t.auditBlockAccounting(seenBranches, seenLeafEntries, reachableCells, &errs)
	t.auditHashes(&errs)
	auditTerminalSet(terms, expected, &errs)

	return errs.ErrorOrNil()
}

// auditReachability runs the block-level BFS described above, returning
// every TERMINAL it found, how many times each branch/leaf block was
// entered, and which cells of each leaf block were reached.
func (t *Tree) auditReachability(errs **multierror.Error) (terms []Slot, seenBranches, seenLeafEntries map[handle]int, reachableCells map[handle]map[uint16]bool) {
	seenBranches = map[handle]int{}
	seenLeafEntries = map[handle]int{}
	reachableCells = map[handle]map[uint16]bool{}

	switch t.root.Tag() {
	case TagEmpty:
		return terms, seenBranches, seenLeafEntries, reachableCells
	case TagTerminal:
		terms = append(terms, t.root)
		return terms, seenBranches, seenLeafEntries, reachableCells
	}

	q := deque.New()
	q.PushBack(queueItem{isBranch: true, handle: t.rootBranch})

	for q.Len() > 0 {
		item := q.PopFront().(queueItem)
		if item.isBranch {
			seenBranches[item.handle]++
			if seenBranches[item.handle] > 1 {
				*errs = multierror.Append(*errs, fmt.Errorf("patricia: branch block %d referenced more than once", item.handle))
				continue
			}
			b := t.arena.branch(item.handle)
			t.auditBranchTree(b, 1, errs, &terms, q)
			continue
		}

		seenLeafEntries[item.handle]++
		if reachableCells[item.handle] == nil {
			reachableCells[item.handle] = map[uint16]bool{}
		}
		lf := t.arena.leaf(item.handle)
		t.auditLeafTree(lf, item.cell, reachableCells[item.handle], errs, &terms)
	}

	return terms, seenBranches, seenLeafEntries, reachableCells
}

// auditBranchTree walks the in-block array heap rooted at idx, checking
// pair shape at every node and enqueuing any cross-block reference found
// at the bottom level instead of recursing into it directly.
func (t *Tree) auditBranchTree(b *branchBlock, idx uint32, errs **multierror.Error, terms *[]Slot, q *deque.Deque) {
	level := localLevel(idx)
	pair := [2]Slot{*b.slot(idx, 0), *b.slot(idx, 1)}
	checkPairShape(pair[0], pair[1], errs)

	for bit, s := range pair {
		switch s.Tag() {
		case TagTerminal:
			*terms = append(*terms, s)

		case TagMiddle, TagLazy:
			if level < b.depth {
				t.auditBranchTree(b, b.child(idx, bit), errs, terms, q)
				continue
			}
			refIdx := b.refIndex(idx, bit)
			ref := b.refs[refIdx]
			if ref.isNone() {
				*errs = multierror.Append(*errs, fmt.Errorf("patricia: non-empty slot has no boundary reference"))
				continue
			}
			if ref.isBranch() {
				q.PushBack(queueItem{isBranch: true, handle: ref.Block})
			} else {
				q.PushBack(queueItem{isBranch: false, handle: ref.Block, cell: ref.Pos})
			}
		}
	}
}

// auditLeafTree walks the linked-list tree inside a leaf block starting at
// cellIdx, marking every cell it reaches in reachable and checking pair
// shape along the way.
func (t *Tree) auditLeafTree(lf *leafBlock, cellIdx uint16, reachable map[uint16]bool, errs **multierror.Error, terms *[]Slot) {
	if reachable[cellIdx] {
		*errs = multierror.Append(*errs, fmt.Errorf("patricia: leaf cell %d reached more than once", cellIdx))
		return
	}
	reachable[cellIdx] = true

	cell := lf.get(cellIdx)
	pair := [2]Slot{cell.left, cell.right}
	checkPairShape(pair[0], pair[1], errs)

	for bit, s := range pair {
		switch s.Tag() {
		case TagTerminal:
			*terms = append(*terms, s)
		case TagMiddle, TagLazy:
			t.auditLeafTree(lf, cell.child(bit), reachable, errs, terms)
		}
	}
}

// checkPairShape checks the three shape invariants spec.md lists for every
// sibling pair: EMPTY payloads are all-zero, a TERMINAL never sits beside
// an EMPTY sibling, and two TERMINAL siblings are strictly ordered.
func checkPairShape(left, right Slot, errs **multierror.Error) {
	if left.Tag() == TagEmpty && !left.IsEmpty() {
		*errs = multierror.Append(*errs, fmt.Errorf("patricia: EMPTY slot has nonzero payload"))
	}
	if right.Tag() == TagEmpty && !right.IsEmpty() {
		*errs = multierror.Append(*errs, fmt.Errorf("patricia: EMPTY slot has nonzero payload"))
	}
	if (left.Tag() == TagEmpty && right.Tag() == TagTerminal) || (left.Tag() == TagTerminal && right.Tag() == TagEmpty) {
		*errs = multierror.Append(*errs, fmt.Errorf("patricia: TERMINAL slot beside EMPTY sibling"))
	}
	if left.Tag() == TagTerminal && right.Tag() == TagTerminal && !payloadLess(left, right) {
		*errs = multierror.Append(*errs, fmt.Errorf("patricia: TERMINAL pair not canonically ordered"))
	}
}

// auditBlockAccounting cross-checks the BFS traversal's findings against
// the arena's own bookkeeping: every live block must have been reached
// exactly as many times as it is referenced, and every leaf free-list must
// enumerate exactly the cells traversal did not reach.
func (t *Tree) auditBlockAccounting(seenBranches, seenLeafEntries map[handle]int, reachableCells map[handle]map[uint16]bool, errs **multierror.Error) {
	for _, h := range t.arena.liveBranches() {
		if seenBranches[h] == 0 {
			*errs = multierror.Append(*errs, fmt.Errorf("patricia: branch block %d is allocated but unreachable", h))
		}
	}

	for _, h := range t.arena.liveLeaves() {
		lf := t.arena.leaf(h)
		entries := seenLeafEntries[h]
		if entries != int(lf.numInputs) {
			*errs = multierror.Append(*errs, fmt.Errorf("patricia: leaf block %d entered %d times, numInputs says %d", h, entries, lf.numInputs))
		}
		for idx := lf.freeHead; idx != 0; idx = lf.cells[idx-1].nextFree {
			if reachableCells[h][idx] {
				*errs = multierror.Append(*errs, fmt.Errorf("patricia: leaf block %d cell %d is both reachable and on the free-list", h, idx))
			}
		}
		reached := len(reachableCells[h])
		if free := lf.freeCount(); reached+free != len(lf.cells) {
			*errs = multierror.Append(*errs, fmt.Errorf("patricia: leaf block %d free-list accounts for %d cells, traversal reached %d, block has %d", h, free, reached, len(lf.cells)))
		}
	}
}

// auditHashes re-derives every node's hash bottom-up from its actual
// children and flags any MIDDLE-tagged slot whose cached value disagrees.
// LAZY slots are skipped: a stale hash is their entire purpose.
func (t *Tree) auditHashes(errs **multierror.Error) {
	tag := t.root.Tag()
	if tag != TagMiddle && tag != TagLazy {
		return
	}
	b := t.arena.branch(t.rootBranch)
	real := t.deriveBranchNode(b, 1, 0, errs)
	if tag == TagMiddle && !payloadEqual(t.root, real) {
		*errs = multierror.Append(*errs, fmt.Errorf("patricia: root hash does not match its subtrees"))
	}
}

func (t *Tree) deriveBranchNode(b *branchBlock, idx uint32, level uint8, errs **multierror.Error) Slot {
	left := t.deriveBranchSlot(b, idx, 0, level, errs)
	right := t.deriveBranchSlot(b, idx, 1, level, errs)
	return combine(left, right)
}

func (t *Tree) deriveBranchSlot(b *branchBlock, idx uint32, bit int, level uint8, errs **multierror.Error) Slot {
	s := *b.slot(idx, bit)
	switch s.Tag() {
	case TagEmpty:
		return Blank
	case TagTerminal:
		return s
	default: // MIDDLE or LAZY
		var real Slot
		if level < b.depth {
			real = t.deriveBranchNode(b, b.child(idx, bit), level+1, errs)
		} else {
			real = t.deriveBoundary(b, idx, bit, errs)
		}
		if s.Tag() == TagMiddle && !payloadEqual(s, real) {
			*errs = multierror.Append(*errs, fmt.Errorf("patricia: stale MIDDLE hash at branch node %d", idx))
		}
		return real
	}
}

func (t *Tree) deriveBoundary(b *branchBlock, idx uint32, bit int, errs **multierror.Error) Slot {
	refIdx := b.refIndex(idx, bit)
	ref := b.refs[refIdx]
	if ref.isNone() {
		return Blank
	}
	if ref.isBranch() {
		nb := t.arena.branch(ref.Block)
		return t.deriveBranchNode(nb, 1, 0, errs)
	}
	lf := t.arena.leaf(ref.Block)
	return t.deriveLeafSlot(lf, ref.Pos, errs)
}

func (t *Tree) deriveLeafNode(lf *leafBlock, cellIdx uint16, errs **multierror.Error) Slot {
	cell := lf.get(cellIdx)
	left := t.deriveLeafChild(lf, cell, 0, errs)
	right := t.deriveLeafChild(lf, cell, 1, errs)
	return combine(left, right)
}

func (t *Tree) deriveLeafChild(lf *leafBlock, cell *leafCell, bit int, errs **multierror.Error) Slot {
	s := *cell.slot(bit)
	switch s.Tag() {
	case TagEmpty:
		return Blank
	case TagTerminal:
		return s
	default: // MIDDLE or LAZY
		real := t.deriveLeafSlot(lf, cell.child(bit), errs)
		if s.Tag() == TagMiddle && !payloadEqual(s, real) {
			*errs = multierror.Append(*errs, fmt.Errorf("patricia: stale MIDDLE hash in leaf block"))
		}
		return real
	}
}

// deriveLeafSlot computes the true combined value of the cell at idx.
func (t *Tree) deriveLeafSlot(lf *leafBlock, idx uint16, errs **multierror.Error) Slot {
	return t.deriveLeafNode(lf, idx, errs)
}

// auditTerminalSet checks that the TERMINAL values collected during
// traversal, sorted, match the caller's expected element list, also
// sorted.
func auditTerminalSet(terms []Slot, expected [][32]byte, errs **multierror.Error) {
	got := make([]Slot, len(terms))
	copy(got, terms)
	sort.Slice(got, func(i, j int) bool { return payloadLess(got[i], got[j]) })

	want := make([]Slot, len(expected))
	for i, key := range expected {
		want[i] = terminal(key)
	}
	sort.Slice(want, func(i, j int) bool { return payloadLess(want[i], want[j]) })

	if len(got) != len(want) {
		*errs = multierror.Append(*errs, fmt.Errorf("patricia: tree holds %d elements, expected %d", len(got), len(want)))
		return
	}
	for i := range got {
		if !payloadEqual(got[i], want[i]) {
			*errs = multierror.Append(*errs, fmt.Errorf("patricia: element at sorted position %d does not match expected set", i))
			return
		}
	}
}
