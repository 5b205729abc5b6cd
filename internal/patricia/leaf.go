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

// noChild marks an unused child pointer inside a leaf cell. Cell indices
// handed out by alloc are one-based precisely so that the zero value of a
// freshly allocated Go slice already means "no child" without any extra
// initialization step.
const noChild = 0

// leafCell is one node of the linked-list patricia tree living inside a
// leaf block. Unlike a branch block's fixed array heap, a leaf's tree can
// grow to any depth and shape, so each cell carries explicit one-based
// child indices into the same block instead of relying on arithmetic
// addressing.
type leafCell struct {
	left, right           Slot
	leftChild, rightChild uint16 // one-based index into the owning block; 0 = none
	inUse                 bool
	nextFree              uint16 // one-based index of the next free cell; 0 = end of list
}

// leafBlock is a fixed-capacity arena of node cells with a free-list.
// numInputs counts how many branch cross-references land inside this
// block; when it drops to zero the block is dead and can be freed.
type leafBlock struct {
	cells     []leafCell
	freeHead  uint16 // one-based index of the first free cell; 0 = none free
	numInputs uint16
}

func newLeafBlock(units uint16) *leafBlock {
	l := &leafBlock{
		cells:    make([]leafCell, units),
		freeHead: 1,
	}
	for i := range l.cells {
		if uint16(i+1) == units {
			l.cells[i].nextFree = 0
		} else {
			l.cells[i].nextFree = uint16(i + 2)
		}
	}
	return l
}

// alloc pulls one cell off the free-list. It returns ok == false if the
// block is full.
func (l *leafBlock) alloc() (uint16, bool) {
	if l.freeHead == 0 {
		return 0, false
	}
	idx := l.freeHead
	cell := &l.cells[idx-1]
	l.freeHead = cell.nextFree
	*cell = leafCell{inUse: true}
	return idx, true
}

// free returns a cell to the free-list. The caller must have already
// detached it from every parent pointer.
func (l *leafBlock) free(idx uint16) {
	l.cells[idx-1] = leafCell{nextFree: l.freeHead}
	l.freeHead = idx
}

func (l *leafBlock) get(idx uint16) *leafCell {
	return &l.cells[idx-1]
}

// slot returns a pointer to the cell's slot for the given bit.
func (c *leafCell) slot(bit int) *Slot {
	if bit == 0 {
		return &c.left
	}
	return &c.right
}

func (c *leafCell) sibling(bit int) *Slot {
	return c.slot(bit ^ 1)
}

// child returns the one-based index of the cell's child along bit; zero
// means none.
func (c *leafCell) child(bit int) uint16 {
	if bit == 0 {
		return c.leftChild
	}
	return c.rightChild
}

func (c *leafCell) setChild(bit int, idx uint16) {
	if bit == 0 {
		c.leftChild = idx
	} else {
		c.rightChild = idx
	}
}

// freeCount walks the free-list, used by the auditor to confirm it
// enumerates exactly the cells not reachable from a live root.
func (l *leafBlock) freeCount() int {
	n := 0
	for idx := l.freeHead; idx != 0; idx = l.cells[idx-1].nextFree {
		n++
	}
	return n
}
