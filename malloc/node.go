/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package malloc

import "unsafe"

// Every block starts with a blockHeader. While the block is free, the bytes right
// after the header hold the free list links, so a free block is read as a freeNode.
// An allocated block only ever uses the header; the rest is the caller's payload.
//
// All reinterpretation of arena bytes happens in this file.

// blockHeader layout: [4 bytes magic][1 byte order][1 byte free][2 bytes padding]
type blockHeader struct {
	magic uint32
	order uint8
	free  bool
	_     [2]byte
}

type freeNode struct {
	blockHeader

	// offsets of the neighbours in the same free list, nilOffset if none.
	prev uint32
	next uint32
}

const (
	// headerSize is the size of the header in front of each payload.
	headerSize = int(unsafe.Sizeof(blockHeader{}))

	// nodeSize is the smallest block able to sit in a free list.
	nodeSize = int(unsafe.Sizeof(freeNode{}))

	// magic marks a header written by this package.
	magic uint32 = 0xBADF00D

	nilOffset = ^uint32(0)
)

// minOrder is the order of the smallest block, 32 bytes with a 16-byte node.
var minOrder = roundOrder(nodeSize)

// node returns the block at off viewed as a free node.
// Indexing a.arena keeps the access bounds checked.
func (a *Allocator) node(off int) *freeNode {
	return (*freeNode)(unsafe.Pointer(&a.arena[off]))
}

// stamp writes a fresh header with no links at off.
func (a *Allocator) stamp(off, order int, free bool) *freeNode {
	n := a.node(off)
	n.magic = magic
	n.order = uint8(order)
	n.free = free
	n.prev = nilOffset
	n.next = nilOffset
	return n
}
