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


// Package malloc implements a buddy system allocator over one fixed-size arena.
//
// The arena is 2^MaxOrder bytes and is acquired on the first Alloc. Every block
// is 2^k bytes for some order k, starts with an 8-byte header and is aligned to
// its own size inside the arena. Alloc splits larger free blocks in halves until
// a block of the wanted order exists; Free merges a block with its buddy for as
// long as the buddy is free, up to the whole arena.
//
// An Allocator is not safe for concurrent use, see SyncAllocator.
package malloc

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/cloudwego/buddy/unsafex"
)

// Allocator is a buddy system allocator.
type Allocator struct {
	// arena is the underlying memory we are managing, nil until the first Alloc.
	arena []byte

	// freeLists holds the head offset of the free list of each order.
	// freeLists[0] is for maxOrder blocks (the whole arena),
	// freeLists[maxOrder-k] is for blocks of order k.
	freeLists []uint32

	maxOrder int
	source   ArenaSource
	inited   bool

	allocated      int // number of allocated blocks
	allocatedBytes int // bytes of allocated blocks, headers included
}

// NewAllocator creates an allocator. The arena isn't acquired until the first Alloc.
// A nil o means DefaultOption().
func NewAllocator(o *Option) (*Allocator, error) {
	if o == nil {
		o = DefaultOption()
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	source := o.Source
	if source == nil {
		source = DefaultOption().Source
	}
	return &Allocator{
		freeLists: make([]uint32, o.MaxOrder+1),
		maxOrder:  o.MaxOrder,
		source:    source,
	}, nil
}

// MaxOrder returns log2 of the arena size.
func (a *Allocator) MaxOrder() int {
	return a.maxOrder
}

// MaxAlloc returns the largest size Alloc may serve, that is when the arena is empty.
func (a *Allocator) MaxAlloc() int {
	// 2^maxOrder must be strictly greater than size+headerSize
	return 1<<a.maxOrder - headerSize - 1
}

// Alloc allocates a block of memory of at least `size` bytes.
// It returns a slice of len size whose cap extends to the end of the block.
//
// Errors are ErrInvalidSize for size < 1, ErrOutOfMemory if no block is
// available, and ErrArenaUnavailable if the arena can't be acquired.
func (a *Allocator) Alloc(size int) ([]byte, error) {
	if size < 1 {
		return nil, errors.Wrapf(ErrInvalidSize, "alloc %d bytes", size)
	}
	if size > a.MaxAlloc() {
		return nil, errors.Wrapf(ErrOutOfMemory, "alloc %d bytes: larger than the arena allows (%d)", size, a.MaxAlloc())
	}
	order := orderForSize(size)
	if err := a.ensureArena(); err != nil {
		return nil, err
	}

	off, ok := a.request(order)
	if !ok {
		return nil, errors.Wrapf(ErrOutOfMemory, "alloc %d bytes (order %d)", size, order)
	}
	a.stamp(off, order, false)
	a.allocated++
	a.allocatedBytes += 1 << order

	start := off + headerSize
	return a.arena[start : start+size : off+1<<order], nil
}

// ensureArena acquires the arena and installs it as a single free block.
// On failure nothing is recorded, so the next call tries again.
func (a *Allocator) ensureArena() error {
	if a.inited {
		return nil
	}
	size := 1 << a.maxOrder
	b, err := a.source(size)
	if err != nil {
		return errors.Wrapf(ErrArenaUnavailable, "acquire %d bytes: %v", size, err)
	}
	if len(b) != size {
		return errors.Wrapf(ErrArenaUnavailable, "source returned %d bytes, want %d", len(b), size)
	}
	// headers hold uint32 fields
	if uintptr(unsafe.Pointer(&b[0]))%8 != 0 {
		return errors.Wrap(ErrArenaUnavailable, "arena is not 8-byte aligned")
	}
	a.arena = b[:size:size]
	a.installRoot()
	a.inited = true
	return nil
}

func (a *Allocator) installRoot() {
	for i := range a.freeLists {
		a.freeLists[i] = nilOffset
	}
	a.reset(0, a.maxOrder)
	a.push(0, a.maxOrder)
	a.allocated = 0
	a.allocatedBytes = 0
}

// request returns the offset of a block of the given order, which isn't in any list.
// On a miss it takes a block one order up and splits it: the first half is
// returned and the second half, its buddy, goes to the free list.
func (a *Allocator) request(order int) (int, bool) {
	if off, ok := a.pop(order); ok {
		return off, true
	}
	if order == a.maxOrder {
		return 0, false
	}
	off, ok := a.request(order + 1)
	if !ok {
		return 0, false
	}
	buddy := off + 1<<order
	a.reset(off, order)
	a.reset(buddy, order)
	a.push(buddy, order)
	return off, true
}

// Free returns a block of memory to the allocator.
// Freeing a nil or zero-cap slice does nothing.
//
// Panics if the block doesn't belong to this allocator or has already been freed.
//
// IMPORTANT: The block must be the slice returned by Alloc, resliced at most
// as b[:n]. A slice not starting at the payload start fails the header check.
func (a *Allocator) Free(b []byte) {
	if cap(b) == 0 {
		return
	}
	off := unsafex.Offset(a.arena, b) - headerSize
	if !a.inited || off < 0 || off >= len(a.arena) {
		panic("buddy: block not in arena")
	}

	n := a.node(off)
	if n.magic != magic {
		panic("buddy: invalid block")
	}
	order := int(n.order)
	if order < minOrder || order > a.maxOrder {
		panic("buddy: corrupted header")
	}
	if off&(1<<order-1) != 0 {
		panic("buddy: misaligned block")
	}
	if n.free {
		panic("buddy: double free")
	}
	if cap(b) != 1<<order-headerSize {
		panic("buddy: invalid block size")
	}

	n.free = true
	a.allocated--
	a.allocatedBytes -= 1 << order
	a.coalesce(off, order)
}

// coalesce merges the free, unlisted block at off with its buddy for as long as
// the buddy is free and of the same order, then lists the result.
func (a *Allocator) coalesce(off, order int) {
	if order == a.maxOrder {
		a.reset(off, order)
		a.push(off, order)
		return
	}

	buddy := off ^ 1<<order
	bn := a.node(buddy)
	if !bn.free || int(bn.order) != order || bn.magic != magic {
		a.reset(off, order)
		a.push(off, order)
		return
	}

	// the buddy leaves its list before the pair is treated as one block
	a.remove(buddy, order)
	parent := off &^ (1 << order)
	// the upper half's header is now inside the parent's payload
	a.node(parent + 1<<order).magic = 0
	a.reset(parent, order+1)
	a.coalesce(parent, order+1)
}

// Stats is a snapshot of an allocator's state.
type Stats struct {
	// FreeBlocks[k] is the number of free blocks of order k.
	FreeBlocks []int

	FreeBytes       int
	AllocatedBlocks int
	AllocatedBytes  int
}

// Stats returns the current free block counts.
// Before the first Alloc the whole arena is reported as one free block.
func (a *Allocator) Stats() Stats {
	s := Stats{
		FreeBlocks:      make([]int, a.maxOrder+1),
		AllocatedBlocks: a.allocated,
		AllocatedBytes:  a.allocatedBytes,
	}
	if !a.inited {
		s.FreeBlocks[a.maxOrder] = 1
		s.FreeBytes = 1 << a.maxOrder
		return s
	}
	for order := minOrder; order <= a.maxOrder; order++ {
		for off := a.freeLists[a.listIndex(order)]; off != nilOffset; off = a.node(int(off)).next {
			s.FreeBlocks[order]++
			s.FreeBytes += 1 << order
		}
	}
	return s
}

// Available returns the total payload bytes of all free blocks.
func (a *Allocator) Available() int {
	s := a.Stats()
	total := 0
	for order, n := range s.FreeBlocks {
		total += n * (1<<order - headerSize)
	}
	return total
}

// Reset clears all allocations and returns the allocator to its initial state.
// The arena is kept; slices returned by Alloc must not be used afterwards.
func (a *Allocator) Reset() {
	if !a.inited {
		return
	}
	a.installRoot()
}
