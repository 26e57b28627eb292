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

// Free lists are intrusive doubly linked lists threaded through the free blocks.
// freeLists[maxOrder-k] is the offset of the head block of order k.

func (a *Allocator) listIndex(order int) int {
	return a.maxOrder - order
}

// reset turns the block at off into an unlinked free block of the given order.
func (a *Allocator) reset(off, order int) {
	a.stamp(off, order, true)
}

// push inserts the free block at off at the head of its list.
func (a *Allocator) push(off, order int) {
	i := a.listIndex(order)
	n := a.node(off)
	n.prev = nilOffset
	n.next = a.freeLists[i]
	if n.next != nilOffset {
		a.node(int(n.next)).prev = uint32(off)
	}
	a.freeLists[i] = uint32(off)
}

// pop detaches the head of the list of the given order.
func (a *Allocator) pop(order int) (int, bool) {
	i := a.listIndex(order)
	head := a.freeLists[i]
	if head == nilOffset {
		return 0, false
	}
	n := a.node(int(head))
	a.freeLists[i] = n.next
	if n.next != nilOffset {
		a.node(int(n.next)).prev = nilOffset
	}
	n.next = nilOffset
	return int(head), true
}

// remove detaches the free block at off from anywhere in its list.
func (a *Allocator) remove(off, order int) {
	n := a.node(off)
	if n.prev == nilOffset {
		a.freeLists[a.listIndex(order)] = n.next
	} else {
		a.node(int(n.prev)).next = n.next
	}
	if n.next != nilOffset {
		a.node(int(n.next)).prev = n.prev
	}
	n.prev = nilOffset
	n.next = nilOffset
}
