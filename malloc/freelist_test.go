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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEmptyLists returns an allocator with an arena but all free lists empty.
func newEmptyLists(t *testing.T, maxOrder int) *Allocator {
	t.Helper()
	a := newTestAllocator(t, maxOrder)
	require.NoError(t, a.ensureArena())
	for i := range a.freeLists {
		a.freeLists[i] = nilOffset
	}
	return a
}

func listOffsets(a *Allocator, order int) []int {
	var ret []int
	for off := a.freeLists[a.listIndex(order)]; off != nilOffset; off = a.node(int(off)).next {
		ret = append(ret, int(off))
	}
	return ret
}

func TestFreeListPushPop(t *testing.T) {
	a := newEmptyLists(t, 10)

	for _, off := range []int{0, 64, 128} {
		a.reset(off, 6)
		a.push(off, 6)
	}
	// head insertion
	assert.Equal(t, []int{128, 64, 0}, listOffsets(a, 6))
	assert.Equal(t, nilOffset, a.node(128).prev)
	assert.Equal(t, uint32(128), a.node(64).prev)

	off, ok := a.pop(6)
	require.True(t, ok)
	assert.Equal(t, 128, off)
	assert.Equal(t, nilOffset, a.node(64).prev)
	assert.Equal(t, nilOffset, a.node(128).next)
	assert.Equal(t, []int{64, 0}, listOffsets(a, 6))

	_, ok = a.pop(5)
	assert.False(t, ok)
}

func TestFreeListRemove(t *testing.T) {
	tests := []struct {
		name   string
		remove int
		want   []int
	}{
		{"head", 256, []int{128, 0}},
		{"middle", 128, []int{256, 0}},
		{"tail", 0, []int{256, 128}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newEmptyLists(t, 10)
			for _, off := range []int{0, 128, 256} {
				a.reset(off, 7)
				a.push(off, 7)
			}
			a.remove(tt.remove, 7)
			assert.Equal(t, tt.want, listOffsets(a, 7))
			assert.Equal(t, nilOffset, a.node(tt.remove).prev)
			assert.Equal(t, nilOffset, a.node(tt.remove).next)
			assert.Equal(t, nilOffset, a.node(tt.want[0]).prev)
			assert.Equal(t, uint32(tt.want[0]), a.node(tt.want[1]).prev)
		})
	}

	t.Run("only", func(t *testing.T) {
		a := newEmptyLists(t, 10)
		a.reset(512, 9)
		a.push(512, 9)
		a.remove(512, 9)
		assert.Empty(t, listOffsets(a, 9))
	})
}

func TestFreeListReset(t *testing.T) {
	a := newEmptyLists(t, 10)
	n := a.stamp(64, 6, false)
	n.prev, n.next = 1, 2

	a.reset(64, 6)
	assert.Equal(t, magic, n.magic)
	assert.True(t, n.free)
	assert.Equal(t, uint8(6), n.order)
	assert.Equal(t, nilOffset, n.prev)
	assert.Equal(t, nilOffset, n.next)
}
