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
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
)

// doublingOrder is the plain loop form of roundOrder: start at size 1 and
// double until the size exceeds v.
func doublingOrder(v int) int {
	order, size := 0, 1
	for size <= v {
		size *= 2
		order++
	}
	return order
}

func TestRoundOrder(t *testing.T) {
	for v := 0; v <= 1<<16; v++ {
		p := roundOrder(v)
		if p != doublingOrder(v) {
			t.Fatalf("roundOrder(%d) = %d, want %d", v, p, doublingOrder(v))
		}
		if uint64(1)<<p <= uint64(v) {
			t.Fatalf("2^%d <= %d", p, v)
		}
		if p > 0 && 1<<(p-1) > v {
			t.Fatalf("2^%d > %d", p-1, v)
		}
	}

	// exact powers of two go one order up
	for k := 0; k < 62; k++ {
		assert.Equal(t, k+1, roundOrder(1<<k), "v=2^%d", k)
	}
	assert.Equal(t, bits.UintSize-1, roundOrder(int(^uint(0)>>1)))
}

func TestOrderForSize(t *testing.T) {
	assert.Equal(t, 8, headerSize)
	assert.Equal(t, 16, nodeSize)
	assert.Equal(t, 5, minOrder)

	tests := []struct {
		size  int
		order int
	}{
		{1, 5},
		{5, 5},
		{8, 5},  // raised to a node, 16 -> 32
		{20, 5}, // 28
		{23, 5},
		{24, 6}, // 32 is not < 32
		{56, 6},
		{1015, 10},
		{1016, 11}, // exactly 1024 with the header
		{1024, 11},
		{1 << 18, 19},
		{1<<20 - 9, 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.order, orderForSize(tt.size), "size=%d", tt.size)
	}
}
