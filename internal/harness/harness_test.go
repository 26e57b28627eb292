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


package harness

import (
	"bytes"
	"context"
	"log"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/buddy/malloc"
)

func newTestAllocator(t *testing.T, maxOrder int) *malloc.Allocator {
	t.Helper()
	a, err := malloc.NewAllocator(&malloc.Option{MaxOrder: maxOrder, Source: malloc.HeapSource()})
	require.NoError(t, err)
	return a
}

func TestSmoke(t *testing.T) {
	a := newTestAllocator(t, malloc.DefaultMaxOrder)
	initial := a.Available()

	var buf bytes.Buffer
	require.NoError(t, Smoke(a, log.New(&buf, "", 0)))
	assert.Contains(t, buf.String(), "reuse of freed memory passed")
	assert.Contains(t, buf.String(), "large allocation passed")
	assert.Equal(t, initial, a.Available())
	assert.Equal(t, 0, a.Stats().AllocatedBlocks)
}

func TestSmokeTooSmall(t *testing.T) {
	// 512 bytes can't hold the 1KB block
	a := newTestAllocator(t, 9)
	assert.Error(t, Smoke(a, nil))
	assert.Equal(t, 0, a.Stats().AllocatedBlocks)
}

func TestExhaust(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{1024, 512},        // 2KB blocks
		{1015, 1024},       // 1KB blocks
		{1, 1 << 15},       // 32B blocks
		{1 << 18, 2},       // 512KB blocks
		{1<<20 - 9, 1},     // the whole arena
		{(1 << 19) - 8, 1}, // exactly 2^19 with the header, goes one order up
	}
	for _, tt := range tests {
		a := newTestAllocator(t, malloc.DefaultMaxOrder)
		var steps int
		n, err := Exhaust(a, tt.size, func() { steps++ }, nil)
		require.NoError(t, err, "size=%d", tt.size)
		assert.Equal(t, tt.want, n, "size=%d", tt.size)
		assert.Equal(t, tt.want, steps, "size=%d", tt.size)
	}
}

func TestExhaustInvalid(t *testing.T) {
	a := newTestAllocator(t, 12)
	_, err := Exhaust(a, 0, nil, nil)
	assert.ErrorIs(t, err, malloc.ErrInvalidSize)
}

func TestStress(t *testing.T) {
	a := newTestAllocator(t, malloc.DefaultMaxOrder)
	initial := a.Available()

	var steps int
	err := Stress(context.Background(), a, &StressOption{
		Iters:   20000,
		MaxSize: 64 << 10,
		Step:    func() { steps++ },
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, initial, a.Available())
	assert.Greater(t, steps, 0)
}

func TestStressOptions(t *testing.T) {
	a := newTestAllocator(t, 12)
	assert.Error(t, Stress(context.Background(), a, &StressOption{Iters: 1, MaxSize: 0}, nil))
	assert.Error(t, Stress(context.Background(), a, &StressOption{Iters: 1, MaxSize: 1 << 12}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Stress(ctx, a, &StressOption{Iters: 10, MaxSize: 100}, nil), context.Canceled)
}

func TestParallel(t *testing.T) {
	s, err := malloc.NewSyncAllocator(&malloc.Option{MaxOrder: malloc.DefaultMaxOrder, Source: malloc.HeapSource()})
	require.NoError(t, err)

	var steps int64
	err = Parallel(context.Background(), s, 4, &StressOption{
		Iters:   5000,
		MaxSize: 8 << 10,
		Step:    func() { atomic.AddInt64(&steps, 1) },
	}, nil)
	require.NoError(t, err)
	// out of memory iterations don't count as a step
	got := atomic.LoadInt64(&steps)
	assert.Greater(t, got, int64(0))
	assert.LessOrEqual(t, got, int64(4*5000))
	assert.Equal(t, 0, s.Stats().AllocatedBlocks)

	assert.Error(t, Parallel(context.Background(), s, 0, nil, nil))
}
