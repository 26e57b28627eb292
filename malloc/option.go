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
	"github.com/pkg/errors"

	"github.com/cloudwego/buddy/internal/arena"
)

const (
	// DefaultMaxOrder is the default arena order: 2^20 bytes (1MB).
	DefaultMaxOrder = 20

	// maxOrderLimit bounds MaxOrder so that every offset fits in a uint32 link.
	maxOrderLimit = 31
)

// ArenaSource acquires the memory region backing an Allocator.
// It's called with the exact size wanted and must return a zero-filled,
// writable slice of that length.
type ArenaSource func(size int) ([]byte, error)

// Option ...
type Option struct {
	// MaxOrder is log2 of the arena size. It's also the order of the largest block.
	MaxOrder int

	// Source acquires the arena on the first Alloc.
	// If nil, an anonymous memory mapping is used.
	Source ArenaSource
}

// DefaultOption returns the default values of Option.
func DefaultOption() *Option {
	return &Option{
		MaxOrder: DefaultMaxOrder,
		Source:   arena.Map,
	}
}

// HeapSource returns an ArenaSource backed by the Go heap.
func HeapSource() ArenaSource {
	return arena.Heap
}

// FixedSource returns an ArenaSource handing out buf.
// buf must be exactly 2^MaxOrder bytes and must not be used by anything else.
func FixedSource(buf []byte) ArenaSource {
	return func(size int) ([]byte, error) {
		if len(buf) != size {
			return nil, errors.Errorf("fixed arena has %d bytes, want %d", len(buf), size)
		}
		return buf, nil
	}
}

func (o *Option) validate() error {
	if o.MaxOrder < minOrder || o.MaxOrder > maxOrderLimit {
		return errors.Errorf("MaxOrder must be in [%d, %d], got %d", minOrder, maxOrderLimit, o.MaxOrder)
	}
	return nil
}
