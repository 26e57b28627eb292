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


// Package arena acquires the fixed-size regions backing a buddy allocator.
//
// Regions returned by this package are read/write, zero-filled and never shrink.
// A mapped region is released only by Unmap; allocators in this module never do so.
package arena

import (
	"github.com/pkg/errors"
)

// ErrInvalidSize is returned when a region of size <= 0 is requested.
var ErrInvalidSize = errors.New("arena: size must be positive")

// Map returns an anonymous, private, read/write mapping of exactly size bytes.
// The memory is zero-filled by the OS.
// On platforms without mmap support it falls back to Heap.
func Map(size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "map %d bytes", size)
	}
	b, err := osMapAnon(size)
	if err != nil {
		return nil, errors.Wrapf(err, "arena: map %d bytes", size)
	}
	return b, nil
}

// Unmap releases a region returned by Map.
func Unmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return errors.Wrap(osUnmap(b), "arena: unmap")
}

// Heap returns a zeroed region of exactly size bytes allocated by the Go runtime.
// It's mainly for tests and for platforms where Map is unavailable.
func Heap(size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "heap %d bytes", size)
	}
	return make([]byte, size), nil
}
