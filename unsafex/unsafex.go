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


// Package unsafex holds the few pointer conversions the allocator needs.
package unsafex

import "unsafe"

// BinaryToString converts []byte to string without copy.
// The string aliases b; it changes whenever b does.
func BinaryToString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// Offset returns the distance in bytes from the start of base to the start of b.
// The result is negative or >= len(base) if b doesn't point into base.
//
// It uses the data pointer of b directly, so it works on zero-length slices too,
// as long as cap(b) > 0.
func Offset(base, b []byte) int {
	if cap(base) == 0 {
		return -1
	}
	p := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	start := uintptr(unsafe.Pointer(unsafe.SliceData(base)))
	return int(p - start)
}
