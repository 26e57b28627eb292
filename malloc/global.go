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

var defaultAllocator, _ = NewAllocator(DefaultOption())

// Malloc allocates size bytes from the process wide allocator.
// The arena is mapped by the first call. It returns nil on failure.
//
// Malloc and Free aren't safe for concurrent use.
func Malloc(size int) []byte {
	b, err := defaultAllocator.Alloc(size)
	if err != nil {
		return nil
	}
	return b
}

// Free returns buf to the process wide allocator.
// See (*Allocator).Free for details.
func Free(buf []byte) {
	defaultAllocator.Free(buf)
}
