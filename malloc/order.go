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

import "math/bits"

// roundOrder returns the smallest order p such that 2^p > v.
//
// The comparison is strict: a value equal to 2^k maps to k+1, not k.
// bits.Len gives exactly that, v=0 -> 0, v=1 -> 1, v=8 -> 4.
func roundOrder(v int) int {
	return bits.Len(uint(v))
}

// orderForSize returns the order of the block serving a request of size bytes.
// The header is accounted for, and a block is never smaller than a free node,
// since it has to hold one once it's released.
func orderForSize(size int) int {
	v := size + headerSize
	if v < nodeSize {
		v = nodeSize
	}
	return roundOrder(v)
}
