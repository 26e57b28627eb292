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

import "github.com/pkg/errors"

var (
	// ErrInvalidSize is returned by Alloc for sizes < 1.
	ErrInvalidSize = errors.New("buddy: invalid size")

	// ErrOutOfMemory is returned by Alloc when no block of the required order
	// can be produced, even after splitting, or when the size exceeds the largest block.
	ErrOutOfMemory = errors.New("buddy: out of memory")

	// ErrArenaUnavailable is returned by Alloc when the arena can't be acquired.
	// The allocator stays uninitialized and the next Alloc tries again.
	ErrArenaUnavailable = errors.New("buddy: arena unavailable")
)
