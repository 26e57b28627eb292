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
	"log"

	"github.com/pkg/errors"

	"github.com/cloudwego/buddy/malloc"
)

// Exhaust allocates blocks of size bytes until the allocator runs out of memory,
// then frees them all and checks that everything is available again.
// step, if not nil, is called after each successful allocation.
// It returns the number of blocks that fit.
func Exhaust(a Allocator, size int, step func(), l *log.Logger) (int, error) {
	l = logger(l)
	initial := a.Available()

	var held [][]byte
	for {
		b, err := a.Alloc(size)
		if err != nil {
			if !errors.Is(err, malloc.ErrOutOfMemory) {
				for _, b := range held {
					a.Free(b)
				}
				return len(held), errors.Wrap(err, "exhaust")
			}
			l.Printf("arena exhausted after %d blocks of %d bytes: %v", len(held), size, err)
			break
		}
		held = append(held, b)
		if step != nil {
			step()
		}
	}

	// one more must keep failing
	if b, err := a.Alloc(size); err == nil {
		held = append(held, b)
		for _, b := range held {
			a.Free(b)
		}
		return len(held), errors.New("exhaust: allocation succeeded after out of memory")
	}

	for _, b := range held {
		a.Free(b)
	}
	if got := a.Available(); got != initial {
		return len(held), errors.Errorf("exhaust: %d bytes available after freeing everything, want %d", got, initial)
	}
	l.Printf("freed %d blocks, %d bytes available", len(held), initial)
	return len(held), nil
}
