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
	"context"
	"log"

	"github.com/bytedance/gopkg/lang/dirtmake"
	"github.com/bytedance/gopkg/lang/fastrand"
	"github.com/bytedance/gopkg/util/xxhash3"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/cloudwego/buddy/malloc"
)

// StressOption ...
type StressOption struct {
	// Iters is the number of alloc or free operations per worker.
	Iters int

	// MaxSize is the largest size requested. Sizes are uniform in [1, MaxSize].
	MaxSize int

	// Step, if not nil, is called after each operation. It must be safe for
	// concurrent use when Parallel runs more than one worker.
	Step func()
}

// DefaultStressOption returns the default values of StressOption.
func DefaultStressOption() *StressOption {
	return &StressOption{
		Iters:   100000,
		MaxSize: 16 << 10,
	}
}

type block struct {
	b   []byte
	sum uint64
}

// Stress runs random allocations and frees against a. Every block is filled with
// random bytes on allocation and its checksum verified before it's freed, so a
// block overwritten by another allocation is caught.
// Out of memory is not an error, the run just frees more.
func Stress(ctx context.Context, a Allocator, o *StressOption, l *log.Logger) error {
	if o == nil {
		o = DefaultStressOption()
	}
	if o.MaxSize < 1 || o.MaxSize > a.MaxAlloc() {
		return errors.Errorf("stress: MaxSize must be in [1, %d], got %d", a.MaxAlloc(), o.MaxSize)
	}
	l = logger(l)

	var held []block
	defer func() {
		for _, b := range held {
			a.Free(b.b)
		}
	}()

	// scratch is overwritten before every use
	scratch := dirtmake.Bytes(o.MaxSize, o.MaxSize)
	oom := 0
	for i := 0; i < o.Iters; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if len(held) == 0 || fastrand.Intn(3) != 0 {
			size := 1 + fastrand.Intn(o.MaxSize)
			b, err := a.Alloc(size)
			if err != nil {
				if !errors.Is(err, malloc.ErrOutOfMemory) {
					return errors.Wrapf(err, "stress: iteration %d", i)
				}
				oom++
				continue
			}
			fill(scratch[:size])
			copy(b, scratch[:size])
			held = append(held, block{b: b, sum: xxhash3.Hash(scratch[:size])})
		} else {
			idx := fastrand.Intn(len(held))
			blk := held[idx]
			if sum := xxhash3.Hash(blk.b); sum != blk.sum {
				return errors.Errorf("stress: iteration %d: %d byte block corrupted", i, len(blk.b))
			}
			a.Free(blk.b)
			held[idx] = held[len(held)-1]
			held = held[:len(held)-1]
		}
		if o.Step != nil {
			o.Step()
		}
	}

	for _, blk := range held {
		if sum := xxhash3.Hash(blk.b); sum != blk.sum {
			return errors.Errorf("stress: %d byte block corrupted at the end of the run", len(blk.b))
		}
	}
	l.Printf("stress: %d operations, %d out of memory, %d blocks held at the end", o.Iters, oom, len(held))
	return nil
}

func fill(b []byte) {
	for i := 0; i+4 <= len(b); i += 4 {
		v := fastrand.Uint32()
		b[i], b[i+1], b[i+2], b[i+3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	}
	for i := len(b) &^ 3; i < len(b); i++ {
		b[i] = byte(fastrand.Uint32())
	}
}

// Parallel runs Stress on workers goroutines sharing a.
// a must be safe for concurrent use, like *malloc.SyncAllocator.
func Parallel(ctx context.Context, a Allocator, workers int, o *StressOption, l *log.Logger) error {
	if workers < 1 {
		return errors.Errorf("parallel: workers must be positive, got %d", workers)
	}
	l = logger(l)
	initial := a.Available()

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			return errors.Wrapf(Stress(ctx, a, o, nil), "worker %d", w)
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "parallel")
	}
	if got := a.Available(); got != initial {
		return errors.Errorf("parallel: %d bytes available after the run, want %d", got, initial)
	}
	l.Printf("parallel: %d workers done, %d bytes available", workers, initial)
	return nil
}
