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


// Package harness drives an allocator through the scenarios used to check it by
// hand: basic use and reuse, exhausting the arena, and random alloc/free runs
// verifying payload integrity.
package harness

import (
	"io"
	"log"

	"github.com/pkg/errors"

	"github.com/cloudwego/buddy/malloc"
	"github.com/cloudwego/buddy/unsafex"
)

// Allocator is what the scenarios need, both *malloc.Allocator and
// *malloc.SyncAllocator implement it.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(b []byte)
	Available() int
	MaxAlloc() int
}

var (
	_ Allocator = (*malloc.Allocator)(nil)
	_ Allocator = (*malloc.SyncAllocator)(nil)
)

func logger(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard, "", 0)
	}
	return l
}

// Smoke runs the basic scenario: allocate, write and read back strings, free a
// block and reuse it, then write a full 1KB pattern.
// Every block it allocates is freed before it returns.
func Smoke(a Allocator, l *log.Logger) error {
	l = logger(l)
	var held [][]byte
	defer func() {
		for _, b := range held {
			a.Free(b)
		}
	}()
	alloc := func(size int) ([]byte, error) {
		b, err := a.Alloc(size)
		if err != nil {
			return nil, errors.Wrapf(err, "smoke: alloc %d", size)
		}
		held = append(held, b)
		return b, nil
	}

	p1, err := alloc(1 << 10)
	if err != nil {
		return err
	}
	if err := putString(p1, "hello"); err != nil {
		return err
	}
	l.Printf("basic allocation passed")

	p2, err := alloc(20)
	if err != nil {
		return err
	}
	p3, err := alloc(5)
	if err != nil {
		return err
	}
	if err := putString(p2, "memory allocator"); err != nil {
		return err
	}
	if err := putString(p3, "hi"); err != nil {
		return err
	}
	// p1 must be untouched by the later allocations
	if s := unsafex.BinaryToString(p1[:5]); s != "hello" {
		return errors.Errorf("smoke: first block changed to %q", s)
	}
	l.Printf("multiple allocations passed")

	a.Free(p1)
	held = held[1:]
	p4, err := alloc(8)
	if err != nil {
		return err
	}
	if err := putString(p4, "reuse"); err != nil {
		return err
	}
	l.Printf("reuse of freed memory passed")

	p6, err := alloc(1024)
	if err != nil {
		return err
	}
	for i := range p6 {
		p6[i] = byte(i % 256)
	}
	for i := range p6 {
		if p6[i] != byte(i%256) {
			return errors.Errorf("smoke: large block byte %d is %d", i, p6[i])
		}
	}
	l.Printf("large allocation passed")
	return nil
}

// putString writes s into b and reads it back.
func putString(b []byte, s string) error {
	if len(b) < len(s) {
		return errors.Errorf("smoke: %d byte block too small for %q", len(b), s)
	}
	copy(b, s)
	if got := unsafex.BinaryToString(b[:len(s)]); got != s {
		return errors.Errorf("smoke: read back %q, want %q", got, s)
	}
	return nil
}
