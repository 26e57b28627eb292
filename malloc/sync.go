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

import "sync"

// SyncAllocator is an Allocator guarded by a single mutex.
type SyncAllocator struct {
	mu sync.Mutex
	a  *Allocator
}

// NewSyncAllocator creates a SyncAllocator, see NewAllocator.
func NewSyncAllocator(o *Option) (*SyncAllocator, error) {
	a, err := NewAllocator(o)
	if err != nil {
		return nil, err
	}
	return &SyncAllocator{a: a}, nil
}

// Alloc ...
func (s *SyncAllocator) Alloc(size int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Alloc(size)
}

// Free ...
func (s *SyncAllocator) Free(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Free(b)
}

// Available ...
func (s *SyncAllocator) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Available()
}

// Stats ...
func (s *SyncAllocator) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Stats()
}

// Reset ...
func (s *SyncAllocator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Reset()
}

// MaxAlloc ...
func (s *SyncAllocator) MaxAlloc() int {
	return s.a.MaxAlloc()
}
