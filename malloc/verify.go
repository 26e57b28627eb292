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
	"sort"

	"github.com/pkg/errors"
)

type span struct {
	off, order int
}

// verify walks every free list and checks the links, the headers and that no two
// free blocks overlap. Free and allocated bytes must add up to the arena size.
func (a *Allocator) verify() error {
	if !a.inited {
		return nil
	}
	var spans []span
	for order := 0; order <= a.maxOrder; order++ {
		head := a.freeLists[a.listIndex(order)]
		if order < minOrder {
			if head != nilOffset {
				return errors.Errorf("order %d below minimum has a free list", order)
			}
			continue
		}
		prev := nilOffset
		limit := len(a.arena) >> order // more nodes than that means a cycle
		for off, i := head, 0; off != nilOffset; off, i = a.node(int(off)).next, i+1 {
			if i >= limit {
				return errors.Errorf("order %d: list longer than %d, cycle?", order, limit)
			}
			if int(off) >= len(a.arena) || int(off)&(1<<order-1) != 0 {
				return errors.Errorf("order %d: bad offset %d", order, off)
			}
			n := a.node(int(off))
			switch {
			case n.magic != magic:
				return errors.Errorf("order %d: block %d has bad magic %#x", order, off, n.magic)
			case !n.free:
				return errors.Errorf("order %d: block %d listed but not free", order, off)
			case int(n.order) != order:
				return errors.Errorf("order %d: block %d has order %d", order, off, n.order)
			case n.prev != prev:
				return errors.Errorf("order %d: block %d prev=%d, want %d", order, off, n.prev, prev)
			}
			spans = append(spans, span{int(off), order})
			prev = off
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].off < spans[j].off })
	free := 0
	for i, s := range spans {
		free += 1 << s.order
		if i > 0 {
			p := spans[i-1]
			if p.off+1<<p.order > s.off {
				return errors.Errorf("free blocks %d (order %d) and %d (order %d) overlap", p.off, p.order, s.off, s.order)
			}
		}
	}
	if free+a.allocatedBytes != len(a.arena) {
		return errors.Errorf("free %d + allocated %d != arena %d", free, a.allocatedBytes, len(a.arena))
	}
	return nil
}
