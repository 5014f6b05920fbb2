/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Taxinomia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package viewport

import (
	"sort"

	"github.com/google/rowgrid/core/rows"
)

// Slot is a reusable render target. A slot carries no row identity of its own;
// anything that must survive scrolling (selection, expansion) is keyed by the
// row's identity, never by the slot.
type Slot struct {
	ID    int
	Index int
	Row   rows.RenderRow

	// Row-specific visual state, cleared whenever the slot is rebound.
	Height    int
	FullWidth bool
	Content   string
	Classes   []string
	Attrs     map[string]string
	HandledBy string
}

// Bound reports whether the slot currently shows a row.
func (s *Slot) Bound() bool {
	return s.Index >= 0
}

// AddClass appends a CSS-style class once.
func (s *Slot) AddClass(class string) {
	for _, c := range s.Classes {
		if c == class {
			return
		}
	}
	s.Classes = append(s.Classes, class)
}

// HasClass reports whether class is set.
func (s *Slot) HasClass(class string) bool {
	for _, c := range s.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// SetAttr sets a render attribute.
func (s *Slot) SetAttr(key, value string) {
	if s.Attrs == nil {
		s.Attrs = map[string]string{}
	}
	s.Attrs[key] = value
}

func (s *Slot) reset() {
	s.Index = -1
	s.Row = rows.RenderRow{}
	s.Height = 0
	s.FullWidth = false
	s.Content = ""
	s.Classes = s.Classes[:0]
	s.Attrs = nil
	s.HandledBy = ""
}

// SlotPool is a fixed set of slots. Index i is always served by slot
// i % Size(), so scrolling by one row rebinds exactly one slot.
type SlotPool struct {
	slots   []*Slot
	rebinds int
}

// NewSlotPool creates a pool with size slots.
func NewSlotPool(size int) *SlotPool {
	p := &SlotPool{}
	p.Resize(size)
	return p
}

// Size returns the number of slots.
func (p *SlotPool) Size() int {
	return len(p.slots)
}

// Rebinds returns how many times a slot has been bound to a different row.
func (p *SlotPool) Rebinds() int {
	return p.rebinds
}

// Resize rebuilds the pool with size slots, all unbound.
func (p *SlotPool) Resize(size int) {
	if size < 1 {
		size = 1
	}
	if size == len(p.slots) {
		return
	}
	p.slots = make([]*Slot, size)
	for i := range p.slots {
		s := &Slot{ID: i}
		s.reset()
		p.slots[i] = s
	}
}

// Bind assigns rows [start, end) to slots. A slot moving to a different index
// or row identity is reset before bind is called for it; slots that keep their
// row are returned untouched. Slots outside the range are released.
func (p *SlotPool) Bind(start, end int, bind func(s *Slot, index int)) []*Slot {
	if end-start > len(p.slots) {
		p.Resize(end - start)
	}
	inRange := make(map[int]bool, end-start)
	out := make([]*Slot, 0, end-start)
	for i := start; i < end; i++ {
		s := p.slots[i%len(p.slots)]
		inRange[s.ID] = true
		if s.Index != i {
			if s.Bound() {
				p.rebinds++
			}
			s.reset()
			s.Index = i
			if bind != nil {
				bind(s, i)
			}
		}
		out = append(out, s)
	}
	for _, s := range p.slots {
		if !inRange[s.ID] && s.Bound() {
			s.reset()
		}
	}
	return out
}

// Invalidate unbinds every slot so the next Bind rebuilds them all. It is
// used when a new pass replaces the sequence.
func (p *SlotPool) Invalidate() {
	for _, s := range p.slots {
		s.reset()
	}
}

// Bound returns the bound slots ordered by index.
func (p *SlotPool) Bound() []*Slot {
	var out []*Slot
	for _, s := range p.slots {
		if s.Bound() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
