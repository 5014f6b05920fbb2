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

// Package viewport computes which slice of the render-row sequence is visible
// for a scroll offset and keeps a small pool of reusable render slots.
package viewport

import (
	"sort"
)

// Window tracks the scroll position over a sequence of rows with fixed,
// estimated or measured heights. Heights and offsets are in the same unit
// (pixels for a browser, lines for a terminal).
type Window struct {
	viewportHeight int
	rowHeight      int
	overscan       int

	count    int
	estimate func(index int) int
	measured map[int]int

	offsets   []int // offsets[i] is the top of row i; offsets[count] is the total height
	minHeight int
	dirty     bool

	scroll int
	pool   *SlotPool
}

// New creates a window. rowHeight is the fixed height used when no per-row
// estimate is set; overscan is the total number of extra rows rendered around
// the visible range.
func New(viewportHeight, rowHeight, overscan int) *Window {
	if rowHeight < 1 {
		rowHeight = 1
	}
	if viewportHeight < 0 {
		viewportHeight = 0
	}
	if overscan < 0 {
		overscan = 0
	}
	w := &Window{
		viewportHeight: viewportHeight,
		rowHeight:      rowHeight,
		overscan:       overscan,
		measured:       map[int]int{},
		dirty:          true,
	}
	w.pool = NewSlotPool(w.Capacity() + overscan)
	return w
}

// SetRows replaces the sequence. estimate may be nil for fixed heights.
// Previous measurements are dropped because indexes now refer to other rows.
func (w *Window) SetRows(count int, estimate func(index int) int) {
	if count < 0 {
		count = 0
	}
	w.count = count
	w.estimate = estimate
	w.measured = map[int]int{}
	w.dirty = true
	w.clampScroll()
}

// Len returns the number of rows in the sequence.
func (w *Window) Len() int {
	return w.count
}

// Measure records the rendered height of a row, replacing its estimate.
func (w *Window) Measure(index, height int) {
	if index < 0 || index >= w.count || height < 1 {
		return
	}
	if w.measured[index] == height {
		return
	}
	w.measured[index] = height
	w.dirty = true
}

// SetViewportHeight changes the visible height and resizes the slot pool.
func (w *Window) SetViewportHeight(h int) {
	if h < 0 {
		h = 0
	}
	if h == w.viewportHeight {
		return
	}
	w.viewportHeight = h
	w.dirty = true
	w.pool.Resize(w.Capacity() + w.overscan)
	w.clampScroll()
}

// ViewportHeight returns the visible height.
func (w *Window) ViewportHeight() int {
	return w.viewportHeight
}

// Overscan returns the total number of extra rows rendered around the visible range.
func (w *Window) Overscan() int {
	return w.overscan
}

// HeightOf returns the current height of a row: measured, else estimated,
// else the fixed row height.
func (w *Window) HeightOf(index int) int {
	if h, ok := w.measured[index]; ok {
		return h
	}
	if w.estimate != nil {
		if h := w.estimate(index); h > 0 {
			return h
		}
	}
	return w.rowHeight
}

func (w *Window) layout() {
	if !w.dirty {
		return
	}
	if cap(w.offsets) < w.count+1 {
		w.offsets = make([]int, w.count+1)
	} else {
		w.offsets = w.offsets[:w.count+1]
	}
	w.minHeight = w.rowHeight
	top := 0
	for i := 0; i < w.count; i++ {
		w.offsets[i] = top
		h := w.HeightOf(i)
		if h < w.minHeight {
			w.minHeight = h
		}
		top += h
	}
	w.offsets[w.count] = top
	w.dirty = false
}

// TotalHeight returns the height of the whole sequence.
func (w *Window) TotalHeight() int {
	w.layout()
	return w.offsets[w.count]
}

// OffsetOf returns the top of a row.
func (w *Window) OffsetOf(index int) int {
	w.layout()
	if index <= 0 {
		return 0
	}
	if index >= w.count {
		return w.offsets[w.count]
	}
	return w.offsets[index]
}

// Capacity returns the most rows that can be visible at once: the viewport
// divided by the smallest row height, plus one for a partially visible row.
func (w *Window) Capacity() int {
	w.layout()
	m := w.minHeight
	if m < 1 {
		m = 1
	}
	return (w.viewportHeight+m-1)/m + 1
}

// MaxScroll returns the largest valid scroll offset.
func (w *Window) MaxScroll() int {
	return max(0, w.TotalHeight()-w.viewportHeight)
}

func (w *Window) clampScroll() {
	w.scroll = min(max(0, w.scroll), w.MaxScroll())
}

// ScrollTo sets the scroll offset, clamped to the sequence.
func (w *Window) ScrollTo(offset int) {
	w.scroll = offset
	w.clampScroll()
}

// ScrollBy moves the scroll offset by delta.
func (w *Window) ScrollBy(delta int) {
	w.ScrollTo(w.scroll + delta)
}

// ScrollOffset returns the current scroll offset.
func (w *Window) ScrollOffset() int {
	return w.scroll
}

// EnsureVisible scrolls the minimum amount that brings a row fully into view.
func (w *Window) EnsureVisible(index int) {
	if index < 0 || index >= w.count {
		return
	}
	top := w.OffsetOf(index)
	bottom := top + w.HeightOf(index)
	switch {
	case top < w.scroll:
		w.ScrollTo(top)
	case bottom > w.scroll+w.viewportHeight:
		w.ScrollTo(bottom - w.viewportHeight)
	}
}

// IndexAt returns the row covering offset.
func (w *Window) IndexAt(offset int) int {
	w.layout()
	if w.count == 0 {
		return 0
	}
	// first row whose bottom is below offset
	i := sort.Search(w.count, func(i int) bool { return w.offsets[i+1] > offset })
	return min(i, w.count-1)
}

// VisibleRange returns the strictly visible rows as a half-open range.
func (w *Window) VisibleRange() (start, end int) {
	if w.count == 0 {
		return 0, 0
	}
	w.layout()
	start = w.IndexAt(w.scroll)
	bottom := w.scroll + w.viewportHeight
	end = sort.Search(w.count, func(i int) bool { return w.offsets[i] >= bottom })
	if end <= start {
		end = start + 1
	}
	end = min(end, start+w.Capacity(), w.count)
	return start, end
}

// Range returns the rows to render: the visible range widened by overscan,
// split before and after. end-start never exceeds Capacity()+Overscan().
func (w *Window) Range() (start, end int) {
	vs, ve := w.VisibleRange()
	if w.count == 0 {
		return 0, 0
	}
	before := w.overscan / 2
	after := w.overscan - before
	return max(0, vs-before), min(w.count, ve+after)
}

// Slots binds the render range to the slot pool and returns the slots in
// render order. bind fills a slot that was (re)bound to a new index.
func (w *Window) Slots(bind func(s *Slot, index int)) []*Slot {
	start, end := w.Range()
	if need := end - start; need > w.pool.Size() {
		w.pool.Resize(need)
	}
	return w.pool.Bind(start, end, bind)
}

// Pool exposes the slot pool.
func (w *Window) Pool() *SlotPool {
	return w.pool
}
