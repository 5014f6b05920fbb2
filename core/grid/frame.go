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

package grid

import (
	"maps"
	"slices"

	"github.com/google/rowgrid/core/rows"
	"github.com/google/rowgrid/core/viewport"
)

// FrameRow is a snapshot of one bound slot.
type FrameRow struct {
	Index     int
	Slot      int
	Offset    int
	Height    int
	Row       rows.RenderRow
	FullWidth bool
	Content   string
	Classes   []string
	Attrs     map[string]string
	HandledBy string
}

// HasClass reports whether class is set on the row.
func (r FrameRow) HasClass(class string) bool {
	return slices.Contains(r.Classes, class)
}

// Frame is what a front end paints: the rows of the render range with their
// slot decorations.
type Frame struct {
	Seq          int
	Instance     string
	Reasons      []string
	Start        int
	End          int
	VisibleStart int
	VisibleEnd   int
	ScrollOffset int
	TotalHeight  int
	RowCount     int
	Rows         []FrameRow
}

// Frame flushes pending work and renders the current window.
func (g *Grid) Frame() Frame {
	g.Flush()
	return g.render(nil)
}

func (g *Grid) render(reasons []string) Frame {
	g.seq++
	slots := g.window.Slots(g.bind)
	start, end := g.window.Range()
	vs, ve := g.window.VisibleRange()
	f := Frame{
		Seq:          g.seq,
		Instance:     g.id,
		Reasons:      reasons,
		Start:        start,
		End:          end,
		VisibleStart: vs,
		VisibleEnd:   ve,
		ScrollOffset: g.window.ScrollOffset(),
		TotalHeight:  g.window.TotalHeight(),
		RowCount:     len(g.rows),
		Rows:         make([]FrameRow, 0, len(slots)),
	}
	for _, s := range slots {
		// measurements can change a kept slot's height
		s.Height = g.window.HeightOf(s.Index)
		f.Rows = append(f.Rows, FrameRow{
			Index:     s.Index,
			Slot:      s.ID,
			Offset:    g.window.OffsetOf(s.Index),
			Height:    s.Height,
			Row:       s.Row,
			FullWidth: s.FullWidth,
			Content:   s.Content,
			Classes:   slices.Clone(s.Classes),
			Attrs:     maps.Clone(s.Attrs),
			HandledBy: s.HandledBy,
		})
	}
	// enter marks belong to the frame that follows the pass
	clear(g.entering)
	return f
}

// bind fills a slot newly bound to index i. The slot arrives reset.
func (g *Grid) bind(s *viewport.Slot, i int) {
	if i >= len(g.rows) {
		return
	}
	row := g.rows[i]
	s.Row = row
	if row.IsGroup() {
		s.AddClass("rg-group")
	} else {
		s.AddClass("rg-data")
	}
	if id := row.Identity(); row.IsData() {
		if _, ok := g.entering[id]; ok {
			s.AddClass(g.animation.Class())
		}
	}
	g.pipeline.RenderRow(row, s)
}

// ScrollTo moves the window to offset at the next frame, after any pending
// pass has re-laid out the rows. The offset is clamped then.
func (g *Grid) ScrollTo(offset int) {
	g.scroll = &scrollRequest{absolute: true, offset: offset}
	g.Invalidate(ReasonScroll)
}

// ScrollBy moves the window by delta at the next frame.
func (g *Grid) ScrollBy(delta int) {
	if g.scroll == nil {
		g.scroll = &scrollRequest{}
	}
	g.scroll.offset += delta
	g.Invalidate(ReasonScroll)
}

type scrollRequest struct {
	absolute bool
	offset   int
}

func (g *Grid) applyScroll() {
	if g.scroll == nil {
		return
	}
	if g.scroll.absolute {
		g.window.ScrollTo(g.scroll.offset)
	} else {
		g.window.ScrollBy(g.scroll.offset)
	}
	g.scroll = nil
}

// ScrollToRow scrolls the minimum distance that shows row index.
func (g *Grid) ScrollToRow(index int) {
	g.Flush()
	g.window.EnsureVisible(index)
	g.Invalidate(ReasonScroll)
}

// ScrollOffset returns the current scroll offset.
func (g *Grid) ScrollOffset() int {
	g.Flush()
	return g.window.ScrollOffset()
}

// SetViewportHeight resizes the viewport.
func (g *Grid) SetViewportHeight(h int) {
	g.window.SetViewportHeight(h)
	g.Invalidate(ReasonResize)
}

// Measure reports the rendered height of a row.
func (g *Grid) Measure(index, height int) {
	g.window.Measure(index, height)
	g.Invalidate(ReasonMeasure)
}
