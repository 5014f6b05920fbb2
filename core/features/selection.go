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

package features

import (
	"sort"

	"github.com/google/rowgrid/core/plugins"
	"github.com/google/rowgrid/core/rows"
	"github.com/google/rowgrid/core/viewport"
)

// SelectionChange is the payload of plugins.EventSelectionChange.
type SelectionChange struct {
	Selected []rows.Identity
	Focus    rows.Identity
}

// Selection tracks selected data rows and the focused row by identity, so
// state survives scrolling, slot reuse, collapse and re-sorting.
type Selection struct {
	selected map[rows.Identity]struct{}
	focus    rows.Identity
	anchor   rows.Identity
	host     plugins.Host
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{selected: map[rows.Identity]struct{}{}}
}

func (s *Selection) Name() string { return NameSelection }

// Dependencies places selection after grouping so group rows see clicks first.
func (s *Selection) Dependencies() []plugins.Dependency {
	return []plugins.Dependency{plugins.After(NameGrouping)}
}

func (s *Selection) Attach(host plugins.Host) { s.host = host }

func (s *Selection) Detach() {
	s.selected = map[rows.Identity]struct{}{}
	s.focus, s.anchor = "", ""
	s.host = nil
}

// IsSelected reports whether id is selected.
func (s *Selection) IsSelected(id rows.Identity) bool {
	_, ok := s.selected[id]
	return ok
}

// Selected returns the selected identities in lexical order.
func (s *Selection) Selected() []rows.Identity {
	out := make([]rows.Identity, 0, len(s.selected))
	for id := range s.selected {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Focus returns the focused identity, or "".
func (s *Selection) Focus() rows.Identity {
	return s.focus
}

// Select adds ids to the selection.
func (s *Selection) Select(ids ...rows.Identity) {
	for _, id := range ids {
		s.selected[id] = struct{}{}
	}
	s.changed()
}

// Deselect removes ids from the selection.
func (s *Selection) Deselect(ids ...rows.Identity) {
	for _, id := range ids {
		delete(s.selected, id)
	}
	s.changed()
}

// Clear empties the selection.
func (s *Selection) Clear() {
	if len(s.selected) == 0 {
		return
	}
	s.selected = map[rows.Identity]struct{}{}
	s.changed()
}

func (s *Selection) changed() {
	if s.host == nil {
		return
	}
	s.host.Bus().Emit(plugins.Event{
		Name:    plugins.EventSelectionChange,
		Source:  NameSelection,
		Payload: SelectionChange{Selected: s.Selected(), Focus: s.focus},
	})
	s.host.Invalidate("selection")
}

func (s *Selection) current() []rows.RenderRow {
	if s.host == nil {
		return nil
	}
	return s.host.Rows()
}

func indexOf(seq []rows.RenderRow, id rows.Identity) int {
	for i, r := range seq {
		if r.Identity() == id {
			return i
		}
	}
	return -1
}

// selectRange selects every data row between the anchor and to.
func (s *Selection) selectRange(seq []rows.RenderRow, to int) {
	from := indexOf(seq, s.anchor)
	if from < 0 {
		from = to
	}
	if from > to {
		from, to = to, from
	}
	for _, r := range seq[from : to+1] {
		if r.IsData() {
			s.selected[r.Identity()] = struct{}{}
		}
	}
}

// HandleInput selects with click, Ctrl/Meta-click, Shift-click, moves focus
// with Up/Down, Space toggles the focused row, Ctrl+A selects everything and
// Escape clears.
func (s *Selection) HandleInput(ev plugins.InputEvent) bool {
	if ev.Alt {
		return false
	}
	seq := s.current()
	switch ev.Type {
	case plugins.EventClick:
		if !ev.Row.IsData() {
			return false
		}
		id := ev.Row.Identity()
		switch {
		case ev.Shift:
			s.selectRange(seq, min(ev.Index, max(0, len(seq)-1)))
		case ev.Modified():
			if s.IsSelected(id) {
				delete(s.selected, id)
			} else {
				s.selected[id] = struct{}{}
			}
			s.anchor = id
		default:
			s.selected = map[rows.Identity]struct{}{id: {}}
			s.anchor = id
		}
		s.focus = id
		s.changed()
		return true

	case plugins.EventKey:
		switch ev.Key {
		case "up", "down":
			if len(seq) == 0 {
				return false
			}
			i := indexOf(seq, s.focus)
			switch {
			case i < 0:
				i = 0
			case ev.Key == "up":
				i = max(0, i-1)
			default:
				i = min(len(seq)-1, i+1)
			}
			if s.anchor == "" || !ev.Shift {
				s.anchor = seq[i].Identity()
			}
			s.focus = seq[i].Identity()
			if ev.Shift {
				s.selectRange(seq, i)
			}
			s.changed()
			return true
		case "space":
			if s.focus == "" || s.focus.IsGroup() {
				return false
			}
			if s.IsSelected(s.focus) {
				delete(s.selected, s.focus)
			} else {
				s.selected[s.focus] = struct{}{}
			}
			s.changed()
			return true
		case "a":
			if !ev.Modified() {
				return false
			}
			for _, r := range seq {
				if r.IsData() {
					s.selected[r.Identity()] = struct{}{}
				}
			}
			s.changed()
			return true
		case "escape":
			if len(s.selected) == 0 {
				return false
			}
			s.Clear()
			return true
		}
	}
	return false
}

// RenderRow decorates selected and focused rows. It never handles the row.
func (s *Selection) RenderRow(row rows.RenderRow, slot *viewport.Slot) bool {
	id := row.Identity()
	if s.IsSelected(id) {
		slot.AddClass("rg-selected")
		slot.SetAttr("aria-selected", "true")
	}
	if id == s.focus {
		slot.AddClass("rg-focused")
	}
	return false
}

// HandleQuery answers QuerySelectedRows with the selected rows of the current
// sequence, in sequence order, and QueryIsSelected with a bool.
func (s *Selection) HandleQuery(q plugins.Query) (any, bool) {
	switch q.Type {
	case plugins.QuerySelectedRows:
		var out []rows.RenderRow
		for _, r := range s.current() {
			if r.IsData() && s.IsSelected(r.Identity()) {
				out = append(out, r)
			}
		}
		return out, true
	case plugins.QueryIsSelected:
		id, ok := q.Payload.(rows.Identity)
		if !ok {
			return nil, false
		}
		return s.IsSelected(id), true
	}
	return nil, false
}
