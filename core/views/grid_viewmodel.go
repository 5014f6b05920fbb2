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

// Package views turns grid frames into view models for the renderers.
package views

import (
	"sort"
	"strings"

	"github.com/google/safehtml"
	"github.com/samber/lo"

	"github.com/google/rowgrid/core/aggregates"
	"github.com/google/rowgrid/core/features"
	"github.com/google/rowgrid/core/grid"
	"github.com/google/rowgrid/core/query"
	"github.com/google/rowgrid/core/rows"
)

// GridViewModel is one rendered window of a grid, formatted for templates.
type GridViewModel struct {
	Title    string
	Source   string
	Columns  []ColumnInfo
	Rows     []RowView
	Warnings []string

	// Window geometry, in the grid's height unit.
	TopSpacer    int
	BottomSpacer int
	TotalHeight  int
	ScrollOffset int

	TotalRows    int // length of the flattened sequence
	FirstVisible int // 1-based, for "rows x-y of n"
	LastVisible  int
	Groups       features.GroupState

	CurrentURL safehtml.URL
	PrevURL    safehtml.URL
	NextURL    safehtml.URL
	HasPrev    bool
	HasNext    bool
}

// ColumnInfo describes one data column.
type ColumnInfo struct {
	Name      string
	IsGrouped bool
	Filter    string
	SortMark  string // "▲", "▼" or ""
	GroupURL  safehtml.URL
	SortURL   safehtml.URL
}

// RowView is one row of the window.
type RowView struct {
	Index     int
	Key       string
	IsGroup   bool
	FullWidth bool
	Label     string
	Depth     int
	Indent    int
	Expanded  bool
	Selected  bool
	Focused   bool
	Classes   string
	Height    int
	Cells     []CellView
	ToggleURL safehtml.URL
	SelectURL safehtml.URL
}

// CellView is one cell of a row.
type CellView struct {
	Column string
	Value  string
}

// LandingViewModel lists the data sources a server offers.
type LandingViewModel struct {
	Title    string
	Subtitle string
	Sources  []SourceInfo
}

// SourceInfo is one entry of the landing page.
type SourceInfo struct {
	Name        string
	Description string
	RecordCount int
	URL         safehtml.URL
}

// Columns returns the data fields to show: grouped fields first in grouping
// order, then filtered ones, then the rest in lexical order.
func Columns(data []rows.RenderRow, groupBy []string, filters map[string]string) []string {
	fields := lo.Uniq(lo.FlatMap(rows.DataRows(data), func(r rows.RenderRow, _ int) []string { return lo.Keys(r.Data) }))
	sort.Strings(fields)
	var grouped, filtered, others []string
	for _, f := range groupBy {
		if lo.Contains(fields, f) {
			grouped = append(grouped, f)
		}
	}
	for _, f := range fields {
		switch {
		case lo.Contains(groupBy, f):
		case filters[f] != "":
			filtered = append(filtered, f)
		default:
			others = append(others, f)
		}
	}
	return append(append(grouped, filtered...), others...)
}

// Build creates the view model of frame. q may be nil when no links are
// needed (terminal rendering). columns may be nil to show every field.
func Build(g *grid.Grid, frame grid.Frame, q *query.Query, title string, columns []string) GridViewModel {
	cfg := g.Config()
	if len(columns) == 0 {
		columns = Columns(g.Data(), cfg.GroupBy, cfg.Filters)
	}
	vm := GridViewModel{
		Title:        title,
		TotalRows:    frame.RowCount,
		TotalHeight:  frame.TotalHeight,
		ScrollOffset: frame.ScrollOffset,
		Groups:       g.GroupState(),
	}
	for _, w := range g.Warnings() {
		vm.Warnings = append(vm.Warnings, w.Code+": "+w.Message)
	}
	if frame.VisibleEnd > frame.VisibleStart {
		vm.FirstVisible, vm.LastVisible = frame.VisibleStart+1, frame.VisibleEnd
	}
	if len(frame.Rows) > 0 {
		first, last := frame.Rows[0], frame.Rows[len(frame.Rows)-1]
		vm.TopSpacer = first.Offset
		vm.BottomSpacer = max(0, frame.TotalHeight-(last.Offset+last.Height))
	}

	for _, c := range columns {
		info := ColumnInfo{Name: c, IsGrouped: lo.Contains(cfg.GroupBy, c), Filter: cfg.Filters[c]}
		for _, k := range cfg.SortBy {
			if k.Field == c {
				info.SortMark = lo.Ternary(k.Desc, "▼", "▲")
			}
		}
		if q != nil {
			info.GroupURL = q.WithGroupToggled(c)
			info.SortURL = q.WithSortToggled(c)
		}
		vm.Columns = append(vm.Columns, info)
	}

	gr := g.Grouping()
	for _, fr := range frame.Rows {
		vm.Rows = append(vm.Rows, rowView(gr, fr, columns, q, vm.Groups.ExpandedKeys))
	}

	if q != nil {
		vm.Source = q.Source
		vm.CurrentURL = q.ToSafeURL()
		page := g.Window().ViewportHeight()
		vm.HasPrev = frame.ScrollOffset > 0
		vm.HasNext = frame.ScrollOffset+page < frame.TotalHeight
		vm.PrevURL = q.WithScroll(frame.ScrollOffset - page)
		vm.NextURL = q.WithScroll(frame.ScrollOffset + page)
	}
	return vm
}

func rowView(gr *features.Grouping, fr grid.FrameRow, columns []string, q *query.Query, expanded []string) RowView {
	rv := RowView{
		Index:     fr.Index,
		Key:       string(fr.Row.Identity()),
		IsGroup:   fr.Row.IsGroup(),
		FullWidth: fr.FullWidth,
		Depth:     fr.Row.Depth,
		Height:    fr.Height,
		Selected:  fr.HasClass("rg-selected"),
		Focused:   fr.HasClass("rg-focused"),
		Classes:   strings.Join(fr.Classes, " "),
	}
	if gr != nil {
		rv.Indent = gr.Indent(fr.Row.Depth)
	}

	if h := fr.Row.Group; h != nil {
		rv.Expanded = h.Expanded
		rv.Label = fr.Content
		if rv.Label == "" && gr != nil {
			rv.Label = gr.Label(h)
		}
		if rv.Label == "" {
			rv.Label = h.Value
		}
		for _, c := range columns {
			rv.Cells = append(rv.Cells, CellView{Column: c, Value: aggregateCell(gr, h, c)})
		}
		if q != nil {
			rv.ToggleURL = q.WithExpandedToggled(h.Key, expanded)
		}
		return rv
	}

	for _, c := range columns {
		rv.Cells = append(rv.Cells, CellView{Column: c, Value: fr.Row.Data.String(c)})
	}
	if q != nil {
		rv.SelectURL = q.WithSelected(fr.Row.OriginalIndex, false)
	}
	return rv
}

// aggregateCell formats the aggregate of field in h, prefixed with the
// reducer's symbol. Fields without a reducer are blank.
func aggregateCell(gr *features.Grouping, h *rows.GroupHeader, field string) string {
	v, ok := h.Aggregates[field]
	if !ok || v == nil {
		return ""
	}
	s := aggregates.FormatValue(v)
	if gr != nil {
		if sym := aggregates.AggregateSymbol(aggregates.AggregateType(gr.AggregateType(field))); sym != "" {
			s = sym + " " + s
		}
	}
	return s
}
