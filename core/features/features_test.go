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
	"testing"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/rowgrid/core/config"
	"github.com/google/rowgrid/core/expansion"
	"github.com/google/rowgrid/core/grouping"
	"github.com/google/rowgrid/core/plugins"
	"github.com/google/rowgrid/core/rows"
	"github.com/google/rowgrid/core/viewport"
)

// testHost runs a pipeline synchronously, re-processing on every
// invalidation.
type testHost struct {
	bus      *plugins.Bus
	pipeline *plugins.Pipeline
	data     []rows.RenderRow
	rows     []rows.RenderRow
	reasons  []string
	events   []plugins.Event
}

func newHost(t *testing.T, p *plugins.Pipeline, records []rows.Row) *testHost {
	t.Helper()
	h := &testHost{bus: plugins.NewBus("test", logr.Discard()), pipeline: p}
	h.bus.Subscribe("*", func(ev plugins.Event) { h.events = append(h.events, ev) })
	p.Attach(h)
	h.load(records)
	return h
}

func (h *testHost) Logger() logr.Logger                    { return logr.Discard() }
func (h *testHost) Bus() *plugins.Bus                      { return h.bus }
func (h *testHost) Query(q plugins.Query) []plugins.Answer { return h.pipeline.Query(q) }
func (h *testHost) Rows() []rows.RenderRow                 { return h.rows }

func (h *testHost) Invalidate(reason string) {
	h.reasons = append(h.reasons, reason)
	h.rows = h.pipeline.ProcessRows(h.data)
}

func (h *testHost) load(records []rows.Row) {
	h.data = rows.FromRecords(records)
	h.rows = h.pipeline.ProcessRows(h.data)
}

func (h *testHost) eventsNamed(name string) []plugins.Event {
	var out []plugins.Event
	for _, ev := range h.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// describe renders a sequence as "G:key" / "D:field" strings.
func describe(seq []rows.RenderRow, field string) []string {
	out := make([]string, len(seq))
	for i, r := range seq {
		if r.IsGroup() {
			out[i] = "G:" + r.Group.Key
		} else {
			out[i] = "D:" + r.Data.String(field)
		}
	}
	return out
}

func deptRows() []rows.Row {
	return []rows.Row{
		{"dept": "A", "name": "One", "cost": 10},
		{"dept": "A", "name": "Two", "cost": 15},
		{"dept": "B", "name": "Three", "cost": 7},
	}
}

func geoRows() []rows.Row {
	return []rows.Row{
		{"region": "EU", "country": "DE", "city": "Berlin"},
		{"region": "EU", "country": "DE", "city": "Munich"},
		{"region": "EU", "country": "FR", "city": "Paris"},
		{"region": "NA", "country": "US", "city": "Austin"},
	}
}

func groupingHost(t *testing.T, opts config.Options, records []rows.Row) (*testHost, *Grouping) {
	t.Helper()
	cfg, _ := config.Resolve(opts, config.Defaults())
	g := NewGrouping(cfg, nil)
	return newHost(t, plugins.New(logr.Discard(), g), records), g
}

func TestDeptScenario(t *testing.T) {
	h, g := groupingHost(t, config.Options{
		Resolver: grouping.ByFunc(func(r rows.Row) any { return r["dept"] }),
	}, deptRows())

	assert.Equal(t, []string{"G:A", "G:B"}, describe(h.rows, "name"))
	assert.Equal(t, 2, g.GroupState().TotalGroups)
	assert.True(t, g.GroupState().IsActive)

	g.Expand("A")
	if diff := cmp.Diff([]string{"G:A", "D:One", "D:Two", "G:B"}, describe(h.rows, "name")); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, g.RowCount())
	assert.Equal(t, 1, h.rows[1].Depth)
	assert.Equal(t, GroupState{IsActive: true, ExpandedCount: 1, TotalGroups: 2, ExpandedKeys: []string{"A"}}, g.GroupState())
}

func TestAllUngroupedLeavesRowsUnchanged(t *testing.T) {
	h, g := groupingHost(t, config.Options{
		Resolver: func(rows.Row) []any { return nil },
	}, deptRows())

	assert.Equal(t, rows.FromRecords(deptRows()), h.rows)
	assert.False(t, g.IsActive())
	assert.False(t, g.GroupState().IsActive)
	assert.Equal(t, 3, g.LastPass().Ungrouped)
}

func TestNestedScenario(t *testing.T) {
	h, g := groupingHost(t, config.Options{GroupBy: []string{"region", "country"}}, geoRows())

	assert.Equal(t, []string{"G:EU", "G:NA"}, describe(h.rows, "city"))
	g.Expand("EU")
	assert.Equal(t, []string{"G:EU", "G:EU||DE", "G:EU||FR", "G:NA"}, describe(h.rows, "city"))
	_, data := rows.CountKinds(h.rows)
	assert.Zero(t, data)
	assert.Equal(t, 5, g.GroupState().TotalGroups)
}

func TestCollapseAllLeavesOneRowPerTopLevelGroup(t *testing.T) {
	h, g := groupingHost(t, config.Options{
		GroupBy:         []string{"region", "country"},
		DefaultExpanded: config.Expand(expansion.ExpandEverything()),
	}, geoRows())
	assert.Len(t, h.rows, 9)

	g.CollapseAll()
	assert.Equal(t, len(g.Tree().TopLevelKeys()), g.RowCount())
	assert.Equal(t, 0, g.GroupState().ExpandedCount)

	g.ExpandAll()
	assert.Equal(t, 9, g.RowCount())
}

func TestDefaultExpansionAppliesOnce(t *testing.T) {
	h, g := groupingHost(t, config.Options{
		GroupBy:         []string{"dept"},
		DefaultExpanded: config.Expand(expansion.ExpandIndex(1)),
	}, nil)
	assert.Empty(t, h.rows)
	assert.False(t, g.IsActive())

	// first non-empty build applies the default
	h.load(deptRows())
	assert.Equal(t, []string{"G:A", "G:B", "D:Three"}, describe(h.rows, "name"))

	g.Collapse("B")
	h.load(nil)
	h.load(deptRows())
	assert.Equal(t, []string{"G:A", "G:B"}, describe(h.rows, "name"), "default must not be re-applied")

	// detach clears the store and the flag
	g.Detach()
	g.Attach(h)
	h.load(deptRows())
	assert.Equal(t, []string{"G:A", "G:B", "D:Three"}, describe(h.rows, "name"))
}

func TestExplicitExpansionBeforeFirstBuildWins(t *testing.T) {
	cfg, _ := config.Resolve(config.Options{
		GroupBy:         []string{"dept"},
		DefaultExpanded: config.Expand(expansion.ExpandEverything()),
	}, config.Defaults())
	g := NewGrouping(cfg, nil)
	g.Expand("A")
	h := newHost(t, plugins.New(logr.Discard(), g), deptRows())
	assert.Equal(t, []string{"G:A", "D:One", "D:Two", "G:B"}, describe(h.rows, "name"))
}

func TestAccordionToggle(t *testing.T) {
	h, g := groupingHost(t, config.Options{
		GroupBy:   []string{"region", "country"},
		Accordion: config.Bool(true),
	}, geoRows())

	g.Toggle("EU")
	g.Toggle("EU||DE")
	g.Toggle("NA")
	assert.Equal(t, []string{"EU||DE", "NA"}, g.GroupState().ExpandedKeys)
	assert.Equal(t, []string{"G:EU", "G:NA", "G:NA||US"}, describe(h.rows, "city"))

	g.Toggle("EU")
	assert.Equal(t, []string{"EU", "EU||DE"}, g.GroupState().ExpandedKeys)
}

func TestToggleEventsAndStaleKeys(t *testing.T) {
	h, g := groupingHost(t, config.Options{GroupBy: []string{"region", "country"}}, geoRows())

	assert.True(t, g.Toggle("EU"))
	assert.True(t, g.Toggle("EU||FR"))
	assert.False(t, g.Toggle("EU||FR"))

	toggles := h.eventsNamed(plugins.EventGroupToggle)
	require.Len(t, toggles, 3)
	assert.Equal(t, ToggleEvent{Key: "EU||FR", Expanded: true, Value: "FR", Depth: 1}, toggles[1].Payload)
	assert.Equal(t, "test", toggles[0].Instance)
	assert.Len(t, h.eventsNamed(plugins.EventStateChange), 3)

	before := len(h.reasons)
	assert.False(t, g.Toggle("APAC"))
	g.Expand("APAC")
	g.Collapse("APAC")
	assert.Len(t, h.reasons, before)
	assert.False(t, g.IsExpanded("APAC"))
}

func TestResolverFaultDegradesToUngrouped(t *testing.T) {
	h, g := groupingHost(t, config.Options{
		Resolver: func(r rows.Row) []any {
			if r["name"] == "Three" {
				panic("resolver bug")
			}
			return []any{r["dept"]}
		},
	}, deptRows())

	assert.Equal(t, rows.FromRecords(deptRows()), h.rows)
	assert.False(t, g.IsActive())
	assert.ErrorIs(t, g.LastPass().ResolverFault, grouping.ErrResolverFault)
}

func TestAggregatesIgnoreExpansion(t *testing.T) {
	h, g := groupingHost(t, config.Options{
		GroupBy:     []string{"dept"},
		Aggregators: map[string]string{"cost": "sum"},
	}, deptRows())

	assert.Equal(t, 25.0, h.rows[0].Group.Aggregates["cost"])
	g.Expand("A")
	assert.Equal(t, 25.0, h.rows[0].Group.Aggregates["cost"])
	g.Collapse("A")
	assert.Equal(t, 25.0, h.rows[0].Group.Aggregates["cost"])
	assert.Equal(t, 7.0, g.Aggregates()["B"]["cost"])
	assert.Equal(t, []string{"cost"}, g.AggregateFields())
}

func TestGroupingInput(t *testing.T) {
	h, g := groupingHost(t, config.Options{GroupBy: []string{"dept"}}, deptRows())
	groupA := h.rows[0]

	assert.True(t, g.HandleInput(plugins.InputEvent{Type: plugins.EventClick, Row: groupA}))
	assert.True(t, g.IsExpanded("A"))
	assert.True(t, g.HandleInput(plugins.InputEvent{Type: plugins.EventKey, Key: "right", Row: groupA}))
	assert.True(t, g.IsExpanded("A"))
	assert.True(t, g.HandleInput(plugins.InputEvent{Type: plugins.EventKey, Key: "left", Row: groupA}))
	assert.False(t, g.IsExpanded("A"))
	assert.True(t, g.HandleInput(plugins.InputEvent{Type: plugins.EventKey, Key: "enter", Row: groupA}))
	assert.True(t, g.IsExpanded("A"))

	assert.False(t, g.HandleInput(plugins.InputEvent{Type: plugins.EventClick, Row: h.rows[1]}))
	assert.False(t, g.HandleInput(plugins.InputEvent{Type: plugins.EventClick, Row: groupA, Ctrl: true}))
}

func TestGroupingRenderAndQuery(t *testing.T) {
	h, g := groupingHost(t, config.Options{
		GroupBy:        []string{"dept"},
		GroupRowHeight: config.Int(40),
		FormatLabel:    func(v string, depth int, key string) string { return "Dept " + v },
	}, deptRows())

	slot := &viewport.Slot{}
	assert.True(t, g.RenderRow(h.rows[0], slot))
	assert.True(t, slot.FullWidth)
	assert.Equal(t, "Dept A (2)", slot.Content)
	assert.Zero(t, slot.Height)
	assert.Equal(t, "false", slot.Attrs["aria-expanded"])
	assert.Equal(t, 40, g.HeightHint(h.rows[0]))

	g.Expand("A")
	assert.False(t, g.RenderRow(h.rows[1], &viewport.Slot{}))
	assert.Zero(t, g.HeightHint(h.rows[1]))

	v, ok := g.HandleQuery(plugins.Query{Type: plugins.QueryCanReorder, Payload: h.rows[0]})
	assert.True(t, ok)
	assert.Equal(t, false, v)
	_, ok = g.HandleQuery(plugins.Query{Type: plugins.QueryCanReorder, Payload: h.rows[1]})
	assert.False(t, ok)
	v, _ = g.HandleQuery(plugins.Query{Type: QueryGroupState})
	assert.Equal(t, 1, v.(GroupState).ExpandedCount)
}

func TestFiltering(t *testing.T) {
	f := NewFiltering(map[string]string{"name": "T"})
	h := newHost(t, plugins.New(logr.Discard(), f), deptRows())
	assert.Equal(t, []string{"D:Two", "D:Three"}, describe(h.rows, "name"))

	f.SetFilter("dept", "b")
	assert.Equal(t, []string{"D:Three"}, describe(h.rows, "name"))
	f.SetFilter("name", "")
	f.SetFilter("dept", "")
	assert.Len(t, h.rows, 3)
	assert.Empty(t, f.Filters())
	assert.Equal(t, []string{"filter", "filter", "filter"}, h.reasons)
}

func TestSortingFeedsFirstSeenGroupOrder(t *testing.T) {
	cfg, _ := config.Resolve(config.Options{GroupBy: []string{"dept"}}, config.Defaults())
	s := NewSorting([]config.SortKey{{Field: "cost", Desc: true}})
	p, warnings := plugins.NewBuilder(nil, logr.Discard()).Use(NewGrouping(cfg, nil), s).Build()
	require.Empty(t, warnings)
	assert.Equal(t, []string{NameSorting, NameGrouping}, p.Names())

	h := newHost(t, p, deptRows())
	g, ok := plugins.Find[*Grouping](p)
	require.True(t, ok)
	g.ExpandAll()
	assert.Equal(t, []string{"G:A", "D:Two", "D:One", "G:B", "D:Three"}, describe(h.rows, "name"))

	s.SetSort(config.SortKey{Field: "cost"})
	assert.Equal(t, []string{"G:B", "D:Three", "G:A", "D:One", "D:Two"}, describe(h.rows, "name"))
}

func TestCompareValues(t *testing.T) {
	assert.Equal(t, -1, CompareValues(2, 10))
	assert.Equal(t, 1, CompareValues("b", "a"))
	assert.Equal(t, 0, CompareValues(int64(3), 3.0))
	assert.Equal(t, 1, CompareValues(nil, 1))
	assert.Equal(t, -1, CompareValues("x", nil))

	in := rows.FromRecords([]rows.Row{{"v": nil}, {"v": 2}, {"v": 1}})
	for _, desc := range []bool{false, true} {
		out := NewSorting([]config.SortKey{{Field: "v", Desc: desc}}).ProcessRows(in)
		assert.Nil(t, out[2].Data["v"], "desc=%v", desc)
	}
	assert.Nil(t, in[0].Data["v"], "input must not be reordered")
}

func selectionHost(t *testing.T) (*testHost, *Grouping, *Selection) {
	t.Helper()
	cfg, _ := config.Resolve(config.Options{
		GroupBy:         []string{"dept"},
		DefaultExpanded: config.Expand(expansion.ExpandEverything()),
	}, config.Defaults())
	g := NewGrouping(cfg, nil)
	s := NewSelection()
	p, _ := plugins.NewBuilder(nil, logr.Discard()).Use(s, g).Build()
	return newHost(t, p, deptRows()), g, s
}

func TestSelectionByIdentity(t *testing.T) {
	h, g, s := selectionHost(t)
	// G:A D:One D:Two G:B D:Three
	p := h.pipeline

	assert.Equal(t, NameSelection, p.DispatchInput(plugins.InputEvent{Type: plugins.EventClick, Index: 1, Row: h.rows[1]}))
	assert.Equal(t, NameSelection, p.DispatchInput(plugins.InputEvent{Type: plugins.EventClick, Index: 4, Row: h.rows[4], Ctrl: true}))
	assert.Equal(t, []rows.Identity{"d:0", "d:2"}, s.Selected())

	// group clicks reach grouping first
	assert.Equal(t, NameGrouping, p.DispatchInput(plugins.InputEvent{Type: plugins.EventClick, Index: 0, Row: h.rows[0]}))
	assert.Equal(t, []string{"G:A", "G:B", "D:Three"}, describe(h.rows, "name"))
	assert.True(t, s.IsSelected(rows.DataIdentity(0)), "hidden rows stay selected")

	g.Expand("A")
	slot := &viewport.Slot{}
	s.RenderRow(h.rows[1], slot)
	assert.True(t, slot.HasClass("rg-selected"))

	// shift-click extends from the anchor
	p.DispatchInput(plugins.InputEvent{Type: plugins.EventClick, Index: 1, Row: h.rows[1]})
	p.DispatchInput(plugins.InputEvent{Type: plugins.EventClick, Index: 4, Row: h.rows[4], Shift: true})
	assert.Equal(t, []rows.Identity{"d:0", "d:1", "d:2"}, s.Selected())

	answer, ok := plugins.First(h.Query(plugins.Query{Type: plugins.QuerySelectedRows}))
	require.True(t, ok)
	assert.Equal(t, []string{"D:One", "D:Two", "D:Three"}, describe(answer.([]rows.RenderRow), "name"))

	assert.Equal(t, NameSelection, p.DispatchInput(plugins.InputEvent{Type: plugins.EventKey, Key: "escape"}))
	assert.Empty(t, s.Selected())
	assert.NotEmpty(t, h.eventsNamed(plugins.EventSelectionChange))
}

func TestSelectionKeyboard(t *testing.T) {
	h, _, s := selectionHost(t)
	p := h.pipeline

	p.DispatchInput(plugins.InputEvent{Type: plugins.EventKey, Key: "down"})
	assert.Equal(t, rows.GroupIdentity("A"), s.Focus())
	p.DispatchInput(plugins.InputEvent{Type: plugins.EventKey, Key: "down"})
	assert.Equal(t, rows.DataIdentity(0), s.Focus())
	assert.Equal(t, NameSelection, p.DispatchInput(plugins.InputEvent{Type: plugins.EventKey, Key: "space"}))
	assert.True(t, s.IsSelected(rows.DataIdentity(0)))
	p.DispatchInput(plugins.InputEvent{Type: plugins.EventKey, Key: "down", Shift: true})
	assert.Equal(t, []rows.Identity{"d:0", "d:1"}, s.Selected())
	p.DispatchInput(plugins.InputEvent{Type: plugins.EventKey, Key: "up"})
	assert.Equal(t, rows.DataIdentity(0), s.Focus())

	p.DispatchInput(plugins.InputEvent{Type: plugins.EventKey, Key: "a", Ctrl: true})
	assert.Len(t, s.Selected(), 3)

	v, ok := s.HandleQuery(plugins.Query{Type: plugins.QueryIsSelected, Payload: rows.DataIdentity(2)})
	assert.True(t, ok)
	assert.Equal(t, true, v)
}

func TestClipboardRequiresSelection(t *testing.T) {
	clip := &MemoryClipboard{}
	cfg, _ := config.Resolve(config.Options{}, config.Defaults())
	reg := DefaultRegistry(Env{Config: cfg, Clipboard: clip})

	p, warnings := plugins.NewBuilder(reg, logr.Discard()).Use(NewClipboard(clip, "name", "cost")).Build()
	require.Len(t, warnings, 1)
	assert.Equal(t, plugins.WarnImplicitDependency, warnings[0].Code)
	assert.Equal(t, []string{NameSelection, NameClipboard}, p.Names())

	h := newHost(t, p, deptRows())
	s, _ := plugins.Find[*Selection](p)
	s.Select(rows.DataIdentity(2), rows.DataIdentity(0))

	assert.Equal(t, NameClipboard, p.DispatchInput(plugins.InputEvent{Type: plugins.EventKey, Key: "c", Meta: true}))
	assert.Equal(t, "name\tcost\nOne\t10\nThree\t7\n", clip.Text())
	require.Len(t, h.eventsNamed(plugins.EventClipboardCopy), 1)

	s.Clear()
	assert.Empty(t, p.DispatchInput(plugins.InputEvent{Type: plugins.EventKey, Key: "c", Ctrl: true}))
}

func TestFormatTSV(t *testing.T) {
	seq := rows.FromRecords([]rows.Row{{"b": "x\ty", "a": 1}, {"c": true}})
	assert.Equal(t, "a\tb\tc\n1\tx y\t\n\t\ttrue\n", FormatTSV(seq, nil))
}

func TestReorderAsksBeforeMoving(t *testing.T) {
	cfg, _ := config.Resolve(config.Options{
		GroupBy:         []string{"dept"},
		DefaultExpanded: config.Expand(expansion.ExpandEverything()),
	}, config.Defaults())
	r := NewReorder()
	p, _ := plugins.NewBuilder(nil, logr.Discard()).Use(r, NewGrouping(cfg, nil)).Build()
	assert.Equal(t, []string{NameGrouping, NameReorder}, p.Names())
	h := newHost(t, p, deptRows())

	// group rows are vetoed by grouping
	assert.Equal(t, NameReorder, p.DispatchInput(plugins.InputEvent{Type: plugins.EventKey, Key: "down", Alt: true, Index: 0, Row: h.rows[0]}))
	assert.Empty(t, h.eventsNamed(plugins.EventRowMoveRequested))

	p.DispatchInput(plugins.InputEvent{Type: plugins.EventKey, Key: "down", Alt: true, Index: 1, Row: h.rows[1]})
	moves := h.eventsNamed(plugins.EventRowMoveRequested)
	require.Len(t, moves, 1)
	assert.Equal(t, MoveRequest{Row: rows.DataIdentity(0), From: 1, To: 2}, moves[0].Payload)
	assert.True(t, r.CanMove(h.rows[1]))
	assert.False(t, r.CanMove(h.rows[0]))
}
