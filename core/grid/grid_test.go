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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/rowgrid/core/aggregates"
	"github.com/google/rowgrid/core/config"
	"github.com/google/rowgrid/core/expansion"
	"github.com/google/rowgrid/core/metrics"
	"github.com/google/rowgrid/core/plugins"
	"github.com/google/rowgrid/core/rows"
	"github.com/google/rowgrid/core/visibility"
)

func deptRows() []rows.Row {
	return []rows.Row{
		{"dept": "A", "name": "One", "cost": 10},
		{"dept": "A", "name": "Two", "cost": 15},
		{"dept": "B", "name": "Three", "cost": 7},
	}
}

func numberedRows(n int) []rows.Row {
	out := make([]rows.Row, n)
	for i := range out {
		out[i] = rows.Row{"n": i}
	}
	return out
}

func describe(seq []rows.RenderRow) []string {
	out := make([]string, len(seq))
	for i, r := range seq {
		if r.IsGroup() {
			out[i] = "G:" + r.Group.Key
		} else {
			out[i] = "D:" + r.Data.String("name")
		}
	}
	return out
}

func newTerminalGrid(opts config.Options, records []rows.Row, extra ...Option) *Grid {
	g := New(opts, append([]Option{WithDefaults(config.TerminalDefaults())}, extra...)...)
	g.SetData(records)
	return g
}

func snapshot(t *testing.T, g *Grid) metrics.Snapshot {
	t.Helper()
	s, err := g.Metrics().Snapshot()
	require.NoError(t, err)
	return s
}

func TestDeptScenario(t *testing.T) {
	g := newTerminalGrid(config.Options{GroupBy: []string{"dept"}}, deptRows())

	groups, data := rows.CountKinds(g.FlattenedRows())
	assert.Equal(t, 2, groups)
	assert.Zero(t, data)
	assert.Equal(t, 2, g.GroupState().TotalGroups)

	g.Expand("A")
	want := []string{"G:A", "D:One", "D:Two", "G:B"}
	if diff := cmp.Diff(want, describe(g.FlattenedRows())); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, g.RowCount())
	assert.True(t, g.IsExpanded("A"))
}

func TestUngroupedGridPassesRowsThrough(t *testing.T) {
	g := newTerminalGrid(config.Options{}, deptRows())

	assert.Equal(t, rows.FromRecords(deptRows()), g.FlattenedRows())
	assert.False(t, g.GroupState().IsActive)
	assert.Equal(t, []string{}, g.GroupState().ExpandedKeys)
}

func TestAggregatesSurviveCollapse(t *testing.T) {
	g := newTerminalGrid(config.Options{
		GroupBy:     []string{"dept"},
		Aggregators: map[string]string{"cost": "sum"},
	}, deptRows())

	collapsed := g.FlattenedRows()[0].Group.Aggregates["cost"]
	g.Expand("A")
	expanded := g.FlattenedRows()[0].Group.Aggregates["cost"]
	assert.EqualValues(t, 25, collapsed)
	assert.Equal(t, collapsed, expanded)
}

func TestInvalidationsCoalesceIntoOneFrame(t *testing.T) {
	var frames []Frame
	g := newTerminalGrid(config.Options{GroupBy: []string{"dept"}}, deptRows(),
		OnFrame(func(f Frame) { frames = append(frames, f) }))
	require.True(t, g.Pending())

	// Expand flushes the pending data pass before checking the key.
	g.Expand("A")
	assert.Equal(t, 1, g.Passes())
	require.Len(t, frames, 1)

	g.ScrollTo(1)
	assert.True(t, g.Pending())

	ran := g.Tick()
	assert.Equal(t, 3, ran)
	assert.Equal(t, 2, g.Passes(), "toggle and scroll share one pass")
	require.Len(t, frames, 2)
	assert.Equal(t, []string{"toggle", ReasonScroll}, frames[1].Reasons)
	assert.Equal(t, 4, frames[1].RowCount)
	assert.Equal(t, 1.0, snapshot(t, g).Coalesced)
	assert.Equal(t, 2.0, snapshot(t, g).Frames)

	assert.Zero(t, g.Tick())
}

func TestScrollOnlyFramesSkipThePass(t *testing.T) {
	g := newTerminalGrid(config.Options{}, numberedRows(50))
	g.Flush()
	require.Equal(t, 1, g.Passes())

	g.ScrollBy(5)
	g.ScrollBy(5)
	assert.Equal(t, 10, g.ScrollOffset())
	assert.Equal(t, 1, g.Passes())

	g.ScrollTo(1000)
	assert.Equal(t, 30, g.ScrollOffset(), "clamped to total height minus viewport")
}

func TestFrameWindow(t *testing.T) {
	g := newTerminalGrid(config.Options{}, numberedRows(100))
	w := g.Window()

	last := -1
	for offset := 0; offset <= 120; offset += 7 {
		g.ScrollTo(offset)
		f := g.Frame()
		assert.LessOrEqual(t, f.End-f.Start, w.Capacity()+w.Overscan())
		assert.GreaterOrEqual(t, f.Start, last)
		assert.Len(t, f.Rows, f.End-f.Start)
		last = f.Start
	}
}

func TestSelectionSurvivesSlotReuse(t *testing.T) {
	g := newTerminalGrid(config.Options{}, numberedRows(100))

	assert.Equal(t, "selection", g.HandleInput(plugins.InputEvent{Type: plugins.EventClick, Index: 3}))
	f := g.Frame()
	row := findRow(t, f, 3)
	assert.True(t, row.HasClass("rg-selected"))
	slot := row.Slot

	g.ScrollTo(50)
	f = g.Frame()
	for _, r := range f.Rows {
		if r.Slot == slot {
			assert.NotEqual(t, 3, r.Index)
			assert.False(t, r.HasClass("rg-selected"), "slot %d leaked selection to row %d", slot, r.Index)
		}
	}

	g.ScrollTo(0)
	f = g.Frame()
	assert.True(t, findRow(t, f, 3).HasClass("rg-selected"))
	assert.False(t, findRow(t, f, 4).HasClass("rg-selected"))
	assert.Equal(t, []rows.Identity{rows.DataIdentity(3)}, g.Selected())
}

func findRow(t *testing.T, f Frame, index int) FrameRow {
	t.Helper()
	for _, r := range f.Rows {
		if r.Index == index {
			return r
		}
	}
	t.Fatalf("row %d not in frame [%d,%d)", index, f.Start, f.End)
	return FrameRow{}
}

func TestFocusScrollsIntoView(t *testing.T) {
	g := newTerminalGrid(config.Options{}, numberedRows(100))

	g.HandleInput(plugins.InputEvent{Type: plugins.EventClick, Index: 19})
	assert.Equal(t, 0, g.ScrollOffset())

	g.HandleInput(plugins.InputEvent{Type: plugins.EventKey, Key: "down", Index: -1})
	assert.Equal(t, 1, g.ScrollOffset())
}

func TestGroupRowsRenderFullWidth(t *testing.T) {
	g := newTerminalGrid(config.Options{
		GroupBy:        []string{"dept"},
		GroupRowHeight: config.Int(2),
	}, deptRows())

	f := g.Frame()
	require.Len(t, f.Rows, 2)
	head := f.Rows[0]
	assert.True(t, head.FullWidth)
	assert.Equal(t, "grouping", head.HandledBy)
	assert.Equal(t, "A (2)", head.Content)
	assert.Equal(t, 2, head.Height)
	assert.Equal(t, "false", head.Attrs["aria-expanded"])
	assert.Equal(t, 4, f.TotalHeight)
	assert.Equal(t, 2, f.Rows[1].Offset)

	assert.Equal(t, "grouping", g.HandleInput(plugins.InputEvent{Type: plugins.EventClick, Index: 0}))
	assert.True(t, g.IsExpanded("A"))
}

func TestEnterAnimation(t *testing.T) {
	t.Run("entering rows get the animation class", func(t *testing.T) {
		g := New(config.Options{
			GroupBy:   []string{"dept"},
			Animation: config.Anim(visibility.AnimationSlide),
		})
		var changes []VisibleRowsChange
		g.Subscribe(plugins.EventVisibleRowsChange, func(ev plugins.Event) {
			changes = append(changes, ev.Payload.(VisibleRowsChange))
		})
		g.SetData(deptRows())
		for _, r := range g.Frame().Rows {
			assert.False(t, r.HasClass("rg-enter-slide"))
		}

		g.Expand("A")
		f := g.Frame()
		assert.True(t, findRow(t, f, 1).HasClass("rg-enter-slide"))
		assert.True(t, findRow(t, f, 2).HasClass("rg-enter-slide"))
		assert.False(t, findRow(t, f, 0).HasClass("rg-enter-slide"))
		require.Len(t, changes, 1)
		assert.Equal(t, []rows.Identity{rows.DataIdentity(0), rows.DataIdentity(1)}, changes[0].Entered)
	})

	t.Run("global switch disables it", func(t *testing.T) {
		g := newTerminalGrid(config.Options{
			GroupBy:   []string{"dept"},
			Animation: config.Anim(visibility.AnimationFade),
		}, deptRows())
		g.Flush()
		g.Expand("A")
		for _, r := range g.Frame().Rows {
			assert.False(t, r.HasClass("rg-enter-fade"))
		}
	})
}

func TestEnterMarksLastOneFrame(t *testing.T) {
	records := []rows.Row{{"dept": "B", "n": 0}}
	for i := 1; i <= 60; i++ {
		records = append(records, rows.Row{"dept": "A", "n": i})
	}
	g := New(config.Options{
		GroupBy:   []string{"dept"},
		Animation: config.Anim(visibility.AnimationFade),
	})
	g.SetData(records)
	g.SetViewportHeight(5)
	g.Frame()

	g.Expand("A")
	assert.True(t, findRow(t, g.Frame(), 1).HasClass("rg-enter-fade"))

	g.ScrollToRow(58)
	var late []FrameRow
	for _, r := range g.Frame().Rows {
		if r.Index >= 50 {
			late = append(late, r)
		}
	}
	require.NotEmpty(t, late)
	for _, r := range late {
		assert.False(t, r.HasClass("rg-enter-fade"), "row %d", r.Index)
	}
}

func TestWarningsFromConfigAndPlugins(t *testing.T) {
	g := New(config.Options{
		Accordion:       config.Bool(true),
		DefaultExpanded: config.Expand(expansion.ExpandEverything()),
		Plugins:         []string{"clipboard", "nope"},
	})

	codes := map[string]string{}
	for _, w := range g.Warnings() {
		codes[w.Code] = w.Source
	}
	assert.Equal(t, "config", codes["accordion-expand-all"])
	assert.Equal(t, "plugins", codes[plugins.WarnImplicitDependency])
	assert.Equal(t, "plugins", codes[plugins.WarnUnknownPlugin])
	assert.Equal(t, []string{"selection", "clipboard"}, g.Pipeline().Names())
	assert.Equal(t, 2.0, snapshot(t, g).Warnings[metrics.KindPlugin])
}

func TestReducerFaultsAreCounted(t *testing.T) {
	reg := aggregates.NewRegistry()
	require.NoError(t, reg.RegisterFunc("boom", func([]rows.Row, string) (any, error) { panic("boom") }))
	g := newTerminalGrid(config.Options{
		GroupBy:     []string{"dept"},
		Aggregators: map[string]string{"cost": "boom"},
	}, deptRows(), WithReducers(reg))

	seq := g.FlattenedRows()
	require.Len(t, seq, 2)
	assert.Nil(t, seq[0].Group.Aggregates["cost"])
	assert.Equal(t, 2.0, snapshot(t, g).Faults[metrics.KindReducer])
	assert.Equal(t, 2.0, snapshot(t, g).Rows)
}

func TestResolverFaultDegradesToUngrouped(t *testing.T) {
	g := newTerminalGrid(config.Options{
		Resolver: func(r rows.Row) []any {
			if r.String("dept") == "B" {
				panic("bad row")
			}
			return []any{r.Get("dept")}
		},
	}, deptRows())

	assert.Equal(t, rows.FromRecords(deptRows()), g.FlattenedRows())
	assert.False(t, g.GroupState().IsActive)
	assert.Equal(t, 1.0, snapshot(t, g).Faults[metrics.KindResolver])
}

func TestStaleKeysAreIgnored(t *testing.T) {
	g := newTerminalGrid(config.Options{GroupBy: []string{"dept"}}, deptRows())
	g.Flush()
	g.Expand("Z")
	g.Collapse("Z")
	assert.False(t, g.Toggle("Z"))
	assert.False(t, g.Pending())
	assert.Equal(t, 2, g.RowCount())
}

func TestKeysAreIgnoredWhileNothingGroups(t *testing.T) {
	g := newTerminalGrid(config.Options{
		GroupBy:         []string{"dept"},
		DefaultExpanded: config.Expand(expansion.ExpandEverything()),
	}, numberedRows(3))
	var toggles int
	g.Subscribe(plugins.EventGroupToggle, func(plugins.Event) { toggles++ })

	g.Flush()
	require.False(t, g.GroupState().IsActive)
	assert.False(t, g.Toggle("A"))
	g.Expand("B")
	assert.False(t, g.Pending())
	assert.Zero(t, toggles)

	g.SetData(deptRows())
	g.Flush()
	assert.True(t, g.IsExpanded("A"))
	assert.True(t, g.IsExpanded("B"))
	assert.Equal(t, 5, g.RowCount())
	assert.Zero(t, toggles)
}

func TestMeasuredHeightsReachKeptSlots(t *testing.T) {
	g := newTerminalGrid(config.Options{}, numberedRows(10))
	g.Frame()

	g.Measure(0, 3)
	f := g.Frame()
	require.NotEmpty(t, f.Rows)
	assert.Equal(t, 3, g.Window().HeightOf(0))
	assert.Equal(t, g.Window().HeightOf(0), f.Rows[0].Height)
	assert.Equal(t, 3, f.Rows[1].Offset)
}

func TestCloseDropsState(t *testing.T) {
	g := newTerminalGrid(config.Options{GroupBy: []string{"dept"}}, deptRows())
	g.Expand("A")
	g.Close()
	assert.False(t, g.IsExpanded("A"))
	g.SetData(deptRows())
	assert.False(t, g.Pending())
}

func TestFilterAndSortThroughTheGrid(t *testing.T) {
	g := newTerminalGrid(config.Options{
		GroupBy:         []string{"dept"},
		DefaultExpanded: config.Expand(expansion.ExpandEverything()),
	}, deptRows())
	require.Equal(t, 5, g.RowCount())

	require.True(t, g.SetSort(config.SortKey{Field: "name", Desc: true}))
	assert.Equal(t, []string{"G:A", "D:Two", "D:One", "G:B", "D:Three"}, describe(g.FlattenedRows()))

	require.True(t, g.SetFilter("name", "t"))
	assert.Equal(t, []string{"G:A", "D:Two", "G:B", "D:Three"}, describe(g.FlattenedRows()))
}

func TestBatcherLastWriteWins(t *testing.T) {
	q := &FrameQueue{}
	var flushed [][]string
	b := NewBatcher(q, func(reasons []string) { flushed = append(flushed, reasons) })

	b.Request("a")
	b.Request("b")
	b.Request("a")
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, 2, b.Coalesced())

	assert.Equal(t, 3, q.RunFrame())
	assert.Equal(t, [][]string{{"a", "b"}}, flushed)

	b.Request("c")
	assert.True(t, b.Flush())
	q.RunFrame()
	assert.Len(t, flushed, 2, "a superseded callback must not flush again")
	assert.False(t, b.Flush())
}
