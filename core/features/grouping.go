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

// Package features holds the built-in grid plugins.
package features

import (
	"fmt"
	"strconv"

	"github.com/go-logr/logr"

	"github.com/google/rowgrid/core/aggregates"
	"github.com/google/rowgrid/core/config"
	"github.com/google/rowgrid/core/expansion"
	"github.com/google/rowgrid/core/grouping"
	"github.com/google/rowgrid/core/plugins"
	"github.com/google/rowgrid/core/rows"
	"github.com/google/rowgrid/core/viewport"
)

// Plugin names.
const (
	NameGrouping  = "grouping"
	NameFiltering = "filtering"
	NameSorting   = "sorting"
	NameSelection = "selection"
	NameClipboard = "clipboard"
	NameReorder   = "reorder"
)

// QueryGroupState is answered by the grouping plugin with a GroupState.
const QueryGroupState = "group-state"

// GroupState summarizes the grouping feature.
type GroupState struct {
	IsActive      bool     `json:"isActive"`
	ExpandedCount int      `json:"expandedCount"`
	TotalGroups   int      `json:"totalGroups"`
	ExpandedKeys  []string `json:"expandedKeys"`
}

// ToggleEvent is the payload of plugins.EventGroupToggle.
type ToggleEvent struct {
	Key      string
	Expanded bool
	Value    string
	Depth    int
}

// PassInfo describes the last grouping pass.
type PassInfo struct {
	Active        bool
	Groups        int
	Ungrouped     int
	VisibleData   []rows.Identity
	ResolverFault error
	ReducerFaults []aggregates.Fault
}

// Grouping turns data rows into collapsible group headers followed by the
// rows of expanded groups.
type Grouping struct {
	cfg    config.Resolved
	store  *expansion.Store
	engine *aggregates.Engine
	host   plugins.Host
	log    logr.Logger

	tree    *grouping.Tree
	results aggregates.Results
	out     []rows.RenderRow
	last    PassInfo

	// seen is set once a pass has run over at least one row.
	seen bool
}

// NewGrouping creates the grouping feature. reducers may be nil for the
// built-ins only.
func NewGrouping(cfg config.Resolved, reducers *aggregates.Registry) *Grouping {
	return &Grouping{
		cfg:    cfg.Clone(),
		store:  expansion.NewStore(grouping.KeyDepth, grouping.IsRelated),
		engine: aggregates.NewEngine(reducers, cfg.Aggregators, logr.Discard()),
		log:    logr.Discard(),
	}
}

func (g *Grouping) Name() string { return NameGrouping }

func (g *Grouping) Dependencies() []plugins.Dependency {
	return []plugins.Dependency{plugins.After(NameFiltering), plugins.After(NameSorting)}
}

func (g *Grouping) Attach(host plugins.Host) {
	g.host = host
	g.log = host.Logger().WithName(NameGrouping)
	g.engine = g.engine.WithLogger(g.log)
}

// Detach drops the expansion state, including the default-applied flag.
func (g *Grouping) Detach() {
	g.store.Reset()
	g.host = nil
	g.tree = nil
	g.results = nil
	g.out = nil
	g.last = PassInfo{}
	g.seen = false
}

// ProcessRows builds the tree and flattens it. When nothing groups, or the
// resolver faults, the input is returned unchanged.
func (g *Grouping) ProcessRows(in []rows.RenderRow) []rows.RenderRow {
	resolve := g.cfg.PathResolver()
	g.last = PassInfo{}
	if len(in) > 0 {
		g.seen = true
	}
	if resolve == nil {
		g.reset(in)
		return in
	}
	tree, err := grouping.Build(in, resolve)
	if err != nil {
		g.log.Info("grouping disabled for this dataset", "severity", "warning", "error", err.Error())
		g.last.ResolverFault = err
		g.reset(in)
		return in
	}
	if tree.Empty() {
		g.reset(in)
		g.last.Ungrouped = tree.Ungrouped
		return in
	}

	if g.store.ResolveInitial(g.cfg.DefaultExpanded, tree.Keys(), tree.TopLevelKeys()) {
		g.log.V(1).Info("default expansion applied", "default", g.cfg.DefaultExpanded.String(), "expanded", g.store.Len())
	}
	results, faults := g.engine.Compute(tree)
	flat := grouping.Flatten(tree, g.store.IsExpanded, results.For)

	g.tree = tree
	g.results = results
	g.out = flat.Rows
	g.last = PassInfo{
		Active:        true,
		Groups:        flat.Groups,
		Ungrouped:     tree.Ungrouped,
		VisibleData:   flat.VisibleData,
		ReducerFaults: faults,
	}
	g.log.V(1).Info("grouped", "groups", tree.Len(), "rows", len(flat.Rows), "ungrouped", tree.Ungrouped)
	return flat.Rows
}

func (g *Grouping) reset(in []rows.RenderRow) {
	g.tree = nil
	g.results = nil
	g.out = in
}

// LastPass describes the most recent ProcessRows call.
func (g *Grouping) LastPass() PassInfo {
	return g.last
}

// IsActive reports whether the last pass produced any group.
func (g *Grouping) IsActive() bool {
	return g.tree != nil
}

// Tree returns the tree of the last pass, or nil.
func (g *Grouping) Tree() *grouping.Tree {
	return g.tree
}

// Aggregates returns the aggregate results of the last pass.
func (g *Grouping) Aggregates() aggregates.Results {
	return g.results
}

// AggregateFields returns the aggregated fields in display order.
func (g *Grouping) AggregateFields() []string {
	return g.engine.Fields()
}

// AggregateType returns the reducer reference configured for field.
func (g *Grouping) AggregateType(field string) string {
	return g.cfg.Aggregators[field]
}

// FlattenedRows returns the sequence produced by the last pass.
func (g *Grouping) FlattenedRows() []rows.RenderRow {
	return g.out
}

// RowCount returns the length of the last sequence.
func (g *Grouping) RowCount() int {
	return len(g.out)
}

// known reports whether key may be operated on: any key before the first
// rows arrive, afterwards only keys of the current tree.
func (g *Grouping) known(key string) bool {
	if !g.seen {
		return true
	}
	return g.tree != nil && g.tree.Has(key)
}

// Expand expands key. Unknown keys are ignored.
func (g *Grouping) Expand(key string) {
	if g.known(key) && g.store.Expand(key) {
		g.changed(key, true)
	}
}

// Collapse collapses key. Unknown keys are ignored.
func (g *Grouping) Collapse(key string) {
	if g.known(key) && g.store.Collapse(key) {
		g.changed(key, false)
	}
}

// Toggle flips key, applying accordion mode when configured, and returns the
// new state.
func (g *Grouping) Toggle(key string) bool {
	if !g.known(key) {
		return false
	}
	expanded := g.store.Toggle(key, g.cfg.Accordion)
	g.changed(key, expanded)
	return expanded
}

// ExpandAll expands every group of the current tree.
func (g *Grouping) ExpandAll() {
	if g.tree == nil {
		return
	}
	g.store.ExpandAll(g.tree.Keys())
	g.invalidate("expand-all")
}

// CollapseAll collapses every group.
func (g *Grouping) CollapseAll() {
	if g.store.Len() == 0 {
		return
	}
	g.store.CollapseAll()
	g.invalidate("collapse-all")
}

// IsExpanded reports whether key is expanded.
func (g *Grouping) IsExpanded(key string) bool {
	return g.store.IsExpanded(key)
}

// GroupState summarizes the current grouping.
func (g *Grouping) GroupState() GroupState {
	st := GroupState{IsActive: g.tree != nil, ExpandedKeys: []string{}}
	if g.tree == nil {
		return st
	}
	st.TotalGroups = g.tree.Len()
	for _, k := range g.store.Snapshot().Sorted() {
		if g.tree.Has(k) {
			st.ExpandedKeys = append(st.ExpandedKeys, k)
		}
	}
	st.ExpandedCount = len(st.ExpandedKeys)
	return st
}

func (g *Grouping) changed(key string, expanded bool) {
	ev := ToggleEvent{Key: key, Expanded: expanded, Value: grouping.LastSegment(key), Depth: grouping.KeyDepth(key)}
	if g.tree != nil {
		if n, ok := g.tree.Lookup(key); ok {
			ev.Value, ev.Depth = n.Value, n.Depth
		}
	}
	if g.host != nil {
		g.host.Bus().Emit(plugins.Event{Name: plugins.EventGroupToggle, Source: NameGrouping, Payload: ev})
	}
	g.invalidate("toggle")
}

func (g *Grouping) invalidate(reason string) {
	if g.host == nil {
		return
	}
	g.host.Invalidate(reason)
	g.host.Bus().Emit(plugins.Event{Name: plugins.EventStateChange, Source: NameGrouping, Payload: g.GroupState()})
}

// HandleInput toggles group rows: click, Enter or Space toggle, Right
// expands and Left collapses.
func (g *Grouping) HandleInput(ev plugins.InputEvent) bool {
	if !ev.Row.IsGroup() || ev.Modified() || ev.Alt {
		return false
	}
	key := ev.Row.Group.Key
	switch {
	case ev.Type == plugins.EventClick,
		ev.Type == plugins.EventKey && (ev.Key == "enter" || ev.Key == "space"):
		g.Toggle(key)
		return true
	case ev.Type == plugins.EventKey && ev.Key == "right":
		if !g.IsExpanded(key) {
			g.Toggle(key)
		}
		return true
	case ev.Type == plugins.EventKey && ev.Key == "left":
		if g.IsExpanded(key) {
			g.Toggle(key)
		}
		return true
	}
	return false
}

// Label returns the display label of a group header.
func (g *Grouping) Label(h *rows.GroupHeader) string {
	label := g.cfg.Label(h.Value, h.Depth, h.Key)
	if g.cfg.ShowCount {
		label = fmt.Sprintf("%s (%d)", label, h.RowCount)
	}
	return label
}

// Indent returns the indentation of a row at depth.
func (g *Grouping) Indent(depth int) int {
	return max(0, depth) * g.cfg.IndentSize
}

// HeightHint returns the configured group row height for group rows, or 0.
func (g *Grouping) HeightHint(r rows.RenderRow) int {
	if r.IsGroup() {
		return g.cfg.GroupRowHeight
	}
	return 0
}

// RenderRow presents group rows as one full-width header when configured.
func (g *Grouping) RenderRow(row rows.RenderRow, slot *viewport.Slot) bool {
	if !row.IsGroup() {
		return false
	}
	h := row.Group
	slot.AddClass("rg-group-row")
	if h.Expanded {
		slot.AddClass("rg-expanded")
	}
	slot.SetAttr("aria-expanded", strconv.FormatBool(h.Expanded))
	slot.SetAttr("aria-level", strconv.Itoa(h.Depth+1))
	slot.SetAttr("data-group-key", h.Key)
	slot.SetAttr("indent", strconv.Itoa(g.Indent(h.Depth)))
	if !g.cfg.FullWidthGroupRows {
		return false
	}
	slot.FullWidth = true
	slot.Content = g.Label(h)
	return true
}

// HandleQuery vetoes reordering of group rows and reports the group state.
func (g *Grouping) HandleQuery(q plugins.Query) (any, bool) {
	switch q.Type {
	case plugins.QueryCanReorder:
		if r, ok := q.Payload.(rows.RenderRow); ok && r.IsGroup() {
			return false, true
		}
	case QueryGroupState:
		return g.GroupState(), true
	}
	return nil, false
}
