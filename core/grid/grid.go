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

// Package grid is the widget facade: it owns the data, the plugin pipeline,
// the viewport and the frame batching, and exposes the public grouping API.
//
// A Grid is not safe for concurrent use. All calls are expected from one
// event loop, the way a UI drives it.
package grid

import (
	"slices"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/google/rowgrid/core/aggregates"
	"github.com/google/rowgrid/core/config"
	"github.com/google/rowgrid/core/features"
	"github.com/google/rowgrid/core/metrics"
	"github.com/google/rowgrid/core/plugins"
	"github.com/google/rowgrid/core/rows"
	"github.com/google/rowgrid/core/viewport"
	"github.com/google/rowgrid/core/visibility"
)

// Invalidation reasons. Scroll, resize and measure only move the window and
// need no new pass.
const (
	ReasonScroll  = "scroll"
	ReasonResize  = "resize"
	ReasonMeasure = "measure"
	ReasonData    = "data"
)

// Warning is a configuration or plugin-composition problem found while
// building the grid.
type Warning struct {
	Source  string // "config" or "plugins"
	Code    string
	Subject string
	Message string
}

// GroupState is the grouping summary returned by Grid.GroupState.
type GroupState = features.GroupState

type settings struct {
	log       logr.Logger
	defaults  config.Resolved
	rules     []config.Rule
	registry  *plugins.Registry
	extra     []plugins.Plugin
	reducers  *aggregates.Registry
	clipboard features.ClipboardWriter
	sched     FrameScheduler
	onFrame   func(Frame)
}

// Option customizes New.
type Option func(*settings)

// WithLogger sets the logger. The default discards.
func WithLogger(log logr.Logger) Option {
	return func(s *settings) { s.log = log }
}

// WithDefaults replaces config.Defaults() as the base for resolution.
func WithDefaults(d config.Resolved) Option {
	return func(s *settings) { s.defaults = d }
}

// WithRules replaces the configuration warning rules.
func WithRules(rules ...config.Rule) Option {
	return func(s *settings) { s.rules = rules }
}

// WithRegistry replaces the registry used for named and implicit plugins.
func WithRegistry(r *plugins.Registry) Option {
	return func(s *settings) { s.registry = r }
}

// WithPlugins adds plugin instances after the named ones.
func WithPlugins(ps ...plugins.Plugin) Option {
	return func(s *settings) { s.extra = append(s.extra, ps...) }
}

// WithReducers supplies custom aggregate reducers.
func WithReducers(r *aggregates.Registry) Option {
	return func(s *settings) { s.reducers = r }
}

// WithClipboard sets where the clipboard feature writes.
func WithClipboard(w features.ClipboardWriter) Option {
	return func(s *settings) { s.clipboard = w }
}

// WithScheduler replaces the default FrameQueue.
func WithScheduler(f FrameScheduler) Option {
	return func(s *settings) { s.sched = f }
}

// OnFrame registers a callback receiving every flushed frame.
func OnFrame(fn func(Frame)) Option {
	return func(s *settings) { s.onFrame = fn }
}

// Grid is one widget instance.
type Grid struct {
	id       string
	log      logr.Logger
	cfg      config.Resolved
	warnings []Warning

	bus      *plugins.Bus
	pipeline *plugins.Pipeline
	grouping *features.Grouping
	metrics  *metrics.Collector

	window    *viewport.Window
	tracker   *visibility.Tracker
	animation visibility.Animation
	entering  map[rows.Identity]struct{}
	lastFocus rows.Identity
	scroll    *scrollRequest

	queue   *FrameQueue
	batcher *Batcher
	onFrame func(Frame)

	data   []rows.RenderRow
	rows   []rows.RenderRow
	passes int
	seq    int
	closed bool
}

// New creates a grid from user options. Problems in the options or in the
// plugin composition never fail; they are returned by Warnings.
func New(opts config.Options, options ...Option) *Grid {
	s := settings{log: logr.Discard(), defaults: config.Defaults()}
	for _, o := range options {
		o(&s)
	}
	if s.reducers == nil {
		s.reducers = aggregates.NewRegistry()
	}

	id := uuid.NewString()
	log := s.log.WithValues("grid", id)
	g := &Grid{
		id:       id,
		log:      log,
		metrics:  metrics.New(id),
		bus:      plugins.NewBus(id, log),
		tracker:  visibility.NewTracker(),
		entering: map[rows.Identity]struct{}{},
		onFrame:  s.onFrame,
	}

	resolveOpts := []config.Option{config.WithReducers(s.reducers.Has), config.WithLogger(log)}
	if s.rules != nil {
		resolveOpts = append(resolveOpts, config.WithRules(s.rules...))
	}
	cfg, cw := config.Resolve(opts, s.defaults, resolveOpts...)
	g.cfg = cfg
	for _, w := range cw {
		g.warnings = append(g.warnings, Warning{Source: "config", Code: w.ID, Subject: w.Field, Message: w.Message})
	}
	g.metrics.Warning(metrics.KindConfig, len(cw))

	reg := s.registry
	if reg == nil {
		reg = features.DefaultRegistry(features.Env{Config: cfg, Reducers: s.reducers, Clipboard: s.clipboard})
	}
	pipeline, pw := plugins.NewBuilder(reg, log).UseNamed(cfg.Plugins...).Use(s.extra...).Build()
	for _, w := range pw {
		g.warnings = append(g.warnings, Warning{Source: "plugins", Code: w.Code, Subject: w.Plugin, Message: w.Message})
	}
	g.metrics.Warning(metrics.KindPlugin, len(pw))
	g.pipeline = pipeline
	g.pipeline.OnFault(func(plugins.Fault) {
		g.metrics.Fault(metrics.KindPlugin, 1)
	})
	g.grouping, _ = plugins.Find[*features.Grouping](pipeline)

	g.animation = cfg.ActiveAnimation()
	g.window = viewport.New(cfg.ViewportHeight, cfg.RowHeight, cfg.Overscan)

	if s.sched == nil {
		g.queue = &FrameQueue{}
		s.sched = g.queue
	}
	g.batcher = NewBatcher(s.sched, g.flush)
	g.batcher.OnCoalesce = g.metrics.Coalesced

	g.pipeline.Attach(g)
	g.log.V(1).Info("grid created", "plugins", g.pipeline.Names(), "warnings", len(g.warnings))
	return g
}

// ID returns the instance id stamped on events and log lines.
func (g *Grid) ID() string { return g.id }

// Config returns the resolved configuration.
func (g *Grid) Config() config.Resolved { return g.cfg.Clone() }

// Warnings returns the problems found while building the grid.
func (g *Grid) Warnings() []Warning { return slices.Clone(g.warnings) }

// Pipeline returns the ordered plugin pipeline.
func (g *Grid) Pipeline() *plugins.Pipeline { return g.pipeline }

// Metrics returns the grid's collector.
func (g *Grid) Metrics() *metrics.Collector { return g.metrics }

// Window returns the viewport window.
func (g *Grid) Window() *viewport.Window { return g.window }

// Subscribe registers an event handler; name "*" receives everything.
func (g *Grid) Subscribe(name string, h plugins.Handler) func() {
	return g.bus.Subscribe(name, h)
}

// Logger, Bus, Query, Invalidate and Rows implement plugins.Host.

func (g *Grid) Logger() logr.Logger { return g.log }

func (g *Grid) Bus() *plugins.Bus { return g.bus }

func (g *Grid) Query(q plugins.Query) []plugins.Answer { return g.pipeline.Query(q) }

// Invalidate schedules a pass for the next frame. Requests within one frame
// are merged.
func (g *Grid) Invalidate(reason string) {
	if g.closed {
		return
	}
	g.batcher.Request(reason)
}

// Rows returns the current flattened sequence without flushing.
func (g *Grid) Rows() []rows.RenderRow { return g.rows }

// Tick runs the frame callbacks queued on the default scheduler and reports
// how many ran. It does nothing when a custom scheduler is installed.
func (g *Grid) Tick() int {
	if g.queue == nil {
		return 0
	}
	return g.queue.RunFrame()
}

// Flush runs any pending pass now.
func (g *Grid) Flush() {
	g.batcher.Flush()
}

// Pending reports whether a pass is scheduled.
func (g *Grid) Pending() bool {
	return g.batcher.Pending()
}

// Passes returns how many processing passes ran.
func (g *Grid) Passes() int { return g.passes }

// SetData replaces the records. The caller keeps ownership; the grid never
// modifies them.
func (g *Grid) SetData(records []rows.Row) {
	g.data = rows.FromRecords(records)
	g.Invalidate(ReasonData)
}

// Data returns the unprocessed sequence.
func (g *Grid) Data() []rows.RenderRow { return g.data }

func (g *Grid) flush(reasons []string) {
	if g.closed {
		return
	}
	if g.passes == 0 || slices.ContainsFunc(reasons, needsPass) {
		g.process()
	}
	g.applyScroll()
	f := g.render(reasons)
	g.metrics.Frame()
	if g.onFrame != nil {
		g.onFrame(f)
	}
}

func needsPass(reason string) bool {
	return reason != ReasonScroll && reason != ReasonResize && reason != ReasonMeasure
}

// process runs the pipeline over the data and lays out the result.
func (g *Grid) process() {
	start := time.Now()
	out := g.pipeline.ProcessRows(g.data)
	g.rows = out
	g.passes++

	groups, _ := rows.CountKinds(out)
	g.metrics.ObservePass(time.Since(start), len(out), groups)
	if g.grouping != nil {
		pass := g.grouping.LastPass()
		if pass.ResolverFault != nil {
			g.metrics.Fault(metrics.KindResolver, 1)
		}
		g.metrics.Fault(metrics.KindReducer, len(pass.ReducerFaults))
	}

	var estimate func(int) int
	if g.grouping != nil && g.cfg.GroupRowHeight > 0 {
		estimate = func(i int) int { return g.grouping.HeightHint(out[i]) }
	}
	g.window.SetRows(len(out), estimate)
	g.window.Pool().Invalidate()

	g.trackVisibility(out)
	g.followFocus()
	g.log.V(1).Info("pass", "rows", len(out), "groups", groups, "took", time.Since(start))
}

// trackVisibility diffs the visible data identities against the previous
// pass and marks the new ones for the enter animation.
func (g *Grid) trackVisibility(out []rows.RenderRow) {
	data := rows.DataRows(out)
	ids := make([]rows.Identity, len(data))
	for i, r := range data {
		ids[i] = r.Identity()
	}
	entered := g.tracker.Update(ids)
	g.entering = map[rows.Identity]struct{}{}
	if g.animation != visibility.AnimationNone {
		for _, id := range entered {
			g.entering[id] = struct{}{}
		}
	}
	if len(entered) > 0 {
		g.bus.Emit(plugins.Event{
			Name:    plugins.EventVisibleRowsChange,
			Source:  "grid",
			Payload: VisibleRowsChange{Entered: entered, Visible: len(ids), Animation: g.animation},
		})
	}
}

// followFocus scrolls the focused row into view when the focus moved.
func (g *Grid) followFocus() {
	sel, ok := plugins.Find[*features.Selection](g.pipeline)
	if !ok {
		return
	}
	focus := sel.Focus()
	if focus == "" || focus == g.lastFocus {
		return
	}
	g.lastFocus = focus
	for i, r := range g.rows {
		if r.Identity() == focus {
			g.window.EnsureVisible(i)
			return
		}
	}
}

// VisibleRowsChange is the payload of plugins.EventVisibleRowsChange.
type VisibleRowsChange struct {
	Entered   []rows.Identity
	Visible   int
	Animation visibility.Animation
}

// Close detaches every plugin. Expansion state is dropped.
func (g *Grid) Close() {
	if g.closed {
		return
	}
	g.pipeline.Detach()
	g.closed = true
}

// Grouping API. Every call flushes pending work first so keys are checked
// against the current tree.

// Expand expands a group key. Unknown keys are ignored.
func (g *Grid) Expand(key string) {
	if gr := g.groupingFlushed(); gr != nil {
		gr.Expand(key)
	}
}

// Collapse collapses a group key. Unknown keys are ignored.
func (g *Grid) Collapse(key string) {
	if gr := g.groupingFlushed(); gr != nil {
		gr.Collapse(key)
	}
}

// Toggle flips a group key and returns its new state.
func (g *Grid) Toggle(key string) bool {
	if gr := g.groupingFlushed(); gr != nil {
		return gr.Toggle(key)
	}
	return false
}

// ExpandAll expands every group.
func (g *Grid) ExpandAll() {
	if gr := g.groupingFlushed(); gr != nil {
		gr.ExpandAll()
	}
}

// CollapseAll collapses every group.
func (g *Grid) CollapseAll() {
	if gr := g.groupingFlushed(); gr != nil {
		gr.CollapseAll()
	}
}

// IsExpanded reports whether key is expanded.
func (g *Grid) IsExpanded(key string) bool {
	if gr := g.groupingFlushed(); gr != nil {
		return gr.IsExpanded(key)
	}
	return false
}

// GroupState summarizes the grouping.
func (g *Grid) GroupState() GroupState {
	if gr := g.groupingFlushed(); gr != nil {
		return gr.GroupState()
	}
	return GroupState{ExpandedKeys: []string{}}
}

// FlattenedRows returns the current render sequence.
func (g *Grid) FlattenedRows() []rows.RenderRow {
	g.Flush()
	return g.rows
}

// RowCount returns the length of the render sequence.
func (g *Grid) RowCount() int {
	g.Flush()
	return len(g.rows)
}

// Grouping returns the grouping feature, or nil when it is not enabled.
func (g *Grid) Grouping() *features.Grouping { return g.grouping }

func (g *Grid) groupingFlushed() *features.Grouping {
	g.Flush()
	return g.grouping
}

// SetFilter sets or clears (empty value) a filter when filtering is enabled.
func (g *Grid) SetFilter(field, value string) bool {
	f, ok := plugins.Find[*features.Filtering](g.pipeline)
	if ok {
		f.SetFilter(field, value)
	}
	return ok
}

// SetSort replaces the sort keys when sorting is enabled.
func (g *Grid) SetSort(keys ...config.SortKey) bool {
	s, ok := plugins.Find[*features.Sorting](g.pipeline)
	if ok {
		s.SetSort(keys...)
	}
	return ok
}

// Selected returns the selected identities, or nil without selection.
func (g *Grid) Selected() []rows.Identity {
	if s, ok := plugins.Find[*features.Selection](g.pipeline); ok {
		return s.Selected()
	}
	return nil
}

// Select adds ids to the selection when selection is enabled.
func (g *Grid) Select(ids ...rows.Identity) bool {
	s, ok := plugins.Find[*features.Selection](g.pipeline)
	if ok {
		s.Select(ids...)
	}
	return ok
}

// FocusIndex returns the position of the focused row in the flattened
// sequence, or -1.
func (g *Grid) FocusIndex() int {
	g.Flush()
	s, ok := plugins.Find[*features.Selection](g.pipeline)
	if !ok || s.Focus() == "" {
		return -1
	}
	for i, r := range g.rows {
		if r.Identity() == s.Focus() {
			return i
		}
	}
	return -1
}

// Key sends a key press to the focused row.
func (g *Grid) Key(key string, shift bool) string {
	return g.HandleInput(plugins.InputEvent{Type: plugins.EventKey, Key: key, Index: g.FocusIndex(), Shift: shift})
}

// HandleInput routes an input event through the pipeline. Index addresses
// the render sequence; Row is filled in from it. It returns the name of the
// consuming plugin, or "".
func (g *Grid) HandleInput(ev plugins.InputEvent) string {
	g.Flush()
	if ev.Index >= 0 && ev.Index < len(g.rows) {
		ev.Row = g.rows[ev.Index]
	} else if ev.Type == plugins.EventClick {
		return ""
	}
	return g.pipeline.DispatchInput(ev)
}
