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

package plugins

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/samber/lo"

	"github.com/google/rowgrid/core/rows"
	"github.com/google/rowgrid/core/viewport"
)

// Fault is a recovered panic from a plugin hook.
type Fault struct {
	Plugin string
	Hook   string
	Value  any
}

func (f Fault) Error() string {
	return fmt.Sprintf("plugin %s: %s panicked: %v", f.Plugin, f.Hook, f.Value)
}

// Pipeline runs plugins in dependency order.
type Pipeline struct {
	plugins []Plugin
	byName  map[string]Plugin
	log     logr.Logger
	onFault func(Fault)
}

func newPipeline(ps []Plugin, log logr.Logger) *Pipeline {
	return &Pipeline{
		plugins: ps,
		byName:  lo.KeyBy(ps, func(p Plugin) string { return p.Name() }),
		log:     log,
	}
}

// New builds a pipeline directly from ordered plugins, skipping dependency
// resolution.
func New(log logr.Logger, ps ...Plugin) *Pipeline {
	return newPipeline(ps, log)
}

// OnFault sets a callback invoked for every recovered hook panic.
func (p *Pipeline) OnFault(fn func(Fault)) {
	p.onFault = fn
}

// Plugins returns the plugins in execution order.
func (p *Pipeline) Plugins() []Plugin {
	return append([]Plugin(nil), p.plugins...)
}

// Names returns plugin names in execution order.
func (p *Pipeline) Names() []string {
	return lo.Map(p.plugins, func(pl Plugin, _ int) string { return pl.Name() })
}

// Get returns the named plugin.
func (p *Pipeline) Get(name string) (Plugin, bool) {
	pl, ok := p.byName[name]
	return pl, ok
}

// Find returns the first plugin of type T.
func Find[T any](p *Pipeline) (T, bool) {
	for _, pl := range p.plugins {
		if t, ok := pl.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

func (p *Pipeline) guard(pl Plugin, hook string) {
	if r := recover(); r != nil {
		f := Fault{Plugin: pl.Name(), Hook: hook, Value: r}
		p.log.Info("plugin hook recovered", "severity", "error", "plugin", f.Plugin, "hook", hook, "panic", fmt.Sprint(r))
		if p.onFault != nil {
			p.onFault(f)
		}
	}
}

// Attach calls every Attacher in order.
func (p *Pipeline) Attach(h Host) {
	for _, pl := range p.plugins {
		if a, ok := pl.(Attacher); ok {
			func() {
				defer p.guard(pl, "Attach")
				a.Attach(h)
			}()
		}
	}
}

// Detach calls every Detacher in reverse order.
func (p *Pipeline) Detach() {
	for i := len(p.plugins) - 1; i >= 0; i-- {
		pl := p.plugins[i]
		if d, ok := pl.(Detacher); ok {
			func() {
				defer p.guard(pl, "Detach")
				d.Detach()
			}()
		}
	}
}

// ProcessRows threads the sequence through every RowProcessor. A processor
// that panics is skipped for this pass.
func (p *Pipeline) ProcessRows(in []rows.RenderRow) []rows.RenderRow {
	cur := in
	for _, pl := range p.plugins {
		proc, ok := pl.(RowProcessor)
		if !ok {
			continue
		}
		func() {
			defer p.guard(pl, "ProcessRows")
			cur = proc.ProcessRows(cur)
		}()
	}
	return cur
}

// RenderRow offers a slot to each RowRenderer until one handles it. It
// returns the handling plugin's name, or "".
func (p *Pipeline) RenderRow(row rows.RenderRow, slot *viewport.Slot) string {
	for _, pl := range p.plugins {
		r, ok := pl.(RowRenderer)
		if !ok {
			continue
		}
		handled := false
		func() {
			defer p.guard(pl, "RenderRow")
			handled = r.RenderRow(row, slot)
		}()
		if handled {
			slot.HandledBy = pl.Name()
			return pl.Name()
		}
	}
	return ""
}

// DispatchInput offers an event to each InputHandler until one consumes it.
// It returns the consuming plugin's name, or "".
func (p *Pipeline) DispatchInput(ev InputEvent) string {
	for _, pl := range p.plugins {
		h, ok := pl.(InputHandler)
		if !ok {
			continue
		}
		consumed := false
		func() {
			defer p.guard(pl, "HandleInput")
			consumed = h.HandleInput(ev)
		}()
		if consumed {
			return pl.Name()
		}
	}
	return ""
}

// Query broadcasts q and collects every answer in plugin order.
func (p *Pipeline) Query(q Query) []Answer {
	var out []Answer
	for _, pl := range p.plugins {
		r, ok := pl.(QueryResponder)
		if !ok {
			continue
		}
		func() {
			defer p.guard(pl, "HandleQuery")
			if v, ok := r.HandleQuery(q); ok {
				out = append(out, Answer{Plugin: pl.Name(), Value: v})
			}
		}()
	}
	return out
}
