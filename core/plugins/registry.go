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
	"sort"
	"sync"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

// Factory creates a plugin with its default configuration.
type Factory func() Plugin

// Registry maps plugin names to factories. Nothing registers itself; callers
// populate a registry explicitly at startup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Registering a name twice is an error.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" || f == nil {
		return errors.New("plugin name and factory are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return errors.Errorf("plugin already registered: %s", name)
	}
	r.factories[name] = f
	return nil
}

// MustRegister is Register for static setup code.
func (r *Registry) MustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// New creates the named plugin.
func (r *Registry) New(name string) (Plugin, bool) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return f(), true
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Warning codes reported by Build.
const (
	WarnImplicitDependency = "implicit-dependency"
	WarnMissingDependency  = "missing-dependency"
	WarnDependencyCycle    = "dependency-cycle"
	WarnUnknownPlugin      = "unknown-plugin"
	WarnDuplicatePlugin    = "duplicate-plugin"
)

// Warning is a non-fatal plugin configuration problem.
type Warning struct {
	Code    string
	Plugin  string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Builder composes a pipeline. Configuration problems never fail the build;
// they are reported as warnings.
type Builder struct {
	registry *Registry
	log      logr.Logger
	plugins  []Plugin
	index    map[string]int
	warnings []Warning
}

// NewBuilder creates a builder. registry may be nil when no implicit
// dependencies are wanted.
func NewBuilder(registry *Registry, log logr.Logger) *Builder {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Builder{registry: registry, log: log, index: map[string]int{}}
}

func (b *Builder) warn(code, plugin, format string, args ...any) {
	w := Warning{Code: code, Plugin: plugin, Message: fmt.Sprintf(format, args...)}
	b.warnings = append(b.warnings, w)
	b.log.Info("plugin configuration", "severity", "warning", "code", code, "plugin", plugin, "message", w.Message)
}

// Use adds configured plugin instances in the given order. A second plugin
// with an already used name is ignored.
func (b *Builder) Use(ps ...Plugin) *Builder {
	for _, p := range ps {
		if p == nil {
			continue
		}
		name := p.Name()
		if _, dup := b.index[name]; dup {
			b.warn(WarnDuplicatePlugin, name, "plugin %q added twice; keeping the first", name)
			continue
		}
		b.index[name] = len(b.plugins)
		b.plugins = append(b.plugins, p)
	}
	return b
}

// UseNamed adds plugins from the registry with their default configuration.
func (b *Builder) UseNamed(names ...string) *Builder {
	for _, name := range names {
		if _, dup := b.index[name]; dup {
			continue
		}
		p, ok := b.registry.New(name)
		if !ok {
			b.warn(WarnUnknownPlugin, name, "plugin %q is not registered", name)
			continue
		}
		b.Use(p)
	}
	return b
}

// Build resolves dependencies and returns the ordered pipeline with any
// warnings raised while composing it.
func (b *Builder) Build() (*Pipeline, []Warning) {
	b.insertImplicit()
	ordered := b.order()
	return newPipeline(ordered, b.log), b.warnings
}

// insertImplicit adds every missing required dependency from the registry.
// The list grows while it is walked so dependencies of added plugins are
// satisfied too.
func (b *Builder) insertImplicit() {
	for i := 0; i < len(b.plugins); i++ {
		p := b.plugins[i]
		for _, dep := range dependencies(p) {
			if dep.Optional {
				continue
			}
			if _, ok := b.index[dep.Name]; ok {
				continue
			}
			added, ok := b.registry.New(dep.Name)
			if !ok {
				b.warn(WarnMissingDependency, p.Name(), "plugin %q requires %q, which is not available", p.Name(), dep.Name)
				continue
			}
			b.warn(WarnImplicitDependency, dep.Name, "plugin %q requires %q; added with default configuration", p.Name(), dep.Name)
			b.index[dep.Name] = len(b.plugins)
			b.plugins = append(b.plugins, added)
		}
	}
}

// order sorts plugins so dependencies run first. Plugins are visited
// depth-first in insertion order; an edge that closes a cycle is dropped, so
// the plugin seen first keeps its place.
func (b *Builder) order() []Plugin {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(b.plugins))
	out := make([]Plugin, 0, len(b.plugins))

	var visit func(p Plugin)
	visit = func(p Plugin) {
		name := p.Name()
		state[name] = visiting
		for _, dep := range dependencies(p) {
			i, present := b.index[dep.Name]
			if !present {
				continue
			}
			switch state[dep.Name] {
			case visiting:
				b.warn(WarnDependencyCycle, name, "dependency cycle between %q and %q; ignoring %q -> %q", name, dep.Name, name, dep.Name)
			case unvisited:
				visit(b.plugins[i])
			}
		}
		state[name] = done
		out = append(out, p)
	}
	for _, p := range b.plugins {
		if state[p.Name()] == unvisited {
			visit(p)
		}
	}
	return out
}

func dependencies(p Plugin) (deps []Dependency) {
	d, ok := p.(Dependent)
	if !ok {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			deps = nil
		}
	}()
	return d.Dependencies()
}
