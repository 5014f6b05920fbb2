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

package aggregates

import (
	"sort"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/google/rowgrid/core/grouping"
)

// Results holds the aggregate values of one pass, keyed by group key then field.
type Results map[string]map[string]any

// For returns the aggregates of a node, or nil.
func (r Results) For(n *grouping.Node) map[string]any {
	if r == nil || n == nil {
		return nil
	}
	return r[n.Key]
}

// Fault records a reducer that could not produce a value.
type Fault struct {
	Field    string
	GroupKey string
	Err      error
}

// Engine computes aggregates for every group of a tree. Results never depend on
// expansion state.
type Engine struct {
	registry *Registry
	fields   map[string]string // field -> reducer ref
	log      logr.Logger
}

// NewEngine creates an engine for the given field -> reducer-ref mapping.
func NewEngine(registry *Registry, fields map[string]string, log logr.Logger) *Engine {
	if registry == nil {
		registry = NewRegistry()
	}
	cp := make(map[string]string, len(fields))
	for f, ref := range fields {
		cp[f] = ref
	}
	return &Engine{registry: registry, fields: cp, log: log}
}

// WithLogger returns a copy of e that logs to log.
func (e *Engine) WithLogger(log logr.Logger) *Engine {
	c := *e
	c.log = log
	return &c
}

// Fields returns the aggregated fields in lexical order.
func (e *Engine) Fields() []string {
	out := make([]string, 0, len(e.fields))
	for f := range e.fields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Compute reduces every configured field for every node of t. Faulty reducers
// yield nil for the affected cell only; faults are returned for reporting.
func (e *Engine) Compute(t *grouping.Tree) (Results, []Fault) {
	if len(e.fields) == 0 || t == nil || t.Empty() {
		return nil, nil
	}
	res := Results{}
	t.Walk(func(n *grouping.Node) { res[n.Key] = make(map[string]any, len(e.fields)) })

	var faults []Fault
	for _, field := range e.Fields() {
		ref := e.fields[field]
		reducer, ok := e.registry.Lookup(ref)
		if !ok {
			faults = append(faults, Fault{Field: field, Err: errors.Errorf("unknown reducer %q", ref)})
			for key := range res {
				res[key][field] = nil
			}
			continue
		}
		if h, ok := reducer.(HierarchicalReducer); ok {
			faults = append(faults, e.computeHierarchical(t, field, h, res)...)
		} else {
			faults = append(faults, e.computeFlat(t, field, reducer, res)...)
		}
	}
	for _, f := range faults {
		e.log.Info("aggregate left blank", "severity", "warning", "field", f.Field, "group", f.GroupKey, "error", f.Err.Error())
	}
	return res, faults
}

func (e *Engine) computeFlat(t *grouping.Tree, field string, reducer Reducer, res Results) []Fault {
	var faults []Fault
	t.Walk(func(n *grouping.Node) {
		v, err := SafeReduce(reducer, n.AllRecords(), field)
		if err != nil {
			faults = append(faults, Fault{Field: field, GroupKey: n.Key, Err: err})
		}
		res[n.Key][field] = v
	})
	return faults
}

// computeHierarchical accumulates each node's own rows and merges child
// states bottom-up.
func (e *Engine) computeHierarchical(t *grouping.Tree, field string, h HierarchicalReducer, res Results) (faults []Fault) {
	defer func() {
		if r := recover(); r != nil {
			faults = append(faults, Fault{Field: field, Err: errors.Errorf("reducer panicked: %v", r)})
			for key := range res {
				res[key][field] = nil
			}
		}
	}()

	var visit func(n *grouping.Node) AggregateState
	visit = func(n *grouping.Node) AggregateState {
		state := h.NewState()
		for _, c := range n.Children {
			if c.IsGroup() {
				state.Combine(visit(c.Group))
			} else {
				state.Add(c.Row.Data.Get(field))
			}
		}
		res[n.Key][field] = h.Result(state)
		return state
	}
	for _, r := range t.Roots() {
		visit(r)
	}
	return nil
}
