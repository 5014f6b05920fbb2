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
	"sync"

	"github.com/pkg/errors"

	"github.com/google/rowgrid/core/rows"
)

// Reducer reduces one field over a group's records. A nil result renders blank.
type Reducer interface {
	Reduce(records []rows.Row, field string) (any, error)
}

// ReducerFunc adapts a function to Reducer. Custom reducers must be pure.
type ReducerFunc func(records []rows.Row, field string) (any, error)

// Reduce calls f.
func (f ReducerFunc) Reduce(records []rows.Row, field string) (any, error) {
	return f(records, field)
}

// HierarchicalReducer is a Reducer whose intermediate state can be combined
// across child groups instead of re-reading every transitive record.
type HierarchicalReducer interface {
	Reducer
	NewState() AggregateState
	Result(state AggregateState) any
}

// builtin is a reduction backed by an AggregateState.
type builtin struct {
	aggType  AggregateType
	newState func() AggregateState
}

func (b builtin) NewState() AggregateState { return b.newState() }

func (b builtin) Result(state AggregateState) any { return state.Value(b.aggType) }

func (b builtin) Reduce(records []rows.Row, field string) (any, error) {
	s := b.newState()
	for _, r := range records {
		s.Add(r.Get(field))
	}
	return b.Result(s), nil
}

func numeric(t AggregateType) builtin {
	return builtin{aggType: t, newState: func() AggregateState { return NewNumericAggState() }}
}

// Builtins returns the built-in reducers keyed by name.
func Builtins() map[string]Reducer {
	return map[string]Reducer{
		string(AggSum):    numeric(AggSum),
		string(AggAvg):    numeric(AggAvg),
		string(AggMin):    numeric(AggMin),
		string(AggMax):    numeric(AggMax),
		string(AggStdDev): numeric(AggStdDev),
		string(AggCount):  builtin{aggType: AggCount, newState: func() AggregateState { return NewStringAggState() }},
		string(AggUnique): builtin{aggType: AggUnique, newState: func() AggregateState { return NewStringAggState() }},
		string(AggTrue):   builtin{aggType: AggTrue, newState: func() AggregateState { return NewBoolAggState() }},
		string(AggRatio):  builtin{aggType: AggRatio, newState: func() AggregateState { return NewBoolAggState() }},
	}
}

// Registry maps reducer references to reducers. Registration is explicit; a
// registry starts with the built-ins.
type Registry struct {
	mu       sync.RWMutex
	reducers map[string]Reducer
}

// NewRegistry creates a registry holding the built-in reducers.
func NewRegistry() *Registry {
	return &Registry{reducers: Builtins()}
}

// Register adds or replaces a reducer.
func (r *Registry) Register(name string, reducer Reducer) error {
	if name == "" {
		return errors.New("reducer name must not be empty")
	}
	if reducer == nil {
		return errors.Errorf("reducer %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reducers[name] = reducer
	return nil
}

// RegisterFunc is Register for plain functions.
func (r *Registry) RegisterFunc(name string, fn func(records []rows.Row, field string) (any, error)) error {
	if fn == nil {
		return errors.Errorf("reducer %q is nil", name)
	}
	return r.Register(name, ReducerFunc(fn))
}

// Lookup returns the reducer registered under name.
func (r *Registry) Lookup(name string) (Reducer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	red, ok := r.reducers[name]
	return red, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered reducer names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.reducers))
	for n := range r.reducers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SafeReduce runs a reducer and converts errors and panics into a nil result.
func SafeReduce(reducer Reducer, records []rows.Row, field string) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = errors.Errorf("reducer panicked: %v", r)
		}
	}()
	value, err = reducer.Reduce(records, field)
	if err != nil {
		return nil, err
	}
	return value, nil
}
