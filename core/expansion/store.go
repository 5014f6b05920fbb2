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

// Package expansion holds the set of expanded group keys and the transitions
// that change it. It is the only long-lived state of the grouping feature.
package expansion

import (
	"sort"

	"github.com/samber/lo"
)

// Set is a set of composite keys.
type Set map[string]struct{}

// NewSet returns a set holding keys.
func NewSet(keys ...string) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether key is in the set.
func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Sorted returns the keys in lexical order.
func (s Set) Sorted() []string {
	keys := lo.Keys(s)
	sort.Strings(keys)
	return keys
}

// Equal reports whether both sets hold the same keys.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for k := range s {
		if !o.Has(k) {
			return false
		}
	}
	return true
}

// Toggle is the pure toggle transition. It returns a new set and never modifies
// current. When accordion is on and key becomes expanded, every other expanded
// key at the same depth is removed unless it is an ancestor or descendant of key.
func Toggle(current Set, key string, accordion bool, depthOf func(string) int, related func(a, b string) bool) Set {
	next := current.Clone()
	if next.Has(key) {
		delete(next, key)
		return next
	}
	next[key] = struct{}{}
	if !accordion {
		return next
	}
	depth := depthOf(key)
	for other := range current {
		if other == key || depthOf(other) != depth {
			continue
		}
		if related != nil && related(other, key) {
			continue
		}
		delete(next, other)
	}
	return next
}

// Store is the mutable holder of the expanded set. It is owned by a single
// grouping feature and mutated only by explicit calls.
type Store struct {
	expanded    Set
	initialized bool
	depthOf     func(string) int
	related     func(a, b string) bool
}

// NewStore creates an empty store. depthOf and related describe key structure
// for accordion transitions.
func NewStore(depthOf func(string) int, related func(a, b string) bool) *Store {
	return &Store{
		expanded: Set{},
		depthOf:  depthOf,
		related:  related,
	}
}

// IsExpanded reports whether key is expanded.
func (s *Store) IsExpanded(key string) bool {
	return s.expanded.Has(key)
}

// Expand adds key. It reports whether the set changed.
func (s *Store) Expand(key string) bool {
	if s.expanded.Has(key) {
		return false
	}
	s.expanded[key] = struct{}{}
	return true
}

// Collapse removes key. Unknown keys are a no-op.
func (s *Store) Collapse(key string) bool {
	if !s.expanded.Has(key) {
		return false
	}
	delete(s.expanded, key)
	return true
}

// Toggle flips key and returns its new state.
func (s *Store) Toggle(key string, accordion bool) bool {
	s.expanded = Toggle(s.expanded, key, accordion, s.depthOf, s.related)
	return s.expanded.Has(key)
}

// ExpandAll expands every key given.
func (s *Store) ExpandAll(keys []string) {
	for _, k := range keys {
		s.expanded[k] = struct{}{}
	}
}

// CollapseAll clears the set. The initialized flag is kept.
func (s *Store) CollapseAll() {
	s.expanded = Set{}
}

// Len returns the number of expanded keys, stale ones included.
func (s *Store) Len() int {
	return len(s.expanded)
}

// Snapshot returns a copy of the expanded set.
func (s *Store) Snapshot() Set {
	return s.expanded.Clone()
}

// Restore replaces the expanded set and marks the store initialized.
func (s *Store) Restore(set Set) {
	s.expanded = set.Clone()
	s.initialized = true
}

// Initialized reports whether default expansion has been applied.
func (s *Store) Initialized() bool {
	return s.initialized
}

// ResolveInitial applies the default-expansion setting once, on the first
// non-empty build. It is a no-op when the store was already initialized or when
// keys is empty. Explicit expansions made before the first build win over the
// default. The flag is never reset by later empty datasets. It reports whether
// the default was applied.
func (s *Store) ResolveInitial(def DefaultExpanded, keys []string, topLevel []string) bool {
	if s.initialized || len(keys) == 0 {
		return false
	}
	s.initialized = true
	if len(s.expanded) > 0 {
		return false
	}
	for _, k := range def.Keys(keys, topLevel) {
		s.expanded[k] = struct{}{}
	}
	return true
}

// Reset clears the set and the initialized flag. Used on detach.
func (s *Store) Reset() {
	s.expanded = Set{}
	s.initialized = false
}
