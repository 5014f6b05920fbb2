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
	"slices"
	"sort"
	"strings"

	"github.com/google/rowgrid/core/config"
	"github.com/google/rowgrid/core/plugins"
	"github.com/google/rowgrid/core/rows"
)

// Sorting orders data rows by one or more fields. The sort is stable, so
// rows that compare equal keep their input order. Grouping runs after it,
// which makes first-seen group order follow the sorted rows.
type Sorting struct {
	keys []config.SortKey
	host plugins.Host
}

// NewSorting creates the sorting feature.
func NewSorting(keys []config.SortKey) *Sorting {
	return &Sorting{keys: slices.Clone(keys)}
}

func (s *Sorting) Name() string { return NameSorting }

func (s *Sorting) Attach(host plugins.Host) { s.host = host }

func (s *Sorting) Detach() { s.host = nil }

// Keys returns the active sort keys.
func (s *Sorting) Keys() []config.SortKey {
	return slices.Clone(s.keys)
}

// SetSort replaces the sort keys.
func (s *Sorting) SetSort(keys ...config.SortKey) {
	s.keys = slices.Clone(keys)
	if s.host != nil {
		s.host.Invalidate("sort")
	}
}

// ProcessRows sorts each run of consecutive data rows; other rows stay where
// they are.
func (s *Sorting) ProcessRows(in []rows.RenderRow) []rows.RenderRow {
	if len(s.keys) == 0 || len(in) < 2 {
		return in
	}
	out := slices.Clone(in)
	start := 0
	for i := 0; i <= len(out); i++ {
		if i < len(out) && out[i].IsData() {
			continue
		}
		if i-start > 1 {
			run := out[start:i]
			sort.SliceStable(run, func(a, b int) bool { return s.less(run[a].Data, run[b].Data) })
		}
		start = i + 1
	}
	return out
}

func (s *Sorting) less(a, b rows.Row) bool {
	for _, k := range s.keys {
		av, bv := a.Get(k.Field), b.Get(k.Field)
		if (av == nil) != (bv == nil) {
			// nil last in both directions
			return bv == nil
		}
		c := CompareValues(av, bv)
		if c == 0 {
			continue
		}
		if k.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

// CompareValues orders two cell values: numbers numerically, everything else
// by display string. nil sorts last.
func CompareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	fa, aok := rows.ToFloat(a)
	fb, bok := rows.ToFloat(b)
	if aok && bok {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(rows.FormatValue(a), rows.FormatValue(b))
}
