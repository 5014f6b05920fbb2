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
	"maps"
	"strings"

	"github.com/samber/lo"

	"github.com/google/rowgrid/core/plugins"
	"github.com/google/rowgrid/core/rows"
)

// Filtering keeps the data rows whose fields contain every filter value,
// case-insensitively. Rows of other kinds pass through.
type Filtering struct {
	filters map[string]string
	host    plugins.Host
}

// NewFiltering creates the filtering feature with initial filters
// (field -> value).
func NewFiltering(filters map[string]string) *Filtering {
	f := &Filtering{filters: map[string]string{}}
	for field, v := range filters {
		if v != "" {
			f.filters[field] = strings.ToLower(v)
		}
	}
	return f
}

func (f *Filtering) Name() string { return NameFiltering }

func (f *Filtering) Attach(host plugins.Host) { f.host = host }

func (f *Filtering) Detach() { f.host = nil }

// Filters returns a copy of the active filters.
func (f *Filtering) Filters() map[string]string {
	return maps.Clone(f.filters)
}

// SetFilter sets or, with an empty value, clears the filter on field.
func (f *Filtering) SetFilter(field, value string) {
	value = strings.ToLower(value)
	if f.filters[field] == value || (value == "" && !lo.HasKey(f.filters, field)) {
		return
	}
	if value == "" {
		delete(f.filters, field)
	} else {
		f.filters[field] = value
	}
	if f.host != nil {
		f.host.Invalidate("filter")
	}
}

// Matches reports whether a record passes every filter.
func (f *Filtering) Matches(r rows.Row) bool {
	for field, want := range f.filters {
		if !strings.Contains(strings.ToLower(r.String(field)), want) {
			return false
		}
	}
	return true
}

func (f *Filtering) ProcessRows(in []rows.RenderRow) []rows.RenderRow {
	if len(f.filters) == 0 {
		return in
	}
	return lo.Filter(in, func(r rows.RenderRow, _ int) bool {
		return !r.IsData() || f.Matches(r.Data)
	})
}
