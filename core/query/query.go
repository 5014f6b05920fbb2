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

// Package query encodes the state of a grid view in a URL, so a stateless
// HTTP front end can rebuild the grid on every request.
package query

import (
	"maps"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/google/safehtml"

	"github.com/google/rowgrid/core/config"
	"github.com/google/rowgrid/core/grid"
	"github.com/google/rowgrid/core/rows"
)

// Query is the parsed state of a grid view URL.
//
//	/grid?source=orders&group=region&group=country&expanded=EU&sort=-cost&filter:name=an&scroll=40&selected=3
type Query struct {
	Path   string
	Source string

	Columns []string
	GroupBy []string
	// Expanded lists group keys. HasExpanded is false when the URL carries no
	// expansion at all, so the configured default applies.
	Expanded    []string
	HasExpanded bool
	Filters     map[string]string
	Sort        []config.SortKey
	Scroll      int
	Selected    []int
}

// NewQuery parses a view URL. Malformed numbers are ignored.
func NewQuery(u *url.URL) *Query {
	q := u.Query()
	s := &Query{
		Path:     u.Path,
		Source:   q.Get("source"),
		Columns:  splitList(q.Get("columns")),
		GroupBy:  nonEmpty(q["group"]),
		Expanded: nonEmpty(q["expanded"]),
		Filters:  map[string]string{},
	}
	_, s.HasExpanded = q["expanded"]

	for _, f := range nonEmpty(q["sort"]) {
		if field, ok := strings.CutPrefix(f, "-"); ok {
			s.Sort = append(s.Sort, config.SortKey{Field: field, Desc: true})
		} else {
			s.Sort = append(s.Sort, config.SortKey{Field: f})
		}
	}
	for key, values := range q {
		if field, ok := strings.CutPrefix(key, "filter:"); ok && field != "" && len(values) > 0 && values[0] != "" {
			s.Filters[field] = values[0]
		}
	}
	if n, err := strconv.Atoi(q.Get("scroll")); err == nil && n > 0 {
		s.Scroll = n
	}
	for _, v := range q["selected"] {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			s.Selected = append(s.Selected, n)
		}
	}
	return s
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	return nonEmpty(strings.Split(s, ","))
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Clone returns a deep copy.
func (s *Query) Clone() *Query {
	c := *s
	c.Columns = slices.Clone(s.Columns)
	c.GroupBy = slices.Clone(s.GroupBy)
	c.Expanded = slices.Clone(s.Expanded)
	c.Filters = maps.Clone(s.Filters)
	c.Sort = slices.Clone(s.Sort)
	c.Selected = slices.Clone(s.Selected)
	return &c
}

// Options returns the grid options this view overrides.
func (s *Query) Options() config.Options {
	o := config.Options{}
	if len(s.GroupBy) > 0 {
		o.GroupBy = slices.Clone(s.GroupBy)
	}
	if len(s.Filters) > 0 {
		o.Filters = maps.Clone(s.Filters)
	}
	if len(s.Sort) > 0 {
		o.SortBy = slices.Clone(s.Sort)
	}
	return o
}

// Apply replays the view state onto a grid that already holds its data.
// Expansion from the URL replaces whatever the default produced.
func (s *Query) Apply(g *grid.Grid) {
	if s.HasExpanded {
		g.CollapseAll()
		for _, k := range s.Expanded {
			g.Expand(k)
		}
	}
	if len(s.Selected) > 0 {
		ids := make([]rows.Identity, len(s.Selected))
		for i, n := range s.Selected {
			ids[i] = rows.DataIdentity(n)
		}
		g.Select(ids...)
	}
	g.ScrollTo(s.Scroll)
	g.Flush()
}

// ToURL encodes the state. Parameters are written in a stable order.
func (s *Query) ToURL() string {
	q := url.Values{}
	if s.Source != "" {
		q.Set("source", s.Source)
	}
	if len(s.Columns) > 0 {
		q.Set("columns", strings.Join(s.Columns, ","))
	}
	for _, g := range s.GroupBy {
		q.Add("group", g)
	}
	if s.HasExpanded && len(s.Expanded) == 0 {
		// keeps "everything collapsed" distinct from "use the default"
		q.Set("expanded", "")
	}
	for _, k := range s.Expanded {
		q.Add("expanded", k)
	}
	for _, k := range s.Sort {
		if k.Desc {
			q.Add("sort", "-"+k.Field)
		} else {
			q.Add("sort", k.Field)
		}
	}
	fields := slices.Collect(maps.Keys(s.Filters))
	sort.Strings(fields)
	for _, f := range fields {
		if v := s.Filters[f]; v != "" {
			q.Set("filter:"+f, v)
		}
	}
	if s.Scroll > 0 {
		q.Set("scroll", strconv.Itoa(s.Scroll))
	}
	for _, n := range s.Selected {
		q.Add("selected", strconv.Itoa(n))
	}
	u := &url.URL{Path: s.Path, RawQuery: q.Encode()}
	return u.String()
}

// ToSafeURL converts the state to a safehtml.URL.
func (s *Query) ToSafeURL() safehtml.URL {
	return safehtml.URLSanitized(s.ToURL())
}

// IsExpanded reports whether key is listed as expanded.
func (s *Query) IsExpanded(key string) bool {
	return slices.Contains(s.Expanded, key)
}

// IsGrouped reports whether field is a grouping level.
func (s *Query) IsGrouped(field string) bool {
	return slices.Contains(s.GroupBy, field)
}

// WithExpandedToggled returns the URL with key expanded or collapsed. The
// current expansion is taken from expanded, the live state of the grid.
func (s *Query) WithExpandedToggled(key string, expanded []string) safehtml.URL {
	n := s.Clone()
	n.HasExpanded = true
	if slices.Contains(expanded, key) {
		n.Expanded = slices.DeleteFunc(slices.Clone(expanded), func(k string) bool { return k == key })
	} else {
		n.Expanded = append(slices.Clone(expanded), key)
	}
	return n.ToSafeURL()
}

// WithScroll returns the URL scrolled to offset.
func (s *Query) WithScroll(offset int) safehtml.URL {
	n := s.Clone()
	n.Scroll = max(0, offset)
	return n.ToSafeURL()
}

// WithGroupToggled adds field as the innermost grouping level, or removes it.
// Expansion is reset because keys change with the levels.
func (s *Query) WithGroupToggled(field string) safehtml.URL {
	n := s.Clone()
	if n.IsGrouped(field) {
		n.GroupBy = slices.DeleteFunc(n.GroupBy, func(f string) bool { return f == field })
	} else {
		n.GroupBy = append(n.GroupBy, field)
	}
	n.Expanded, n.HasExpanded = nil, false
	n.Scroll = 0
	return n.ToSafeURL()
}

// WithFilter sets a filter; an empty value removes it.
func (s *Query) WithFilter(field, value string) safehtml.URL {
	n := s.Clone()
	if value == "" {
		delete(n.Filters, field)
	} else {
		if n.Filters == nil {
			n.Filters = map[string]string{}
		}
		n.Filters[field] = value
	}
	n.Scroll = 0
	return n.ToSafeURL()
}

// WithSortToggled cycles field through ascending, descending and unsorted.
func (s *Query) WithSortToggled(field string) safehtml.URL {
	n := s.Clone()
	i := slices.IndexFunc(n.Sort, func(k config.SortKey) bool { return k.Field == field })
	switch {
	case i < 0:
		n.Sort = []config.SortKey{{Field: field}}
	case !n.Sort[i].Desc:
		n.Sort = []config.SortKey{{Field: field, Desc: true}}
	default:
		n.Sort = nil
	}
	return n.ToSafeURL()
}

// WithSelected selects the data row with original index n. additive keeps
// the rest of the selection and toggles n.
func (s *Query) WithSelected(n int, additive bool) safehtml.URL {
	c := s.Clone()
	switch {
	case !additive:
		c.Selected = []int{n}
	case slices.Contains(c.Selected, n):
		c.Selected = slices.DeleteFunc(c.Selected, func(v int) bool { return v == n })
	default:
		c.Selected = append(c.Selected, n)
	}
	return c.ToSafeURL()
}
