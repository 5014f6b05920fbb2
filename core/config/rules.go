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

package config

import (
	"sort"
	"strings"

	"github.com/google/rowgrid/core/expansion"
	"github.com/google/rowgrid/core/visibility"
)

// Severity grades a warning.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Warning is a non-fatal configuration problem.
type Warning struct {
	ID       string
	Severity Severity
	Field    string
	Message  string
}

// Context is what a rule inspects: the raw options and the resolved result.
type Context struct {
	User         Options
	Resolved     Resolved
	KnownReducer func(ref string) bool
}

// Rule is one declarative configuration check. Check returns true when the
// warning applies.
type Rule struct {
	ID       string
	Severity Severity
	Message  string
	Check    func(c Context) bool
	Detail   func(c Context) string
}

// DefaultRules returns the built-in rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:       "accordion-multi-default",
			Severity: SeverityWarning,
			Message:  "accordion mode with several default-expanded keys; keys at the same depth will collapse each other on the next toggle",
			Check: func(c Context) bool {
				d := c.Resolved.DefaultExpanded
				return c.Resolved.Accordion && d.Kind() == expansion.DefaultKeys && d.KeyCount() > 1
			},
		},
		{
			ID:       "accordion-expand-all",
			Severity: SeverityWarning,
			Message:  "accordion mode with defaultExpanded=true; every group starts expanded until the first toggle",
			Check: func(c Context) bool {
				return c.Resolved.Accordion && c.Resolved.DefaultExpanded.Kind() == expansion.DefaultAll
			},
		},
		{
			ID:       "group-row-height",
			Severity: SeverityWarning,
			Message:  "groupRowHeight must be positive; group rows use rowHeight",
			Check: func(c Context) bool {
				return c.User.GroupRowHeight != nil && *c.User.GroupRowHeight <= 0
			},
		},
		{
			ID:       "animation-disabled",
			Severity: SeverityInfo,
			Message:  "animation is configured but animations are disabled globally",
			Check: func(c Context) bool {
				return c.User.Animation != nil && *c.User.Animation != visibility.AnimationNone && !c.Resolved.AnimationsEnabled
			},
		},
		{
			ID:       "unknown-aggregator",
			Severity: SeverityWarning,
			Message:  "aggregators reference unknown reducers; those cells render blank",
			Check: func(c Context) bool {
				return len(unknownAggregators(c)) > 0
			},
			Detail: func(c Context) string {
				return strings.Join(unknownAggregators(c), ", ")
			},
		},
		{
			ID:       "indent-size",
			Severity: SeverityWarning,
			Message:  "indentSize must not be negative; using default",
			Check: func(c Context) bool {
				return c.User.IndentSize != nil && *c.User.IndentSize < 0
			},
		},
	}
}

func unknownAggregators(c Context) []string {
	if c.KnownReducer == nil {
		return nil
	}
	var out []string
	for field, ref := range c.Resolved.Aggregators {
		if !c.KnownReducer(ref) {
			out = append(out, field+"="+ref)
		}
	}
	sort.Strings(out)
	return out
}
