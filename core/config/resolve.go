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
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-playground/validator/v10"
)

// validate is shared; validator caches struct metadata.
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// fallbacks restores one validated field from the defaults.
var fallbacks = map[string]func(r *Resolved, d Resolved){
	"indentSize":     func(r *Resolved, d Resolved) { r.IndentSize = d.IndentSize },
	"animation":      func(r *Resolved, d Resolved) { r.Animation = d.Animation },
	"groupRowHeight": func(r *Resolved, d Resolved) { r.GroupRowHeight = d.GroupRowHeight },
	"rowHeight":      func(r *Resolved, d Resolved) { r.RowHeight = d.RowHeight },
	"viewportHeight": func(r *Resolved, d Resolved) { r.ViewportHeight = d.ViewportHeight },
	"overscan":       func(r *Resolved, d Resolved) { r.Overscan = d.Overscan },
	"sortBy":         func(r *Resolved, d Resolved) { r.SortBy = slices.Clone(d.SortBy) },
}

type resolveConfig struct {
	rules   []Rule
	reducer func(ref string) bool
	log     logr.Logger
}

// Option customizes Resolve.
type Option func(*resolveConfig)

// WithRules replaces the warning rules.
func WithRules(rules ...Rule) Option {
	return func(c *resolveConfig) { c.rules = rules }
}

// WithReducers tells the rules which reducer references exist.
func WithReducers(known func(ref string) bool) Option {
	return func(c *resolveConfig) { c.reducer = known }
}

// WithLogger logs every warning.
func WithLogger(log logr.Logger) Option {
	return func(c *resolveConfig) { c.log = log }
}

// Resolve merges user options over defaults, validates the result and
// evaluates the warning rules once. Neither input is modified.
func Resolve(user Options, defaults Resolved, opts ...Option) (Resolved, []Warning) {
	rc := resolveConfig{rules: DefaultRules(), log: logr.Discard()}
	for _, o := range opts {
		o(&rc)
	}

	r := merge(user, defaults)
	var warnings []Warning

	if err := validate.Struct(r); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			seen := map[string]bool{}
			for _, fe := range verrs {
				field := topLevelField(fe.Namespace())
				if seen[field] {
					continue
				}
				seen[field] = true
				if fb, ok := fallbacks[field]; ok {
					fb(&r, defaults)
				}
				warnings = append(warnings, Warning{
					ID:       "invalid-option",
					Severity: SeverityWarning,
					Field:    field,
					Message:  fmt.Sprintf("%s=%v fails %q; using default", field, fe.Value(), fe.Tag()),
				})
			}
		}
	}

	ctx := Context{User: user, Resolved: r, KnownReducer: rc.reducer}
	for _, rule := range rc.rules {
		if rule.Check == nil || !safeCheck(rule, ctx) {
			continue
		}
		msg := rule.Message
		if rule.Detail != nil {
			if d := rule.Detail(ctx); d != "" {
				msg += ": " + d
			}
		}
		warnings = append(warnings, Warning{ID: rule.ID, Severity: rule.Severity, Message: msg})
	}

	for _, w := range warnings {
		rc.log.Info("grid configuration", "severity", string(w.Severity), "rule", w.ID, "field", w.Field, "message", w.Message)
	}
	return r, warnings
}

func topLevelField(ns string) string {
	// Resolved.sortBy[0].field -> sortBy
	parts := strings.Split(ns, ".")
	if len(parts) < 2 {
		return ns
	}
	name := parts[1]
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}

func safeCheck(rule Rule, ctx Context) (fired bool) {
	defer func() {
		if recover() != nil {
			fired = false
		}
	}()
	return rule.Check(ctx)
}

func merge(u Options, d Resolved) Resolved {
	r := d.Clone()
	if u.GroupBy != nil {
		r.GroupBy = slices.Clone(u.GroupBy)
	}
	if u.Resolver != nil {
		r.Resolver = u.Resolver
	}
	if u.DefaultExpanded != nil {
		r.DefaultExpanded = *u.DefaultExpanded
	}
	if u.Accordion != nil {
		r.Accordion = *u.Accordion
	}
	if u.ShowCount != nil {
		r.ShowCount = *u.ShowCount
	}
	if u.IndentSize != nil {
		if *u.IndentSize < 0 {
			r.IndentSize = d.IndentSize
		} else {
			r.IndentSize = *u.IndentSize
		}
	}
	if u.Aggregators != nil {
		r.Aggregators = maps.Clone(u.Aggregators)
	}
	if u.FormatLabel != nil {
		r.FormatLabel = u.FormatLabel
	}
	if u.FullWidthGroupRows != nil {
		r.FullWidthGroupRows = *u.FullWidthGroupRows
	}
	if u.Animation != nil {
		r.Animation = *u.Animation
	}
	if u.GroupRowHeight != nil {
		r.GroupRowHeight = max(0, *u.GroupRowHeight)
	}
	if u.RowHeight != nil {
		r.RowHeight = *u.RowHeight
	}
	if u.ViewportHeight != nil {
		r.ViewportHeight = *u.ViewportHeight
	}
	if u.Overscan != nil {
		r.Overscan = *u.Overscan
	}
	if u.AnimationsEnabled != nil {
		r.AnimationsEnabled = *u.AnimationsEnabled
	}
	if u.Plugins != nil {
		r.Plugins = slices.Clone(u.Plugins)
	}
	if u.Filters != nil {
		r.Filters = maps.Clone(u.Filters)
	}
	if u.SortBy != nil {
		r.SortBy = slices.Clone(u.SortBy)
	}
	return r
}
