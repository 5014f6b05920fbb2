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

// Package config turns user options into an immutable, validated grid
// configuration. Invalid or contradictory options never fail; they fall back
// to defaults and are reported as warnings.
package config

import (
	"maps"
	"slices"

	"github.com/google/rowgrid/core/expansion"
	"github.com/google/rowgrid/core/grouping"
	"github.com/google/rowgrid/core/visibility"
)

// LabelFormatter renders a group header label.
type LabelFormatter func(value string, depth int, key string) string

// SortKey orders data rows by one field.
type SortKey struct {
	Field string `yaml:"field" validate:"required"`
	Desc  bool   `yaml:"desc"`
}

// Options is the user-facing option set. Unset scalars are nil.
type Options struct {
	GroupBy         []string                   `yaml:"groupBy"`
	Resolver        grouping.PathResolver      `yaml:"-"`
	DefaultExpanded *expansion.DefaultExpanded `yaml:"defaultExpanded"`
	Accordion       *bool                      `yaml:"accordion"`
	ShowCount       *bool                      `yaml:"showCount"`
	IndentSize      *int                       `yaml:"indentSize"`
	Aggregators     map[string]string          `yaml:"aggregators"`
	FormatLabel     LabelFormatter             `yaml:"-"`

	FullWidthGroupRows *bool                 `yaml:"fullWidthGroupRows"`
	Animation          *visibility.Animation `yaml:"animation"`
	GroupRowHeight     *int                  `yaml:"groupRowHeight"`

	RowHeight         *int              `yaml:"rowHeight"`
	ViewportHeight    *int              `yaml:"viewportHeight"`
	Overscan          *int              `yaml:"overscan"`
	AnimationsEnabled *bool             `yaml:"animationsEnabled"`
	Plugins           []string          `yaml:"plugins"`
	Filters           map[string]string `yaml:"filters"`
	SortBy            []SortKey         `yaml:"sortBy"`
}

// Resolved is a complete configuration. Resolve returns a fresh value on every
// call; callers must treat it as read-only.
type Resolved struct {
	GroupBy         []string              `yaml:"groupBy"`
	Resolver        grouping.PathResolver `yaml:"-"`
	DefaultExpanded expansion.DefaultExpanded
	Accordion       bool              `yaml:"accordion"`
	ShowCount       bool              `yaml:"showCount"`
	IndentSize      int               `yaml:"indentSize" validate:"gte=0,lte=64"`
	Aggregators     map[string]string `yaml:"aggregators"`
	FormatLabel     LabelFormatter    `yaml:"-"`

	FullWidthGroupRows bool                 `yaml:"fullWidthGroupRows"`
	Animation          visibility.Animation `yaml:"animation" validate:"oneof=none fade slide"`
	// GroupRowHeight is a height hint for group rows; 0 means rows use RowHeight.
	GroupRowHeight int `yaml:"groupRowHeight" validate:"gte=0"`

	RowHeight         int               `yaml:"rowHeight" validate:"gt=0"`
	ViewportHeight    int               `yaml:"viewportHeight" validate:"gte=0"`
	Overscan          int               `yaml:"overscan" validate:"gte=0,lte=200"`
	AnimationsEnabled bool              `yaml:"animationsEnabled"`
	Plugins           []string          `yaml:"plugins"`
	Filters           map[string]string `yaml:"filters"`
	SortBy            []SortKey         `yaml:"sortBy" validate:"dive"`
}

// Defaults returns the built-in configuration.
func Defaults() Resolved {
	return Resolved{
		DefaultExpanded:    expansion.ExpandNone(),
		ShowCount:          true,
		IndentSize:         16,
		FullWidthGroupRows: true,
		Animation:          visibility.AnimationFade,
		RowHeight:          28,
		ViewportHeight:     560,
		Overscan:           6,
		AnimationsEnabled:  true,
		Plugins:            []string{"filtering", "sorting", "grouping", "selection"},
	}
}

// TerminalDefaults returns defaults measured in lines instead of pixels.
func TerminalDefaults() Resolved {
	d := Defaults()
	d.IndentSize = 2
	d.RowHeight = 1
	d.ViewportHeight = 20
	d.Overscan = 2
	d.AnimationsEnabled = false
	return d
}

// Clone returns a deep copy of r.
func (r Resolved) Clone() Resolved {
	c := r
	c.GroupBy = slices.Clone(r.GroupBy)
	c.Aggregators = maps.Clone(r.Aggregators)
	c.Plugins = slices.Clone(r.Plugins)
	c.Filters = maps.Clone(r.Filters)
	c.SortBy = slices.Clone(r.SortBy)
	return c
}

// Grouped reports whether grouping is configured.
func (r Resolved) Grouped() bool {
	return r.Resolver != nil || len(r.GroupBy) > 0
}

// PathResolver returns the configured resolver; a code resolver wins over
// GroupBy fields.
func (r Resolved) PathResolver() grouping.PathResolver {
	if r.Resolver != nil {
		return r.Resolver
	}
	if len(r.GroupBy) > 0 {
		return grouping.ByFields(r.GroupBy...)
	}
	return nil
}

// ActiveAnimation returns the animation after applying the global switch.
func (r Resolved) ActiveAnimation() visibility.Animation {
	return visibility.ResolveAnimation(r.Animation, r.AnimationsEnabled)
}

// Label formats a group label, falling back to the raw value when the
// formatter is unset or panics.
func (r Resolved) Label(value string, depth int, key string) (label string) {
	if r.FormatLabel == nil {
		return value
	}
	defer func() {
		if rec := recover(); rec != nil {
			label = value
		}
	}()
	return r.FormatLabel(value, depth, key)
}

// Bool returns a pointer to b, for building Options in code.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to i.
func Int(i int) *int { return &i }

// Anim returns a pointer to a.
func Anim(a visibility.Animation) *visibility.Animation { return &a }

// Expand returns a pointer to d.
func Expand(d expansion.DefaultExpanded) *expansion.DefaultExpanded { return &d }
