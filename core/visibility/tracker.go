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

// Package visibility tracks which data rows became visible between passes so
// that newly revealed rows can be animated in.
package visibility

import (
	"github.com/google/rowgrid/core/rows"
)

// Animation is the entrance effect for newly visible rows.
type Animation string

const (
	AnimationNone  Animation = "none"
	AnimationFade  Animation = "fade"
	AnimationSlide Animation = "slide"
)

// Valid reports whether a is a known animation.
func (a Animation) Valid() bool {
	switch a {
	case AnimationNone, AnimationFade, AnimationSlide:
		return true
	}
	return false
}

// Class returns the CSS class applied to an entering row, or "".
func (a Animation) Class() string {
	switch a {
	case AnimationFade:
		return "rg-enter-fade"
	case AnimationSlide:
		return "rg-enter-slide"
	}
	return ""
}

// ResolveAnimation returns the animation actually played: the feature's
// choice, unless animations are disabled globally.
func ResolveAnimation(feature Animation, globalEnabled bool) Animation {
	if !globalEnabled || !feature.Valid() {
		return AnimationNone
	}
	return feature
}

// Tracker remembers the visible data identities of the previous pass.
type Tracker struct {
	prev    map[rows.Identity]struct{}
	started bool
}

// NewTracker creates a tracker with no baseline.
func NewTracker() *Tracker {
	return &Tracker{prev: map[rows.Identity]struct{}{}}
}

// Update records the identities visible in this pass and returns the ones
// that were not visible in the previous pass, in input order. The first call
// only sets the baseline and returns nothing.
func (t *Tracker) Update(visible []rows.Identity) []rows.Identity {
	next := make(map[rows.Identity]struct{}, len(visible))
	var entered []rows.Identity
	for _, id := range visible {
		if _, dup := next[id]; dup {
			continue
		}
		next[id] = struct{}{}
		if _, seen := t.prev[id]; t.started && !seen {
			entered = append(entered, id)
		}
	}
	t.prev = next
	t.started = true
	return entered
}

// Visible reports whether id was visible in the last pass.
func (t *Tracker) Visible(id rows.Identity) bool {
	_, ok := t.prev[id]
	return ok
}

// Reset drops the baseline.
func (t *Tracker) Reset() {
	t.prev = map[rows.Identity]struct{}{}
	t.started = false
}
