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
	"github.com/google/rowgrid/core/plugins"
	"github.com/google/rowgrid/core/rows"
)

// MoveRequest is the payload of plugins.EventRowMoveRequested. The data is
// caller-owned, so the grid only asks; the caller applies the move.
type MoveRequest struct {
	Row  rows.Identity
	From int
	To   int
}

// Reorder turns Alt+Up and Alt+Down into move requests, unless another plugin
// vetoes through QueryCanReorder.
type Reorder struct {
	host plugins.Host
}

// NewReorder creates the reorder feature.
func NewReorder() *Reorder {
	return &Reorder{}
}

func (r *Reorder) Name() string { return NameReorder }

func (r *Reorder) Dependencies() []plugins.Dependency {
	return []plugins.Dependency{plugins.After(NameGrouping)}
}

func (r *Reorder) Attach(host plugins.Host) { r.host = host }

func (r *Reorder) Detach() { r.host = nil }

// CanMove asks every plugin whether row may be moved.
func (r *Reorder) CanMove(row rows.RenderRow) bool {
	if r.host == nil {
		return false
	}
	return !plugins.Vetoed(r.host.Query(plugins.Query{Type: plugins.QueryCanReorder, Payload: row}))
}

func (r *Reorder) HandleInput(ev plugins.InputEvent) bool {
	if ev.Type != plugins.EventKey || !ev.Alt || (ev.Key != "up" && ev.Key != "down") {
		return false
	}
	if r.host == nil {
		return false
	}
	to := ev.Index - 1
	if ev.Key == "down" {
		to = ev.Index + 1
	}
	if to < 0 || to >= len(r.host.Rows()) || !r.CanMove(ev.Row) {
		// consumed; Alt+arrow never moves focus
		return true
	}
	r.host.Bus().Emit(plugins.Event{
		Name:    plugins.EventRowMoveRequested,
		Source:  NameReorder,
		Payload: MoveRequest{Row: ev.Row.Identity(), From: ev.Index, To: to},
	})
	return true
}
