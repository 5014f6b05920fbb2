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

// Package plugins chains independent grid features. A plugin is any value
// with a name; it takes part in a stage of the pipeline by implementing the
// matching hook interface.
package plugins

import (
	"github.com/go-logr/logr"

	"github.com/google/rowgrid/core/rows"
	"github.com/google/rowgrid/core/viewport"
)

// Plugin is a named grid feature.
type Plugin interface {
	Name() string
}

// Dependency declares that a plugin runs after another one.
type Dependency struct {
	Name string
	// Optional dependencies only order plugins that are both present; a
	// required dependency that is missing is added from the registry.
	Optional bool
}

// Requires is a required dependency on name.
func Requires(name string) Dependency { return Dependency{Name: name} }

// After is an ordering-only dependency on name.
func After(name string) Dependency { return Dependency{Name: name, Optional: true} }

// Dependent is implemented by plugins that declare dependencies.
type Dependent interface {
	Dependencies() []Dependency
}

// RowProcessor transforms the row sequence. It must not mutate its input and
// must treat row kinds it does not understand opaquely.
type RowProcessor interface {
	ProcessRows(in []rows.RenderRow) []rows.RenderRow
}

// RowRenderer may take over the presentation of a row. The first renderer
// returning true wins.
type RowRenderer interface {
	RenderRow(row rows.RenderRow, slot *viewport.Slot) bool
}

// InputHandler intercepts input. The first handler returning true consumes
// the event.
type InputHandler interface {
	HandleInput(ev InputEvent) bool
}

// QueryResponder answers capability queries broadcast by other plugins.
type QueryResponder interface {
	HandleQuery(q Query) (any, bool)
}

// Attacher is called once when the pipeline is attached to a grid.
type Attacher interface {
	Attach(host Host)
}

// Detacher is called when the pipeline is torn down.
type Detacher interface {
	Detach()
}

// Host is the grid as seen by a plugin. Plugins talk to each other only
// through Query and the Bus.
type Host interface {
	Logger() logr.Logger
	Bus() *Bus
	Query(q Query) []Answer
	// Invalidate schedules a new processing pass.
	Invalidate(reason string)
	// Rows returns the current flattened sequence.
	Rows() []rows.RenderRow
}

// EventType classifies input events.
type EventType string

const (
	EventClick EventType = "click"
	EventKey   EventType = "key"
)

// InputEvent is a click or key press addressed to a render position.
type InputEvent struct {
	Type EventType
	// Key is the key name for EventKey ("enter", "space", "left", "right",
	// "up", "down", "c", ...).
	Key   string
	Index int
	Row   rows.RenderRow

	Ctrl, Shift, Alt, Meta bool
}

// Modified reports whether Ctrl or Meta is held.
func (e InputEvent) Modified() bool {
	return e.Ctrl || e.Meta
}

// Query is a capability question broadcast to every QueryResponder.
type Query struct {
	Type    string
	Payload any
}

// Well-known queries.
const (
	// QueryCanReorder carries a rows.RenderRow; responders answer false to veto.
	QueryCanReorder = "can-reorder"
	// QuerySelectedRows is answered with the selected rows in sequence order.
	QuerySelectedRows = "selected-rows"
	// QueryIsSelected carries a rows.Identity and is answered with a bool.
	QueryIsSelected = "is-selected"
)

// Answer is one responder's reply to a query.
type Answer struct {
	Plugin string
	Value  any
}

// Vetoed reports whether any answer is the boolean false.
func Vetoed(answers []Answer) bool {
	for _, a := range answers {
		if b, ok := a.Value.(bool); ok && !b {
			return true
		}
	}
	return false
}

// First returns the first answer's value.
func First(answers []Answer) (any, bool) {
	if len(answers) == 0 {
		return nil, false
	}
	return answers[0].Value, true
}
