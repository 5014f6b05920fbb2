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

package grid

import (
	"slices"
)

// FrameScheduler runs a callback at the next frame boundary.
type FrameScheduler interface {
	RequestFrame(fn func())
}

// SchedulerFunc adapts a function to FrameScheduler.
type SchedulerFunc func(fn func())

func (f SchedulerFunc) RequestFrame(fn func()) { f(fn) }

// Immediate runs every frame callback synchronously, so nothing coalesces.
var Immediate = SchedulerFunc(func(fn func()) { fn() })

// FrameQueue collects frame callbacks until RunFrame is called. It is the
// default scheduler of a Grid; front ends call RunFrame from their own frame
// tick.
type FrameQueue struct {
	queue []func()
}

func (q *FrameQueue) RequestFrame(fn func()) {
	q.queue = append(q.queue, fn)
}

// Len returns the number of queued callbacks.
func (q *FrameQueue) Len() int {
	return len(q.queue)
}

// RunFrame runs the callbacks queued before the call and returns how many ran.
// Callbacks queued while running wait for the next frame.
func (q *FrameQueue) RunFrame() int {
	batch := q.queue
	q.queue = nil
	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Batcher coalesces invalidations into one flush per frame. Every request
// schedules a callback, but only the newest one flushes; older callbacks find
// themselves superseded and return.
type Batcher struct {
	sched FrameScheduler
	flush func(reasons []string)

	reasons   []string
	pending   bool
	gen       uint64
	coalesced int

	// OnCoalesce is called when a request joins an already pending frame.
	OnCoalesce func()
}

// NewBatcher creates a batcher calling flush with the distinct reasons of the
// requests it merged.
func NewBatcher(sched FrameScheduler, flush func(reasons []string)) *Batcher {
	if sched == nil {
		sched = Immediate
	}
	return &Batcher{sched: sched, flush: flush}
}

// Request asks for a flush at the next frame.
func (b *Batcher) Request(reason string) {
	if b.pending {
		b.coalesced++
		if b.OnCoalesce != nil {
			b.OnCoalesce()
		}
	}
	if !slices.Contains(b.reasons, reason) {
		b.reasons = append(b.reasons, reason)
	}
	b.pending = true
	b.gen++
	gen := b.gen
	b.sched.RequestFrame(func() {
		if gen == b.gen {
			b.Flush()
		}
	})
}

// Pending reports whether a flush is outstanding.
func (b *Batcher) Pending() bool {
	return b.pending
}

// Coalesced returns how many requests joined a pending frame.
func (b *Batcher) Coalesced() int {
	return b.coalesced
}

// Flush runs the pending flush now. It reports whether there was one.
func (b *Batcher) Flush() bool {
	if !b.pending {
		return false
	}
	reasons := b.reasons
	b.reasons = nil
	b.pending = false
	b.flush(reasons)
	return true
}
