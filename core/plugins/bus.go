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

package plugins

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"
)

// Event names emitted by the built-in features.
const (
	EventGroupToggle       = "group-toggle"
	EventStateChange       = "state-change"
	EventSelectionChange   = "selection-change"
	EventRowMoveRequested  = "row-move-requested"
	EventClipboardCopy     = "clipboard-copy"
	EventVisibleRowsChange = "visible-rows-change"
)

// Event is a notification published on the bus.
type Event struct {
	Name     string
	Source   string
	Instance string
	Payload  any
}

// Handler receives events.
type Handler func(ev Event)

type subscription struct {
	id      int
	name    string
	handler Handler
}

// Bus delivers events to subscribers in subscription order.
type Bus struct {
	mu       sync.RWMutex
	subs     []subscription
	next     int
	instance string
	log      logr.Logger
}

// NewBus creates a bus that stamps every event with instance.
func NewBus(instance string, log logr.Logger) *Bus {
	return &Bus{instance: instance, log: log}
}

// Subscribe registers handler for events called name; "*" receives every
// event. The returned function unsubscribes.
func (b *Bus) Subscribe(name string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	b.subs = append(b.subs, subscription{id: id, name: name, handler: handler})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers ev synchronously. Handler panics are recovered and logged.
func (b *Bus) Emit(ev Event) {
	if ev.Instance == "" {
		ev.Instance = b.instance
	}
	b.mu.RLock()
	subs := make([]subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.name == "*" || s.name == ev.Name {
			subs = append(subs, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range subs {
		b.invoke(s.handler, ev)
	}
}

func (b *Bus) invoke(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Info("event handler panicked", "severity", "error", "event", ev.Name, "instance", ev.Instance, "panic", fmt.Sprint(r))
		}
	}()
	h(ev)
}
