// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Periodic polling dispatcher.

package qdec

import (
	"sync"
	"time"
)

// Poller is polled on every tick of a dispatcher.
type Poller interface {
	Poll()
}

// Dispatcher schedules regular polling of registered components.
// Add and Remove are keyed by component identity and are idempotent.
type Dispatcher interface {
	Add(Poller)
	Remove(Poller)
}

// Ticker is a dispatcher that polls its registered components from a
// single background goroutine on a fixed interval.
type Ticker struct {
	mu      sync.Mutex
	pollers map[Poller]bool
	ticker  *time.Ticker
	done    chan bool
}

// NewTicker creates a dispatcher polling at the given interval.
func NewTicker(interval time.Duration) *Ticker {
	t := new(Ticker)
	t.pollers = make(map[Poller]bool)
	t.ticker = time.NewTicker(interval)
	t.done = make(chan bool)
	go t.run()
	return t
}

// Add registers a component for polling.
func (t *Ticker) Add(p Poller) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pollers[p] = true
}

// Remove deregisters a component. Removing a component that is not
// registered is a no-op.
func (t *Ticker) Remove(p Poller) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pollers, p)
}

// Close stops the dispatcher and its goroutine.
func (t *Ticker) Close() {
	t.ticker.Stop()
	close(t.done)
}

// goroutine handler.
// Polls every registered component on each tick.
func (t *Ticker) run() {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			t.mu.Lock()
			for p := range t.pollers {
				p.Poll()
			}
			t.mu.Unlock()
		}
	}
}
