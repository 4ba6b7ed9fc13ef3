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

package qdec

import (
	"sync/atomic"
	"testing"
	"time"
)

type countPoller struct {
	polls int32
}

func (c *countPoller) Poll() {
	atomic.AddInt32(&c.polls, 1)
}

func (c *countPoller) count() int32 {
	return atomic.LoadInt32(&c.polls)
}

func TestTicker(t *testing.T) {
	ticker := NewTicker(time.Millisecond)
	defer ticker.Close()
	p := new(countPoller)
	ticker.Add(p)
	ticker.Add(p) // Adding twice must not double the polling.
	deadline := time.Now().Add(5 * time.Second)
	for p.count() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("poller not invoked (%d polls)", p.count())
		}
		time.Sleep(time.Millisecond)
	}
	ticker.Remove(p)
	n := p.count()
	time.Sleep(20 * time.Millisecond)
	if p.count() != n {
		t.Errorf("poller still invoked after Remove")
	}
	ticker.Remove(p) // Removing again is a no-op.
}

func TestTickerDrivesDecoder(t *testing.T) {
	dev := &fakeDevice{deltas: []int32{5, 5, 5}}
	ticker := NewTicker(time.Millisecond)
	defer ticker.Close()
	d := newTestDecoder(t, dev, ticker, Config{})
	d.EnableSystemTick()
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for d.Position() < 15 {
		if time.Now().After(deadline) {
			t.Fatalf("position %d after ticking, want 15", d.Position())
		}
		time.Sleep(time.Millisecond)
	}
	d.Stop()
}
