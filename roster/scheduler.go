// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package roster

import (
	"sync"
	"time"

	"github.com/hearth-chat/hearth/lib/clock"
)

// Scheduler coalesces bursts of redraw requests. The first Kick in a
// quiet period runs the callback immediately; further Kicks inside
// the minimum interval fold into a single trailing run when the
// interval expires. A burst of any size therefore costs at most two
// runs: one at the leading edge, one at the trailing edge.
type Scheduler struct {
	clock       clock.Clock
	minInterval time.Duration
	fn          func()

	mu      sync.Mutex
	lastRun time.Time
	pending bool
	timer   *clock.Timer
}

// NewScheduler returns a Scheduler invoking fn at most once per
// minInterval. Leading runs happen on the Kick caller's goroutine,
// trailing runs on the timer's.
func NewScheduler(clk clock.Clock, minInterval time.Duration, fn func()) *Scheduler {
	return &Scheduler{
		clock:       clk,
		minInterval: minInterval,
		fn:          fn,
	}
}

// Kick requests a run. Outside the minimum interval the callback
// runs now; inside it, one trailing run is scheduled for the moment
// the interval expires, and further kicks until then are no-ops.
func (s *Scheduler) Kick() {
	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return
	}
	now := s.clock.Now()
	elapsed := now.Sub(s.lastRun)
	if elapsed >= s.minInterval {
		s.lastRun = now
		s.mu.Unlock()
		s.fn()
		return
	}
	s.pending = true
	delay := s.minInterval - elapsed
	if s.timer == nil {
		s.timer = s.clock.AfterFunc(delay, s.flush)
	} else {
		s.timer.Reset(delay)
	}
	s.mu.Unlock()
}

// flush performs the trailing run.
func (s *Scheduler) flush() {
	s.mu.Lock()
	if !s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.lastRun = s.clock.Now()
	s.mu.Unlock()
	s.fn()
}

// Stop cancels any scheduled trailing run. Kicks after Stop still
// work; Stop only clears what is currently queued.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false
	if s.timer != nil {
		s.timer.Stop()
	}
}
