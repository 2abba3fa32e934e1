// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Fake returns a FakeClock pinned to the given time. Time moves only
// through Advance (which runs due timers) or Jump (which does not).
//
// FakeClock is safe for concurrent use by multiple goroutines.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{current: initial}
	c.changed = sync.NewCond(&c.mu)
	return c
}

// FakeClock is a deterministic Clock for tests. Pending timers and
// tickers are kept in a schedule; Advance steps the clock through each
// due deadline in order, so a callback observing Now sees the time it
// was scheduled for, not the advance target.
//
// AfterFunc callbacks run synchronously inside Advance, in the
// advancing goroutine. Calling Advance or Jump from inside a callback
// is not supported.
type FakeClock struct {
	mu      sync.Mutex
	changed *sync.Cond
	current time.Time
	seq     uint64
	events  []*fakeEvent
}

// fakeEvent is one scheduled occurrence. The events slice holds an
// event exactly while it is scheduled: one-shots leave on fire or
// Stop, tickers leave only on Stop. fired survives removal so a
// Timer.Reset can tell "already ran" from "cancelled".
type fakeEvent struct {
	at       time.Time
	seq      uint64
	channel  chan time.Time
	call     func()
	interval time.Duration
	fired    bool
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After returns a channel receiving the fire time once the clock
// advances past d. If d <= 0 the channel receives immediately.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.current
		return channel
	}
	c.scheduleLocked(&fakeEvent{at: c.current.Add(d), channel: channel})
	return channel
}

// AfterFunc schedules f to run when the clock advances past d. With
// d <= 0, f runs synchronously before AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	c.mu.Lock()
	event := &fakeEvent{at: c.current.Add(d), call: f}
	if d > 0 {
		c.scheduleLocked(event)
		c.mu.Unlock()
	} else {
		event.fired = true
		c.mu.Unlock()
		f()
	}

	return &Timer{
		stop: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.removeLocked(event)
		},
		reset: func(d time.Duration) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			event.at = c.current.Add(d)
			if c.scheduledLocked(event) {
				return true
			}
			event.fired = false
			c.scheduleLocked(event)
			return false
		},
	}
}

// NewTicker returns a Ticker firing every d. Panics if d <= 0.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	event := &fakeEvent{at: c.current.Add(d), channel: channel, interval: d}
	c.scheduleLocked(event)

	return &Ticker{
		C: channel,
		stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.removeLocked(event)
		},
		reset: func(d time.Duration) {
			c.mu.Lock()
			defer c.mu.Unlock()
			event.interval = d
			event.at = c.current.Add(d)
			if !c.scheduledLocked(event) {
				c.scheduleLocked(event)
			}
		},
	}
}

// Advance moves the clock forward by d, firing every due timer and
// ticker in deadline order. The clock steps to each deadline before
// its event runs, then settles at the target. Tickers spanning
// multiple intervals fire once per interval; ticks that find the
// channel buffer full are dropped, matching time.Ticker.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.current.Add(d)

	for {
		event := c.nextDueLocked(target)
		if event == nil {
			break
		}
		// Step forward only: deadlines overtaken by a Jump fire late
		// without rewinding the clock.
		if event.at.After(c.current) {
			c.current = event.at
		}
		if event.interval > 0 {
			event.at = event.at.Add(event.interval)
		} else {
			event.fired = true
			c.removeLocked(event)
		}

		if event.call != nil {
			// Callbacks may take their own locks and re-enter the
			// clock (Timer.Reset from a monitor under its mutex), so
			// they run without c.mu held. The schedule is re-scanned
			// afterwards: a timer registered by the callback with a
			// deadline inside this advance still fires.
			fn := event.call
			c.mu.Unlock()
			fn()
			c.mu.Lock()
		} else {
			select {
			case event.channel <- c.current:
			default:
			}
		}
	}

	c.current = target
	c.mu.Unlock()
}

// Jump moves the clock forward by d without firing anything, modeling
// a suspended process: the wall clock moved while no timer got to
// run. Deadlines overtaken by the jump fire on the next Advance, late,
// exactly like timers after a resume.
func (c *FakeClock) Jump(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// WaitForTimers blocks until at least n timers or tickers are
// scheduled. This closes the race between a goroutine under test
// registering its timer and the test advancing the clock:
//
//	go reporter.Run(ctx)
//	fake.WaitForTimers(1) // reporter's ticker is registered
//	fake.Advance(interval)
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.events) < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of scheduled timers and tickers.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// scheduleLocked appends an event and wakes WaitForTimers waiters.
func (c *FakeClock) scheduleLocked(event *fakeEvent) {
	c.seq++
	event.seq = c.seq
	c.events = append(c.events, event)
	c.changed.Broadcast()
}

// removeLocked unschedules an event, reporting whether it was present.
func (c *FakeClock) removeLocked(event *fakeEvent) bool {
	for i, candidate := range c.events {
		if candidate == event {
			c.events = append(c.events[:i], c.events[i+1:]...)
			return true
		}
	}
	return false
}

func (c *FakeClock) scheduledLocked(event *fakeEvent) bool {
	for _, candidate := range c.events {
		if candidate == event {
			return true
		}
	}
	return false
}

// nextDueLocked returns the scheduled event with the earliest deadline
// at or before target, registration order breaking ties. Nil when
// nothing is due.
func (c *FakeClock) nextDueLocked(target time.Time) *fakeEvent {
	var due *fakeEvent
	for _, event := range c.events {
		if event.at.After(target) {
			continue
		}
		if due == nil || event.at.Before(due.at) ||
			(event.at.Equal(due.at) && event.seq < due.seq) {
			due = event
		}
	}
	return due
}
