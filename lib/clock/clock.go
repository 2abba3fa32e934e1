// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations the presence engine performs.
// Production code injects Real(); tests inject Fake() and drive it
// explicitly. Engine code never calls the time package directly for
// anything a Clock can provide.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d
	// has elapsed. If d <= 0 the channel receives immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc schedules f to run after d. The returned Timer can
	// cancel the pending call with Stop or push the deadline out with
	// Reset; its C field is nil, matching time.AfterFunc.
	AfterFunc(d time.Duration, f func()) *Timer

	// NewTicker returns a Ticker delivering ticks on C every d.
	// Panics if d <= 0, matching time.NewTicker.
	NewTicker(d time.Duration) *Ticker
}

// Timer is a cancellable scheduled call, returned by AfterFunc.
type Timer struct {
	// C is nil for AfterFunc timers; the field exists so the wrapper
	// stays shape-compatible with time.Timer.
	C <-chan time.Time

	stop  func() bool
	reset func(time.Duration) bool
}

// Stop cancels the timer. It reports whether the call stopped the
// timer, false when the timer already fired or was stopped.
func (t *Timer) Stop() bool { return t.stop() }

// Reset reschedules the timer to fire after d, reporting whether the
// timer was still active. A fired or stopped timer is revived.
func (t *Timer) Reset(d time.Duration) bool { return t.reset(d) }

// Ticker delivers ticks on C at a fixed interval. C has capacity 1;
// a slow consumer drops ticks rather than queueing them, matching
// time.Ticker.
type Ticker struct {
	C <-chan time.Time

	stop  func()
	reset func(time.Duration)
}

// Stop turns the ticker off. C is not closed.
func (t *Ticker) Stop() { t.stop() }

// Reset changes the interval and restarts the cycle; the next tick
// arrives after the new duration.
func (t *Ticker) Reset(d time.Duration) { t.reset(d) }
