// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction so the
// presence engine's timers are deterministic under test.
//
// Everything time-driven in this codebase (the idle debounce, the
// report ticker, the suspend watchdog, poll backoff) takes a Clock
// at construction. Production wiring passes Real(); tests pass Fake()
// and drive it:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	monitor := presence.NewMonitor(presence.MonitorConfig{Clock: fake})
//	monitor.NoteInput()
//	fake.Advance(5 * time.Minute) // idle timer fires, deterministically
//
// When the code under test registers its timers from another
// goroutine, WaitForTimers blocks until they exist before the test
// advances. FakeClock.Jump moves time without firing timers, which is
// how tests model a machine suspend: the wall clock leaps, pending
// timers run late on the next Advance, and the watchdog sees the gap.
package clock
