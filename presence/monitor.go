// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package presence

import (
	"log/slog"
	"sync"
	"time"

	"github.com/hearth-chat/hearth/lib/clock"
)

// DefaultIdleTimeout is how long the monitor waits after the last
// qualifying activity before flipping to inactive. Matches the
// server's expectation that an "active" claim is at most a few
// minutes old.
const DefaultIdleTimeout = 5 * time.Minute

// MonitorConfig configures a Monitor. Zero values select the real
// clock, no idle probe, the default timeout, and slog.Default().
type MonitorConfig struct {
	Clock       clock.Clock
	Probe       IdleProbe
	IdleTimeout time.Duration
	Logger      *slog.Logger
}

// Monitor tracks whether the local user counts as active: it observes
// input events, window focus gain and loss, and runs the idle
// countdown that eventually flips an untouched client to inactive.
//
// The monitor starts active (the user just launched the process)
// with the countdown already armed. Input and focus gain re-arm it
// (debounce semantics: one timer, reset on every event, never
// stacked). Focus loss records the blur but changes nothing else; if
// no qualifying activity follows within the timeout, the countdown
// flips the monitor to inactive exactly once, silently. The flip is
// deliberately unannounced: going idle is not time-critical and the
// next scheduled report carries it. Going active again is, so a
// focus-gain transition from inactive emits one signal on
// Activations for the reporter to tell the server promptly.
//
// Safe for concurrent use.
type Monitor struct {
	clock       clock.Clock
	probe       IdleProbe
	idleTimeout time.Duration
	logger      *slog.Logger

	mu             sync.Mutex
	active         bool
	focused        bool
	freshInput     bool
	lastInputAt    time.Time
	lastActivityAt time.Time
	idleTimer      *clock.Timer

	activations chan struct{}
}

// NewMonitor constructs a Monitor and arms the idle countdown.
func NewMonitor(cfg MonitorConfig) *Monitor {
	m := &Monitor{
		clock:       cfg.Clock,
		probe:       cfg.Probe,
		idleTimeout: cfg.IdleTimeout,
		logger:      cfg.Logger,
		active:      true,
		focused:     true,
		activations: make(chan struct{}, 1),
	}
	if m.clock == nil {
		m.clock = clock.Real()
	}
	if m.probe == nil {
		m.probe = Unsupported()
	}
	if m.idleTimeout <= 0 {
		m.idleTimeout = DefaultIdleTimeout
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}

	m.lastActivityAt = m.clock.Now()
	m.idleTimer = m.clock.AfterFunc(m.idleTimeout, m.idleTimeoutFired)
	return m
}

// NoteInput records a user input event (keystroke, pointer). Input
// marks the user active, sets the fresh-input flag the next report
// carries, and re-arms the idle countdown. An inactive monitor
// becomes active again without emitting an activation signal; the
// signal is reserved for focus gain, the transition the server should
// learn about promptly.
func (m *Monitor) NoteInput() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	m.freshInput = true
	m.lastInputAt = now
	m.lastActivityAt = now
	m.active = true
	m.idleTimer.Reset(m.idleTimeout)
}

// NoteFocus records window focus gain. Focus counts as qualifying
// activity (the countdown re-arms) but not as input (the fresh-input
// flag is untouched). A transition from inactive to active emits one
// activation signal; signals that find the buffer full are dropped,
// since the reporter only needs to learn "became active", not how
// often.
func (m *Monitor) NoteFocus() {
	m.mu.Lock()
	m.focused = true
	m.lastActivityAt = m.clock.Now()
	m.idleTimer.Reset(m.idleTimeout)
	wasInactive := !m.active
	m.active = true
	m.mu.Unlock()

	if wasInactive {
		select {
		case m.activations <- struct{}{}:
		default:
		}
	}
}

// NoteBlur records window focus loss. Nothing is reported and the
// countdown keeps running from the last activity: blurring is not
// evidence of absence, just of attention elsewhere.
func (m *Monitor) NoteBlur() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focused = false
}

// Activations delivers one signal per inactive-to-active focus
// transition. Capacity 1; consumed by the reporter's run loop.
func (m *Monitor) Activations() <-chan struct{} {
	return m.activations
}

// Active reports whether the user currently counts as locally active.
func (m *Monitor) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Focused reports whether the window currently has focus.
func (m *Monitor) Focused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focused
}

// FreshInput reports whether real input arrived since the last
// successful report. Distinguishes "window merely has focus" from
// "user actually typed or clicked".
func (m *Monitor) FreshInput() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.freshInput
}

// ClearFreshInput resets the fresh-input flag. The reporter calls
// this after every successful send so the flag means "input since the
// last report".
func (m *Monitor) ClearFreshInput() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.freshInput = false
}

// LastInputAt returns the time of the most recent input event, zero
// if none arrived yet.
func (m *Monitor) LastInputAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastInputAt
}

// Status computes the current wire status from the host probe and
// local activity.
func (m *Monitor) Status() Status {
	// Probe outside the lock: it may consult the host environment.
	return ComputeStatus(m.probe.State(), m.Active())
}

// idleTimeoutFired is the countdown callback. Activity racing the
// timer already re-armed it via Reset, so the callback re-checks the
// last activity time under the lock and only then deactivates.
func (m *Monitor) idleTimeoutFired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clock.Now().Sub(m.lastActivityAt) < m.idleTimeout {
		return
	}
	if m.active {
		m.active = false
		m.logger.Debug("local user went idle",
			"last_activity", m.lastActivityAt,
			"idle_timeout", m.idleTimeout,
		)
	}
}
