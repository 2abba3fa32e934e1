// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package presence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hearth-chat/hearth/lib/clock"
)

const (
	// DefaultWatchdogBeat is how often the watchdog loop observes the
	// clock on its own, independent of presence traffic.
	DefaultWatchdogBeat = 5 * time.Second

	// DefaultJumpThreshold is the observation gap beyond which the
	// watchdog declares a clock jump. Four missed beats: long enough
	// that scheduler hiccups never trip it, short enough that any
	// real suspend does.
	DefaultJumpThreshold = 20 * time.Second
)

// WatchdogConfig configures a Watchdog. Zero values select the real
// clock, the default beat and threshold, and slog.Default().
type WatchdogConfig struct {
	Clock     clock.Clock
	Beat      time.Duration
	Threshold time.Duration
	Logger    *slog.Logger
}

// Watchdog detects wall-clock jumps: stretches where the process
// observed no time passing while the clock moved, the signature of a
// device suspend. Timers do not fire during a suspend, so the only
// way to notice one is to compare consecutive clock readings and spot
// a gap no scheduler delay explains.
//
// Check is the observation: it measures the gap since the previous
// observation, re-stamps, and fires the registered callbacks when the
// gap exceeds the threshold. The reporter calls Check before every
// send, making presence traffic the opportunistic catch-up moment;
// Run ticks it on a beat so jumps surface even with no traffic.
//
// Safe for concurrent use.
type Watchdog struct {
	clock     clock.Clock
	beat      time.Duration
	threshold time.Duration
	logger    *slog.Logger

	mu        sync.Mutex
	lastSeen  time.Time
	callbacks []func(gap time.Duration)
}

// NewWatchdog constructs a Watchdog with the current time as the
// first observation.
func NewWatchdog(cfg WatchdogConfig) *Watchdog {
	w := &Watchdog{
		clock:     cfg.Clock,
		beat:      cfg.Beat,
		threshold: cfg.Threshold,
		logger:    cfg.Logger,
	}
	if w.clock == nil {
		w.clock = clock.Real()
	}
	if w.beat <= 0 {
		w.beat = DefaultWatchdogBeat
	}
	if w.threshold <= 0 {
		w.threshold = DefaultJumpThreshold
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}

	w.lastSeen = w.clock.Now()
	return w
}

// Notify registers a callback to run on every detected jump, with the
// gap length. Callbacks must not block; they run on whichever
// goroutine called Check. Register before Run starts.
func (w *Watchdog) Notify(fn func(gap time.Duration)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Check takes one observation. When the gap since the previous one
// exceeds the threshold, the jump callbacks fire once with the gap;
// the observation is re-stamped either way, so a jump is reported a
// single time no matter how many Checks follow it.
func (w *Watchdog) Check() {
	w.mu.Lock()
	now := w.clock.Now()
	gap := now.Sub(w.lastSeen)
	w.lastSeen = now
	var callbacks []func(gap time.Duration)
	if gap > w.threshold {
		callbacks = append(callbacks, w.callbacks...)
	}
	w.mu.Unlock()

	if callbacks == nil {
		return
	}

	w.logger.Info("clock jump detected, resynchronizing",
		"gap", gap,
		"threshold", w.threshold,
	)
	for _, fn := range callbacks {
		fn(gap)
	}
}

// Run ticks Check every beat until ctx is cancelled.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := w.clock.NewTicker(w.beat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check()
		}
	}
}
