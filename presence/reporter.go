// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package presence

import (
	"context"
	"log/slog"
	"time"

	"github.com/hearth-chat/hearth/lib/clock"
	"github.com/hearth-chat/hearth/lib/ref"
)

// DefaultReportInterval is the cadence of scheduled presence reports.
const DefaultReportInterval = 50 * time.Second

// Report is one outbound presence report. Every report is a complete
// statement of current state, which is what makes the protocol safe
// to run without retries or request cancellation: a lost or late
// report is superseded by the next one, never merged with it.
type Report struct {
	Status Status

	// PingOnly tells the server to record the status without sending
	// back the full presence set. Scheduled ticks want the set;
	// keep-alives do not.
	PingOnly bool

	// NewUserInput reports whether real input (not mere focus)
	// happened since the last successful report.
	NewUserInput bool

	// SlimPresence advertises that the client accepts the compact
	// presence encoding.
	SlimPresence bool
}

// Snapshot is the server's presence payload: the full record set and
// the server clock reading that dates it. MirrorActive is nil when
// the response omitted the flag; false drives a UI warning about the
// mirroring bridge being down.
type Snapshot struct {
	Presences    []Record
	ServerTime   time.Time
	MirrorActive *bool
}

// ReportSender delivers one report and returns the server's snapshot,
// nil for ping-only acknowledgements. Defined as an interface for
// testability — the unit tests inject a recording fake; production
// wires the API client.
type ReportSender interface {
	SendReport(ctx context.Context, report Report) (*Snapshot, error)
}

// ReporterConfig configures a Reporter. Monitor, Sender, and Store
// are required; everything else has a working zero value. The
// callbacks run on the reporter's goroutine and must not block.
type ReporterConfig struct {
	Clock    clock.Clock
	Monitor  *Monitor
	Sender   ReportSender
	Store    *Store
	Watchdog *Watchdog

	// Interval between scheduled reports; DefaultReportInterval when
	// zero.
	Interval time.Duration

	// OnFullRefresh runs after a full response replaced the store:
	// consumers rebuild their views.
	OnFullRefresh func()

	// OnUserUpdate runs after a discrete push changed one user's
	// record: consumers update a single row.
	OnUserUpdate func(userID ref.UserID)

	// OnMirrorStatus runs when a full response carried the mirror
	// flag.
	OnMirrorStatus func(active bool)

	Logger *slog.Logger
}

// Reporter is the presence sync loop: it sends the local status on a
// schedule, immediately on activation, and folds the server's answers
// into the store.
type Reporter struct {
	clock          clock.Clock
	monitor        *Monitor
	sender         ReportSender
	store          *Store
	watchdog       *Watchdog
	interval       time.Duration
	onFullRefresh  func()
	onUserUpdate   func(ref.UserID)
	onMirrorStatus func(bool)
	logger         *slog.Logger

	done chan struct{}
}

// NewReporter constructs a Reporter.
func NewReporter(cfg ReporterConfig) *Reporter {
	r := &Reporter{
		clock:          cfg.Clock,
		monitor:        cfg.Monitor,
		sender:         cfg.Sender,
		store:          cfg.Store,
		watchdog:       cfg.Watchdog,
		interval:       cfg.Interval,
		onFullRefresh:  cfg.OnFullRefresh,
		onUserUpdate:   cfg.OnUserUpdate,
		onMirrorStatus: cfg.OnMirrorStatus,
		logger:         cfg.Logger,
		done:           make(chan struct{}),
	}
	if r.clock == nil {
		r.clock = clock.Real()
	}
	if r.interval <= 0 {
		r.interval = DefaultReportInterval
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run drives the report schedule until ctx is cancelled.
//
// The first report goes out immediately and is ping-only: the caller
// seeded the store from the registration snapshot, so requesting the
// set again would only force a redundant redraw. Every scheduled tick
// afterwards requests the full set. An activation signal from the
// monitor sends an immediate out-of-schedule report, also full: a
// focus gain after a long blur or a sleep is exactly when the local
// view is most stale.
func (r *Reporter) Run(ctx context.Context) {
	defer close(r.done)

	r.send(ctx, false)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.send(ctx, true)
		case <-r.monitor.Activations():
			r.send(ctx, true)
		}
	}
}

// Done is closed after Run returns.
func (r *Reporter) Done() <-chan struct{} {
	return r.done
}

// ApplyUpdate ingests one discrete presence push. A stale push
// changes nothing and notifies nobody; an accepted one updates
// exactly that user's record and fires OnUserUpdate so consumers can
// touch one row instead of rebuilding.
func (r *Reporter) ApplyUpdate(userID ref.UserID, status Status, serverTime time.Time) {
	if !r.store.Apply(userID, status, serverTime) {
		return
	}
	if r.onUserUpdate != nil {
		r.onUserUpdate(userID)
	}
}

// send builds and delivers one report. Failure is logged and dropped:
// the next tick resends current state, so a retry here would add
// nothing but duplicate traffic.
func (r *Reporter) send(ctx context.Context, wantRedraw bool) {
	if r.watchdog != nil {
		// Observe the clock before claiming liveness to the server:
		// if the device just woke from a suspend, the jump callbacks
		// kick off resynchronization first.
		r.watchdog.Check()
	}

	report := Report{
		Status:       r.monitor.Status(),
		PingOnly:     !wantRedraw,
		NewUserInput: r.monitor.FreshInput(),
		SlimPresence: true,
	}

	snapshot, err := r.sender.SendReport(ctx, report)
	if err != nil {
		r.logger.Warn("presence report failed",
			"status", report.Status,
			"ping_only", report.PingOnly,
			"error", err,
		)
		return
	}

	// The flag means "input since the last report the server saw";
	// this report carried it, so it resets on any success, full or
	// ping-only.
	r.monitor.ClearFreshInput()

	if !wantRedraw || snapshot == nil {
		return
	}

	r.store.ReplaceAll(snapshot.Presences, snapshot.ServerTime)
	if r.onFullRefresh != nil {
		r.onFullRefresh()
	}
	if snapshot.MirrorActive != nil && r.onMirrorStatus != nil {
		r.onMirrorStatus(*snapshot.MirrorActive)
	}
}
