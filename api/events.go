// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/hearth-chat/hearth/lib/clock"
	"github.com/hearth-chat/hearth/lib/netutil"
	"github.com/hearth-chat/hearth/lib/ref"
	"github.com/hearth-chat/hearth/presence"
)

// initialPollBackoff is the delay after the first consecutive poll or
// registration failure. Doubles per failure up to maxPollBackoff and
// resets on any success.
const initialPollBackoff = time.Second

// maxPollBackoff caps the failure backoff. Thirty seconds keeps a
// recovering server from being hammered while still restoring the
// roster promptly once it answers.
const maxPollBackoff = 30 * time.Second

// EventClient is the slice of Client the event loop needs. Defined as
// an interface for testability.
type EventClient interface {
	Register(ctx context.Context) (*Registration, error)
	Events(ctx context.Context, queueID string, lastEventID int64) ([]Event, error)
}

// EventSourceConfig configures an EventSource. Client is required;
// everything else is optional.
type EventSourceConfig struct {
	// Client performs registration and polling.
	Client EventClient

	// Clock provides time operations. Defaults to clock.Real().
	Clock clock.Clock

	// Watchdog, when set, has the source registered as a jump
	// listener: a detected clock jump forces a fresh registration so
	// the roster resynchronizes after a suspend.
	Watchdog *presence.Watchdog

	// OnSnapshot receives the seed state after every successful
	// registration: the full presence roster, the member directory,
	// and the local user's id.
	OnSnapshot func(Registration)

	// OnPresence receives one user's new status from a presence
	// event.
	OnPresence func(userID ref.UserID, status presence.Status, serverTime time.Time)

	// OnMessage receives the sender and recipients of a message
	// event.
	OnMessage func(sender ref.UserID, recipients []ref.UserID, timestamp time.Time)

	// Logger is used for structured logging. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// EventSource drives the inbound half of the protocol: it registers
// an event queue, long-polls it, and dispatches events to callbacks.
// Callbacks run on the Run goroutine and must not block.
type EventSource struct {
	client     EventClient
	clock      clock.Clock
	onSnapshot func(Registration)
	onPresence func(ref.UserID, presence.Status, time.Time)
	onMessage  func(ref.UserID, []ref.UserID, time.Time)
	logger     *slog.Logger

	resets chan struct{}
	done   chan struct{}
}

// NewEventSource constructs an EventSource and, when a watchdog is
// configured, registers it for jump notifications.
func NewEventSource(cfg EventSourceConfig) *EventSource {
	source := &EventSource{
		client:     cfg.Client,
		clock:      cfg.Clock,
		onSnapshot: cfg.OnSnapshot,
		onPresence: cfg.OnPresence,
		onMessage:  cfg.OnMessage,
		logger:     cfg.Logger,
		resets:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	if source.clock == nil {
		source.clock = clock.Real()
	}
	if source.logger == nil {
		source.logger = slog.Default()
	}
	if cfg.Watchdog != nil {
		cfg.Watchdog.Notify(func(time.Duration) { source.Reset() })
	}
	return source
}

// Reset forces the source to abandon its current queue and register a
// fresh one on the next loop iteration. Non-blocking; safe from any
// goroutine. Events already fetched from the old queue still apply.
func (s *EventSource) Reset() {
	select {
	case s.resets <- struct{}{}:
	default:
	}
}

// Done is closed when Run has exited.
func (s *EventSource) Done() <-chan struct{} {
	return s.done
}

// Run registers a queue and polls it until ctx is cancelled. Poll
// failures back off exponentially; an expired queue re-registers
// immediately, since the failure is the queue's and not the
// server's.
func (s *EventSource) Run(ctx context.Context) {
	defer close(s.done)

	backoff := initialPollBackoff
	var queueID string
	var lastEventID int64
	registered := false

	for ctx.Err() == nil {
		select {
		case <-s.resets:
			registered = false
		default:
		}

		if !registered {
			registration, err := s.client.Register(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("event queue registration failed",
					"backoff", backoff,
					"error", err,
				)
				if _, cancelled := s.wait(ctx, backoff); cancelled {
					return
				}
				backoff = growBackoff(backoff)
				continue
			}
			queueID, lastEventID = registration.QueueID, registration.LastEventID
			registered = true
			backoff = initialPollBackoff
			s.logger.Info("event queue registered",
				"queue_id", queueID,
				"last_event_id", lastEventID,
			)
			if s.onSnapshot != nil {
				s.onSnapshot(*registration)
			}
			continue
		}

		events, err := s.client.Events(ctx, queueID, lastEventID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if IsAPIError(err, CodeBadEventQueueID) {
				s.logger.Info("event queue expired, registering a fresh one",
					"queue_id", queueID,
				)
				registered = false
				continue
			}
			if netutil.IsExpectedCloseError(err) {
				s.logger.Debug("event poll connection dropped",
					"error", err,
				)
			} else {
				s.logger.Warn("event poll failed",
					"backoff", backoff,
					"error", err,
				)
			}
			reset, cancelled := s.wait(ctx, backoff)
			if cancelled {
				return
			}
			if reset {
				registered = false
			}
			backoff = growBackoff(backoff)
			continue
		}

		backoff = initialPollBackoff
		for _, event := range events {
			s.dispatch(event)
			if event.ID > lastEventID {
				lastEventID = event.ID
			}
		}
	}
}

// dispatch routes one event to its callback. Heartbeats exist only to
// keep the queue alive; unknown types are skipped so newer servers
// stay compatible.
func (s *EventSource) dispatch(event Event) {
	switch event.Type {
	case EventTypePresence:
		if s.onPresence != nil && !event.UserID.IsZero() {
			s.onPresence(event.UserID, statusFromWire(event.Status), timeFromSeconds(event.ServerTimestamp))
		}
	case EventTypeMessage:
		if s.onMessage != nil && !event.SenderID.IsZero() {
			s.onMessage(event.SenderID, event.RecipientIDs, timeFromSeconds(event.Timestamp))
		}
	case EventTypeHeartbeat:
	default:
		s.logger.Debug("ignoring unknown event type",
			"type", event.Type,
			"id", event.ID,
		)
	}
}

// wait sleeps for the backoff duration, waking early on a reset
// request or cancellation.
func (s *EventSource) wait(ctx context.Context, d time.Duration) (reset, cancelled bool) {
	select {
	case <-ctx.Done():
		return false, true
	case <-s.clock.After(d):
		return false, false
	case <-s.resets:
		return true, false
	}
}

// growBackoff doubles the backoff up to the cap.
func growBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxPollBackoff {
		next = maxPollBackoff
	}
	return next
}
