// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"sort"
	"time"

	"github.com/hearth-chat/hearth/directory"
	"github.com/hearth-chat/hearth/lib/ref"
	"github.com/hearth-chat/hearth/presence"
)

// Event is one entry from the event queue. The type field selects
// which of the remaining fields are populated: presence events carry
// UserID/Status/ServerTimestamp, message events carry
// SenderID/RecipientIDs/Timestamp, heartbeats carry nothing.
type Event struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`

	UserID          ref.UserID `json:"user_id,omitempty"`
	Status          string     `json:"status,omitempty"`
	ServerTimestamp float64    `json:"server_timestamp,omitempty"`

	SenderID     ref.UserID   `json:"sender_id,omitempty"`
	RecipientIDs []ref.UserID `json:"recipient_ids,omitempty"`
	Timestamp    float64      `json:"timestamp,omitempty"`
}

// Event type discriminators.
const (
	EventTypePresence  = "presence"
	EventTypeMessage   = "message"
	EventTypeHeartbeat = "heartbeat"
)

// Registration is the result of opening an event queue: the queue
// handle for subsequent polls plus the initial world state.
type Registration struct {
	QueueID     string
	LastEventID int64

	// SelfID is the authenticated user's own id. Zero when the server
	// predates the field.
	SelfID ref.UserID

	Snapshot *presence.Snapshot
	Members  []directory.Person
}

// Wire shapes. Timestamps travel as float seconds since the Unix
// epoch, user ids as strings.

type reportRequest struct {
	Status       string `json:"status"`
	PingOnly     bool   `json:"ping_only"`
	NewUserInput bool   `json:"new_user_input"`
	SlimPresence bool   `json:"slim_presence"`
}

type reportResponse struct {
	Result          string                  `json:"result"`
	ServerTimestamp float64                 `json:"server_timestamp"`
	Presences       map[string]wirePresence `json:"presences,omitempty"`
	MirrorActive    *bool                   `json:"mirror_active,omitempty"`
}

type wirePresence struct {
	Status    string  `json:"status"`
	Timestamp float64 `json:"timestamp"`
}

type registerRequest struct {
	EventTypes []string `json:"event_types"`
}

type registerResponse struct {
	Result          string                  `json:"result"`
	QueueID         string                  `json:"queue_id"`
	LastEventID     int64                   `json:"last_event_id"`
	UserID          string                  `json:"user_id"`
	ServerTimestamp float64                 `json:"server_timestamp"`
	Presences       map[string]wirePresence `json:"presences"`
	Members         []wireMember            `json:"members"`
}

type wireMember struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type eventsResponse struct {
	Result string  `json:"result"`
	Events []Event `json:"events"`
}

type errorResponse struct {
	Result  string `json:"result"`
	Code    string `json:"code"`
	Message string `json:"msg"`
}

// timeFromSeconds converts a wire timestamp to a time.Time. Zero maps
// to the zero time rather than the epoch so absent fields stay absent.
func timeFromSeconds(seconds float64) time.Time {
	if seconds == 0 {
		return time.Time{}
	}
	whole := int64(seconds)
	fraction := int64((seconds - float64(whole)) * float64(time.Second))
	return time.Unix(whole, fraction).UTC()
}

// statusFromWire normalizes a wire status. Anything but "active" (an
// idle report, or a richer state from a newer server) renders idle.
func statusFromWire(raw string) presence.Status {
	if raw == string(presence.StatusActive) {
		return presence.StatusActive
	}
	return presence.StatusIdle
}

// recordsFromWire converts a wire presence map into store records,
// dropping entries whose user id does not parse. The result is sorted
// by user id so callers see a deterministic order.
func recordsFromWire(presences map[string]wirePresence) []presence.Record {
	records := make([]presence.Record, 0, len(presences))
	for raw, entry := range presences {
		userID, err := ref.ParseUserID(raw)
		if err != nil {
			continue
		}
		records = append(records, presence.Record{
			UserID:     userID,
			Status:     statusFromWire(entry.Status),
			ServerTime: timeFromSeconds(entry.Timestamp),
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UserID.Less(records[j].UserID)
	})
	return records
}

// membersFromWire converts wire roster entries, dropping ones whose
// user id does not parse.
func membersFromWire(members []wireMember) []directory.Person {
	people := make([]directory.Person, 0, len(members))
	for _, member := range members {
		userID, err := ref.ParseUserID(member.UserID)
		if err != nil {
			continue
		}
		people = append(people, directory.Person{
			ID:    userID,
			Name:  member.FullName,
			Email: member.Email,
		})
	}
	return people
}
