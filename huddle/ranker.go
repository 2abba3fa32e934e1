// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package huddle derives a recency-ranked list of group conversations
// from observed message traffic. Each conversation is identified by a
// canonical Key; the Ranker keeps the newest message timestamp per
// key and answers "which huddles were active most recently". Display
// formatting for a key's participant list lives here too, since its
// exact shape is a UI-parity contract.
package huddle

import (
	"sort"
	"sync"
	"time"

	"github.com/hearth-chat/hearth/lib/ref"
)

// DefaultLimit is how many huddles RankedKeys returns when the caller
// passes no limit.
const DefaultLimit = 10

// entry is one conversation's ranking state. order is the insertion
// sequence, the tie-break when two conversations share a timestamp.
type entry struct {
	lastSeen time.Time
	order    int
}

// Ranker maintains the most recent message timestamp per huddle.
// Updates are monotonic per key: duplicate or out-of-order delivery
// can never move a conversation down the ranking.
//
// Safe for concurrent use.
type Ranker struct {
	self ref.UserID

	mu        sync.Mutex
	entries   map[Key]*entry
	nextOrder int
}

// NewRanker constructs a Ranker for the given local user, whose id is
// excluded from every key.
func NewRanker(self ref.UserID) *Ranker {
	return &Ranker{
		self:    self,
		entries: make(map[Key]*entry),
	}
}

// RecordMessage observes one message. Participant sets with fewer
// than two users besides the local one are ignored, as are timestamps
// not strictly newer than the stored value for the conversation.
func (r *Ranker) RecordMessage(participants []ref.UserID, ts time.Time) {
	key, ok := KeyFor(r.self, participants)
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.entries[key]
	if !ok {
		r.entries[key] = &entry{lastSeen: ts, order: r.nextOrder}
		r.nextOrder++
		return
	}
	if ts.After(existing.lastSeen) {
		existing.lastSeen = ts
	}
}

// RankedKeys returns conversation keys by descending last-message
// time, at most limit of them. Equal timestamps preserve insertion
// order. A non-positive limit means DefaultLimit.
func (r *Ranker) RankedKeys(limit int) []Key {
	if limit <= 0 {
		limit = DefaultLimit
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]Key, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := r.entries[keys[i]], r.entries[keys[j]]
		if !a.lastSeen.Equal(b.lastSeen) {
			return a.lastSeen.After(b.lastSeen)
		}
		return a.order < b.order
	})

	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}

// Timestamp returns the stored last-message time for a conversation,
// ok=false when the key is unknown.
func (r *Ranker) Timestamp(key Key) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.entries[key]
	if !ok {
		return time.Time{}, false
	}
	return existing.lastSeen, true
}

// Len reports the number of tracked conversations.
func (r *Ranker) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
