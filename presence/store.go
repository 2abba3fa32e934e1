// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package presence

import (
	"sync"
	"time"

	"github.com/hearth-chat/hearth/lib/ref"
)

// Record is one user's presence as known to the client, including the
// server clock reading that accompanied it.
type Record struct {
	UserID     ref.UserID
	Status     Status
	ServerTime time.Time
}

// Store holds the presence record for every known user, the local one
// included. Only the sync paths write it: ReplaceAll on full
// responses, Apply on discrete push events. Readers get copies.
//
// Safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	records    map[ref.UserID]Record
	serverTime time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{records: make(map[ref.UserID]Record)}
}

// ReplaceAll swaps in a full presence snapshot. Unconditional: a full
// response is the server's authoritative word, whatever the
// timestamps inside say.
func (s *Store) ReplaceAll(records []Record, serverTime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[ref.UserID]Record, len(records))
	for _, record := range records {
		s.records[record.UserID] = record
	}
	s.serverTime = serverTime
}

// Apply updates a single user's record from a discrete push event,
// leaving every other record untouched. A stale push (server time not
// after the stored record's) is ignored and reported as false so
// out-of-order delivery cannot regress anyone's status.
func (s *Store) Apply(userID ref.UserID, status Status, serverTime time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[userID]; ok && !serverTime.After(existing.ServerTime) {
		return false
	}
	s.records[userID] = Record{UserID: userID, Status: status, ServerTime: serverTime}
	return true
}

// Get returns the record for userID, ok=false when unknown.
func (s *Store) Get(userID ref.UserID) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[userID]
	return record, ok
}

// All returns a copy of every record, in no particular order.
func (s *Store) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	return records
}

// Len reports the number of known users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// ServerTime returns the server clock reading of the last full sync,
// zero before the first one. Used to detect skew between client and
// server clocks.
func (s *Store) ServerTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverTime
}
