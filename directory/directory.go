// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package directory maps user ids to profile information. The rest of
// the client only ever needs two facts about a user (display name and
// email), so the directory carries exactly those, populated from the
// registration snapshot and kept current by realm user events.
package directory

import (
	"sync"

	"github.com/hearth-chat/hearth/lib/ref"
)

// Person is one directory entry.
type Person struct {
	ID    ref.UserID
	Name  string
	Email string
}

// Directory resolves a user id to a Person. Lookups that miss return
// ok=false; callers fall back to rendering the raw id.
type Directory interface {
	Lookup(id ref.UserID) (Person, bool)
}

// Static is a map-backed Directory. Safe for concurrent use: the event
// loop upserts entries while the UI reads them.
type Static struct {
	mu     sync.RWMutex
	people map[ref.UserID]Person
}

// NewStatic builds a directory from an initial set of people.
func NewStatic(people ...Person) *Static {
	s := &Static{people: make(map[ref.UserID]Person, len(people))}
	for _, p := range people {
		s.people[p.ID] = p
	}
	return s
}

// Lookup implements Directory.
func (s *Static) Lookup(id ref.UserID) (Person, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.people[id]
	return p, ok
}

// Upsert inserts or replaces the entry for p.ID.
func (s *Static) Upsert(p Person) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.people[p.ID] = p
}

// Len reports the number of entries.
func (s *Static) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.people)
}
