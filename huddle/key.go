// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package huddle

import (
	"sort"
	"strings"

	"github.com/hearth-chat/hearth/lib/ref"
)

// Key canonically identifies a group conversation: the sorted,
// comma-joined ids of every participant except the local user. Any
// permutation of the same set produces the same key, so messages
// about one conversation always land on one ranking entry.
type Key string

// KeyFor derives the key for a message's participant set. The local
// user is dropped and duplicates collapse. ok=false when fewer than
// two other participants remain — a one-on-one conversation is not a
// huddle.
func KeyFor(self ref.UserID, participants []ref.UserID) (Key, bool) {
	others := make([]string, 0, len(participants))
	for _, id := range participants {
		if id == self || id.IsZero() {
			continue
		}
		others = append(others, id.String())
	}
	sort.Strings(others)

	unique := others[:0]
	for _, id := range others {
		if len(unique) == 0 || unique[len(unique)-1] != id {
			unique = append(unique, id)
		}
	}
	if len(unique) < 2 {
		return "", false
	}
	return Key(strings.Join(unique, ",")), true
}

// UserIDs splits the key back into its participant ids. Malformed
// segments are skipped; keys built by KeyFor always round-trip.
func (k Key) UserIDs() []ref.UserID {
	if k == "" {
		return nil
	}
	parts := strings.Split(string(k), ",")
	ids := make([]ref.UserID, 0, len(parts))
	for _, part := range parts {
		id, err := ref.ParseUserID(part)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
