// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// UserID is a validated Hearth account identifier (e.g., "u_3fa9" or
// "ada@example.com" — the server chooses the shape, this type only
// enforces what the client relies on).
//
// Two structural rules matter client-side: an ID never contains a
// comma, because conversation keys are comma-joined ID lists, and it
// never contains whitespace, so IDs survive logging and flag parsing
// unquoted. Anything else the server issues is accepted verbatim.
//
// UserID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type UserID struct {
	id string
}

// ParseUserID validates and wraps a raw account identifier. Returns
// an error if the string is empty or contains a comma or whitespace.
func ParseUserID(raw string) (UserID, error) {
	if raw == "" {
		return UserID{}, fmt.Errorf("user ID is empty")
	}
	if strings.ContainsRune(raw, ',') {
		return UserID{}, fmt.Errorf("user ID %q contains a comma", raw)
	}
	if strings.ContainsAny(raw, " \t\n\r") {
		return UserID{}, fmt.Errorf("user ID %q contains whitespace", raw)
	}
	return UserID{id: raw}, nil
}

// String returns the raw identifier string.
func (u UserID) String() string { return u.id }

// IsZero reports whether the UserID is the zero value (uninitialized).
func (u UserID) IsZero() bool { return u.id == "" }

// Less orders IDs lexicographically; conversation keys and stable
// roster ordering both depend on this being total and deterministic.
func (u UserID) Less(other UserID) bool { return u.id < other.id }

// MarshalText implements encoding.TextMarshaler for JSON and other
// text-based serialization formats.
func (u UserID) MarshalText() ([]byte, error) {
	if u.id == "" {
		return []byte{}, nil
	}
	return []byte(u.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for JSON and other
// text-based serialization formats. Validates the identifier. An empty
// input produces the zero value (unset user ID).
func (u *UserID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*u = UserID{}
		return nil
	}
	parsed, err := ParseUserID(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
