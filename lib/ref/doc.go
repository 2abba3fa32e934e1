// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable identity references.
// A UserID is a validated value type wrapping the server-issued
// account identifier; constructing one through ParseUserID is the only
// way to get a non-zero value, so any UserID held by the rest of the
// codebase is known to be structurally sound.
//
// JSON marshaling uses the raw identifier via encoding.TextMarshaler,
// which lets wire types use UserID directly as struct fields and map
// keys.
package ref
