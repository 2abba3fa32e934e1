// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O utilities for Hearth.
//
// ReadResponse bounds body reads at MaxResponseSize to prevent unbounded
// memory allocation from a misbehaving server. It is for JSON API responses
// (presence reports, event queue registration, event polls), not for
// streaming transfers, which should be read incrementally with io.Copy.
//
// IsExpectedCloseError classifies errors from connections torn down mid-read,
// which long-poll requests produce routinely.
package netutil

import (
	"io"
)

// MaxResponseSize is the bound on JSON API response body reads: 64 MB. A
// full presence snapshot for a large realm runs to a few megabytes; the
// limit is generous enough to never interfere with normal operation while
// keeping a pathological response from exhausting memory.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads a JSON API response body up to MaxResponseSize bytes.
// Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}
