// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared channel assertions for tests of
// the engine's run loops.
//
// [RequireReceive], [RequireNoReceive], and [RequireClosed] wrap the
// select-with-timeout safety valve so individual tests do not plumb
// time.After themselves. The timeouts here are hang protection, not
// timing assertions — logical time in loop tests is driven through
// the clock package's fake.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since a failed assertion leaves nothing to recover.
package testutil
