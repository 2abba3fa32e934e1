// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package presence implements the client half of the Hearth presence
// protocol: deciding whether the local user is active, reporting that
// to the server on a schedule, and tracking the status of everyone
// else as the server announces it.
//
// Monitor watches input and focus signals and runs the idle timeout.
// ComputeStatus collapses monitor state and the optional host idle
// probe into the two-value wire status. Reporter drives the report
// schedule and ingests responses into Store. Watchdog notices
// wall-clock jumps after a device suspend so consumers can abandon
// stale event queues and resynchronize.
//
// Everything is in-memory and process-lifetime: a restart rebuilds
// state from the next registration, nothing is persisted.
package presence
