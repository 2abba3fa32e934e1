// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package presence

// Status is a user's presence state as reported to and received from
// the server.
type Status string

const (
	// StatusActive means the user has recent input or window focus.
	StatusActive Status = "active"

	// StatusIdle means the user has gone quiet: no qualifying
	// activity within the idle timeout, or the host reports the
	// whole session idle.
	StatusIdle Status = "idle"
)

// ProbeState is the answer from a host-level idle probe.
type ProbeState int

const (
	// ProbeUnsupported means the runtime has no idle probe. Treated
	// as "no override", never as "not idle".
	ProbeUnsupported ProbeState = iota

	// ProbeActive means the host considers the user present.
	ProbeActive

	// ProbeIdle means the host considers the user away regardless of
	// window state (locked screen, system-level idle detection).
	ProbeIdle
)

// IdleProbe reports whether the user is idle at the system level.
// Runtimes without such a facility inject Unsupported(); absence is a
// variant of the answer, not a nil check at the call site.
type IdleProbe interface {
	State() ProbeState
}

// ProbeFunc adapts a function to the IdleProbe interface.
type ProbeFunc func() ProbeState

// State implements IdleProbe.
func (f ProbeFunc) State() ProbeState { return f() }

// Unsupported returns the permanent no-probe IdleProbe.
func Unsupported() IdleProbe { return unsupportedProbe{} }

type unsupportedProbe struct{}

func (unsupportedProbe) State() ProbeState { return ProbeUnsupported }

// ComputeStatus maps the host probe state and local activity to a
// Status. A probe reporting idle wins unconditionally: the window may
// have focus on a desktop whose screen is locked. Without that
// override, local activity decides.
//
// Pure and side-effect free; callable at arbitrary frequency.
func ComputeStatus(probe ProbeState, locallyActive bool) Status {
	if probe == ProbeIdle {
		return StatusIdle
	}
	if locallyActive {
		return StatusActive
	}
	return StatusIdle
}
