// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package presence

import "testing"

func TestComputeStatus(t *testing.T) {
	tests := []struct {
		name   string
		probe  ProbeState
		active bool
		want   Status
	}{
		{"probe idle overrides local active", ProbeIdle, true, StatusIdle},
		{"probe idle with local inactive", ProbeIdle, false, StatusIdle},
		{"probe active defers to local active", ProbeActive, true, StatusActive},
		{"probe active defers to local inactive", ProbeActive, false, StatusIdle},
		{"no probe with local active", ProbeUnsupported, true, StatusActive},
		{"no probe with local inactive", ProbeUnsupported, false, StatusIdle},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := ComputeStatus(test.probe, test.active)
			if got != test.want {
				t.Errorf("ComputeStatus(%v, %v) = %q, want %q",
					test.probe, test.active, got, test.want)
			}
		})
	}
}

func TestProbeFunc(t *testing.T) {
	calls := 0
	probe := ProbeFunc(func() ProbeState {
		calls++
		return ProbeIdle
	})
	if got := probe.State(); got != ProbeIdle {
		t.Errorf("State() = %v, want ProbeIdle", got)
	}
	if calls != 1 {
		t.Errorf("probe called %d times, want 1", calls)
	}
}

func TestUnsupportedProbe(t *testing.T) {
	if got := Unsupported().State(); got != ProbeUnsupported {
		t.Errorf("Unsupported().State() = %v, want ProbeUnsupported", got)
	}
}
