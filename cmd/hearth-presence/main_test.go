// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hearth-chat/hearth/lib/ref"
	"github.com/hearth-chat/hearth/presence"
)

var outputEpoch = time.Date(2026, time.March, 1, 17, 0, 0, 0, time.UTC)

func mustUserID(t *testing.T, raw string) ref.UserID {
	t.Helper()
	id, err := ref.ParseUserID(raw)
	if err != nil {
		t.Fatalf("ParseUserID(%q): %v", raw, err)
	}
	return id
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    presence.Status
		wantErr bool
	}{
		{name: "active", value: "active", want: presence.StatusActive},
		{name: "idle", value: "idle", want: presence.StatusIdle},
		{name: "empty", value: "", wantErr: true},
		{name: "unknown", value: "away", wantErr: true},
		{name: "wrong case", value: "Active", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := parseStatus(test.value)
			if test.wantErr {
				if err == nil {
					t.Fatalf("parseStatus(%q) = %q, want error", test.value, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseStatus(%q): %v", test.value, err)
			}
			if got != test.want {
				t.Errorf("parseStatus(%q) = %q, want %q", test.value, got, test.want)
			}
		})
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		name string
		then time.Time
		want string
	}{
		{name: "zero time", then: time.Time{}, want: "-"},
		{name: "just now", then: outputEpoch.Add(-10 * time.Second), want: "now"},
		{name: "minutes", then: outputEpoch.Add(-5 * time.Minute), want: "5m ago"},
		{name: "hours", then: outputEpoch.Add(-3 * time.Hour), want: "3h ago"},
		{name: "days", then: outputEpoch.Add(-50 * time.Hour), want: "2d ago"},
		{name: "future timestamp clamps", then: outputEpoch.Add(time.Minute), want: "now"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := formatAge(outputEpoch, test.then); got != test.want {
				t.Errorf("formatAge() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestSortRecords(t *testing.T) {
	records := []presence.Record{
		{UserID: mustUserID(t, "old-idle"), Status: presence.StatusIdle, ServerTime: outputEpoch.Add(-time.Hour)},
		{UserID: mustUserID(t, "stale-active"), Status: presence.StatusActive, ServerTime: outputEpoch.Add(-10 * time.Minute)},
		{UserID: mustUserID(t, "fresh-idle"), Status: presence.StatusIdle, ServerTime: outputEpoch.Add(-2 * time.Minute)},
		{UserID: mustUserID(t, "fresh-active"), Status: presence.StatusActive, ServerTime: outputEpoch},
	}

	sortRecords(records)

	var order []string
	for _, record := range records {
		order = append(order, record.UserID.String())
	}
	got := strings.Join(order, ",")
	want := "fresh-active,stale-active,fresh-idle,old-idle"
	if got != want {
		t.Errorf("sorted order = %s, want %s", got, want)
	}
}

func TestSortRecordsTiesBreakOnID(t *testing.T) {
	records := []presence.Record{
		{UserID: mustUserID(t, "beta"), Status: presence.StatusActive, ServerTime: outputEpoch},
		{UserID: mustUserID(t, "alpha"), Status: presence.StatusActive, ServerTime: outputEpoch},
	}

	sortRecords(records)

	if records[0].UserID.String() != "alpha" {
		t.Errorf("first record = %s, want alpha", records[0].UserID)
	}
}

func TestPrintRosterColumns(t *testing.T) {
	snapshot := &presence.Snapshot{
		ServerTime: outputEpoch,
		Presences: []presence.Record{
			{UserID: mustUserID(t, "ada"), Status: presence.StatusActive, ServerTime: outputEpoch.Add(-30 * time.Second)},
			{UserID: mustUserID(t, "grace"), Status: presence.StatusIdle, ServerTime: outputEpoch.Add(-12 * time.Minute)},
		},
	}

	var buffer bytes.Buffer
	if err := printRoster(&buffer, snapshot); err != nil {
		t.Fatalf("printRoster: %v", err)
	}
	output := buffer.String()

	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("printed %d lines, want 3 (header plus two rows):\n%s", len(lines), output)
	}
	if !strings.Contains(lines[0], "USER") || !strings.Contains(lines[0], "STATUS") || !strings.Contains(lines[0], "LAST ACTIVE") {
		t.Errorf("header missing columns: %q", lines[0])
	}
	if !strings.Contains(lines[1], "ada") || !strings.Contains(lines[1], "active") || !strings.Contains(lines[1], "now") {
		t.Errorf("first row = %q, want ada / active / now", lines[1])
	}
	if !strings.Contains(lines[2], "grace") || !strings.Contains(lines[2], "idle") || !strings.Contains(lines[2], "12m ago") {
		t.Errorf("second row = %q, want grace / idle / 12m ago", lines[2])
	}
}

func TestWriteJSONShape(t *testing.T) {
	mirrorDown := false
	snapshot := &presence.Snapshot{
		ServerTime:   outputEpoch,
		MirrorActive: &mirrorDown,
		Presences: []presence.Record{
			{UserID: mustUserID(t, "ada"), Status: presence.StatusActive, ServerTime: outputEpoch.Add(-time.Minute)},
		},
	}

	var buffer bytes.Buffer
	if err := writeJSON(&buffer, snapshot); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}

	var decoded struct {
		ServerTime   time.Time `json:"server_time"`
		MirrorActive *bool     `json:"mirror_active"`
		Presences    []struct {
			UserID     string    `json:"user_id"`
			Status     string    `json:"status"`
			LastActive time.Time `json:"last_active"`
		} `json:"presences"`
	}
	if err := json.Unmarshal(buffer.Bytes(), &decoded); err != nil {
		t.Fatalf("decoding output: %v", err)
	}

	if !decoded.ServerTime.Equal(outputEpoch) {
		t.Errorf("server_time = %v, want %v", decoded.ServerTime, outputEpoch)
	}
	if decoded.MirrorActive == nil || *decoded.MirrorActive {
		t.Errorf("mirror_active = %v, want false", decoded.MirrorActive)
	}
	if len(decoded.Presences) != 1 {
		t.Fatalf("presences length = %d, want 1", len(decoded.Presences))
	}
	if decoded.Presences[0].UserID != "ada" {
		t.Errorf("user_id = %q, want ada", decoded.Presences[0].UserID)
	}
	if decoded.Presences[0].Status != "active" {
		t.Errorf("status = %q, want active", decoded.Presences[0].Status)
	}
}

// An empty roster still serializes as an array so downstream jq
// pipelines never see null.
func TestWriteJSONEmptyPresences(t *testing.T) {
	var buffer bytes.Buffer
	if err := writeJSON(&buffer, &presence.Snapshot{ServerTime: outputEpoch}); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}

	var decoded struct {
		Presences json.RawMessage `json:"presences"`
	}
	if err := json.Unmarshal(buffer.Bytes(), &decoded); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if string(decoded.Presences) == "null" {
		t.Error("presences serialized as null, want []")
	}
}
