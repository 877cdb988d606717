package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDecodeSnapshots(t *testing.T) {
	raw := json.RawMessage(`[
		{"playbackContextURI":"spotify:album:1","playbackItemURI":"spotify:track:1","trackName":"Chapter 1","albumName":"Book","artistName":"Author","progress":60000,"duration":240000},
		{"PlaybackItemURI":"spotify:track:2","TrackName":"Chapter 2","Extra":true}
	]`)

	snapshots, err := DecodeSnapshots(raw)
	if err != nil {
		t.Fatalf("DecodeSnapshots() error = %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("len = %d, want 2", len(snapshots))
	}

	first := snapshots[0]
	if first.Slot != 0 {
		t.Errorf("Slot = %d, want 0", first.Slot)
	}
	if first.TrackName != "Chapter 1" {
		t.Errorf("TrackName = %q, want %q", first.TrackName, "Chapter 1")
	}
	if first.Progress() != time.Minute {
		t.Errorf("Progress() = %v, want 1m", first.Progress())
	}
	if first.Remaining() != 3*time.Minute {
		t.Errorf("Remaining() = %v, want 3m", first.Remaining())
	}
	if first.ProgressPercent() != 25 {
		t.Errorf("ProgressPercent() = %v, want 25", first.ProgressPercent())
	}

	second := snapshots[1]
	if second.Slot != 1 {
		t.Errorf("Slot = %d, want 1", second.Slot)
	}
	// Field names match case-insensitively.
	if second.TrackName != "Chapter 2" || second.PlaybackItemURI != "spotify:track:2" {
		t.Errorf("second = %+v", second)
	}
	if second.ProgressPercent() != 0 {
		t.Errorf("ProgressPercent() = %v without duration, want 0", second.ProgressPercent())
	}
	if string(second.Raw) == "" {
		t.Error("Raw not kept")
	}
}

func TestDecodeSnapshotsEmpty(t *testing.T) {
	for _, raw := range []json.RawMessage{nil, json.RawMessage("null"), json.RawMessage(" ")} {
		snapshots, err := DecodeSnapshots(raw)
		if err != nil {
			t.Errorf("DecodeSnapshots(%q) error = %v", raw, err)
		}
		if snapshots == nil || len(snapshots) != 0 {
			t.Errorf("DecodeSnapshots(%q) = %v, want empty list", raw, snapshots)
		}
	}
}

func TestDecodeSnapshotsInvalid(t *testing.T) {
	if _, err := DecodeSnapshots(json.RawMessage(`{"states":[]}`)); err == nil {
		t.Error("DecodeSnapshots() error = nil for an object")
	}
}

func TestFingerprint(t *testing.T) {
	a := Snapshot{PlaybackItemURI: "spotify:track:1", ProgressMS: 1000, Raw: json.RawMessage(`{"a":1}`)}
	b := Snapshot{PlaybackItemURI: "spotify:track:1", ProgressMS: 1000, Raw: json.RawMessage(`{"b":2}`)}
	c := Snapshot{PlaybackItemURI: "spotify:track:1", ProgressMS: 2000}

	ha, err := a.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	hb, _ := b.Fingerprint()
	hc, _ := c.Fingerprint()

	if ha != hb {
		t.Error("fingerprints differ although only Raw differs")
	}
	if ha == hc {
		t.Error("fingerprints equal although progress differs")
	}
}

func TestDecodeDevices(t *testing.T) {
	devices, err := DecodeDevices(json.RawMessage(`[{"id":"dev1","name":"Kitchen","active":true},{"id":"dev2","name":"Phone"}]`))
	if err != nil {
		t.Fatalf("DecodeDevices() error = %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("len = %d, want 2", len(devices))
	}
	if devices[0].ID != "dev1" || !devices[0].Active {
		t.Errorf("devices[0] = %+v", devices[0])
	}
	if devices[1].Active {
		t.Error("devices[1].Active = true, want false")
	}

	empty, err := DecodeDevices(nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("DecodeDevices(nil) = %v, %v", empty, err)
	}
}

func TestPickDevice(t *testing.T) {
	devices := []Device{
		{ID: "a", Name: "Laptop"},
		{ID: "b", Name: "Kitchen", Active: true},
		{ID: "c", Name: "Phone"},
	}

	tests := []struct {
		name      string
		devices   []Device
		preferred string
		wantID    string
		wantErr   error
	}{
		{"by id", devices, "c", "c", nil},
		{"by name", devices, "laptop", "a", nil},
		{"unknown falls back to active", devices, "tv", "b", nil},
		{"no preference uses active", devices, "", "b", nil},
		{"no active uses first", []Device{{ID: "x"}, {ID: "y"}}, "", "x", nil},
		{"none", nil, "", "", ErrNoDevice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PickDevice(tt.devices, tt.preferred)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("PickDevice() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.ID != tt.wantID {
				t.Errorf("PickDevice() = %q, want %q", got.ID, tt.wantID)
			}
		})
	}
}

func TestFindDevice(t *testing.T) {
	devices := []Device{
		{ID: "a", Name: "Laptop"},
		{ID: "Laptop", Name: "Other"},
	}

	if d := FindDevice(devices, "Laptop"); d == nil || d.ID != "Laptop" {
		t.Errorf("FindDevice() = %v, want ID match before name match", d)
	}
	if d := FindDevice(devices, "LAPTOP"); d == nil || d.ID != "a" {
		t.Errorf("FindDevice() = %v, want name match", d)
	}
	if d := FindDevice(devices, "tv"); d != nil {
		t.Errorf("FindDevice() = %v, want nil", d)
	}
	if d := FindDevice(devices, ""); d != nil {
		t.Errorf("FindDevice(\"\") = %v, want nil", d)
	}
}

func TestDecodeIdentity(t *testing.T) {
	id, err := DecodeIdentity(json.RawMessage(`{"userID":"u1","playerStates":[],"count":3}`))
	if err != nil {
		t.Fatalf("DecodeIdentity() error = %v", err)
	}

	keys := id.Keys()
	want := []string{"count", "playerStates", "userID"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}

	if id.String("userID") != "u1" {
		t.Errorf("String(userID) = %q", id.String("userID"))
	}
	if id.String("count") != "" {
		t.Error("String() returned a value for a number field")
	}
	if id.String("missing") != "" {
		t.Error("String() returned a value for a missing field")
	}

	empty, err := DecodeIdentity(nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("DecodeIdentity(nil) = %v, %v", empty, err)
	}
}
