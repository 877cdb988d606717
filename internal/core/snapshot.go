package core

import (
	"encoding/json"
	"time"

	"github.com/mitchellh/hashstructure/v2"
)

// Snapshot is a decoded view of one stored player state. The service owns
// the format; fields it does not send stay zero and extra fields are
// ignored.
type Snapshot struct {
	Slot               int             `json:"-"`
	PlaybackContextURI string          `json:"playbackContextURI"`
	PlaybackItemURI    string          `json:"playbackItemURI"`
	TrackName          string          `json:"trackName"`
	AlbumName          string          `json:"albumName"`
	AlbumArtLink       string          `json:"albumArtLink"`
	ArtistName         string          `json:"artistName"`
	ProgressMS         int             `json:"progress"`
	DurationMS         int             `json:"duration"`
	Raw                json.RawMessage `json:"-" hash:"ignore"`
}

// DecodeSnapshots decodes the unwrapped player-states list. Slots are
// numbered by position, which is how the service addresses them.
func DecodeSnapshots(raw json.RawMessage) ([]Snapshot, error) {
	if isEmpty(raw) {
		return []Snapshot{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	snapshots := make([]Snapshot, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &snapshots[i]); err != nil {
			return nil, err
		}
		snapshots[i].Slot = i
		snapshots[i].Raw = item
	}
	return snapshots, nil
}

// Progress returns the saved playback position.
func (s *Snapshot) Progress() time.Duration {
	return time.Duration(s.ProgressMS) * time.Millisecond
}

// Duration returns the length of the saved item.
func (s *Snapshot) Duration() time.Duration {
	return time.Duration(s.DurationMS) * time.Millisecond
}

// Remaining returns how much of the item is left after the saved position.
func (s *Snapshot) Remaining() time.Duration {
	if s.DurationMS <= s.ProgressMS {
		return 0
	}
	return s.Duration() - s.Progress()
}

// ProgressPercent returns the saved position as a percentage (0-100).
func (s *Snapshot) ProgressPercent() float64 {
	if s == nil || s.DurationMS == 0 {
		return 0
	}
	return float64(s.ProgressMS) / float64(s.DurationMS) * 100
}

// Fingerprint hashes the decoded fields. Two snapshots with equal
// fingerprints show the same item at the same position.
func (s *Snapshot) Fingerprint() (uint64, error) {
	return hashstructure.Hash(s, hashstructure.FormatV2, nil)
}
