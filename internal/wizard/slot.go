package wizard

import (
	"fmt"

	"github.com/tessro/cassette/internal/core"
)

func newSlotModel(snapshots []core.Snapshot) pickerModel {
	items := make([]item, len(snapshots))
	for i, s := range snapshots {
		title := s.TrackName
		if title == "" {
			title = "(unknown)"
		}
		if s.ArtistName != "" {
			title = s.ArtistName + " - " + title
		}
		items[i] = item{
			title:  fmt.Sprintf("%d. %s", s.Slot, title),
			detail: fmt.Sprintf("%.0f%%", s.ProgressPercent()),
			active: s.ProgressMS > 0,
		}
	}
	m := newPickerModel("📼 Select Slot", items)
	m.empty = "No saved player states. Save one with `cassette states save`."
	m.legend = "● in progress  ○ not started"
	return m
}

// RunSlotPicker runs the slot picker and returns the selected snapshot, or
// nil if the user quit.
func RunSlotPicker(snapshots []core.Snapshot) (*core.Snapshot, error) {
	idx, err := run(newSlotModel(snapshots))
	if err != nil || idx < 0 {
		return nil, err
	}
	return &snapshots[idx], nil
}
