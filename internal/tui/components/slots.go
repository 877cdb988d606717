package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/cassette/internal/core"
	"github.com/tessro/cassette/internal/tui/styles"
)

// Slots displays the saved player states as a scrolling list.
type Slots struct {
	offset   int
	selected int
}

// NewSlots creates a new Slots component
func NewSlots() *Slots {
	return &Slots{}
}

// SelectNext selects the next slot
func (s *Slots) SelectNext(count int) {
	if s.selected < count-1 {
		s.selected++
	}
}

// SelectPrev selects the previous slot
func (s *Slots) SelectPrev() {
	if s.selected > 0 {
		s.selected--
	}
}

// Selected returns the selected snapshot, or nil if the list is empty.
func (s *Slots) Selected(snapshots []core.Snapshot) *core.Snapshot {
	if len(snapshots) == 0 {
		return nil
	}
	if s.selected >= len(snapshots) {
		s.selected = len(snapshots) - 1
	}
	return &snapshots[s.selected]
}

// Render renders the slots panel. marked is the slot awaiting delete
// confirmation, or -1.
func (s *Slots) Render(snapshots []core.Snapshot, width, height int, focused bool, marked int) string {
	title := styles.PanelTitle(fmt.Sprintf("Slots (%d)", len(snapshots)), focused)

	var content string
	if len(snapshots) == 0 {
		content = styles.Muted.Render("No saved states. Press s to save what is playing.")
	} else {
		content = s.renderSlots(snapshots, width-4, height-4, marked)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (s *Slots) renderSlots(snapshots []core.Snapshot, width, maxLines, marked int) string {
	if s.selected >= len(snapshots) {
		s.selected = len(snapshots) - 1
	}

	visible := maxLines - 1 // Leave room for "more" indicator
	if visible < 1 {
		visible = 1
	}

	// Keep the selection on screen
	if s.selected < s.offset {
		s.offset = s.selected
	}
	if s.selected >= s.offset+visible {
		s.offset = s.selected - visible + 1
	}

	end := s.offset + visible
	if end > len(snapshots) {
		end = len(snapshots)
	}

	lines := make([]string, 0, visible+1)
	for i := s.offset; i < end; i++ {
		snap := snapshots[i]

		label := snap.TrackName
		if label == "" {
			label = "(unknown)"
		}
		if snap.ArtistName != "" {
			label = snap.ArtistName + " - " + label
		}
		label = truncate(label, width-8)

		line := fmt.Sprintf("%2d  %s", snap.Slot, label)
		switch {
		case snap.Slot == marked:
			line = styles.Danger.Render("✗ " + line)
		case i == s.selected:
			line = styles.Highlight.Render("▸ " + line)
		default:
			line = "  " + line
		}
		lines = append(lines, line)
	}

	if remaining := len(snapshots) - end; remaining > 0 {
		lines = append(lines, styles.Dim.Render(fmt.Sprintf("  ...and %d more", remaining)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max < 4 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
