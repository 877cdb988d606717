package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/tessro/cassette/internal/core"
	"github.com/tessro/cassette/internal/tail"
	"github.com/tessro/cassette/internal/tui/styles"
)

// Detail displays the selected slot.
type Detail struct{}

// NewDetail creates a new Detail component
func NewDetail() *Detail {
	return &Detail{}
}

// Render renders the detail panel
func (d *Detail) Render(snap *core.Snapshot, width, height int) string {
	title := styles.PanelTitle("Slot", false)

	var content string
	if snap == nil {
		content = styles.Muted.Render("Nothing selected")
	} else {
		content = d.renderSnapshot(snap, width-4)
	}

	panel := styles.Panel(false).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (d *Detail) renderSnapshot(snap *core.Snapshot, width int) string {
	name := snap.TrackName
	if name == "" {
		name = "(unknown)"
	}
	heading := styles.Title.Width(width).Render(fmt.Sprintf("📼 %d  %s", snap.Slot, name))

	progressWidth := width - 16 // Account for times on either side
	if progressWidth < 10 {
		progressWidth = 10
	}
	progress := fmt.Sprintf("%s %s %s",
		tail.FormatDuration(snap.Progress()),
		styles.ProgressBar(snap.ProgressPercent(), progressWidth),
		tail.FormatDuration(snap.Duration()))

	lines := []string{
		heading,
		"  " + styles.Subtitle.Render(snap.ArtistName),
		"  " + styles.Dim.Render(snap.AlbumName),
		"",
		progress,
	}
	if remaining := snap.Remaining(); remaining > 0 {
		lines = append(lines, styles.Muted.Render(tail.FormatDuration(remaining)+" left"))
	}
	if snap.PlaybackContextURI != "" {
		lines = append(lines, "", styles.Dim.Render(snap.PlaybackContextURI))
	}
	if len(snap.Raw) > 0 {
		lines = append(lines, styles.Dim.Render(humanize.Bytes(uint64(len(snap.Raw)))+" stored"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
