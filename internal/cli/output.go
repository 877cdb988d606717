package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/tessro/cassette/internal/core"
	"github.com/tessro/cassette/internal/tail"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
)

// printJSON writes v as indented JSON. Raw payloads are re-indented
// without being decoded, so the server's field order is kept.
func printJSON(w io.Writer, v any) error {
	if raw, ok := v.(json.RawMessage); ok {
		if len(bytes.TrimSpace(raw)) == 0 {
			raw = json.RawMessage("null")
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return fmt.Errorf("invalid JSON from server: %w", err)
		}
		buf.WriteByte('\n')
		_, err := w.Write(buf.Bytes())
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printSuccess prints a confirmation line, or a JSON status object.
func printSuccess(w io.Writer, message string, fields map[string]any) error {
	if JSONOutput() {
		out := map[string]any{"status": "ok"}
		for k, v := range fields {
			out[k] = v
		}
		return printJSON(w, out)
	}
	_, err := fmt.Fprintln(w, successStyle.Render("✓ ")+message)
	return err
}

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(header)
	t.SetStyle(table.StyleRounded)
	return t
}

func renderDevices(w io.Writer, devices []core.Device) {
	if len(devices) == 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("No active devices. Open Spotify on a device and try again."))
		return
	}

	t := newTable(w, table.Row{"Name", "Type", "Status", "Device ID"})
	for _, d := range devices {
		status := "Inactive"
		if d.Active {
			status = color.GreenString("● Active")
		}
		t.AppendRow(table.Row{
			color.New(color.Bold).Sprint(d.Name),
			d.Type,
			status,
			color.HiBlackString(d.ID),
		})
	}
	t.Render()
}

func renderSnapshots(w io.Writer, snapshots []core.Snapshot) {
	if len(snapshots) == 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("No saved player states. Save one with 'cassette states save'."))
		return
	}

	t := newTable(w, table.Row{"Slot", "Track", "Artist", "Album", "Position"})
	for _, s := range snapshots {
		t.AppendRow(table.Row{
			s.Slot,
			color.New(color.Bold).Sprint(TruncateString(orUnknown(s.TrackName), 40)),
			TruncateString(s.ArtistName, 30),
			TruncateString(s.AlbumName, 30),
			formatPosition(s),
		})
	}
	t.Render()
}

func formatPosition(s core.Snapshot) string {
	if s.DurationMS <= 0 {
		return tail.FormatDuration(s.Progress())
	}
	return fmt.Sprintf("%s / %s %s",
		tail.FormatDuration(s.Progress()),
		tail.FormatDuration(s.Duration()),
		FormatProgress(s.ProgressMS, s.DurationMS, 10))
}

func orUnknown(s string) string {
	if s == "" {
		return "(unknown)"
	}
	return s
}

// StatusIcon returns an icon for the given boolean status.
func StatusIcon(active bool) string {
	if active {
		return "●"
	}
	return "○"
}

// TruncateString truncates a string to maxLen runes, adding "..." if
// truncated.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// FormatProgress formats a progress bar.
func FormatProgress(current, total int, width int) string {
	if total <= 0 {
		return strings.Repeat("─", width)
	}

	percent := float64(current) / float64(total)
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}
