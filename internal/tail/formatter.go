package tail

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
)

// Formatter formats events for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	template      *template.Template
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithTemplate sets a custom format template.
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if tmpl != "" {
			t, err := template.New("format").Parse(tmpl)
			if err == nil {
				f.template = t
			}
		}
	}
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		showEmoji:     true,
		showTimestamp: false,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats an event as a string.
func (f *Formatter) Format(e Event) string {
	if f.template != nil {
		return f.formatTemplate(e)
	}
	return f.formatLine(e)
}

// formatLine formats an event as a simple line.
func (f *Formatter) formatLine(e Event) string {
	var parts []string

	if f.showTimestamp {
		parts = append(parts, e.Timestamp.Format("15:04:05"))
	}

	if f.showEmoji {
		parts = append(parts, eventEmoji(e.Type))
	}

	parts = append(parts, f.eventDescription(e))

	return strings.Join(parts, " ")
}

// formatTemplate formats an event using a custom template.
func (f *Formatter) formatTemplate(e Event) string {
	data := templateData{
		Type:      e.Type.String(),
		Emoji:     eventEmoji(e.Type),
		Timestamp: e.Timestamp,
		Time:      e.Timestamp.Format("15:04:05"),
		Slot:      e.Slot,
		Count:     e.Count,
	}

	if s := e.Current; s != nil {
		data.Track = s.TrackName
		data.Artist = s.ArtistName
		data.Album = s.AlbumName
		data.Progress = FormatDuration(s.Progress())
	} else if s := e.Previous; s != nil {
		data.Track = s.TrackName
		data.Artist = s.ArtistName
		data.Album = s.AlbumName
		data.Progress = FormatDuration(s.Progress())
	}

	if e.Err != nil {
		data.Error = e.Err.Error()
	}

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		return f.formatLine(e)
	}
	return buf.String()
}

type templateData struct {
	Type      string
	Emoji     string
	Timestamp time.Time
	Time      string
	Slot      int
	Count     int
	Track     string
	Artist    string
	Album     string
	Progress  string
	Error     string
}

// eventDescription returns a human-readable description of the event.
func (f *Formatter) eventDescription(e Event) string {
	switch e.Type {
	case EventSnapshotList:
		return fmt.Sprintf("Watching %s", pluralSlots(e.Count))

	case EventSlotAdded:
		if e.Current != nil {
			return fmt.Sprintf("Slot %d saved: %s at %s", e.Slot, describe(e.Current.ArtistName, e.Current.TrackName), FormatDuration(e.Current.Progress()))
		}
		return fmt.Sprintf("Slot %d saved", e.Slot)

	case EventSlotRemoved:
		if e.Previous != nil {
			return fmt.Sprintf("Slot %d deleted: %s", e.Slot, describe(e.Previous.ArtistName, e.Previous.TrackName))
		}
		return fmt.Sprintf("Slot %d deleted", e.Slot)

	case EventSlotChanged:
		if e.Current != nil {
			return fmt.Sprintf("Slot %d updated: %s at %s", e.Slot, describe(e.Current.ArtistName, e.Current.TrackName), FormatDuration(e.Current.Progress()))
		}
		return fmt.Sprintf("Slot %d updated", e.Slot)

	case EventError:
		if e.Err != nil {
			return fmt.Sprintf("Error: %v", e.Err)
		}
		return "Error"

	default:
		return "Unknown event"
	}
}

func describe(artist, track string) string {
	switch {
	case artist != "" && track != "":
		return artist + " - " + track
	case track != "":
		return track
	default:
		return "(unknown)"
	}
}

func pluralSlots(n int) string {
	if n == 1 {
		return "1 slot"
	}
	return humanize.Comma(int64(n)) + " slots"
}

// FormatDuration formats a duration as m:ss or h:mm:ss.
func FormatDuration(d time.Duration) string {
	seconds := int(d / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// eventEmoji returns an emoji for the event type.
func eventEmoji(t EventType) string {
	switch t {
	case EventSnapshotList:
		return "📼"
	case EventSlotAdded:
		return "💾"
	case EventSlotRemoved:
		return "🗑️"
	case EventSlotChanged:
		return "✏️"
	case EventError:
		return "⚠️"
	default:
		return "❓"
	}
}

// String returns the event type's name as used in templates.
func (t EventType) String() string {
	switch t {
	case EventSnapshotList:
		return "list"
	case EventSlotAdded:
		return "slot_added"
	case EventSlotRemoved:
		return "slot_removed"
	case EventSlotChanged:
		return "slot_changed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}
