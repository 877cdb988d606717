package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/cassette/internal/core"
	"github.com/tessro/cassette/internal/tui/styles"
)

// Devices displays the active playback devices. The selected device is
// the restore target.
type Devices struct {
	selected int
}

// NewDevices creates a new Devices component
func NewDevices() *Devices {
	return &Devices{}
}

// SelectNext selects the next device
func (d *Devices) SelectNext(count int) {
	if d.selected < count-1 {
		d.selected++
	}
}

// SelectPrev selects the previous device
func (d *Devices) SelectPrev() {
	if d.selected > 0 {
		d.selected--
	}
}

// Select moves the selection to the device matching preferred by ID or
// name. It reports whether one matched.
func (d *Devices) Select(devices []core.Device, preferred string) bool {
	for i := range devices {
		if devices[i].ID == preferred || strings.EqualFold(devices[i].Name, preferred) {
			d.selected = i
			return true
		}
	}
	return false
}

// Selected returns the selected device, or nil if there are none.
func (d *Devices) Selected(devices []core.Device) *core.Device {
	if len(devices) == 0 {
		return nil
	}
	d.clamp(len(devices))
	return &devices[d.selected]
}

func (d *Devices) clamp(count int) {
	if d.selected >= count {
		d.selected = count - 1
	}
	if d.selected < 0 {
		d.selected = 0
	}
}

// Render renders the devices panel
func (d *Devices) Render(devices []core.Device, width, height int, focused bool) string {
	title := styles.PanelTitle("Devices", focused)

	var content string
	if len(devices) == 0 {
		content = styles.Muted.Render("No active devices")
	} else {
		content = d.renderDevices(devices, height-4)
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

func (d *Devices) renderDevices(devices []core.Device, maxLines int) string {
	d.clamp(len(devices))

	lines := make([]string, 0, len(devices))
	for i, device := range devices {
		selector := "  "
		name := device.Name
		if i == d.selected {
			selector = "▸ "
			name = styles.Highlight.Render(name)
		}

		active := ""
		if device.Active {
			active = styles.Active.Render(" ●")
		}

		lines = append(lines, fmt.Sprintf("%s%s %s%s", selector, styles.DeviceIcon(device.Type), name, active))
		if len(lines) >= maxLines {
			break
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
