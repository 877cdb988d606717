package wizard

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/tessro/cassette/internal/core"
)

// Interactive decides whether pickers may be shown.
type Interactive struct {
	enabled bool
}

// NewInteractive creates a new interactive handler.
func NewInteractive() *Interactive {
	return &Interactive{
		enabled: true,
	}
}

// SetEnabled enables or disables interactive mode.
func (i *Interactive) SetEnabled(enabled bool) {
	i.enabled = enabled
}

// IsTerminal returns true if stdin and stdout are both terminals.
func IsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) && isatty.IsTerminal(os.Stdin.Fd())
}

// CanInteract returns true if interactive mode is available.
func (i *Interactive) CanInteract() bool {
	return i.enabled && IsTerminal()
}

// PromptDevice launches the device picker if interactive mode is available.
// Returns the selected device, or nil if cancelled or not interactive.
func (i *Interactive) PromptDevice(devices []core.Device) (*core.Device, error) {
	if !i.CanInteract() || len(devices) == 0 {
		return nil, nil
	}
	return RunDevicePicker(devices)
}

// PromptSlot launches the slot picker if interactive mode is available.
func (i *Interactive) PromptSlot(snapshots []core.Snapshot) (*core.Snapshot, error) {
	if !i.CanInteract() || len(snapshots) == 0 {
		return nil, nil
	}
	return RunSlotPicker(snapshots)
}

// NeedsDevice returns true if the user should be asked for a device: none
// was named and there is not exactly one active device.
func NeedsDevice(deviceFlag string, devices []core.Device) bool {
	if deviceFlag != "" {
		return false
	}
	return GetActiveDevice(devices) == nil
}

// GetActiveDevice returns the single active device if there is exactly one.
func GetActiveDevice(devices []core.Device) *core.Device {
	var active *core.Device
	count := 0
	for i := range devices {
		if devices[i].Active {
			active = &devices[i]
			count++
		}
	}
	if count == 1 {
		return active
	}
	return nil
}
