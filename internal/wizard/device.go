package wizard

import (
	"github.com/tessro/cassette/internal/core"
)

func newDeviceModel(devices []core.Device) pickerModel {
	items := make([]item, len(devices))
	for i, d := range devices {
		detail := d.ID
		if d.Type != "" {
			detail = d.Type + ", " + d.ID
		}
		items[i] = item{title: d.Name, detail: "(" + detail + ")", active: d.Active}
	}
	m := newPickerModel("🔈 Select Device", items)
	m.empty = "No active devices. Open Spotify on a device and try again."
	m.legend = "● active  ○ inactive"
	return m
}

// RunDevicePicker runs the device picker and returns the selected device,
// or nil if the user quit.
func RunDevicePicker(devices []core.Device) (*core.Device, error) {
	idx, err := run(newDeviceModel(devices))
	if err != nil || idx < 0 {
		return nil, err
	}
	return &devices[idx], nil
}
