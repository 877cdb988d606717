package core

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoDevice is returned when no device is available for playback.
var ErrNoDevice = errors.New("no device available for playback")

// Device is an active playback device as reported by the service.
type Device struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Active bool   `json:"active"`
}

// DecodeDevices decodes an active-devices payload. Empty and null
// payloads decode to an empty list.
func DecodeDevices(raw json.RawMessage) ([]Device, error) {
	if isEmpty(raw) {
		return []Device{}, nil
	}
	var devices []Device
	if err := json.Unmarshal(raw, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// FindDevice returns the device whose ID equals preferred, or failing that
// whose name matches it case-insensitively. It returns nil if neither does.
func FindDevice(devices []Device, preferred string) *Device {
	if preferred == "" {
		return nil
	}
	for i := range devices {
		if devices[i].ID == preferred {
			return &devices[i]
		}
	}
	for i := range devices {
		if strings.EqualFold(devices[i].Name, preferred) {
			return &devices[i]
		}
	}
	return nil
}

// PickDevice chooses a playback target the same way the service does when
// no device is given: the preferred device if present (see FindDevice),
// otherwise the first active device, otherwise the first device.
func PickDevice(devices []Device, preferred string) (*Device, error) {
	if len(devices) == 0 {
		return nil, ErrNoDevice
	}

	if d := FindDevice(devices, preferred); d != nil {
		return d, nil
	}

	for i := range devices {
		if devices[i].Active {
			return &devices[i], nil
		}
	}
	return &devices[0], nil
}

func isEmpty(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}
