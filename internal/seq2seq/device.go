package seq2seq

import (
	"fmt"
	"strings"
)

// Device names the compute device a model is bound to.
type Device string

const (
	DeviceCPU  Device = "cpu"
	DeviceCUDA Device = "cuda"
	DeviceMPS  Device = "mps"
)

// ParseDevice accepts cpu, cuda and mps (case-insensitive). Empty means cpu.
func ParseDevice(s string) (Device, error) {
	switch d := Device(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DeviceCPU, nil
	case DeviceCPU, DeviceCUDA, DeviceMPS:
		return d, nil
	default:
		return "", fmt.Errorf("unsupported device %q", s)
	}
}

func (d Device) String() string { return string(d) }
