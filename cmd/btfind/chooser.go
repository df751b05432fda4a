package main

import (
	"github.com/srg/btfind/internal/device"
	"github.com/srg/btfind/internal/picker"
)

// stoppingChooser clears the progress line before the menu is printed.
type stoppingChooser struct {
	stop   func()
	picker *picker.Picker
}

func (c *stoppingChooser) ChooseDevice(devices []device.DeviceRecord) (*device.DeviceRecord, error) {
	c.stop()
	return c.picker.ChooseDevice(devices)
}

func (c *stoppingChooser) ChooseService(services []device.ServiceRecord) (*device.ServiceRecord, error) {
	c.stop()
	return c.picker.ChooseService(services)
}
