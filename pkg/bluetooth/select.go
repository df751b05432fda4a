package bluetooth

import (
	"context"

	"github.com/srg/btfind/internal/device"
)

// DeviceChooser lets a user pick one device. A nil record means cancelled.
type DeviceChooser interface {
	ChooseDevice(devices []device.DeviceRecord) (*device.DeviceRecord, error)
}

// ServiceChooser lets a user pick one service. A nil record means cancelled.
type ServiceChooser interface {
	ChooseService(services []device.ServiceRecord) (*device.ServiceRecord, error)
}

// SelectDevice discovers nearby devices and lets chooser pick one.
// Returns nil, nil when the user cancels.
func (f *Finder) SelectDevice(ctx context.Context, chooser DeviceChooser) (*device.DeviceRecord, error) {
	devices, err := f.FindDevices(ctx, true, 0)
	if err != nil {
		return nil, err
	}
	choice, err := chooser.ChooseDevice(devices)
	if err != nil || choice == nil {
		return nil, err
	}
	f.closeIfConnected(choice.Address)
	return choice, nil
}

// SelectService discovers services of nearby devices and lets chooser pick one.
// Returns nil, nil when the user cancels.
func (f *Finder) SelectService(ctx context.Context, chooser ServiceChooser) (*device.ServiceRecord, error) {
	services, err := f.FindServices(ctx, ServiceQuery{})
	if err != nil {
		return nil, err
	}
	choice, err := chooser.ChooseService(services)
	if err != nil || choice == nil {
		return nil, err
	}
	f.closeIfConnected(choice.Address)
	return choice, nil
}

// closeIfConnected drops a baseband connection left open by discovery.
func (f *Finder) closeIfConnected(address string) {
	remote, err := f.host.DeviceWithAddress(address)
	if err != nil || !remote.IsConnected() {
		return
	}
	if err := remote.CloseConnection(); err != nil {
		f.logger.WithError(err).WithField("address", address).Debug("Failed to close connection")
	}
}
