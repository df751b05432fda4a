package goble

import (
	"strings"
	"sync"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"
	"github.com/srg/btfind/internal/device"
)

// Host implements device.Host on a go-ble transport.
//
// Device handles are cached by address, so names and services learned by one
// inquiry or query are visible to later lookups.
type Host struct {
	logger  *logrus.Logger
	devices *hashmap.Map[string, *RemoteDevice]

	mu        sync.Mutex
	transport Transport
}

// NewHost creates a host. The transport is opened on first use.
func NewHost(logger *logrus.Logger) (*Host, error) {
	if logger == nil {
		logger = logrus.New()
	}
	return &Host{
		logger:  logger,
		devices: hashmap.New[string, *RemoteDevice](),
	}, nil
}

// getTransport opens the platform transport once.
func (h *Host) getTransport() (Transport, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.transport != nil {
		return h.transport, nil
	}
	t, err := DeviceFactory()
	if err != nil {
		return nil, device.NormalizeError(err)
	}
	h.transport = t
	return t, nil
}

func (h *Host) NewInquiry() (device.Inquiry, error) {
	return newInquiry(h), nil
}

// DeviceWithAddress returns the cached handle for address or creates one.
// Addresses are MACs on linux and CoreBluetooth UUIDs on darwin.
func (h *Host) DeviceWithAddress(address string) (device.RemoteDevice, error) {
	if strings.TrimSpace(address) == "" {
		return nil, device.ErrUnknownDevice
	}
	return h.remember(address, ""), nil
}

// remember returns the cached handle for address, recording name when non-empty.
func (h *Host) remember(address, name string) *RemoteDevice {
	key := device.FormatAddress(address)
	dev, _ := h.devices.GetOrInsert(key, newRemoteDevice(h, key))
	if name != "" {
		dev.setName(name)
	}
	return dev
}

// KnownDevices returns the number of cached device handles.
func (h *Host) KnownDevices() int {
	return h.devices.Len()
}
