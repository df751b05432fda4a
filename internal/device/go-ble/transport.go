package goble

import (
	"context"

	"github.com/go-ble/ble"
)

// Transport is the part of ble.Device the backend drives.
type Transport interface {
	Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error
	Dial(ctx context.Context, a ble.Addr) (ble.Client, error)
}

// DeviceFactory creates the platform transport (can be overridden in tests)
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = func() (Transport, error) {
	return newPlatformDevice()
}
