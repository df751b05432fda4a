// Package goble holds testify mocks for the go-ble types the backend touches.
package goble

import (
	"context"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/mock"
)

// MockTransport mocks the Scan and Dial subset of ble.Device.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error {
	args := m.Called(ctx, allowDup, h)
	return args.Error(0)
}

func (m *MockTransport) Dial(ctx context.Context, a ble.Addr) (ble.Client, error) {
	args := m.Called(ctx, a)
	client, _ := args.Get(0).(ble.Client)
	return client, args.Error(1)
}

// Advertise returns a Run function that feeds advs to the scan handler and
// then blocks until the scan context ends.
func Advertise(advs ...ble.Advertisement) func(mock.Arguments) {
	return func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		h := args.Get(2).(ble.AdvHandler)
		for _, adv := range advs {
			h(adv)
		}
		<-ctx.Done()
	}
}

// MockAdvertisement implements the ble.Advertisement methods the backend reads.
// Calling any other method panics.
type MockAdvertisement struct {
	ble.Advertisement
	Name    string
	Address string
	Rssi    int
}

func (a *MockAdvertisement) LocalName() string { return a.Name }
func (a *MockAdvertisement) Addr() ble.Addr    { return ble.NewAddr(a.Address) }
func (a *MockAdvertisement) RSSI() int         { return a.Rssi }

// MockClient mocks the ble.Client methods the backend calls.
// Calling any other method panics.
type MockClient struct {
	ble.Client
	mock.Mock
}

func (c *MockClient) DiscoverProfile(force bool) (*ble.Profile, error) {
	args := c.Called(force)
	profile, _ := args.Get(0).(*ble.Profile)
	return profile, args.Error(1)
}

func (c *MockClient) CancelConnection() error {
	args := c.Called()
	return args.Error(0)
}
