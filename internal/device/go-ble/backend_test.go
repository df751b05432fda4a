package goble

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/srg/btfind/internal/device"
	blemocks "github.com/srg/btfind/internal/testutils/mocks/goble"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type BackendTestSuite struct {
	suite.Suite

	transport       *blemocks.MockTransport
	logger          *logrus.Logger
	hook            *logtest.Hook
	host            *Host
	originalFactory func() (Transport, error)
}

func (s *BackendTestSuite) SetupTest() {
	s.transport = &blemocks.MockTransport{}
	s.logger, s.hook = logtest.NewNullLogger()
	s.logger.SetLevel(logrus.DebugLevel)

	s.originalFactory = DeviceFactory
	DeviceFactory = func() (Transport, error) { return s.transport, nil }

	host, err := NewHost(s.logger)
	s.Require().NoError(err)
	s.host = host
}

func (s *BackendTestSuite) TearDownTest() {
	DeviceFactory = s.originalFactory
}

func adv(addr, name string) *blemocks.MockAdvertisement {
	return &blemocks.MockAdvertisement{Address: addr, Name: name, Rssi: -50}
}

type inquiryResult struct {
	status  device.Status
	aborted bool
}

func (s *BackendTestSuite) startInquiry(length time.Duration, updateNames bool) (device.Inquiry, <-chan inquiryResult) {
	inq, err := s.host.NewInquiry()
	s.Require().NoError(err)
	inq.SetLength(length)
	inq.SetUpdateNames(updateNames)

	done := make(chan inquiryResult, 1)
	status := inq.Start(func(status device.Status, aborted bool) {
		done <- inquiryResult{status, aborted}
	})
	s.Require().Equal(device.StatusSuccess, status, "inquiry MUST start")
	return inq, done
}

func (s *BackendTestSuite) waitInquiry(done <-chan inquiryResult) inquiryResult {
	select {
	case r := <-done:
		return r
	case <-time.After(2 * time.Second):
		s.FailNow("inquiry MUST complete")
		return inquiryResult{}
	}
}

func (s *BackendTestSuite) TestInquiryReportsDevicesInDiscoveryOrder() {
	// GOAL: Verify found devices are deduplicated and keep first-seen order
	//
	// TEST SCENARIO: Scan reports B, A, B again → two devices B then A, success, not aborted

	s.transport.On("Scan", mock.Anything, false, mock.Anything).
		Run(blemocks.Advertise(
			adv("aa:bb:cc:dd:ee:02", "Second"),
			adv("aa:bb:cc:dd:ee:01", ""),
			adv("aa:bb:cc:dd:ee:02", "Second"),
		)).
		Return(context.DeadlineExceeded)

	inq, done := s.startInquiry(50*time.Millisecond, false)
	r := s.waitInquiry(done)

	s.Equal(device.StatusSuccess, r.status)
	s.False(r.aborted)

	found := inq.FoundDevices()
	s.Require().Len(found, 2)
	s.Equal("AA:BB:CC:DD:EE:02", found[0].Address(), "first-seen device MUST come first")
	s.Equal("Second", found[0].Name())
	s.Equal("AA:BB:CC:DD:EE:01", found[1].Address())
	s.Equal(2, s.host.KnownDevices(), "found devices MUST be cached on the host")
}

func (s *BackendTestSuite) TestInquiryWithoutDevicesReportsNoDevicesFound() {
	// GOAL: Verify an empty scan completes with the no-devices status
	//
	// TEST SCENARIO: Scan sees nothing → StatusNoDevicesFound

	s.transport.On("Scan", mock.Anything, true, mock.Anything).
		Run(blemocks.Advertise()).
		Return(nil)

	_, done := s.startInquiry(20*time.Millisecond, true)
	r := s.waitInquiry(done)

	s.Equal(device.StatusNoDevicesFound, r.status)
	s.transport.AssertExpectations(s.T())
}

func (s *BackendTestSuite) TestInquiryStopReportsAborted() {
	// GOAL: Verify Stop cancels the scan and the completion reports aborted
	//
	// TEST SCENARIO: Long inquiry with one device, Stop → success, aborted

	s.transport.On("Scan", mock.Anything, false, mock.Anything).
		Run(blemocks.Advertise(adv("aa:bb:cc:dd:ee:01", "One"))).
		Return(context.Canceled)

	inq, done := s.startInquiry(time.Minute, false)
	s.Eventually(func() bool { return len(inq.FoundDevices()) == 1 }, time.Second, 5*time.Millisecond)

	s.Equal(device.StatusSuccess, inq.Stop())
	r := s.waitInquiry(done)

	s.Equal(device.StatusSuccess, r.status)
	s.True(r.aborted, "stopped inquiry MUST report aborted")
}

func (s *BackendTestSuite) TestInquiryStartWhileRunningIsBusy() {
	// GOAL: Verify an inquiry object cannot be started twice concurrently

	s.transport.On("Scan", mock.Anything, false, mock.Anything).
		Run(blemocks.Advertise()).
		Return(context.Canceled)

	inq, done := s.startInquiry(time.Minute, false)
	s.Equal(device.StatusBusy, inq.Start(func(device.Status, bool) {}))

	inq.Stop()
	s.waitInquiry(done)
}

func (s *BackendTestSuite) TestInquiryScanFailureMapsStatus() {
	// GOAL: Verify scan errors are mapped to native statuses
	//
	// TEST SCENARIO: Scan fails with "bluetooth is turned off" → StatusNotReady

	s.transport.On("Scan", mock.Anything, false, mock.Anything).
		Return(errors.New("central manager has invalid state: have=4 want=5: is Bluetooth turned on?"))

	_, done := s.startInquiry(time.Second, false)
	r := s.waitInquiry(done)

	s.Equal(device.StatusNotReady, r.status)
}

func (s *BackendTestSuite) TestTransportFailurePreventsStart() {
	// GOAL: Verify a transport that cannot be opened fails the start synchronously

	DeviceFactory = func() (Transport, error) { return nil, errors.New("bluetooth is turned off") }

	inq, err := s.host.NewInquiry()
	s.Require().NoError(err)
	s.Equal(device.StatusNotReady, inq.Start(func(device.Status, bool) {
		s.Fail("completion MUST NOT fire when start fails")
	}))
}

func (s *BackendTestSuite) TestDeviceWithAddressCachesHandles() {
	a, err := s.host.DeviceWithAddress("aa-bb-cc-dd-ee-ff")
	s.Require().NoError(err)
	b, err := s.host.DeviceWithAddress("AA:BB:CC:DD:EE:FF")
	s.Require().NoError(err)

	s.Same(a, b, "equivalent addresses MUST resolve to the same handle")
	s.Equal("AA:BB:CC:DD:EE:FF", a.Address())
	s.Equal("AA:BB:CC:DD:EE:FF", a.NameOrAddress())

	_, err = s.host.DeviceWithAddress("  ")
	s.ErrorIs(err, device.ErrUnknownDevice)
}

func (s *BackendTestSuite) TestServiceQueryBuildsRecordsFromProfile() {
	// GOAL: Verify a service query turns the GATT profile into service records
	//
	// TEST SCENARIO: Profile with Heart Rate and a vendor service → two records,
	// known name resolved, no channel, connection left open until closed

	client := &blemocks.MockClient{}
	client.On("DiscoverProfile", true).Return(&ble.Profile{Services: []*ble.Service{
		{UUID: ble.UUID16(0x180d)},
		{UUID: ble.MustParse("6e400001-b5a3-f393-e0a9-e50e24dcca9e")},
	}}, nil)
	client.On("CancelConnection").Return(nil).Once()
	s.transport.On("Dial", mock.Anything, mock.Anything).Return(client, nil).Once()

	remote, err := s.host.DeviceWithAddress("AA:BB:CC:DD:EE:FF")
	s.Require().NoError(err)
	s.True(remote.LastServicesUpdate().IsZero())

	done := make(chan device.Status, 1)
	s.Require().Equal(device.StatusSuccess, remote.PerformSDPQuery(func(st device.Status) { done <- st }))

	select {
	case st := <-done:
		s.Equal(device.StatusSuccess, st)
	case <-time.After(2 * time.Second):
		s.FailNow("service query MUST complete")
	}

	services := remote.Services()
	s.Require().Len(services, 2)
	s.Equal("Heart Rate", services[0].Name)
	s.Equal([]string{"180d"}, services[0].ServiceClasses())
	s.True(services[0].HasServiceClass(0x180d))
	s.Nil(services[0].Channel, "GATT services MUST NOT report an RFCOMM channel")
	s.Equal("", services[1].Name)
	s.Equal("AA:BB:CC:DD:EE:FF", services[1].Address)
	s.False(remote.LastServicesUpdate().IsZero(), "query MUST stamp the update time")

	s.True(remote.IsConnected())
	s.NoError(remote.CloseConnection())
	s.False(remote.IsConnected())
	s.NoError(remote.CloseConnection(), "closing twice MUST be a no-op")

	client.AssertExpectations(s.T())
	s.transport.AssertExpectations(s.T())
}

func (s *BackendTestSuite) TestServiceQueryDialFailure() {
	s.transport.On("Dial", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)

	remote, err := s.host.DeviceWithAddress("AA:BB:CC:DD:EE:FF")
	s.Require().NoError(err)

	done := make(chan device.Status, 1)
	s.Require().Equal(device.StatusSuccess, remote.PerformSDPQuery(func(st device.Status) { done <- st }))

	select {
	case st := <-done:
		s.Equal(device.StatusTimeout, st)
	case <-time.After(2 * time.Second):
		s.FailNow("service query MUST complete")
	}
	s.Empty(remote.Services())
	s.False(remote.IsConnected())
}

func (s *BackendTestSuite) TestNameRequestPicksUpAdvertisedName() {
	// GOAL: Verify a name request resolves the local name from advertisements
	//
	// TEST SCENARIO: Other device and nameless adverts are ignored, matching named advert wins

	s.transport.On("Scan", mock.Anything, true, mock.Anything).
		Run(blemocks.Advertise(
			adv("11:22:33:44:55:66", "Other"),
			adv("aa:bb:cc:dd:ee:ff", ""),
			adv("aa:bb:cc:dd:ee:ff", "Kitchen Speaker"),
		)).
		Return(context.Canceled)

	remote, err := s.host.DeviceWithAddress("AA:BB:CC:DD:EE:FF")
	s.Require().NoError(err)

	done := make(chan device.Status, 1)
	s.Require().Equal(device.StatusSuccess, remote.RemoteNameRequest(time.Second, func(st device.Status) { done <- st }))

	select {
	case st := <-done:
		s.Equal(device.StatusSuccess, st)
	case <-time.After(2 * time.Second):
		s.FailNow("name request MUST complete")
	}
	s.Equal("Kitchen Speaker", remote.Name())
	s.Equal("Kitchen Speaker", remote.NameOrAddress())
}

func (s *BackendTestSuite) TestNameRequestTimesOutWithoutName() {
	s.transport.On("Scan", mock.Anything, true, mock.Anything).
		Run(blemocks.Advertise()).
		Return(nil)

	remote, err := s.host.DeviceWithAddress("AA:BB:CC:DD:EE:FF")
	s.Require().NoError(err)

	done := make(chan device.Status, 1)
	s.Require().Equal(device.StatusSuccess, remote.RemoteNameRequest(20*time.Millisecond, func(st device.Status) { done <- st }))

	select {
	case st := <-done:
		s.Equal(device.StatusTimeout, st)
	case <-time.After(2 * time.Second):
		s.FailNow("name request MUST complete")
	}
	s.Empty(remote.Name())
}

func TestBackendTestSuite(t *testing.T) {
	suite.Run(t, new(BackendTestSuite))
}
