package discovery

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/srg/btfind/internal/device"
)

// DeviceInquiry runs a native inquiry as an Operation.
//
// A completion with StatusNoDevicesFound is reported as success; Devices then
// returns an empty slice. Other operations do not get this treatment.
type DeviceInquiry struct {
	inquiry device.Inquiry
	running atomic.Bool
	aborted atomic.Bool
}

// NewDeviceInquiry configures inquiry and wraps it. length is the scan duration.
func NewDeviceInquiry(inquiry device.Inquiry, updateNames bool, length time.Duration) *DeviceInquiry {
	inquiry.SetUpdateNames(updateNames)
	inquiry.SetLength(length)
	return &DeviceInquiry{inquiry: inquiry}
}

func (d *DeviceInquiry) Describe() string {
	return "device inquiry"
}

func (d *DeviceInquiry) Start(complete device.CompleteFunc) device.Status {
	d.running.Store(true)
	status := d.inquiry.Start(func(status device.Status, aborted bool) {
		d.running.Store(false)
		d.aborted.Store(aborted)
		if status == device.StatusNoDevicesFound {
			status = device.StatusSuccess
		}
		complete(status)
	})
	if !status.IsSuccess() {
		d.running.Store(false)
	}
	return status
}

// Release stops the native inquiry if it is still scanning.
func (d *DeviceInquiry) Release() {
	if d.running.CompareAndSwap(true, false) {
		d.inquiry.Stop()
	}
}

// Aborted reports whether the inquiry was stopped before its length elapsed.
func (d *DeviceInquiry) Aborted() bool {
	return d.aborted.Load()
}

// Devices returns the found devices in discovery order.
func (d *DeviceInquiry) Devices() []device.DeviceRecord {
	found := d.inquiry.FoundDevices()
	records := make([]device.DeviceRecord, 0, len(found))
	for _, dev := range found {
		records = append(records, device.NewDeviceRecord(dev))
	}
	return records
}

// ServiceQuery refreshes the service records of one remote device.
type ServiceQuery struct {
	remote device.RemoteDevice
}

func NewServiceQuery(remote device.RemoteDevice) *ServiceQuery {
	return &ServiceQuery{remote: remote}
}

func (q *ServiceQuery) Describe() string {
	return fmt.Sprintf("service query for %s", q.remote.NameOrAddress())
}

func (q *ServiceQuery) Start(complete device.CompleteFunc) device.Status {
	return q.remote.PerformSDPQuery(complete)
}

// NameRequest asks a remote device for its name.
type NameRequest struct {
	remote      device.RemoteDevice
	pageTimeout time.Duration
}

func NewNameRequest(remote device.RemoteDevice, pageTimeout time.Duration) *NameRequest {
	return &NameRequest{remote: remote, pageTimeout: pageTimeout}
}

func (r *NameRequest) Describe() string {
	return fmt.Sprintf("name request for %s", r.remote.Address())
}

func (r *NameRequest) Start(complete device.CompleteFunc) device.Status {
	return r.remote.RemoteNameRequest(r.pageTimeout, complete)
}
