package testutils

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/srg/btfind/internal/device"
)

// InquiryBehavior scripts how a FakeInquiry responds.
type InquiryBehavior struct {
	StartStatus    device.Status
	CompleteStatus device.Status // used when devices were found
	Delay          time.Duration // time until completion
	NeverComplete  bool          // only Stop completes the inquiry
}

// FakeHost is an in-memory device.Host driven by a HostBuilder.
type FakeHost struct {
	mu          sync.Mutex
	devices     map[string]*FakeRemoteDevice
	order       []string
	behavior    InquiryBehavior
	inquiries   []*FakeInquiry
	inquiryErr  error
	unknownAddr map[string]bool
}

func (h *FakeHost) NewInquiry() (device.Inquiry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inquiryErr != nil {
		return nil, h.inquiryErr
	}
	found := make([]device.RemoteDevice, 0, len(h.order))
	for _, addr := range h.order {
		found = append(found, h.devices[addr])
	}
	inq := &FakeInquiry{behavior: h.behavior, devices: found, stop: make(chan struct{})}
	h.inquiries = append(h.inquiries, inq)
	return inq, nil
}

func (h *FakeHost) DeviceWithAddress(address string) (device.RemoteDevice, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := device.FormatAddress(address)
	if h.unknownAddr[key] {
		return nil, device.ErrUnknownDevice
	}
	if dev, ok := h.devices[key]; ok {
		return dev, nil
	}
	// Like the native layer, any well-formed address yields a handle.
	dev := newFakeRemoteDevice(key, "", 0)
	h.devices[key] = dev
	return dev, nil
}

// Device returns the fake registered for address, or nil.
func (h *FakeHost) Device(address string) *FakeRemoteDevice {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.devices[device.FormatAddress(address)]
}

// Inquiries returns every inquiry handed out so far.
func (h *FakeHost) Inquiries() []*FakeInquiry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*FakeInquiry(nil), h.inquiries...)
}

// FakeInquiry completes after InquiryBehavior.Delay on its own goroutine.
type FakeInquiry struct {
	behavior    InquiryBehavior
	devices     []device.RemoteDevice
	length      time.Duration
	updateNames bool

	started  atomic.Bool
	stopped  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
}

func (i *FakeInquiry) SetLength(length time.Duration) { i.length = length }
func (i *FakeInquiry) Length() time.Duration          { return i.length }
func (i *FakeInquiry) SetUpdateNames(update bool)     { i.updateNames = update }
func (i *FakeInquiry) UpdateNames() bool              { return i.updateNames }

func (i *FakeInquiry) Start(onComplete device.InquiryCompleteFunc) device.Status {
	if !i.behavior.StartStatus.IsSuccess() {
		return i.behavior.StartStatus
	}
	if !i.started.CompareAndSwap(false, true) {
		return device.StatusBusy
	}

	go func() {
		var timeout <-chan time.Time
		if !i.behavior.NeverComplete {
			timeout = time.After(i.behavior.Delay)
		}
		select {
		case <-timeout:
			onComplete(i.finalStatus(), false)
		case <-i.stop:
			onComplete(device.StatusSuccess, true)
		}
	}()
	return device.StatusSuccess
}

func (i *FakeInquiry) finalStatus() device.Status {
	if len(i.devices) == 0 {
		return device.StatusNoDevicesFound
	}
	return i.behavior.CompleteStatus
}

func (i *FakeInquiry) Stop() device.Status {
	i.stopOnce.Do(func() {
		i.stopped.Store(true)
		close(i.stop)
	})
	return device.StatusSuccess
}

// Stopped reports whether Stop was called.
func (i *FakeInquiry) Stopped() bool { return i.stopped.Load() }

func (i *FakeInquiry) FoundDevices() []device.RemoteDevice {
	return i.devices
}

// FakeRemoteDevice is a scripted device.RemoteDevice.
type FakeRemoteDevice struct {
	mu         sync.Mutex
	address    string
	name       string
	remoteName string
	class      uint32
	services   []device.ServiceRecord
	lastUpdate time.Time
	connected  bool

	SDPStartStatus    device.Status
	SDPCompleteStatus device.Status
	SDPDelay          time.Duration
	NameStartStatus   device.Status
	NameDelay         time.Duration

	sdpQueries atomic.Int32
	closes     atomic.Int32
}

func newFakeRemoteDevice(address, name string, class uint32) *FakeRemoteDevice {
	return &FakeRemoteDevice{address: address, name: name, class: class}
}

func (d *FakeRemoteDevice) Address() string { return d.address }

func (d *FakeRemoteDevice) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.name
}

func (d *FakeRemoteDevice) NameOrAddress() string {
	if name := d.Name(); name != "" {
		return name
	}
	return d.address
}

func (d *FakeRemoteDevice) ClassOfDevice() uint32 { return d.class }

func (d *FakeRemoteDevice) LastServicesUpdate() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastUpdate
}

// SetLastServicesUpdate pretends a service query completed at t.
func (d *FakeRemoteDevice) SetLastServicesUpdate(t time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastUpdate = t
}

func (d *FakeRemoteDevice) PerformSDPQuery(onComplete device.CompleteFunc) device.Status {
	if !d.SDPStartStatus.IsSuccess() {
		return d.SDPStartStatus
	}
	d.sdpQueries.Add(1)
	d.mu.Lock()
	d.connected = true
	d.mu.Unlock()

	go func() {
		time.Sleep(d.SDPDelay)
		if d.SDPCompleteStatus.IsSuccess() {
			d.SetLastServicesUpdate(time.Now())
		}
		onComplete(d.SDPCompleteStatus)
	}()
	return device.StatusSuccess
}

func (d *FakeRemoteDevice) RemoteNameRequest(_ time.Duration, onComplete device.CompleteFunc) device.Status {
	if !d.NameStartStatus.IsSuccess() {
		return d.NameStartStatus
	}
	go func() {
		time.Sleep(d.NameDelay)
		d.mu.Lock()
		name := d.remoteName
		if name != "" {
			d.name = name
		}
		d.mu.Unlock()
		if name == "" {
			onComplete(device.StatusTimeout)
			return
		}
		onComplete(device.StatusSuccess)
	}()
	return device.StatusSuccess
}

func (d *FakeRemoteDevice) Services() []device.ServiceRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]device.ServiceRecord(nil), d.services...)
}

func (d *FakeRemoteDevice) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

// SetConnected marks the baseband connection as open.
func (d *FakeRemoteDevice) SetConnected(connected bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = connected
}

func (d *FakeRemoteDevice) CloseConnection() error {
	d.closes.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = false
	return nil
}

// SDPQueries returns how many service queries were started.
func (d *FakeRemoteDevice) SDPQueries() int { return int(d.sdpQueries.Load()) }

// Closes returns how many times CloseConnection was called.
func (d *FakeRemoteDevice) Closes() int { return int(d.closes.Load()) }
