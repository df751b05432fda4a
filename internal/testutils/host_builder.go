package testutils

import (
	"time"

	"github.com/srg/btfind/internal/device"
)

// HostBuilder builds a FakeHost with a fluent API:
//
//	host := NewHostBuilder().
//		WithDevice("00:00:00:00:00:01", "Phone", 0x5a020c).
//		WithService("Serial Port", RFCOMMChannel(3), 0x1101).
//		WithInquiryDelay(20 * time.Millisecond).
//		Build()
type HostBuilder struct {
	host    *FakeHost
	current *FakeRemoteDevice
}

// NewHostBuilder starts a host whose inquiries complete immediately with success.
func NewHostBuilder() *HostBuilder {
	return &HostBuilder{
		host: &FakeHost{
			devices:     make(map[string]*FakeRemoteDevice),
			unknownAddr: make(map[string]bool),
		},
	}
}

// WithDevice adds a device that inquiries will find, in call order.
func (b *HostBuilder) WithDevice(address, name string, class uint32) *HostBuilder {
	key := device.FormatAddress(address)
	dev := newFakeRemoteDevice(key, name, class)
	b.host.devices[key] = dev
	b.host.order = append(b.host.order, key)
	b.current = dev
	return b
}

// WithService adds a service record to the last added device.
func (b *HostBuilder) WithService(name string, channel *int, serviceClasses ...uint16) *HostBuilder {
	b.mustHaveDevice()
	classes := make([]string, 0, len(serviceClasses))
	for _, c := range serviceClasses {
		classes = append(classes, device.UUID16(c))
	}
	attrs := map[device.AttributeID]any{
		device.ServiceClassIDListAttr: classes,
	}
	if name != "" {
		attrs[device.ServiceNameAttr] = name
	}
	return b.WithServiceRecord(device.ServiceRecord{
		Address:    b.current.address,
		Channel:    channel,
		Name:       name,
		Attributes: attrs,
	})
}

// WithServiceRecord adds a fully specified record to the last added device.
func (b *HostBuilder) WithServiceRecord(rec device.ServiceRecord) *HostBuilder {
	b.mustHaveDevice()
	b.current.services = append(b.current.services, rec)
	return b
}

// WithRemoteName sets the name a name request on the last added device resolves to.
func (b *HostBuilder) WithRemoteName(name string) *HostBuilder {
	b.mustHaveDevice()
	b.current.remoteName = name
	return b
}

// WithSDPResult scripts the service query of the last added device.
func (b *HostBuilder) WithSDPResult(start, complete device.Status, delay time.Duration) *HostBuilder {
	b.mustHaveDevice()
	b.current.SDPStartStatus = start
	b.current.SDPCompleteStatus = complete
	b.current.SDPDelay = delay
	return b
}

// WithUnknownAddress makes DeviceWithAddress fail for address.
func (b *HostBuilder) WithUnknownAddress(address string) *HostBuilder {
	b.host.unknownAddr[device.FormatAddress(address)] = true
	return b
}

// WithInquiryDelay delays inquiry completion.
func (b *HostBuilder) WithInquiryDelay(delay time.Duration) *HostBuilder {
	b.host.behavior.Delay = delay
	return b
}

// WithInquiryBehavior replaces the inquiry script.
func (b *HostBuilder) WithInquiryBehavior(behavior InquiryBehavior) *HostBuilder {
	b.host.behavior = behavior
	return b
}

// WithInquiryError makes NewInquiry fail.
func (b *HostBuilder) WithInquiryError(err error) *HostBuilder {
	b.host.inquiryErr = err
	return b
}

func (b *HostBuilder) Build() *FakeHost {
	return b.host
}

func (b *HostBuilder) mustHaveDevice() {
	if b.current == nil {
		panic("HostBuilder: WithDevice must be called first")
	}
}

// RFCOMMChannel returns a pointer to channel for service records.
func RFCOMMChannel(channel int) *int {
	return &channel
}
