package device

import (
	"time"
)

// AttributeID is a protocol-defined SDP attribute identifier.
type AttributeID uint16

// Universal SDP attribute identifiers
const (
	ServiceClassIDListAttr             AttributeID = 0x0001
	ServiceIDAttr                      AttributeID = 0x0003
	ProtocolDescriptorListAttr         AttributeID = 0x0004
	BluetoothProfileDescriptorListAttr AttributeID = 0x0009
	ServiceNameAttr                    AttributeID = 0x0100
	ServiceDescriptionAttr             AttributeID = 0x0101
	ProviderNameAttr                   AttributeID = 0x0102
)

// DeviceRecord is a device found by an inquiry.
//
//nolint:revive // DeviceRecord name is intentional for clarity when used as a device.DeviceRecord
type DeviceRecord struct {
	Address string  `json:"address"`
	Name    *string `json:"name"`
	Class   uint32  `json:"class"`
}

// ServiceRecord is a service advertised by a remote device.
// Channel is nil when neither an RFCOMM channel nor an L2CAP PSM resolves.
type ServiceRecord struct {
	Address    string              `json:"address"`
	Channel    *int                `json:"channel"`
	Name       string              `json:"name"`
	Attributes map[AttributeID]any `json:"attributes,omitempty"`
}

// Attribute returns the attribute value and whether it is present.
func (r ServiceRecord) Attribute(id AttributeID) (any, bool) {
	v, ok := r.Attributes[id]
	return v, ok
}

// ServiceClasses returns the normalized UUIDs listed in ServiceClassIDList.
func (r ServiceRecord) ServiceClasses() []string {
	v, ok := r.Attributes[ServiceClassIDListAttr]
	if !ok {
		return nil
	}
	switch classes := v.(type) {
	case []string:
		return NormalizeUUIDs(classes)
	case []any:
		out := make([]string, 0, len(classes))
		for _, c := range classes {
			if s, ok := c.(string); ok {
				out = append(out, NormalizeUUID(s))
			}
		}
		return out
	default:
		return nil
	}
}

// HasServiceClass reports whether the record lists the given 16-bit service class.
func (r ServiceRecord) HasServiceClass(uuid16 uint16) bool {
	want := UUID16(uuid16)
	for _, c := range r.ServiceClasses() {
		if c == want {
			return true
		}
	}
	return false
}

// InquiryCompleteFunc receives the final status of an inquiry.
// aborted is true when the inquiry was stopped before its length elapsed.
type InquiryCompleteFunc func(status Status, aborted bool)

// CompleteFunc receives the final status of a remote device operation.
type CompleteFunc func(status Status)

// Inquiry is a native, time-bounded scan for discoverable devices.
// Start returns immediately; the completion callback fires exactly once
// afterwards, possibly on another goroutine.
type Inquiry interface {
	SetLength(length time.Duration)
	Length() time.Duration
	SetUpdateNames(update bool)
	UpdateNames() bool

	Start(onComplete InquiryCompleteFunc) Status
	Stop() Status

	// FoundDevices returns the devices seen so far in discovery order.
	FoundDevices() []RemoteDevice
}

// RemoteDevice is the native handle of one remote device.
type RemoteDevice interface {
	Address() string
	Name() string
	NameOrAddress() string
	ClassOfDevice() uint32

	// LastServicesUpdate is zero when no service query has completed yet.
	LastServicesUpdate() time.Time
	PerformSDPQuery(onComplete CompleteFunc) Status
	RemoteNameRequest(pageTimeout time.Duration, onComplete CompleteFunc) Status
	Services() []ServiceRecord

	IsConnected() bool
	CloseConnection() error
}

// Host is the local Bluetooth controller.
type Host interface {
	NewInquiry() (Inquiry, error)
	// DeviceWithAddress returns ErrUnknownDevice when no handle can be made for address.
	DeviceWithAddress(address string) (RemoteDevice, error)
}

// NewDeviceRecord converts a native device handle into an immutable record.
func NewDeviceRecord(dev RemoteDevice) DeviceRecord {
	rec := DeviceRecord{
		Address: FormatAddress(dev.Address()),
		Class:   dev.ClassOfDevice(),
	}
	if name := dev.Name(); name != "" {
		rec.Name = &name
	}
	return rec
}
