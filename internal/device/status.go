package device

import "fmt"

// Status is an opaque status code reported by the native Bluetooth layer.
// Values other than the named constants are passed through untouched.
type Status int

// Native status codes. The IOKit-style values mirror kIOReturn* so statuses
// coming from a macOS backend and from the go-ble backend share one space.
const (
	StatusSuccess        Status = 0
	StatusNoDevicesFound Status = 188

	StatusError    Status = -536870212 // 0xE00002BC
	StatusBusy     Status = -536870187 // 0xE00002D5
	StatusTimeout  Status = -536870186 // 0xE00002D6
	StatusNotReady Status = -536870184 // 0xE00002D8
	StatusAborted  Status = -536870165 // 0xE00002EB
)

// IsSuccess reports whether s is StatusSuccess.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNoDevicesFound:
		return "no devices found"
	case StatusError:
		return "general error"
	case StatusBusy:
		return "device busy"
	case StatusTimeout:
		return "operation timed out"
	case StatusNotReady:
		return "bluetooth not ready"
	case StatusAborted:
		return "operation aborted"
	default:
		return fmt.Sprintf("status %d (0x%08X)", int(s), uint32(int32(s)))
	}
}
