package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Backend errors
var (
	ErrUnsupported    = errors.New("unsupported")
	ErrBluetoothOff   = errors.New("bluetooth is turned off")
	ErrUnknownDevice  = errors.New("unknown device")
	ErrInvalidAddress = errors.New("not a valid bluetooth address")
)

// NormalizeError maps known go-ble error strings to the sentinel errors above.
// Returns wrapped errors to preserve original context.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case msg == "central manager has invalid state: have=4 want=5: is Bluetooth turned on?":
		return fmt.Errorf("%w: %v", ErrBluetoothOff, err)
	case containsIgnoreCase(msg, "bluetooth is turned off"):
		return fmt.Errorf("%w: %v", ErrBluetoothOff, err)
	default:
		return err
	}
}

// StatusFromError maps a backend error onto a native status code.
func StatusFromError(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrBluetoothOff):
		return StatusNotReady
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.Is(err, context.Canceled):
		return StatusAborted
	default:
		return StatusError
	}
}

// containsIgnoreCase checks the substring case-insensitively
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
