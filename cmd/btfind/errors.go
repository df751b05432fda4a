package main

import (
	"errors"
	"fmt"

	"github.com/srg/btfind/internal/device"
	"github.com/srg/btfind/internal/discovery"
	"github.com/srg/btfind/internal/rfcomm"
)

// Command-level errors
var (
	ErrNotInteractive = errors.New("interactive selection needs a terminal on stdin")
	ErrInvalidChannel = errors.New("invalid RFCOMM channel")
)

// FormatUserError turns known errors into a short message for the terminal.
// Unknown errors are printed as is.
func FormatUserError(err error) string {
	switch {
	case errors.Is(err, device.ErrBluetoothOff):
		return "Bluetooth is turned off. Turn it on and try again"
	case errors.Is(err, device.ErrUnsupported), errors.Is(err, rfcomm.ErrUnsupported):
		return fmt.Sprintf("not supported on this platform: %v", err)
	case errors.Is(err, discovery.ErrConcurrentOperation):
		return fmt.Sprintf("%v, wait for it to finish", err)
	}

	if status, ok := discovery.StatusOf(err); ok {
		return fmt.Sprintf("%v (status 0x%08X)", err, uint32(int32(status)))
	}
	return err.Error()
}
