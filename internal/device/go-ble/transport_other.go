//go:build !darwin && !linux

package goble

import (
	"fmt"
	"runtime"

	"github.com/srg/btfind/internal/device"
)

func newPlatformDevice() (Transport, error) {
	return nil, fmt.Errorf("bluetooth on %s: %w", runtime.GOOS, device.ErrUnsupported)
}
