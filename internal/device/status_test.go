package device

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusString(t *testing.T) {
	assert.True(t, StatusSuccess.IsSuccess())
	assert.False(t, StatusNoDevicesFound.IsSuccess(), "no-devices MUST NOT count as success by itself")

	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "no devices found", StatusNoDevicesFound.String())
	assert.Equal(t, "operation timed out", StatusTimeout.String())
	assert.Equal(t, "status 4 (0x00000004)", Status(4).String())
	assert.Equal(t, "status -536870211 (0xE00002BD)", Status(-536870211).String())
}

func TestNormalizeError(t *testing.T) {
	assert.NoError(t, NormalizeError(nil))

	darwinOff := errors.New("central manager has invalid state: have=4 want=5: is Bluetooth turned on?")
	assert.ErrorIs(t, NormalizeError(darwinOff), ErrBluetoothOff)
	assert.ErrorIs(t, NormalizeError(errors.New("Bluetooth is turned OFF")), ErrBluetoothOff)

	other := errors.New("hci: command timeout")
	assert.Same(t, other, NormalizeError(other), "unknown errors MUST pass through")
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Status
	}{
		{name: "nil", err: nil, expected: StatusSuccess},
		{name: "bluetooth off", err: fmt.Errorf("scan: %w", ErrBluetoothOff), expected: StatusNotReady},
		{name: "deadline", err: context.DeadlineExceeded, expected: StatusTimeout},
		{name: "canceled", err: fmt.Errorf("dial: %w", context.Canceled), expected: StatusAborted},
		{name: "other", err: errors.New("boom"), expected: StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusFromError(tt.err))
		})
	}
}
