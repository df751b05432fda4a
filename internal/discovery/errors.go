package discovery

import (
	"errors"
	"fmt"
	"time"

	"github.com/srg/btfind/internal/device"
)

// Sentinels for errors.Is matching against the typed errors below.
var (
	ErrStart               = errors.New("operation failed to start")
	ErrConcurrentOperation = errors.New("another operation in progress")
	ErrTimeout             = errors.New("timeout")
	ErrOperation           = errors.New("operation failed")
)

// StartError is returned when the native operation rejects Start.
type StartError struct {
	Status  device.Status
	Context string
}

func (e *StartError) Error() string {
	return fmt.Sprintf("error starting %s: %s", e.Context, e.Status)
}

// Is allows errors.Is(err, ErrStart)
func (e *StartError) Is(target error) bool {
	return target == ErrStart
}

// ConcurrentOperationError is returned when Run is called while another
// operation is still pending on the same adapter.
type ConcurrentOperationError struct {
	Context string
}

func (e *ConcurrentOperationError) Error() string {
	if e.Context == "" {
		return ErrConcurrentOperation.Error()
	}
	return fmt.Sprintf("another %s in progress", e.Context)
}

// Is allows errors.Is(err, ErrConcurrentOperation)
func (e *ConcurrentOperationError) Is(target error) bool {
	return target == ErrConcurrentOperation
}

// TimeoutError is returned when the wait budget ran out before completion.
type TimeoutError struct {
	Context string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.Context)
}

// Is allows errors.Is(err, ErrTimeout)
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// OperationError carries a non-success completion status.
type OperationError struct {
	Status  device.Status
	Context string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("error during %s: %s", e.Context, e.Status)
}

// Is allows errors.Is(err, ErrOperation)
func (e *OperationError) Is(target error) bool {
	return target == ErrOperation
}

// StatusOf extracts the native status carried by a start or operation error.
func StatusOf(err error) (device.Status, bool) {
	var se *StartError
	if errors.As(err, &se) {
		return se.Status, true
	}
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.Status, true
	}
	return 0, false
}
