package compute

import (
	"errors"
	"fmt"
)

var (
	// ErrReleased is returned for operations on a released buffer.
	ErrReleased = errors.New("buffer released")
	// ErrKernelNotFound is returned when a kernel name is not registered.
	ErrKernelNotFound = errors.New("kernel not found")
	// ErrPending is returned when a buffer is used while a dispatch is in flight.
	ErrPending = errors.New("dispatch pending")
	// ErrClosed is returned when dispatching on a closed device.
	ErrClosed = errors.New("device closed")
	// ErrSizeMismatch is returned when host data does not match buffer capacity.
	ErrSizeMismatch = errors.New("buffer size mismatch")
)

// ResourceError reports a failed device allocation. It is fatal for the
// population that requested the buffer.
type ResourceError struct {
	Op        string
	Requested int64 // bytes
	Available int64 // bytes, -1 when unlimited
	Err       error
}

func (e *ResourceError) Error() string {
	msg := fmt.Sprintf("compute: %s: cannot reserve %d bytes", e.Op, e.Requested)
	if e.Available >= 0 {
		msg += fmt.Sprintf(" (%d available)", e.Available)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResourceError) Unwrap() error { return e.Err }

// DeviceError reports a kernel lookup or dispatch failure. A population that
// sees one must stop ticking.
type DeviceError struct {
	Op     string
	Kernel string
	Err    error
}

func (e *DeviceError) Error() string {
	if e.Kernel != "" {
		return fmt.Sprintf("compute: %s %s: %v", e.Op, e.Kernel, e.Err)
	}
	return fmt.Sprintf("compute: %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }
