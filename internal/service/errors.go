package service

import (
	"errors"
	"fmt"

	"smart_greenhouse/internal/device"
)

// Not-found and conflict sentinels. Handlers map these to HTTP codes.
var (
	ErrGreenhouseNotFound = errors.New("greenhouse not found")
	ErrDeviceNotFound     = errors.New("no online device registered for this greenhouse")
	ErrOperationNotFound  = errors.New("no active pump operation for this greenhouse")
	ErrEventNotFound      = errors.New("irrigation event not found")
	ErrPumpActive         = errors.New("a pump operation is already active for this greenhouse")
	ErrAlreadyConfirmed   = errors.New("irrigation event has already been confirmed")
)

// ValidationError rejects malformed or out-of-range input before any state
// change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// DeviceCommError wraps a failed device call with its stable user-facing
// category. The raw transport error stays server-side.
type DeviceCommError struct {
	Category string
	Err      error
}

func (e *DeviceCommError) Error() string {
	return device.CategoryMessage(e.Category)
}

func (e *DeviceCommError) Unwrap() error { return e.Err }

func newDeviceCommError(err error) *DeviceCommError {
	return &DeviceCommError{Category: device.Categorize(err), Err: err}
}
