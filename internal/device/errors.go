package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, device.ErrNotFoundOrUnauthorized) {
//	    // respond 404 without revealing whether the device exists
//	}
var (
	// ErrNotFoundOrUnauthorized is returned when a device does not exist or
	// belongs to another owner. The two cases are deliberately the same error.
	ErrNotFoundOrUnauthorized = errors.New("device: not found or not authorized")

	// ErrValidation is returned when a request fails field validation.
	// The wrapped message names the offending field.
	ErrValidation = errors.New("device: validation failed")

	// ErrDeviceExists is returned when inserting a device whose ID is taken.
	ErrDeviceExists = errors.New("device: already exists")
)
