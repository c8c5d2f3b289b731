package telemetry

import "errors"

// ErrValidation is returned when a log request is rejected before storage.
// Ownership failures are reported with device.ErrNotFoundOrUnauthorized.
var ErrValidation = errors.New("telemetry: validation failed")

// ErrUsageOverflow is returned when a usage total is not a finite number.
var ErrUsageOverflow = errors.New("telemetry: usage total overflows")
