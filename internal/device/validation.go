package device

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	maxNameLength   = 100
	maxTypeLength   = 64
	maxStatusLength = 64

	idPrefix = "dev-"

	// Stored timestamps use a four-digit year once converted to UTC.
	minTimestampYear = 0
	maxTimestampYear = 9999
)

// ValidateRegister checks a registration request before anything is stored.
func ValidateRegister(req RegisterRequest) error {
	if req.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.Type == "" {
		return fmt.Errorf("%w: type is required", ErrValidation)
	}
	return validateLengths(req.Name, req.Type, req.Status)
}

// ValidatePatch checks the present fields of a partial update.
func ValidatePatch(p Patch) error {
	var name, typ, status string
	if p.Name.present() {
		name = p.Name.Value
	}
	if p.Type.present() {
		typ = p.Type.Value
	}
	if p.Status.present() {
		status = p.Status.Value
	}
	if p.LastActiveAt.present() {
		if err := validateTimestamp("last_active_at", p.LastActiveAt.Value); err != nil {
			return err
		}
	}
	return validateLengths(name, typ, status)
}

// ValidateHeartbeat checks the optional status carried by a heartbeat.
func ValidateHeartbeat(status string) error {
	return validateLengths("", "", status)
}

func validateTimestamp(field string, t time.Time) error {
	if y := t.UTC().Year(); y < minTimestampYear || y > maxTimestampYear {
		return fmt.Errorf("%w: %s must fall between years 0000 and 9999 in UTC", ErrValidation, field)
	}
	return nil
}

func validateLengths(name, typ, status string) error {
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrValidation, maxNameLength)
	}
	if len(typ) > maxTypeLength {
		return fmt.Errorf("%w: type exceeds %d characters", ErrValidation, maxTypeLength)
	}
	if len(status) > maxStatusLength {
		return fmt.Errorf("%w: status exceeds %d characters", ErrValidation, maxStatusLength)
	}
	return nil
}

// GenerateID creates a new opaque device identifier.
func GenerateID() string {
	return idPrefix + uuid.New().String()
}
