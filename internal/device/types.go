package device

import "time"

// StatusInactive is the status given to a device registered without one.
const StatusInactive = "inactive"

// Device is a telemetry-emitting entity registered by an owner.
//
// OwnerID is fixed at registration. CreatedAt and UpdatedAt are bookkeeping
// and are not part of the JSON projection.
type Device struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	LastActiveAt *time.Time `json:"last_active_at"`
	OwnerID      string     `json:"owner_id"`
	CreatedAt    time.Time  `json:"-"`
	UpdatedAt    time.Time  `json:"-"`
}

// RegisterRequest carries the caller-supplied fields for a new device.
type RegisterRequest struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status,omitempty"`
}

// Filter narrows List results. Empty fields match any value.
type Filter struct {
	Type   string
	Status string
}

// Field is an optional value in a partial update. Set reports whether the
// caller supplied the field at all.
type Field[T comparable] struct {
	Value T
	Set   bool
}

// Some returns a Field holding v.
func Some[T comparable](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// present reports whether the field was supplied with a non-zero value.
// A supplied zero value ("" or the zero time) counts as absent.
func (f Field[T]) present() bool {
	var zero T
	return f.Set && f.Value != zero
}

// Patch is a partial device update.
type Patch struct {
	Name         Field[string]
	Type         Field[string]
	Status       Field[string]
	LastActiveAt Field[time.Time]
}

// apply copies every present field of p onto d and reports whether
// anything changed.
func (p Patch) apply(d *Device) bool {
	changed := false
	if p.Name.present() {
		d.Name = p.Name.Value
		changed = true
	}
	if p.Type.present() {
		d.Type = p.Type.Value
		changed = true
	}
	if p.Status.present() {
		d.Status = p.Status.Value
		changed = true
	}
	if p.LastActiveAt.present() {
		t := p.LastActiveAt.Value.UTC()
		d.LastActiveAt = &t
		changed = true
	}
	return changed
}
