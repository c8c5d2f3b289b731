package events

import "time"

// Type identifies what happened.
type Type string

// Event types emitted by the registry and the log store.
const (
	TypeDeviceRegistered Type = "device.registered"
	TypeDeviceUpdated    Type = "device.updated"
	TypeDeviceDeleted    Type = "device.deleted"
	TypeLogAppended      Type = "log.appended"
)

// AllTypes returns every event type, in a stable order.
func AllTypes() []Type {
	return []Type{TypeDeviceRegistered, TypeDeviceUpdated, TypeDeviceDeleted, TypeLogAppended}
}

// Event is a committed change to an owner's data.
//
// Kind and Value are set only for log.appended. Payload carries the
// affected device or log as it was returned to the caller.
type Event struct {
	Type      Type      `json:"type"`
	OwnerID   string    `json:"owner_id"`
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"event,omitempty"`
	Value     *float64  `json:"value,omitempty"`
	Payload   any       `json:"payload,omitempty"`
}
