package telemetry

import "time"

// Event is the kind of a device log entry.
type Event string

// Recognised event kinds.
const (
	EventUnitsConsumed Event = "units_consumed"
	EventStatusChange  Event = "status_change"
	EventError         Event = "error"
	EventOther         Event = "other"
)

// AllEvents returns every recognised event kind.
func AllEvents() []Event {
	return []Event{EventUnitsConsumed, EventStatusChange, EventError, EventOther}
}

// Valid reports whether e is a recognised event kind.
func (e Event) Valid() bool {
	switch e {
	case EventUnitsConsumed, EventStatusChange, EventError, EventOther:
		return true
	}
	return false
}

// Log is an immutable event recorded against a device.
// OwnerID is copied from the device when the log is appended.
type Log struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	OwnerID   string    `json:"owner_id"`
	Event     Event     `json:"event"`
	Value     *float64  `json:"value,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry is the projection of a Log returned by FetchRecent.
type Entry struct {
	ID        string    `json:"id"`
	Event     Event     `json:"event"`
	Value     *float64  `json:"value,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Entry projects l for listing.
func (l Log) Entry() Entry {
	return Entry{ID: l.ID, Event: l.Event, Value: l.Value, Timestamp: l.CreatedAt}
}

// Usage is the result of a windowed usage aggregation.
// TotalUnitsLast echoes the caller's range expression unparsed.
type Usage struct {
	DeviceID       string  `json:"device_id"`
	TotalUnitsLast string  `json:"total_units_last"`
	TotalUnits     float64 `json:"total_units"`
}
