package events

import (
	"context"
	"time"
)

// PointWriter is the subset of the InfluxDB client the publisher needs.
type PointWriter interface {
	WriteDeviceEvent(ownerID, deviceID, event string, value float64, ts time.Time)
}

// InfluxPublisher mirrors appended logs into InfluxDB for dashboards.
// Events other than log.appended are ignored, as are logs without a value.
type InfluxPublisher struct {
	writer PointWriter
}

// NewInfluxPublisher creates a publisher writing through w.
func NewInfluxPublisher(w PointWriter) *InfluxPublisher {
	return &InfluxPublisher{writer: w}
}

// Publish implements Publisher. Writes are batched and non-blocking;
// asynchronous write failures surface through the client's error callback.
func (p *InfluxPublisher) Publish(_ context.Context, e Event) error {
	if e.Type != TypeLogAppended || e.Value == nil {
		return nil
	}
	p.writer.WriteDeviceEvent(e.OwnerID, e.DeviceID, e.Kind, *e.Value, e.Timestamp)
	return nil
}
