package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementDeviceEvents holds one point per appended device log.
const MeasurementDeviceEvents = "device_events"

// WriteDeviceEvent queues a device log value for the batched writer.
// Points are tagged by owner, device and event kind so dashboards can
// chart usage per tenant. Dropped silently when disconnected.
func (c *Client) WriteDeviceEvent(ownerID, deviceID, event string, value float64, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(newDeviceEventPoint(ownerID, deviceID, event, value, ts))
}

func newDeviceEventPoint(ownerID, deviceID, event string, value float64, ts time.Time) *write.Point {
	if ts.IsZero() {
		ts = time.Now()
	}
	return write.NewPoint(
		MeasurementDeviceEvents,
		map[string]string{
			"owner_id":  ownerID,
			"device_id": deviceID,
			"event":     event,
		},
		map[string]interface{}{
			"value": value,
		},
		ts.UTC(),
	)
}
