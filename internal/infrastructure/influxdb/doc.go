// Package influxdb mirrors device telemetry into InfluxDB v2.
//
// SQLite remains the system of record; InfluxDB receives a copy of every
// appended log value for long-range dashboards. Writes are non-blocking and
// batched, and asynchronous failures are reported through SetOnError.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without the mirror
//	}
//	defer client.Close()
//
//	client.WriteDeviceEvent(ownerID, deviceID, "units_consumed", 5, time.Now())
package influxdb
