// Package mqtt provides the broker connection used for telemetry events
// and device ingest.
//
// This package manages:
//   - Connection to the broker with auto-reconnect and restored subscriptions
//   - Publishing with QoS 0-2 and a 1MB payload cap
//   - Wildcard subscriptions with panic-safe handlers
//   - A retained service status with a Last Will for unexpected drops
//
// # Topics
//
// Outbound change notifications go to telemetry/events/{owner}/{device}/{type}.
// Devices without an HTTP stack publish to telemetry/ingest/{owner}/{device}/heartbeat
// and telemetry/ingest/{owner}/{device}/logs. Broker ACLs are expected to pin
// each device's credentials to its own owner segment.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllIngest(mqtt.IngestLogs), 1,
//	    func(topic string, payload []byte) error {
//	        owner, device, _, _ := mqtt.ParseIngest(topic)
//	        ...
//	    })
package mqtt
