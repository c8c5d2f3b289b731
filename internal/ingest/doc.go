// Package ingest accepts heartbeats and logs from devices over MQTT.
//
// Devices publish to telemetry/ingest/{owner}/{device}/heartbeat with an
// optional {"status": "..."} body, or to telemetry/ingest/{owner}/{device}/logs
// with {"event": "...", "value": n}. Both paths reuse the registry and the
// log store, so ownership and validation rules are identical to the HTTP API.
// Malformed or rejected messages are logged and dropped.
package ingest
