// Package events fans committed device and log changes out to sinks:
// the MQTT broker, InfluxDB and the websocket hub.
//
// Producers hold a single Publisher; Fanout combines several. Publishing
// happens after the database write commits and its errors are only logged.
package events
