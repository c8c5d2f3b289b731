package mqtt

import (
	"fmt"
	"strings"
)

// Topic roots. The full hierarchy is:
//
//	telemetry/system/status                           service online/offline (retained)
//	telemetry/events/{owner}/{device}/{event_type}    outbound change notifications
//	telemetry/ingest/{owner}/{device}/heartbeat       inbound device heartbeat
//	telemetry/ingest/{owner}/{device}/logs            inbound device log entry
const (
	TopicPrefix       = "telemetry"
	TopicPrefixSystem = TopicPrefix + "/system"
	TopicPrefixEvents = TopicPrefix + "/events"
	TopicPrefixIngest = TopicPrefix + "/ingest"
)

// Ingest message kinds, the last segment of an ingest topic.
const (
	IngestHeartbeat = "heartbeat"
	IngestLogs      = "logs"
)

// ingestSegments is the number of levels in an ingest topic.
const ingestSegments = 5

// Topics provides builders for telemetry MQTT topics.
//
//	topic := mqtt.Topics{}.DeviceEvent("user-1", "dev-42", "log.appended")
//	// Returns: "telemetry/events/user-1/dev-42/log.appended"
type Topics struct{}

// SystemStatus returns the retained service status topic, also used for LWT.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// DeviceEvent returns the topic for an outbound change notification.
func (Topics) DeviceEvent(ownerID, deviceID, eventType string) string {
	return fmt.Sprintf("%s/%s/%s/%s", TopicPrefixEvents, ownerID, deviceID, eventType)
}

// OwnerEvents returns a wildcard matching every event for one owner.
func (Topics) OwnerEvents(ownerID string) string {
	return fmt.Sprintf("%s/%s/#", TopicPrefixEvents, ownerID)
}

// Ingest returns the inbound topic for a device message of the given kind.
func (Topics) Ingest(ownerID, deviceID, kind string) string {
	return fmt.Sprintf("%s/%s/%s/%s", TopicPrefixIngest, ownerID, deviceID, kind)
}

// AllIngest returns a wildcard matching inbound messages of one kind for
// every owner and device.
func (Topics) AllIngest(kind string) string {
	return fmt.Sprintf("%s/+/+/%s", TopicPrefixIngest, kind)
}

// ParseIngest splits an ingest topic into its owner, device and kind.
// ok is false if topic is not a well-formed ingest topic.
func ParseIngest(topic string) (ownerID, deviceID, kind string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != ingestSegments || parts[0]+"/"+parts[1] != TopicPrefixIngest {
		return "", "", "", false
	}
	ownerID, deviceID, kind = parts[2], parts[3], parts[4]
	if ownerID == "" || deviceID == "" || kind == "" {
		return "", "", "", false
	}
	return ownerID, deviceID, kind, true
}
