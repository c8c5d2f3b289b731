package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/telemetry-core/internal/infrastructure/mqtt"
)

// MQTTClient is the subset of the MQTT client the publisher needs.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTPublisher publishes each event as JSON to
// telemetry/events/{owner}/{device}/{type}.
type MQTTPublisher struct {
	client MQTTClient
	qos    byte
}

// NewMQTTPublisher creates a publisher that sends with the given QoS.
func NewMQTTPublisher(client MQTTClient, qos byte) *MQTTPublisher {
	return &MQTTPublisher{client: client, qos: qos}
}

// Publish implements Publisher.
func (p *MQTTPublisher) Publish(_ context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}

	topic := mqtt.Topics{}.DeviceEvent(e.OwnerID, e.DeviceID, string(e.Type))
	if err := p.client.Publish(topic, payload, p.qos, false); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}
