package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/telemetry-core/internal/device"
	"github.com/nerrad567/telemetry-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/telemetry-core/internal/telemetry"
)

// handleTimeout bounds the storage work done for one message.
const handleTimeout = 5 * time.Second

// Subscriber is the subset of the MQTT client the bridge needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// HeartbeatRecorder records device liveness. device.Registry implements it.
type HeartbeatRecorder interface {
	RecordHeartbeat(ctx context.Context, ownerID, deviceID, status string) (*device.Device, error)
}

// LogAppender appends device logs. telemetry.Store implements it.
type LogAppender interface {
	Append(ctx context.Context, ownerID, deviceID string, event telemetry.Event, value *float64) (*telemetry.Log, error)
}

// Logger defines the logging interface used by the Bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// heartbeatMessage is the payload on telemetry/ingest/{owner}/{device}/heartbeat.
// An empty payload is a heartbeat without a status.
type heartbeatMessage struct {
	Status string `json:"status"`
}

// logMessage is the payload on telemetry/ingest/{owner}/{device}/logs.
type logMessage struct {
	Event telemetry.Event `json:"event"`
	Value *float64        `json:"value"`
}

// Bridge feeds device messages from the broker into the registry and log
// store. Ownership is taken from the topic and checked by the same guard
// as HTTP requests.
type Bridge struct {
	sub        Subscriber
	heartbeats HeartbeatRecorder
	logs       LogAppender
	qos        byte
	logger     Logger

	mu     sync.Mutex
	ctx    context.Context
	topics []string
}

// New creates an ingest bridge. Call Start to subscribe.
func New(sub Subscriber, heartbeats HeartbeatRecorder, logs LogAppender, qos byte) *Bridge {
	return &Bridge{
		sub:        sub,
		heartbeats: heartbeats,
		logs:       logs,
		qos:        qos,
		logger:     noopLogger{},
		ctx:        context.Background(),
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.logger = logger
}

// Start subscribes to the heartbeat and log ingest topics. Message handling
// uses ctx as its parent, so cancelling ctx aborts in-flight storage calls.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ctx = ctx
	subs := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{mqtt.Topics{}.AllIngest(mqtt.IngestHeartbeat), b.handleHeartbeat},
		{mqtt.Topics{}.AllIngest(mqtt.IngestLogs), b.handleLog},
	}

	for _, s := range subs {
		if err := b.sub.Subscribe(s.topic, b.qos, s.handler); err != nil {
			return fmt.Errorf("subscribing to %s: %w", s.topic, err)
		}
		b.topics = append(b.topics, s.topic)
		b.logger.Info("ingest subscribed", "topic", s.topic)
	}
	return nil
}

// Stop unsubscribes from every topic Start subscribed to.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for _, topic := range b.topics {
		if err := b.sub.Unsubscribe(topic); err != nil {
			errs = append(errs, fmt.Errorf("unsubscribing from %s: %w", topic, err))
		}
	}
	b.topics = nil
	return errors.Join(errs...)
}

func (b *Bridge) handleHeartbeat(topic string, payload []byte) error {
	ownerID, deviceID, ok := b.parse(topic, mqtt.IngestHeartbeat)
	if !ok {
		return nil
	}

	var msg heartbeatMessage
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &msg); err != nil {
			b.logger.Warn("dropping malformed heartbeat", "topic", topic, "error", err)
			return nil
		}
	}

	ctx, cancel := b.messageContext()
	defer cancel()

	if _, err := b.heartbeats.RecordHeartbeat(ctx, ownerID, deviceID, msg.Status); err != nil {
		return b.reject(topic, err)
	}
	return nil
}

func (b *Bridge) handleLog(topic string, payload []byte) error {
	ownerID, deviceID, ok := b.parse(topic, mqtt.IngestLogs)
	if !ok {
		return nil
	}

	var msg logMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.logger.Warn("dropping malformed log", "topic", topic, "error", err)
		return nil
	}

	ctx, cancel := b.messageContext()
	defer cancel()

	if _, err := b.logs.Append(ctx, ownerID, deviceID, msg.Event, msg.Value); err != nil {
		return b.reject(topic, err)
	}
	return nil
}

func (b *Bridge) parse(topic, want string) (ownerID, deviceID string, ok bool) {
	ownerID, deviceID, kind, ok := mqtt.ParseIngest(topic)
	if !ok || kind != want {
		b.logger.Warn("ignoring message on unexpected topic", "topic", topic)
		return "", "", false
	}
	return ownerID, deviceID, true
}

func (b *Bridge) messageContext() (context.Context, context.CancelFunc) {
	b.mu.Lock()
	parent := b.ctx
	b.mu.Unlock()
	return context.WithTimeout(parent, handleTimeout)
}

// reject logs client-side failures and returns storage failures so the
// MQTT client logs them as handler errors.
func (b *Bridge) reject(topic string, err error) error {
	if errors.Is(err, device.ErrNotFoundOrUnauthorized) ||
		errors.Is(err, device.ErrValidation) ||
		errors.Is(err, telemetry.ErrValidation) {
		b.logger.Warn("ingest message rejected", "topic", topic, "error", err)
		return nil
	}
	return fmt.Errorf("ingesting %s: %w", topic, err)
}
