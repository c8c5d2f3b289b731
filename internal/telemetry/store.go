package telemetry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/telemetry-core/internal/device"
	"github.com/nerrad567/telemetry-core/internal/events"
)

// DefaultMaxLimit caps FetchRecent when no maximum is configured.
const DefaultMaxLimit = 500

// MaxValueMagnitude bounds the absolute value of a single log value.
const MaxValueMagnitude = 1e15

const logIDPrefix = "log-"

// Logger defines the logging interface used by the Store.
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

// Store appends and reads device logs. Every operation resolves the device
// through the guard first, so a caller only reaches logs of devices it owns.
type Store struct {
	repo      Repository
	guard     device.Guard
	publisher events.Publisher
	logger    Logger
	now       func() time.Time
	maxLimit  int
}

// NewStore creates a log store.
func NewStore(repo Repository, guard device.Guard) *Store {
	return &Store{
		repo:      repo,
		guard:     guard,
		publisher: events.Nop{},
		logger:    noopLogger{},
		now:       time.Now,
		maxLimit:  DefaultMaxLimit,
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// SetPublisher sets where log.appended events are sent.
func (s *Store) SetPublisher(p events.Publisher) {
	s.publisher = p
}

// SetClock overrides the time source used to stamp new logs.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// SetMaxLimit caps the number of logs FetchRecent returns.
// A value <= 0 removes the cap.
func (s *Store) SetMaxLimit(n int) {
	s.maxLimit = n
}

// Append records an event against the owner's device.
//
// The event kind is checked before anything else, so an invalid kind
// never reaches storage. The log takes its owner from the resolved device.
func (s *Store) Append(ctx context.Context, ownerID, deviceID string, event Event, value *float64) (*Log, error) {
	if !event.Valid() {
		return nil, fmt.Errorf("%w: event %q is not one of units_consumed, status_change, error, other", ErrValidation, event)
	}
	if err := validateValue(value); err != nil {
		return nil, err
	}

	dev, err := s.guard.Resolve(ctx, ownerID, deviceID)
	if err != nil {
		return nil, err
	}

	log := &Log{
		ID:        logIDPrefix + uuid.New().String(),
		DeviceID:  dev.ID,
		OwnerID:   dev.OwnerID,
		Event:     event,
		Value:     value,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Append(ctx, log); err != nil {
		return nil, err
	}

	s.logger.Debug("log appended", "device_id", dev.ID, "owner_id", dev.OwnerID, "event", event)

	if err := s.publisher.Publish(ctx, events.Event{
		Type:      events.TypeLogAppended,
		OwnerID:   log.OwnerID,
		DeviceID:  log.DeviceID,
		Timestamp: log.CreatedAt,
		Kind:      string(log.Event),
		Value:     log.Value,
		Payload:   log,
	}); err != nil {
		s.logger.Warn("publishing log event failed", "device_id", dev.ID, "error", err)
	}

	return log, nil
}

// FetchRecent returns up to limit of the device's newest logs.
// A limit <= 0 means DefaultLimit; limits above the configured maximum
// are reduced to it.
func (s *Store) FetchRecent(ctx context.Context, ownerID, deviceID string, limit int) ([]Entry, error) {
	dev, err := s.guard.Resolve(ctx, ownerID, deviceID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultLimit
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		limit = s.maxLimit
	}

	logs, err := s.repo.Recent(ctx, dev.OwnerID, dev.ID, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, l.Entry())
	}
	return entries, nil
}

// validateValue keeps values finite and small enough that any realistic
// number of them sums without overflowing a float64.
func validateValue(value *float64) error {
	if value == nil {
		return nil
	}
	v := *value
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > MaxValueMagnitude {
		return fmt.Errorf("%w: value must be a finite number between -%g and %g", ErrValidation, MaxValueMagnitude, MaxValueMagnitude)
	}
	return nil
}
