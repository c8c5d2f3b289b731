package device

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/telemetry-core/internal/events"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Guard resolves a device on behalf of an owner. It is the only way other
// packages reach a device: a device owned by someone else is
// indistinguishable from one that does not exist.
type Guard interface {
	Resolve(ctx context.Context, ownerID, deviceID string) (*Device, error)
}

// Registry manages the device lifecycle for each owner.
//
// It holds no device state of its own; every call reads the latest
// committed row from the Repository. All public methods are safe for
// concurrent use.
type Registry struct {
	repo      Repository
	publisher events.Publisher
	logger    Logger
	now       func() time.Time
}

// NewRegistry creates a new device registry backed by repo.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:      repo,
		publisher: events.Nop{},
		logger:    noopLogger{},
		now:       time.Now,
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetPublisher sets where lifecycle events are sent after each committed change.
func (r *Registry) SetPublisher(p events.Publisher) {
	r.publisher = p
}

// SetClock overrides the time source used for heartbeats and event timestamps.
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// Resolve returns the device if ownerID owns it.
// Returns ErrNotFoundOrUnauthorized otherwise.
func (r *Registry) Resolve(ctx context.Context, ownerID, deviceID string) (*Device, error) {
	return r.repo.Get(ctx, ownerID, deviceID)
}

// Register creates a device for ownerID. Status defaults to "inactive".
func (r *Registry) Register(ctx context.Context, ownerID string, req RegisterRequest) (*Device, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrValidation)
	}
	if err := ValidateRegister(req); err != nil {
		return nil, err
	}

	device := &Device{
		ID:        GenerateID(),
		OwnerID:   ownerID,
		Name:      req.Name,
		Type:      req.Type,
		Status:    req.Status,
		CreatedAt: r.now().UTC(),
	}
	if device.Status == "" {
		device.Status = StatusInactive
	}

	if err := r.repo.Create(ctx, device); err != nil {
		return nil, fmt.Errorf("creating device: %w", err)
	}

	r.logger.Info("device registered", "device_id", device.ID, "owner_id", ownerID, "type", device.Type)
	r.publish(ctx, events.TypeDeviceRegistered, device)
	return device, nil
}

// List returns the owner's devices matching filter.
func (r *Registry) List(ctx context.Context, ownerID string, filter Filter) ([]Device, error) {
	devices, err := r.repo.List(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	return devices, nil
}

// Update applies the present, non-zero fields of patch to the owner's device.
// Fields supplied with an empty string or zero time are ignored.
func (r *Registry) Update(ctx context.Context, ownerID, id string, patch Patch) (*Device, error) {
	if err := ValidatePatch(patch); err != nil {
		return nil, err
	}

	device, err := r.repo.Update(ctx, ownerID, id, func(d *Device) {
		patch.apply(d)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("device updated", "device_id", id, "owner_id", ownerID)
	r.publish(ctx, events.TypeDeviceUpdated, device)
	return device, nil
}

// Delete removes the owner's device and its logs, returning the deleted record.
func (r *Registry) Delete(ctx context.Context, ownerID, id string) (*Device, error) {
	device, err := r.repo.Delete(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	r.logger.Info("device deleted", "device_id", id, "owner_id", ownerID)
	r.publish(ctx, events.TypeDeviceDeleted, device)
	return device, nil
}

// RecordHeartbeat marks the owner's device as active now and, when status
// is non-empty, sets its status. Repeated calls only advance the timestamp.
func (r *Registry) RecordHeartbeat(ctx context.Context, ownerID, id, status string) (*Device, error) {
	if err := ValidateHeartbeat(status); err != nil {
		return nil, err
	}

	now := r.now().UTC()
	device, err := r.repo.Update(ctx, ownerID, id, func(d *Device) {
		d.LastActiveAt = &now
		if status != "" {
			d.Status = status
		}
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("heartbeat recorded", "device_id", id, "owner_id", ownerID)
	return device, nil
}

func (r *Registry) publish(ctx context.Context, typ events.Type, d *Device) {
	err := r.publisher.Publish(ctx, events.Event{
		Type:      typ,
		OwnerID:   d.OwnerID,
		DeviceID:  d.ID,
		Timestamp: r.now().UTC(),
		Payload:   d,
	})
	if err != nil {
		r.logger.Warn("publishing device event failed", "type", typ, "device_id", d.ID, "error", err)
	}
}

// FormatISO renders t in ISO-8601 UTC with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
