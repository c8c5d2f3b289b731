package device

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const (
	ownerA = "user-a"
	ownerB = "user-b"
)

func newTestRegistry(t *testing.T) (*Registry, *recordingPublisher) {
	t.Helper()
	reg := NewRegistry(NewMockRepository())
	pub := &recordingPublisher{}
	reg.SetPublisher(pub)
	return reg, pub
}

func mustRegister(t *testing.T, reg *Registry, owner, name, typ string) *Device {
	t.Helper()
	d, err := reg.Register(context.Background(), owner, RegisterRequest{Name: name, Type: typ})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return d
}

func TestRegister(t *testing.T) {
	reg, pub := newTestRegistry(t)

	d := mustRegister(t, reg, ownerA, "thermo", "sensor")

	if !strings.HasPrefix(d.ID, "dev-") {
		t.Errorf("ID = %q, want dev- prefix", d.ID)
	}
	if d.Status != StatusInactive {
		t.Errorf("Status = %q, want %q", d.Status, StatusInactive)
	}
	if d.LastActiveAt != nil {
		t.Errorf("LastActiveAt = %v, want nil", d.LastActiveAt)
	}
	if d.OwnerID != ownerA {
		t.Errorf("OwnerID = %q, want %q", d.OwnerID, ownerA)
	}
	if got := pub.types(); len(got) != 1 || got[0] != "device.registered" {
		t.Errorf("published = %v, want [device.registered]", got)
	}
}

func TestRegister_ExplicitStatus(t *testing.T) {
	reg, _ := newTestRegistry(t)

	d, err := reg.Register(context.Background(), ownerA, RegisterRequest{Name: "m", Type: "meter", Status: "active"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if d.Status != "active" {
		t.Errorf("Status = %q, want active", d.Status)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name  string
		owner string
		req   RegisterRequest
	}{
		{name: "missing name", owner: ownerA, req: RegisterRequest{Type: "sensor"}},
		{name: "missing type", owner: ownerA, req: RegisterRequest{Name: "thermo"}},
		{name: "missing owner", owner: "", req: RegisterRequest{Name: "thermo", Type: "sensor"}},
		{name: "name too long", owner: ownerA, req: RegisterRequest{Name: strings.Repeat("a", maxNameLength+1), Type: "sensor"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockRepository()
			reg := NewRegistry(repo)

			_, err := reg.Register(context.Background(), tt.owner, tt.req)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Register() error = %v, want ErrValidation", err)
			}
			if len(repo.devices) != 0 {
				t.Error("device stored despite validation failure")
			}
		})
	}
}

func TestRegister_RepositoryError(t *testing.T) {
	repo := NewMockRepository()
	repo.createErr = errors.New("disk full")
	reg := NewRegistry(repo)

	_, err := reg.Register(context.Background(), ownerA, RegisterRequest{Name: "a", Type: "b"})
	if err == nil || errors.Is(err, ErrValidation) {
		t.Errorf("Register() error = %v, want persistence error", err)
	}
}

func TestList_RoundTripAndFilter(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	thermo := mustRegister(t, reg, ownerA, "thermo", "sensor")
	mustRegister(t, reg, ownerA, "plug", "switch")
	mustRegister(t, reg, ownerB, "other", "sensor")

	all, err := reg.List(ctx, ownerA, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List() = %d devices, want 2", len(all))
	}
	if all[0].ID != thermo.ID || all[0].Name != "thermo" || all[0].Type != "sensor" || all[0].Status != StatusInactive {
		t.Errorf("first device = %+v", all[0])
	}

	sensors, err := reg.List(ctx, ownerA, Filter{Type: "sensor"})
	if err != nil {
		t.Fatalf("List(type) error = %v", err)
	}
	if len(sensors) != 1 || sensors[0].ID != thermo.ID {
		t.Errorf("List(type=sensor) = %+v, want only thermo", sensors)
	}

	active, err := reg.List(ctx, ownerA, Filter{Status: "active"})
	if err != nil {
		t.Fatalf("List(status) error = %v", err)
	}
	if len(active) != 0 {
		t.Errorf("List(status=active) = %d devices, want 0", len(active))
	}
}

func TestUpdate_PartialAndFalsyFields(t *testing.T) {
	reg, pub := newTestRegistry(t)
	ctx := context.Background()
	d := mustRegister(t, reg, ownerA, "thermo", "sensor")

	updated, err := reg.Update(ctx, ownerA, d.ID, Patch{
		Name:   Some(""),
		Status: Some("active"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "thermo" {
		t.Errorf("Name = %q, want unchanged thermo", updated.Name)
	}
	if updated.Status != "active" {
		t.Errorf("Status = %q, want active", updated.Status)
	}
	if updated.Type != "sensor" {
		t.Errorf("Type = %q, want unchanged sensor", updated.Type)
	}

	seen := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	updated, err = reg.Update(ctx, ownerA, d.ID, Patch{LastActiveAt: Some(seen)})
	if err != nil {
		t.Fatalf("Update(last_active_at) error = %v", err)
	}
	if updated.LastActiveAt == nil || !updated.LastActiveAt.Equal(seen) {
		t.Errorf("LastActiveAt = %v, want %v", updated.LastActiveAt, seen)
	}

	updated, err = reg.Update(ctx, ownerA, d.ID, Patch{LastActiveAt: Some(time.Time{})})
	if err != nil {
		t.Fatalf("Update(zero time) error = %v", err)
	}
	if updated.LastActiveAt == nil || !updated.LastActiveAt.Equal(seen) {
		t.Errorf("zero time should be ignored, LastActiveAt = %v", updated.LastActiveAt)
	}

	if got := pub.types(); len(got) != 4 || got[1] != "device.updated" {
		t.Errorf("published = %v", got)
	}
}

func TestDelete(t *testing.T) {
	reg, pub := newTestRegistry(t)
	ctx := context.Background()
	d := mustRegister(t, reg, ownerA, "thermo", "sensor")

	deleted, err := reg.Delete(ctx, ownerA, d.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted.ID != d.ID || deleted.Name != "thermo" {
		t.Errorf("deleted = %+v, want the registered device", deleted)
	}

	if _, err := reg.Resolve(ctx, ownerA, d.ID); !errors.Is(err, ErrNotFoundOrUnauthorized) {
		t.Errorf("Resolve() after delete error = %v, want ErrNotFoundOrUnauthorized", err)
	}
	if _, err := reg.Delete(ctx, ownerA, d.ID); !errors.Is(err, ErrNotFoundOrUnauthorized) {
		t.Errorf("second Delete() error = %v, want ErrNotFoundOrUnauthorized", err)
	}
	if got := pub.types(); got[len(got)-1] != "device.deleted" {
		t.Errorf("last published = %v, want device.deleted", got)
	}
}

func TestRecordHeartbeat(t *testing.T) {
	reg, pub := newTestRegistry(t)
	ctx := context.Background()
	d := mustRegister(t, reg, ownerA, "thermo", "sensor")

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg.SetClock(func() time.Time { return clock })

	first, err := reg.RecordHeartbeat(ctx, ownerA, d.ID, "")
	if err != nil {
		t.Fatalf("RecordHeartbeat() error = %v", err)
	}
	if first.LastActiveAt == nil || !first.LastActiveAt.Equal(clock) {
		t.Fatalf("LastActiveAt = %v, want %v", first.LastActiveAt, clock)
	}
	if first.Status != StatusInactive {
		t.Errorf("Status = %q, want unchanged inactive", first.Status)
	}

	clock = clock.Add(1500 * time.Millisecond)
	second, err := reg.RecordHeartbeat(ctx, ownerA, d.ID, "active")
	if err != nil {
		t.Fatalf("second RecordHeartbeat() error = %v", err)
	}
	if second.LastActiveAt.Before(*first.LastActiveAt) {
		t.Errorf("LastActiveAt went backwards: %v then %v", first.LastActiveAt, second.LastActiveAt)
	}
	if second.Status != "active" {
		t.Errorf("Status = %q, want active", second.Status)
	}
	if got := FormatISO(*second.LastActiveAt); got != "2026-03-01T12:00:01.500Z" {
		t.Errorf("FormatISO() = %q", got)
	}

	// Heartbeats fan nothing out beyond the registration event.
	if got := pub.types(); len(got) != 1 {
		t.Errorf("published = %v, want only device.registered", got)
	}
}

func TestRecordHeartbeat_StatusTooLong(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	d := mustRegister(t, reg, ownerA, "thermo", "sensor")

	_, err := reg.RecordHeartbeat(ctx, ownerA, d.ID, strings.Repeat("s", maxStatusLength+1))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("RecordHeartbeat() error = %v, want ErrValidation", err)
	}

	got, err := reg.Resolve(ctx, ownerA, d.ID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.LastActiveAt != nil || got.Status != StatusInactive {
		t.Errorf("device changed by rejected heartbeat: %+v", got)
	}
}

func TestCrossTenantIsolation(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	d := mustRegister(t, reg, ownerA, "thermo", "sensor")

	ops := map[string]func() error{
		"Resolve": func() error {
			_, err := reg.Resolve(ctx, ownerB, d.ID)
			return err
		},
		"Update": func() error {
			_, err := reg.Update(ctx, ownerB, d.ID, Patch{Name: Some("stolen")})
			return err
		},
		"Delete": func() error {
			_, err := reg.Delete(ctx, ownerB, d.ID)
			return err
		},
		"RecordHeartbeat": func() error {
			_, err := reg.RecordHeartbeat(ctx, ownerB, d.ID, "active")
			return err
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			if err := op(); !errors.Is(err, ErrNotFoundOrUnauthorized) {
				t.Errorf("%s() as other owner error = %v, want ErrNotFoundOrUnauthorized", name, err)
			}
		})
	}

	listed, err := reg.List(ctx, ownerB, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("List() as other owner = %d devices, want 0", len(listed))
	}

	got, err := reg.Resolve(ctx, ownerA, d.ID)
	if err != nil {
		t.Fatalf("Resolve() as owner error = %v", err)
	}
	if got.Name != "thermo" || got.Status != StatusInactive || got.LastActiveAt != nil {
		t.Errorf("device mutated by other owner: %+v", got)
	}
}

func TestResolve_UnknownDevice(t *testing.T) {
	reg, _ := newTestRegistry(t)

	if _, err := reg.Resolve(context.Background(), ownerA, "dev-missing"); !errors.Is(err, ErrNotFoundOrUnauthorized) {
		t.Errorf("Resolve() error = %v, want ErrNotFoundOrUnauthorized", err)
	}
}
