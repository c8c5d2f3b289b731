package device

import (
	"context"
	"sync"

	"github.com/nerrad567/telemetry-core/internal/events"
)

// MockRepository is an in-memory Repository for registry tests.
type MockRepository struct {
	mu      sync.Mutex
	devices map[string]*Device
	order   []string

	// For testing error paths
	createErr error
	listErr   error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{devices: make(map[string]*Device)}
}

func (m *MockRepository) Create(_ context.Context, d *Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.devices[d.ID]; ok {
		return ErrDeviceExists
	}
	stored := *d
	m.devices[d.ID] = &stored
	m.order = append(m.order, d.ID)
	return nil
}

func (m *MockRepository) Get(_ context.Context, ownerID, id string) (*Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(ownerID, id)
}

func (m *MockRepository) List(_ context.Context, ownerID string, f Filter) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}
	devices := []Device{}
	for _, id := range m.order {
		d, ok := m.devices[id]
		if !ok || d.OwnerID != ownerID {
			continue
		}
		if (f.Type != "" && d.Type != f.Type) || (f.Status != "" && d.Status != f.Status) {
			continue
		}
		devices = append(devices, *d)
	}
	return devices, nil
}

func (m *MockRepository) Update(_ context.Context, ownerID, id string, mutate func(*Device)) (*Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	mutate(d)
	d.ID, d.OwnerID = id, ownerID
	stored := *d
	m.devices[id] = &stored
	return d, nil
}

func (m *MockRepository) Delete(_ context.Context, ownerID, id string) (*Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	delete(m.devices, id)
	return d, nil
}

// lookup returns a copy of the owner's device. Caller holds mu.
func (m *MockRepository) lookup(ownerID, id string) (*Device, error) {
	d, ok := m.devices[id]
	if !ok || d.OwnerID != ownerID {
		return nil, ErrNotFoundOrUnauthorized
	}
	cp := *d
	return &cp, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, string(e.Type))
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}
