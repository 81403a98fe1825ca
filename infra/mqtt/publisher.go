package mqtt

import (
	"context"
	"fmt"
	"sync"

	coremqtt "github.com/kilianp07/fleetcharge/core/mqtt"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	Schedules map[string]coremqtt.StationSchedule
	FailIDs   map[string]bool
	Closed    bool
	mu        sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Schedules: make(map[string]coremqtt.StationSchedule),
		FailIDs:   make(map[string]bool),
	}
}

// PublishSchedule records the schedule or returns an error if configured to fail.
func (m *MockPublisher) PublishSchedule(_ context.Context, s coremqtt.StationSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[s.StationID] {
		return fmt.Errorf("publish failed")
	}
	m.Schedules[s.StationID] = s
	return nil
}

// Close marks the publisher closed.
func (m *MockPublisher) Close() {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
}
