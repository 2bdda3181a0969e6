package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MockEventPublisher captures published events for tests.
type MockEventPublisher struct {
	logger *slog.Logger

	mu     sync.Mutex
	events []*AccountEvent
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (m *MockEventPublisher) Publish(_ context.Context, event *AccountEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)

	if m.logger != nil {
		m.logger.Debug("mock event published", "type", event.Type, "account_id", event.AccountID)
	}
	return nil
}

func (m *MockEventPublisher) Close() error {
	return nil
}

// GetPublishedEvents returns a snapshot of everything published so far.
func (m *MockEventPublisher) GetPublishedEvents() []*AccountEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*AccountEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Reset clears captured events.
func (m *MockEventPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
