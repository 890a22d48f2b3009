package publisher

import (
	"context"
	"sync"
)

// MockPublisher records published messages for inspection in tests.
type MockPublisher struct {
	PubName     string
	Resp        Responsibility
	PublishErr  error
	CloseErr    error
	Messages    []Message
	ClosedCount int
	mu          sync.Mutex
}

// Name returns the configured mock name.
func (m *MockPublisher) Name() string {
	if m.PubName == "" {
		return "mock"
	}
	return m.PubName
}

// Responsibility returns the configured routing tag.
func (m *MockPublisher) Responsibility() Responsibility { return m.Resp }

// Publish records the message, or fails with PublishErr.
func (m *MockPublisher) Publish(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.Messages = append(m.Messages, msg)
	return nil
}

// Close counts invocations and returns CloseErr.
func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClosedCount++
	return m.CloseErr
}

// Reset clears all recorded messages.
func (m *MockPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = nil
}
