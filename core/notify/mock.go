package notify

import (
	"context"
	"fmt"
	"sync"
)

// MockNotifier is a simple notifier used in tests.
type MockNotifier struct {
	Messages   map[string][]string
	FailPhones map[string]bool
	mu         sync.Mutex
}

// NewMockNotifier creates a new MockNotifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		Messages:   make(map[string][]string),
		FailPhones: make(map[string]bool),
	}
}

// SendAlert records the message or returns an error if configured to fail.
func (m *MockNotifier) SendAlert(_ context.Context, phone, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPhones[phone] {
		return fmt.Errorf("send to %s failed", phone)
	}
	m.Messages[phone] = append(m.Messages[phone], message)
	return nil
}

// Sent returns the number of messages delivered to phone.
func (m *MockNotifier) Sent(phone string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages[phone])
}
