package messaging

import (
	"context"
	"sync"
)

// MockMessageSender records messages in memory for testing.
type MockMessageSender struct {
	mu       sync.Mutex
	messages []*OrderPlacedMessage
	// Err, when set, is returned from every send
	Err error
}

// NewMockMessageSender creates a new MockMessageSender.
func NewMockMessageSender() *MockMessageSender {
	return &MockMessageSender{}
}

// SendOrderPlaced records the message.
func (m *MockMessageSender) SendOrderPlaced(_ context.Context, msg *OrderPlacedMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns the recorded messages.
func (m *MockMessageSender) Messages() []*OrderPlacedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*OrderPlacedMessage(nil), m.messages...)
}

// Close does nothing.
func (m *MockMessageSender) Close() error {
	return nil
}

// Ensure MockMessageSender implements MessageSender
var _ MessageSender = (*MockMessageSender)(nil)
