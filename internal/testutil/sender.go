package testutil

import (
	"context"
	"sync"

	"github.com/HerbHall/procinfo/internal/metlog"
)

// Compile-time interface check.
var _ metlog.Sender = (*MockSender)(nil)

// MockSender is a thread-safe in-memory sender that records every message
// for later inspection.
type MockSender struct {
	mu       sync.Mutex
	messages []metlog.Message
	err      error
}

// NewMockSender returns a new MockSender.
func NewMockSender() *MockSender {
	return &MockSender{}
}

// Send records msg, or returns the configured failure without recording.
func (s *MockSender) Send(_ context.Context, msg metlog.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

// FailWith makes subsequent sends return err. A nil err restores success.
func (s *MockSender) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Messages returns a copy of all recorded messages.
func (s *MockSender) Messages() []metlog.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]metlog.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Reset clears all recorded messages.
func (s *MockSender) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}
