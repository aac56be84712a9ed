package email

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrSimulatedFailure is returned by MockService after FailNext
var ErrSimulatedFailure = errors.New("mock email service: simulated failure")

// MockService records messages in memory instead of delivering them
type MockService struct {
	mu       sync.Mutex
	sent     []Email
	failures int
	notify   chan struct{}
	logger   *slog.Logger
}

// NewMockService creates a new mock email service
func NewMockService(logger *slog.Logger) *MockService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MockService{
		notify: make(chan struct{}, 1),
		logger: logger,
	}
}

// Send records the message, or fails if failures were queued with FailNext
func (m *MockService) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	if m.failures > 0 {
		m.failures--
		m.mu.Unlock()
		m.signal()
		return ErrSimulatedFailure
	}
	m.sent = append(m.sent, email)
	m.mu.Unlock()

	m.logger.Debug("mock email sent",
		"to", email.To,
		"subject", email.Subject,
	)
	m.signal()
	return nil
}

func (m *MockService) signal() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// FailNext makes the next n Send calls fail
func (m *MockService) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures += n
}

// Sent returns a copy of every recorded message
func (m *MockService) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Email, len(m.sent))
	copy(out, m.sent)
	return out
}

// Count returns the number of recorded messages
func (m *MockService) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// Last returns the most recently recorded message
func (m *MockService) Last() (Email, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sent) == 0 {
		return Email{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// Find returns the first message addressed to to
func (m *MockService) Find(to string) (Email, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.sent {
		if e.To == to {
			return e, true
		}
	}
	return Email{}, false
}

// Reset drops recorded messages and pending failures
func (m *MockService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.failures = 0
}

// WaitFor blocks until at least n messages are recorded or timeout elapses.
// It reports whether the count was reached.
func (m *MockService) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if m.Count() >= n {
			return true
		}
		select {
		case <-m.notify:
		case <-deadline.C:
			return m.Count() >= n
		}
	}
}
