package telegraph

import (
	"context"
	"sync"
)

// MockNotifier records digests for tests. Err, when set, is returned from
// every Notify call after recording.
type MockNotifier struct {
	mu   sync.Mutex
	name string
	sent []Digest
	Err  error
}

// NewMockNotifier returns a MockNotifier reporting name.
func NewMockNotifier(name string) *MockNotifier {
	return &MockNotifier{name: name}
}

// Name returns the configured name.
func (m *MockNotifier) Name() string { return m.name }

// Notify records d.
func (m *MockNotifier) Notify(ctx context.Context, d Digest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, d)
	return m.Err
}

// SentCount returns the number of digests received.
func (m *MockNotifier) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// LastSent returns the most recent digest, or false if none.
func (m *MockNotifier) LastSent() (Digest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return Digest{}, false
	}
	return m.sent[len(m.sent)-1], true
}
