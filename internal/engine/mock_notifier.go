package engine

import "sync"

// MockNotifier records notifications for tests.
type MockNotifier struct {
	notifications []Notification
	mu            sync.Mutex
}

// NewMockNotifier creates an empty recorder.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{notifications: make([]Notification, 0)}
}

// Notify records n.
func (m *MockNotifier) Notify(n Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
}

// Notifications returns every recorded notification.
func (m *MockNotifier) Notifications() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}

// Reset forgets recorded notifications.
func (m *MockNotifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = m.notifications[:0]
}
