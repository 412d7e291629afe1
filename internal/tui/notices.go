package tui

import (
	"sync"

	"github.com/Veraticus/ledgerflow/internal/engine"
)

// Notices queues engine notifications until the UI shows them. Store calls
// run off the UI loop, so the engine may notify from any goroutine.
type Notices struct {
	pending []engine.Notification
	mu      sync.Mutex
}

var _ engine.Notifier = (*Notices)(nil)

// NewNotices creates an empty queue. Pass it to the engine as its notifier
// and to Run with WithNotices.
func NewNotices() *Notices {
	return &Notices{}
}

// Notify implements engine.Notifier.
func (n *Notices) Notify(notification engine.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = append(n.pending, notification)
}

// Drain returns and clears the queued notifications.
func (n *Notices) Drain() []engine.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.pending
	n.pending = nil
	return out
}
