package engine

import (
	"github.com/Veraticus/ledgerflow/internal/service"
)

// Notification is a user-visible report of a failed store interaction.
type Notification struct {
	Err error
	// Op names the action that failed, such as "update" or "bulk delete".
	Op      string
	Message string
}

// Notifier surfaces notifications to the host UI.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

// Store is the collaborator the engine reads from and mutates through.
type Store = service.Store
