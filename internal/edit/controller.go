// Package edit implements the single-cell inline edit session as an explicit
// state machine.
package edit

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Veraticus/ledgerflow/internal/codec"
	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/service"
)

// ErrNoSession is returned when an operation needs an open edit session.
var ErrNoSession = errors.New("no edit session for record")

// State of the controller.
type State int

// States.
const (
	StateIdle State = iota
	StateEditing
)

func (s State) String() string {
	if s == StateEditing {
		return "editing"
	}
	return "idle"
}

// Transition describes what Start did.
type Transition int

// Transitions.
const (
	// Started opened a session from Idle.
	Started Transition = iota
	// Resumed re-focused the cell already being edited; the buffer is kept.
	Resumed
	// Switched moved to a different cell, discarding the prior buffer unsaved.
	Switched
)

func (t Transition) String() string {
	switch t {
	case Resumed:
		return "resumed"
	case Switched:
		return "switched"
	}
	return "started"
}

// Session is the single in-flight edit.
type Session struct {
	RecordID string
	Field    model.Field
	Seed     string
	Buffer   string
}

// Dirty reports whether the buffer differs from its seed.
func (s Session) Dirty() bool {
	return s.Buffer != s.Seed
}

// Controller owns at most one Session.
type Controller struct {
	store   service.Store
	fields  *codec.Fields
	session *Session
}

// NewController creates an idle controller that saves through store.
func NewController(store service.Store, fields *codec.Fields) *Controller {
	return &Controller{store: store, fields: fields}
}

// State returns the current state.
func (c *Controller) State() State {
	if c.session != nil {
		return StateEditing
	}
	return StateIdle
}

// Session returns the open session, if any.
func (c *Controller) Session() (Session, bool) {
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Start opens a session on (recordID, field) seeded with current.
func (c *Controller) Start(recordID string, field model.Field, current string) (Transition, error) {
	if !field.Valid() {
		return Started, common.NewValidationError("field", string(field), codec.ErrUnknownField)
	}

	transition := Started
	if prev := c.session; prev != nil {
		if prev.RecordID == recordID && prev.Field == field {
			return Resumed, nil
		}
		transition = Switched
		if prev.Dirty() {
			slog.Warn("Discarding unsaved edit",
				"record", prev.RecordID,
				"field", prev.Field,
				"buffer", prev.Buffer)
		}
	}

	c.session = &Session{RecordID: recordID, Field: field, Seed: current, Buffer: current}
	slog.Debug("Edit session opened", "record", recordID, "field", field, "transition", transition)
	return transition, nil
}

// SetBuffer replaces the buffer. Amount buffers are re-masked on every call.
func (c *Controller) SetBuffer(raw string) (string, error) {
	if c.session == nil {
		return "", ErrNoSession
	}
	if c.session.Field == model.FieldAmount {
		raw = c.fields.Currency().Mask(raw)
	}
	c.session.Buffer = raw
	return raw, nil
}

// Commit saves the session for recordID. It returns (nil, nil) when there was
// nothing to save. On a decode or store error the session stays open for retry.
func (c *Controller) Commit(ctx context.Context, recordID string) (*model.Transaction, error) {
	s := c.session
	if s == nil || s.RecordID != recordID {
		return nil, ErrNoSession
	}

	if !s.Dirty() {
		c.session = nil
		return nil, nil
	}
	if codec.RequiresText(s.Field) && strings.TrimSpace(s.Buffer) == "" {
		slog.Debug("Empty required text, closing edit without saving", "record", recordID, "field", s.Field)
		c.session = nil
		return nil, nil
	}

	decoded, err := c.fields.Decode(s.Field, s.Buffer)
	if err != nil {
		return nil, err
	}

	patch := decoded.Patch
	if decoded.NeedsBeneficiary() {
		beneficiary, err := c.store.ResolveOrCreateBeneficiary(ctx, decoded.BeneficiaryName)
		if err != nil {
			return nil, common.NewStoreError("resolve beneficiary", decoded.BeneficiaryName, err)
		}
		patch = decoded.WithBeneficiary(beneficiary.ID)
	}

	updated, err := c.store.UpdateTransaction(ctx, recordID, patch)
	if err != nil {
		return nil, common.NewStoreError("update transaction", recordID, err)
	}

	c.session = nil
	slog.Debug("Edit saved", "record", recordID, "field", s.Field)
	return updated, nil
}

// Cancel discards any open session without touching the store. It reports
// whether a session was open.
func (c *Controller) Cancel() bool {
	open := c.session != nil
	c.session = nil
	return open
}
