// Package bulk runs one store mutation per selected transaction and
// aggregates the outcomes.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/ledgerflow/internal/codec"
	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/service"
)

// Operation is a bulk action.
type Operation string

// Bulk operations.
const (
	OpConfirm   Operation = "confirm"
	OpDelete    Operation = "delete"
	OpDuplicate Operation = "duplicate"
	OpSetField  Operation = "set-field"
)

// ErrUnknownOperation is returned for operations the executor does not know.
var ErrUnknownOperation = errors.New("unknown bulk operation")

// ParseOperation resolves an operation by name.
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(s))); op {
	case OpConfirm, OpDelete, OpDuplicate, OpSetField:
		return op, nil
	}
	return "", common.NewValidationError("operation", s, ErrUnknownOperation)
}

// Policy decides which outcomes of a batch reach local state.
type Policy string

// Policies.
const (
	// AllOrNothing applies nothing locally when any call fails.
	AllOrNothing Policy = "all-or-nothing"
	// ApplySucceeded applies every succeeded call even if others failed.
	ApplySucceeded Policy = "apply-succeeded"
)

// ParsePolicy resolves a policy by name; the empty string is AllOrNothing.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case "":
		return AllOrNothing, nil
	case AllOrNothing, ApplySucceeded:
		return p, nil
	}
	return "", fmt.Errorf("unknown bulk policy %q", s)
}

// Request describes one batch. Field and Value are used by OpSetField.
type Request struct {
	Op    Operation
	Field model.Field
	Value string
}

// Progress is told how many calls of the batch have completed.
type Progress func(done, total int)

// Executor fans a request out to the store.
type Executor struct {
	store  service.Store
	fields *codec.Fields
	now    func() time.Time
	policy Policy
	limit  int
}

// Option configures an Executor.
type Option func(*Executor)

// WithConcurrency caps the number of in-flight store calls. Zero or less means unlimited.
func WithConcurrency(n int) Option {
	return func(e *Executor) { e.limit = n }
}

// WithPolicy sets the local-state policy.
func WithPolicy(p Policy) Option {
	return func(e *Executor) { e.policy = p }
}

// WithClock overrides the clock used to date duplicates.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// NewExecutor creates an executor for store.
func NewExecutor(store service.Store, fields *codec.Fields, opts ...Option) *Executor {
	e := &Executor{
		store:  store,
		fields: fields,
		now:    time.Now,
		policy: AllOrNothing,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type call func(ctx context.Context, t model.Transaction) (*model.Transaction, bool, error)

// Run issues one store call per target concurrently and waits for all of them.
// The returned error is a *BatchError when any call failed, or a validation or
// store error when the request could not be dispatched at all. The Result is
// always populated for dispatched batches.
func (e *Executor) Run(ctx context.Context, req Request, targets []model.Transaction, progress Progress) (Result, error) {
	fn, err := e.prepare(ctx, req)
	if err != nil {
		return Result{Op: req.Op, Policy: e.policy}, err
	}

	result := Result{
		Op:       req.Op,
		Policy:   e.policy,
		Outcomes: make([]Outcome, len(targets)),
	}
	if len(targets) == 0 {
		return result, nil
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		done int
	)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i, target := range targets {
		g.Go(func() error {
			record, skipped, err := fn(ctx, target)
			if err != nil {
				err = common.NewStoreError(string(req.Op), target.ID, err)
			}
			result.Outcomes[i] = Outcome{ID: target.ID, Record: record, Skipped: skipped, Err: err}

			if progress != nil {
				mu.Lock()
				done++
				progress(done, len(targets))
				mu.Unlock()
			}
			return err
		})
	}
	_ = g.Wait()

	failed := result.Failed()
	if len(failed) == 0 {
		slog.Info("Bulk operation applied", "operation", req.Op, "records", len(targets))
		return result, nil
	}

	if e.policy == AllOrNothing && len(result.Succeeded()) > 0 {
		slog.Warn("Bulk operation partially applied by the store; local state left unchanged",
			"operation", req.Op,
			"succeeded", len(result.Succeeded()),
			"failed", len(failed))
	}
	return result, newBatchError(req.Op, len(targets), failed)
}

func (e *Executor) prepare(ctx context.Context, req Request) (call, error) {
	switch req.Op {
	case OpConfirm:
		return e.confirm, nil

	case OpDelete:
		return func(ctx context.Context, t model.Transaction) (*model.Transaction, bool, error) {
			return nil, false, e.store.DeleteTransaction(ctx, t.ID)
		}, nil

	case OpDuplicate:
		today := e.now()
		return func(ctx context.Context, t model.Transaction) (*model.Transaction, bool, error) {
			created, err := e.store.CreateTransaction(ctx, t.Duplicate(today))
			return created, false, err
		}, nil

	case OpSetField:
		patch, err := e.decodeOnce(ctx, req)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, t model.Transaction) (*model.Transaction, bool, error) {
			updated, err := e.store.UpdateTransaction(ctx, t.ID, patch)
			return updated, false, err
		}, nil
	}
	return nil, common.NewValidationError("operation", string(req.Op), ErrUnknownOperation)
}

// decodeOnce turns the raw value into the single patch every record receives.
// A beneficiary name is resolved exactly once for the whole batch.
func (e *Executor) decodeOnce(ctx context.Context, req Request) (model.TransactionPatch, error) {
	decoded, err := e.fields.Decode(req.Field, req.Value)
	if err != nil {
		return model.TransactionPatch{}, err
	}
	if !decoded.NeedsBeneficiary() {
		return decoded.Patch, nil
	}
	beneficiary, err := e.store.ResolveOrCreateBeneficiary(ctx, decoded.BeneficiaryName)
	if err != nil {
		return model.TransactionPatch{}, common.NewStoreError("resolve beneficiary", decoded.BeneficiaryName, err)
	}
	return decoded.WithBeneficiary(beneficiary.ID), nil
}

// confirm settles card charges through the invoice path and flips the flag
// for everything else. Already confirmed records are skipped.
func (e *Executor) confirm(ctx context.Context, t model.Transaction) (*model.Transaction, bool, error) {
	if t.Confirmed {
		return nil, true, nil
	}
	if t.IsCardCharge() {
		confirmed, err := e.store.ConfirmCreditCardCharge(ctx, t.ID)
		return confirmed, false, err
	}
	yes := true
	updated, err := e.store.UpdateTransaction(ctx, t.ID, model.TransactionPatch{Confirmed: &yes})
	return updated, false, err
}
