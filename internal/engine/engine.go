// Package engine hosts the filtering, selection, inline edit and bulk
// mutation state for one transaction list.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/ledgerflow/internal/bulk"
	"github.com/Veraticus/ledgerflow/internal/codec"
	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/edit"
	"github.com/Veraticus/ledgerflow/internal/filter"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/selection"
)

// Engine errors.
var (
	// ErrSelectionActive is returned for row-level actions while records are selected.
	ErrSelectionActive = errors.New("row actions are disabled while records are selected")
	// ErrRecordNotFound is returned for ids not in the loaded collection.
	ErrRecordNotFound = errors.New("record not loaded")
	// ErrEmptySelection is returned when a bulk action has nothing to act on.
	ErrEmptySelection = errors.New("no records selected")
)

// Config holds configuration options for the engine.
type Config struct {
	Policy      bulk.Policy
	Locale      codec.Locale
	Concurrency int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Policy: bulk.AllOrNothing,
		Locale: codec.LocalePtBR,
	}
}

// Engine owns the loaded records and every piece of interactive state. It is
// not safe for concurrent use; the host serializes calls.
type Engine struct {
	store     Store
	notifier  Notifier
	fields    *codec.Fields
	catalog   *filter.Catalog
	selection *selection.Controller
	editor    *edit.Controller
	executor  *bulk.Executor
	index     map[string]int
	search    string
	view      filter.View
	records   []model.Transaction
	filters   []filter.ActiveFilter
}

// New creates an engine with the default configuration.
func New(store Store, notifier Notifier, opts ...bulk.Option) *Engine {
	return NewWithConfig(store, notifier, DefaultConfig(), opts...)
}

// NewWithConfig creates an engine with a custom configuration. Extra bulk
// options are applied after the ones derived from config.
func NewWithConfig(store Store, notifier Notifier, config Config, opts ...bulk.Option) *Engine {
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}
	if config.Locale.Name == "" {
		config.Locale = codec.LocalePtBR
	}
	if config.Policy == "" {
		config.Policy = bulk.AllOrNothing
	}
	fields := codec.NewFields(codec.NewCurrency(config.Locale))

	bulkOpts := append([]bulk.Option{
		bulk.WithPolicy(config.Policy),
		bulk.WithConcurrency(config.Concurrency),
	}, opts...)

	return &Engine{
		store:     store,
		notifier:  notifier,
		fields:    fields,
		catalog:   filter.NewCatalog(filter.Sources{}),
		selection: selection.New(),
		editor:    edit.NewController(store, fields),
		executor:  bulk.NewExecutor(store, fields, bulkOpts...),
		index:     make(map[string]int),
		view:      filter.View{Tab: filter.TabAll, Scope: filter.Scope{Kind: filter.ScopeAll}},
	}
}

// Load fetches reference data and transactions and rebuilds the catalog.
// Selected ids that no longer exist are dropped.
func (e *Engine) Load(ctx context.Context) error {
	accounts, err := e.store.ListAccounts(ctx)
	if err != nil {
		return e.storeFailed("load accounts", common.NewStoreError("list accounts", "", err))
	}
	cards, err := e.store.ListCreditCards(ctx)
	if err != nil {
		return e.storeFailed("load credit cards", common.NewStoreError("list credit cards", "", err))
	}
	categories, err := e.store.ListCategories(ctx)
	if err != nil {
		return e.storeFailed("load categories", common.NewStoreError("list categories", "", err))
	}
	records, err := e.store.ListTransactions(ctx)
	if err != nil {
		return e.storeFailed("load transactions", common.NewStoreError("list transactions", "", err))
	}

	e.catalog = filter.NewCatalog(filter.Sources{
		Accounts:    accounts,
		CreditCards: cards,
		Categories:  categories,
	})
	e.setRecords(records)

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	e.selection.Retain(ids)

	slog.Debug("Engine loaded",
		"transactions", len(records),
		"accounts", len(accounts),
		"credit_cards", len(cards),
		"categories", len(categories))
	return nil
}

func (e *Engine) setRecords(records []model.Transaction) {
	e.records = records
	e.index = make(map[string]int, len(records))
	for i, r := range records {
		e.index[r.ID] = i
	}
}

// Catalog returns the field catalog built by the last Load.
func (e *Engine) Catalog() *filter.Catalog { return e.catalog }

// Fields returns the field codec used for edits.
func (e *Engine) Fields() *codec.Fields { return e.fields }

// Records returns every loaded record.
func (e *Engine) Records() []model.Transaction {
	out := make([]model.Transaction, len(e.records))
	copy(out, e.records)
	return out
}

// Record returns the loaded record with id.
func (e *Engine) Record(id string) (model.Transaction, bool) {
	i, ok := e.index[id]
	if !ok {
		return model.Transaction{}, false
	}
	return e.records[i], true
}

// SetActiveFilters replaces the active filter list.
func (e *Engine) SetActiveFilters(filters []filter.ActiveFilter) {
	e.filters = append([]filter.ActiveFilter(nil), filters...)
}

// AddFilter appends one filter.
func (e *Engine) AddFilter(f filter.ActiveFilter) {
	e.filters = append(e.filters, f)
}

// RemoveFilter drops the filter with id and reports whether it existed.
func (e *Engine) RemoveFilter(id string) bool {
	for i, f := range e.filters {
		if f.ID() == id {
			e.filters = append(e.filters[:i:i], e.filters[i+1:]...)
			return true
		}
	}
	return false
}

// ActiveFilters returns the active filter list.
func (e *Engine) ActiveFilters() []filter.ActiveFilter {
	return append([]filter.ActiveFilter(nil), e.filters...)
}

// SetSearch sets the free-text search term.
func (e *Engine) SetSearch(term string) { e.search = term }

// Search returns the free-text search term.
func (e *Engine) Search() string { return e.search }

// SetView sets the tab and scope.
func (e *Engine) SetView(v filter.View) { e.view = v }

// View returns the tab and scope.
func (e *Engine) View() filter.View { return e.view }

// Evaluate reports whether t is visible under the view, search and filters.
func (e *Engine) Evaluate(t model.Transaction) bool {
	return e.view.Matches(t) && filter.Matches(t, e.filters, e.search)
}

// Visible returns the records passing Evaluate, in load order.
func (e *Engine) Visible() []model.Transaction {
	out := make([]model.Transaction, 0, len(e.records))
	for _, r := range e.records {
		if e.Evaluate(r) {
			out = append(out, r)
		}
	}
	return out
}

// VisibleIDs returns the ids of Visible.
func (e *Engine) VisibleIDs() []string {
	visible := e.Visible()
	ids := make([]string, len(visible))
	for i, r := range visible {
		ids[i] = r.ID
	}
	return ids
}

// ToggleSelection selects or unselects id. Entering selection mode closes
// any open edit session without saving.
func (e *Engine) ToggleSelection(id string) {
	e.selection.Toggle(id)
	e.dropEditInBulkMode()
}

// SelectAll selects exactly the visible records, or clears when they already are.
func (e *Engine) SelectAll() {
	e.selection.SelectAll(e.VisibleIDs())
	e.dropEditInBulkMode()
}

// ClearSelection empties the selection.
func (e *Engine) ClearSelection() { e.selection.Clear() }

// IsSelected reports whether id is selected.
func (e *Engine) IsSelected(id string) bool { return e.selection.Has(id) }

// SelectedIDs returns the selected ids in sorted order.
func (e *Engine) SelectedIDs() []string { return e.selection.IDs() }

// Mode returns inline or bulk mode.
func (e *Engine) Mode() selection.Mode { return e.selection.Mode() }

func (e *Engine) dropEditInBulkMode() {
	if e.selection.Mode() == selection.ModeBulk && e.editor.Cancel() {
		slog.Debug("Edit session closed by selection")
	}
}

// StartEdit opens an inline edit on (id, field) seeded from the record's
// current value.
func (e *Engine) StartEdit(id string, field model.Field) (edit.Transition, error) {
	if e.selection.Mode() == selection.ModeBulk {
		return edit.Started, ErrSelectionActive
	}
	record, ok := e.Record(id)
	if !ok {
		return edit.Started, common.NewValidationError("record", id, ErrRecordNotFound)
	}
	return e.editor.Start(id, field, e.fields.Encode(field, record))
}

// UpdateEditBuffer replaces the edit buffer and returns what should be shown.
func (e *Engine) UpdateEditBuffer(raw string) (string, error) {
	return e.editor.SetBuffer(raw)
}

// EditSession returns the open edit session.
func (e *Engine) EditSession() (edit.Session, bool) { return e.editor.Session() }

// CommitEdit saves the open session for id. Store failures are notified once
// and leave the session open.
func (e *Engine) CommitEdit(ctx context.Context, id string) error {
	session, _ := e.editor.Session()
	updated, err := e.editor.Commit(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrStore) {
			return e.storeFailed(fmt.Sprintf("update %s", session.Field), err)
		}
		return err
	}
	if updated != nil {
		e.replace(*updated)
	}
	return nil
}

// CancelEdit discards the open session.
func (e *Engine) CancelEdit() { e.editor.Cancel() }

// ToggleStatus flips a single record between confirmed and pending. Card
// charges are confirmed through the settlement call.
func (e *Engine) ToggleStatus(ctx context.Context, id string) error {
	if e.selection.Mode() == selection.ModeBulk {
		return ErrSelectionActive
	}
	record, ok := e.Record(id)
	if !ok {
		return common.NewValidationError("record", id, ErrRecordNotFound)
	}

	var (
		updated *model.Transaction
		err     error
	)
	switch {
	case !record.Confirmed && record.IsCardCharge():
		updated, err = e.store.ConfirmCreditCardCharge(ctx, id)
	default:
		flipped := !record.Confirmed
		updated, err = e.store.UpdateTransaction(ctx, id, model.TransactionPatch{Confirmed: &flipped})
	}
	if err != nil {
		return e.storeFailed("toggle status", common.NewStoreError("toggle status", id, err))
	}
	e.replace(*updated)
	return nil
}

// RunBulk applies req to the selected records. The policy decides which
// outcomes reach local state; a fully successful batch clears the selection.
func (e *Engine) RunBulk(ctx context.Context, req bulk.Request, progress bulk.Progress) (bulk.Result, error) {
	ids := e.selection.IDs()
	if len(ids) == 0 {
		return bulk.Result{Op: req.Op}, common.NewValidationError("selection", "", ErrEmptySelection)
	}

	targets := make([]model.Transaction, 0, len(ids))
	for _, id := range ids {
		if r, ok := e.Record(id); ok {
			targets = append(targets, r)
		}
	}

	result, err := e.executor.Run(ctx, req, targets, progress)
	e.applyBulk(result)

	if err != nil {
		if errors.Is(err, common.ErrStore) {
			return result, e.storeFailed("bulk "+string(req.Op), err)
		}
		return result, err
	}

	e.selection.Clear()
	return result, nil
}

func (e *Engine) applyBulk(result bulk.Result) {
	applied := result.Applicable()
	if len(applied) == 0 {
		return
	}

	removed := make(map[string]struct{})
	var done []string
	for _, o := range applied {
		done = append(done, o.ID)
		switch {
		case result.Op == bulk.OpDelete:
			removed[o.ID] = struct{}{}
		case result.Op == bulk.OpDuplicate && o.Record != nil:
			e.records = append(e.records, *o.Record)
		case o.Record != nil:
			e.records[e.index[o.ID]] = *o.Record
		}
	}

	if len(removed) > 0 {
		kept := e.records[:0]
		for _, r := range e.records {
			if _, gone := removed[r.ID]; !gone {
				kept = append(kept, r)
			}
		}
		e.records = kept
	}
	e.setRecords(e.records)
	e.selection.Remove(done...)
}

func (e *Engine) replace(t model.Transaction) {
	if i, ok := e.index[t.ID]; ok {
		e.records[i] = t
		return
	}
	e.records = append(e.records, t)
	e.index[t.ID] = len(e.records) - 1
}

// storeFailed emits the single notification for a store failure and returns err.
func (e *Engine) storeFailed(op string, err error) error {
	common.LogError(err, "Store request failed", common.Fields{"op": op})
	e.notifier.Notify(Notification{Op: op, Message: userMessage(op, err), Err: err})
	return err
}

func userMessage(op string, err error) string {
	var batch *bulk.BatchError
	if errors.As(err, &batch) {
		return fmt.Sprintf("Could not %s: %d of %d records failed", op, len(batch.Failed), batch.Total)
	}
	return fmt.Sprintf("Could not %s", op)
}
