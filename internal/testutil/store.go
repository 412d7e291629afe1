package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/service"
)

// Store operation names recorded by FakeStore.
const (
	OpList                = "ListTransactions"
	OpCreate              = "CreateTransaction"
	OpUpdate              = "UpdateTransaction"
	OpDelete              = "DeleteTransaction"
	OpConfirmCard         = "ConfirmCreditCardCharge"
	OpListAccounts        = "ListAccounts"
	OpListCreditCards     = "ListCreditCards"
	OpListCategories      = "ListCategories"
	OpListBeneficiaries   = "ListBeneficiaries"
	OpResolveBeneficiary  = "ResolveOrCreateBeneficiary"
	anyID                 = "*"
	fakeIDPrefix          = "new-"
	fakeBeneficiaryPrefix = "ben-"
)

// ErrFakeNotFound is returned for unknown record ids.
var ErrFakeNotFound = errors.New("fake store: record not found")

// Call records one request made against FakeStore.
type Call struct {
	Patch model.TransactionPatch
	Op    string
	ID    string
	Name  string
}

// FakeStore is an in-memory service.Store for tests. It records every call
// and can be told to fail specific operations.
type FakeStore struct {
	records       map[string]model.Transaction
	failures      map[string]error
	order         []string
	accounts      []model.Account
	cards         []model.CreditCard
	categories    []model.Category
	beneficiaries []model.Beneficiary
	calls         []Call
	nextID        int
	mu            sync.Mutex
}

var _ service.Store = (*FakeStore)(nil)

// NewFakeStore creates a fake store holding records.
func NewFakeStore(records ...model.Transaction) *FakeStore {
	f := &FakeStore{
		records:  make(map[string]model.Transaction),
		failures: make(map[string]error),
	}
	for _, r := range records {
		f.records[r.ID] = r
		f.order = append(f.order, r.ID)
	}
	return f
}

// WithReferences seeds the reference collections.
func (f *FakeStore) WithReferences(accounts []model.Account, cards []model.CreditCard, categories []model.Category) *FakeStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = accounts
	f.cards = cards
	f.categories = categories
	return f
}

// WithBeneficiaries seeds the beneficiary collection.
func (f *FakeStore) WithBeneficiaries(beneficiaries ...model.Beneficiary) *FakeStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beneficiaries = beneficiaries
	return f
}

// FailOn makes op fail with err. An empty id fails the operation for every id.
func (f *FakeStore) FailOn(op, id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == "" {
		id = anyID
	}
	f.failures[op+":"+id] = err
}

// Calls returns every recorded call in order.
func (f *FakeStore) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsFor returns the recorded calls of a single operation.
func (f *FakeStore) CallsFor(op string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// MutatingCalls returns recorded calls other than reads.
func (f *FakeStore) MutatingCalls() []Call {
	var out []Call
	for _, c := range f.Calls() {
		if !strings.HasPrefix(c.Op, "List") {
			out = append(out, c)
		}
	}
	return out
}

// Record returns the stored copy of id.
func (f *FakeStore) Record(id string) (model.Transaction, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	return r, ok
}

// Len returns the number of stored records.
func (f *FakeStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *FakeStore) begin(call Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)

	if err, ok := f.failures[call.Op+":"+call.ID]; ok {
		return err
	}
	if err, ok := f.failures[call.Op+":"+anyID]; ok {
		return err
	}
	return nil
}

// ListTransactions returns every record in insertion order.
func (f *FakeStore) ListTransactions(_ context.Context) ([]model.Transaction, error) {
	if err := f.begin(Call{Op: OpList}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Transaction, 0, len(f.order))
	for _, id := range f.order {
		if r, ok := f.records[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// CreateTransaction stores txn under a fresh id.
func (f *FakeStore) CreateTransaction(_ context.Context, txn model.Transaction) (*model.Transaction, error) {
	if err := f.begin(Call{Op: OpCreate, ID: txn.ID}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	txn.ID = fmt.Sprintf("%s%d", fakeIDPrefix, f.nextID)
	f.records[txn.ID] = txn
	f.order = append(f.order, txn.ID)
	return &txn, nil
}

// UpdateTransaction applies patch to the stored record.
func (f *FakeStore) UpdateTransaction(_ context.Context, id string, patch model.TransactionPatch) (*model.Transaction, error) {
	if err := f.begin(Call{Op: OpUpdate, ID: id, Patch: patch}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return nil, ErrFakeNotFound
	}
	r = patch.Apply(r)
	r.CategoryName = f.categoryName(r.CategoryID)
	r.BeneficiaryName = f.beneficiaryName(r.BeneficiaryID, r.BeneficiaryName)
	f.records[id] = r
	return &r, nil
}

// DeleteTransaction removes the stored record.
func (f *FakeStore) DeleteTransaction(_ context.Context, id string) error {
	if err := f.begin(Call{Op: OpDelete, ID: id}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return ErrFakeNotFound
	}
	delete(f.records, id)
	return nil
}

// ConfirmCreditCardCharge marks a pending card charge as confirmed.
func (f *FakeStore) ConfirmCreditCardCharge(_ context.Context, id string) (*model.Transaction, error) {
	if err := f.begin(Call{Op: OpConfirmCard, ID: id}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return nil, ErrFakeNotFound
	}
	if r.Confirmed {
		return nil, fmt.Errorf("charge %s already confirmed", id)
	}
	r.Confirmed = true
	f.records[id] = r
	return &r, nil
}

// ListAccounts returns the seeded accounts.
func (f *FakeStore) ListAccounts(_ context.Context) ([]model.Account, error) {
	if err := f.begin(Call{Op: OpListAccounts}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Account(nil), f.accounts...), nil
}

// ListCreditCards returns the seeded cards.
func (f *FakeStore) ListCreditCards(_ context.Context) ([]model.CreditCard, error) {
	if err := f.begin(Call{Op: OpListCreditCards}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.CreditCard(nil), f.cards...), nil
}

// ListCategories returns the seeded categories.
func (f *FakeStore) ListCategories(_ context.Context) ([]model.Category, error) {
	if err := f.begin(Call{Op: OpListCategories}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Category(nil), f.categories...), nil
}

// ListBeneficiaries returns the known beneficiaries sorted by name.
func (f *FakeStore) ListBeneficiaries(_ context.Context) ([]model.Beneficiary, error) {
	if err := f.begin(Call{Op: OpListBeneficiaries}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]model.Beneficiary(nil), f.beneficiaries...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ResolveOrCreateBeneficiary finds a beneficiary by case-insensitive name or creates one.
func (f *FakeStore) ResolveOrCreateBeneficiary(_ context.Context, name string) (*model.Beneficiary, error) {
	if err := f.begin(Call{Op: OpResolveBeneficiary, Name: name}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.beneficiaries {
		if strings.EqualFold(b.Name, name) {
			found := b
			return &found, nil
		}
	}
	b := model.Beneficiary{ID: fmt.Sprintf("%s%d", fakeBeneficiaryPrefix, len(f.beneficiaries)+1), Name: name}
	f.beneficiaries = append(f.beneficiaries, b)
	return &b, nil
}

func (f *FakeStore) categoryName(id string) string {
	for _, c := range f.categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

func (f *FakeStore) beneficiaryName(id, current string) string {
	if id == "" {
		return ""
	}
	for _, b := range f.beneficiaries {
		if b.ID == id {
			return b.Name
		}
	}
	return current
}
