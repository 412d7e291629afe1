package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// SaveAccount inserts the account, or renames it when the id already exists.
func (s *SQLiteStorage) SaveAccount(ctx context.Context, account model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(account.ID, "account.ID"); err != nil {
		return err
	}
	if account.Name == "" {
		account.Name = account.ID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, type, bank) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, type = excluded.type, bank = excluded.bank
	`, account.ID, account.Name, account.Type, account.Bank)
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.ID, err)
	}
	return nil
}

// SaveCreditCard inserts the card, or renames it when the id already exists.
func (s *SQLiteStorage) SaveCreditCard(ctx context.Context, card model.CreditCard) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(card.ID, "card.ID"); err != nil {
		return err
	}
	if err := validateString(card.Name, "card.Name"); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credit_cards (id, name, brand) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, brand = excluded.brand
	`, card.ID, card.Name, card.Brand)
	if err != nil {
		return fmt.Errorf("failed to save credit card %s: %w", card.ID, err)
	}
	return nil
}

// CreateCategory creates a category named name.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	category := model.Category{ID: uuid.NewString(), Name: name}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO categories (id, name) VALUES (?, ?)`,
		category.ID, category.Name); err != nil {
		return nil, fmt.Errorf("failed to create category %q: %w", name, err)
	}
	return &category, nil
}

// ListAccounts returns every account ordered by name.
func (s *SQLiteStorage) ListAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, type, bank FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Bank); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// ListCreditCards returns every credit card ordered by name.
func (s *SQLiteStorage) ListCreditCards(ctx context.Context) ([]model.CreditCard, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, brand FROM credit_cards ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []model.CreditCard
	for rows.Next() {
		var c model.CreditCard
		if err := rows.Scan(&c.ID, &c.Name, &c.Brand); err != nil {
			return nil, fmt.Errorf("failed to scan credit card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// ListCategories returns every category ordered by name.
func (s *SQLiteStorage) ListCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ListBeneficiaries returns every beneficiary ordered by name.
func (s *SQLiteStorage) ListBeneficiaries(ctx context.Context) ([]model.Beneficiary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM beneficiaries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query beneficiaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var beneficiaries []model.Beneficiary
	for rows.Next() {
		var b model.Beneficiary
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("failed to scan beneficiary: %w", err)
		}
		beneficiaries = append(beneficiaries, b)
	}
	return beneficiaries, rows.Err()
}

// ResolveOrCreateBeneficiary returns the beneficiary whose name matches
// case-insensitively, creating it when none does.
func (s *SQLiteStorage) ResolveOrCreateBeneficiary(ctx context.Context, name string) (*model.Beneficiary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var b model.Beneficiary
	err = tx.QueryRowContext(ctx, `SELECT id, name FROM beneficiaries WHERE name = ?`, name).Scan(&b.ID, &b.Name)
	switch {
	case err == nil:
		return &b, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to look up beneficiary %q: %w", name, err)
	}

	b = model.Beneficiary{ID: uuid.NewString(), Name: name}
	if _, err := tx.ExecContext(ctx, `INSERT INTO beneficiaries (id, name) VALUES (?, ?)`, b.ID, b.Name); err != nil {
		return nil, fmt.Errorf("failed to create beneficiary %q: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit beneficiary: %w", err)
	}
	return &b, nil
}
