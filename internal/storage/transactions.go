package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/model"
)

const selectTransactions = `
	SELECT t.id, t.date, t.amount,
	       COALESCE(t.account_id, ''), COALESCE(t.credit_card_id, ''),
	       COALESCE(t.beneficiary_id, ''), COALESCE(b.name, ''),
	       t.description,
	       COALESCE(t.category_id, ''), COALESCE(c.name, ''),
	       t.kind, t.installment, t.installments, t.confirmed
	FROM transactions t
	LEFT JOIN beneficiaries b ON b.id = t.beneficiary_id
	LEFT JOIN categories c ON c.id = t.category_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var (
		txn    model.Transaction
		date   string
		amount string
		kind   string
	)
	err := row.Scan(
		&txn.ID,
		&date,
		&amount,
		&txn.AccountID,
		&txn.CreditCardID,
		&txn.BeneficiaryID,
		&txn.BeneficiaryName,
		&txn.Description,
		&txn.CategoryID,
		&txn.CategoryName,
		&kind,
		&txn.Installment,
		&txn.Installments,
		&txn.Confirmed,
	)
	if err != nil {
		return txn, err
	}

	txn.Kind = model.Kind(kind)
	if txn.Date, err = time.Parse(model.DateLayout, date); err != nil {
		return txn, fmt.Errorf("failed to parse date of %s: %w", txn.ID, err)
	}
	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return txn, fmt.Errorf("failed to parse amount of %s: %w", txn.ID, err)
	}
	return txn, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ListTransactions returns every transaction, newest first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, selectTransactions+` ORDER BY t.date DESC, t.created_at DESC, t.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}

// GetTransaction returns the transaction with id.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getTransactionTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getTransactionTx(ctx context.Context, q queryable, id string) (*model.Transaction, error) {
	txn, err := scanTransaction(q.QueryRowContext(ctx, selectTransactions+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &txn, nil
}

// CreateTransaction inserts txn under a new id and returns the stored record.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn model.Transaction) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateDraft(txn); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txn.ID = uuid.NewString()
	if _, err := s.insertTx(ctx, tx, txn, sql.NullString{}); err != nil {
		return nil, err
	}

	created, err := s.getTransactionTx(ctx, tx, txn.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

// ImportTransactions inserts records not seen before, identified by their
// content hash. It returns how many were inserted.
func (s *SQLiteStorage) ImportTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransactions(transactions); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, txn := range transactions {
		if txn.ID == "" {
			txn.ID = uuid.NewString()
		}
		n, err := s.insertTx(ctx, tx, txn, nullString(txn.GenerateHash()))
		if err != nil {
			return 0, err
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}

	slog.Info("Imported transactions", "received", len(transactions), "inserted", inserted)
	return inserted, nil
}

func (s *SQLiteStorage) insertTx(ctx context.Context, q queryable, txn model.Transaction, hash sql.NullString) (int, error) {
	res, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, hash, date, amount, account_id, credit_card_id, beneficiary_id,
			description, category_id, kind, installment, installments, confirmed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		txn.ID,
		hash,
		txn.Date.Format(model.DateLayout),
		txn.Amount.String(),
		nullString(txn.AccountID),
		nullString(txn.CreditCardID),
		nullString(txn.BeneficiaryID),
		txn.Description,
		nullString(txn.CategoryID),
		string(txn.Kind),
		txn.Installment,
		txn.Installments,
		txn.Confirmed,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check insert of %s: %w", txn.ID, err)
	}
	return int(n), nil
}

// UpdateTransaction applies patch to the transaction with id and returns the stored result.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, id string, patch model.TransactionPatch) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := s.getTransactionTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	next := patch.Apply(*current)
	if err := validateDraft(next); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE transactions SET
			date = ?, amount = ?, account_id = ?, credit_card_id = ?,
			beneficiary_id = ?, description = ?, category_id = ?, kind = ?,
			confirmed = ?, updated_at = ?
		WHERE id = ?
	`,
		next.Date.Format(model.DateLayout),
		next.Amount.String(),
		nullString(next.AccountID),
		nullString(next.CreditCardID),
		nullString(next.BeneficiaryID),
		next.Description,
		nullString(next.CategoryID),
		string(next.Kind),
		next.Confirmed,
		s.now().UTC(),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction %s: %w", id, err)
	}

	updated, err := s.getTransactionTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

// DeleteTransaction removes the transaction with id.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete of %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ConfirmCreditCardCharge marks a pending card charge as settled.
func (s *SQLiteStorage) ConfirmCreditCardCharge(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := s.getTransactionTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !current.IsCardCharge() {
		return nil, fmt.Errorf("%w: %s", ErrNotCardCharge, id)
	}
	if current.Confirmed {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyConfirmed, id)
	}

	now := s.now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET confirmed = 1, settled_at = ?, updated_at = ? WHERE id = ?`,
		now, now, id); err != nil {
		return nil, fmt.Errorf("failed to confirm charge %s: %w", id, err)
	}

	confirmed, err := s.getTransactionTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return confirmed, nil
}
