package repository

import (
	"context"
	"fmt"

	"payment_ledger/internal/model"

	"github.com/jackc/pgx/v5"
)

// PaymentStore defines operations for payment records
type PaymentStore interface {
	// Append durably records a payment within the caller's transaction so the
	// record commits or rolls back together with the balance debit.
	Append(ctx context.Context, tx pgx.Tx, p *model.Payment) error
	// ListByAccount returns the account's payments ordered by ascending id.
	// The same offset/limit against unchanged data returns identical results;
	// an offset past the end yields an empty slice.
	ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]model.Payment, error)
}

type paymentRepository struct {
	db DB
}

// NewPaymentRepository creates a new PaymentStore backed by PostgreSQL
func NewPaymentRepository(db DB) PaymentStore {
	return &paymentRepository{db: db}
}

// Append inserts a payment row and assigns its generated id
func (r *paymentRepository) Append(ctx context.Context, tx pgx.Tx, p *model.Payment) error {
	sql := `INSERT INTO payment (date, phone, amount, account_id)
            VALUES ($1, $2, $3, $4) RETURNING id`
	err := tx.QueryRow(ctx, sql, p.Date, p.Phone, p.Amount, p.AccountID).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to append payment: %w", err)
	}
	return nil
}

// ListByAccount retrieves one page of an account's payment history
func (r *paymentRepository) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]model.Payment, error) {
	sql := `SELECT id, date, phone, amount, account_id FROM payment
            WHERE account_id = $1 ORDER BY id ASC LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, sql, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments by account: %w", err)
	}
	defer rows.Close()

	payments := []model.Payment{}
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.Date, &p.Phone, &p.Amount, &p.AccountID); err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		payments = append(payments, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}
	return payments, nil
}
