package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payment_ledger/internal/model"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicateLogin is returned by Create when the login is already taken.
	// Enforced by the unique constraint on account.login, not by a prior read.
	ErrDuplicateLogin = errors.New("account with this login already exists")

	// ErrAccountNotFound is returned by UpdateUnderLock when the row is gone
	ErrAccountNotFound = errors.New("account not found")

	// ErrLockTimeout is returned when the account row lock could not be
	// acquired within the configured wait limit. Safe to retry.
	ErrLockTimeout = errors.New("timed out waiting for account row lock")
)

// AccountStore defines operations for account data
type AccountStore interface {
	Create(ctx context.Context, acc *model.Account) error
	FindByLogin(ctx context.Context, login string) (*model.Account, error)
	FindByID(ctx context.Context, id int64) (*model.Account, error)
	// UpdateUnderLock loads the account row under an exclusive write lock,
	// applies mutate, persists the result and commits. Mutate may perform
	// additional writes through the supplied transaction; they commit or roll
	// back together with the account update. This is the only sanctioned path
	// for balance mutation.
	UpdateUnderLock(ctx context.Context, id int64, mutate func(tx pgx.Tx, acc *model.Account) error) (*model.Account, error)
}

type accountRepository struct {
	db          DB
	lockTimeout time.Duration
}

// NewAccountRepository creates a new AccountStore backed by PostgreSQL
func NewAccountRepository(db DB, lockTimeout time.Duration) AccountStore {
	return &accountRepository{db: db, lockTimeout: lockTimeout}
}

const accountColumns = `id, login, password_hash, balance, first_name, last_name, patronymic, email, gender, birthday`

func scanAccount(row pgx.Row) (*model.Account, error) {
	acc := &model.Account{}
	err := row.Scan(
		&acc.ID, &acc.Login, &acc.PasswordHash, &acc.Balance,
		&acc.FirstName, &acc.LastName, &acc.Patronymic, &acc.Email,
		&acc.Gender, &acc.Birthday,
	)
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Create inserts a new account into the database
func (r *accountRepository) Create(ctx context.Context, acc *model.Account) error {
	sql := `INSERT INTO account (login, password_hash, balance)
            VALUES ($1, $2, $3) RETURNING id`
	err := r.db.QueryRow(ctx, sql, acc.Login, acc.PasswordHash, acc.Balance).Scan(&acc.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateLogin
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// FindByLogin retrieves an account by its login
func (r *accountRepository) FindByLogin(ctx context.Context, login string) (*model.Account, error) {
	sql := `SELECT ` + accountColumns + ` FROM account WHERE login = $1`
	acc, err := scanAccount(r.db.QueryRow(ctx, sql, login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found is not an error here, service layer handles it
		}
		return nil, fmt.Errorf("failed to find account by login: %w", err)
	}
	return acc, nil
}

// FindByID retrieves an account by its ID
func (r *accountRepository) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	sql := `SELECT ` + accountColumns + ` FROM account WHERE id = $1`
	acc, err := scanAccount(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account by ID: %w", err)
	}
	return acc, nil
}

// UpdateUnderLock runs the read-mutate-write sequence for one account row
// inside a transaction, holding FOR UPDATE from the read until commit.
// Concurrent calls against the same account serialize on the row lock;
// different accounts never contend.
func (r *accountRepository) UpdateUnderLock(ctx context.Context, id int64, mutate func(tx pgx.Tx, acc *model.Account) error) (*model.Account, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.lockTimeout > 0 {
		// SET LOCAL scopes the limit to this transaction only
		setSQL := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, setSQL); err != nil {
			return nil, fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	sql := `SELECT ` + accountColumns + ` FROM account WHERE id = $1 FOR UPDATE`
	acc, err := scanAccount(tx.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.LockNotAvailable {
			return nil, ErrLockTimeout
		}
		return nil, fmt.Errorf("failed to lock account row: %w", err)
	}

	if err := mutate(tx, acc); err != nil {
		return nil, err
	}

	updateSQL := `UPDATE account
            SET balance = $1, first_name = $2, last_name = $3, patronymic = $4, email = $5, gender = $6, birthday = $7
            WHERE id = $8`
	if _, err := tx.Exec(ctx, updateSQL,
		acc.Balance, acc.FirstName, acc.LastName, acc.Patronymic,
		acc.Email, acc.Gender, acc.Birthday, acc.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit account update: %w", err)
	}
	return acc, nil
}
