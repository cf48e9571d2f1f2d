package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payment_ledger/internal/model"
	"payment_ledger/internal/repository"

	"github.com/jackc/pgx/v5"
)

var (
	ErrInsufficientFunds = errors.New("not enough funds")
	ErrAccountNotFound   = errors.New("account not found")
)

// DefaultPageSize is the history page size when the caller does not specify one
const DefaultPageSize = 10

const minorUnitsPerMajor = 100

// floatEpsilon absorbs float64 representation error so that amounts with at
// most two decimal digits convert exactly (19.99 * 100 is 1998.999... in
// binary and must still become 1999 minor units).
const floatEpsilon = 1e-9

// ToMinorUnits converts a major-unit amount to minor units, truncating
// toward zero anything below one minor unit.
func ToMinorUnits(major float64) int64 {
	return int64(major*minorUnitsPerMajor + floatEpsilon)
}

// LedgerService owns the balance invariants: it debits accounts against
// outgoing payments and serves the append-only payment history
type LedgerService interface {
	Pay(ctx context.Context, accountID int64, phone string, amount float64) (*model.Payment, error)
	History(ctx context.Context, accountID int64, page, size int) ([]model.Payment, error)
	UpdateProfile(ctx context.Context, accountID int64, patch model.ProfilePatch) (*model.Account, error)
	GetBalance(ctx context.Context, accountID int64) (int64, error)
}

type ledgerService struct {
	accounts repository.AccountStore
	payments repository.PaymentStore
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(accounts repository.AccountStore, payments repository.PaymentStore) LedgerService {
	return &ledgerService{
		accounts: accounts,
		payments: payments,
	}
}

// Pay debits the account by the converted amount and records the payment.
// The funds check, the debit and the payment append run under the account's
// row lock in one transaction: either both writes commit or neither does.
// An insufficient balance leaves no trace.
func (s *ledgerService) Pay(ctx context.Context, accountID int64, phone string, amount float64) (*model.Payment, error) {
	minor := ToMinorUnits(amount)

	var payment *model.Payment
	_, err := s.accounts.UpdateUnderLock(ctx, accountID, func(tx pgx.Tx, acc *model.Account) error {
		newBalance := acc.Balance - minor
		if newBalance < 0 {
			return ErrInsufficientFunds
		}

		p := &model.Payment{
			Date:      time.Now(),
			Phone:     phone,
			Amount:    minor,
			AccountID: acc.ID,
		}
		if err := s.payments.Append(ctx, tx, p); err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		acc.Balance = newBalance
		payment = p
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return payment, nil
}

// History returns one page of the account's payments, ascending by id
func (s *ledgerService) History(ctx context.Context, accountID int64, page, size int) ([]model.Payment, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}

	payments, err := s.payments.ListByAccount(ctx, accountID, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment history: %w", err)
	}
	return payments, nil
}

// UpdateProfile overwrites the profile fields present in the patch and leaves
// the rest untouched. It runs through the same lock path as payments so a
// profile edit never clobbers a concurrent debit's balance.
func (s *ledgerService) UpdateProfile(ctx context.Context, accountID int64, patch model.ProfilePatch) (*model.Account, error) {
	acc, err := s.accounts.UpdateUnderLock(ctx, accountID, func(_ pgx.Tx, acc *model.Account) error {
		patch.Apply(acc)
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

// GetBalance returns the account's current balance in minor units
func (s *ledgerService) GetBalance(ctx context.Context, accountID int64) (int64, error) {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to find account: %w", err)
	}
	if acc == nil {
		return 0, ErrAccountNotFound
	}
	return acc.Balance, nil
}
