package service

import (
	"context"
	"sync"

	"payment_ledger/internal/model"
	"payment_ledger/internal/repository"

	"github.com/jackc/pgx/v5"
)

// fakeAccountStore is an in-memory AccountStore whose UpdateUnderLock really
// serializes concurrent callers on a mutex, the way the row lock does in
// production. That makes the double-spend properties testable without a
// database.
type fakeAccountStore struct {
	mu       sync.Mutex
	accounts map[int64]*model.Account
	nextID   int64
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: make(map[int64]*model.Account)}
}

func (f *fakeAccountStore) Create(_ context.Context, acc *model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.accounts {
		if existing.Login == acc.Login {
			return repository.ErrDuplicateLogin
		}
	}
	f.nextID++
	acc.ID = f.nextID
	cp := *acc
	f.accounts[acc.ID] = &cp
	return nil
}

func (f *fakeAccountStore) FindByLogin(_ context.Context, login string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, acc := range f.accounts {
		if acc.Login == login {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountStore) FindByID(_ context.Context, id int64) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *acc
	return &cp, nil
}

func (f *fakeAccountStore) UpdateUnderLock(_ context.Context, id int64, mutate func(tx pgx.Tx, acc *model.Account) error) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	// Mutate a copy: a failed mutation must leave the stored row untouched
	cp := *acc
	if err := mutate(nil, &cp); err != nil {
		return nil, err
	}
	*acc = cp
	out := cp
	return &out, nil
}

type fakePaymentStore struct {
	mu       sync.Mutex
	payments []model.Payment
	nextID   int64
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{}
}

func (f *fakePaymentStore) Append(_ context.Context, _ pgx.Tx, p *model.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	f.payments = append(f.payments, *p)
	return nil
}

func (f *fakePaymentStore) ListByAccount(_ context.Context, accountID int64, limit, offset int) ([]model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matching := []model.Payment{}
	for _, p := range f.payments {
		if p.AccountID == accountID {
			matching = append(matching, p)
		}
	}
	if offset >= len(matching) {
		return []model.Payment{}, nil
	}
	end := offset + limit
	if end > len(matching) {
		end = len(matching)
	}
	return matching[offset:end], nil
}
