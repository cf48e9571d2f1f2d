package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"payment_ledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerFixture(t *testing.T, balance int64) (LedgerService, *fakeAccountStore, int64) {
	t.Helper()
	accounts := newFakeAccountStore()
	payments := newFakePaymentStore()
	acc := &model.Account{Login: "79990001122", PasswordHash: "hash", Balance: balance}
	require.NoError(t, accounts.Create(context.Background(), acc))
	return NewLedgerService(accounts, payments), accounts, acc.ID
}

func TestPay_DebitsConvertedAmountAndRecordsPayment(t *testing.T) {
	svc, accounts, accID := newLedgerFixture(t, 100000)

	payment, err := svc.Pay(context.Background(), accID, "79031112233", 150.00)

	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, int64(15000), payment.Amount)
	assert.Equal(t, "79031112233", payment.Phone)
	assert.Equal(t, accID, payment.AccountID)
	assert.WithinDuration(t, time.Now(), payment.Date, 5*time.Second)

	acc, err := accounts.FindByID(context.Background(), accID)
	require.NoError(t, err)
	assert.Equal(t, int64(85000), acc.Balance)

	history, err := svc.History(context.Background(), accID, 0, 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPay_InsufficientFundsLeavesNoTrace(t *testing.T) {
	svc, accounts, accID := newLedgerFixture(t, 1000)

	payment, err := svc.Pay(context.Background(), accID, "79031112233", 15.00)

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Nil(t, payment)

	acc, err := accounts.FindByID(context.Background(), accID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), acc.Balance)

	history, err := svc.History(context.Background(), accID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPay_ExactBalanceSucceeds(t *testing.T) {
	svc, accounts, accID := newLedgerFixture(t, 15000)

	_, err := svc.Pay(context.Background(), accID, "79031112233", 150.00)
	require.NoError(t, err)

	acc, err := accounts.FindByID(context.Background(), accID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), acc.Balance)
}

func TestPay_AccountNotFound(t *testing.T) {
	svc, _, _ := newLedgerFixture(t, 1000)

	_, err := svc.Pay(context.Background(), 999, "79031112233", 1.00)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

// With a balance of 100000 and ten concurrent payments of 20000 each, exactly
// five can succeed regardless of interleaving: the lock serializes the
// check-and-debit so no payment ever drives the balance negative.
func TestPay_ConcurrentPaymentsNoDoubleSpend(t *testing.T) {
	svc, accounts, accID := newLedgerFixture(t, 100000)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Pay(context.Background(), accID, "79031112233", 200.00)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 5, succeeded)

	acc, err := accounts.FindByID(context.Background(), accID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), acc.Balance)

	history, err := svc.History(context.Background(), accID, 0, attempts)
	require.NoError(t, err)
	assert.Len(t, history, 5)
}

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		major float64
		minor int64
	}{
		{150.00, 15000},
		{19.99, 1999},
		{0.01, 1},
		{10.999, 1099}, // sub-cent digits are discarded, not rounded
		{0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.minor, ToMinorUnits(tc.major), "amount %v", tc.major)
	}
}

func TestMinorUnitsRoundTrip(t *testing.T) {
	// Any amount with at most two decimal digits must survive the conversion
	for _, major := range []float64{0.01, 0.10, 1.00, 19.99, 123.45, 1000.10} {
		minor := ToMinorUnits(major)
		assert.Equal(t, major, float64(minor)/100, "amount %v", major)
	}
}

func TestHistory_PagesAreDisjointAndContiguous(t *testing.T) {
	svc, _, accID := newLedgerFixture(t, 100000)

	for i := 0; i < 10; i++ {
		_, err := svc.Pay(context.Background(), accID, "79031112233", 1.00)
		require.NoError(t, err)
	}

	first, err := svc.History(context.Background(), accID, 0, 5)
	require.NoError(t, err)
	second, err := svc.History(context.Background(), accID, 1, 5)
	require.NoError(t, err)
	all, err := svc.History(context.Background(), accID, 0, 10)
	require.NoError(t, err)

	require.Len(t, first, 5)
	require.Len(t, second, 5)
	assert.Equal(t, all, append(append([]model.Payment{}, first...), second...))

	// Ascending, contiguous ids across the page boundary
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].ID, all[i-1].ID)
	}
	assert.Less(t, first[4].ID, second[0].ID)
}

func TestHistory_OffsetPastEndIsEmpty(t *testing.T) {
	svc, _, accID := newLedgerFixture(t, 100000)

	_, err := svc.Pay(context.Background(), accID, "79031112233", 1.00)
	require.NoError(t, err)

	payments, err := svc.History(context.Background(), accID, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestHistory_DefaultsApplied(t *testing.T) {
	svc, _, accID := newLedgerFixture(t, 100000)

	payments, err := svc.History(context.Background(), accID, -1, 0)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestUpdateProfile_PartialPatch(t *testing.T) {
	svc, _, accID := newLedgerFixture(t, 100000)

	firstName := "Ivan"
	gender := model.GenderMale
	_, err := svc.UpdateProfile(context.Background(), accID, model.ProfilePatch{
		FirstName: &firstName,
		Gender:    &gender,
	})
	require.NoError(t, err)

	email := "ivan@example.com"
	acc, err := svc.UpdateProfile(context.Background(), accID, model.ProfilePatch{Email: &email})
	require.NoError(t, err)

	// Only email changed; earlier fields survive, untouched fields stay nil
	require.NotNil(t, acc.Email)
	assert.Equal(t, "ivan@example.com", *acc.Email)
	require.NotNil(t, acc.FirstName)
	assert.Equal(t, "Ivan", *acc.FirstName)
	require.NotNil(t, acc.Gender)
	assert.Equal(t, model.GenderMale, *acc.Gender)
	assert.Nil(t, acc.LastName)
	assert.Nil(t, acc.Birthday)
}

func TestUpdateProfile_AccountNotFound(t *testing.T) {
	svc, _, _ := newLedgerFixture(t, 100000)

	email := "nobody@example.com"
	_, err := svc.UpdateProfile(context.Background(), 999, model.ProfilePatch{Email: &email})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestGetBalance(t *testing.T) {
	svc, _, accID := newLedgerFixture(t, 54321)

	balance, err := svc.GetBalance(context.Background(), accID)
	require.NoError(t, err)
	assert.Equal(t, int64(54321), balance)
}

func TestGetBalance_AccountNotFound(t *testing.T) {
	svc, _, _ := newLedgerFixture(t, 1)

	_, err := svc.GetBalance(context.Background(), 999)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
