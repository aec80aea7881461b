package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"sync"
	"testing"
	"time"

	"github.com/freelancehub/wallet-ledger/internal/domain"
	"github.com/freelancehub/wallet-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWalletCSV(t *testing.T) {
	updated := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := writeWalletCSV(&buf, []models.WalletExportRow{
		{UserName: "Amna, Osman", Email: "amna@example.com", Balance: 80_000, UpdatedAt: updated},
		{UserName: "Omer", Email: "omer@example.com", Balance: 0, IsLocked: true, UpdatedAt: updated},
	})
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"User", "Email", "Balance", "Status", "Last Updated"},
		{"Amna, Osman", "amna@example.com", "80000", "Active", "2024-03-09 14:05:00"},
		{"Omer", "omer@example.com", "0", "Locked", "2024-03-09 14:05:00"},
	}, records)
}

func TestRequestPayoutValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	freelancer := createUser(t, f.store, "freelancer", domain.RoleFreelancer)

	_, err := f.wallets.RequestPayout(ctx, RequestPayoutInput{UserID: freelancer, Amount: 250_000, BankAccountDetails: "acct"})
	require.ErrorIs(t, err, models.ErrWalletNotFound)

	f.fund(t, freelancer, 300_000)

	cases := []struct {
		name string
		in   RequestPayoutInput
		err  error
	}{
		{name: "zero", in: RequestPayoutInput{UserID: freelancer, Amount: 0, BankAccountDetails: "acct"}, err: ErrInvalidAmount},
		{name: "no_bank_details", in: RequestPayoutInput{UserID: freelancer, Amount: 250_000}, err: ErrBankDetailsRequired},
		{name: "below_minimum", in: RequestPayoutInput{UserID: freelancer, Amount: 199_999, BankAccountDetails: "acct"}, err: models.ErrPayoutBelowMinimum},
		{name: "insufficient", in: RequestPayoutInput{UserID: freelancer, Amount: 300_001, BankAccountDetails: "acct"}, err: models.ErrInsufficientBalance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.wallets.RequestPayout(ctx, tc.in)
			require.ErrorIs(t, err, tc.err)
		})
	}

	assert.Equal(t, int64(300_000), f.balance(t, freelancer))
	assert.Len(t, f.transactions(t, freelancer), 1)
}

func TestLockedWalletRejectsPayoutButAllowsManualOps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	freelancer := createUser(t, f.store, "freelancer", domain.RoleFreelancer)
	f.fund(t, freelancer, 300_000)
	wallet, err := f.wallets.GetWallet(ctx, freelancer)
	require.NoError(t, err)

	locked, err := f.wallets.LockWallet(ctx, f.admin.ID, wallet.ID)
	require.NoError(t, err)
	assert.True(t, locked.IsLocked)
	_, err = f.wallets.LockWallet(ctx, f.admin.ID, wallet.ID)
	require.NoError(t, err)

	_, err = f.wallets.RequestPayout(ctx, RequestPayoutInput{UserID: freelancer, Amount: 200_000, BankAccountDetails: "acct"})
	require.ErrorIs(t, err, models.ErrWalletLocked)
	assert.Equal(t, "Wallet is locked", models.ErrWalletLocked.Error())

	res, err := f.wallets.ManualOperation(ctx, ManualOperationInput{AdminID: f.admin.ID, UserID: freelancer, Type: "DEBIT", Amount: 100_000, Reason: "chargeback"})
	require.NoError(t, err)
	assert.Equal(t, int64(200_000), res.Wallet.Balance)
	assert.Equal(t, int64(-100_000), res.Transaction.Amount)
	require.NotNil(t, res.Transaction.AdminID)
	assert.Equal(t, f.admin.ID, *res.Transaction.AdminID)

	unlocked, err := f.wallets.UnlockWallet(ctx, f.admin.ID, wallet.ID)
	require.NoError(t, err)
	assert.False(t, unlocked.IsLocked)

	_, err = f.wallets.RequestPayout(ctx, RequestPayoutInput{UserID: freelancer, Amount: 200_000, BankAccountDetails: "acct"})
	require.NoError(t, err)

	_, err = f.wallets.LockWallet(ctx, f.admin.ID, 424242)
	require.ErrorIs(t, err, models.ErrWalletNotFound)
}

func TestManualOperationValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := createUser(t, f.store, "user", domain.RoleFreelancer)

	cases := []struct {
		name string
		in   ManualOperationInput
		err  error
	}{
		{name: "bad_type", in: ManualOperationInput{UserID: user, Type: "refund", Amount: 1, Reason: "x"}, err: ErrInvalidManualOperation},
		{name: "no_reason", in: ManualOperationInput{UserID: user, Type: "credit", Amount: 1}, err: ErrReasonRequired},
		{name: "negative", in: ManualOperationInput{UserID: user, Type: "credit", Amount: -5, Reason: "x"}, err: ErrInvalidAmount},
		{name: "overdraw", in: ManualOperationInput{UserID: user, Type: "debit", Amount: 1, Reason: "x"}, err: models.ErrInsufficientBalance},
		{name: "unknown_user", in: ManualOperationInput{UserID: 987654, Type: "credit", Amount: 1, Reason: "x"}, err: models.ErrUserNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.AdminID = f.admin.ID
			_, err := f.wallets.ManualOperation(ctx, tc.in)
			require.ErrorIs(t, err, tc.err)
		})
	}
	assert.Equal(t, int64(0), f.balance(t, user))
	assert.Empty(t, f.transactions(t, user))
}

func TestConcurrentPayoutRequestsNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	freelancer := createUser(t, f.store, "freelancer", domain.RoleFreelancer)
	f.fund(t, freelancer, 500_000)

	const attempts = 6
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.wallets.RequestPayout(ctx, RequestPayoutInput{UserID: freelancer, Amount: 200_000, BankAccountDetails: "acct"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, models.ErrInsufficientBalance)
	}
	assert.Equal(t, 2, ok)
	assert.Equal(t, int64(100_000), f.balance(t, freelancer))
	assert.Equal(t, 2, countByType(f.transactions(t, freelancer), domain.WalletTxPayoutRequest))
}

func TestReconciliationDetectsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := createUser(t, f.store, "user", domain.RoleFreelancer)
	f.fund(t, user, 10_000)
	recon := NewReconciliationService(f.store)

	drift, err := recon.Run(ctx)
	require.NoError(t, err)
	require.Empty(t, drift)

	wallet, err := f.wallets.GetWallet(ctx, user)
	require.NoError(t, err)
	_, err = f.store.Queries().AdjustWalletBalance(ctx, adjustParams(wallet.ID, 5))
	require.NoError(t, err)

	drift, err = recon.Run(ctx)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, wallet.ID, drift[0].WalletID)
	assert.Equal(t, int64(10_005), drift[0].Balance)
	assert.Equal(t, int64(10_000), drift[0].LedgerSum)
}
