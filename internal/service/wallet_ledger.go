package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/freelancehub/wallet-ledger/internal/domain"
	"github.com/freelancehub/wallet-ledger/internal/models"
	"github.com/freelancehub/wallet-ledger/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ensureWallet creates the user's wallet on first use.
func ensureWallet(ctx context.Context, qtx *repository.Queries, userID int64) error {
	if err := qtx.EnsureWallet(ctx, userID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.ErrUserNotFound
		}
		return fmt.Errorf("ensure wallet: %w", err)
	}
	return nil
}

// lockWalletByUser returns the user's wallet row locked for the rest of the transaction.
func lockWalletByUser(ctx context.Context, qtx *repository.Queries, userID int64, create bool) (models.Wallet, error) {
	if create {
		if err := ensureWallet(ctx, qtx, userID); err != nil {
			return models.Wallet{}, err
		}
	}
	wallet, err := qtx.GetWalletByUserIDForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Wallet{}, models.ErrWalletNotFound
		}
		return models.Wallet{}, fmt.Errorf("lock wallet: %w", err)
	}
	return wallet, nil
}

// postWalletTransaction appends a transaction to a wallet locked by the caller. For
// balance-affecting types the signed amount is applied to the balance first, so the row and
// the balance change commit together.
func postWalletTransaction(ctx context.Context, qtx *repository.Queries, wallet *models.Wallet, arg repository.InsertWalletTransactionParams) (models.WalletTransaction, error) {
	arg.WalletID = wallet.ID
	if domain.AffectsBalance(arg.Type) {
		if wallet.Balance+arg.Amount < 0 {
			return models.WalletTransaction{}, models.ErrInsufficientBalance
		}
		rows, err := qtx.AdjustWalletBalance(ctx, repository.AdjustWalletBalanceParams{
			Delta: arg.Amount,
			ID:    wallet.ID,
		})
		if err != nil {
			return models.WalletTransaction{}, fmt.Errorf("adjust wallet balance: %w", err)
		}
		if rows == 0 {
			return models.WalletTransaction{}, models.ErrInsufficientBalance
		}
		wallet.Balance += arg.Amount
	}

	entry, err := qtx.InsertWalletTransaction(ctx, arg)
	if err != nil {
		return models.WalletTransaction{}, fmt.Errorf("insert wallet transaction: %w", err)
	}
	return entry, nil
}
