package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/freelancehub/wallet-ledger/internal/domain"
	"github.com/freelancehub/wallet-ledger/internal/models"
	"github.com/freelancehub/wallet-ledger/internal/observability"
	"github.com/freelancehub/wallet-ledger/internal/repository"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// WalletService owns freelancer-facing wallet reads, payout requests and admin wallet operations.
type WalletService struct {
	store    QueryStore
	audit    *AuditService
	notifier Notifier
	settings LedgerSettings
}

func NewWalletService(store QueryStore, notifier Notifier, settings LedgerSettings) *WalletService {
	return &WalletService{
		store:    store,
		audit:    NewAuditService(store),
		notifier: notifierOrNop(notifier),
		settings: settings.withDefaults(),
	}
}

// GetWallet returns the user's wallet, creating an empty one on first access.
func (s *WalletService) GetWallet(ctx context.Context, userID int64) (*models.Wallet, error) {
	queries := s.store.Queries()
	if err := ensureWallet(ctx, queries, userID); err != nil {
		return nil, err
	}
	wallet, err := queries.GetWalletByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrWalletNotFound
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return &wallet, nil
}

// ListTransactions returns the user's wallet transactions, newest first.
func (s *WalletService) ListTransactions(ctx context.Context, userID int64, limit, offset int32) ([]models.WalletTransaction, error) {
	limit, offset = clampPage(limit, offset)
	queries := s.store.Queries()
	wallet, err := queries.GetWalletByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []models.WalletTransaction{}, nil
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	rows, err := queries.ListWalletTransactions(ctx, repository.ListWalletTransactionsParams{
		WalletID: wallet.ID,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}
	if rows == nil {
		rows = []models.WalletTransaction{}
	}
	return rows, nil
}

// RequestPayoutInput is a freelancer's withdrawal request.
type RequestPayoutInput struct {
	UserID             int64
	Amount             int64
	BankAccountDetails string
}

// RequestPayout reserves funds for a withdrawal. The amount leaves the balance immediately and
// comes back only if an admin rejects the request.
func (s *WalletService) RequestPayout(ctx context.Context, in RequestPayoutInput) (*models.PayoutRequest, error) {
	in.BankAccountDetails = strings.TrimSpace(in.BankAccountDetails)
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if in.BankAccountDetails == "" {
		return nil, ErrBankDetailsRequired
	}
	if in.Amount < s.settings.PayoutMinimum {
		return nil, fmt.Errorf("%w: minimum is %s", models.ErrPayoutBelowMinimum, domain.FormatAmount(s.settings.PayoutMinimum))
	}

	var payout models.PayoutRequest
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		wallet, err := lockWalletByUser(ctx, qtx, in.UserID, false)
		if err != nil {
			return err
		}
		if wallet.IsLocked {
			return models.ErrWalletLocked
		}
		if wallet.Balance < in.Amount {
			return models.ErrInsufficientBalance
		}

		payout, err = qtx.InsertPayoutRequest(ctx, repository.InsertPayoutRequestParams{
			UserID:             in.UserID,
			Amount:             in.Amount,
			BankAccountDetails: in.BankAccountDetails,
		})
		if err != nil {
			return fmt.Errorf("insert payout request: %w", err)
		}

		payoutID := payout.ID
		_, err = postWalletTransaction(ctx, qtx, &wallet, repository.InsertWalletTransactionParams{
			Type:            domain.WalletTxPayoutRequest,
			Amount:          -in.Amount,
			Description:     fmt.Sprintf("Payout request #%d", payout.ID),
			PayoutRequestID: &payoutID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementWalletMutation(domain.WalletTxPayoutRequest)
	zap.L().Info("payout requested",
		zap.Int64("payout_request_id", payout.ID),
		zap.Int64("user_id", in.UserID),
		zap.Int64("amount", in.Amount),
	)
	s.notifier.PayoutRequested(ctx, payout)
	return &payout, nil
}

// ListPayoutRequests returns the user's own payout requests, newest first.
func (s *WalletService) ListPayoutRequests(ctx context.Context, userID int64, limit, offset int32) ([]models.PayoutRequest, error) {
	limit, offset = clampPage(limit, offset)
	rows, err := s.store.Queries().ListPayoutRequestsByUser(ctx, repository.ListPayoutRequestsByUserParams{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list payout requests: %w", err)
	}
	if rows == nil {
		rows = []models.PayoutRequest{}
	}
	return rows, nil
}

// ManualOperationInput is an admin adjustment of a user's wallet.
type ManualOperationInput struct {
	AdminID int64
	UserID  int64
	Type    string
	Amount  int64
	Reason  string
}

// ManualOperationResult is the wallet after the adjustment and the transaction that recorded it.
type ManualOperationResult struct {
	Wallet      models.Wallet            `json:"wallet"`
	Transaction models.WalletTransaction `json:"transaction"`
}

// ManualOperation credits or debits a wallet on behalf of an admin. A locked wallet can still be adjusted.
func (s *WalletService) ManualOperation(ctx context.Context, in ManualOperationInput) (*ManualOperationResult, error) {
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	in.Reason = strings.TrimSpace(in.Reason)
	if in.Type != domain.ManualOpCredit && in.Type != domain.ManualOpDebit {
		return nil, ErrInvalidManualOperation
	}
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if in.Reason == "" {
		return nil, ErrReasonRequired
	}

	txType := domain.WalletTxCredit
	delta := in.Amount
	if in.Type == domain.ManualOpDebit {
		txType = domain.WalletTxDebit
		delta = -in.Amount
	}

	var result ManualOperationResult
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		wallet, err := lockWalletByUser(ctx, qtx, in.UserID, true)
		if err != nil {
			return err
		}
		adminID := in.AdminID
		entry, err := postWalletTransaction(ctx, qtx, &wallet, repository.InsertWalletTransactionParams{
			Type:        txType,
			Amount:      delta,
			Description: in.Reason,
			AdminID:     &adminID,
		})
		if err != nil {
			return err
		}
		result = ManualOperationResult{Wallet: wallet, Transaction: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementWalletMutation(txType)
	zap.L().Info("manual wallet operation",
		zap.Int64("wallet_id", result.Wallet.ID),
		zap.Int64("admin_id", in.AdminID),
		zap.String("type", txType),
		zap.Int64("amount", delta),
	)
	return &result, nil
}

// LockWallet blocks payout requests from the wallet. Locking a locked wallet is a no-op.
func (s *WalletService) LockWallet(ctx context.Context, adminID, walletID int64) (*models.Wallet, error) {
	return s.setLocked(ctx, adminID, walletID, true)
}

// UnlockWallet lifts a lock. Unlocking an unlocked wallet is a no-op.
func (s *WalletService) UnlockWallet(ctx context.Context, adminID, walletID int64) (*models.Wallet, error) {
	return s.setLocked(ctx, adminID, walletID, false)
}

func (s *WalletService) setLocked(ctx context.Context, adminID, walletID int64, locked bool) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		var err error
		wallet, err = qtx.GetWalletForUpdate(ctx, walletID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrWalletNotFound
			}
			return fmt.Errorf("lock wallet row: %w", err)
		}
		if wallet.IsLocked == locked {
			return nil
		}

		rows, err := qtx.SetWalletLocked(ctx, walletID, locked)
		if err != nil {
			return fmt.Errorf("set wallet locked: %w", err)
		}
		if err := requireExactlyOne(rows, "set wallet locked"); err != nil {
			return err
		}

		action, prev, next := "wallet_locked", "unlocked", "locked"
		if !locked {
			action, prev, next = "wallet_unlocked", "locked", "unlocked"
		}
		actor := adminID
		if err := s.audit.Write(ctx, qtx, auditEntityWallet, walletID, &actor, action, prev, next, nil); err != nil {
			return err
		}

		wallet, err = qtx.GetWallet(ctx, walletID)
		if err != nil {
			return fmt.Errorf("reload wallet: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}
