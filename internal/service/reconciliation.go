package service

import (
	"context"
	"fmt"

	"github.com/freelancehub/wallet-ledger/internal/domain"
	"github.com/freelancehub/wallet-ledger/internal/observability"
	"github.com/freelancehub/wallet-ledger/internal/repository"
	"go.uber.org/zap"
)

// ReconciliationService verifies that wallet balances match their transaction history.
type ReconciliationService struct {
	store QueryStore
}

// NewReconciliationService creates a reconciliation service.
func NewReconciliationService(store QueryStore) *ReconciliationService {
	return &ReconciliationService{store: store}
}

// Run compares every wallet balance with the sum of its balance-affecting transactions and
// reports each mismatch. It never repairs anything.
func (s *ReconciliationService) Run(ctx context.Context) ([]repository.WalletDriftRow, error) {
	drift, err := s.store.Queries().ListWalletDrift(ctx, domain.BalanceAffectingTypes())
	if err != nil {
		return nil, fmt.Errorf("run wallet drift query: %w", err)
	}

	for _, row := range drift {
		observability.IncrementWalletDrift()
		zap.L().Error("CRITICAL: wallet balance drift detected",
			zap.Int64("wallet_id", row.WalletID),
			zap.Int64("balance", row.Balance),
			zap.Int64("ledger_sum", row.LedgerSum),
		)
	}
	if len(drift) == 0 {
		zap.L().Info("wallets reconciled")
	}
	return drift, nil
}
