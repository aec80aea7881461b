package service

import (
	"context"

	"github.com/freelancehub/wallet-ledger/internal/models"
)

// Notifier receives events after the financial transaction that produced them has committed.
// Implementations must not fail the caller; delivery problems are theirs to log.
type Notifier interface {
	PayoutRequested(ctx context.Context, payout models.PayoutRequest)
	PayoutProcessed(ctx context.Context, payout models.PayoutRequest)
	OrderCompleted(ctx context.Context, order models.Order, credited int64)
}

type nopNotifier struct{}

func (nopNotifier) PayoutRequested(context.Context, models.PayoutRequest) {}
func (nopNotifier) PayoutProcessed(context.Context, models.PayoutRequest) {}
func (nopNotifier) OrderCompleted(context.Context, models.Order, int64) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
