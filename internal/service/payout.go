package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/freelancehub/wallet-ledger/internal/domain"
	"github.com/freelancehub/wallet-ledger/internal/models"
	"github.com/freelancehub/wallet-ledger/internal/observability"
	"github.com/freelancehub/wallet-ledger/internal/repository"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// PayoutService handles the admin side of payout requests.
type PayoutService struct {
	store    QueryStore
	audit    *AuditService
	notifier Notifier
	now      func() time.Time
}

func NewPayoutService(store QueryStore, notifier Notifier) *PayoutService {
	return &PayoutService{
		store:    store,
		audit:    NewAuditService(store),
		notifier: notifierOrNop(notifier),
		now:      time.Now,
	}
}

// PayoutDecision is the admin's verdict on a pending request.
type PayoutDecision string

const (
	DecisionApproved PayoutDecision = "approved"
	DecisionRejected PayoutDecision = "rejected"
)

// ProcessPayoutInput carries an admin decision. Approval needs a screenshot path and a bank
// reference; rejection needs a reason.
type ProcessPayoutInput struct {
	PayoutID          int64
	AdminID           int64
	Decision          PayoutDecision
	PaymentScreenshot string
	ReferenceNumber   string
	Notes             string
	RejectionReason   string
	PaymentDate       time.Time
}

func (in *ProcessPayoutInput) normalize() error {
	in.Decision = PayoutDecision(strings.ToLower(strings.TrimSpace(string(in.Decision))))
	in.PaymentScreenshot = strings.TrimSpace(in.PaymentScreenshot)
	in.ReferenceNumber = strings.TrimSpace(in.ReferenceNumber)
	in.RejectionReason = strings.TrimSpace(in.RejectionReason)
	switch in.Decision {
	case DecisionApproved:
		if in.PaymentScreenshot == "" || in.ReferenceNumber == "" {
			return ErrPaymentProofRequired
		}
	case DecisionRejected:
		if in.RejectionReason == "" {
			return ErrRejectionReasonRequired
		}
	default:
		return ErrInvalidPayoutDecision
	}
	return nil
}

// ProcessPayout approves or rejects a pending payout request. A request that is no longer
// pending is left untouched and ErrPayoutAlreadyProcessed is returned.
func (s *PayoutService) ProcessPayout(ctx context.Context, in ProcessPayoutInput) (*models.PayoutRequest, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if in.PaymentDate.IsZero() {
		in.PaymentDate = s.now()
	}

	var (
		processed models.PayoutRequest
		txType    string
	)
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		payout, err := qtx.GetPayoutRequestForUpdate(ctx, in.PayoutID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrPayoutNotFound
			}
			return fmt.Errorf("lock payout request: %w", err)
		}
		if domain.IsTerminalPayoutStatus(payout.Status) {
			return models.ErrPayoutAlreadyProcessed
		}

		wallet, err := lockWalletByUser(ctx, qtx, payout.UserID, false)
		if err != nil {
			return err
		}

		switch in.Decision {
		case DecisionApproved:
			txType = domain.WalletTxPayoutPaid
			processed, err = s.approve(ctx, qtx, payout, &wallet, in)
		case DecisionRejected:
			txType = domain.WalletTxPayoutRejected
			processed, err = s.reject(ctx, qtx, payout, &wallet, in)
		}
		if err != nil {
			return err
		}

		metadata, err := marshalMetadata(map[string]any{
			"amount":           payout.Amount,
			"reference_number": in.ReferenceNumber,
			"reason":           in.RejectionReason,
		})
		if err != nil {
			return fmt.Errorf("marshal payout audit metadata: %w", err)
		}
		adminID := in.AdminID
		return s.audit.Write(ctx, qtx, auditEntityPayout, payout.ID, &adminID, "payout_"+string(in.Decision), payout.Status, processed.Status, metadata)
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementWalletMutation(txType)
	zap.L().Info("payout processed",
		zap.Int64("payout_request_id", processed.ID),
		zap.Int64("admin_id", in.AdminID),
		zap.String("status", processed.Status),
		zap.Int64("amount", processed.Amount),
	)
	s.notifier.PayoutProcessed(ctx, processed)
	return &processed, nil
}

// approve records the proof of transfer. The balance is not touched: it was reduced when the
// request was made. The payout_paid row is kept for the wallet history only.
func (s *PayoutService) approve(ctx context.Context, qtx *repository.Queries, payout models.PayoutRequest, wallet *models.Wallet, in ProcessPayoutInput) (models.PayoutRequest, error) {
	proof, err := qtx.InsertPaymentProof(ctx, repository.InsertPaymentProofParams{
		PayoutRequestID: payout.ID,
		ScreenshotPath:  in.PaymentScreenshot,
		ReferenceNumber: in.ReferenceNumber,
		PaymentDate:     in.PaymentDate,
		AdminID:         in.AdminID,
		Notes:           optionalText(in.Notes),
	})
	if err != nil {
		return models.PayoutRequest{}, fmt.Errorf("insert payment proof: %w", err)
	}

	payoutID, adminID := payout.ID, in.AdminID
	if _, err := postWalletTransaction(ctx, qtx, wallet, repository.InsertWalletTransactionParams{
		Type:            domain.WalletTxPayoutPaid,
		Amount:          -payout.Amount,
		Description:     fmt.Sprintf("Payout request #%d paid, reference %s", payout.ID, in.ReferenceNumber),
		PayoutRequestID: &payoutID,
		AdminID:         &adminID,
	}); err != nil {
		return models.PayoutRequest{}, err
	}

	processed, err := s.markProcessed(ctx, qtx, payout.ID, domain.PayoutStatusPayoutPaid, in.AdminID, optionalText(in.Notes))
	if err != nil {
		return models.PayoutRequest{}, err
	}
	processed.PaymentProof = &proof
	return processed, nil
}

// reject returns the reserved amount to the wallet.
func (s *PayoutService) reject(ctx context.Context, qtx *repository.Queries, payout models.PayoutRequest, wallet *models.Wallet, in ProcessPayoutInput) (models.PayoutRequest, error) {
	payoutID, adminID := payout.ID, in.AdminID
	if _, err := postWalletTransaction(ctx, qtx, wallet, repository.InsertWalletTransactionParams{
		Type:            domain.WalletTxPayoutRejected,
		Amount:          payout.Amount,
		Description:     fmt.Sprintf("Payout request #%d rejected: %s", payout.ID, in.RejectionReason),
		PayoutRequestID: &payoutID,
		AdminID:         &adminID,
	}); err != nil {
		return models.PayoutRequest{}, err
	}

	reason := in.RejectionReason
	return s.markProcessed(ctx, qtx, payout.ID, domain.PayoutStatusRejected, in.AdminID, &reason)
}

func (s *PayoutService) markProcessed(ctx context.Context, qtx *repository.Queries, id int64, status string, adminID int64, notes *string) (models.PayoutRequest, error) {
	processed, err := qtx.MarkPayoutProcessed(ctx, repository.MarkPayoutProcessedParams{
		Status:     status,
		AdminID:    adminID,
		AdminNotes: notes,
		ID:         id,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PayoutRequest{}, models.ErrPayoutAlreadyProcessed
		}
		return models.PayoutRequest{}, fmt.Errorf("mark payout processed: %w", err)
	}
	return processed, nil
}

// GetPayout returns a payout request with its payment proof, if any.
func (s *PayoutService) GetPayout(ctx context.Context, id int64) (*models.PayoutRequest, error) {
	queries := s.store.Queries()
	payout, err := queries.GetPayoutRequest(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPayoutNotFound
		}
		return nil, fmt.Errorf("get payout request: %w", err)
	}
	proof, err := queries.GetPaymentProofByPayout(ctx, id)
	switch {
	case err == nil:
		payout.PaymentProof = &proof
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("get payment proof: %w", err)
	}
	return &payout, nil
}

// ListPayouts lists payout requests for admins, oldest first. An empty status lists all of them.
func (s *PayoutService) ListPayouts(ctx context.Context, status string, limit, offset int32) ([]models.PayoutRequest, error) {
	limit, offset = clampPage(limit, offset)
	rows, err := s.store.Queries().ListPayoutRequests(ctx, repository.ListPayoutRequestsParams{
		Status: strings.ToLower(strings.TrimSpace(status)),
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

// PendingQueueSize counts payout requests waiting for an admin.
func (s *PayoutService) PendingQueueSize(ctx context.Context) (int64, error) {
	count, err := s.store.Queries().CountPayoutRequestsByStatus(ctx, domain.PayoutStatusPending)
	if err != nil {
		return 0, fmt.Errorf("count pending payout requests: %w", err)
	}
	return count, nil
}
