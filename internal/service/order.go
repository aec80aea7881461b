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

// Actor is the authenticated caller of an order operation.
type Actor struct {
	ID   int64
	Role string
}

func (a Actor) isAdmin() bool { return a.Role == domain.RoleAdmin }

// OrderService drives orders through their lifecycle and credits freelancers on completion.
type OrderService struct {
	store    QueryStore
	audit    *AuditService
	notifier Notifier
	settings LedgerSettings
	now      func() time.Time
}

func NewOrderService(store QueryStore, notifier Notifier, settings LedgerSettings) *OrderService {
	return &OrderService{
		store:    store,
		audit:    NewAuditService(store),
		notifier: notifierOrNop(notifier),
		settings: settings.withDefaults(),
		now:      time.Now,
	}
}

// CreateOrderInput is a client's order for a freelancer's service package.
type CreateOrderInput struct {
	ClientID     int64
	FreelancerID int64
	ServiceID    int64
	PackagePrice int64
	ServiceFee   int64
	Requirements string
}

// Create places a new order in pending status with the next order number of the current year.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if in.PackagePrice < 0 || in.ServiceFee < 0 {
		return nil, ErrInvalidOrderAmounts
	}
	if in.PackagePrice+in.ServiceFee <= 0 {
		return nil, ErrInvalidAmount
	}
	if in.ClientID == in.FreelancerID {
		return nil, ErrSameParty
	}

	var order models.Order
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		year := s.now().UTC().Year()
		seq, err := qtx.NextOrderSequence(ctx, year)
		if err != nil {
			return fmt.Errorf("next order sequence: %w", err)
		}
		order, err = qtx.InsertOrder(ctx, repository.InsertOrderParams{
			OrderNumber:  domain.FormatOrderNumber(year, seq),
			ServiceID:    in.ServiceID,
			ClientID:     in.ClientID,
			FreelancerID: in.FreelancerID,
			PackagePrice: in.PackagePrice,
			ServiceFee:   in.ServiceFee,
			TotalAmount:  in.PackagePrice + in.ServiceFee,
			Requirements: strings.TrimSpace(in.Requirements),
		})
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		client := in.ClientID
		return s.audit.Write(ctx, qtx, auditEntityOrder, order.ID, &client, "order_created", "", order.Status, nil)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("order created", zap.Int64("order_id", order.ID), zap.String("order_number", order.OrderNumber))
	return &order, nil
}

// Get returns an order visible to the actor.
func (s *OrderService) Get(ctx context.Context, actor Actor, orderID int64) (*models.Order, error) {
	order, err := s.store.Queries().GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !isParticipant(actor, order) {
		return nil, ErrNotOrderParticipant
	}
	return &order, nil
}

func isParticipant(actor Actor, order models.Order) bool {
	return actor.isAdmin() || actor.ID == order.ClientID || actor.ID == order.FreelancerID
}

func isClient(actor Actor, order models.Order) bool {
	return actor.isAdmin() || actor.ID == order.ClientID
}

func isFreelancer(actor Actor, order models.Order) bool {
	return actor.isAdmin() || actor.ID == order.FreelancerID
}

func adminOnly(actor Actor, _ models.Order) bool {
	return actor.isAdmin()
}

// transition describes one order status change.
type transition struct {
	next          string
	action        string
	allowed       func(Actor, models.Order) bool
	paymentStatus string
	reason        string
	// within runs inside the transaction after the status update.
	within func(ctx context.Context, qtx *repository.Queries, order *models.Order) error
}

// VerifyPayment confirms the client's payment and unlocks work on the order.
func (s *OrderService) VerifyPayment(ctx context.Context, actor Actor, orderID int64) (*models.Order, error) {
	return s.apply(ctx, actor, orderID, transition{
		next:          domain.OrderStatusPaymentVerified,
		action:        "payment_verified",
		allowed:       adminOnly,
		paymentStatus: domain.PaymentStatusVerified,
	})
}

// RejectPayment marks the payment as failed. The order stays pending so the client can pay again.
func (s *OrderService) RejectPayment(ctx context.Context, actor Actor, orderID int64, reason string) (*models.Order, error) {
	return s.apply(ctx, actor, orderID, transition{
		next:          domain.OrderStatusPending,
		action:        "payment_rejected",
		allowed:       adminOnly,
		paymentStatus: domain.PaymentStatusFailed,
		reason:        strings.TrimSpace(reason),
	})
}

func (s *OrderService) Start(ctx context.Context, actor Actor, orderID int64) (*models.Order, error) {
	return s.apply(ctx, actor, orderID, transition{
		next:    domain.OrderStatusInProgress,
		action:  "order_started",
		allowed: isFreelancer,
	})
}

func (s *OrderService) SubmitForReview(ctx context.Context, actor Actor, orderID int64) (*models.Order, error) {
	return s.apply(ctx, actor, orderID, transition{
		next:    domain.OrderStatusReview,
		action:  "order_submitted_for_review",
		allowed: isFreelancer,
	})
}

func (s *OrderService) Deliver(ctx context.Context, actor Actor, orderID int64) (*models.Order, error) {
	return s.apply(ctx, actor, orderID, transition{
		next:    domain.OrderStatusDelivered,
		action:  "order_delivered",
		allowed: isFreelancer,
	})
}

func (s *OrderService) RequestRevision(ctx context.Context, actor Actor, orderID int64) (*models.Order, error) {
	return s.apply(ctx, actor, orderID, transition{
		next:    domain.OrderStatusRevisionRequested,
		action:  "order_revision_requested",
		allowed: isClient,
	})
}

// Cancel ends an open order. A reason is mandatory.
func (s *OrderService) Cancel(ctx context.Context, actor Actor, orderID int64, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	return s.apply(ctx, actor, orderID, transition{
		next:    domain.OrderStatusCancelled,
		action:  "order_cancelled",
		allowed: isParticipant,
		reason:  reason,
	})
}

// Complete closes the order and credits the freelancer's share of the total to their wallet.
func (s *OrderService) Complete(ctx context.Context, actor Actor, orderID int64) (*models.Order, error) {
	var credited int64
	order, err := s.apply(ctx, actor, orderID, transition{
		next:    domain.OrderStatusCompleted,
		action:  "order_completed",
		allowed: isClient,
		within: func(ctx context.Context, qtx *repository.Queries, order *models.Order) error {
			var err error
			credited, err = s.creditFreelancer(ctx, qtx, *order)
			if err != nil {
				return err
			}
			if err := qtx.IncrementCompletedOrders(ctx, order.FreelancerID); err != nil {
				return fmt.Errorf("increment completed orders: %w", err)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	if credited > 0 {
		observability.IncrementWalletMutation(domain.WalletTxCredit)
	}
	s.notifier.OrderCompleted(ctx, *order, credited)
	return order, nil
}

func (s *OrderService) creditFreelancer(ctx context.Context, qtx *repository.Queries, order models.Order) (int64, error) {
	amount := domain.FreelancerCredit(order.TotalAmount, s.settings.FreelancerShare)
	if amount <= 0 {
		return 0, nil
	}
	wallet, err := lockWalletByUser(ctx, qtx, order.FreelancerID, true)
	if err != nil {
		return 0, err
	}
	orderID := order.ID
	if _, err := postWalletTransaction(ctx, qtx, &wallet, repository.InsertWalletTransactionParams{
		Type:        domain.WalletTxCredit,
		Amount:      amount,
		Description: "Earnings from order " + order.OrderNumber,
		OrderID:     &orderID,
	}); err != nil {
		return 0, err
	}
	return amount, nil
}

// apply locks the order, validates the move against the transition table and writes the
// status change, its timestamp and an audit row in one transaction.
func (s *OrderService) apply(ctx context.Context, actor Actor, orderID int64, t transition) (*models.Order, error) {
	var (
		updated models.Order
		prev    string
	)
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		order, err := qtx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}
		if !t.allowed(actor, order) {
			return ErrNotOrderParticipant
		}
		prev = order.Status

		if t.next == order.Status {
			// Only a payment rejection keeps the status; it is valid while the order is pending.
			if t.paymentStatus != domain.PaymentStatusFailed || order.Status != domain.OrderStatusPending {
				return fmt.Errorf("%w: %s -> %s", models.ErrInvalidOrderTransition, order.Status, t.next)
			}
		} else if !domain.CanTransitionOrder(order.Status, t.next) {
			return fmt.Errorf("%w: %s -> %s", models.ErrInvalidOrderTransition, order.Status, t.next)
		}

		params := repository.UpdateOrderStatusParams{
			Status:               t.next,
			PaymentStatus:        optionalText(t.paymentStatus),
			StampPaymentVerified: t.next == domain.OrderStatusPaymentVerified,
			StampStarted:         t.next == domain.OrderStatusInProgress && order.StartedAt == nil,
			StampDelivered:       t.next == domain.OrderStatusDelivered,
			StampCompleted:       t.next == domain.OrderStatusCompleted,
			StampCancelled:       t.next == domain.OrderStatusCancelled,
			ID:                   order.ID,
			ExpectedStatus:       order.Status,
		}
		if t.next == domain.OrderStatusCancelled {
			params.CancellationReason = optionalText(t.reason)
		}
		updated, err = qtx.UpdateOrderStatus(ctx, params)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: order changed concurrently", models.ErrInvalidOrderTransition)
			}
			return fmt.Errorf("update order status: %w", err)
		}

		if t.within != nil {
			if err := t.within(ctx, qtx, &updated); err != nil {
				return err
			}
		}

		metadata, err := marshalMetadata(map[string]any{"reason": t.reason})
		if err != nil {
			return fmt.Errorf("marshal order audit metadata: %w", err)
		}
		if t.reason == "" {
			metadata = nil
		}
		actorID := actor.ID
		return s.audit.Write(ctx, qtx, auditEntityOrder, order.ID, &actorID, t.action, prev, updated.Status, metadata)
	})
	if err != nil {
		return nil, err
	}

	if prev != updated.Status {
		observability.IncrementOrderTransition(prev, updated.Status)
	}
	zap.L().Info("order transition",
		zap.Int64("order_id", updated.ID),
		zap.String("action", t.action),
		zap.String("from", prev),
		zap.String("to", updated.Status),
	)
	return &updated, nil
}
