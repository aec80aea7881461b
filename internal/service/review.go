package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/freelancehub/wallet-ledger/internal/domain"
	"github.com/freelancehub/wallet-ledger/internal/models"
	"github.com/freelancehub/wallet-ledger/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// SubmitReview records the client's rating of a completed order and folds it into the
// freelancer's running average.
func (s *OrderService) SubmitReview(ctx context.Context, actor Actor, orderID int64, rating int32, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	var review models.Review
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		order, err := qtx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}
		if actor.ID != order.ClientID {
			return ErrNotOrderParticipant
		}
		if order.Status != domain.OrderStatusCompleted {
			return models.ErrOrderNotCompleted
		}

		review, err = qtx.InsertReview(ctx, repository.InsertReviewParams{
			OrderID:      order.ID,
			FreelancerID: order.FreelancerID,
			Rating:       rating,
			Comment:      strings.TrimSpace(comment),
		})
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return models.ErrAlreadyReviewed
			}
			return fmt.Errorf("insert review: %w", err)
		}

		sum, count, err := qtx.AddFreelancerRating(ctx, order.FreelancerID, rating)
		if err != nil {
			return fmt.Errorf("add freelancer rating: %w", err)
		}
		if err := qtx.SetFreelancerAverage(ctx, order.FreelancerID, domain.AverageRating(sum, count)); err != nil {
			return fmt.Errorf("set freelancer average: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("order reviewed", zap.Int64("order_id", orderID), zap.Int32("rating", rating))
	return &review, nil
}

// FreelancerStats returns the aggregates for a freelancer; a freelancer with no activity has zero stats.
func (s *OrderService) FreelancerStats(ctx context.Context, userID int64) (*models.FreelancerStats, error) {
	stats, err := s.store.Queries().GetFreelancerStats(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.FreelancerStats{UserID: userID}, nil
		}
		return nil, fmt.Errorf("get freelancer stats: %w", err)
	}
	return &stats, nil
}
