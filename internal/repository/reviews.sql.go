package repository

import (
	"context"

	"github.com/freelancehub/wallet-ledger/internal/models"
	"github.com/shopspring/decimal"
)

const insertReview = `
INSERT INTO reviews (order_id, freelancer_id, rating, comment)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at
`

type InsertReviewParams struct {
	OrderID      int64
	FreelancerID int64
	Rating       int32
	Comment      string
}

func (q *Queries) InsertReview(ctx context.Context, arg InsertReviewParams) (models.Review, error) {
	r := models.Review{
		OrderID:      arg.OrderID,
		FreelancerID: arg.FreelancerID,
		Rating:       arg.Rating,
		Comment:      arg.Comment,
	}
	err := q.db.QueryRow(ctx, insertReview, arg.OrderID, arg.FreelancerID, arg.Rating, arg.Comment).Scan(&r.ID, &r.CreatedAt)
	return r, err
}

const incrementCompletedOrders = `
INSERT INTO freelancer_stats (user_id, completed_orders) VALUES ($1, 1)
ON CONFLICT (user_id) DO UPDATE
SET completed_orders = freelancer_stats.completed_orders + 1, updated_at = NOW()
`

func (q *Queries) IncrementCompletedOrders(ctx context.Context, userID int64) error {
	_, err := q.db.Exec(ctx, incrementCompletedOrders, userID)
	return err
}

const addFreelancerRating = `
INSERT INTO freelancer_stats (user_id, rating_sum, rating_count) VALUES ($1, $2, 1)
ON CONFLICT (user_id) DO UPDATE
SET rating_sum = freelancer_stats.rating_sum + $2,
    rating_count = freelancer_stats.rating_count + 1,
    updated_at = NOW()
RETURNING rating_sum, rating_count
`

// AddFreelancerRating folds one rating into the running totals and returns the new totals.
func (q *Queries) AddFreelancerRating(ctx context.Context, userID int64, rating int32) (sum int64, count int64, err error) {
	err = q.db.QueryRow(ctx, addFreelancerRating, userID, int64(rating)).Scan(&sum, &count)
	return sum, count, err
}

const setFreelancerAverage = `UPDATE freelancer_stats SET average_rating = $1::numeric WHERE user_id = $2`

func (q *Queries) SetFreelancerAverage(ctx context.Context, userID int64, avg decimal.Decimal) error {
	_, err := q.db.Exec(ctx, setFreelancerAverage, avg.StringFixed(2), userID)
	return err
}

const getFreelancerStats = `
SELECT user_id, completed_orders, rating_sum, rating_count, average_rating::text, updated_at
FROM freelancer_stats
WHERE user_id = $1
`

func (q *Queries) GetFreelancerStats(ctx context.Context, userID int64) (models.FreelancerStats, error) {
	var s models.FreelancerStats
	var avg string
	if err := q.db.QueryRow(ctx, getFreelancerStats, userID).Scan(
		&s.UserID, &s.CompletedOrders, &s.RatingSum, &s.RatingCount, &avg, &s.UpdatedAt,
	); err != nil {
		return s, err
	}
	d, err := decimal.NewFromString(avg)
	if err != nil {
		return s, err
	}
	s.AverageRating = d
	return s, nil
}
