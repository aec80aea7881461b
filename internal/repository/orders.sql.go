package repository

import (
	"context"

	"github.com/freelancehub/wallet-ledger/internal/models"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, order_number, service_id, client_id, freelancer_id, status, payment_status,
package_price, service_fee, total_amount, requirements, cancellation_reason,
payment_verified_at, started_at, delivered_at, completed_at, cancelled_at, created_at, updated_at`

func scanOrder(row pgx.Row) (models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.ServiceID, &o.ClientID, &o.FreelancerID, &o.Status, &o.PaymentStatus,
		&o.PackagePrice, &o.ServiceFee, &o.TotalAmount, &o.Requirements, &o.CancellationReason,
		&o.PaymentVerifiedAt, &o.StartedAt, &o.DeliveredAt, &o.CompletedAt, &o.CancelledAt, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

const nextOrderSequence = `
INSERT INTO order_sequences (year, last_value) VALUES ($1, 1)
ON CONFLICT (year) DO UPDATE SET last_value = order_sequences.last_value + 1
RETURNING last_value
`

// NextOrderSequence atomically allocates the next per-year order counter. The row stays locked
// until the surrounding transaction ends.
func (q *Queries) NextOrderSequence(ctx context.Context, year int) (int64, error) {
	var v int64
	err := q.db.QueryRow(ctx, nextOrderSequence, year).Scan(&v)
	return v, err
}

const insertOrder = `
INSERT INTO orders (order_number, service_id, client_id, freelancer_id, package_price, service_fee, total_amount, requirements)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + orderColumns

type InsertOrderParams struct {
	OrderNumber  string
	ServiceID    int64
	ClientID     int64
	FreelancerID int64
	PackagePrice int64
	ServiceFee   int64
	TotalAmount  int64
	Requirements string
}

func (q *Queries) InsertOrder(ctx context.Context, arg InsertOrderParams) (models.Order, error) {
	return scanOrder(q.db.QueryRow(ctx, insertOrder,
		arg.OrderNumber, arg.ServiceID, arg.ClientID, arg.FreelancerID,
		arg.PackagePrice, arg.ServiceFee, arg.TotalAmount, arg.Requirements,
	))
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id int64) (models.Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUpdate = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id int64) (models.Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

// Timestamp columns are only written when the matching flag is set; existing values are kept otherwise.
const updateOrderStatus = `
UPDATE orders SET
    status = $1,
    payment_status = COALESCE($2, payment_status),
    cancellation_reason = COALESCE($3, cancellation_reason),
    payment_verified_at = CASE WHEN $4::boolean THEN NOW() ELSE payment_verified_at END,
    started_at = CASE WHEN $5::boolean THEN NOW() ELSE started_at END,
    delivered_at = CASE WHEN $6::boolean THEN NOW() ELSE delivered_at END,
    completed_at = CASE WHEN $7::boolean THEN NOW() ELSE completed_at END,
    cancelled_at = CASE WHEN $8::boolean THEN NOW() ELSE cancelled_at END,
    updated_at = NOW()
WHERE id = $9 AND status = $10
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	Status               string
	PaymentStatus        *string
	CancellationReason   *string
	StampPaymentVerified bool
	StampStarted         bool
	StampDelivered       bool
	StampCompleted       bool
	StampCancelled       bool
	ID                   int64
	ExpectedStatus       string
}

// UpdateOrderStatus performs a compare-and-set on status. It returns pgx.ErrNoRows if the
// order is no longer in ExpectedStatus.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (models.Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus,
		arg.Status, arg.PaymentStatus, arg.CancellationReason,
		arg.StampPaymentVerified, arg.StampStarted, arg.StampDelivered, arg.StampCompleted, arg.StampCancelled,
		arg.ID, arg.ExpectedStatus,
	))
}

const countOrdersByStatus = `SELECT status, COUNT(*) FROM orders GROUP BY status`

func (q *Queries) CountOrdersByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := q.db.Query(ctx, countOrdersByStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
