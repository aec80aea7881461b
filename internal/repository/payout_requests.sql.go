package repository

import (
	"context"

	"github.com/freelancehub/wallet-ledger/internal/models"
	"github.com/jackc/pgx/v5"
)

const payoutColumns = `id, user_id, amount, status, bank_account_details, admin_id, admin_notes, requested_at, processed_at`

func scanPayout(row pgx.Row) (models.PayoutRequest, error) {
	var p models.PayoutRequest
	err := row.Scan(&p.ID, &p.UserID, &p.Amount, &p.Status, &p.BankAccountDetails, &p.AdminID, &p.AdminNotes, &p.RequestedAt, &p.ProcessedAt)
	return p, err
}

func collectPayouts(rows pgx.Rows, err error) ([]models.PayoutRequest, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PayoutRequest
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const insertPayoutRequest = `
INSERT INTO payout_requests (user_id, amount, status, bank_account_details)
VALUES ($1, $2, 'pending', $3)
RETURNING ` + payoutColumns

type InsertPayoutRequestParams struct {
	UserID             int64
	Amount             int64
	BankAccountDetails string
}

func (q *Queries) InsertPayoutRequest(ctx context.Context, arg InsertPayoutRequestParams) (models.PayoutRequest, error) {
	return scanPayout(q.db.QueryRow(ctx, insertPayoutRequest, arg.UserID, arg.Amount, arg.BankAccountDetails))
}

const getPayoutRequest = `SELECT ` + payoutColumns + ` FROM payout_requests WHERE id = $1`

func (q *Queries) GetPayoutRequest(ctx context.Context, id int64) (models.PayoutRequest, error) {
	return scanPayout(q.db.QueryRow(ctx, getPayoutRequest, id))
}

const getPayoutRequestForUpdate = `SELECT ` + payoutColumns + ` FROM payout_requests WHERE id = $1 FOR UPDATE`

func (q *Queries) GetPayoutRequestForUpdate(ctx context.Context, id int64) (models.PayoutRequest, error) {
	return scanPayout(q.db.QueryRow(ctx, getPayoutRequestForUpdate, id))
}

const markPayoutProcessed = `
UPDATE payout_requests
SET status = $1, admin_id = $2, admin_notes = $3, processed_at = NOW()
WHERE id = $4 AND status = 'pending'
RETURNING ` + payoutColumns

type MarkPayoutProcessedParams struct {
	Status     string
	AdminID    int64
	AdminNotes *string
	ID         int64
}

// MarkPayoutProcessed moves a pending request to a terminal status. It returns pgx.ErrNoRows
// when the request is no longer pending.
func (q *Queries) MarkPayoutProcessed(ctx context.Context, arg MarkPayoutProcessedParams) (models.PayoutRequest, error) {
	return scanPayout(q.db.QueryRow(ctx, markPayoutProcessed, arg.Status, arg.AdminID, arg.AdminNotes, arg.ID))
}

const listPayoutRequestsByUser = `
SELECT ` + payoutColumns + ` FROM payout_requests
WHERE user_id = $1
ORDER BY requested_at DESC, id DESC
LIMIT $2 OFFSET $3
`

type ListPayoutRequestsByUserParams struct {
	UserID int64
	Limit  int32
	Offset int32
}

func (q *Queries) ListPayoutRequestsByUser(ctx context.Context, arg ListPayoutRequestsByUserParams) ([]models.PayoutRequest, error) {
	return collectPayouts(q.db.Query(ctx, listPayoutRequestsByUser, arg.UserID, arg.Limit, arg.Offset))
}

const listPayoutRequests = `
SELECT ` + payoutColumns + ` FROM payout_requests
WHERE ($1::text = '' OR status = $1)
ORDER BY requested_at ASC, id ASC
LIMIT $2 OFFSET $3
`

type ListPayoutRequestsParams struct {
	Status string
	Limit  int32
	Offset int32
}

// ListPayoutRequests lists requests oldest first. An empty status matches every request.
func (q *Queries) ListPayoutRequests(ctx context.Context, arg ListPayoutRequestsParams) ([]models.PayoutRequest, error) {
	return collectPayouts(q.db.Query(ctx, listPayoutRequests, arg.Status, arg.Limit, arg.Offset))
}

const countPayoutRequestsByStatus = `SELECT COUNT(*) FROM payout_requests WHERE status = $1`

func (q *Queries) CountPayoutRequestsByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countPayoutRequestsByStatus, status).Scan(&n)
	return n, err
}
