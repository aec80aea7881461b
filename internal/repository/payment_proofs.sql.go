package repository

import (
	"context"
	"time"

	"github.com/freelancehub/wallet-ledger/internal/models"
)

const insertPaymentProof = `
INSERT INTO payment_proofs (payout_request_id, screenshot_path, reference_number, payment_date, admin_id, notes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at
`

type InsertPaymentProofParams struct {
	PayoutRequestID int64
	ScreenshotPath  string
	ReferenceNumber string
	PaymentDate     time.Time
	AdminID         int64
	Notes           *string
}

func (q *Queries) InsertPaymentProof(ctx context.Context, arg InsertPaymentProofParams) (models.PaymentProof, error) {
	p := models.PaymentProof{
		PayoutRequestID: arg.PayoutRequestID,
		ScreenshotPath:  arg.ScreenshotPath,
		ReferenceNumber: arg.ReferenceNumber,
		PaymentDate:     arg.PaymentDate,
		AdminID:         arg.AdminID,
		Notes:           arg.Notes,
	}
	err := q.db.QueryRow(ctx, insertPaymentProof,
		arg.PayoutRequestID, arg.ScreenshotPath, arg.ReferenceNumber, arg.PaymentDate, arg.AdminID, arg.Notes,
	).Scan(&p.ID, &p.CreatedAt)
	return p, err
}

const getPaymentProofByPayout = `
SELECT id, payout_request_id, screenshot_path, reference_number, payment_date, admin_id, notes, created_at
FROM payment_proofs
WHERE payout_request_id = $1
`

func (q *Queries) GetPaymentProofByPayout(ctx context.Context, payoutRequestID int64) (models.PaymentProof, error) {
	var p models.PaymentProof
	err := q.db.QueryRow(ctx, getPaymentProofByPayout, payoutRequestID).Scan(
		&p.ID, &p.PayoutRequestID, &p.ScreenshotPath, &p.ReferenceNumber, &p.PaymentDate, &p.AdminID, &p.Notes, &p.CreatedAt,
	)
	return p, err
}
