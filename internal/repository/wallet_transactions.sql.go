package repository

import (
	"context"

	"github.com/freelancehub/wallet-ledger/internal/models"
)

const insertWalletTransaction = `
INSERT INTO wallet_transactions (wallet_id, type, amount, description, order_id, payout_request_id, admin_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at
`

type InsertWalletTransactionParams struct {
	WalletID        int64
	Type            string
	Amount          int64
	Description     string
	OrderID         *int64
	PayoutRequestID *int64
	AdminID         *int64
}

// InsertWalletTransaction appends to the wallet log. There is deliberately no update or delete counterpart.
func (q *Queries) InsertWalletTransaction(ctx context.Context, arg InsertWalletTransactionParams) (models.WalletTransaction, error) {
	t := models.WalletTransaction{
		WalletID:        arg.WalletID,
		Type:            arg.Type,
		Amount:          arg.Amount,
		Description:     arg.Description,
		OrderID:         arg.OrderID,
		PayoutRequestID: arg.PayoutRequestID,
		AdminID:         arg.AdminID,
	}
	err := q.db.QueryRow(ctx, insertWalletTransaction,
		arg.WalletID, arg.Type, arg.Amount, arg.Description, arg.OrderID, arg.PayoutRequestID, arg.AdminID,
	).Scan(&t.ID, &t.CreatedAt)
	return t, err
}

const listWalletTransactions = `
SELECT id, wallet_id, type, amount, description, order_id, payout_request_id, admin_id, created_at
FROM wallet_transactions
WHERE wallet_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

type ListWalletTransactionsParams struct {
	WalletID int64
	Limit    int32
	Offset   int32
}

func (q *Queries) ListWalletTransactions(ctx context.Context, arg ListWalletTransactionsParams) ([]models.WalletTransaction, error) {
	rows, err := q.db.Query(ctx, listWalletTransactions, arg.WalletID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.WalletTransaction
	for rows.Next() {
		var t models.WalletTransaction
		if err := rows.Scan(&t.ID, &t.WalletID, &t.Type, &t.Amount, &t.Description, &t.OrderID, &t.PayoutRequestID, &t.AdminID, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
