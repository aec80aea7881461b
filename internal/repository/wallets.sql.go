package repository

import (
	"context"

	"github.com/freelancehub/wallet-ledger/internal/models"
	"github.com/jackc/pgx/v5"
)

const walletColumns = `id, user_id, balance, is_locked, created_at, updated_at`

func scanWallet(row pgx.Row) (models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.Balance, &w.IsLocked, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

const ensureWallet = `INSERT INTO wallets (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`

// EnsureWallet creates the wallet of a user if it does not exist yet.
func (q *Queries) EnsureWallet(ctx context.Context, userID int64) error {
	_, err := q.db.Exec(ctx, ensureWallet, userID)
	return err
}

const getWalletByUserID = `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`

func (q *Queries) GetWalletByUserID(ctx context.Context, userID int64) (models.Wallet, error) {
	return scanWallet(q.db.QueryRow(ctx, getWalletByUserID, userID))
}

const getWalletByUserIDForUpdate = `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 FOR UPDATE`

func (q *Queries) GetWalletByUserIDForUpdate(ctx context.Context, userID int64) (models.Wallet, error) {
	return scanWallet(q.db.QueryRow(ctx, getWalletByUserIDForUpdate, userID))
}

const getWalletForUpdate = `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 FOR UPDATE`

func (q *Queries) GetWalletForUpdate(ctx context.Context, id int64) (models.Wallet, error) {
	return scanWallet(q.db.QueryRow(ctx, getWalletForUpdate, id))
}

const getWallet = `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`

func (q *Queries) GetWallet(ctx context.Context, id int64) (models.Wallet, error) {
	return scanWallet(q.db.QueryRow(ctx, getWallet, id))
}

const adjustWalletBalance = `
UPDATE wallets
SET balance = balance + $1, updated_at = NOW()
WHERE id = $2 AND balance + $1 >= 0
`

type AdjustWalletBalanceParams struct {
	Delta int64
	ID    int64
}

// AdjustWalletBalance applies a signed delta. It affects zero rows when the result would be negative.
func (q *Queries) AdjustWalletBalance(ctx context.Context, arg AdjustWalletBalanceParams) (int64, error) {
	tag, err := q.db.Exec(ctx, adjustWalletBalance, arg.Delta, arg.ID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const setWalletLocked = `UPDATE wallets SET is_locked = $1, updated_at = NOW() WHERE id = $2`

func (q *Queries) SetWalletLocked(ctx context.Context, id int64, locked bool) (int64, error) {
	tag, err := q.db.Exec(ctx, setWalletLocked, locked, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listWalletDrift = `
SELECT w.id, w.balance, COALESCE(SUM(t.amount) FILTER (WHERE t.type = ANY($1::text[])), 0)::bigint AS ledger_sum
FROM wallets w
LEFT JOIN wallet_transactions t ON t.wallet_id = w.id
GROUP BY w.id, w.balance
HAVING w.balance <> COALESCE(SUM(t.amount) FILTER (WHERE t.type = ANY($1::text[])), 0)
ORDER BY w.id
`

type WalletDriftRow struct {
	WalletID  int64
	Balance   int64
	LedgerSum int64
}

// ListWalletDrift returns wallets whose balance differs from the sum of their balance-affecting transactions.
func (q *Queries) ListWalletDrift(ctx context.Context, balanceTypes []string) ([]WalletDriftRow, error) {
	rows, err := q.db.Query(ctx, listWalletDrift, balanceTypes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WalletDriftRow
	for rows.Next() {
		var r WalletDriftRow
		if err := rows.Scan(&r.WalletID, &r.Balance, &r.LedgerSum); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const listWalletExportRows = `
SELECT u.name, u.email, w.balance, w.is_locked, w.updated_at
FROM wallets w
JOIN users u ON u.id = w.user_id
ORDER BY w.id
`

func (q *Queries) ListWalletExportRows(ctx context.Context) ([]models.WalletExportRow, error) {
	rows, err := q.db.Query(ctx, listWalletExportRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.WalletExportRow
	for rows.Next() {
		var r models.WalletExportRow
		if err := rows.Scan(&r.UserName, &r.Email, &r.Balance, &r.IsLocked, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
