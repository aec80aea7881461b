package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/freelancehub/wallet-ledger/internal/db"
	"github.com/freelancehub/wallet-ledger/internal/domain"
	"github.com/freelancehub/wallet-ledger/internal/models"
	"github.com/freelancehub/wallet-ledger/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

var truncateTables = []string{
	"idempotency_keys", "audit_log", "reviews", "freelancer_stats", "wallet_transactions",
	"payment_proofs", "payout_requests", "orders", "order_sequences", "wallets", "users",
}

// setupTestDB connects to DATABASE_URL, applies the schema and empties every table.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))
	for _, table := range truncateTables {
		_, err := pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table))
		require.NoError(t, err, "truncate %s", table)
	}
	return pool
}

func createUser(t *testing.T, store *repository.Store, name, role string) int64 {
	t.Helper()
	id, err := store.Queries().CreateUser(context.Background(), name, name+"@example.com", role)
	require.NoError(t, err)
	return id
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu        sync.Mutex
	requested []models.PayoutRequest
	processed []models.PayoutRequest
	completed []models.Order
	credited  []int64
}

func (n *recordingNotifier) PayoutRequested(_ context.Context, p models.PayoutRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requested = append(n.requested, p)
}

func (n *recordingNotifier) PayoutProcessed(_ context.Context, p models.PayoutRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.processed = append(n.processed, p)
}

func (n *recordingNotifier) OrderCompleted(_ context.Context, o models.Order, credited int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, o)
	n.credited = append(n.credited, credited)
}

type fixture struct {
	store    *repository.Store
	notifier *recordingNotifier
	wallets  *WalletService
	payouts  *PayoutService
	orders   *OrderService
	admin    Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pool := setupTestDB(t)
	store := repository.NewStore(pool)
	notifier := &recordingNotifier{}
	settings := DefaultLedgerSettings()
	adminID := createUser(t, store, "admin", domain.RoleAdmin)
	return &fixture{
		store:    store,
		notifier: notifier,
		wallets:  NewWalletService(store, notifier, settings),
		payouts:  NewPayoutService(store, notifier),
		orders:   NewOrderService(store, notifier, settings),
		admin:    Actor{ID: adminID, Role: domain.RoleAdmin},
	}
}

// fund credits a user's wallet through the admin path.
func (f *fixture) fund(t *testing.T, userID, amount int64) {
	t.Helper()
	_, err := f.wallets.ManualOperation(context.Background(), ManualOperationInput{
		AdminID: f.admin.ID,
		UserID:  userID,
		Type:    domain.ManualOpCredit,
		Amount:  amount,
		Reason:  "test funding",
	})
	require.NoError(t, err)
}

func (f *fixture) transactions(t *testing.T, userID int64) []models.WalletTransaction {
	t.Helper()
	rows, err := f.wallets.ListTransactions(context.Background(), userID, 500, 0)
	require.NoError(t, err)
	return rows
}

func (f *fixture) balance(t *testing.T, userID int64) int64 {
	t.Helper()
	w, err := f.wallets.GetWallet(context.Background(), userID)
	require.NoError(t, err)
	return w.Balance
}

func countByType(rows []models.WalletTransaction, txType string) int {
	n := 0
	for _, r := range rows {
		if r.Type == txType {
			n++
		}
	}
	return n
}

func adjustParams(walletID, delta int64) repository.AdjustWalletBalanceParams {
	return repository.AdjustWalletBalanceParams{ID: walletID, Delta: delta}
}
