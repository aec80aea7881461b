package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/freelancehub/wallet-ledger/internal/domain"
	"github.com/freelancehub/wallet-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderParties struct {
	client     Actor
	freelancer Actor
}

func newParties(t *testing.T, f *fixture) orderParties {
	t.Helper()
	return orderParties{
		client:     Actor{ID: createUser(t, f.store, "client", domain.RoleClient), Role: domain.RoleClient},
		freelancer: Actor{ID: createUser(t, f.store, "freelancer", domain.RoleFreelancer), Role: domain.RoleFreelancer},
	}
}

func (f *fixture) createOrder(t *testing.T, p orderParties, price, fee int64) *models.Order {
	t.Helper()
	order, err := f.orders.Create(context.Background(), CreateOrderInput{
		ClientID:     p.client.ID,
		FreelancerID: p.freelancer.ID,
		ServiceID:    7,
		PackagePrice: price,
		ServiceFee:   fee,
		Requirements: "logo in three colours",
	})
	require.NoError(t, err)
	return order
}

// deliverOrder drives a new order to delivered.
func (f *fixture) deliverOrder(t *testing.T, p orderParties, orderID int64) {
	t.Helper()
	ctx := context.Background()
	_, err := f.orders.VerifyPayment(ctx, f.admin, orderID)
	require.NoError(t, err)
	_, err = f.orders.Start(ctx, p.freelancer, orderID)
	require.NoError(t, err)
	_, err = f.orders.Deliver(ctx, p.freelancer, orderID)
	require.NoError(t, err)
}

func TestOrderCompletionCreditsFreelancer(t *testing.T) {
	f := newFixture(t)
	p := newParties(t, f)
	ctx := context.Background()

	require.Equal(t, int64(0), f.balance(t, p.freelancer.ID))

	order := f.createOrder(t, p, 95_000, 5_000)
	require.Equal(t, int64(100_000), order.TotalAmount)
	f.deliverOrder(t, p, order.ID)

	completed, err := f.orders.Complete(ctx, p.client, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	require.NotNil(t, completed.DeliveredAt)

	require.Equal(t, int64(80_000), f.balance(t, p.freelancer.ID))
	txs := f.transactions(t, p.freelancer.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.WalletTxCredit, txs[0].Type)
	assert.Equal(t, int64(80_000), txs[0].Amount)
	require.NotNil(t, txs[0].OrderID)
	assert.Equal(t, order.ID, *txs[0].OrderID)

	stats, err := f.orders.FreelancerStats(ctx, p.freelancer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.CompletedOrders)

	require.Len(t, f.notifier.completed, 1)
	assert.Equal(t, int64(80_000), f.notifier.credited[0])
}

func TestCompleteTwiceCreditsOnce(t *testing.T) {
	f := newFixture(t)
	p := newParties(t, f)
	ctx := context.Background()

	order := f.createOrder(t, p, 50_000, 0)
	f.deliverOrder(t, p, order.ID)
	_, err := f.orders.Complete(ctx, p.client, order.ID)
	require.NoError(t, err)

	_, err = f.orders.Complete(ctx, p.client, order.ID)
	require.ErrorIs(t, err, models.ErrInvalidOrderTransition)
	assert.Equal(t, int64(40_000), f.balance(t, p.freelancer.ID))
	assert.Len(t, f.transactions(t, p.freelancer.ID), 1)
}

func TestInvalidTransitionsLeaveOrderUnchanged(t *testing.T) {
	f := newFixture(t)
	p := newParties(t, f)
	ctx := context.Background()

	order := f.createOrder(t, p, 10_000, 1_000)

	_, err := f.orders.Start(ctx, p.freelancer, order.ID)
	require.ErrorIs(t, err, models.ErrInvalidOrderTransition)
	_, err = f.orders.Complete(ctx, p.client, order.ID)
	require.ErrorIs(t, err, models.ErrInvalidOrderTransition)

	got, err := f.orders.Get(ctx, p.client, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
	assert.Nil(t, got.StartedAt)
}

func TestOrderRoleChecks(t *testing.T) {
	f := newFixture(t)
	p := newParties(t, f)
	ctx := context.Background()
	stranger := Actor{ID: createUser(t, f.store, "stranger", domain.RoleClient), Role: domain.RoleClient}

	order := f.createOrder(t, p, 10_000, 0)

	_, err := f.orders.VerifyPayment(ctx, p.client, order.ID)
	require.ErrorIs(t, err, ErrNotOrderParticipant)
	_, err = f.orders.Get(ctx, stranger, order.ID)
	require.ErrorIs(t, err, ErrNotOrderParticipant)

	_, err = f.orders.VerifyPayment(ctx, f.admin, order.ID)
	require.NoError(t, err)
	_, err = f.orders.Start(ctx, p.client, order.ID)
	require.ErrorIs(t, err, ErrNotOrderParticipant)
}

func TestRevisionCycle(t *testing.T) {
	f := newFixture(t)
	p := newParties(t, f)
	ctx := context.Background()

	order := f.createOrder(t, p, 20_000, 0)
	f.deliverOrder(t, p, order.ID)

	got, err := f.orders.RequestRevision(ctx, p.client, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusRevisionRequested, got.Status)
	firstStart := got.StartedAt

	got, err = f.orders.Start(ctx, p.freelancer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, firstStart, got.StartedAt)

	got, err = f.orders.SubmitForReview(ctx, p.freelancer, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusReview, got.Status)

	_, err = f.orders.Complete(ctx, p.client, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(16_000), f.balance(t, p.freelancer.ID))
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	p := newParties(t, f)
	ctx := context.Background()

	order := f.createOrder(t, p, 20_000, 0)

	_, err := f.orders.Cancel(ctx, p.client, order.ID, "  ")
	require.ErrorIs(t, err, ErrReasonRequired)

	got, err := f.orders.Cancel(ctx, p.client, order.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)
	require.NotNil(t, got.CancellationReason)
	assert.Equal(t, "changed my mind", *got.CancellationReason)
	assert.NotNil(t, got.CancelledAt)

	_, err = f.orders.VerifyPayment(ctx, f.admin, order.ID)
	require.ErrorIs(t, err, models.ErrInvalidOrderTransition)
}

func TestRejectPaymentKeepsOrderPending(t *testing.T) {
	f := newFixture(t)
	p := newParties(t, f)
	ctx := context.Background()

	order := f.createOrder(t, p, 20_000, 0)
	got, err := f.orders.RejectPayment(ctx, f.admin, order.ID, "transfer not received")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
	assert.Equal(t, domain.PaymentStatusFailed, got.PaymentStatus)

	got, err = f.orders.VerifyPayment(ctx, f.admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusVerified, got.PaymentStatus)
	assert.NotNil(t, got.PaymentVerifiedAt)

	_, err = f.orders.RejectPayment(ctx, f.admin, order.ID, "late")
	require.ErrorIs(t, err, models.ErrInvalidOrderTransition)
}

func TestOrderNumbersAreSequentialAndUnique(t *testing.T) {
	f := newFixture(t)
	p := newParties(t, f)
	ctx := context.Background()
	pattern := regexp.MustCompile(`^ORD-\d{4}-\d{6}$`)

	const n = 12
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := f.orders.Create(ctx, CreateOrderInput{
				ClientID:     p.client.ID,
				FreelancerID: p.freelancer.ID,
				ServiceID:    1,
				PackagePrice: 1_000,
			})
			if err == nil {
				numbers <- order.OrderNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]struct{}{}
	for num := range numbers {
		assert.Regexp(t, pattern, num)
		seen[num] = struct{}{}
	}
	require.Len(t, seen, n)
	assert.Contains(t, seen, domain.FormatOrderNumber(time.Now().UTC().Year(), n))
}

func TestSubmitReviewUpdatesAverage(t *testing.T) {
	f := newFixture(t)
	p := newParties(t, f)
	ctx := context.Background()

	var orderIDs []int64
	for i := 0; i < 3; i++ {
		order := f.createOrder(t, p, 10_000, 0)
		f.deliverOrder(t, p, order.ID)
		_, err := f.orders.Complete(ctx, p.client, order.ID)
		require.NoError(t, err)
		orderIDs = append(orderIDs, order.ID)
	}

	for i, rating := range []int32{5, 4, 5} {
		_, err := f.orders.SubmitReview(ctx, p.client, orderIDs[i], rating, "great")
		require.NoError(t, err)
	}

	_, err := f.orders.SubmitReview(ctx, p.client, orderIDs[0], 1, "again")
	require.True(t, errors.Is(err, models.ErrAlreadyReviewed))

	stats, err := f.orders.FreelancerStats(ctx, p.freelancer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.CompletedOrders)
	assert.Equal(t, int64(14), stats.RatingSum)
	assert.Equal(t, int64(3), stats.RatingCount)
	assert.Equal(t, "4.67", stats.AverageRating.StringFixed(2))
}

func TestSubmitReviewRequiresCompletedOrder(t *testing.T) {
	f := newFixture(t)
	p := newParties(t, f)
	ctx := context.Background()

	order := f.createOrder(t, p, 10_000, 0)
	_, err := f.orders.SubmitReview(ctx, p.client, order.ID, 5, "")
	require.ErrorIs(t, err, models.ErrOrderNotCompleted)

	_, err = f.orders.SubmitReview(ctx, p.client, order.ID, 6, "")
	require.ErrorIs(t, err, ErrInvalidRating)
}
