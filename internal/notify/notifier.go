package notify

import (
	"context"
	"fmt"

	"github.com/freelancehub/wallet-ledger/internal/models"
	"github.com/freelancehub/wallet-ledger/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/riverqueue/river/rivertype"
	"go.uber.org/zap"
)

// Inserter enqueues jobs. *river.Client[pgx.Tx] satisfies it.
type Inserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// Notifier turns ledger events into queued email jobs. Enqueue failures are logged and dropped:
// the money movement that triggered them has already committed.
type Notifier struct {
	inserter Inserter
}

func NewNotifier(inserter Inserter) *Notifier {
	return &Notifier{inserter: inserter}
}

func (n *Notifier) PayoutRequested(ctx context.Context, payout models.PayoutRequest) {
	n.enqueue(ctx, PayoutRequestedArgs{
		PayoutRequestID:    payout.ID,
		UserID:             payout.UserID,
		Amount:             payout.Amount,
		BankAccountDetails: payout.BankAccountDetails,
	})
}

func (n *Notifier) PayoutProcessed(ctx context.Context, payout models.PayoutRequest) {
	args := PayoutProcessedArgs{
		PayoutRequestID:    payout.ID,
		UserID:             payout.UserID,
		Amount:             payout.Amount,
		Status:             payout.Status,
		BankAccountDetails: payout.BankAccountDetails,
	}
	if payout.AdminNotes != nil {
		args.AdminNotes = *payout.AdminNotes
	}
	if payout.PaymentProof != nil {
		args.ReferenceNumber = payout.PaymentProof.ReferenceNumber
	}
	n.enqueue(ctx, args)
}

func (n *Notifier) OrderCompleted(ctx context.Context, order models.Order, credited int64) {
	n.enqueue(ctx, OrderCompletedArgs{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		FreelancerID: order.FreelancerID,
		TotalAmount:  order.TotalAmount,
		Credited:     credited,
	})
}

func (n *Notifier) enqueue(ctx context.Context, args river.JobArgs) {
	if n == nil || n.inserter == nil {
		return
	}
	if _, err := n.inserter.Insert(ctx, args, nil); err != nil {
		observability.IncrementNotification(args.Kind(), "enqueue_failed")
		zap.L().Error("enqueue notification failed", zap.String("kind", args.Kind()), zap.Error(err))
		return
	}
	observability.IncrementNotification(args.Kind(), "enqueued")
}

// ClientConfig wires the email workers.
type ClientConfig struct {
	Directory  Directory
	Mailer     Mailer
	AdminEmail string
	MaxWorkers int
}

// NewWorkers registers the email workers.
func NewWorkers(cfg ClientConfig) *river.Workers {
	r := recipients{directory: cfg.Directory, mailer: cfg.Mailer, adminEmail: cfg.AdminEmail}
	workers := river.NewWorkers()
	river.AddWorker(workers, &PayoutRequestedWorker{recipients: r})
	river.AddWorker(workers, &PayoutProcessedWorker{recipients: r})
	river.AddWorker(workers, &OrderCompletedWorker{recipients: r})
	return workers
}

// NewClient builds the river client that inserts and works notification jobs.
func NewClient(pool *pgxpool.Pool, cfg ClientConfig) (*river.Client[pgx.Tx], error) {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: maxWorkers},
		},
		Workers: NewWorkers(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("create river client: %w", err)
	}
	return client, nil
}

// Migrate applies river's own schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("river migrate up: %w", err)
	}
	return nil
}
