package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/freelancehub/wallet-ledger/internal/models"
	"github.com/freelancehub/wallet-ledger/internal/observability"
	"github.com/riverqueue/river"
)

// Job kinds.
const (
	KindPayoutRequested = "payout_requested_email"
	KindPayoutProcessed = "payout_processed_email"
	KindOrderCompleted  = "order_completed_email"
)

// Directory resolves recipients. *repository.Queries satisfies it.
type Directory interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
	ListAdminEmails(ctx context.Context) ([]string, error)
}

type PayoutRequestedArgs struct {
	PayoutRequestID    int64  `json:"payout_request_id"`
	UserID             int64  `json:"user_id"`
	Amount             int64  `json:"amount"`
	BankAccountDetails string `json:"bank_account_details"`
}

func (PayoutRequestedArgs) Kind() string { return KindPayoutRequested }

type PayoutProcessedArgs struct {
	PayoutRequestID    int64  `json:"payout_request_id"`
	UserID             int64  `json:"user_id"`
	Amount             int64  `json:"amount"`
	Status             string `json:"status"`
	BankAccountDetails string `json:"bank_account_details"`
	AdminNotes         string `json:"admin_notes,omitempty"`
	ReferenceNumber    string `json:"reference_number,omitempty"`
}

func (PayoutProcessedArgs) Kind() string { return KindPayoutProcessed }

type OrderCompletedArgs struct {
	OrderID      int64  `json:"order_id"`
	OrderNumber  string `json:"order_number"`
	FreelancerID int64  `json:"freelancer_id"`
	TotalAmount  int64  `json:"total_amount"`
	Credited     int64  `json:"credited"`
}

func (OrderCompletedArgs) Kind() string { return KindOrderCompleted }

// recipients is shared by every worker.
type recipients struct {
	directory  Directory
	mailer     Mailer
	adminEmail string
}

func (r recipients) send(ctx context.Context, kind string, msg Message) error {
	if err := r.mailer.Send(ctx, msg); err != nil {
		observability.IncrementNotification(kind, "send_failed")
		return fmt.Errorf("send %s: %w", kind, err)
	}
	observability.IncrementNotification(kind, "sent")
	return nil
}

func (r recipients) user(ctx context.Context, id int64) (models.User, error) {
	u, err := r.directory.GetUser(ctx, id)
	if err != nil {
		return models.User{}, fmt.Errorf("load user %d: %w", id, err)
	}
	return u, nil
}

// adminAddresses prefers the configured address and falls back to every admin user.
func (r recipients) adminAddresses(ctx context.Context) ([]string, error) {
	if r.adminEmail != "" {
		return []string{r.adminEmail}, nil
	}
	emails, err := r.directory.ListAdminEmails(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admin emails: %w", err)
	}
	return emails, nil
}

type PayoutRequestedWorker struct {
	river.WorkerDefaults[PayoutRequestedArgs]
	recipients
}

func (w *PayoutRequestedWorker) Work(ctx context.Context, job *river.Job[PayoutRequestedArgs]) error {
	freelancer, err := w.user(ctx, job.Args.UserID)
	if err != nil {
		return err
	}
	admins, err := w.adminAddresses(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, to := range admins {
		if err := w.send(ctx, KindPayoutRequested, payoutRequestedMessage(to, freelancer, job.Args)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type PayoutProcessedWorker struct {
	river.WorkerDefaults[PayoutProcessedArgs]
	recipients
}

func (w *PayoutProcessedWorker) Work(ctx context.Context, job *river.Job[PayoutProcessedArgs]) error {
	freelancer, err := w.user(ctx, job.Args.UserID)
	if err != nil {
		return err
	}
	return w.send(ctx, KindPayoutProcessed, payoutProcessedMessage(freelancer.Email, freelancer.Name, job.Args))
}

type OrderCompletedWorker struct {
	river.WorkerDefaults[OrderCompletedArgs]
	recipients
}

func (w *OrderCompletedWorker) Work(ctx context.Context, job *river.Job[OrderCompletedArgs]) error {
	freelancer, err := w.user(ctx, job.Args.FreelancerID)
	if err != nil {
		return err
	}
	return w.send(ctx, KindOrderCompleted, orderCompletedMessage(freelancer.Email, freelancer.Name, job.Args))
}
