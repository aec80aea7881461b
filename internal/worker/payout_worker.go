package worker

import (
	"context"
	"sync"
	"time"

	"github.com/freelancehub/wallet-ledger/internal/observability"
	"go.uber.org/zap"
)

// QueueCounter is satisfied by *service.PayoutService.
type QueueCounter interface {
	PendingQueueSize(ctx context.Context) (int64, error)
}

// PayoutQueueMonitor publishes the number of payout requests awaiting an admin decision.
type PayoutQueueMonitor struct {
	payouts      QueueCounter
	pollInterval time.Duration
	stopCh       chan struct{}
	stopOnce     sync.Once
}

// NewPayoutQueueMonitor creates a monitor polling every 30 seconds.
func NewPayoutQueueMonitor(payouts QueueCounter) *PayoutQueueMonitor {
	return &PayoutQueueMonitor{
		payouts:      payouts,
		pollInterval: 30 * time.Second,
		stopCh:       make(chan struct{}),
	}
}

// WithPollInterval sets the poll interval for the monitor.
func (m *PayoutQueueMonitor) WithPollInterval(interval time.Duration) *PayoutQueueMonitor {
	if interval > 0 {
		m.pollInterval = interval
	}
	return m
}

// Start runs until Stop is called or the context is canceled.
func (m *PayoutQueueMonitor) Start(ctx context.Context) {
	zap.L().Info("payout queue monitor starting", zap.Duration("interval", m.pollInterval))

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	_ = m.PollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("payout queue monitor context canceled")
			return
		case <-m.stopCh:
			zap.L().Info("payout queue monitor stop signal received")
			return
		case <-ticker.C:
			_ = m.PollOnce(ctx)
		}
	}
}

// Stop signals the monitor to stop. Safe to call more than once.
func (m *PayoutQueueMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

// PollOnce reads the pending count and updates the gauge.
func (m *PayoutQueueMonitor) PollOnce(ctx context.Context) error {
	size, err := m.payouts.PendingQueueSize(ctx)
	if err != nil {
		observability.IncrementWorkerRun("payout_queue_monitor", "failed")
		zap.L().Warn("payout queue size check failed", zap.Error(err))
		return err
	}
	observability.SetPayoutQueueSize(size)
	observability.IncrementWorkerRun("payout_queue_monitor", "success")
	if size > 0 {
		zap.L().Debug("payout requests awaiting review", zap.Int64("pending", size))
	}
	return nil
}

// Run starts the monitor in a goroutine and returns a function that stops it.
func (m *PayoutQueueMonitor) Run(ctx context.Context) func() {
	go m.Start(ctx)
	return m.Stop
}
