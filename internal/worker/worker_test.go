package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/freelancehub/wallet-ledger/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	calls atomic.Int32
	drift []repository.WalletDriftRow
	err   error
}

func (f *fakeReconciler) Run(context.Context) ([]repository.WalletDriftRow, error) {
	f.calls.Add(1)
	return f.drift, f.err
}

type fakeCounter struct {
	calls atomic.Int32
	size  int64
	err   error
}

func (f *fakeCounter) PendingQueueSize(context.Context) (int64, error) {
	f.calls.Add(1)
	return f.size, f.err
}

func TestReconciliationWorkerRunOnce(t *testing.T) {
	tests := []struct {
		name string
		rec  *fakeReconciler
		want int
	}{
		{name: "clean", rec: &fakeReconciler{}, want: 0},
		{name: "drift", rec: &fakeReconciler{drift: []repository.WalletDriftRow{{WalletID: 1, Balance: 10, LedgerSum: 5}}}, want: 1},
		{name: "failure", rec: &fakeReconciler{err: errors.New("db down")}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewReconciliationWorker(tt.rec)
			assert.Equal(t, tt.want, w.RunOnce(context.Background()))
			assert.Equal(t, int32(1), tt.rec.calls.Load())
		})
	}
}

func TestReconciliationWorkerRunsAtStartupAndStops(t *testing.T) {
	rec := &fakeReconciler{}
	w := NewReconciliationWorker(rec).WithInterval(time.Hour)

	stop := w.Run(context.Background())
	require.Eventually(t, func() bool { return rec.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	stop()
	stop()
}

func TestPayoutQueueMonitorPolls(t *testing.T) {
	counter := &fakeCounter{size: 3}
	m := NewPayoutQueueMonitor(counter).WithPollInterval(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Run(ctx)

	require.Eventually(t, func() bool { return counter.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestPayoutQueueMonitorPollOnceReturnsError(t *testing.T) {
	counter := &fakeCounter{err: errors.New("timeout")}
	m := NewPayoutQueueMonitor(counter)
	require.Error(t, m.PollOnce(context.Background()))
}
