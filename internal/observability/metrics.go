package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpDurationHistogram *prometheus.HistogramVec
	walletDriftCounter    prometheus.Counter
	idempotencyCounter    *prometheus.CounterVec
	payoutQueueGauge      prometheus.Gauge
	walletMutationCounter *prometheus.CounterVec
	orderTransitionCount  *prometheus.CounterVec
	notificationCounter   *prometheus.CounterVec
	workerRunCounter      *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		walletDriftCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_drift_total",
			Help: "Wallets whose balance differed from the sum of their transactions",
		})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		payoutQueueGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "payout_pending_queue_size",
			Help: "Current number of payout requests waiting for an admin decision",
		})

		walletMutationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_mutations_total",
			Help: "Committed wallet transactions by type",
		}, []string{"type"})

		orderTransitionCount = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Committed order status transitions",
		}, []string{"from", "to"})

		notificationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notification enqueue and delivery outcomes",
		}, []string{"kind", "result"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			walletDriftCounter,
			idempotencyCounter,
			payoutQueueGauge,
			walletMutationCounter,
			orderTransitionCount,
			notificationCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementWalletDrift() {
	if walletDriftCounter == nil {
		return
	}
	walletDriftCounter.Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func SetPayoutQueueSize(size int64) {
	if payoutQueueGauge == nil {
		return
	}
	payoutQueueGauge.Set(float64(size))
}

func IncrementWalletMutation(txType string) {
	if walletMutationCounter == nil {
		return
	}
	walletMutationCounter.WithLabelValues(txType).Inc()
}

func IncrementOrderTransition(from, to string) {
	if orderTransitionCount == nil {
		return
	}
	orderTransitionCount.WithLabelValues(from, to).Inc()
}

func IncrementNotification(kind, result string) {
	if notificationCounter == nil {
		return
	}
	notificationCounter.WithLabelValues(kind, result).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
