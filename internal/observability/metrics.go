package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpDurationHistogram  *prometheus.HistogramVec
	transferCounter        *prometheus.CounterVec
	lockWaitHistogram      prometheus.Histogram
	ledgerSizeGauge        prometheus.Gauge
	ledgerImbalanceCounter *prometheus.CounterVec
	securityEventCounter   *prometheus.CounterVec
	sinkEventCounter       *prometheus.CounterVec
	idempotencyCounter     *prometheus.CounterVec
	workerRunCounter       *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		transferCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_transfers_total",
			Help: "Transfer attempts by outcome",
		}, []string{"outcome"})

		lockWaitHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wallet_lock_wait_seconds",
			Help:    "Time spent acquiring both wallet locks for a transfer",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 2, 5},
		})

		ledgerSizeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_transactions",
			Help: "Number of transactions held by the in-memory ledger",
		})

		ledgerImbalanceCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_imbalance_total",
			Help: "Reconciliation findings by kind",
		}, []string{"kind"})

		securityEventCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "security_events_total",
			Help: "Security relevant events such as ownership mismatches",
		}, []string{"kind"})

		sinkEventCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_sink_events_total",
			Help: "Persistence sink outcomes",
		}, []string{"outcome"})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			transferCounter,
			lockWaitHistogram,
			ledgerSizeGauge,
			ledgerImbalanceCounter,
			securityEventCounter,
			sinkEventCounter,
			idempotencyCounter,
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

func IncrementTransfer(outcome string) {
	if transferCounter == nil {
		return
	}
	transferCounter.WithLabelValues(outcome).Inc()
}

func ObserveLockWait(d time.Duration) {
	if lockWaitHistogram == nil {
		return
	}
	lockWaitHistogram.Observe(d.Seconds())
}

func SetLedgerSize(n int) {
	if ledgerSizeGauge == nil {
		return
	}
	ledgerSizeGauge.Set(float64(n))
}

func IncrementLedgerImbalance(kind string) {
	if ledgerImbalanceCounter == nil {
		return
	}
	ledgerImbalanceCounter.WithLabelValues(kind).Inc()
}

func IncrementSecurityEvent(kind string) {
	if securityEventCounter == nil {
		return
	}
	securityEventCounter.WithLabelValues(kind).Inc()
}

func IncrementSinkEvent(outcome string) {
	if sinkEventCounter == nil {
		return
	}
	sinkEventCounter.WithLabelValues(outcome).Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
