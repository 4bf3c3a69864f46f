package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"route", "method", "status"},
	)

	// Ledger
	TransactionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_created_total",
			Help: "Transactions recorded, by type and payment method",
		},
		[]string{"type", "method"},
	)
	Transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transitions_total",
			Help: "Status transition attempts by action and outcome",
		},
		[]string{"action", "result"}, // ok|invalid|forbidden|conflict|error
	)
	TransactionsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_transactions_rejected_total",
			Help: "Create requests rejected before persistence",
		},
	)
	StatsCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_wallet_stats_cache_total",
			Help: "Wallet stats cache lookups",
		},
		[]string{"result"}, // hit|miss
	)

	// worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)

	initOnce sync.Once
)

// handler for the /metrics endpoint
var Handler = promhttp.Handler

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(TransactionsCreated)
		prometheus.MustRegister(Transitions)
		prometheus.MustRegister(TransactionsRejected)
		prometheus.MustRegister(StatsCache)
		prometheus.MustRegister(WorkerQueueDepth)
	})
}
