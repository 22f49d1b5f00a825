package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/ledgertx/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction metrics
	TransactionsCreated *prometheus.CounterVec
	EnqueueFailures     prometheus.Counter
	Republished         prometheus.Counter

	// Settlement metrics
	SettlementsFinished *prometheus.CounterVec
	SettlementDuration  *prometheus.HistogramVec
	SettlementsSkipped  prometheus.Counter
	DeadLettered        *prometheus.CounterVec
	Redeliveries        prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates all Prometheus metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Transaction metrics
		TransactionsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgertx_transactions_created_total",
				Help: "Total number of transactions written, by whether they reverse another",
			},
			[]string{"reversal"},
		),
		EnqueueFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgertx_settlement_enqueue_failures_total",
			Help: "Committed transactions whose settlement message could not be published",
		}),
		Republished: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgertx_settlement_republished_total",
			Help: "Settlement messages re-sent for transactions left pending",
		}),

		// Settlement metrics
		SettlementsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgertx_settlements_total",
				Help: "Settlement attempts that reached a terminal status",
			},
			[]string{"status"},
		),
		SettlementDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledgertx_settlement_duration_seconds",
				Help:    "Time from message receipt to terminal status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		SettlementsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgertx_settlements_skipped_total",
			Help: "Deliveries acknowledged because the transaction was already terminal",
		}),
		DeadLettered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgertx_settlement_dead_lettered_total",
				Help: "Settlement messages moved to the dead-letter queue",
			},
			[]string{"reason"},
		),
		Redeliveries: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgertx_settlement_redeliveries_total",
			Help: "Settlement messages left for redelivery after a failure",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgertx_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledgertx_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgertx_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}
}

// TransactionCreated implements usecase.Metrics.
func (m *Metrics) TransactionCreated(reversal bool) {
	m.TransactionsCreated.WithLabelValues(strconv.FormatBool(reversal)).Inc()
}

// EnqueueFailed implements usecase.Metrics.
func (m *Metrics) EnqueueFailed() {
	m.EnqueueFailures.Inc()
}

// SettlementFinished implements usecase.Metrics.
func (m *Metrics) SettlementFinished(status domain.TransactionStatus, elapsed time.Duration) {
	m.SettlementsFinished.WithLabelValues(string(status)).Inc()
	m.SettlementDuration.WithLabelValues(string(status)).Observe(elapsed.Seconds())
}

// SettlementSkipped implements usecase.Metrics.
func (m *Metrics) SettlementSkipped() {
	m.SettlementsSkipped.Inc()
}

// MessageDeadLettered counts a message given up on.
func (m *Metrics) MessageDeadLettered(reason string) {
	m.DeadLettered.WithLabelValues(reason).Inc()
}

// MessageRedelivered counts a message left for another attempt.
func (m *Metrics) MessageRedelivered() {
	m.Redeliveries.Inc()
}

// TransactionsRepublished counts re-sent settlement messages.
func (m *Metrics) TransactionsRepublished(n int) {
	m.Republished.Add(float64(n))
}

// HTTPRequest records one served request.
func (m *Metrics) HTTPRequest(method, path string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// RateLimited counts a rejected request.
func (m *Metrics) RateLimited() {
	m.RateLimitHits.Inc()
}
