package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ledgercore"

// Metrics holds all Prometheus metrics. It implements usecase.Metrics.
type Metrics struct {
	// Posting metrics
	TransactionsPosted    prometheus.Counter
	TransactionsReversed  prometheus.Counter
	PostingDuration       prometheus.Histogram
	EntriesPerTransaction prometheus.Histogram
	PostingFailures       *prometheus.CounterVec

	// Integrity metrics
	IntegrityViolations prometheus.Counter
	AccountsReconciled  *prometheus.CounterVec
	StorageRetries      *prometheus.CounterVec

	// Outbox metrics
	EventsPublished      *prometheus.CounterVec
	EventPublishFailures prometheus.Counter

	// API metrics
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	HTTPInFlight  prometheus.Gauge
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TransactionsPosted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_posted_total",
			Help:      "Total number of transactions posted",
		}),
		TransactionsReversed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_reversed_total",
			Help:      "Total number of reversal transactions posted",
		}),
		PostingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "posting_duration_seconds",
			Help:      "Duration of successful posts",
			Buckets:   prometheus.DefBuckets,
		}),
		EntriesPerTransaction: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "entries_per_transaction",
			Help:      "Number of entries in posted transactions",
			Buckets:   []float64{2, 3, 4, 6, 8, 16, 32, 64},
		}),
		PostingFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "posting_failures_total",
				Help:      "Total number of rejected or failed posts by reason",
			},
			[]string{"reason"},
		),

		IntegrityViolations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integrity_violations_total",
			Help:      "Cached balances found to disagree with their entries",
		}),
		AccountsReconciled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "accounts_reconciled_total",
				Help:      "Accounts reconciled by outcome",
			},
			[]string{"outcome"},
		),
		StorageRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_retries_total",
				Help:      "Retried storage operations by SQLSTATE",
			},
			[]string{"sqlstate"},
		),

		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_events_published_total",
				Help:      "Outbox events delivered to the sink",
			},
			[]string{"event_type"},
		),
		EventPublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_publish_failures_total",
			Help:      "Outbox events the sink rejected",
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
}

// TransactionPosted records a successful post.
func (m *Metrics) TransactionPosted(entries int, duration time.Duration) {
	m.TransactionsPosted.Inc()
	m.EntriesPerTransaction.Observe(float64(entries))
	m.PostingDuration.Observe(duration.Seconds())
}

// TransactionReversed records a successful reversal.
func (m *Metrics) TransactionReversed() {
	m.TransactionsReversed.Inc()
}

// PostingFailed records a rejected or failed post.
func (m *Metrics) PostingFailed(reason string) {
	m.PostingFailures.WithLabelValues(reason).Inc()
}

// IntegrityViolation records a cached balance that disagrees with its entries.
func (m *Metrics) IntegrityViolation() {
	m.IntegrityViolations.Inc()
}

// AccountReconciled records one reconcile outcome.
func (m *Metrics) AccountReconciled(corrected bool) {
	outcome := "ok"
	if corrected {
		outcome = "corrected"
	}
	m.AccountsReconciled.WithLabelValues(outcome).Inc()
}

// StorageRetried records one retried storage attempt.
func (m *Metrics) StorageRetried(code string) {
	m.StorageRetries.WithLabelValues(code).Inc()
}

// EventPublished records a delivered outbox event.
func (m *Metrics) EventPublished(eventType string) {
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

// EventPublishFailed records a failed delivery.
func (m *Metrics) EventPublishFailed() {
	m.EventPublishFailures.Inc()
}

// RequestStarted records a request entering the handler chain.
func (m *Metrics) RequestStarted() {
	m.HTTPInFlight.Inc()
}

// RequestFinished records a completed HTTP request.
func (m *Metrics) RequestFinished(method, path string, status int, duration time.Duration) {
	m.HTTPInFlight.Dec()
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RateLimited records a request rejected by the rate limiter.
func (m *Metrics) RateLimited() {
	m.RateLimitHits.Inc()
}
