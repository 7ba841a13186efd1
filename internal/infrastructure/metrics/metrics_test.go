package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.TransactionsPosted == nil || m.HTTPRequests == nil || m.PostingFailures == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.TransactionPosted(2, 10*time.Millisecond)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNewTwiceOnSeparateRegistries(t *testing.T) {
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}

func TestLedgerCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.TransactionPosted(3, time.Millisecond)
	m.TransactionPosted(2, time.Millisecond)
	m.TransactionReversed()
	m.PostingFailed("unbalanced")
	m.PostingFailed("unbalanced")
	m.PostingFailed("currency_mismatch")
	m.IntegrityViolation()
	m.AccountReconciled(true)
	m.AccountReconciled(false)
	m.AccountReconciled(false)

	if got := testutil.ToFloat64(m.TransactionsPosted); got != 2 {
		t.Fatalf("expected 2 posted, got %v", got)
	}
	if got := testutil.ToFloat64(m.TransactionsReversed); got != 1 {
		t.Fatalf("expected 1 reversed, got %v", got)
	}
	if got := testutil.ToFloat64(m.PostingFailures.WithLabelValues("unbalanced")); got != 2 {
		t.Fatalf("expected 2 unbalanced failures, got %v", got)
	}
	if got := testutil.ToFloat64(m.IntegrityViolations); got != 1 {
		t.Fatalf("expected 1 violation, got %v", got)
	}
	if got := testutil.ToFloat64(m.AccountsReconciled.WithLabelValues("ok")); got != 2 {
		t.Fatalf("expected 2 clean reconciles, got %v", got)
	}
	if got := testutil.ToFloat64(m.AccountsReconciled.WithLabelValues("corrected")); got != 1 {
		t.Fatalf("expected 1 corrected reconcile, got %v", got)
	}
}

func TestHTTPMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RequestStarted()
	if got := testutil.ToFloat64(m.HTTPInFlight); got != 1 {
		t.Fatalf("expected 1 in flight, got %v", got)
	}

	m.RequestFinished("GET", "/api/v1/accounts/{id}", 200, time.Millisecond)
	if got := testutil.ToFloat64(m.HTTPInFlight); got != 0 {
		t.Fatalf("expected 0 in flight, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/v1/accounts/{id}", "200")); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}

	m.RateLimited()
	if got := testutil.ToFloat64(m.RateLimitHits); got != 1 {
		t.Fatalf("expected 1 rate limit hit, got %v", got)
	}
}

func TestStorageRetriesBySQLState(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.StorageRetried("40P01")
	m.StorageRetried("40P01")
	m.StorageRetried("40001")

	if got := testutil.ToFloat64(m.StorageRetries.WithLabelValues("40P01")); got != 2 {
		t.Fatalf("expected 2 deadlock retries, got %v", got)
	}
	if got := testutil.ToFloat64(m.StorageRetries.WithLabelValues("40001")); got != 1 {
		t.Fatalf("expected 1 serialization retry, got %v", got)
	}
}
