package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/ledgercore/internal/infrastructure/config"
	"github.com/iho/ledgercore/internal/infrastructure/metrics"
)

func memoryConfig() *config.Config {
	return &config.Config{
		StorageDriver:          config.StorageDriverMemory,
		HTTPPort:               "0",
		HTTPShutdownTimeout:    time.Second,
		RateLimitRPS:           1000,
		RateLimitBurst:         1000,
		RateLimitResetInterval: time.Hour,
		IdempotencyTTL:         time.Hour,
		EventSink:              config.EventSinkNone,
		OutboxPollInterval:     time.Second,
		ReconcileConcurrency:   2,
		ReconcileInterval:      time.Hour,
	}
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestNewAppMemory(t *testing.T) {
	a, err := newApp(context.Background(), memoryConfig(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Nil(t, a.publisher)
	assert.NotNil(t, a.integrity)
	assert.Equal(t, http.StatusOK, serve(t, a.handler, http.MethodGet, "/ready", "").Code)

	rec := serve(t, a.handler, http.MethodPost, "/api/v1/accounts/", `{"name":"Cash","type":"ASSET","currency":"EUR"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var account struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &account))

	rec = serve(t, a.handler, http.MethodGet, "/api/v1/accounts/"+account.ID+"/integrity", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, a.handler, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ledgercore_http_requests_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNewAppWithRedisAndLogSink(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := memoryConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	cfg.EventSink = config.EventSinkLog

	a, err := newApp(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.NotNil(t, a.publisher)

	rec := serve(t, a.handler, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"ok"`)

	mr.Close()
	rec = serve(t, a.handler, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewAppRedisUnavailable(t *testing.T) {
	cfg := memoryConfig()
	cfg.RedisURL = "redis://127.0.0.1:1"

	_, err := newApp(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis")
}

func TestNewAppReleasesResourcesOnFailure(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := memoryConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	cfg.EventSink = "carrier-pigeon"

	a, err := newApp(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "unknown event sink")

	assert.Eventually(t, func() bool {
		return mr.CurrentConnectionCount() == 0
	}, time.Second, 10*time.Millisecond, "redis connection left open after failed startup")
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx, memoryConfig()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}

func TestNewRetrierFollowsConfig(t *testing.T) {
	cfg := memoryConfig()
	cfg.DatabaseRetryMax = 1
	cfg.DatabaseRetryCodes = []string{"55P03"}
	m := metrics.New(prometheus.NewRegistry())

	r := newRetrier(cfg, m, zerolog.Nop())
	assert.True(t, r.Retryable(&pgconn.PgError{Code: "55P03"}))
	assert.False(t, r.Retryable(&pgconn.PgError{Code: "40P01"}))

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		return &pgconn.PgError{Code: "55P03"}
	})
	require.Error(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StorageRetries.WithLabelValues("55P03")))
}
