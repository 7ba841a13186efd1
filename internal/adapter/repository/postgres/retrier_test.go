package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type retryCounter struct {
	mu    sync.Mutex
	codes map[string]int
}

func (c *retryCounter) StorageRetried(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.codes == nil {
		c.codes = map[string]int{}
	}
	c.codes[code]++
}

func fastPolicy(maxRetries int, codes ...string) RetryPolicy {
	return RetryPolicy{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxElapsedTime:  time.Second,
		Codes:           codes,
	}
}

func TestRetrierRetriesOnRetryableError(t *testing.T) {
	counter := &retryCounter{}
	r := NewRetrier(fastPolicy(2), zerolog.Nop()).WithRecorder(counter)

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return &pgconn.PgError{Code: pgErrDeadlock}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, map[string]int{pgErrDeadlock: 1}, counter.codes)
}

func TestRetrierGivesUpAfterMaxRetries(t *testing.T) {
	r := NewRetrier(fastPolicy(2), zerolog.Nop())

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		return fmt.Errorf("reconcile: %w", &pgconn.PgError{Code: pgErrSerializationFailure})
	})

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, pgErrSerializationFailure, pgErr.Code)
	assert.Equal(t, 3, attempts)
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	r := NewRetrier(DefaultRetryPolicy(), zerolog.Nop())
	attempts := 0
	permanentErr := errors.New("permanent")

	err := r.Retry(context.Background(), func() error {
		attempts++
		return permanentErr
	})

	require.ErrorIs(t, err, permanentErr)
	assert.Equal(t, 1, attempts)
}

func TestRetrierZeroRetriesRunsOnce(t *testing.T) {
	r := NewRetrier(fastPolicy(0), zerolog.Nop())

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		return &pgconn.PgError{Code: pgErrDeadlock}
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetrierCountsRetriesPerCode(t *testing.T) {
	counter := &retryCounter{}
	r := NewRetrier(fastPolicy(5, pgErrDeadlock, "55P03"), zerolog.Nop()).WithRecorder(counter)

	sequence := []error{
		&pgconn.PgError{Code: pgErrDeadlock},
		&pgconn.PgError{Code: "55P03"},
		&pgconn.PgError{Code: pgErrDeadlock},
		nil,
	}
	attempts := 0
	err := r.Retry(context.Background(), func() error {
		err := sequence[attempts]
		attempts++
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, 4, attempts)
	assert.Equal(t, map[string]int{pgErrDeadlock: 2, "55P03": 1}, counter.codes)
}

func TestRetrierCustomCodesReplaceDefaults(t *testing.T) {
	r := NewRetrier(fastPolicy(3, "55P03"), zerolog.Nop())

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		return &pgconn.PgError{Code: pgErrDeadlock}
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts, "deadlock is not in the configured codes")
}

func TestRetrierStopsOnCancelledContext(t *testing.T) {
	r := NewRetrier(fastPolicy(10), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := r.Retry(ctx, func() error {
		attempts++
		cancel()
		return &pgconn.PgError{Code: pgErrDeadlock}
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetrierRetryable(t *testing.T) {
	r := NewRetrier(DefaultRetryPolicy(), zerolog.Nop())

	assert.True(t, r.Retryable(&pgconn.PgError{Code: pgErrDeadlock}))
	assert.True(t, r.Retryable(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: pgErrSerializationFailure})))
	assert.False(t, r.Retryable(&pgconn.PgError{Code: pgErrUniqueViolation}))
	assert.False(t, r.Retryable(errors.New("other")))
}
