package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// SQLSTATE codes retried when no policy overrides them.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

// RetryPolicy decides which storage errors are re-run and how patiently.
type RetryPolicy struct {
	// MaxRetries counts attempts after the first one.
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	// Codes lists the SQLSTATE codes that are worth another attempt.
	Codes []string
}

// DefaultRetryPolicy retries deadlocks and serialization failures three times.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
		MaxElapsedTime:  10 * time.Second,
		Codes:           []string{pgErrDeadlock, pgErrSerializationFailure},
	}
}

// RetryRecorder is told the SQLSTATE of every retried attempt.
type RetryRecorder interface {
	StorageRetried(code string)
}

// Retrier implements usecase.Retrier for reconcile passes.
type Retrier struct {
	policy   RetryPolicy
	codes    map[string]struct{}
	logger   zerolog.Logger
	recorder RetryRecorder
}

// NewRetrier creates a retrier for policy. An empty code list falls back to
// the default codes.
func NewRetrier(policy RetryPolicy, logger zerolog.Logger) *Retrier {
	if len(policy.Codes) == 0 {
		policy.Codes = DefaultRetryPolicy().Codes
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}

	codes := make(map[string]struct{}, len(policy.Codes))
	for _, c := range policy.Codes {
		codes[c] = struct{}{}
	}

	return &Retrier{policy: policy, codes: codes, logger: logger}
}

// WithRecorder reports retried attempts to recorder.
func (r *Retrier) WithRecorder(recorder RetryRecorder) *Retrier {
	r.recorder = recorder
	return r
}

// Retry runs operation until it succeeds, fails with a code outside the
// policy, or the policy runs out of attempts. The last error is returned.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialInterval
	b.MaxInterval = r.policy.MaxInterval
	b.MaxElapsedTime = r.policy.MaxElapsedTime

	attempt := 0
	op := func() error {
		err := operation()
		if err != nil && !r.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		attempt++
		code := sqlState(err)
		if r.recorder != nil {
			r.recorder.StorageRetried(code)
		}
		r.logger.Warn().
			Err(err).
			Str("sqlstate", code).
			Int("retry", attempt).
			Dur("wait", wait).
			Msg("retryable database error, retrying")
	}

	policy := backoff.WithMaxRetries(b, uint64(r.policy.MaxRetries))

	return backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify)
}

// Retryable reports whether err carries one of the policy's SQLSTATE codes.
func (r *Retrier) Retryable(err error) bool {
	_, ok := r.codes[sqlState(err)]
	return ok
}

// sqlState returns the SQLSTATE of the first PostgreSQL error in err's chain,
// or "" if there is none.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
