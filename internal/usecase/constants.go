package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyPending is the stored value of a key whose first request
	// has not finished.
	IdempotencyPending = "processing"

	// MaxHistoryDays bounds the span of a balance history request.
	MaxHistoryDays = 3660

	// DefaultReconcileConcurrency is the number of accounts reconciled in parallel.
	DefaultReconcileConcurrency = 8

	// ReconcileAllLockTTL bounds how long a crashed reconcile-all pass can
	// block the next one.
	ReconcileAllLockTTL = 10 * time.Minute

	reconcileAllLockKey = "reconcile-all"
)
