package usecase

import (
	"context"
	"time"
)

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) TransactionPosted(int, time.Duration) {}
func (NopMetrics) TransactionReversed()                 {}
func (NopMetrics) PostingFailed(string)                 {}
func (NopMetrics) IntegrityViolation()                  {}
func (NopMetrics) AccountReconciled(bool)               {}

// NoRetry runs the operation exactly once. Used with stores that never
// report transient conflicts.
type NoRetry struct{}

// Retry runs operation once.
func (NoRetry) Retry(_ context.Context, operation func() error) error {
	return operation()
}
