package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	// GetByIDsForUpdate locks the given accounts in id order. Missing ids are
	// omitted from the result.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	Deactivate(ctx context.Context, tx Transaction, id string, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// TransactionRepository defines data access for transaction headers.
type TransactionRepository interface {
	// Create returns domain.ErrTransactionAlreadyReversed when another
	// transaction already reverses t.ReversesTransactionID.
	Create(ctx context.Context, tx Transaction, t *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	UpdateDescription(ctx context.Context, id, description string) error
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	ListByTransaction(ctx context.Context, transactionID string) ([]*domain.LedgerEntry, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error)
	// ListByAccountInRange returns entries with from <= transaction_date < to,
	// ordered by transaction_date, created_at, id.
	ListByAccountInRange(ctx context.Context, accountID string, from, to time.Time) ([]*domain.LedgerEntry, error)
	SumByAccount(ctx context.Context, accountID string) (domain.EntryTotals, error)
	SumByAccountTx(ctx context.Context, tx Transaction, accountID string) (domain.EntryTotals, error)
	// SumByAccountBefore sums entries with transaction_date < before.
	SumByAccountBefore(ctx context.Context, accountID string, before time.Time) (domain.EntryTotals, error)
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context) ([]domain.CurrencyTotals, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an idempotent operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// Locker guards work that must run on one instance at a time.
type Locker interface {
	// Acquire returns a token and true when the lock was taken.
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

// Metrics records ledger business events.
type Metrics interface {
	TransactionPosted(entries int, duration time.Duration)
	TransactionReversed()
	PostingFailed(reason string)
	IntegrityViolation()
	AccountReconciled(corrected bool)
}
