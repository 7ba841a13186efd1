package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/infrastructure/postgres/generated"
	"github.com/iho/ledgercore/internal/usecase"
)

const (
	pgErrUniqueViolation = "23505"

	reversesConstraint = "transactions_reverses_transaction_id_key"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{queries: generated.New(db)}
}

// Create inserts the transaction header within tx. Entries are written by
// EntryRepository.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	err = queries.CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:                    t.ID,
		Date:                  timeToPgTimestamptz(t.Date),
		Description:           t.Description,
		ReversesTransactionID: textOrNull(t.ReversesTransactionID),
		CreatedAt:             timeToPgTimestamptz(t.CreatedAt),
	})
	if isReversalConflict(err) {
		return fmt.Errorf("%w: %s", domain.ErrTransactionAlreadyReversed, *t.ReversesTransactionID)
	}

	return err
}

// GetByID retrieves a transaction with its entries.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row, err := r.queries.GetTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, id)
		}

		return nil, err
	}

	entries, err := r.queries.ListEntriesByTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	t := &domain.Transaction{
		ID:                    row.ID,
		Date:                  row.Date.Time,
		Description:           row.Description,
		ReversesTransactionID: nullableText(row.ReversesTransactionID),
		Entries:               make([]*domain.LedgerEntry, 0, len(entries)),
		CreatedAt:             row.CreatedAt.Time,
	}
	for _, e := range entries {
		t.Entries = append(t.Entries, rowToEntry(e))
	}

	return t, nil
}

// UpdateDescription changes the only mutable field of a transaction.
func (r *TransactionRepository) UpdateDescription(ctx context.Context, id, description string) error {
	n, err := r.queries.UpdateTransactionDescription(ctx, generated.UpdateTransactionDescriptionParams{
		ID:          id,
		Description: description,
	})
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, id)
	}

	return nil
}

func isReversalConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUniqueViolation && pgErr.ConstraintName == reversesConstraint
	}

	return false
}
