package postgres

import (
	"context"
	"time"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/infrastructure/postgres/generated"
	"github.com/iho/ledgercore/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db generated.DBTX) *EntryRepository {
	return &EntryRepository{queries: generated.New(db)}
}

// Create inserts an entry within tx.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	return queries.CreateLedgerEntry(ctx, generated.CreateLedgerEntryParams{
		ID:              entry.ID,
		AccountID:       entry.AccountID,
		TransactionID:   entry.TransactionID,
		Type:            string(entry.Type),
		Amount:          decimalToNumeric(entry.Amount),
		Currency:        entry.Currency,
		TransactionDate: timeToPgTimestamptz(entry.TransactionDate),
		CreatedAt:       timeToPgTimestamptz(entry.CreatedAt),
	})
}

// ListByTransaction lists the entries of one transaction.
func (r *EntryRepository) ListByTransaction(ctx context.Context, transactionID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListEntriesByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// ListByAccount lists entries for an account, newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListEntriesByAccount(ctx, generated.ListEntriesByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// ListByAccountInRange lists entries with from <= transaction_date < to.
func (r *EntryRepository) ListByAccountInRange(ctx context.Context, accountID string, from, to time.Time) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListEntriesByAccountInRange(ctx, generated.ListEntriesByAccountInRangeParams{
		AccountID: accountID,
		FromDate:  timeToPgTimestamptz(from),
		ToDate:    timeToPgTimestamptz(to),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// SumByAccount aggregates all entries of an account.
func (r *EntryRepository) SumByAccount(ctx context.Context, accountID string) (domain.EntryTotals, error) {
	return sumByAccount(ctx, r.queries, accountID)
}

// SumByAccountTx aggregates within tx so the sum is consistent with locks
// held by the caller.
func (r *EntryRepository) SumByAccountTx(ctx context.Context, tx usecase.Transaction, accountID string) (domain.EntryTotals, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return domain.EntryTotals{}, err
	}

	return sumByAccount(ctx, queries, accountID)
}

// SumByAccountBefore aggregates entries dated strictly before before.
func (r *EntryRepository) SumByAccountBefore(ctx context.Context, accountID string, before time.Time) (domain.EntryTotals, error) {
	row, err := r.queries.SumEntriesByAccountBefore(ctx, generated.SumEntriesByAccountBeforeParams{
		AccountID:       accountID,
		TransactionDate: timeToPgTimestamptz(before),
	})
	if err != nil {
		return domain.EntryTotals{}, err
	}

	return domain.EntryTotals{
		Debits:  numericToDecimal(row.Debits),
		Credits: numericToDecimal(row.Credits),
	}, nil
}

func sumByAccount(ctx context.Context, queries *generated.Queries, accountID string) (domain.EntryTotals, error) {
	row, err := queries.SumEntriesByAccount(ctx, accountID)
	if err != nil {
		return domain.EntryTotals{}, err
	}

	return domain.EntryTotals{
		Debits:  numericToDecimal(row.Debits),
		Credits: numericToDecimal(row.Credits),
	}, nil
}

func rowsToEntries(rows []generated.LedgerEntry) []*domain.LedgerEntry {
	entries := make([]*domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}

	return entries
}

func rowToEntry(row generated.LedgerEntry) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:              row.ID,
		AccountID:       row.AccountID,
		TransactionID:   row.TransactionID,
		Type:            domain.EntryType(row.Type),
		Amount:          numericToDecimal(row.Amount),
		Currency:        row.Currency,
		TransactionDate: row.TransactionDate.Time,
		CreatedAt:       row.CreatedAt.Time,
	}
}
