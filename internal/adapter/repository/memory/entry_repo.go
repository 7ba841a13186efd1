package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store *Store
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

// Create stages an entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	e := *entry

	return t.stage(func() error {
		t.entries = append(t.entries, &e)
		return nil
	})
}

// ListByTransaction lists a transaction's entries in posting order.
func (r *EntryRepository) ListByTransaction(ctx context.Context, transactionID string) ([]*domain.LedgerEntry, error) {
	entries, err := r.filter(ctx, func(e *domain.LedgerEntry) bool {
		return e.TransactionID == transactionID
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})

	return entries, nil
}

// ListByAccount lists an account's entries, newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	entries, err := r.filter(ctx, func(e *domain.LedgerEntry) bool {
		return e.AccountID == accountID
	})
	if err != nil {
		return nil, err
	}

	sortChronologically(entries)

	result := make([]*domain.LedgerEntry, 0, limit)
	for i := len(entries) - 1 - offset; i >= 0 && len(result) < limit; i-- {
		result = append(result, entries[i])
	}

	return result, nil
}

// ListByAccountInRange lists entries with from <= transaction date < to in
// chronological order.
func (r *EntryRepository) ListByAccountInRange(ctx context.Context, accountID string, from, to time.Time) ([]*domain.LedgerEntry, error) {
	entries, err := r.filter(ctx, func(e *domain.LedgerEntry) bool {
		return e.AccountID == accountID &&
			!e.TransactionDate.Before(from) &&
			e.TransactionDate.Before(to)
	})
	if err != nil {
		return nil, err
	}

	sortChronologically(entries)

	return entries, nil
}

// SumByAccount totals every committed entry of the account.
func (r *EntryRepository) SumByAccount(ctx context.Context, accountID string) (domain.EntryTotals, error) {
	entries, err := r.filter(ctx, func(e *domain.LedgerEntry) bool {
		return e.AccountID == accountID
	})
	if err != nil {
		return domain.EntryTotals{}, err
	}

	return sum(entries), nil
}

// SumByAccountTx totals the account's committed entries plus those staged on tx.
func (r *EntryRepository) SumByAccountTx(ctx context.Context, tx usecase.Transaction, accountID string) (domain.EntryTotals, error) {
	t, err := txFrom(tx)
	if err != nil {
		return domain.EntryTotals{}, err
	}

	totals, err := r.SumByAccount(ctx, accountID)
	if err != nil {
		return domain.EntryTotals{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range t.entries {
		if e.AccountID == accountID {
			totals = totals.Add(e.Type, e.Amount)
		}
	}

	return totals, nil
}

// SumByAccountBefore totals entries dated strictly before the given time.
func (r *EntryRepository) SumByAccountBefore(ctx context.Context, accountID string, before time.Time) (domain.EntryTotals, error) {
	entries, err := r.filter(ctx, func(e *domain.LedgerEntry) bool {
		return e.AccountID == accountID && e.TransactionDate.Before(before)
	})
	if err != nil {
		return domain.EntryTotals{}, err
	}

	return sum(entries), nil
}

func (r *EntryRepository) filter(ctx context.Context, keep func(*domain.LedgerEntry) bool) ([]*domain.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*domain.LedgerEntry
	for _, e := range r.store.entries {
		if keep(e) {
			c := *e
			result = append(result, &c)
		}
	}

	return result, nil
}

func sortChronologically(entries []*domain.LedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.TransactionDate.Equal(b.TransactionDate) {
			return a.TransactionDate.Before(b.TransactionDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func sum(entries []*domain.LedgerEntry) domain.EntryTotals {
	totals := domain.EntryTotals{Debits: decimal.Zero, Credits: decimal.Zero}
	for _, e := range entries {
		totals = totals.Add(e.Type, e.Amount)
	}

	return totals
}
