package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	store *Store
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

// CheckConsistency totals debits and credits per currency, sorted by currency.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) ([]domain.CurrencyTotals, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	byCurrency := make(map[string]domain.EntryTotals)
	for _, e := range r.store.entries {
		t, ok := byCurrency[e.Currency]
		if !ok {
			t = domain.EntryTotals{Debits: decimal.Zero, Credits: decimal.Zero}
		}
		byCurrency[e.Currency] = t.Add(e.Type, e.Amount)
	}

	totals := make([]domain.CurrencyTotals, 0, len(byCurrency))
	for currency, t := range byCurrency {
		totals = append(totals, domain.CurrencyTotals{
			Currency: currency,
			Debits:   t.Debits,
			Credits:  t.Credits,
		})
	}

	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Currency < totals[j].Currency
	})

	return totals, nil
}
