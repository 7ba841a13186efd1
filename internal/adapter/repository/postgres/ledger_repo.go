package postgres

import (
	"context"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/infrastructure/postgres/generated"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// CheckConsistency returns debit and credit totals per currency, ordered by
// currency code.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) ([]domain.CurrencyTotals, error) {
	rows, err := r.queries.SumEntriesByCurrency(ctx)
	if err != nil {
		return nil, err
	}

	totals := make([]domain.CurrencyTotals, 0, len(rows))
	for _, row := range rows {
		totals = append(totals, domain.CurrencyTotals{
			Currency: row.Currency,
			Debits:   numericToDecimal(row.Debits),
			Credits:  numericToDecimal(row.Credits),
		})
	}

	return totals, nil
}
