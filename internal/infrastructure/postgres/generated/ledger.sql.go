package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const sumEntriesByCurrency = `-- name: SumEntriesByCurrency :many
SELECT
    currency,
    COALESCE(SUM(CASE WHEN type = 'DEBIT' THEN amount ELSE 0 END), 0)::numeric AS debits,
    COALESCE(SUM(CASE WHEN type = 'CREDIT' THEN amount ELSE 0 END), 0)::numeric AS credits
FROM ledger_entries
GROUP BY currency
ORDER BY currency
`

type SumEntriesByCurrencyRow struct {
	Currency string         `json:"currency"`
	Debits   pgtype.Numeric `json:"debits"`
	Credits  pgtype.Numeric `json:"credits"`
}

func (q *Queries) SumEntriesByCurrency(ctx context.Context) ([]SumEntriesByCurrencyRow, error) {
	rows, err := q.db.Query(ctx, sumEntriesByCurrency)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []SumEntriesByCurrencyRow{}
	for rows.Next() {
		var i SumEntriesByCurrencyRow
		if err := rows.Scan(&i.Currency, &i.Debits, &i.Credits); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
