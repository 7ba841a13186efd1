package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createLedgerEntry = `-- name: CreateLedgerEntry :exec
INSERT INTO ledger_entries (id, account_id, transaction_id, type, amount, currency, transaction_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type CreateLedgerEntryParams struct {
	ID              string             `json:"id"`
	AccountID       string             `json:"account_id"`
	TransactionID   string             `json:"transaction_id"`
	Type            string             `json:"type"`
	Amount          pgtype.Numeric     `json:"amount"`
	Currency        string             `json:"currency"`
	TransactionDate pgtype.Timestamptz `json:"transaction_date"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateLedgerEntry(ctx context.Context, arg CreateLedgerEntryParams) error {
	_, err := q.db.Exec(ctx, createLedgerEntry,
		arg.ID,
		arg.AccountID,
		arg.TransactionID,
		arg.Type,
		arg.Amount,
		arg.Currency,
		arg.TransactionDate,
		arg.CreatedAt,
	)
	return err
}

const listEntriesByAccount = `-- name: ListEntriesByAccount :many
SELECT id, account_id, transaction_id, type, amount, currency, transaction_date, created_at FROM ledger_entries
WHERE account_id = $1
ORDER BY transaction_date DESC, created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

type ListEntriesByAccountParams struct {
	AccountID string `json:"account_id"`
	Limit     int32  `json:"limit"`
	Offset    int32  `json:"offset"`
}

func (q *Queries) ListEntriesByAccount(ctx context.Context, arg ListEntriesByAccountParams) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, listEntriesByAccount, arg.AccountID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []LedgerEntry{}
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.TransactionID,
			&i.Type,
			&i.Amount,
			&i.Currency,
			&i.TransactionDate,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listEntriesByAccountInRange = `-- name: ListEntriesByAccountInRange :many
SELECT id, account_id, transaction_id, type, amount, currency, transaction_date, created_at FROM ledger_entries
WHERE account_id = $1 AND transaction_date >= $2 AND transaction_date < $3
ORDER BY transaction_date, created_at, id
`

type ListEntriesByAccountInRangeParams struct {
	AccountID string             `json:"account_id"`
	FromDate  pgtype.Timestamptz `json:"from_date"`
	ToDate    pgtype.Timestamptz `json:"to_date"`
}

func (q *Queries) ListEntriesByAccountInRange(ctx context.Context, arg ListEntriesByAccountInRangeParams) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, listEntriesByAccountInRange, arg.AccountID, arg.FromDate, arg.ToDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []LedgerEntry{}
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.TransactionID,
			&i.Type,
			&i.Amount,
			&i.Currency,
			&i.TransactionDate,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listEntriesByTransaction = `-- name: ListEntriesByTransaction :many
SELECT id, account_id, transaction_id, type, amount, currency, transaction_date, created_at FROM ledger_entries
WHERE transaction_id = $1
ORDER BY created_at, id
`

func (q *Queries) ListEntriesByTransaction(ctx context.Context, transactionID string) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, listEntriesByTransaction, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []LedgerEntry{}
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.TransactionID,
			&i.Type,
			&i.Amount,
			&i.Currency,
			&i.TransactionDate,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const sumEntriesByAccount = `-- name: SumEntriesByAccount :one
SELECT
    COALESCE(SUM(CASE WHEN type = 'DEBIT' THEN amount ELSE 0 END), 0)::numeric AS debits,
    COALESCE(SUM(CASE WHEN type = 'CREDIT' THEN amount ELSE 0 END), 0)::numeric AS credits
FROM ledger_entries
WHERE account_id = $1
`

type SumEntriesByAccountRow struct {
	Debits  pgtype.Numeric `json:"debits"`
	Credits pgtype.Numeric `json:"credits"`
}

func (q *Queries) SumEntriesByAccount(ctx context.Context, accountID string) (SumEntriesByAccountRow, error) {
	row := q.db.QueryRow(ctx, sumEntriesByAccount, accountID)
	var i SumEntriesByAccountRow
	err := row.Scan(&i.Debits, &i.Credits)
	return i, err
}

const sumEntriesByAccountBefore = `-- name: SumEntriesByAccountBefore :one
SELECT
    COALESCE(SUM(CASE WHEN type = 'DEBIT' THEN amount ELSE 0 END), 0)::numeric AS debits,
    COALESCE(SUM(CASE WHEN type = 'CREDIT' THEN amount ELSE 0 END), 0)::numeric AS credits
FROM ledger_entries
WHERE account_id = $1 AND transaction_date < $2
`

type SumEntriesByAccountBeforeParams struct {
	AccountID       string             `json:"account_id"`
	TransactionDate pgtype.Timestamptz `json:"transaction_date"`
}

type SumEntriesByAccountBeforeRow struct {
	Debits  pgtype.Numeric `json:"debits"`
	Credits pgtype.Numeric `json:"credits"`
}

func (q *Queries) SumEntriesByAccountBefore(ctx context.Context, arg SumEntriesByAccountBeforeParams) (SumEntriesByAccountBeforeRow, error) {
	row := q.db.QueryRow(ctx, sumEntriesByAccountBefore, arg.AccountID, arg.TransactionDate)
	var i SumEntriesByAccountBeforeRow
	err := row.Scan(&i.Debits, &i.Credits)
	return i, err
}
