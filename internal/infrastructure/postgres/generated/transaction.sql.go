package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createTransaction = `-- name: CreateTransaction :exec
INSERT INTO transactions (id, date, description, reverses_transaction_id, created_at)
VALUES ($1, $2, $3, $4, $5)
`

type CreateTransactionParams struct {
	ID                    string             `json:"id"`
	Date                  pgtype.Timestamptz `json:"date"`
	Description           string             `json:"description"`
	ReversesTransactionID pgtype.Text        `json:"reverses_transaction_id"`
	CreatedAt             pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) error {
	_, err := q.db.Exec(ctx, createTransaction,
		arg.ID,
		arg.Date,
		arg.Description,
		arg.ReversesTransactionID,
		arg.CreatedAt,
	)
	return err
}

const getTransactionByID = `-- name: GetTransactionByID :one
SELECT id, date, description, reverses_transaction_id, created_at FROM transactions WHERE id = $1
`

func (q *Queries) GetTransactionByID(ctx context.Context, id string) (Transaction, error) {
	row := q.db.QueryRow(ctx, getTransactionByID, id)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.Date,
		&i.Description,
		&i.ReversesTransactionID,
		&i.CreatedAt,
	)
	return i, err
}

const updateTransactionDescription = `-- name: UpdateTransactionDescription :execrows
UPDATE transactions SET description = $2 WHERE id = $1
`

type UpdateTransactionDescriptionParams struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

func (q *Queries) UpdateTransactionDescription(ctx context.Context, arg UpdateTransactionDescriptionParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateTransactionDescription, arg.ID, arg.Description)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
