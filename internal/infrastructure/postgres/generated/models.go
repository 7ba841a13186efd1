package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Type          string             `json:"type"`
	Currency      string             `json:"currency"`
	CachedBalance pgtype.Numeric     `json:"cached_balance"`
	Version       int64              `json:"version"`
	IsActive      bool               `json:"is_active"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

type LedgerEntry struct {
	ID              string             `json:"id"`
	AccountID       string             `json:"account_id"`
	TransactionID   string             `json:"transaction_id"`
	Type            string             `json:"type"`
	Amount          pgtype.Numeric     `json:"amount"`
	Currency        string             `json:"currency"`
	TransactionDate pgtype.Timestamptz `json:"transaction_date"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
}

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	Published     bool               `json:"published"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
}

type Transaction struct {
	ID                    string             `json:"id"`
	Date                  pgtype.Timestamptz `json:"date"`
	Description           string             `json:"description"`
	ReversesTransactionID pgtype.Text        `json:"reverses_transaction_id"`
	CreatedAt             pgtype.Timestamptz `json:"created_at"`
}
