package domain

import "time"

// Event types
const (
	EventTypeTransactionPosted   = "transaction.posted"
	EventTypeTransactionReversed = "transaction.reversed"
	EventTypeAccountCreated      = "account.created"
	EventTypeAccountDeactivated  = "account.deactivated"
	EventTypeAccountReconciled   = "account.reconciled"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
	AggregateTypeAccount     = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// PostedEntry is one entry inside a TransactionPostedEvent.
type PostedEntry struct {
	EntryID   string `json:"entry_id"`
	AccountID string `json:"account_id"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

// TransactionPostedEvent payload
type TransactionPostedEvent struct {
	TransactionID         string        `json:"transaction_id"`
	Date                  string        `json:"date"`
	Description           string        `json:"description"`
	ReversesTransactionID string        `json:"reverses_transaction_id,omitempty"`
	Entries               []PostedEntry `json:"entries"`
}

// Payload renders the event as an outbox payload map.
func (e TransactionPostedEvent) Payload() map[string]any {
	entries := make([]any, 0, len(e.Entries))
	for _, pe := range e.Entries {
		entries = append(entries, map[string]any{
			"entry_id":   pe.EntryID,
			"account_id": pe.AccountID,
			"type":       pe.Type,
			"amount":     pe.Amount,
			"currency":   pe.Currency,
		})
	}

	payload := map[string]any{
		"transaction_id": e.TransactionID,
		"date":           e.Date,
		"description":    e.Description,
		"entries":        entries,
	}
	if e.ReversesTransactionID != "" {
		payload["reverses_transaction_id"] = e.ReversesTransactionID
	}

	return payload
}

// NewTransactionPostedEvent builds the posted event for t.
func NewTransactionPostedEvent(t *Transaction) TransactionPostedEvent {
	ev := TransactionPostedEvent{
		TransactionID: t.ID,
		Date:          t.Date.UTC().Format(time.RFC3339),
		Description:   t.Description,
		Entries:       make([]PostedEntry, 0, len(t.Entries)),
	}
	if t.ReversesTransactionID != nil {
		ev.ReversesTransactionID = *t.ReversesTransactionID
	}

	for _, e := range t.Entries {
		ev.Entries = append(ev.Entries, PostedEntry{
			EntryID:   e.ID,
			AccountID: e.AccountID,
			Type:      string(e.Type),
			Amount:    e.Amount.String(),
			Currency:  e.Currency,
		})
	}

	return ev
}
