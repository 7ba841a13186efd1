package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Name:     r.Name,
		Type:     domain.AccountType(strings.ToUpper(strings.TrimSpace(r.Type))),
		Currency: r.Currency,
	}
}

// EntryRequest is one entry of a transaction to post. Amount is a string of
// integer minor units.
type EntryRequest struct {
	AccountID string `json:"account_id"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

// PostTransactionRequest represents a request to post a transaction.
type PostTransactionRequest struct {
	Date        *time.Time     `json:"date,omitempty"`
	Description string         `json:"description"`
	Entries     []EntryRequest `json:"entries"`
}

// ToDraft converts the request to a draft. Amounts must parse as bounded
// whole minor units; every other ledger rule is left to the posting engine.
func (r *PostTransactionRequest) ToDraft(now time.Time) (domain.TransactionDraft, error) {
	date := now
	if r.Date != nil {
		date = *r.Date
	}

	entries := make([]domain.EntryDraft, 0, len(r.Entries))
	for i, e := range r.Entries {
		amount, err := domain.ParseAmount(e.Amount)
		if err != nil {
			return domain.TransactionDraft{}, fmt.Errorf("entry %d: %w", i, err)
		}

		entries = append(entries, domain.EntryDraft{
			AccountID: e.AccountID,
			Type:      domain.EntryType(strings.ToUpper(strings.TrimSpace(e.Type))),
			Amount:    amount,
			Currency:  domain.NormalizeCurrency(e.Currency),
		})
	}

	return domain.TransactionDraft{
		Date:        date,
		Description: r.Description,
		Entries:     entries,
	}, nil
}

// ReverseTransactionRequest represents a request to reverse a transaction.
type ReverseTransactionRequest struct {
	Date        *time.Time `json:"date,omitempty"`
	Description string     `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ReverseTransactionRequest) ToUseCaseInput(transactionID string, now time.Time) usecase.ReverseTransactionInput {
	date := now
	if r.Date != nil {
		date = *r.Date
	}

	return usecase.ReverseTransactionInput{
		TransactionID: transactionID,
		Date:          date,
		Description:   r.Description,
	}
}

// UpdateTransactionRequest changes a transaction's description.
type UpdateTransactionRequest struct {
	Description string `json:"description"`
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
