package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a dated group of entries whose debits equal its credits in
// every currency. Only Description may change after posting.
type Transaction struct {
	ID                    string
	Date                  time.Time
	Description           string
	ReversesTransactionID *string
	Entries               []*LedgerEntry
	CreatedAt             time.Time
}

// EntryDraft is one requested entry of a transaction that has not been posted.
type EntryDraft struct {
	AccountID string
	Type      EntryType
	Amount    decimal.Decimal
	Currency  string
}

// TransactionDraft is the input to posting.
type TransactionDraft struct {
	Date                  time.Time
	Description           string
	Entries               []EntryDraft
	ReversesTransactionID *string
}

// Validate performs the checks that need no account data.
func (d *TransactionDraft) Validate() error {
	if len(d.Entries) == 0 {
		return ErrEmptyTransaction
	}

	for _, e := range d.Entries {
		if !e.Type.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidEntryType, e.Type)
		}
	}

	return ValidateDescription(d.Description)
}

// AccountIDs returns the unique account IDs referenced by the draft, sorted.
// Locks are taken in this order.
func (d *TransactionDraft) AccountIDs() []string {
	seen := make(map[string]bool, len(d.Entries))

	ids := make([]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		if !seen[e.AccountID] {
			seen[e.AccountID] = true
			ids = append(ids, e.AccountID)
		}
	}

	sort.Strings(ids)

	return ids
}

// ValidateAgainst checks the draft against the locked accounts, in order:
// existence and activity, currency, amount, and per-currency balance.
// Each rule is applied to every entry before the next rule runs.
func (d *TransactionDraft) ValidateAgainst(accounts map[string]*Account) error {
	for _, e := range d.Entries {
		acc, ok := accounts[e.AccountID]
		if !ok || acc == nil || !acc.IsActive {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, e.AccountID)
		}
	}

	for _, e := range d.Entries {
		if e.Currency != accounts[e.AccountID].Currency {
			return fmt.Errorf("%w: entry %s, account %s", ErrCurrencyMismatch, e.Currency, accounts[e.AccountID].Currency)
		}
	}

	for _, e := range d.Entries {
		if err := ValidateEntryAmount(e.Amount); err != nil {
			return err
		}
	}

	return CheckBalanced(d.Entries)
}

// CheckBalanced verifies that debits equal credits for each currency present.
func CheckBalanced(entries []EntryDraft) error {
	totals := make(map[string]EntryTotals)
	for _, e := range entries {
		t, ok := totals[e.Currency]
		if !ok {
			t = EntryTotals{Debits: decimal.Zero, Credits: decimal.Zero}
		}
		totals[e.Currency] = t.Add(e.Type, e.Amount)
	}

	currencies := make([]string, 0, len(totals))
	for c := range totals {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	for _, c := range currencies {
		t := totals[c]
		if !t.Debits.Equal(t.Credits) {
			return fmt.Errorf("%w: %s debits=%s credits=%s", ErrUnbalancedTransaction, c, t.Debits, t.Credits)
		}
	}

	return nil
}

// Reversal builds the compensating draft for t: same accounts and amounts,
// opposite sides.
func (t *Transaction) Reversal(date time.Time, description string) TransactionDraft {
	if description == "" {
		description = "Reversal of " + t.ID
	}

	entries := make([]EntryDraft, 0, len(t.Entries))
	for _, e := range t.Entries {
		entries = append(entries, EntryDraft{
			AccountID: e.AccountID,
			Type:      e.Type.Opposite(),
			Amount:    e.Amount,
			Currency:  e.Currency,
		})
	}

	id := t.ID

	return TransactionDraft{
		Date:                  date,
		Description:           description,
		Entries:               entries,
		ReversesTransactionID: &id,
	}
}
