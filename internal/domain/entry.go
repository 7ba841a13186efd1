package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType is the side of a ledger entry.
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// EntryTypes lists every entry side.
var EntryTypes = []EntryType{EntryTypeDebit, EntryTypeCredit}

// IsValid reports whether t is DEBIT or CREDIT.
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeDebit, EntryTypeCredit:
		return true
	}

	return false
}

// Opposite returns the other side. Used to build compensating transactions.
func (t EntryType) Opposite() EntryType {
	switch t {
	case EntryTypeDebit:
		return EntryTypeCredit
	case EntryTypeCredit:
		return EntryTypeDebit
	}

	return t
}

// LedgerEntry is an immutable debit or credit against one account, owned by
// one transaction. TransactionDate is copied from the owning transaction.
type LedgerEntry struct {
	ID              string
	AccountID       string
	TransactionID   string
	Type            EntryType
	Amount          decimal.Decimal
	Currency        string
	TransactionDate time.Time
	CreatedAt       time.Time
}

// EntryTotals holds the raw debit and credit sums for a set of entries.
type EntryTotals struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

// Add accumulates one entry into the totals.
func (t EntryTotals) Add(entryType EntryType, amount decimal.Decimal) EntryTotals {
	switch entryType {
	case EntryTypeDebit:
		t.Debits = t.Debits.Add(amount)
	case EntryTypeCredit:
		t.Credits = t.Credits.Add(amount)
	}

	return t
}
