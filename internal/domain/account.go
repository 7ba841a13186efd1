package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account and fixes the sign convention of its entries.
type AccountType string

const (
	// AccountTypeAsset increases with debits.
	AccountTypeAsset AccountType = "ASSET"
	// AccountTypeLiability increases with credits.
	AccountTypeLiability AccountType = "LIABILITY"
)

// AccountTypes lists every account classification.
var AccountTypes = []AccountType{AccountTypeAsset, AccountTypeLiability}

// IsValid reports whether t is a known account type.
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability:
		return true
	}

	return false
}

// Effect returns the signed change an entry of the given type and amount makes
// to the balance of an account of type t.
//
//	          DEBIT     CREDIT
//	ASSET     +amount   -amount
//	LIABILITY -amount   +amount
func (t AccountType) Effect(entryType EntryType, amount decimal.Decimal) (decimal.Decimal, error) {
	switch t {
	case AccountTypeAsset:
		switch entryType {
		case EntryTypeDebit:
			return amount, nil
		case EntryTypeCredit:
			return amount.Neg(), nil
		}
	case AccountTypeLiability:
		switch entryType {
		case EntryTypeDebit:
			return amount.Neg(), nil
		case EntryTypeCredit:
			return amount, nil
		}
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAccountType, t)
	}

	return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidEntryType, entryType)
}

// Net folds aggregated debit and credit totals into a balance for type t.
func (t AccountType) Net(totals EntryTotals) (decimal.Decimal, error) {
	switch t {
	case AccountTypeAsset:
		return totals.Debits.Sub(totals.Credits), nil
	case AccountTypeLiability:
		return totals.Credits.Sub(totals.Debits), nil
	}

	return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAccountType, t)
}

// Account is a financial bucket whose balance is derived from its ledger entries.
// CachedBalance is a projection kept for reads; the entries are the source of truth.
type Account struct {
	ID            string
	Name          string
	Type          AccountType
	Currency      string
	CachedBalance decimal.Decimal
	Version       int64
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ApplyEntry returns the cached balance after applying one entry.
func (a *Account) ApplyEntry(entryType EntryType, amount decimal.Decimal) (decimal.Decimal, error) {
	delta, err := a.Type.Effect(entryType, amount)
	if err != nil {
		return a.CachedBalance, err
	}

	return a.CachedBalance.Add(delta), nil
}
