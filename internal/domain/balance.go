package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalancePoint is the end-of-day balance of an account on one UTC calendar day.
type BalancePoint struct {
	Date    time.Time
	Balance decimal.Decimal
}

// ReconciliationResult compares an account's cached balance with the balance
// recomputed from its entries.
type ReconciliationResult struct {
	AccountID         string
	Currency          string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	Corrected         bool
	LastChecked       time.Time
}

// ReconciliationReport summarises a reconcile pass over every account.
type ReconciliationReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	CorrectedAccounts  int
	Discrepancies      []*ReconciliationResult
	Failed             []string
	LedgerConsistent   bool
	CheckedAt          time.Time
}

// CurrencyTotals is the ledger-wide debit and credit sum for one currency.
type CurrencyTotals struct {
	Currency string
	Debits   decimal.Decimal
	Credits  decimal.Decimal
}

// Balanced reports whether debits equal credits.
func (c CurrencyTotals) Balanced() bool {
	return c.Debits.Equal(c.Credits)
}
