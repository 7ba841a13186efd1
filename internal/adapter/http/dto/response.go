package dto

import (
	"time"

	"github.com/iho/ledgercore/internal/domain"
)

// AccountResponse represents an account in API responses. Balance is the
// cached balance in minor units.
type AccountResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Currency  string    `json:"currency"`
	Balance   string    `json:"balance"`
	Version   int64     `json:"version"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Type:      string(a.Type),
		Currency:  a.Currency,
		Balance:   a.CachedBalance.String(),
		Version:   a.Version,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"account_id"`
	TransactionID   string    `json:"transaction_id"`
	Type            string    `json:"type"`
	Amount          string    `json:"amount"`
	Currency        string    `json:"currency"`
	TransactionDate time.Time `json:"transaction_date"`
	CreatedAt       time.Time `json:"created_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	return &EntryResponse{
		ID:              e.ID,
		AccountID:       e.AccountID,
		TransactionID:   e.TransactionID,
		Type:            string(e.Type),
		Amount:          e.Amount.String(),
		Currency:        e.Currency,
		TransactionDate: e.TransactionDate,
		CreatedAt:       e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// TransactionResponse represents a transaction with its entries.
type TransactionResponse struct {
	ID                    string           `json:"id"`
	Date                  time.Time        `json:"date"`
	Description           string           `json:"description"`
	ReversesTransactionID *string          `json:"reverses_transaction_id,omitempty"`
	Entries               []*EntryResponse `json:"entries"`
	CreatedAt             time.Time        `json:"created_at"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:                    t.ID,
		Date:                  t.Date,
		Description:           t.Description,
		ReversesTransactionID: t.ReversesTransactionID,
		Entries:               EntriesFromDomain(t.Entries),
		CreatedAt:             t.CreatedAt,
	}
}

// BalanceResponse is an account's balance derived from its entries.
type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
}

// BalancePointResponse is one day of a balance history.
type BalancePointResponse struct {
	Date    string `json:"date"`
	Balance string `json:"balance"`
}

// BalanceHistoryResponse is the end-of-day balance series for an account.
type BalanceHistoryResponse struct {
	AccountID string                  `json:"account_id"`
	Start     string                  `json:"start"`
	End       string                  `json:"end"`
	Points    []*BalancePointResponse `json:"points"`
}

// BalanceHistoryFromDomain converts a history series to response.
func BalanceHistoryFromDomain(accountID string, start, end time.Time, points []domain.BalancePoint) *BalanceHistoryResponse {
	resp := &BalanceHistoryResponse{
		AccountID: accountID,
		Start:     start.Format(domain.DayLayout),
		End:       end.Format(domain.DayLayout),
		Points:    make([]*BalancePointResponse, len(points)),
	}
	for i, p := range points {
		resp.Points[i] = &BalancePointResponse{
			Date:    p.Date.Format(domain.DayLayout),
			Balance: p.Balance.String(),
		}
	}
	return resp
}

// ReconciliationResponse compares an account's cached and derived balances.
type ReconciliationResponse struct {
	AccountID         string    `json:"account_id"`
	Currency          string    `json:"currency"`
	RecordedBalance   string    `json:"recorded_balance"`
	CalculatedBalance string    `json:"calculated_balance"`
	Difference        string    `json:"difference"`
	IsReconciled      bool      `json:"is_reconciled"`
	Corrected         bool      `json:"corrected"`
	LastChecked       time.Time `json:"last_checked"`
}

// ReconciliationFromDomain converts a reconciliation result to response.
func ReconciliationFromDomain(r *domain.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		AccountID:         r.AccountID,
		Currency:          r.Currency,
		RecordedBalance:   r.RecordedBalance.String(),
		CalculatedBalance: r.CalculatedBalance.String(),
		Difference:        r.Difference.String(),
		IsReconciled:      r.IsReconciled,
		Corrected:         r.Corrected,
		LastChecked:       r.LastChecked,
	}
}

// ReconciliationReportResponse summarises a reconcile-all pass.
type ReconciliationReportResponse struct {
	TotalAccounts      int                       `json:"total_accounts"`
	ReconciledAccounts int                       `json:"reconciled_accounts"`
	CorrectedAccounts  int                       `json:"corrected_accounts"`
	Discrepancies      []*ReconciliationResponse `json:"discrepancies"`
	Failed             []string                  `json:"failed"`
	LedgerConsistent   bool                      `json:"ledger_consistent"`
	CheckedAt          time.Time                 `json:"checked_at"`
}

// ReconciliationReportFromDomain converts a report to response.
func ReconciliationReportFromDomain(r *domain.ReconciliationReport) *ReconciliationReportResponse {
	resp := &ReconciliationReportResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		CorrectedAccounts:  r.CorrectedAccounts,
		Discrepancies:      make([]*ReconciliationResponse, len(r.Discrepancies)),
		Failed:             r.Failed,
		LedgerConsistent:   r.LedgerConsistent,
		CheckedAt:          r.CheckedAt,
	}
	if resp.Failed == nil {
		resp.Failed = []string{}
	}
	for i, d := range r.Discrepancies {
		resp.Discrepancies[i] = ReconciliationFromDomain(d)
	}
	return resp
}

// CurrencyTotalsResponse is the ledger-wide debit and credit sum for one currency.
type CurrencyTotalsResponse struct {
	Currency string `json:"currency"`
	Debits   string `json:"debits"`
	Credits  string `json:"credits"`
	Balanced bool   `json:"balanced"`
}

// LedgerConsistencyResponse reports whether debits equal credits per currency.
type LedgerConsistencyResponse struct {
	Consistent bool                      `json:"consistent"`
	Currencies []*CurrencyTotalsResponse `json:"currencies"`
}

// LedgerConsistencyFromDomain converts per-currency totals to response.
func LedgerConsistencyFromDomain(totals []domain.CurrencyTotals) *LedgerConsistencyResponse {
	resp := &LedgerConsistencyResponse{
		Consistent: true,
		Currencies: make([]*CurrencyTotalsResponse, len(totals)),
	}
	for i, t := range totals {
		balanced := t.Balanced()
		if !balanced {
			resp.Consistent = false
		}
		resp.Currencies[i] = &CurrencyTotalsResponse{
			Currency: t.Currency,
			Debits:   t.Debits.String(),
			Credits:  t.Credits.String(),
			Balanced: balanced,
		}
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
