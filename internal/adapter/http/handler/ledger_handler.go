package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/adapter/http/dto"
	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// BalanceService defines the behavior needed for balance reads.
type BalanceService interface {
	CurrentBalance(ctx context.Context, accountID string) (decimal.Decimal, error)
}

// HistoryService defines the behavior needed for balance history.
type HistoryService interface {
	BalanceHistory(ctx context.Context, accountID string, startDate, endDate time.Time) ([]domain.BalancePoint, error)
}

// IntegrityService defines the behavior needed for integrity checks.
type IntegrityService interface {
	Check(ctx context.Context, accountID string) (*domain.ReconciliationResult, error)
	ReconcileAccount(ctx context.Context, accountID string) (*domain.ReconciliationResult, error)
	ReconcileAll(ctx context.Context) (*domain.ReconciliationReport, error)
	CheckLedgerConsistency(ctx context.Context) ([]domain.CurrencyTotals, error)
}

// AccountGetter resolves the account a balance belongs to.
type AccountGetter interface {
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
}

// LedgerHandler serves derived balances, history and integrity operations.
type LedgerHandler struct {
	accounts  AccountGetter
	balance   BalanceService
	history   HistoryService
	integrity IntegrityService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(accounts AccountGetter, balance BalanceService, history HistoryService, integrity IntegrityService) *LedgerHandler {
	return &LedgerHandler{
		accounts:  accounts,
		balance:   balance,
		history:   history,
		integrity: integrity,
	}
}

// Balance returns the balance derived from an account's entries.
func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	balance, err := h.balance.CurrentBalance(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		AccountID: id,
		Currency:  account.Currency,
		Balance:   balance.String(),
	})
}

// History returns the end-of-day balance for each day in [start, end] that
// has entries.
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	start, err := parseDayQuery(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date", err.Error())
		return
	}

	end, err := parseDayQuery(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date", err.Error())
		return
	}

	points, err := h.history.BalanceHistory(r.Context(), id, start, end)
	if err != nil {
		writeDomainError(w, "failed to get balance history", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceHistoryFromDomain(id, start, end, points))
}

// Integrity compares an account's cached balance with its entries.
func (h *LedgerHandler) Integrity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	result, err := h.integrity.Check(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to check integrity", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromDomain(result))
}

// Reconcile rewrites an account's cached balance from its entries.
func (h *LedgerHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	result, err := h.integrity.ReconcileAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to reconcile account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromDomain(result))
}

// CheckConsistency checks that debits equal credits in every currency.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	totals, err := h.integrity.CheckLedgerConsistency(r.Context())
	if err != nil {
		var inconsistent *usecase.InconsistentLedgerError
		if errors.As(err, &inconsistent) {
			writeJSON(w, http.StatusConflict, dto.LedgerConsistencyFromDomain(inconsistent.Totals))
			return
		}

		writeDomainError(w, "failed to check consistency", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerConsistencyFromDomain(totals))
}

// ReconcileAll reconciles every account.
func (h *LedgerHandler) ReconcileAll(w http.ResponseWriter, r *http.Request) {
	report, err := h.integrity.ReconcileAll(r.Context())
	if err != nil {
		writeDomainError(w, "failed to reconcile ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationReportFromDomain(report))
}

func parseDayQuery(r *http.Request, key string) (time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", domain.ErrInvalidDateRange, key)
	}

	day, err := domain.ParseDay(val)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidDateRange, key, err)
	}

	return day, nil
}
