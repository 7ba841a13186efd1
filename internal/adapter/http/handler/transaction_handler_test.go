package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/adapter/http/dto"
	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

type transactionServiceStub struct {
	postFn    func(ctx context.Context, draft domain.TransactionDraft) (*domain.Transaction, error)
	reverseFn func(ctx context.Context, input usecase.ReverseTransactionInput) (*domain.Transaction, error)
	getFn     func(ctx context.Context, id string) (*domain.Transaction, error)
	updateFn  func(ctx context.Context, id, description string) (*domain.Transaction, error)
}

func (s *transactionServiceStub) Post(ctx context.Context, draft domain.TransactionDraft) (*domain.Transaction, error) {
	return s.postFn(ctx, draft)
}

func (s *transactionServiceStub) Reverse(ctx context.Context, input usecase.ReverseTransactionInput) (*domain.Transaction, error) {
	return s.reverseFn(ctx, input)
}

func (s *transactionServiceStub) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.getFn(ctx, id)
}

func (s *transactionServiceStub) UpdateDescription(ctx context.Context, id, description string) (*domain.Transaction, error) {
	return s.updateFn(ctx, id, description)
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestTransactionHandler(stub *transactionServiceStub) *TransactionHandler {
	h := NewTransactionHandler(stub)
	h.now = func() time.Time { return fixedNow }
	return h
}

func postedTransaction(draft domain.TransactionDraft) *domain.Transaction {
	txn := &domain.Transaction{
		ID:                    "txn-1",
		Date:                  draft.Date,
		Description:           draft.Description,
		ReversesTransactionID: draft.ReversesTransactionID,
		CreatedAt:             fixedNow,
	}
	for i, e := range draft.Entries {
		txn.Entries = append(txn.Entries, &domain.LedgerEntry{
			ID:              "ent-" + string(rune('a'+i)),
			AccountID:       e.AccountID,
			TransactionID:   txn.ID,
			Type:            e.Type,
			Amount:          e.Amount,
			Currency:        e.Currency,
			TransactionDate: draft.Date,
			CreatedAt:       fixedNow,
		})
	}
	return txn
}

func TestTransactionHandler_Post(t *testing.T) {
	var captured domain.TransactionDraft
	handler := newTestTransactionHandler(&transactionServiceStub{
		postFn: func(ctx context.Context, draft domain.TransactionDraft) (*domain.Transaction, error) {
			captured = draft
			return postedTransaction(draft), nil
		},
	})

	body := `{"description":"Salary","entries":[
		{"account_id":"cash","type":"debit","amount":"1000","currency":"usd"},
		{"account_id":"income","type":"CREDIT","amount":"1000","currency":"USD"}]}`
	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	handler.Post(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if !captured.Date.Equal(fixedNow) {
		t.Fatalf("expected missing date to default to now, got %s", captured.Date)
	}
	if len(captured.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(captured.Entries))
	}
	first := captured.Entries[0]
	if first.Type != domain.EntryTypeDebit || first.Currency != "USD" || !first.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected first entry: %+v", first)
	}

	var resp dto.TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "txn-1" || len(resp.Entries) != 2 || resp.Entries[1].Amount != "1000" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestTransactionHandler_Post_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		expected int
	}{
		{
			name:     "malformed amount",
			body:     `{"description":"x","entries":[{"account_id":"a","type":"DEBIT","amount":"ten","currency":"USD"}]}`,
			expected: http.StatusBadRequest,
		},
		{
			name:     "invalid json",
			body:     `{`,
			expected: http.StatusBadRequest,
		},
		{
			name:     "unknown account",
			body:     `{"description":"x","entries":[{"account_id":"a","type":"DEBIT","amount":"1","currency":"USD"}]}`,
			err:      domain.ErrAccountNotFound,
			expected: http.StatusNotFound,
		},
		{
			name:     "unbalanced",
			body:     `{"description":"x","entries":[{"account_id":"a","type":"DEBIT","amount":"1","currency":"USD"}]}`,
			err:      domain.ErrUnbalancedTransaction,
			expected: http.StatusUnprocessableEntity,
		},
		{
			name:     "empty",
			body:     `{"description":"x","entries":[]}`,
			err:      domain.ErrEmptyTransaction,
			expected: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestTransactionHandler(&transactionServiceStub{
				postFn: func(ctx context.Context, draft domain.TransactionDraft) (*domain.Transaction, error) {
					if tt.err == nil {
						t.Fatal("Post should not be called")
					}
					return nil, tt.err
				},
			})

			req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			handler.Post(rec, req)

			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d: %s", tt.expected, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTransactionHandler_Get(t *testing.T) {
	handler := newTestTransactionHandler(&transactionServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Transaction, error) {
			if id == "missing" {
				return nil, domain.ErrTransactionNotFound
			}
			return &domain.Transaction{ID: id, Date: fixedNow}, nil
		},
	})

	req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/transactions/txn-1", nil), "id", "txn-1")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = setChiURLParam(httptest.NewRequest(http.MethodGet, "/transactions/missing", nil), "id", "missing")
	rec = httptest.NewRecorder()
	handler.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTransactionHandler_UpdateDescription(t *testing.T) {
	handler := newTestTransactionHandler(&transactionServiceStub{
		updateFn: func(ctx context.Context, id, description string) (*domain.Transaction, error) {
			return &domain.Transaction{ID: id, Description: description}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPatch, "/transactions/txn-1", bytes.NewBufferString(`{"description":"Rent"}`))
	req = setChiURLParam(req, "id", "txn-1")
	rec := httptest.NewRecorder()

	handler.UpdateDescription(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Description != "Rent" {
		t.Fatalf("expected description Rent, got %q", resp.Description)
	}
}

func TestTransactionHandler_Reverse(t *testing.T) {
	var captured usecase.ReverseTransactionInput
	handler := newTestTransactionHandler(&transactionServiceStub{
		reverseFn: func(ctx context.Context, input usecase.ReverseTransactionInput) (*domain.Transaction, error) {
			captured = input
			original := input.TransactionID
			return &domain.Transaction{ID: "txn-2", Date: input.Date, ReversesTransactionID: &original}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/transactions/txn-1/reverse", nil)
	req = setChiURLParam(req, "id", "txn-1")
	rec := httptest.NewRecorder()

	handler.Reverse(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.TransactionID != "txn-1" || !captured.Date.Equal(fixedNow) {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp dto.TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ReversesTransactionID == nil || *resp.ReversesTransactionID != "txn-1" {
		t.Fatalf("expected reversal link, got %+v", resp)
	}
}

func TestTransactionHandler_Reverse_AlreadyReversed(t *testing.T) {
	handler := newTestTransactionHandler(&transactionServiceStub{
		reverseFn: func(ctx context.Context, input usecase.ReverseTransactionInput) (*domain.Transaction, error) {
			return nil, domain.ErrTransactionAlreadyReversed
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/transactions/txn-1/reverse", bytes.NewBufferString(`{"description":"undo"}`))
	req = setChiURLParam(req, "id", "txn-1")
	rec := httptest.NewRecorder()

	handler.Reverse(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
