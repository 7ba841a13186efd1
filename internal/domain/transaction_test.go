package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func activeAccount(id, currency string) *Account {
	return &Account{ID: id, Type: AccountTypeAsset, Currency: currency, IsActive: true}
}

func TestTransactionDraft_Validate(t *testing.T) {
	tests := []struct {
		name        string
		draft       TransactionDraft
		expectError error
	}{
		{
			name:        "no entries",
			draft:       TransactionDraft{},
			expectError: ErrEmptyTransaction,
		},
		{
			name: "unknown entry type",
			draft: TransactionDraft{Entries: []EntryDraft{
				{AccountID: "a", Type: "MEMO", Amount: decimal.NewFromInt(1), Currency: "USD"},
			}},
			expectError: ErrInvalidEntryType,
		},
		{
			name: "valid",
			draft: TransactionDraft{Entries: []EntryDraft{
				{AccountID: "a", Type: EntryTypeDebit, Amount: decimal.NewFromInt(1), Currency: "USD"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && !errors.Is(err, tt.expectError) {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestTransactionDraft_ValidateAgainst(t *testing.T) {
	accounts := map[string]*Account{
		"cash":  activeAccount("cash", "USD"),
		"loan":  {ID: "loan", Type: AccountTypeLiability, Currency: "USD", IsActive: true},
		"euro":  activeAccount("euro", "EUR"),
		"eloan": {ID: "eloan", Type: AccountTypeLiability, Currency: "EUR", IsActive: true},
		"old":   {ID: "old", Type: AccountTypeAsset, Currency: "USD", IsActive: false},
	}

	tests := []struct {
		name        string
		entries     []EntryDraft
		expectError error
	}{
		{
			name: "balanced single currency",
			entries: []EntryDraft{
				{AccountID: "cash", Type: EntryTypeDebit, Amount: decimal.NewFromInt(100), Currency: "USD"},
				{AccountID: "loan", Type: EntryTypeCredit, Amount: decimal.NewFromInt(100), Currency: "USD"},
			},
		},
		{
			name: "balanced per currency",
			entries: []EntryDraft{
				{AccountID: "cash", Type: EntryTypeDebit, Amount: decimal.NewFromInt(100), Currency: "USD"},
				{AccountID: "loan", Type: EntryTypeCredit, Amount: decimal.NewFromInt(100), Currency: "USD"},
				{AccountID: "euro", Type: EntryTypeDebit, Amount: decimal.NewFromInt(90), Currency: "EUR"},
				{AccountID: "eloan", Type: EntryTypeCredit, Amount: decimal.NewFromInt(90), Currency: "EUR"},
			},
		},
		{
			name: "balanced in total but not per currency",
			entries: []EntryDraft{
				{AccountID: "cash", Type: EntryTypeDebit, Amount: decimal.NewFromInt(100), Currency: "USD"},
				{AccountID: "eloan", Type: EntryTypeCredit, Amount: decimal.NewFromInt(100), Currency: "EUR"},
			},
			expectError: ErrUnbalancedTransaction,
		},
		{
			name: "one cent imbalance",
			entries: []EntryDraft{
				{AccountID: "cash", Type: EntryTypeDebit, Amount: decimal.NewFromInt(10001), Currency: "USD"},
				{AccountID: "loan", Type: EntryTypeCredit, Amount: decimal.NewFromInt(10000), Currency: "USD"},
			},
			expectError: ErrUnbalancedTransaction,
		},
		{
			name: "unknown account",
			entries: []EntryDraft{
				{AccountID: "missing", Type: EntryTypeDebit, Amount: decimal.NewFromInt(100), Currency: "USD"},
			},
			expectError: ErrAccountNotFound,
		},
		{
			name: "inactive account",
			entries: []EntryDraft{
				{AccountID: "old", Type: EntryTypeDebit, Amount: decimal.NewFromInt(100), Currency: "USD"},
				{AccountID: "loan", Type: EntryTypeCredit, Amount: decimal.NewFromInt(100), Currency: "USD"},
			},
			expectError: ErrAccountNotFound,
		},
		{
			name: "currency mismatch",
			entries: []EntryDraft{
				{AccountID: "cash", Type: EntryTypeDebit, Amount: decimal.NewFromInt(100), Currency: "EUR"},
				{AccountID: "eloan", Type: EntryTypeCredit, Amount: decimal.NewFromInt(100), Currency: "EUR"},
			},
			expectError: ErrCurrencyMismatch,
		},
		{
			name: "zero amount",
			entries: []EntryDraft{
				{AccountID: "cash", Type: EntryTypeDebit, Amount: decimal.Zero, Currency: "USD"},
				{AccountID: "loan", Type: EntryTypeCredit, Amount: decimal.Zero, Currency: "USD"},
			},
			expectError: ErrInvalidAmount,
		},
		{
			name: "fractional amount",
			entries: []EntryDraft{
				{AccountID: "cash", Type: EntryTypeDebit, Amount: decimal.RequireFromString("10.5"), Currency: "USD"},
				{AccountID: "loan", Type: EntryTypeCredit, Amount: decimal.RequireFromString("10.5"), Currency: "USD"},
			},
			expectError: ErrInvalidAmount,
		},
		{
			name: "missing account reported before currency mismatch",
			entries: []EntryDraft{
				{AccountID: "cash", Type: EntryTypeDebit, Amount: decimal.NewFromInt(100), Currency: "EUR"},
				{AccountID: "missing", Type: EntryTypeCredit, Amount: decimal.NewFromInt(100), Currency: "USD"},
			},
			expectError: ErrAccountNotFound,
		},
		{
			name: "currency mismatch reported before invalid amount",
			entries: []EntryDraft{
				{AccountID: "cash", Type: EntryTypeDebit, Amount: decimal.NewFromInt(-1), Currency: "USD"},
				{AccountID: "loan", Type: EntryTypeCredit, Amount: decimal.NewFromInt(100), Currency: "EUR"},
			},
			expectError: ErrCurrencyMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := TransactionDraft{Entries: tt.entries}
			err := draft.ValidateAgainst(accounts)

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && !errors.Is(err, tt.expectError) {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestTransactionDraft_AccountIDsSortedAndUnique(t *testing.T) {
	draft := TransactionDraft{Entries: []EntryDraft{
		{AccountID: "c"}, {AccountID: "a"}, {AccountID: "c"}, {AccountID: "b"},
	}}

	ids := draft.AccountIDs()
	want := []string{"a", "b", "c"}

	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
}

func TestTransaction_Reversal(t *testing.T) {
	original := &Transaction{
		ID: "tx-1",
		Entries: []*LedgerEntry{
			{AccountID: "cash", Type: EntryTypeDebit, Amount: decimal.NewFromInt(100), Currency: "USD"},
			{AccountID: "loan", Type: EntryTypeCredit, Amount: decimal.NewFromInt(100), Currency: "USD"},
		},
	}

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	draft := original.Reversal(date, "")

	if draft.ReversesTransactionID == nil || *draft.ReversesTransactionID != "tx-1" {
		t.Fatalf("expected reversal to reference tx-1, got %v", draft.ReversesTransactionID)
	}
	if draft.Description != "Reversal of tx-1" {
		t.Errorf("unexpected description %q", draft.Description)
	}
	if draft.Entries[0].Type != EntryTypeCredit || draft.Entries[1].Type != EntryTypeDebit {
		t.Errorf("expected sides to be swapped, got %s/%s", draft.Entries[0].Type, draft.Entries[1].Type)
	}
	if err := CheckBalanced(draft.Entries); err != nil {
		t.Errorf("reversal must stay balanced: %v", err)
	}
}
