package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/ledgercore/internal/domain"
)

func seedAccount(t *testing.T, store *Store, id string) {
	t.Helper()

	ctx := context.Background()
	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)

	now := time.Now().UTC()
	err = NewAccountRepository(store).Create(ctx, tx, &domain.Account{
		ID:            id,
		Name:          id,
		Type:          domain.AccountTypeAsset,
		Currency:      "USD",
		CachedBalance: decimal.Zero,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
}

func entry(id, accountID string, entryType domain.EntryType, amount int64, date time.Time) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:              id,
		AccountID:       accountID,
		TransactionID:   "tx-" + id,
		Type:            entryType,
		Amount:          decimal.NewFromInt(amount),
		Currency:        "USD",
		TransactionDate: date,
		CreatedAt:       date,
	}
}

func TestTxRollbackDiscardsStagedWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedAccount(t, store, "acc-1")

	accounts := NewAccountRepository(store)
	entries := NewEntryRepository(store)

	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)

	_, err = accounts.GetByIDForUpdate(ctx, tx, "acc-1")
	require.NoError(t, err)
	require.NoError(t, accounts.UpdateBalance(ctx, tx, "acc-1", decimal.NewFromInt(500), time.Now()))
	require.NoError(t, entries.Create(ctx, tx, entry("e1", "acc-1", domain.EntryTypeDebit, 500, time.Now())))

	staged, err := entries.SumByAccountTx(ctx, tx, "acc-1")
	require.NoError(t, err)
	assert.True(t, staged.Debits.Equal(decimal.NewFromInt(500)))

	require.NoError(t, tx.Rollback(ctx))

	acc, err := accounts.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, acc.CachedBalance.IsZero())
	assert.Equal(t, int64(0), acc.Version)

	totals, err := entries.SumByAccount(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, totals.Debits.IsZero())
}

func TestTxCommitAppliesWritesAndBumpsVersion(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedAccount(t, store, "acc-1")

	accounts := NewAccountRepository(store)

	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, accounts.UpdateBalance(ctx, tx, "acc-1", decimal.NewFromInt(42), time.Now()))
	require.NoError(t, tx.Commit(ctx))

	assert.ErrorIs(t, tx.Commit(ctx), ErrTxDone)
	assert.NoError(t, tx.Rollback(ctx))

	acc, err := accounts.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, acc.CachedBalance.Equal(decimal.NewFromInt(42)))
	assert.Equal(t, int64(1), acc.Version)
}

func TestTxCommitWithCancelledContextAppliesNothing(t *testing.T) {
	store := NewStore()
	seedAccount(t, store, "acc-1")

	accounts := NewAccountRepository(store)

	ctx, cancel := context.WithCancel(context.Background())
	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, accounts.UpdateBalance(ctx, tx, "acc-1", decimal.NewFromInt(7), time.Now()))

	cancel()
	assert.ErrorIs(t, tx.Commit(ctx), context.Canceled)

	acc, err := accounts.GetByID(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.True(t, acc.CachedBalance.IsZero())
}

func TestAccountLockBlocksUntilRelease(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedAccount(t, store, "acc-1")

	accounts := NewAccountRepository(store)
	manager := NewTxManager(store)

	first, err := manager.Begin(ctx)
	require.NoError(t, err)
	_, err = accounts.GetByIDForUpdate(ctx, first, "acc-1")
	require.NoError(t, err)

	second, err := manager.Begin(ctx)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	_, err = accounts.GetByIDForUpdate(waitCtx, second, "acc-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NoError(t, second.Rollback(ctx))

	acquired := make(chan error, 1)
	third, err := manager.Begin(ctx)
	require.NoError(t, err)

	go func() {
		_, err := accounts.GetByIDForUpdate(ctx, third, "acc-1")
		acquired <- err
	}()

	select {
	case <-acquired:
		t.Fatal("lock acquired while still held")
	case <-time.After(10 * time.Millisecond):
	}

	require.NoError(t, first.Rollback(ctx))
	require.NoError(t, <-acquired)
	require.NoError(t, third.Rollback(ctx))
}

func TestGetByIDsForUpdateOmitsMissing(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedAccount(t, store, "acc-1")

	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	accounts, err := NewAccountRepository(store).GetByIDsForUpdate(ctx, tx, []string{"acc-1", "missing"})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "acc-1", accounts[0].ID)
}

func TestTransactionRepositoryRejectsSecondReversal(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	manager := NewTxManager(store)
	repo := NewTransactionRepository(store)

	original := "tx-1"

	tx, err := manager.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, tx, &domain.Transaction{ID: "rev-1", ReversesTransactionID: &original}))
	require.NoError(t, tx.Commit(ctx))

	tx, err = manager.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	err = repo.Create(ctx, tx, &domain.Transaction{ID: "rev-2", ReversesTransactionID: &original})
	assert.ErrorIs(t, err, domain.ErrTransactionAlreadyReversed)
}

func TestListByAccountInRangeOrdersChronologically(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedAccount(t, store, "acc-1")

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)

	repo := NewEntryRepository(store)
	require.NoError(t, repo.Create(ctx, tx, entry("c", "acc-1", domain.EntryTypeDebit, 3, day.Add(36*time.Hour))))
	require.NoError(t, repo.Create(ctx, tx, entry("a", "acc-1", domain.EntryTypeDebit, 1, day.Add(2*time.Hour))))
	require.NoError(t, repo.Create(ctx, tx, entry("b", "acc-1", domain.EntryTypeCredit, 2, day.Add(20*time.Hour))))
	require.NoError(t, repo.Create(ctx, tx, entry("z", "acc-1", domain.EntryTypeDebit, 9, day.Add(-time.Hour))))
	require.NoError(t, tx.Commit(ctx))

	got, err := repo.ListByAccountInRange(ctx, "acc-1", day, day.AddDate(0, 0, 2))
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	before, err := repo.SumByAccountBefore(ctx, "acc-1", day)
	require.NoError(t, err)
	assert.True(t, before.Debits.Equal(decimal.NewFromInt(9)))

	newest, err := repo.ListByAccount(ctx, "acc-1", 2, 0)
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, "c", newest[0].ID)
	assert.Equal(t, "b", newest[1].ID)
}

func TestOutboxLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewOutboxRepository(store)

	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, tx, &domain.OutboxEvent{ID: "ev-1", EventType: domain.EventTypeTransactionPosted}))
	require.NoError(t, repo.Create(ctx, tx, &domain.OutboxEvent{ID: "ev-2", EventType: domain.EventTypeAccountCreated}))
	require.NoError(t, tx.Commit(ctx))

	pending, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	publishedAt := time.Now().Add(-time.Hour)
	require.NoError(t, repo.MarkPublished(ctx, "ev-1", publishedAt))

	pending, err = repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "ev-2", pending[0].ID)

	require.NoError(t, repo.DeletePublished(ctx, time.Now()))
	assert.Len(t, store.outbox, 1)
}

func TestLedgerRepositoryTotalsPerCurrency(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)

	entries := NewEntryRepository(store)
	eur := entry("e", "acc-2", domain.EntryTypeCredit, 5, time.Now())
	eur.Currency = "EUR"

	require.NoError(t, entries.Create(ctx, tx, entry("u1", "acc-1", domain.EntryTypeDebit, 10, time.Now())))
	require.NoError(t, entries.Create(ctx, tx, entry("u2", "acc-3", domain.EntryTypeCredit, 10, time.Now())))
	require.NoError(t, entries.Create(ctx, tx, eur))
	require.NoError(t, tx.Commit(ctx))

	totals, err := NewLedgerRepository(store).CheckConsistency(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	assert.Equal(t, "EUR", totals[0].Currency)
	assert.False(t, totals[0].Balanced())
	assert.Equal(t, "USD", totals[1].Currency)
	assert.True(t, totals[1].Balanced())
}
