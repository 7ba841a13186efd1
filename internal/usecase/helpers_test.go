package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/ledgercore/internal/adapter/repository/memory"
	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

type ulidGenerator struct{}

func (ulidGenerator) Generate() string { return ulid.Make().String() }

// ledger wires every use case to one in-memory store.
type ledger struct {
	store        *memory.Store
	txManager    *memory.TxManager
	accountRepo  *memory.AccountRepository
	txnRepo      *memory.TransactionRepository
	entryRepo    *memory.EntryRepository
	outboxRepo   *memory.OutboxRepository
	accounts     *usecase.AccountUseCase
	posting      *usecase.PostingUseCase
	balances     *usecase.BalanceUseCase
	history      *usecase.HistoryUseCase
	integrity    *usecase.IntegrityUseCase
	entryQueries *usecase.EntryUseCase
}

func newLedger(t *testing.T) *ledger {
	t.Helper()

	store := memory.NewStore()
	txManager := memory.NewTxManager(store)
	accountRepo := memory.NewAccountRepository(store)
	transactionRepo := memory.NewTransactionRepository(store)
	entryRepo := memory.NewEntryRepository(store)
	outboxRepo := memory.NewOutboxRepository(store)
	ledgerRepo := memory.NewLedgerRepository(store)
	logger := zerolog.Nop()

	return &ledger{
		store:       store,
		txManager:   txManager,
		accountRepo: accountRepo,
		txnRepo:     transactionRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
		accounts:    usecase.NewAccountUseCase(txManager, accountRepo, outboxRepo, ulidGenerator{}),
		posting: usecase.NewPostingUseCase(
			txManager, accountRepo, transactionRepo, entryRepo, outboxRepo,
			ulidGenerator{}, usecase.NopMetrics{}, logger,
		),
		balances: usecase.NewBalanceUseCase(accountRepo, entryRepo),
		history:  usecase.NewHistoryUseCase(accountRepo, entryRepo),
		integrity: usecase.NewIntegrityUseCase(usecase.IntegrityConfig{
			TxManager:   txManager,
			AccountRepo: accountRepo,
			EntryRepo:   entryRepo,
			LedgerRepo:  ledgerRepo,
			OutboxRepo:  outboxRepo,
			IDGen:       ulidGenerator{},
			Locker:      memory.NewLocker(),
			Logger:      logger,
		}),
		entryQueries: usecase.NewEntryUseCase(accountRepo, transactionRepo, entryRepo),
	}
}

func (l *ledger) account(t *testing.T, name string, accountType domain.AccountType, currency string) *domain.Account {
	t.Helper()

	acc, err := l.accounts.CreateAccount(context.Background(), usecase.CreateAccountInput{
		Name:     name,
		Type:     accountType,
		Currency: currency,
	})
	require.NoError(t, err)

	return acc
}

// transfer posts a two-entry transaction debiting one account and crediting another.
func (l *ledger) transfer(t *testing.T, debit, credit *domain.Account, amount int64, date time.Time) *domain.Transaction {
	t.Helper()

	txn, err := l.posting.Post(context.Background(), draft(date, debit, credit, decimal.NewFromInt(amount)))
	require.NoError(t, err)

	return txn
}

func draft(date time.Time, debit, credit *domain.Account, amount decimal.Decimal) domain.TransactionDraft {
	return domain.TransactionDraft{
		Date:        date,
		Description: "test",
		Entries: []domain.EntryDraft{
			{AccountID: debit.ID, Type: domain.EntryTypeDebit, Amount: amount, Currency: debit.Currency},
			{AccountID: credit.ID, Type: domain.EntryTypeCredit, Amount: amount, Currency: credit.Currency},
		},
	}
}

// corrupt overwrites a cached balance without touching entries.
func (l *ledger) corrupt(t *testing.T, accountID string, balance int64) {
	t.Helper()

	ctx := context.Background()
	tx, err := l.txManager.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, l.accountRepo.UpdateBalance(ctx, tx, accountID, decimal.NewFromInt(balance), time.Now().UTC()))
	require.NoError(t, tx.Commit(ctx))
}

func (l *ledger) cached(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()

	acc, err := l.accountRepo.GetByID(context.Background(), accountID)
	require.NoError(t, err)

	return acc.CachedBalance
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
