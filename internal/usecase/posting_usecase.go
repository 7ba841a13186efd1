package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/ledgercore/internal/domain"
)

// PostingUseCase records balanced transactions atomically.
type PostingUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	entryRepo       EntryRepository
	outboxRepo      OutboxRepository
	idGen           IDGenerator
	metrics         Metrics
	logger          zerolog.Logger
}

// NewPostingUseCase creates a new PostingUseCase.
func NewPostingUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics Metrics,
	logger zerolog.Logger,
) *PostingUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}

	return &PostingUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		entryRepo:       entryRepo,
		outboxRepo:      outboxRepo,
		idGen:           idGen,
		metrics:         metrics,
		logger:          logger,
	}
}

// Post validates the draft and records the transaction, its entries and the
// resulting cached balances in one storage transaction. On any error nothing
// is persisted. Posts are never retried here.
func (uc *PostingUseCase) Post(ctx context.Context, draft domain.TransactionDraft) (*domain.Transaction, error) {
	start := time.Now()

	txn, err := uc.post(ctx, draft)
	if err != nil {
		uc.metrics.PostingFailed(failureReason(err))
		uc.logger.Warn().
			Err(err).
			Int("entries", len(draft.Entries)).
			Msg("transaction rejected")

		return nil, err
	}

	uc.metrics.TransactionPosted(len(txn.Entries), time.Since(start))
	if txn.ReversesTransactionID != nil {
		uc.metrics.TransactionReversed()
	}

	uc.logger.Debug().
		Str("transaction_id", txn.ID).
		Int("entries", len(txn.Entries)).
		Dur("duration", time.Since(start)).
		Msg("transaction posted")

	return txn, nil
}

func (uc *PostingUseCase) post(ctx context.Context, draft domain.TransactionDraft) (*domain.Transaction, error) {
	// 0. Validate inputs before starting transaction
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	// 1. Collect and sort unique account IDs (DEADLOCK PREVENTION)
	accountIDs := draft.AccountIDs()

	// 2. Begin transaction
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 3. Lock accounts in sorted order
	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		return nil, err
	}

	accountMap := buildAccountMap(accounts)

	// 4. Validate against the locked state
	if err := draft.ValidateAgainst(accountMap); err != nil {
		return nil, err
	}

	// 5. Write transaction, entries and balances
	now := time.Now().UTC()

	date := draft.Date
	if date.IsZero() {
		date = now
	}

	txn := &domain.Transaction{
		ID:                    uc.idGen.Generate(),
		Date:                  date.UTC(),
		Description:           draft.Description,
		ReversesTransactionID: draft.ReversesTransactionID,
		Entries:               make([]*domain.LedgerEntry, 0, len(draft.Entries)),
		CreatedAt:             now,
	}

	if err := uc.transactionRepo.Create(ctx, tx, txn); err != nil {
		return nil, err
	}

	for _, ed := range draft.Entries {
		entry := &domain.LedgerEntry{
			ID:              uc.idGen.Generate(),
			AccountID:       ed.AccountID,
			TransactionID:   txn.ID,
			Type:            ed.Type,
			Amount:          ed.Amount,
			Currency:        ed.Currency,
			TransactionDate: txn.Date,
			CreatedAt:       now,
		}

		if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
			return nil, err
		}

		account := accountMap[ed.AccountID]

		newBalance, err := account.ApplyEntry(ed.Type, ed.Amount)
		if err != nil {
			return nil, err
		}

		account.CachedBalance = newBalance
		txn.Entries = append(txn.Entries, entry)
	}

	for _, id := range accountIDs {
		account := accountMap[id]
		if err := uc.accountRepo.UpdateBalance(ctx, tx, id, account.CachedBalance, now); err != nil {
			return nil, err
		}

		account.Version++
		account.UpdatedAt = now
	}

	eventType := domain.EventTypeTransactionPosted
	if txn.ReversesTransactionID != nil {
		eventType = domain.EventTypeTransactionReversed
	}

	err = uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   txn.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     eventType,
		Payload:       domain.NewTransactionPostedEvent(txn).Payload(),
		CreatedAt:     now,
	})
	if err != nil {
		return nil, err
	}

	// 6. Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return txn, nil
}

// ReverseTransactionInput represents input for reversing a transaction.
type ReverseTransactionInput struct {
	TransactionID string
	Date          time.Time
	Description   string
}

// Reverse posts a compensating transaction with every entry side swapped.
// A transaction can be reversed at most once.
func (uc *PostingUseCase) Reverse(ctx context.Context, input ReverseTransactionInput) (*domain.Transaction, error) {
	original, err := uc.GetTransaction(ctx, input.TransactionID)
	if err != nil {
		return nil, err
	}

	return uc.Post(ctx, original.Reversal(input.Date, input.Description))
}

// GetTransaction retrieves a transaction with its entries.
func (uc *PostingUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	txn, err := uc.transactionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.ListByTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	txn.Entries = entries

	return txn, nil
}

// UpdateDescription changes the only mutable field of a posted transaction.
func (uc *PostingUseCase) UpdateDescription(ctx context.Context, id, description string) (*domain.Transaction, error) {
	if err := domain.ValidateDescription(description); err != nil {
		return nil, err
	}

	if err := uc.transactionRepo.UpdateDescription(ctx, id, description); err != nil {
		return nil, err
	}

	return uc.GetTransaction(ctx, id)
}

func buildAccountMap(accounts []*domain.Account) map[string]*domain.Account {
	m := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		m[a.ID] = a
	}

	return m
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrCurrencyMismatch):
		return "currency_mismatch"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrUnbalancedTransaction):
		return "unbalanced"
	case errors.Is(err, domain.ErrEmptyTransaction),
		errors.Is(err, domain.ErrInvalidEntryType),
		errors.Is(err, domain.ErrInvalidDescription):
		return "invalid_request"
	case errors.Is(err, domain.ErrTransactionAlreadyReversed):
		return "already_reversed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "storage"
	}
}
