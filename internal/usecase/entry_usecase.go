package usecase

import (
	"context"

	"github.com/iho/ledgercore/internal/domain"
)

// EntryUseCase handles entry queries.
type EntryUseCase struct {
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	entryRepo       EntryRepository
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(accountRepo AccountRepository, transactionRepo TransactionRepository, entryRepo EntryRepository) *EntryUseCase {
	return &EntryUseCase{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		entryRepo:       entryRepo,
	}
}

// GetEntriesByAccountInput represents input for listing entries.
type GetEntriesByAccountInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// GetEntriesByAccount lists entries for an account.
func (uc *EntryUseCase) GetEntriesByAccount(ctx context.Context, input GetEntriesByAccountInput) ([]*domain.LedgerEntry, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	if input.Offset < 0 {
		input.Offset = 0
	}

	if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	return uc.entryRepo.ListByAccount(ctx, input.AccountID, input.Limit, input.Offset)
}

// GetEntriesByTransaction lists entries for a transaction.
func (uc *EntryUseCase) GetEntriesByTransaction(ctx context.Context, transactionID string) ([]*domain.LedgerEntry, error) {
	if _, err := uc.transactionRepo.GetByID(ctx, transactionID); err != nil {
		return nil, err
	}

	return uc.entryRepo.ListByTransaction(ctx, transactionID)
}
