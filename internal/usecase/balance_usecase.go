package usecase

import (
	"context"

	"github.com/shopspring/decimal"
)

// BalanceUseCase derives balances from ledger entries.
type BalanceUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(accountRepo AccountRepository, entryRepo EntryRepository) *BalanceUseCase {
	return &BalanceUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
	}
}

// CurrentBalance sums every entry of the account with its sign convention.
// The cached balance is not consulted.
func (uc *BalanceUseCase) CurrentBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	totals, err := uc.entryRepo.SumByAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	return account.Type.Net(totals)
}
