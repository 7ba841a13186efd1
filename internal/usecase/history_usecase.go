package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/ledgercore/internal/domain"
)

// HistoryUseCase reconstructs end-of-day balances.
type HistoryUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
}

// NewHistoryUseCase creates a new HistoryUseCase.
func NewHistoryUseCase(accountRepo AccountRepository, entryRepo EntryRepository) *HistoryUseCase {
	return &HistoryUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
	}
}

// BalanceHistory returns one point per UTC calendar day in [startDate, endDate]
// that has entries, carrying the balance after that day's last entry. Days
// without entries are omitted. Entries before startDate seed the running balance.
func (uc *HistoryUseCase) BalanceHistory(ctx context.Context, accountID string, startDate, endDate time.Time) ([]domain.BalancePoint, error) {
	startDay := domain.CalendarDay(startDate)
	endDay := domain.CalendarDay(endDate)

	if startDay.After(endDay) {
		return nil, fmt.Errorf("%w: start %s is after end %s",
			domain.ErrInvalidDateRange, startDay.Format(domain.DayLayout), endDay.Format(domain.DayLayout))
	}

	if endDay.Sub(startDay) > MaxHistoryDays*24*time.Hour {
		return nil, fmt.Errorf("%w: range exceeds %d days", domain.ErrInvalidDateRange, MaxHistoryDays)
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	seed, err := uc.entryRepo.SumByAccountBefore(ctx, accountID, startDay)
	if err != nil {
		return nil, err
	}

	running, err := account.Type.Net(seed)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.ListByAccountInRange(ctx, accountID, startDay, domain.NextDay(endDay))
	if err != nil {
		return nil, err
	}

	points := make([]domain.BalancePoint, 0)

	var current time.Time
	for i, e := range entries {
		day := domain.CalendarDay(e.TransactionDate)
		if i > 0 && !day.Equal(current) {
			points = append(points, domain.BalancePoint{Date: current, Balance: running})
		}

		current = day

		delta, err := account.Type.Effect(e.Type, e.Amount)
		if err != nil {
			return nil, err
		}

		running = running.Add(delta)
	}

	if len(entries) > 0 {
		points = append(points, domain.BalancePoint{Date: current, Balance: running})
	}

	return points, nil
}
