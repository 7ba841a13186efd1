package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/iho/ledgercore/internal/domain"
)

// ErrInconsistentLedger is returned when the ledger is not balanced.
var ErrInconsistentLedger = errors.New("ledger is inconsistent: debits do not equal credits")

// ErrReconcileInProgress is returned when another reconcile-all pass holds the lock.
var ErrReconcileInProgress = errors.New("reconcile already in progress")

// InconsistentLedgerError carries the per-currency totals of an unbalanced ledger.
type InconsistentLedgerError struct {
	Totals []domain.CurrencyTotals
}

func (e *InconsistentLedgerError) Error() string {
	for _, t := range e.Totals {
		if !t.Balanced() {
			return fmt.Sprintf("%s: %s debits=%s credits=%s",
				ErrInconsistentLedger.Error(), t.Currency, t.Debits, t.Credits)
		}
	}

	return ErrInconsistentLedger.Error()
}

func (e *InconsistentLedgerError) Unwrap() error {
	return ErrInconsistentLedger
}

// IntegrityUseCase compares cached balances with the entries behind them.
type IntegrityUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	ledgerRepo  LedgerRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	retrier     Retrier
	locker      Locker
	metrics     Metrics
	logger      zerolog.Logger
	concurrency int

	reconcileOnDrift bool
}

// IntegrityConfig wires an IntegrityUseCase.
type IntegrityConfig struct {
	TxManager   TransactionManager
	AccountRepo AccountRepository
	EntryRepo   EntryRepository
	LedgerRepo  LedgerRepository
	OutboxRepo  OutboxRepository
	IDGen       IDGenerator
	Retrier     Retrier
	Locker      Locker // optional; serializes ReconcileAll across instances
	Metrics     Metrics
	Logger      zerolog.Logger
	Concurrency int // accounts reconciled in parallel by ReconcileAll

	// ReconcileOnDrift makes Validate repair the accounts it finds drifted.
	ReconcileOnDrift bool
}

// NewIntegrityUseCase creates a new IntegrityUseCase.
func NewIntegrityUseCase(cfg IntegrityConfig) *IntegrityUseCase {
	if cfg.Retrier == nil {
		cfg.Retrier = NoRetry{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NopMetrics{}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultReconcileConcurrency
	}

	return &IntegrityUseCase{
		txManager:   cfg.TxManager,
		accountRepo: cfg.AccountRepo,
		entryRepo:   cfg.EntryRepo,
		ledgerRepo:  cfg.LedgerRepo,
		outboxRepo:  cfg.OutboxRepo,
		idGen:       cfg.IDGen,
		retrier:     cfg.Retrier,
		locker:      cfg.Locker,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,

		reconcileOnDrift: cfg.ReconcileOnDrift,
	}
}

// Check compares the cached balance with the balance recomputed from entries.
// Both are read under the account lock, so a post committing concurrently is
// either fully visible or not at all.
func (uc *IntegrityUseCase) Check(ctx context.Context, accountID string) (*domain.ReconciliationResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	return uc.snapshot(ctx, tx, accountID)
}

// snapshot locks the account and compares it with its entries inside tx.
func (uc *IntegrityUseCase) snapshot(ctx context.Context, tx Transaction, accountID string) (*domain.ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	totals, err := uc.entryRepo.SumByAccountTx(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	return compare(account, totals)
}

// Validate reports whether the cached balance equals the recomputed one.
// Missing accounts and storage errors count as not valid. With
// ReconcileOnDrift set, a drifted account is reconciled before returning;
// the result still reports the drift that was found.
func (uc *IntegrityUseCase) Validate(ctx context.Context, accountID string) bool {
	result, err := uc.Check(ctx, accountID)
	if err != nil {
		uc.logger.Warn().
			Err(err).
			Str("account_id", accountID).
			Msg("integrity check failed")

		return false
	}

	if !result.IsReconciled {
		uc.metrics.IntegrityViolation()
		uc.logger.Error().
			Err(domain.ErrIntegrityViolation).
			Str("account_id", accountID).
			Str("recorded", result.RecordedBalance.String()).
			Str("calculated", result.CalculatedBalance.String()).
			Msg("cached balance drifted")

		if uc.reconcileOnDrift {
			if err := uc.Reconcile(ctx, accountID); err != nil {
				uc.logger.Error().
					Err(err).
					Str("account_id", accountID).
					Msg("reconcile after drift failed")
			}
		}

		return false
	}

	return true
}

// Reconcile recomputes the balance under the account lock and overwrites the
// cached balance when it differs.
func (uc *IntegrityUseCase) Reconcile(ctx context.Context, accountID string) error {
	_, err := uc.reconcile(ctx, accountID)
	return err
}

// ReconcileAccount is Reconcile returning the comparison it acted on.
func (uc *IntegrityUseCase) ReconcileAccount(ctx context.Context, accountID string) (*domain.ReconciliationResult, error) {
	return uc.reconcile(ctx, accountID)
}

func (uc *IntegrityUseCase) reconcile(ctx context.Context, accountID string) (*domain.ReconciliationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	var result *domain.ReconciliationResult

	err := uc.retrier.Retry(ctx, func() error {
		r, err := uc.reconcileOnce(ctx, accountID)
		if err != nil {
			return err
		}

		result = r

		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.AccountReconciled(result.Corrected)

	return result, nil
}

func (uc *IntegrityUseCase) reconcileOnce(ctx context.Context, accountID string) (*domain.ReconciliationResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	result, err := uc.snapshot(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	if result.IsReconciled {
		return result, tx.Commit(ctx)
	}

	now := time.Now().UTC()

	if err := uc.accountRepo.UpdateBalance(ctx, tx, accountID, result.CalculatedBalance, now); err != nil {
		return nil, err
	}

	err = uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   accountID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeAccountReconciled,
		Payload: map[string]any{
			"account_id":         accountID,
			"recorded_balance":   result.RecordedBalance.String(),
			"calculated_balance": result.CalculatedBalance.String(),
		},
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	result.Corrected = true

	uc.logger.Warn().
		Str("account_id", accountID).
		Str("recorded", result.RecordedBalance.String()).
		Str("calculated", result.CalculatedBalance.String()).
		Msg("cached balance corrected")

	return result, nil
}

// ReconcileAll reconciles every account and checks ledger-wide consistency.
// Accounts that fail are listed in the report; only listing and ledger
// storage failures are returned as errors.
func (uc *IntegrityUseCase) ReconcileAll(ctx context.Context) (*domain.ReconciliationReport, error) {
	if uc.locker != nil {
		token, ok, err := uc.locker.Acquire(ctx, reconcileAllLockKey, ReconcileAllLockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire reconcile lock: %w", err)
		}
		if !ok {
			return nil, ErrReconcileInProgress
		}

		defer func() {
			if err := uc.locker.Release(context.WithoutCancel(ctx), reconcileAllLockKey, token); err != nil {
				uc.logger.Warn().Err(err).Msg("failed to release reconcile lock")
			}
		}()
	}

	accounts, err := uc.listAllAccounts(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.ReconciliationReport{
		TotalAccounts: len(accounts),
		Discrepancies: make([]*domain.ReconciliationResult, 0),
		Failed:        make([]string, 0),
	}

	var (
		mu   sync.Mutex
		errs error
	)

	g := new(errgroup.Group)
	g.SetLimit(uc.concurrency)

	for _, account := range accounts {
		g.Go(func() error {
			result, err := uc.reconcile(ctx, account.ID)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("reconcile account %s: %w", account.ID, err))
				report.Failed = append(report.Failed, account.ID)

				return nil
			}

			if result.IsReconciled {
				report.ReconciledAccounts++
				return nil
			}

			report.Discrepancies = append(report.Discrepancies, result)
			if result.Corrected {
				report.CorrectedAccounts++
			}

			return nil
		})
	}

	_ = g.Wait()

	if errs != nil {
		uc.logger.Error().
			Err(errs).
			Int("failed", len(multierr.Errors(errs))).
			Msg("reconcile pass had failures")
	}

	sort.Strings(report.Failed)
	sort.Slice(report.Discrepancies, func(i, j int) bool {
		return report.Discrepancies[i].AccountID < report.Discrepancies[j].AccountID
	})

	_, err = uc.CheckLedgerConsistency(ctx)
	switch {
	case err == nil:
		report.LedgerConsistent = true
	case errors.Is(err, ErrInconsistentLedger):
		report.LedgerConsistent = false
	default:
		return nil, err
	}

	report.CheckedAt = time.Now().UTC()

	return report, nil
}

// RunReconcile calls ReconcileAll every interval until ctx is done. A pass
// that finds another one holding the lock is skipped.
func (uc *IntegrityUseCase) RunReconcile(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := uc.ReconcileAll(ctx)
			switch {
			case errors.Is(err, ErrReconcileInProgress):
				uc.logger.Debug().Msg("reconcile pass skipped, another is running")
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				uc.logger.Error().Err(err).Msg("scheduled reconcile failed")
			default:
				uc.logger.Info().
					Int("accounts", report.TotalAccounts).
					Int("corrected", report.CorrectedAccounts).
					Int("failed", len(report.Failed)).
					Bool("ledger_consistent", report.LedgerConsistent).
					Msg("scheduled reconcile finished")
			}
		}
	}
}

// CheckLedgerConsistency verifies that debits equal credits in every currency.
// An unbalanced ledger yields an *InconsistentLedgerError.
func (uc *IntegrityUseCase) CheckLedgerConsistency(ctx context.Context) ([]domain.CurrencyTotals, error) {
	totals, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	for _, t := range totals {
		if !t.Balanced() {
			uc.logger.Error().
				Str("currency", t.Currency).
				Str("debits", t.Debits.String()).
				Str("credits", t.Credits.String()).
				Msg("ledger inconsistency detected")

			return nil, &InconsistentLedgerError{Totals: totals}
		}
	}

	return totals, nil
}

func (uc *IntegrityUseCase) listAllAccounts(ctx context.Context) ([]*domain.Account, error) {
	var all []*domain.Account

	for offset := 0; ; offset += domain.MaxPageSize {
		page, err := uc.accountRepo.List(ctx, domain.MaxPageSize, offset)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)

		if len(page) < domain.MaxPageSize {
			return all, nil
		}
	}
}

func compare(account *domain.Account, totals domain.EntryTotals) (*domain.ReconciliationResult, error) {
	calculated, err := account.Type.Net(totals)
	if err != nil {
		return nil, err
	}

	return &domain.ReconciliationResult{
		AccountID:         account.ID,
		Currency:          account.Currency,
		RecordedBalance:   account.CachedBalance,
		CalculatedBalance: calculated,
		Difference:        account.CachedBalance.Sub(calculated),
		IsReconciled:      account.CachedBalance.Equal(calculated),
		LastChecked:       time.Now().UTC(),
	}, nil
}
