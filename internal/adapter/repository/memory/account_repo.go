package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create stages a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	r.store.mu.RLock()
	_, exists := r.store.accounts[account.ID]
	r.store.mu.RUnlock()

	if exists {
		return fmt.Errorf("memory: account %s already exists", account.ID)
	}

	a := *account

	return t.stage(func() error {
		t.accounts = append(t.accounts, &a)
		return nil
	})
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	a, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	c := *a

	return &c, nil
}

// GetByIDForUpdate locks and retrieves an account.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	accounts, err := r.GetByIDsForUpdate(ctx, tx, []string{id})
	if err != nil {
		return nil, err
	}

	if len(accounts) == 0 {
		return nil, domain.ErrAccountNotFound
	}

	return accounts[0], nil
}

// GetByIDsForUpdate locks the accounts in id order and returns those that exist.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}

	if err := t.lock(ctx, ids); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	accounts := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := t.account(id); ok {
			accounts = append(accounts, a)
		}
	}

	return accounts, nil
}

// UpdateBalance stages a new cached balance and bumps the version.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	return t.stage(func() error {
		if _, ok := t.account(id); !ok {
			return domain.ErrAccountNotFound
		}

		u := t.update(id)
		u.balance = &balance
		u.versionBump++
		u.updatedAt = updatedAt

		return nil
	})
}

// Deactivate stages the account as inactive.
func (r *AccountRepository) Deactivate(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	return t.stage(func() error {
		if _, ok := t.account(id); !ok {
			return domain.ErrAccountNotFound
		}

		u := t.update(id)
		u.deactivated = true
		u.updatedAt = updatedAt

		return nil
	})
}

// List lists accounts in creation order.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	accounts := make([]*domain.Account, 0, limit)
	for i := offset; i < len(r.store.accountOrder) && len(accounts) < limit; i++ {
		c := *r.store.accounts[r.store.accountOrder[i]]
		accounts = append(accounts, &c)
	}

	return accounts, nil
}
