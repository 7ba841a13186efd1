// Package memory provides in-process repositories for tests and single-node
// deployments. Account rows are locked with per-account semaphores and all
// writes are staged on a Tx until Commit.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// ErrTxDone is returned when committing a finished transaction.
var ErrTxDone = errors.New("memory: transaction already committed or rolled back")

// ErrForeignTx is returned when a repository receives a transaction it did not create.
var ErrForeignTx = errors.New("memory: transaction was not started by this store")

// Store holds committed ledger state.
type Store struct {
	mu sync.RWMutex

	accounts     map[string]*domain.Account
	accountOrder []string
	transactions map[string]*domain.Transaction
	reversedBy   map[string]string
	entries      []*domain.LedgerEntry
	outbox       []*domain.OutboxEvent

	locksMu sync.Mutex
	locks   map[string]chan struct{}
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]*domain.Account),
		transactions: make(map[string]*domain.Transaction),
		reversedBy:   make(map[string]string),
		locks:        make(map[string]chan struct{}),
	}
}

func (s *Store) semaphore(id string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}

	return ch
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Tx{
		store:   m.store,
		held:    make(map[string]bool),
		updates: make(map[string]*accountUpdate),
	}, nil
}

type accountUpdate struct {
	balance     *decimal.Decimal
	deactivated bool
	versionBump int64
	updatedAt   time.Time
}

// Tx stages writes until Commit. It holds the account locks it acquired
// until it finishes.
type Tx struct {
	store *Store

	mu           sync.Mutex
	done         bool
	held         map[string]bool
	lockOrder    []string
	accounts     []*domain.Account
	updates      map[string]*accountUpdate
	transactions []*domain.Transaction
	entries      []*domain.LedgerEntry
	events       []*domain.OutboxEvent
}

func txFrom(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, ErrForeignTx
	}

	return t, nil
}

// lock acquires the row lock of each id in sorted order, waiting until ctx is done.
func (t *Tx) lock(ctx context.Context, ids []string) error {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	for _, id := range sorted {
		t.mu.Lock()
		if t.done {
			t.mu.Unlock()
			return ErrTxDone
		}
		if t.held[id] {
			t.mu.Unlock()
			continue
		}
		t.mu.Unlock()

		select {
		case t.store.semaphore(id) <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}

		t.mu.Lock()
		t.held[id] = true
		t.lockOrder = append(t.lockOrder, id)
		t.mu.Unlock()
	}

	return nil
}

func (t *Tx) release() {
	for i := len(t.lockOrder) - 1; i >= 0; i-- {
		<-t.store.semaphore(t.lockOrder[i])
	}

	t.lockOrder = nil
	t.held = make(map[string]bool)
}

// Commit applies the staged writes atomically. A cancelled context rolls the
// transaction back instead.
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return ErrTxDone
	}

	t.done = true
	defer t.release()

	if err := ctx.Err(); err != nil {
		return err
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, txn := range t.transactions {
		if txn.ReversesTransactionID != nil {
			if _, taken := s.reversedBy[*txn.ReversesTransactionID]; taken {
				return domain.ErrTransactionAlreadyReversed
			}
		}
	}

	for _, a := range t.accounts {
		s.accounts[a.ID] = a
		s.accountOrder = append(s.accountOrder, a.ID)
	}

	for id, u := range t.updates {
		a, ok := s.accounts[id]
		if !ok {
			continue
		}

		next := *a
		if u.balance != nil {
			next.CachedBalance = *u.balance
		}
		if u.deactivated {
			next.IsActive = false
		}
		next.Version += u.versionBump
		next.UpdatedAt = u.updatedAt
		s.accounts[id] = &next
	}

	for _, txn := range t.transactions {
		s.transactions[txn.ID] = txn
		if txn.ReversesTransactionID != nil {
			s.reversedBy[*txn.ReversesTransactionID] = txn.ID
		}
	}

	s.entries = append(s.entries, t.entries...)
	s.outbox = append(s.outbox, t.events...)

	return nil
}

// Rollback discards the staged writes. It is a no-op after Commit.
func (t *Tx) Rollback(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil
	}

	t.done = true
	t.release()

	return nil
}

func (t *Tx) stage(fn func() error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return ErrTxDone
	}

	return fn()
}

// account returns the account as this transaction sees it: committed state
// plus staged writes.
func (t *Tx) account(id string) (*domain.Account, bool) {
	t.store.mu.RLock()
	committed, ok := t.store.accounts[id]
	t.store.mu.RUnlock()

	var a domain.Account
	if ok {
		a = *committed
	} else {
		for _, staged := range t.accounts {
			if staged.ID == id {
				a = *staged
				ok = true
			}
		}
	}

	if !ok {
		return nil, false
	}

	if u, staged := t.updates[id]; staged {
		if u.balance != nil {
			a.CachedBalance = *u.balance
		}
		if u.deactivated {
			a.IsActive = false
		}
		a.Version += u.versionBump
		a.UpdatedAt = u.updatedAt
	}

	return &a, true
}

func (t *Tx) update(id string) *accountUpdate {
	u, ok := t.updates[id]
	if !ok {
		u = &accountUpdate{}
		t.updates[id] = u
	}

	return u
}
