package memory

import (
	"context"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Create stages a transaction header.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	header := copyTransaction(txn)

	return t.stage(func() error {
		if header.ReversesTransactionID == nil {
			t.transactions = append(t.transactions, header)
			return nil
		}

		original := *header.ReversesTransactionID

		r.store.mu.RLock()
		_, taken := r.store.reversedBy[original]
		r.store.mu.RUnlock()

		if taken {
			return domain.ErrTransactionAlreadyReversed
		}

		for _, staged := range t.transactions {
			if staged.ReversesTransactionID != nil && *staged.ReversesTransactionID == original {
				return domain.ErrTransactionAlreadyReversed
			}
		}

		t.transactions = append(t.transactions, header)

		return nil
	})
}

// GetByID retrieves a transaction header.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	txn, ok := r.store.transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	return copyTransaction(txn), nil
}

// UpdateDescription changes a transaction's description.
func (r *TransactionRepository) UpdateDescription(ctx context.Context, id, description string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	txn, ok := r.store.transactions[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}

	updated := copyTransaction(txn)
	updated.Description = description
	r.store.transactions[id] = updated

	return nil
}

func copyTransaction(txn *domain.Transaction) *domain.Transaction {
	c := &domain.Transaction{
		ID:          txn.ID,
		Date:        txn.Date,
		Description: txn.Description,
		CreatedAt:   txn.CreatedAt,
	}

	if txn.ReversesTransactionID != nil {
		id := *txn.ReversesTransactionID
		c.ReversesTransactionID = &id
	}

	return c
}
