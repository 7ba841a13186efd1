package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type heldLock struct {
	token     string
	expiresAt time.Time
}

// Locker implements usecase.Locker for a single process.
type Locker struct {
	mu    sync.Mutex
	held  map[string]heldLock
	clock func() time.Time
}

// NewLocker creates a new Locker.
func NewLocker() *Locker {
	return &Locker{
		held:  make(map[string]heldLock),
		clock: time.Now,
	}
}

// Acquire takes key if it is free or its previous holder's ttl has passed.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if h, ok := l.held[key]; ok && now.Before(h.expiresAt) {
		return "", false, nil
	}

	token := ulid.Make().String()
	l.held[key] = heldLock{token: token, expiresAt: now.Add(ttl)}

	return token, true, nil
}

// Release frees key if token still owns it.
func (l *Locker) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if h, ok := l.held[key]; ok && h.token == token {
		delete(l.held, key)
	}

	return nil
}
