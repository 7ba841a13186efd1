package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	l := NewLocker()
	l.clock = func() time.Time { return now }

	token, ok, err := l.Acquire(ctx, "job", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.Acquire(ctx, "job", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held lock must not be granted twice")

	require.NoError(t, l.Release(ctx, "job", "stale"))
	_, ok, _ = l.Acquire(ctx, "job", time.Minute)
	assert.False(t, ok, "release with a foreign token must not free the lock")

	now = now.Add(2 * time.Minute)
	second, ok, err := l.Acquire(ctx, "job", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired lock must be granted")

	require.NoError(t, l.Release(ctx, "job", token))
	_, ok, _ = l.Acquire(ctx, "job", time.Minute)
	assert.False(t, ok, "old holder's release must not free the new holder's lock")

	require.NoError(t, l.Release(ctx, "job", second))
	_, ok, _ = l.Acquire(ctx, "job", time.Minute)
	assert.True(t, ok)
}

func TestLockerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := NewLocker().Acquire(ctx, "job", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}
