package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millstone-labs/larder/pkg/types"
)

func TestLockAcquireRelease(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Acquire(ctx, "workflow:promote", "run-1", 0))

	// Re-entrant for the same holder.
	require.NoError(t, b.Acquire(ctx, "workflow:promote", "run-1", 0))

	// A second holder times out with a bounded wait.
	err := b.Acquire(ctx, "workflow:promote", "run-2", 50*time.Millisecond)
	assert.ErrorIs(t, err, types.ErrLockHeld)

	require.NoError(t, b.Release("workflow:promote", "run-1"))
	require.NoError(t, b.Acquire(ctx, "workflow:promote", "run-2", 0))
	require.NoError(t, b.Release("workflow:promote", "run-2"))
}

func TestLockReleaseByNonHolder(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Acquire(ctx, "workflow:intake", "run-1", 0))
	assert.ErrorIs(t, b.Release("workflow:intake", "run-2"), types.ErrNotLockHolder)
	assert.ErrorIs(t, b.Release("missing", "run-1"), types.ErrNotLockHolder)
	require.NoError(t, b.Release("workflow:intake", "run-1"))
}

func TestLockEmptyHolder(t *testing.T) {
	b := newTestBackend(t)
	assert.ErrorIs(t, b.Acquire(context.Background(), "x", "", 0), types.ErrInvalidHolder)
	assert.ErrorIs(t, b.Release("x", ""), types.ErrInvalidHolder)
}

func TestLockWaitSucceedsAfterRelease(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Acquire(ctx, "workflow:evallog", "run-1", 0))

	done := make(chan error, 1)
	go func() {
		done <- b.Acquire(ctx, "workflow:evallog", "run-2", 5*time.Second)
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, b.Release("workflow:evallog", "run-1"))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}
