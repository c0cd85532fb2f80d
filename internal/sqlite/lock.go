// Advisory locks for the SQLite backend. A lock is a row in the locks
// table; acquisition polls until the bounded wait expires.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/millstone-labs/larder/pkg/types"
)

// lockPollInterval is the delay between acquisition attempts while waiting.
const lockPollInterval = 250 * time.Millisecond

// Acquire takes the named lock for holder, blocking up to wait. Re-entrant
// for the same holder. Returns ErrLockHeld when the wait expires.
func (b *Backend) Acquire(ctx context.Context, name, holder string, wait time.Duration) error {
	if holder == "" {
		return types.ErrInvalidHolder
	}

	deadline := time.Now().Add(wait)
	for {
		err := b.tryAcquire(ctx, name, holder)
		if err == nil {
			return nil
		}
		if err != types.ErrLockHeld {
			return err
		}
		if time.Now().After(deadline) {
			return types.ErrLockHeld
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

func (b *Backend) tryAcquire(ctx context.Context, name, holder string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreClosed
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning lock acquire: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx,
		"SELECT holder FROM locks WHERE name = ?", name).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO locks (name, holder, acquired_at) VALUES (?, ?, ?)",
			name, holder, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("inserting lock %s: %w", name, err)
		}
	case err != nil:
		return fmt.Errorf("checking lock %s: %w", name, err)
	case current != holder:
		return types.ErrLockHeld
	}
	return tx.Commit()
}

// Release frees the named lock. Returns ErrNotLockHolder when the lock is
// absent or held by someone else.
func (b *Backend) Release(name, holder string) error {
	if holder == "" {
		return types.ErrInvalidHolder
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreClosed
	}

	res, err := b.db.Exec(
		"DELETE FROM locks WHERE name = ? AND holder = ?", name, holder)
	if err != nil {
		return fmt.Errorf("releasing lock %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return types.ErrNotLockHolder
	}
	return nil
}
