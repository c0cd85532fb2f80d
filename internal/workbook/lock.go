// Advisory locks for the workbook backend. A lock is a sidecar file next
// to the workbook, created exclusively; the holder name is its content.
package workbook

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/millstone-labs/larder/pkg/types"
)

const lockPollInterval = 250 * time.Millisecond

// newUUID generates a UUID v7 string, falling back to v4.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// lockPath derives the sidecar file path for a lock name.
func (b *Backend) lockPath(name string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, name)
	return b.config.WorkbookPath + "." + safe + ".lock"
}

// Acquire takes the named lock for holder, blocking up to wait. Re-entrant
// for the same holder. Returns ErrLockHeld when the wait expires.
func (b *Backend) Acquire(ctx context.Context, name, holder string, wait time.Duration) error {
	if holder == "" {
		return types.ErrInvalidHolder
	}

	path := b.lockPath(name)
	deadline := time.Now().Add(wait)
	for {
		err := tryLockFile(path, holder)
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

func tryLockFile(path, holder string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if os.IsExist(err) {
		current, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("reading lock file: %w", readErr)
		}
		if strings.TrimSpace(string(current)) == holder {
			return nil // re-entrant
		}
		return types.ErrLockHeld
	}
	if err != nil {
		return fmt.Errorf("creating lock file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(holder + "\n"); err != nil {
		os.Remove(path)
		return fmt.Errorf("writing lock file: %w", err)
	}
	return nil
}

// Release frees the named lock. Returns ErrNotLockHolder when the lock is
// absent or held by someone else.
func (b *Backend) Release(name, holder string) error {
	if holder == "" {
		return types.ErrInvalidHolder
	}

	path := b.lockPath(name)
	current, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return types.ErrNotLockHolder
	}
	if err != nil {
		return fmt.Errorf("reading lock file: %w", err)
	}
	if strings.TrimSpace(string(current)) != holder {
		return types.ErrNotLockHolder
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}
