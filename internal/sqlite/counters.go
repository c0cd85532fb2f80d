// Counter persistence for the SQLite backend. Counters back the
// human-readable identifier sequences; they only ever move forward.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/millstone-labs/larder/pkg/types"
)

// GetCounter returns the current value for key, 0 when the key is unknown.
func (b *Backend) GetCounter(key string) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0, types.ErrStoreClosed
	}

	var value int64
	err := b.db.QueryRow(
		"SELECT value FROM counters WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading counter %s: %w", key, err)
	}
	return value, nil
}

// SetCounter persists the value for key.
func (b *Backend) SetCounter(key string, value int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreClosed
	}

	_, err := b.db.Exec(`
		INSERT INTO counters (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing counter %s: %w", key, err)
	}
	return nil
}
