// Audit journal persistence for the SQLite backend. Append-only from the
// workflows' perspective.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/millstone-labs/larder/pkg/types"
)

// Append writes one audit event.
func (b *Backend) Append(ctx context.Context, e types.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreClosed
	}

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var rowNumber sql.NullInt64
	if e.RowNumber > 0 {
		rowNumber = sql.NullInt64{Int64: int64(e.RowNumber), Valid: true}
	}

	_, err := b.db.ExecContext(ctx, `
		INSERT INTO journal (event_id, execution_id, script, table_name, level, row_number, action, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		newUUID(), e.ExecutionID, e.Script, e.Table, e.Level, rowNumber,
		e.Action, e.Details, createdAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("appending journal event: %w", err)
	}
	return nil
}

// ReadEvents returns an execution's journal events in append order.
func (b *Backend) ReadEvents(ctx context.Context, executionID string) ([]types.Event, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreClosed
	}

	rows, err := b.db.QueryContext(ctx, `
		SELECT script, table_name, level, row_number, action, details, created_at
		FROM journal WHERE execution_id = ? ORDER BY rowid`, executionID)
	if err != nil {
		return nil, fmt.Errorf("reading journal events: %w", err)
	}
	defer rows.Close()

	var events []types.Event
	for rows.Next() {
		var (
			e         types.Event
			rowNumber sql.NullInt64
			createdAt string
		)
		if err := rows.Scan(&e.Script, &e.Table, &e.Level, &rowNumber, &e.Action, &e.Details, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning journal event: %w", err)
		}
		e.ExecutionID = executionID
		if rowNumber.Valid {
			e.RowNumber = int(rowNumber.Int64)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = t
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountEvents returns how many journal events an execution recorded.
func (b *Backend) CountEvents(ctx context.Context, executionID string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0, types.ErrStoreClosed
	}

	var n int
	err := b.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM journal WHERE execution_id = ?`, executionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting journal events: %w", err)
	}
	return n, nil
}
