// Counter and journal sheets for the workbook backend. Both are ordinary
// sheets created on first use.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/millstone-labs/larder/pkg/types"
)

var countersColumns = []string{"key", "value", "updated_at"}

var journalColumns = []string{
	"event_id", "execution_id", "script", "table_name",
	"level", "row_number", "action", "details", "created_at",
}

// ensureSheetLocked creates a bookkeeping sheet if absent. The caller must
// hold b.mu.
func (b *Backend) ensureSheetLocked(name string, columns []string) error {
	err := b.createTableLocked(name, columns)
	if err != nil && !errors.Is(err, types.ErrTableExists) {
		return err
	}
	return nil
}

// GetCounter returns the current value for key, 0 when the key is unknown.
func (b *Backend) GetCounter(key string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return 0, types.ErrStoreClosed
	}
	if err := b.ensureSheetLocked(countersSheet, countersColumns); err != nil {
		return 0, err
	}
	grid, err := b.readTableLocked(countersSheet)
	if err != nil {
		return 0, err
	}
	for i := range grid.Rows {
		if grid.Get(i, 0) != key {
			continue
		}
		v, err := strconv.ParseInt(grid.Get(i, 1), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("counter %s: bad value %q: %w", key, grid.Get(i, 1), err)
		}
		return v, nil
	}
	return 0, nil
}

// SetCounter persists the value for key, updating in place or appending.
func (b *Backend) SetCounter(key string, value int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreClosed
	}
	if err := b.ensureSheetLocked(countersSheet, countersColumns); err != nil {
		return err
	}
	grid, err := b.readTableLocked(countersSheet)
	if err != nil {
		return err
	}

	row := types.Row{key, strconv.FormatInt(value, 10), time.Now().UTC().Format(time.RFC3339)}
	for i := range grid.Rows {
		if grid.Get(i, 0) == key {
			if err := b.setRow(countersSheet, i+2, row); err != nil {
				return err
			}
			return b.save()
		}
	}
	if err := b.setRow(countersSheet, len(grid.Rows)+2, row); err != nil {
		return err
	}
	return b.save()
}

// Append writes one audit event to the journal sheet.
func (b *Backend) Append(ctx context.Context, e types.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreClosed
	}
	if err := b.ensureSheetLocked(journalSheet, journalColumns); err != nil {
		return err
	}

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	rowNumber := ""
	if e.RowNumber > 0 {
		rowNumber = strconv.Itoa(e.RowNumber)
	}

	grid, err := b.readTableLocked(journalSheet)
	if err != nil {
		return err
	}
	row := types.Row{
		newUUID(), e.ExecutionID, e.Script, e.Table,
		e.Level, rowNumber, e.Action, e.Details,
		createdAt.Format(time.RFC3339),
	}
	if err := b.setRow(journalSheet, len(grid.Rows)+2, row); err != nil {
		return err
	}
	return b.save()
}
