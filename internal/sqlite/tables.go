// Table operations for the SQLite backend. Cells are stored as a JSON
// string array per row; the header lives on the sheets row.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/millstone-labs/larder/pkg/types"
)

// ReadTable returns the full used range of the named table.
func (b *Backend) ReadTable(ctx context.Context, name string) (*types.Grid, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreClosed
	}

	columns, err := b.tableColumns(ctx, name)
	if err != nil {
		return nil, err
	}

	rows, err := b.db.QueryContext(ctx,
		"SELECT cells FROM sheet_rows WHERE sheet = ? ORDER BY ord", name)
	if err != nil {
		return nil, fmt.Errorf("reading rows of %s: %w", name, err)
	}
	defer rows.Close()

	grid := types.NewGrid(name, columns)
	for rows.Next() {
		var cellsJSON string
		if err := rows.Scan(&cellsJSON); err != nil {
			return nil, fmt.Errorf("scanning row of %s: %w", name, err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(cellsJSON), &cells); err != nil {
			return nil, fmt.Errorf("parsing row of %s: %w", name, err)
		}
		grid.AppendRow(types.Row(cells))
	}
	return grid, rows.Err()
}

// CreateTable creates an empty table with the given header.
func (b *Backend) CreateTable(ctx context.Context, name string, columns []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreClosed
	}

	var exists int
	err := b.db.QueryRowContext(ctx,
		"SELECT 1 FROM sheets WHERE name = ?", name).Scan(&exists)
	if err == nil {
		return fmt.Errorf("table %s: %w", name, types.ErrTableExists)
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("checking table %s: %w", name, err)
	}

	columnsJSON, err := json.Marshal(columns)
	if err != nil {
		return fmt.Errorf("marshaling columns of %s: %w", name, err)
	}
	_, err = b.db.ExecContext(ctx,
		"INSERT INTO sheets (name, columns, created_at) VALUES (?, ?, ?)",
		name, string(columnsJSON), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("creating table %s: %w", name, err)
	}
	return nil
}

// AppendRows adds rows after the current last data row, in one transaction.
func (b *Backend) AppendRows(ctx context.Context, name string, rows []types.Row) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreClosed
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := b.tableColumns(ctx, name); err != nil {
		return err
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning append: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(ord) + 1, 0) FROM sheet_rows WHERE sheet = ?", name).Scan(&next); err != nil {
		return fmt.Errorf("finding last row of %s: %w", name, err)
	}

	for i, r := range rows {
		cellsJSON, err := json.Marshal([]string(r))
		if err != nil {
			return fmt.Errorf("marshaling row for %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO sheet_rows (sheet, ord, cells) VALUES (?, ?, ?)",
			name, next+i, string(cellsJSON)); err != nil {
			return fmt.Errorf("appending row to %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// WriteRows overwrites a contiguous band of data rows starting at the given
// 0-based index, in one transaction.
func (b *Backend) WriteRows(ctx context.Context, name string, startRow int, rows []types.Row) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreClosed
	}
	if startRow < 0 {
		return types.ErrRowOutOfRange
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := b.tableColumns(ctx, name); err != nil {
		return err
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning write: %w", err)
	}
	defer tx.Rollback()

	for i, r := range rows {
		cellsJSON, err := json.Marshal([]string(r))
		if err != nil {
			return fmt.Errorf("marshaling row for %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sheet_rows (sheet, ord, cells)
			VALUES (?, ?, ?)
			ON CONFLICT(sheet, ord) DO UPDATE SET cells = excluded.cells`,
			name, startRow+i, string(cellsJSON)); err != nil {
			return fmt.Errorf("writing row %d of %s: %w", startRow+i, name, err)
		}
	}
	return tx.Commit()
}

// ClearRow blanks every cell of one data row, preserving the row position.
func (b *Backend) ClearRow(ctx context.Context, name string, rowIndex int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreClosed
	}

	columns, err := b.tableColumns(ctx, name)
	if err != nil {
		return err
	}

	blanks := make([]string, len(columns))
	cellsJSON, err := json.Marshal(blanks)
	if err != nil {
		return fmt.Errorf("marshaling blank row: %w", err)
	}

	res, err := b.db.ExecContext(ctx,
		"UPDATE sheet_rows SET cells = ? WHERE sheet = ? AND ord = ?",
		string(cellsJSON), name, rowIndex)
	if err != nil {
		return fmt.Errorf("clearing row %d of %s: %w", rowIndex, name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("table %s row %d: %w", name, rowIndex, types.ErrRowOutOfRange)
	}
	return nil
}

// tableColumns loads the header of a table, or ErrTableNotFound. The caller
// must hold b.mu.
func (b *Backend) tableColumns(ctx context.Context, name string) ([]string, error) {
	var columnsJSON string
	err := b.db.QueryRowContext(ctx,
		"SELECT columns FROM sheets WHERE name = ?", name).Scan(&columnsJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("table %s: %w", name, types.ErrTableNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up table %s: %w", name, err)
	}
	var columns []string
	if err := json.Unmarshal([]byte(columnsJSON), &columns); err != nil {
		return nil, fmt.Errorf("parsing columns of %s: %w", name, err)
	}
	return columns, nil
}
