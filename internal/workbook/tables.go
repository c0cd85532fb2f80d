// Table operations for the workbook backend. The header is sheet row 1;
// data row i (0-based) is sheet row i+2.
package workbook

import (
	"context"
	"fmt"

	"github.com/millstone-labs/larder/pkg/types"
)

// ReadTable returns the full used range of the named sheet.
func (b *Backend) ReadTable(ctx context.Context, name string) (*types.Grid, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readTableLocked(name)
}

func (b *Backend) readTableLocked(name string) (*types.Grid, error) {
	if !b.attached {
		return nil, types.ErrStoreClosed
	}
	idx, err := b.sheetIndex(name)
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, fmt.Errorf("table %s: %w", name, types.ErrTableNotFound)
	}
	rows, err := b.f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", name, err)
	}
	return types.GridFromRows(name, rows), nil
}

// CreateTable adds a sheet with the given header row.
func (b *Backend) CreateTable(ctx context.Context, name string, columns []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.createTableLocked(name, columns)
}

func (b *Backend) createTableLocked(name string, columns []string) error {
	if !b.attached {
		return types.ErrStoreClosed
	}
	idx, err := b.sheetIndex(name)
	if err != nil {
		return err
	}
	if idx >= 0 {
		return fmt.Errorf("table %s: %w", name, types.ErrTableExists)
	}
	if _, err := b.f.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %s: %w", name, err)
	}
	if err := b.setRow(name, 1, types.Row(columns)); err != nil {
		return err
	}
	return b.save()
}

// AppendRows adds rows after the current last data row.
func (b *Backend) AppendRows(ctx context.Context, name string, rows []types.Row) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.appendRowsLocked(name, rows)
}

func (b *Backend) appendRowsLocked(name string, rows []types.Row) error {
	if !b.attached {
		return types.ErrStoreClosed
	}
	if len(rows) == 0 {
		return nil
	}
	grid, err := b.readTableLocked(name)
	if err != nil {
		return err
	}
	next := len(grid.Rows) + 2 // 1-based, after the header
	for i, r := range rows {
		if err := b.setRow(name, next+i, r); err != nil {
			return err
		}
	}
	return b.save()
}

// WriteRows overwrites a contiguous band of data rows starting at the
// given 0-based index.
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
	idx, err := b.sheetIndex(name)
	if err != nil {
		return err
	}
	if idx < 0 {
		return fmt.Errorf("table %s: %w", name, types.ErrTableNotFound)
	}
	for i, r := range rows {
		if err := b.setRow(name, startRow+i+2, r); err != nil {
			return err
		}
	}
	return b.save()
}

// ClearRow blanks every cell of one data row, preserving the row position.
func (b *Backend) ClearRow(ctx context.Context, name string, rowIndex int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	grid, err := b.readTableLocked(name)
	if err != nil {
		return err
	}
	if rowIndex < 0 || rowIndex >= len(grid.Rows) {
		return fmt.Errorf("table %s row %d: %w", name, rowIndex, types.ErrRowOutOfRange)
	}
	blanks := make(types.Row, len(grid.Columns))
	if err := b.setRow(name, rowIndex+2, blanks); err != nil {
		return err
	}
	return b.save()
}
