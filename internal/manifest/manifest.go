// Package manifest exports a workbook describing the store's tables: an
// overview sheet with per-table row counts plus one sheet per table
// listing its columns. The manifest is a review aid, not a backup; it
// carries structure, not data.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/millstone-labs/larder/pkg/types"
)

const overviewSheet = "Overview"

// Export writes the manifest for the named tables to an xlsx file at
// path. Tables missing from the store are recorded as absent rather than
// failing the export.
func Export(ctx context.Context, store types.Store, tables []string, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", overviewSheet); err != nil {
		return fmt.Errorf("naming overview sheet: %w", err)
	}
	if err := setRow(f, overviewSheet, 1, []string{"table", "status", "rows", "columns", "exported_at"}); err != nil {
		return err
	}

	exportedAt := time.Now().UTC().Format(time.RFC3339)
	for i, table := range tables {
		grid, err := store.ReadTable(ctx, table)
		if errors.Is(err, types.ErrTableNotFound) {
			if err := setRow(f, overviewSheet, i+2, []string{table, "absent", "", "", exportedAt}); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", table, err)
		}

		row := []string{table, "present", fmt.Sprintf("%d", len(grid.Rows)), fmt.Sprintf("%d", len(grid.Columns)), exportedAt}
		if err := setRow(f, overviewSheet, i+2, row); err != nil {
			return err
		}
		if err := addTableSheet(f, table, grid); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}
	return nil
}

// addTableSheet writes one sheet per table: the column names in order,
// one per row.
func addTableSheet(f *excelize.File, table string, grid *types.Grid) error {
	name := sheetName(table)
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %s: %w", name, err)
	}
	if err := setRow(f, name, 1, []string{"position", "column"}); err != nil {
		return err
	}
	for i, col := range grid.Columns {
		if err := setRow(f, name, i+2, []string{fmt.Sprintf("%d", i+1), col}); err != nil {
			return err
		}
	}
	return nil
}

// sheetName keeps table names inside the 31-char xlsx sheet name limit.
func sheetName(table string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, table)
	if len(safe) > 31 {
		safe = safe[:31]
	}
	return safe
}

func setRow(f *excelize.File, sheet string, rowNum int, cells []string) error {
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	anchor, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("computing cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, anchor, &values); err != nil {
		return fmt.Errorf("writing row %d of %s: %w", rowNum, sheet, err)
	}
	return nil
}
