// Package workbook implements the xlsx-backed tabular store for larder
// using excelize. Each table is a sheet whose first row is the header;
// counters and the audit journal are plain sheets in the same workbook,
// and advisory locks are lock files next to it.
package workbook

import (
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/millstone-labs/larder/pkg/types"
)

// Sheets the backend maintains for its own bookkeeping.
const (
	countersSheet = "Counters"
	journalSheet  = "Journal"
)

// Backend implements the Store, Locker, CounterStore, and Journal
// interfaces over a single xlsx workbook. Every bulk mutation saves the
// file, so a crashed run leaves at most one bulk write unflushed.
type Backend struct {
	mu       sync.Mutex
	attached bool
	config   types.Config
	f        *excelize.File
}

var (
	_ types.Store        = (*Backend)(nil)
	_ types.Locker       = (*Backend)(nil)
	_ types.CounterStore = (*Backend)(nil)
	_ types.Journal      = (*Backend)(nil)
)

// NewBackend creates a new workbook backend instance. The backend is not
// attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens the workbook at config.WorkbookPath, creating it when
// absent. Returns ErrAlreadyOpen if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyOpen
	}
	if err := config.Validate(); err != nil {
		return err
	}

	if _, err := os.Stat(config.WorkbookPath); err == nil {
		f, err := excelize.OpenFile(config.WorkbookPath)
		if err != nil {
			return fmt.Errorf("opening workbook: %w", err)
		}
		b.f = f
	} else if os.IsNotExist(err) {
		b.f = excelize.NewFile()
		if err := b.f.SaveAs(config.WorkbookPath); err != nil {
			return fmt.Errorf("creating workbook: %w", err)
		}
	} else {
		return fmt.Errorf("checking workbook: %w", err)
	}

	b.config = config
	b.attached = true
	return nil
}

// Detach closes the workbook. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.f != nil {
		if err := b.f.Close(); err != nil {
			return err
		}
		b.f = nil
	}
	b.attached = false
	return nil
}

// sheetIndex resolves a sheet name, -1 when absent. The caller must hold
// b.mu.
func (b *Backend) sheetIndex(name string) (int, error) {
	idx, err := b.f.GetSheetIndex(name)
	if err != nil {
		return -1, fmt.Errorf("resolving sheet %s: %w", name, err)
	}
	return idx, nil
}

// save flushes the in-memory workbook to disk. The caller must hold b.mu.
func (b *Backend) save() error {
	if err := b.f.Save(); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

// setRow writes one sheet row (1-based) from a types.Row. The caller must
// hold b.mu.
func (b *Backend) setRow(sheet string, rowNum int, r types.Row) error {
	cells := make([]interface{}, len(r))
	for i, c := range r {
		cells[i] = c
	}
	anchor, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("computing cell name: %w", err)
	}
	if err := b.f.SetSheetRow(sheet, anchor, &cells); err != nil {
		return fmt.Errorf("writing row %d of %s: %w", rowNum, sheet, err)
	}
	return nil
}
