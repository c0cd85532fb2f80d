package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/millstone-labs/larder/pkg/types"
)

// Cleanup reconciles orphaned identifiers in a lookup's master table.
// The master is loose: a row whose name was deleted keeps its position,
// but its identifier cells are cleared so the id cannot be mistaken for
// a live mapping. Rows with a name, or without any identifier, are left
// alone.
func (e *Engine) Cleanup(ctx context.Context, lk types.Lookup) (*Summary, error) {
	if err := lk.Validate(); err != nil {
		return nil, err
	}
	s := newSummary("cleanup", lk.MasterTable)
	err := e.withLock(ctx, "cleanup:"+lk.Key, func() error {
		grid, err := e.store.ReadTable(ctx, lk.MasterTable)
		if err != nil {
			return fmt.Errorf("reading %s: %w", lk.MasterTable, err)
		}
		idCol, err := grid.Col(lk.IDColumn)
		if err != nil {
			return err
		}
		nameCol, err := grid.Col(lk.NameColumn)
		if err != nil {
			return err
		}
		humanCol := -1
		if lk.HumanIDColumn != "" {
			if c, err := grid.Col(lk.HumanIDColumn); err == nil {
				humanCol = c
			}
		}
		if e.warnEmpty(ctx, s, grid) {
			return nil
		}

		dirty := false
		for i := range grid.Rows {
			if !types.IsBlank(grid.Get(i, nameCol)) {
				continue
			}
			orphaned := grid.Get(i, idCol)
			if types.IsBlank(orphaned) && (humanCol < 0 || types.IsBlank(grid.Get(i, humanCol))) {
				continue
			}
			grid.Set(i, idCol, "")
			if humanCol >= 0 {
				grid.Set(i, humanCol, "")
			}
			s.Cleared++
			dirty = true
			e.event(ctx, s, types.LevelWarn, i+1, "orphan_cleared", orphaned)
		}

		if dirty {
			if err := e.store.WriteRows(ctx, lk.MasterTable, 0, grid.Rows); err != nil {
				return fmt.Errorf("writing %s: %w", lk.MasterTable, err)
			}
		}
		return nil
	})
	if err != nil {
		return s, err
	}
	e.finish(ctx, s)
	return s, nil
}

// CleanupEntries reconciles the raw entry table, which is strict: a row
// is either complete or it is noise. A row whose natural key is only
// partially filled, or that carries nothing but a stale identifier, is
// snapshotted to the journal and then blanked in place. Fully keyed rows
// and fully blank rows survive untouched.
func (e *Engine) CleanupEntries(ctx context.Context, ent types.EntryTable) (*Summary, error) {
	s := newSummary("cleanup", ent.Table)
	err := e.withLock(ctx, "cleanup:"+ent.Table, func() error {
		grid, err := e.store.ReadTable(ctx, ent.Table)
		if err != nil {
			return fmt.Errorf("reading %s: %w", ent.Table, err)
		}
		idCol, err := grid.Col(ent.IDColumn)
		if err != nil {
			return err
		}
		keyCols, err := grid.Cols(ent.KeyColumns...)
		if err != nil {
			return err
		}
		if e.warnEmpty(ctx, s, grid) {
			return nil
		}

		for i := range grid.Rows {
			filled := countFilled(grid, i, keyCols)
			hasID := !types.IsBlank(grid.Get(i, idCol))

			partial := filled > 0 && filled < len(keyCols)
			staleID := filled == 0 && hasID
			if !partial && !staleID {
				continue
			}

			snapshot := rowSnapshot(grid, i)
			if err := e.store.ClearRow(ctx, ent.Table, i); err != nil {
				return fmt.Errorf("clearing row %d of %s: %w", i+1, ent.Table, err)
			}
			s.Cleared++
			e.event(ctx, s, types.LevelWarn, i+1, "row_cleared", snapshot)
		}
		return nil
	})
	if err != nil {
		return s, err
	}
	e.finish(ctx, s)
	return s, nil
}

// rowSnapshot serializes one row as a column→value JSON object for the
// audit trail, blanks omitted.
func rowSnapshot(g *types.Grid, i int) string {
	m := make(map[string]string)
	for c, name := range g.Columns {
		if v := g.Get(i, c); !types.IsBlank(v) {
			m[name] = v
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprintf("%v", m)
	}
	return string(b)
}
