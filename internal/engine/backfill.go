package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/millstone-labs/larder/pkg/types"
)

// Backfill assigns missing identifiers in a lookup's master and staging
// tables. Master rows with a name but no machine id get a fresh uuid;
// when humanIDs is set and the lookup defines a human id column, named
// rows without one get the next sequential id. Staging rows with an
// entered name but no staging id get a uuid. Rows that already carry an
// identifier are never touched, so repeated runs are no-ops.
func (e *Engine) Backfill(ctx context.Context, lk types.Lookup, humanIDs bool) (*Summary, error) {
	if err := lk.Validate(); err != nil {
		return nil, err
	}
	s := newSummary("backfill", lk.MasterTable)
	err := e.withLock(ctx, "backfill:"+lk.Key, func() error {
		if err := e.backfillMaster(ctx, lk, humanIDs, s); err != nil {
			return err
		}
		return e.backfillStaging(ctx, lk, s)
	})
	if err != nil {
		return s, err
	}
	e.finish(ctx, s)
	return s, nil
}

func (e *Engine) backfillMaster(ctx context.Context, lk types.Lookup, humanIDs bool, s *Summary) error {
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

	if e.warnEmpty(ctx, s, grid) {
		return nil
	}

	humanCol := -1
	var counter int64
	consumed := false
	if humanIDs && lk.HasHumanID() {
		humanCol, err = grid.Col(lk.HumanIDColumn)
		if err != nil {
			return err
		}
		counter, err = e.counters.GetCounter(lk.CounterKey)
		if err != nil {
			return fmt.Errorf("reading counter %s: %w", lk.CounterKey, err)
		}
	}

	dirty := false
	for i := range grid.Rows {
		if types.IsBlank(grid.Get(i, nameCol)) {
			s.skip(SkipNoName)
			continue
		}
		if types.IsBlank(grid.Get(i, idCol)) {
			grid.Set(i, idCol, e.newID())
			s.Assigned++
			dirty = true
			e.event(ctx, s, types.LevelInfo, i+1, "id_assigned", grid.Get(i, nameCol))
		}
		if humanCol >= 0 && types.IsBlank(grid.Get(i, humanCol)) {
			counter++
			consumed = true
			grid.Set(i, humanCol, formatHumanID(lk, counter))
			s.HumanAssigned++
			dirty = true
			e.event(ctx, s, types.LevelInfo, i+1, "human_id_assigned", grid.Get(i, humanCol))
		}
	}

	if dirty {
		if err := e.store.WriteRows(ctx, lk.MasterTable, 0, grid.Rows); err != nil {
			return fmt.Errorf("writing %s: %w", lk.MasterTable, err)
		}
	}
	if consumed {
		if err := e.counters.SetCounter(lk.CounterKey, counter); err != nil {
			return fmt.Errorf("writing counter %s: %w", lk.CounterKey, err)
		}
	}
	return nil
}

func (e *Engine) backfillStaging(ctx context.Context, lk types.Lookup, s *Summary) error {
	grid, err := e.store.ReadTable(ctx, lk.StagingTable)
	if err != nil {
		return fmt.Errorf("reading %s: %w", lk.StagingTable, err)
	}
	cols, err := grid.Cols(lk.StagingIDColumn, lk.EnteredNameColumn)
	if err != nil {
		return err
	}
	idCol, nameCol := cols[0], cols[1]
	if e.warnEmpty(ctx, s, grid) {
		return nil
	}

	dirty := false
	for i := range grid.Rows {
		if types.IsBlank(grid.Get(i, nameCol)) {
			s.skip(SkipNoName)
			continue
		}
		if !types.IsBlank(grid.Get(i, idCol)) {
			continue
		}
		grid.Set(i, idCol, e.newID())
		s.Assigned++
		dirty = true
		e.event(ctx, s, types.LevelInfo, i+1, "staging_id_assigned", grid.Get(i, nameCol))
	}

	if dirty {
		if err := e.store.WriteRows(ctx, lk.StagingTable, 0, grid.Rows); err != nil {
			return fmt.Errorf("writing %s: %w", lk.StagingTable, err)
		}
	}
	return nil
}

// BackfillEntries assigns identifiers to raw entry rows. An entry earns
// its id only when every natural-key field is present and its numeric
// fields parse; incomplete rows are left for the strict cleanup to
// judge.
func (e *Engine) BackfillEntries(ctx context.Context, ent types.EntryTable) (*Summary, error) {
	s := newSummary("backfill", ent.Table)
	err := e.withLock(ctx, "backfill:"+ent.Table, func() error {
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
		itemCol, err := grid.Col(ent.ItemColumn)
		if err != nil {
			return err
		}
		numCols, err := grid.Cols(ent.QuantityColumn, ent.PriceColumn)
		if err != nil {
			return err
		}
		if e.warnEmpty(ctx, s, grid) {
			return nil
		}

		dirty := false
		for i := range grid.Rows {
			if !types.IsBlank(grid.Get(i, idCol)) {
				continue
			}
			if countFilled(grid, i, keyCols) < len(keyCols) {
				s.skip(SkipIncompleteKey)
				continue
			}
			if bad := badNumber(grid, i, numCols); bad != "" {
				s.skip(SkipBadNumber)
				e.event(ctx, s, types.LevelWarn, i+1, "bad_number", bad)
				continue
			}
			grid.Set(i, idCol, e.newID())
			s.Assigned++
			dirty = true
			e.event(ctx, s, types.LevelInfo, i+1, "id_assigned", grid.Get(i, itemCol))
		}

		if dirty {
			if err := e.store.WriteRows(ctx, ent.Table, 0, grid.Rows); err != nil {
				return fmt.Errorf("writing %s: %w", ent.Table, err)
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

// formatHumanID renders prefix plus zero-padded sequence value.
func formatHumanID(lk types.Lookup, v int64) string {
	pad := lk.HumanIDPad
	if pad <= 0 {
		pad = 6
	}
	return fmt.Sprintf("%s%0*d", lk.HumanIDPrefix, pad, v)
}

// countFilled counts how many of the given columns are non-blank in row i.
func countFilled(g *types.Grid, i int, cols []int) int {
	n := 0
	for _, c := range cols {
		if !types.IsBlank(g.Get(i, c)) {
			n++
		}
	}
	return n
}

// badNumber returns the first cell among cols that fails decimal parsing,
// or "" when all parse. Blank cells are tolerated.
func badNumber(g *types.Grid, i int, cols []int) string {
	for _, c := range cols {
		v := g.Get(i, c)
		if types.IsBlank(v) {
			continue
		}
		if _, err := decimal.NewFromString(v); err != nil {
			return v
		}
	}
	return ""
}
