package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/millstone-labs/larder/pkg/types"
)

// priceObs is the per-item aggregate derived from the entry table.
type priceObs struct {
	lastPrice decimal.Decimal
	lastDate  string
	count     int
}

// UpsertEvalLog rebuilds the price evaluation log from the raw entry
// table: one row per canonical item, carrying the most recent observed
// price, the date it was observed, and the total observation count. The
// aggregates are re-derived from scratch on every run, so the log is
// always consistent with the entries regardless of how many times the
// workflow repeats. Rows whose aggregates did not change are not
// rewritten.
//
// Dates are compared as ISO 8601 strings (lexical order is date order).
func (e *Engine) UpsertEvalLog(ctx context.Context, ent types.EntryTable, ev types.EvalTable) (*Summary, error) {
	s := newSummary("evallog", ev.Table)
	err := e.withLock(ctx, "evallog:"+ev.Table, func() error {
		obs, err := e.collectObservations(ctx, ent, s)
		if err != nil {
			return err
		}
		return e.writeEvalLog(ctx, ev, obs, s)
	})
	if err != nil {
		return s, err
	}
	e.finish(ctx, s)
	return s, nil
}

func (e *Engine) collectObservations(ctx context.Context, ent types.EntryTable, s *Summary) (map[string]*priceObs, error) {
	grid, err := e.store.ReadTable(ctx, ent.Table)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ent.Table, err)
	}
	cols, err := grid.Cols(ent.ItemColumn, ent.PriceColumn, ent.DateColumn)
	if err != nil {
		return nil, err
	}
	itemCol, priceCol, dateCol := cols[0], cols[1], cols[2]
	if e.warnEmpty(ctx, s, grid) {
		return map[string]*priceObs{}, nil
	}

	obs := make(map[string]*priceObs)
	for i := range grid.Rows {
		item := types.Canonicalize(grid.Get(i, itemCol))
		if item == "" {
			continue
		}
		raw := grid.Get(i, priceCol)
		date := grid.Get(i, dateCol)
		if types.IsBlank(raw) || types.IsBlank(date) {
			continue
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			s.skip(SkipBadNumber)
			e.event(ctx, s, types.LevelWarn, i+1, "bad_number", raw)
			continue
		}

		o := obs[item]
		if o == nil {
			o = &priceObs{}
			obs[item] = o
		}
		o.count++
		if date >= o.lastDate {
			o.lastDate = date
			o.lastPrice = price
		}
	}
	return obs, nil
}

func (e *Engine) writeEvalLog(ctx context.Context, ev types.EvalTable, obs map[string]*priceObs, s *Summary) error {
	grid, err := e.store.ReadTable(ctx, ev.Table)
	if errors.Is(err, types.ErrTableNotFound) {
		columns := []string{ev.ItemColumn, ev.LastPriceColumn, ev.LastDateColumn, ev.ObservationsColumn, ev.UpdatedAtColumn}
		if err := e.store.CreateTable(ctx, ev.Table, columns); err != nil {
			return fmt.Errorf("creating %s: %w", ev.Table, err)
		}
		grid, err = e.store.ReadTable(ctx, ev.Table)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", ev.Table, err)
	}

	cols, err := grid.Cols(ev.ItemColumn, ev.LastPriceColumn, ev.LastDateColumn, ev.ObservationsColumn, ev.UpdatedAtColumn)
	if err != nil {
		return err
	}
	itemCol, priceCol, dateCol, countCol, updatedCol := cols[0], cols[1], cols[2], cols[3], cols[4]
	now := e.now().Format("2006-01-02 15:04:05")

	seen := make(map[string]bool, len(grid.Rows))
	dirty := false
	for i := range grid.Rows {
		item := types.Canonicalize(grid.Get(i, itemCol))
		if item == "" {
			continue
		}
		seen[item] = true
		o := obs[item]
		if o == nil {
			continue
		}
		price := o.lastPrice.String()
		count := fmt.Sprintf("%d", o.count)
		if grid.Get(i, priceCol) == price && grid.Get(i, dateCol) == o.lastDate && grid.Get(i, countCol) == count {
			continue
		}
		grid.Set(i, priceCol, price)
		grid.Set(i, dateCol, o.lastDate)
		grid.Set(i, countCol, count)
		grid.Set(i, updatedCol, now)
		s.Updated++
		dirty = true
		e.event(ctx, s, types.LevelInfo, i+1, "eval_updated", item)
	}

	// Deterministic append order for new items.
	fresh := make([]string, 0, len(obs))
	for item := range obs {
		if !seen[item] {
			fresh = append(fresh, item)
		}
	}
	sort.Strings(fresh)

	var rows []types.Row
	for _, item := range fresh {
		o := obs[item]
		row := make(types.Row, len(grid.Columns))
		row = row.Set(itemCol, item)
		row = row.Set(priceCol, o.lastPrice.String())
		row = row.Set(dateCol, o.lastDate)
		row = row.Set(countCol, fmt.Sprintf("%d", o.count))
		row = row.Set(updatedCol, now)
		rows = append(rows, row)
		s.Added++
		e.event(ctx, s, types.LevelInfo, 0, "eval_added", item)
	}

	if dirty {
		if err := e.store.WriteRows(ctx, ev.Table, 0, grid.Rows); err != nil {
			return fmt.Errorf("writing %s: %w", ev.Table, err)
		}
	}
	if len(rows) > 0 {
		if err := e.store.AppendRows(ctx, ev.Table, rows); err != nil {
			return fmt.Errorf("appending to %s: %w", ev.Table, err)
		}
	}
	return nil
}
