package engine

import (
	"context"
	"fmt"

	"github.com/millstone-labs/larder/pkg/types"
)

// Intake scans a lookup's source table for names that have not been seen
// before and appends one staging row per new canonical name. Dedup is
// first-seen-wins: the first source row to mention a canonical name
// contributes the entered spelling that reviewers will see; later rows
// with the same canonical name are skipped, both against existing
// staging rows and within a single run.
func (e *Engine) Intake(ctx context.Context, lk types.Lookup) (*Summary, error) {
	if err := lk.Validate(); err != nil {
		return nil, err
	}
	s := newSummary("intake", lk.StagingTable)
	err := e.withLock(ctx, "intake:"+lk.Key, func() error {
		staging, err := e.store.ReadTable(ctx, lk.StagingTable)
		if err != nil {
			return fmt.Errorf("reading %s: %w", lk.StagingTable, err)
		}
		source, err := e.store.ReadTable(ctx, lk.SourceTable)
		if err != nil {
			return fmt.Errorf("reading %s: %w", lk.SourceTable, err)
		}

		stCols, err := staging.Cols(
			lk.StagingIDColumn, lk.CanonicalNameColumn, lk.EnteredNameColumn,
			lk.ApprovedNameColumn, lk.ApprovedColumn, lk.LookupPromotedColumn,
			lk.MappedIDColumn, lk.ReviewStatusColumn, lk.StagingNotesColumn)
		if err != nil {
			return err
		}
		srcCols, err := source.Cols(lk.SourceIDColumn, lk.SourceNameColumn, lk.SourceMappedColumn)
		if err != nil {
			return err
		}
		srcID, srcName, srcMapped := srcCols[0], srcCols[1], srcCols[2]
		if e.warnEmpty(ctx, s, source) {
			return nil
		}

		// The canonical column on the source is optional.
		srcCanonical := -1
		if lk.SourceCanonicalColumn != "" {
			if c, err := source.Col(lk.SourceCanonicalColumn); err == nil {
				srcCanonical = c
			}
		}

		staged := make(map[string]bool, len(staging.Rows))
		for i := range staging.Rows {
			key := types.Canonicalize(staging.Get(i, stCols[1]))
			if key == "" {
				key = types.Canonicalize(staging.Get(i, stCols[2]))
			}
			if key != "" {
				staged[key] = true
			}
		}

		var fresh []types.Row
		for i := range source.Rows {
			entered := source.Get(i, srcName)
			canonical := ""
			if srcCanonical >= 0 {
				canonical = types.Canonicalize(source.Get(i, srcCanonical))
			}
			if canonical == "" {
				canonical = types.Canonicalize(entered)
			}

			if types.IsBlank(source.Get(i, srcID)) {
				if canonical != "" {
					s.skip(SkipNoSourceID)
					e.event(ctx, s, types.LevelWarn, i+1, "source_id_missing", entered)
				}
				continue
			}
			if !types.IsBlank(source.Get(i, srcMapped)) {
				s.skip(SkipAlreadyMapped)
				continue
			}
			if canonical == "" {
				s.skip(SkipNoName)
				continue
			}
			if staged[canonical] {
				s.skip(SkipAlreadyStaged)
				continue
			}
			staged[canonical] = true

			row := make(types.Row, len(staging.Columns))
			row = row.Set(stCols[0], e.newID())
			row = row.Set(stCols[1], canonical)
			row = row.Set(stCols[2], entered)
			row = row.Set(stCols[4], types.FormatBool(false))
			row = row.Set(stCols[5], types.FormatBool(false))
			row = row.Set(stCols[7], types.ReviewPending)
			row = row.Set(stCols[8], e.note(fmt.Sprintf("staged from %s", lk.SourceTable)))
			fresh = append(fresh, row)
			s.Staged++
			e.event(ctx, s, types.LevelInfo, i+1, "staged", canonical)
		}

		if len(fresh) > 0 {
			if err := e.store.AppendRows(ctx, lk.StagingTable, fresh); err != nil {
				return fmt.Errorf("appending to %s: %w", lk.StagingTable, err)
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
