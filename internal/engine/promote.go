package engine

import (
	"context"
	"fmt"

	"github.com/millstone-labs/larder/pkg/types"
)

// Promote moves approved staging rows into a lookup's master table. Each
// staging row is checked in order: not approved, already promoted (a
// hard stop, regardless of any other cell), no usable name. The promoted
// name is the approved spelling when the reviewer supplied one and the
// entered spelling otherwise. A canonical name already present in the
// master maps to the existing row instead of creating a duplicate.
//
// New master rows are appended before the staging flags are written
// back. If a run dies between the two writes, the rerun finds the name
// already in the master and simply completes the mapping, so a staging
// row is promoted at most once.
func (e *Engine) Promote(ctx context.Context, lk types.Lookup) (*Summary, error) {
	if err := lk.Validate(); err != nil {
		return nil, err
	}
	s := newSummary("promote", lk.StagingTable)
	err := e.withLock(ctx, "promote:"+lk.Key, func() error {
		return e.promote(ctx, lk, s)
	})
	if err != nil {
		return s, err
	}
	e.finish(ctx, s)
	return s, nil
}

func (e *Engine) promote(ctx context.Context, lk types.Lookup, s *Summary) error {
	staging, err := e.store.ReadTable(ctx, lk.StagingTable)
	if err != nil {
		return fmt.Errorf("reading %s: %w", lk.StagingTable, err)
	}
	master, err := e.store.ReadTable(ctx, lk.MasterTable)
	if err != nil {
		return fmt.Errorf("reading %s: %w", lk.MasterTable, err)
	}

	stCols, err := staging.Cols(
		lk.CanonicalNameColumn, lk.EnteredNameColumn, lk.ApprovedNameColumn,
		lk.ApprovedColumn, lk.LookupPromotedColumn, lk.MappedIDColumn,
		lk.ReviewStatusColumn, lk.StagingNotesColumn)
	if err != nil {
		return err
	}
	stCanonical, stEntered, stApprovedName := stCols[0], stCols[1], stCols[2]
	stApproved, stPromoted, stMapped := stCols[3], stCols[4], stCols[5]
	stStatus, stNotes := stCols[6], stCols[7]

	mCols, err := master.Cols(lk.IDColumn, lk.NameColumn, lk.CanonicalColumn,
		lk.ActiveColumn, lk.PromotedFlagColumn, lk.NotesColumn)
	if err != nil {
		return err
	}
	mID, mName, mCanonical := mCols[0], mCols[1], mCols[2]
	mActive, mPromotedFlag, mNotes := mCols[3], mCols[4], mCols[5]

	if e.warnEmpty(ctx, s, staging) {
		return nil
	}

	mHuman := -1
	var counter int64
	consumed := false
	if lk.HasHumanID() {
		mHuman, err = master.Col(lk.HumanIDColumn)
		if err != nil {
			return err
		}
		counter, err = e.counters.GetCounter(lk.CounterKey)
		if err != nil {
			return fmt.Errorf("reading counter %s: %w", lk.CounterKey, err)
		}
	}

	// Existing master rows, keyed by canonical name.
	masterIDs := make(map[string]string, len(master.Rows))
	for i := range master.Rows {
		key := types.Canonicalize(master.Get(i, mCanonical))
		if key == "" {
			key = types.Canonicalize(master.Get(i, mName))
		}
		if key != "" && !types.IsBlank(master.Get(i, mID)) {
			masterIDs[key] = master.Get(i, mID)
		}
	}

	var appended []types.Row
	stagingDirty := false
	for i := range staging.Rows {
		if !types.ParseBool(staging.Get(i, stApproved)) {
			s.skip(SkipNotApproved)
			continue
		}
		if types.ParseBool(staging.Get(i, stPromoted)) {
			s.skip(SkipAlreadyPromoted)
			continue
		}
		name := staging.Get(i, stApprovedName)
		if types.IsBlank(name) {
			name = staging.Get(i, stEntered)
		}
		if types.IsBlank(name) {
			s.skip(SkipNoName)
			e.event(ctx, s, types.LevelWarn, i+1, "no_name", "approved row has no usable name")
			continue
		}
		canonical := types.Canonicalize(staging.Get(i, stCanonical))
		if canonical == "" {
			canonical = types.Canonicalize(name)
		}

		id, exists := masterIDs[canonical]
		if !exists {
			id = e.newID()
			masterIDs[canonical] = id

			row := make(types.Row, len(master.Columns))
			row = row.Set(mID, id)
			row = row.Set(mName, name)
			row = row.Set(mCanonical, canonical)
			row = row.Set(mActive, types.FormatBool(true))
			row = row.Set(mPromotedFlag, types.FormatBool(true))
			row = row.Set(mNotes, e.note(fmt.Sprintf("promoted from %s", lk.StagingTable)))
			if mHuman >= 0 {
				counter++
				consumed = true
				row = row.Set(mHuman, formatHumanID(lk, counter))
				s.HumanAssigned++
			}
			appended = append(appended, row)
			s.Added++
		}

		staging.Set(i, stMapped, id)
		staging.Set(i, stPromoted, types.FormatBool(true))
		staging.Set(i, stStatus, types.ReviewPromoted)
		staging.Set(i, stNotes, appendNote(staging.Get(i, stNotes), e.note("promoted")))
		stagingDirty = true
		s.Promoted++
		e.event(ctx, s, types.LevelInfo, i+1, "promoted", fmt.Sprintf("%s -> %s", canonical, id))
	}

	if len(appended) > 0 {
		if err := e.store.AppendRows(ctx, lk.MasterTable, appended); err != nil {
			return fmt.Errorf("appending to %s: %w", lk.MasterTable, err)
		}
	}
	if consumed {
		if err := e.counters.SetCounter(lk.CounterKey, counter); err != nil {
			return fmt.Errorf("writing counter %s: %w", lk.CounterKey, err)
		}
	}
	if stagingDirty {
		if err := e.store.WriteRows(ctx, lk.StagingTable, 0, staging.Rows); err != nil {
			return fmt.Errorf("writing %s: %w", lk.StagingTable, err)
		}
	}
	return nil
}
