package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millstone-labs/larder/pkg/types"
)

func TestCleanupClearsOrphanedIDs(t *testing.T) {
	e, b := newTestEngine(t)
	lk := itemsLookup()
	seedLookupTables(t, b, lk, types.DefaultEntryTable())
	ctx := context.Background()

	require.NoError(t, b.AppendRows(ctx, lk.MasterTable, []types.Row{
		{"id-1", "ITM-000001", "Milk", "milk", "TRUE", "", ""},
		{"id-2", "ITM-000002", "", "", "", "", ""}, // name deleted, id orphaned
		{"", "", "", "", "", "", ""},               // fully blank, untouched
		{"", "ITM-000004", "", "", "", "", ""},     // only human id left
	}))

	s, err := e.Cleanup(ctx, lk)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Cleared)

	grid, err := b.ReadTable(ctx, lk.MasterTable)
	require.NoError(t, err)
	assert.Equal(t, "id-1", cell(t, grid, 0, lk.IDColumn))
	assert.Equal(t, "", cell(t, grid, 1, lk.IDColumn))
	assert.Equal(t, "", cell(t, grid, 1, lk.HumanIDColumn))
	assert.Equal(t, "", cell(t, grid, 3, lk.HumanIDColumn))
	require.Len(t, grid.Rows, 4, "rows keep their positions")

	// Idempotent: nothing left to clear.
	s, err = e.Cleanup(ctx, lk)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Cleared)
}

func TestCleanupEntriesStrict(t *testing.T) {
	e, b := newTestEngine(t)
	ent := types.DefaultEntryTable()
	ctx := context.Background()
	require.NoError(t, b.CreateTable(ctx, ent.Table, ent.Columns()))

	require.NoError(t, b.AppendRows(ctx, ent.Table, []types.Row{
		{"e1", "2026-03-01", "Milk", "2", "l", "1.89"}, // complete, survives
		{"", "2026-03-01", "Bread", "", "", ""},        // partial key, cleared
		{"e3", "", "", "", "", ""},                     // stale id only, cleared
		{"", "", "", "", "", ""},                       // fully blank, survives
		{"", "", "", "", "", "3.20"},                   // single stray cell, cleared
	}))

	s, err := e.CleanupEntries(ctx, ent)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Cleared)

	grid, err := b.ReadTable(ctx, ent.Table)
	require.NoError(t, err)
	require.Len(t, grid.Rows, 5, "cleared rows keep their positions")
	assert.Equal(t, "e1", cell(t, grid, 0, ent.IDColumn))
	for _, row := range []int{1, 2, 4} {
		for c := range grid.Columns {
			assert.Empty(t, grid.Get(row, c), "row %d col %d", row, c)
		}
	}

	// Idempotent: cleared rows are now fully blank and survive.
	s, err = e.CleanupEntries(ctx, ent)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Cleared)
}

func TestCleanupEntriesSnapshotsToJournal(t *testing.T) {
	e, b := newTestEngine(t)
	ent := types.DefaultEntryTable()
	ctx := context.Background()
	require.NoError(t, b.CreateTable(ctx, ent.Table, ent.Columns()))

	require.NoError(t, b.AppendRows(ctx, ent.Table, []types.Row{
		{"", "2026-03-01", "Bread", "", "", ""},
	}))

	_, err := e.CleanupEntries(ctx, ent)
	require.NoError(t, err)

	n, err := b.CountEvents(ctx, e.ExecutionID())
	require.NoError(t, err)
	// One row_cleared event plus the run summary.
	assert.Equal(t, 2, n)
}
