package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millstone-labs/larder/pkg/types"
)

// Staging rows: staging_id, canonical_name, entered_name, approved_name,
// is_approved, is_lookup_promoted, item_id, review_status, notes.
func stagingRow(id, canonical, entered, approved string, isApproved, isPromoted, mapped string) types.Row {
	return types.Row{id, canonical, entered, approved, isApproved, isPromoted, mapped, "Pending", ""}
}

func TestPromoteAppendsMasterRow(t *testing.T) {
	e, b := newTestEngine(t)
	lk := itemsLookup()
	seedLookupTables(t, b, lk, types.DefaultEntryTable())
	ctx := context.Background()

	require.NoError(t, b.SetCounter(lk.CounterKey, 41))
	require.NoError(t, b.AppendRows(ctx, lk.StagingTable, []types.Row{
		stagingRow("st-1", "milk", "Milk (1L)", "", "TRUE", "FALSE", ""),
		stagingRow("st-2", "bread", "bread", "", "FALSE", "FALSE", ""),
	}))

	s, err := e.Promote(ctx, lk)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Promoted)
	assert.Equal(t, 1, s.Added)
	assert.Equal(t, 1, s.Skips[SkipNotApproved])

	master, err := b.ReadTable(ctx, lk.MasterTable)
	require.NoError(t, err)
	require.Len(t, master.Rows, 1)
	assert.Equal(t, "Milk (1L)", cell(t, master, 0, lk.NameColumn))
	assert.Equal(t, "milk", cell(t, master, 0, lk.CanonicalColumn))
	assert.Equal(t, "TRUE", cell(t, master, 0, lk.ActiveColumn))
	assert.Equal(t, "TRUE", cell(t, master, 0, lk.PromotedFlagColumn))
	assert.Equal(t, "ITM-000042", cell(t, master, 0, lk.HumanIDColumn))

	staging, err := b.ReadTable(ctx, lk.StagingTable)
	require.NoError(t, err)
	assert.Equal(t, cell(t, master, 0, lk.IDColumn), cell(t, staging, 0, lk.MappedIDColumn))
	assert.Equal(t, "TRUE", cell(t, staging, 0, lk.LookupPromotedColumn))
	assert.Equal(t, types.ReviewPromoted, cell(t, staging, 0, lk.ReviewStatusColumn))
	assert.Equal(t, "", cell(t, staging, 1, lk.MappedIDColumn), "unapproved row untouched")
}

func TestPromoteExactlyOnce(t *testing.T) {
	e, b := newTestEngine(t)
	lk := itemsLookup()
	seedLookupTables(t, b, lk, types.DefaultEntryTable())
	ctx := context.Background()

	require.NoError(t, b.AppendRows(ctx, lk.StagingTable, []types.Row{
		stagingRow("st-1", "milk", "Milk", "", "TRUE", "FALSE", ""),
	}))

	s, err := e.Promote(ctx, lk)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Promoted)

	s, err = e.Promote(ctx, lk)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Promoted)
	assert.Equal(t, 1, s.Skips[SkipAlreadyPromoted])

	master, err := b.ReadTable(ctx, lk.MasterTable)
	require.NoError(t, err)
	require.Len(t, master.Rows, 1, "no duplicate master row")
}

func TestPromotePromotedFlagIsHardStop(t *testing.T) {
	e, b := newTestEngine(t)
	lk := itemsLookup()
	seedLookupTables(t, b, lk, types.DefaultEntryTable())
	ctx := context.Background()

	// Promoted flag set but mapped id missing: the flag wins, the row is
	// never reprocessed.
	require.NoError(t, b.AppendRows(ctx, lk.StagingTable, []types.Row{
		stagingRow("st-1", "milk", "Milk", "", "TRUE", "TRUE", ""),
	}))

	s, err := e.Promote(ctx, lk)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Promoted)
	assert.Equal(t, 1, s.Skips[SkipAlreadyPromoted])

	master, err := b.ReadTable(ctx, lk.MasterTable)
	require.NoError(t, err)
	assert.Empty(t, master.Rows)
}

func TestPromoteApprovedNameWins(t *testing.T) {
	e, b := newTestEngine(t)
	lk := itemsLookup()
	seedLookupTables(t, b, lk, types.DefaultEntryTable())
	ctx := context.Background()

	require.NoError(t, b.AppendRows(ctx, lk.StagingTable, []types.Row{
		stagingRow("st-1", "milk", "milk 1l", "Whole Milk 1L", "TRUE", "FALSE", ""),
	}))

	_, err := e.Promote(ctx, lk)
	require.NoError(t, err)

	master, err := b.ReadTable(ctx, lk.MasterTable)
	require.NoError(t, err)
	assert.Equal(t, "Whole Milk 1L", cell(t, master, 0, lk.NameColumn))
}

func TestPromoteMapsToExistingMasterRow(t *testing.T) {
	e, b := newTestEngine(t)
	lk := itemsLookup()
	seedLookupTables(t, b, lk, types.DefaultEntryTable())
	ctx := context.Background()

	require.NoError(t, b.AppendRows(ctx, lk.MasterTable, []types.Row{
		{"id-milk", "ITM-000001", "Milk", "milk", "TRUE", "FALSE", ""},
	}))
	// Approved but unmarked, as after a run that died between the master
	// append and the staging write-back.
	require.NoError(t, b.AppendRows(ctx, lk.StagingTable, []types.Row{
		stagingRow("st-1", "milk", "Milk", "", "TRUE", "FALSE", ""),
	}))

	s, err := e.Promote(ctx, lk)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Promoted)
	assert.Equal(t, 0, s.Added, "existing canonical name reuses the master row")

	master, err := b.ReadTable(ctx, lk.MasterTable)
	require.NoError(t, err)
	require.Len(t, master.Rows, 1)

	staging, err := b.ReadTable(ctx, lk.StagingTable)
	require.NoError(t, err)
	assert.Equal(t, "id-milk", cell(t, staging, 0, lk.MappedIDColumn))
	assert.Equal(t, "TRUE", cell(t, staging, 0, lk.LookupPromotedColumn))
}

func TestPromoteApprovedRowWithoutName(t *testing.T) {
	e, b := newTestEngine(t)
	lk := itemsLookup()
	seedLookupTables(t, b, lk, types.DefaultEntryTable())
	ctx := context.Background()

	require.NoError(t, b.AppendRows(ctx, lk.StagingTable, []types.Row{
		stagingRow("st-1", "", "", "", "TRUE", "FALSE", ""),
	}))

	s, err := e.Promote(ctx, lk)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Promoted)
	assert.Equal(t, 1, s.Skips[SkipNoName])
}
