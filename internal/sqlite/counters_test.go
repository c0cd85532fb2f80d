package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millstone-labs/larder/pkg/types"
)

func TestCounterDefaultsToZero(t *testing.T) {
	b := newTestBackend(t)

	v, err := b.GetCounter("items")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestCounterRoundTrip(t *testing.T) {
	b := newTestBackend(t)

	require.NoError(t, b.SetCounter("items", 41))
	require.NoError(t, b.SetCounter("brands", 7))

	v, err := b.GetCounter("items")
	require.NoError(t, err)
	assert.Equal(t, int64(41), v)

	require.NoError(t, b.SetCounter("items", 43))
	v, err = b.GetCounter("items")
	require.NoError(t, err)
	assert.Equal(t, int64(43), v)
}

func TestJournalAppend(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	e := types.Event{
		ExecutionID: "exec-1",
		Script:      "promote",
		Table:       "Items_Staging",
		Level:       types.LevelInfo,
		RowNumber:   3,
		Action:      "promoted",
		Details:     "Milk -> id-1",
	}
	require.NoError(t, b.Append(ctx, e))

	// Row-agnostic events are valid too.
	e.RowNumber = 0
	require.NoError(t, b.Append(ctx, e))

	var count int
	require.NoError(t, b.db.QueryRow(
		"SELECT COUNT(*) FROM journal WHERE execution_id = ?", "exec-1").Scan(&count))
	assert.Equal(t, 2, count)
}
