package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridColumnResolution(t *testing.T) {
	g := GridFromRows("Items", [][]string{
		{"item_id", "name", "is_active"},
		{"", "Milk", "TRUE"},
	})

	idx, err := g.Col("name")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = g.Col("color")
	require.ErrorIs(t, err, ErrColumnNotFound)
	assert.Contains(t, err.Error(), "color")
	assert.Contains(t, err.Error(), "Items")
}

func TestGridColsFailsOnFirstMissing(t *testing.T) {
	g := GridFromRows("Items", [][]string{{"item_id", "name"}})

	idx, err := g.Cols("item_id", "name")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, idx)

	_, err = g.Cols("item_id", "missing", "name")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestGridShortRows(t *testing.T) {
	// Spreadsheet exports drop trailing blank cells; reads must tolerate
	// rows shorter than the header.
	g := GridFromRows("Items", [][]string{
		{"item_id", "name", "notes"},
		{"abc"},
	})

	assert.Equal(t, "abc", g.Get(0, 0))
	assert.Equal(t, "", g.Get(0, 2))

	g.Set(0, 2, "note")
	assert.Equal(t, "note", g.Get(0, 2))
	assert.Len(t, g.Rows[0], 3)
}

func TestGridEmpty(t *testing.T) {
	g := GridFromRows("Items", [][]string{{"item_id", "name"}})
	assert.True(t, g.Empty())

	g.AppendRow(Row{"x", "y"})
	assert.False(t, g.Empty())
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		cell string
		want bool
	}{
		{"TRUE", true},
		{"true", true},
		{"True", true},
		{"1", true},
		{"yes", true},
		{" y ", true},
		{"FALSE", false},
		{"0", false},
		{"", false},
		{"maybe", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseBool(tt.cell), "cell %q", tt.cell)
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Milk (1L)", "milk (1l)"},
		{"  Coca   Cola ", "coca cola"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Canonicalize(tt.in))
	}
}

func TestRowClone(t *testing.T) {
	r := Row{"a", "b"}
	cp := r.Clone()
	cp = cp.Set(0, "z")
	assert.Equal(t, "a", r.Get(0))
	assert.Equal(t, "z", cp.Get(0))
}
