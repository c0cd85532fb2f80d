package types

import (
	"fmt"
	"strings"
)

// Row holds one data row's cells in column order. All cells travel as
// strings, the way a spreadsheet hands them over; typed interpretation
// (booleans, decimals) happens at the point of use.
type Row []string

// Get returns the cell at index i, or "" when the row is shorter than i+1.
// Short rows are common in spreadsheet exports; trailing blanks are dropped.
func (r Row) Get(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// Set writes the cell at index i, growing the row with blanks as needed,
// and returns the possibly-reallocated row.
func (r Row) Set(i int, v string) Row {
	for len(r) <= i {
		r = append(r, "")
	}
	r[i] = v
	return r
}

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	cp := make(Row, len(r))
	copy(cp, r)
	return cp
}

// Grid is the in-memory image of one table's used range: the header row
// plus all data rows, in store order. Workflows read a table into a Grid
// once, compute every mutation locally, and write back in bulk.
type Grid struct {
	Name    string
	Columns []string
	Rows    []Row

	index map[string]int
}

// NewGrid creates an empty grid with the given header columns.
func NewGrid(name string, columns []string) *Grid {
	g := &Grid{Name: name, Columns: columns}
	g.reindex()
	return g
}

// GridFromRows builds a grid from raw rows where the first row is the
// header. A nil or empty input yields a grid with no columns.
func GridFromRows(name string, rows [][]string) *Grid {
	g := &Grid{Name: name}
	if len(rows) > 0 {
		g.Columns = rows[0]
		for _, r := range rows[1:] {
			g.Rows = append(g.Rows, Row(r))
		}
	}
	g.reindex()
	return g
}

func (g *Grid) reindex() {
	g.index = make(map[string]int, len(g.Columns))
	for i, c := range g.Columns {
		g.index[c] = i
	}
}

// Col resolves a header name to its column index. A missing column is a
// precondition failure for the calling run.
func (g *Grid) Col(name string) (int, error) {
	i, ok := g.index[name]
	if !ok {
		return 0, fmt.Errorf("table %s: column %q: %w", g.Name, name, ErrColumnNotFound)
	}
	return i, nil
}

// Cols resolves several header names at once, failing on the first absent
// one.
func (g *Grid) Cols(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		c, err := g.Col(n)
		if err != nil {
			return nil, err
		}
		idx[i] = c
	}
	return idx, nil
}

// Get returns the cell at (row, col), blank when out of range.
func (g *Grid) Get(row, col int) string {
	if row < 0 || row >= len(g.Rows) {
		return ""
	}
	return g.Rows[row].Get(col)
}

// Set writes the cell at (row, col). The row must exist.
func (g *Grid) Set(row, col int, v string) {
	g.Rows[row] = g.Rows[row].Set(col, v)
}

// AppendRow adds a data row at the end of the grid.
func (g *Grid) AppendRow(r Row) {
	g.Rows = append(g.Rows, r)
}

// Empty reports whether the grid has no data rows beyond the header.
func (g *Grid) Empty() bool {
	return len(g.Rows) == 0
}

// IsBlank reports whether a cell is empty after trimming whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ParseBool interprets a spreadsheet boolean cell. TRUE/true/1/yes (any
// case) are true; everything else, including blank, is false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}

// FormatBool renders a boolean the way the sheets store it.
func FormatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// Canonicalize normalizes a name for deduplication: trimmed, lowercased,
// inner whitespace collapsed to single spaces.
func Canonicalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
