package types

import (
	"context"
	"errors"
	"time"
)

// Store provides bulk, header-addressed access to named tables. Reads
// return the whole used range; mutations are batched so each workflow
// performs one read and as few writes as possible.
type Store interface {
	// ReadTable returns the full used range of the named table.
	// Returns ErrTableNotFound if the table does not exist.
	ReadTable(ctx context.Context, name string) (*Grid, error)

	// WriteRows overwrites a contiguous band of data rows starting at the
	// 0-based data row index startRow (the header is not addressable).
	WriteRows(ctx context.Context, name string, startRow int, rows []Row) error

	// AppendRows adds rows after the current last data row.
	AppendRows(ctx context.Context, name string, rows []Row) error

	// ClearRow blanks every cell of the data row at the given 0-based
	// index, preserving the row's position.
	ClearRow(ctx context.Context, name string, rowIndex int) error

	// CreateTable creates an empty table with the given header columns.
	// Returns ErrTableExists if a table with that name already exists.
	CreateTable(ctx context.Context, name string, columns []string) error
}

// Locker is a named advisory lock with a bounded blocking wait. Workflows
// acquire a lock scoped to themselves before mutating and fail fast with
// ErrLockHeld when the wait expires.
type Locker interface {
	Acquire(ctx context.Context, name, holder string, wait time.Duration) error
	Release(name, holder string) error
}

// CounterStore persists named monotonic sequences. A workflow reads its
// counter once at the start of a run and writes it back once at the end,
// only if at least one value was consumed. Counters are never decremented.
type CounterStore interface {
	// GetCounter returns the current value, 0 for an unknown key.
	GetCounter(key string) (int64, error)
	SetCounter(key string, value int64) error
}

// Journal is the append-only audit sink. One row per event; write-only
// from the engine's perspective.
type Journal interface {
	Append(ctx context.Context, e Event) error
}

// Store lifecycle and access errors.
var (
	ErrStoreClosed    = errors.New("store is closed")
	ErrAlreadyOpen    = errors.New("store is already open")
	ErrTableNotFound  = errors.New("table not found")
	ErrTableExists    = errors.New("table already exists")
	ErrColumnNotFound = errors.New("column not found")
	ErrRowOutOfRange  = errors.New("row index out of range")
)

// Lock errors.
var (
	ErrLockHeld      = errors.New("lock is held")
	ErrNotLockHolder = errors.New("caller is not the lock holder")
	ErrInvalidHolder = errors.New("holder cannot be empty")
)
