// Package engine implements the reconciliation workflows: identifier
// backfill, orphan cleanup, staging intake, promotion, and the price
// evaluation log upsert. Every workflow reads whole tables into memory,
// computes its mutations locally, and writes back in bulk; every run is
// safe to repeat because decisions are re-derived from current store
// contents and gated by flags, never by engine state.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/millstone-labs/larder/pkg/types"
)

// DefaultLockWait bounds how long a workflow blocks on its advisory lock
// before failing fast with ErrLockHeld.
const DefaultLockWait = 10 * time.Second

// Skip reasons aggregated into the run summary.
const (
	SkipNotApproved     = "not_approved"
	SkipAlreadyPromoted = "already_promoted"
	SkipAlreadyStaged   = "already_staged"
	SkipAlreadyMapped   = "already_mapped"
	SkipNoSourceID      = "no_source_id"
	SkipNoName          = "no_name"
	SkipIncompleteKey   = "incomplete_key"
	SkipBadNumber       = "bad_number"
)

// Engine runs the reconciliation workflows against one store.
type Engine struct {
	store    types.Store
	locker   types.Locker
	counters types.CounterStore
	journal  types.Journal
	log      *logrus.Logger

	// LockWait bounds the advisory lock wait for every workflow.
	LockWait time.Duration

	execID string
	now    func() time.Time
	newID  func() string
}

// New creates an engine with a fresh execution id. A nil logger falls
// back to the logrus standard logger.
func New(store types.Store, locker types.Locker, counters types.CounterStore, journal types.Journal, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		store:    store,
		locker:   locker,
		counters: counters,
		journal:  journal,
		log:      log,
		LockWait: DefaultLockWait,
		execID:   newUUID(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    newUUID,
	}
}

// ExecutionID returns the id stamped on every event of this engine's runs.
func (e *Engine) ExecutionID() string { return e.execID }

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Summary aggregates what one run did and what it skipped, per reason.
type Summary struct {
	Script        string
	Table         string
	Assigned      int            // machine identifiers written
	HumanAssigned int            // human identifiers written
	Cleared       int            // identifiers or rows cleared
	Staged        int            // staging rows appended
	Promoted      int            // staging rows promoted
	Updated       int            // existing rows rewritten
	Added         int            // non-staging rows appended
	Skips         map[string]int // per-reason skip counts
}

func newSummary(script, table string) *Summary {
	return &Summary{Script: script, Table: table, Skips: make(map[string]int)}
}

func (s *Summary) skip(reason string) { s.Skips[reason]++ }

// withLock runs fn under the named workflow lock, holding it for the
// whole critical section.
func (e *Engine) withLock(ctx context.Context, scope string, fn func() error) error {
	name := "workflow:" + scope
	if err := e.locker.Acquire(ctx, name, e.execID, e.LockWait); err != nil {
		return fmt.Errorf("acquiring %s: %w", name, err)
	}
	defer func() {
		if err := e.locker.Release(name, e.execID); err != nil {
			e.log.WithError(err).WithField("lock", name).Warn("releasing workflow lock")
		}
	}()
	return fn()
}

// event appends one audit record and mirrors it to the console log.
// Journal failures are logged but never abort a run.
func (e *Engine) event(ctx context.Context, s *Summary, level string, row int, action, details string) {
	ev := types.Event{
		ExecutionID: e.execID,
		Script:      s.Script,
		Table:       s.Table,
		Level:       level,
		RowNumber:   row,
		Action:      action,
		Details:     details,
		CreatedAt:   e.now(),
	}
	if err := e.journal.Append(ctx, ev); err != nil {
		e.log.WithError(err).Warn("appending journal event")
	}

	entry := e.log.WithFields(logrus.Fields{
		"execution_id": e.execID,
		"script":       s.Script,
		"table":        s.Table,
		"action":       action,
	})
	if row > 0 {
		entry = entry.WithField("row", row)
	}
	switch level {
	case types.LevelWarn:
		entry.Warn(details)
	case types.LevelError:
		entry.Error(details)
	default:
		entry.Info(details)
	}
}

// finish emits the end-of-run summary line.
func (e *Engine) finish(ctx context.Context, s *Summary) {
	details := fmt.Sprintf(
		"assigned=%d human=%d cleared=%d staged=%d promoted=%d updated=%d added=%d skipped=%v",
		s.Assigned, s.HumanAssigned, s.Cleared, s.Staged, s.Promoted, s.Updated, s.Added, s.Skips)
	e.event(ctx, s, types.LevelInfo, 0, "run_complete", details)
}

// warnEmpty records a warning when a workflow's primary table has no
// data rows. An empty table is a clean no-op, not an error.
func (e *Engine) warnEmpty(ctx context.Context, s *Summary, g *types.Grid) bool {
	if !g.Empty() {
		return false
	}
	e.event(ctx, s, types.LevelWarn, 0, "table_empty", g.Name+" has no data rows")
	return true
}

// note formats an audit trail line appended to a notes cell.
func (e *Engine) note(text string) string {
	return fmt.Sprintf("[%s %s] %s", e.now().Format("2006-01-02 15:04:05"), shortID(e.execID), text)
}

// appendNote adds a line to an append-only notes cell.
func appendNote(existing, line string) string {
	if types.IsBlank(existing) {
		return line
	}
	return existing + "\n" + line
}

// shortID abbreviates an execution id for note lines.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
