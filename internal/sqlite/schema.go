// Package sqlite implements the SQLite-backed tabular store for larder.
// Tables are stored generically: one row in sheets per table holding the
// header, one row in sheet_rows per data row holding the cells as a JSON
// array. Counters, advisory locks, and the audit journal live in their own
// tables in the same database file.
package sqlite

// Schema DDL. The database persists between runs, so every statement is
// idempotent.
const (
	createSheets = `CREATE TABLE IF NOT EXISTS sheets (
    name TEXT PRIMARY KEY,
    columns TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createSheetRows = `CREATE TABLE IF NOT EXISTS sheet_rows (
    sheet TEXT NOT NULL,
    ord INTEGER NOT NULL,
    cells TEXT NOT NULL,
    PRIMARY KEY (sheet, ord),
    FOREIGN KEY (sheet) REFERENCES sheets(name)
);`

	createCounters = `CREATE TABLE IF NOT EXISTS counters (
    key TEXT PRIMARY KEY,
    value INTEGER NOT NULL,
    updated_at TEXT NOT NULL
);`

	createLocks = `CREATE TABLE IF NOT EXISTS locks (
    name TEXT PRIMARY KEY,
    holder TEXT NOT NULL,
    acquired_at TEXT NOT NULL
);`

	createJournal = `CREATE TABLE IF NOT EXISTS journal (
    event_id TEXT PRIMARY KEY,
    execution_id TEXT NOT NULL,
    script TEXT NOT NULL,
    table_name TEXT NOT NULL,
    level TEXT NOT NULL,
    row_number INTEGER,
    action TEXT NOT NULL,
    details TEXT,
    created_at TEXT NOT NULL
);`
)

const (
	idxSheetRowsSheet    = `CREATE INDEX IF NOT EXISTS idx_sheet_rows_sheet ON sheet_rows(sheet);`
	idxJournalExecution  = `CREATE INDEX IF NOT EXISTS idx_journal_execution ON journal(execution_id);`
	idxJournalTableName  = `CREATE INDEX IF NOT EXISTS idx_journal_table ON journal(table_name);`
)

// schemaDDL lists all statements in dependency order.
var schemaDDL = []string{
	createSheets,
	createSheetRows,
	createCounters,
	createLocks,
	createJournal,
	idxSheetRowsSheet,
	idxJournalExecution,
	idxJournalTableName,
}
