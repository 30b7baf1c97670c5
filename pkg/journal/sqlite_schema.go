package journal

// SchemaVersion is the current journal schema version.
const SchemaVersion = 1

var schema = []string{
	`CREATE TABLE IF NOT EXISTS journal_entries (
		id          TEXT PRIMARY KEY,
		cycle       INTEGER NOT NULL DEFAULT 0,
		kind        TEXT NOT NULL,
		url         TEXT NOT NULL DEFAULT '',
		error       TEXT NOT NULL DEFAULT '',
		duration_ns INTEGER NOT NULL DEFAULT 0,
		revision    TEXT NOT NULL DEFAULT '',
		recorded_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_entries_recorded_at ON journal_entries(recorded_at)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_entries_kind ON journal_entries(kind)`,
	`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	)`,
}

const (
	insertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`
	getSchemaVersion    = `SELECT MAX(version) FROM schema_version`

	insertEntry = `INSERT INTO journal_entries
		(id, cycle, kind, url, error, duration_ns, revision, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	deleteBefore = `DELETE FROM journal_entries WHERE recorded_at < ?`
	countEntries = `SELECT COUNT(*) FROM journal_entries`
)
