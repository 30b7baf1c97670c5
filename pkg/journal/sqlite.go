package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // cgo SQLite driver ("sqlite3")
	_ "modernc.org/sqlite"          // pure Go SQLite driver ("sqlite")
)

var errClosed = errors.New("storage is closed")

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path. Its directory is created if missing.
	Path string

	// Driver is the database/sql driver name: "sqlite" or "sqlite3".
	// Default: "sqlite"
	Driver string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteStorage implements Storage on SQLite in WAL mode.
type SQLiteStorage struct {
	db     *sql.DB
	config SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (creating if needed) the journal database.
func NewSQLiteStorage(cfg SQLiteConfig, logger *slog.Logger) (*SQLiteStorage, error) {
	if cfg.Path == "" {
		return nil, NewStorageError("sqlite", "open", errors.New("path cannot be empty"))
	}
	if cfg.Driver == "" {
		cfg.Driver = "sqlite"
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, NewStorageError(cfg.Driver, "mkdir", err)
		}
	}

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, NewStorageError(cfg.Driver, "open", err)
	}
	// One connection keeps per-connection pragmas in effect and makes
	// ":memory:" databases usable.
	db.SetMaxOpenConns(1)

	s := &SQLiteStorage{
		db:     db,
		config: cfg,
		logger: logger.With("component", "journal.sqlite", "driver", cfg.Driver),
	}

	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.logger.Debug("journal storage initialized", "path", cfg.Path)
	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	driver := s.config.Driver

	if s.config.Path != ":memory:" {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStorageError(driver, "enable_wal", err)
		}
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return NewStorageError(driver, "set_busy_timeout", err)
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return NewStorageError(driver, "create_schema", err)
		}
	}

	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion); err != nil {
		return NewStorageError(driver, "insert_schema_version", err)
	}

	var version sql.NullInt64
	if err := s.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return NewStorageError(driver, "get_schema_version", err)
	}
	if version.Int64 != SchemaVersion {
		return NewStorageError(driver, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version.Int64))
	}
	return nil
}

// Append implements Storage.
func (s *SQLiteStorage) Append(ctx context.Context, e *Entry) error {
	fill(e)

	_, err := s.db.ExecContext(ctx, insertEntry,
		e.ID,
		int64(e.Cycle),
		string(e.Kind),
		e.URL,
		e.Error,
		int64(e.Duration),
		e.Revision,
		e.Time.UnixNano(),
	)
	if err != nil {
		return NewStorageError(s.config.Driver, "append", err)
	}
	return nil
}

// List implements Storage.
func (s *SQLiteStorage) List(ctx context.Context, q Query) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if q.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(q.Kind))
	}
	if !q.Since.IsZero() {
		where = append(where, "recorded_at >= ?")
		args = append(args, q.Since.UnixNano())
	}

	query := "SELECT id, cycle, kind, url, error, duration_ns, revision, recorded_at FROM journal_entries"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY recorded_at DESC, rowid DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewStorageError(s.config.Driver, "list", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			cycle      int64
			kind       string
			durationNS int64
			recordedAt int64
		)
		if err := rows.Scan(&e.ID, &cycle, &kind, &e.URL, &e.Error, &durationNS, &e.Revision, &recordedAt); err != nil {
			return nil, NewStorageError(s.config.Driver, "scan", err)
		}
		e.Cycle = uint64(cycle)
		e.Kind = Kind(kind)
		e.Duration = time.Duration(durationNS)
		e.Time = time.Unix(0, recordedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(s.config.Driver, "list", err)
	}
	return entries, nil
}

// DeleteBefore implements Storage.
func (s *SQLiteStorage) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, deleteBefore, t.UnixNano())
	if err != nil {
		return 0, NewStorageError(s.config.Driver, "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, NewStorageError(s.config.Driver, "delete", err)
	}
	return n, nil
}

// Count implements Storage.
func (s *SQLiteStorage) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, countEntries).Scan(&n); err != nil {
		return 0, NewStorageError(s.config.Driver, "count", err)
	}
	return n, nil
}

// Close implements Storage.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError(s.config.Driver, "close", err)
	}
	return nil
}
