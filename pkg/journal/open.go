package journal

import (
	"log/slog"

	"mercator-hq/devserver/pkg/config"
)

// Open creates the storage backend selected by cfg.
func Open(cfg config.JournalConfig, logger *slog.Logger) (Storage, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite", "sqlite3", "":
		return NewSQLiteStorage(SQLiteConfig{Path: cfg.Path, Driver: cfg.Backend}, logger)
	default:
		return nil, config.NewConfigurationError("journal.backend",
			"unsupported backend %q (must be sqlite, sqlite3 or memory)", cfg.Backend)
	}
}
