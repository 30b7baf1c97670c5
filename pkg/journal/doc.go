// Package journal keeps a history of server lifecycle events.
//
// A Recorder subscribes to a lifecycle manager and appends one Entry per
// listening, restart and restart-failed event to a Storage. Storage
// backends:
//
//   - "sqlite": modernc.org/sqlite, pure Go, WAL mode
//   - "sqlite3": github.com/mattn/go-sqlite3, requires cgo
//   - "memory": process-local, lost on exit
//
// A Pruner deletes entries older than the retention period; a Scheduler
// runs it on a cron schedule. The devserver history command reads the
// journal back.
package journal
