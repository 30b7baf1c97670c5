package journal

import (
	"context"
	"strconv"
	"time"
)

// Kind is the lifecycle event an entry records.
type Kind string

const (
	KindListening     Kind = "listening"
	KindRestart       Kind = "restart"
	KindRestartFailed Kind = "restart-failed"
)

// Entry is one recorded lifecycle event.
type Entry struct {
	ID       string        `json:"id"`
	Cycle    uint64        `json:"cycle"`
	Kind     Kind          `json:"kind"`
	URL      string        `json:"url,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns,omitempty"`
	Time     time.Time     `json:"time"`

	// Revision is the abbreviated git commit checked out when the event
	// was recorded, if known.
	Revision string `json:"revision,omitempty"`
}

// Query selects entries. Results are newest first.
type Query struct {
	// Limit caps the number of entries. Zero means no limit.
	Limit int

	// Kind restricts results to one kind when set.
	Kind Kind

	// Since excludes entries recorded before it when non-zero.
	Since time.Time
}

// Storage persists journal entries.
type Storage interface {
	// Append stores e. An empty ID or zero Time is filled in.
	Append(ctx context.Context, e *Entry) error

	// List returns entries matching q, newest first.
	List(ctx context.Context, q Query) ([]Entry, error)

	// DeleteBefore removes entries recorded before t and returns how many
	// were removed.
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int64, error)

	Close() error
}

// Entries renders as a table in command output.
type Entries []Entry

// Header implements the cli table interface.
func (es Entries) Header() []string {
	return []string{"TIME", "CYCLE", "KIND", "DURATION", "URL", "ERROR", "REVISION"}
}

// Rows implements the cli table interface.
func (es Entries) Rows() [][]string {
	rows := make([][]string, 0, len(es))
	for _, e := range es {
		duration := ""
		if e.Duration > 0 {
			duration = e.Duration.Round(time.Millisecond).String()
		}
		rows = append(rows, []string{
			e.Time.Local().Format("2006-01-02 15:04:05"),
			strconv.FormatUint(e.Cycle, 10),
			string(e.Kind),
			duration,
			e.URL,
			e.Error,
			e.Revision,
		})
	}
	return rows
}
