package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/devserver/pkg/server"
)

// EventSource is the subscription surface of the lifecycle manager.
type EventSource interface {
	On(name server.EventName, fn server.Listener) server.ListenerID
	Off(name server.EventName, id server.ListenerID) bool
}

var recordedEvents = []server.EventName{
	server.EventListening,
	server.EventRestart,
	server.EventRestartFailed,
}

// Recorder appends lifecycle events to a Storage.
type Recorder struct {
	storage Storage
	timeout time.Duration
	logger  *slog.Logger

	// Revision, if set, stamps each entry with the current source
	// revision. See GitRevision.
	Revision func() string

	mu     sync.Mutex
	source EventSource
	ids    map[server.EventName]server.ListenerID
}

// NewRecorder creates a recorder writing to storage.
func NewRecorder(storage Storage, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		storage: storage,
		timeout: 5 * time.Second,
		logger:  logger.With("component", "journal.recorder"),
	}
}

// Attach subscribes to src. A recorder attaches to one source at a time;
// attaching again detaches from the previous source first.
func (r *Recorder) Attach(src EventSource) {
	r.Detach()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.source = src
	r.ids = make(map[server.EventName]server.ListenerID, len(recordedEvents))
	for _, name := range recordedEvents {
		r.ids[name] = src.On(name, r.handle)
	}
}

// Detach removes the recorder's subscriptions.
func (r *Recorder) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.source == nil {
		return
	}
	for name, id := range r.ids {
		r.source.Off(name, id)
	}
	r.source = nil
	r.ids = nil
}

func (r *Recorder) handle(ev server.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.Record(ctx, ev); err != nil {
		r.logger.Warn("failed to record lifecycle event", "event", ev.Name, "error", err)
	}
}

// Record appends ev as an entry.
func (r *Recorder) Record(ctx context.Context, ev server.Event) error {
	e := &Entry{
		Cycle:    ev.Cycle,
		Kind:     Kind(ev.Name),
		URL:      ev.URL,
		Duration: ev.Duration,
	}
	if ev.Err != nil {
		e.Error = ev.Err.Error()
	}
	if r.Revision != nil {
		e.Revision = r.Revision()
	}
	return r.storage.Append(ctx, e)
}
