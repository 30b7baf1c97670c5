package watch

// Op is the kind of file change.
type Op string

const (
	OpChange Op = "change"
	OpAdd    Op = "add"
	OpDelete Op = "delete"
)

// Event is one file change notification.
type Event struct {
	Op   Op
	Path string
}

// Sink receives change notifications. The lifecycle manager is the sink in
// a running dev server.
type Sink interface {
	Notify(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Notify calls f(ev).
func (f SinkFunc) Notify(ev Event) { f(ev) }
