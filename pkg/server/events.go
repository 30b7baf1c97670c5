package server

import (
	"net"
	"sync"
	"time"
)

// EventName identifies a lifecycle event.
type EventName string

const (
	// EventListening fires once per successful bind.
	EventListening EventName = "listening"

	// EventRestart fires once per successful restart cycle.
	EventRestart EventName = "restart"

	// EventRestartFailed fires once per failed restart cycle.
	EventRestartFailed EventName = "restart-failed"
)

// Event is delivered to listeners.
type Event struct {
	Name EventName

	// URL and Addr describe the listening server. Both are empty for
	// EventRestartFailed.
	URL  string
	Addr net.Addr

	// Cycle numbers restart cycles from 1. It is 0 for the initial start.
	Cycle uint64

	// Duration is the length of the restart cycle.
	Duration time.Duration

	// Err is set for EventRestartFailed.
	Err error
}

// Listener receives lifecycle events.
type Listener func(Event)

// ListenerID identifies a subscription for Off.
type ListenerID uint64

type subscription struct {
	id ListenerID
	fn Listener
}

// Events is an observer registry: event name to listeners in subscription
// order.
type Events struct {
	mu     sync.RWMutex
	nextID ListenerID
	subs   map[EventName][]subscription
}

// NewEvents creates an empty registry.
func NewEvents() *Events {
	return &Events{subs: make(map[EventName][]subscription)}
}

// On subscribes fn to name.
func (e *Events) On(name EventName, fn Listener) ListenerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.subs[name] = append(e.subs[name], subscription{id: e.nextID, fn: fn})
	return e.nextID
}

// Off removes the subscription id from name. It reports whether one was
// removed.
func (e *Events) Off(name EventName, id ListenerID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := e.subs[name]
	for i, s := range subs {
		if s.id == id {
			e.subs[name] = append(subs[:i:i], subs[i+1:]...)
			return true
		}
	}
	return false
}

// Emit calls every listener for ev.Name synchronously, in subscription
// order. Listeners may subscribe or unsubscribe while being called.
func (e *Events) Emit(ev Event) {
	e.mu.RLock()
	subs := e.subs[ev.Name]
	e.mu.RUnlock()

	for _, s := range subs {
		s.fn(ev)
	}
}
