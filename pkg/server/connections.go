package server

import (
	"context"
	"net"
	"net/http"
	"sync"
)

// ConnectionRegistry tracks the live connections of one server instance so
// they can be force-closed on stop.
//
// IDs increase monotonically for the lifetime of the registry. Entries are
// removed when a connection closes on its own, when it is hijacked, or when
// DestroyAll closes it.
type ConnectionRegistry struct {
	mu     sync.Mutex
	nextID uint64
	conns  map[uint64]net.Conn
	ids    map[net.Conn]uint64
	empty  chan struct{}

	// onChange, if set, is called with the registry size after every change.
	onChange func(n int)
}

// NewConnectionRegistry creates an empty registry.
func NewConnectionRegistry() *ConnectionRegistry {
	empty := make(chan struct{})
	close(empty)
	return &ConnectionRegistry{
		conns: make(map[uint64]net.Conn),
		ids:   make(map[net.Conn]uint64),
		empty: empty,
	}
}

// Register tracks conn and returns its ID. Registering a tracked
// connection again returns its existing ID.
func (r *ConnectionRegistry) Register(conn net.Conn) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.ids[conn]; ok {
		return id
	}
	if len(r.conns) == 0 {
		r.empty = make(chan struct{})
	}

	r.nextID++
	id := r.nextID
	r.conns[id] = conn
	r.ids[conn] = id
	r.changed()
	return id
}

// Unregister stops tracking the connection with id. Unknown IDs are ignored.
func (r *ConnectionRegistry) Unregister(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[id]
	if !ok {
		return
	}
	r.remove(id, conn)
}

// DestroyAll closes every tracked connection without draining and removes
// it from the registry. It returns the number of connections closed.
func (r *ConnectionRegistry) DestroyAll() int {
	r.mu.Lock()
	conns := make([]net.Conn, 0, len(r.conns))
	for id, conn := range r.conns {
		conns = append(conns, conn)
		r.remove(id, conn)
	}
	r.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
	return len(conns)
}

// Len returns the number of tracked connections.
func (r *ConnectionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Wait blocks until the registry is empty or ctx is done.
func (r *ConnectionRegistry) Wait(ctx context.Context) error {
	r.mu.Lock()
	empty := r.empty
	r.mu.Unlock()

	select {
	case <-empty:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ConnState is installed as http.Server.ConnState.
func (r *ConnectionRegistry) ConnState(conn net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		r.Register(conn)
	case http.StateClosed, http.StateHijacked:
		r.mu.Lock()
		if id, ok := r.ids[conn]; ok {
			r.remove(id, conn)
		}
		r.mu.Unlock()
	}
}

// remove must be called with r.mu held.
func (r *ConnectionRegistry) remove(id uint64, conn net.Conn) {
	delete(r.conns, id)
	delete(r.ids, conn)
	if len(r.conns) == 0 {
		close(r.empty)
	}
	r.changed()
}

func (r *ConnectionRegistry) changed() {
	if r.onChange != nil {
		r.onChange(len(r.conns))
	}
}
