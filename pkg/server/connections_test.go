package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"
)

func pipeConn(t *testing.T) (server, client net.Conn) {
	t.Helper()
	server, client = net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	return server, client
}

func TestConnectionRegistry_RegisterUnregister(t *testing.T) {
	r := NewConnectionRegistry()
	a, _ := pipeConn(t)
	b, _ := pipeConn(t)

	idA := r.Register(a)
	idB := r.Register(b)
	if idB <= idA {
		t.Errorf("ids not increasing: %d then %d", idA, idB)
	}
	if again := r.Register(a); again != idA {
		t.Errorf("Register() twice = %d, want %d", again, idA)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}

	r.Unregister(idA)
	r.Unregister(idA)
	r.Unregister(999)
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	// IDs are never reused.
	c, _ := pipeConn(t)
	if idC := r.Register(c); idC <= idB {
		t.Errorf("id %d reused after unregister, want > %d", idC, idB)
	}
}

func TestConnectionRegistry_DestroyAll(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		r := NewConnectionRegistry()
		clients := make([]net.Conn, 0, n)
		for i := 0; i < n; i++ {
			s, c := pipeConn(t)
			r.Register(s)
			clients = append(clients, c)
		}

		if got := r.DestroyAll(); got != n {
			t.Errorf("DestroyAll() = %d, want %d", got, n)
		}
		if r.Len() != 0 {
			t.Errorf("Len() = %d, want 0", r.Len())
		}

		for _, c := range clients {
			_ = c.SetReadDeadline(time.Now().Add(time.Second))
			if _, err := c.Read(make([]byte, 1)); err == nil {
				t.Error("peer read succeeded after DestroyAll, want error")
			}
		}
	}
}

func TestConnectionRegistry_ConnState(t *testing.T) {
	r := NewConnectionRegistry()
	a, _ := pipeConn(t)
	b, _ := pipeConn(t)

	r.ConnState(a, http.StateNew)
	r.ConnState(b, http.StateNew)
	r.ConnState(a, http.StateActive)
	r.ConnState(a, http.StateIdle)
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	r.ConnState(a, http.StateClosed)
	r.ConnState(b, http.StateHijacked)
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestConnectionRegistry_Wait(t *testing.T) {
	r := NewConnectionRegistry()
	if err := r.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() on empty registry error = %v", err)
	}

	a, _ := pipeConn(t)
	id := r.Register(a)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.Wait(ctx); err == nil {
		t.Fatal("Wait() returned with a tracked connection")
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		r.Unregister(id)
	}()
	if err := r.Wait(context.Background()); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestConnectionRegistry_OnChange(t *testing.T) {
	r := NewConnectionRegistry()
	var sizes []int
	r.onChange = func(n int) { sizes = append(sizes, n) }

	a, _ := pipeConn(t)
	b, _ := pipeConn(t)
	r.Register(a)
	r.Register(b)
	r.DestroyAll()

	if len(sizes) != 4 || sizes[0] != 1 || sizes[1] != 2 || sizes[3] != 0 {
		t.Errorf("sizes = %v, want [1 2 1 0]", sizes)
	}
}
