package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mercator-hq/devserver/pkg/modcache"
	"mercator-hq/devserver/pkg/pipeline"
	"mercator-hq/devserver/pkg/telemetry/logging"
)

// recordingNotifier collects status lines and errors.
type recordingNotifier struct {
	mu     sync.Mutex
	infos  []string
	errors []error
}

func (n *recordingNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

func (n *recordingNotifier) Error(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, err)
}

func (n *recordingNotifier) lines() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.infos...)
}

func (n *recordingNotifier) errs() []error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]error(nil), n.errors...)
}

// eventLog collects emitted events by name.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) record(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) count(name EventName) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.Name == name {
			n++
		}
	}
	return n
}

func (l *eventLog) subscribe(m *Manager) {
	for _, name := range []EventName{EventListening, EventRestart, EventRestartFailed} {
		m.On(name, l.record)
	}
}

// funcLoader is a pipeline.ModuleLoader backed by a function.
type funcLoader func(root string) (*pipeline.Module, error)

func (f funcLoader) Load(root string) (*pipeline.Module, error) { return f(root) }

// countingAddon mounts a middleware that counts requests passing through it.
type countingAddon struct {
	mu    sync.Mutex
	hits  int
	hooks int
}

func (a *countingAddon) Name() string { return "counting" }

func (a *countingAddon) ServerMiddleware(_ context.Context, hc pipeline.HookContext) error {
	a.mu.Lock()
	a.hooks++
	a.mu.Unlock()

	hc.App.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a.mu.Lock()
			a.hits++
			a.mu.Unlock()
			w.Header().Set("X-Counted", "1")
			next.ServeHTTP(w, r)
		})
	})
	return nil
}

func (a *countingAddon) counts() (hooks, hits int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hooks, a.hits
}

func newTestManager(t *testing.T, loader pipeline.ModuleLoader) *Manager {
	t.Helper()
	m := NewManager(ManagerConfig{
		Logger:   logging.Discard(),
		Cache:    modcache.New(),
		Loader:   loader,
		Debounce: 20 * time.Millisecond,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.Close(ctx)
	})
	return m
}

// localOptions binds an ephemeral loopback port.
func localOptions(n Notifier) Options {
	return Options{Host: "127.0.0.1", Port: 0, Notifier: n}
}

func get(t *testing.T, m *Manager, path string) *http.Response {
	t.Helper()
	addr := m.Addr()
	if addr == nil {
		t.Fatal("manager has no listening address")
	}
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s%s", addr.String(), path))
	if err != nil {
		t.Fatalf("GET %s error = %v", path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

// writeKeyPair writes a self-signed localhost certificate into dir.
func writeKeyPair(t *testing.T, dir string) (keyPath, certPath string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}

	keyPath = filepath.Join(dir, "server.key")
	certPath = filepath.Join(dir, "server.crt")
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0644); err != nil {
		t.Fatal(err)
	}
	return keyPath, certPath
}
