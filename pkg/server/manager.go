package server

import (
	"context"
	cryptotls "crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/devserver/pkg/modcache"
	"mercator-hq/devserver/pkg/pipeline"
	"mercator-hq/devserver/pkg/reload"
	"mercator-hq/devserver/pkg/security/tls"
	"mercator-hq/devserver/pkg/telemetry/metrics"
	"mercator-hq/devserver/pkg/watch"
)

// ManagerConfig holds the collaborators of a Manager. Every field is
// optional.
type ManagerConfig struct {
	Logger *slog.Logger

	// Metrics records lifecycle metrics when set.
	Metrics *metrics.Collector

	// Cache is the module cache invalidated between stop and start.
	// Default: modcache.Default()
	Cache *modcache.Cache

	// Loader resolves the custom server module. Nil disables custom server
	// modules.
	Loader pipeline.ModuleLoader

	// Tracer records one span per restart cycle. Default: no-op.
	Tracer trace.Tracer

	// Debounce is the quiet window applied to Notify.
	// Default: 100ms
	Debounce time.Duration
}

// Manager owns the active server instance and drives its lifecycle.
type Manager struct {
	logger    *slog.Logger
	metrics   *metrics.Collector
	cache     *modcache.Cache
	loader    pipeline.ModuleLoader
	tracer    trace.Tracer
	events    *Events
	scheduler *reload.Scheduler
	cycles    atomic.Uint64

	// op serializes Start, Stop and restart cycles.
	op sync.Mutex

	mu       sync.RWMutex
	state    State
	opts     Options
	captured bool
	active   *instance
}

// instance is one bound server.
type instance struct {
	srv   *http.Server
	ln    net.Listener
	conns *ConnectionRegistry
	done  chan struct{}
	url   string
}

// NewManager creates a stopped manager.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cache := cfg.Cache
	if cache == nil {
		cache = modcache.Default()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("devserver")
	}

	m := &Manager{
		logger:  logger.With("component", "server"),
		metrics: cfg.Metrics,
		cache:   cache,
		loader:  cfg.Loader,
		tracer:  tracer,
		events:  NewEvents(),
	}

	var onQueue func(int)
	if m.metrics != nil {
		onQueue = m.metrics.SetQueuedRestarts
		m.metrics.SetState(StateStopped.String())
	}
	m.scheduler = reload.NewScheduler(m.restartCycle, reload.Config{
		Debounce:      cfg.Debounce,
		OnQueueChange: onQueue,
	}, logger)

	return m
}

// On subscribes fn to lifecycle events called name.
func (m *Manager) On(name EventName, fn Listener) ListenerID {
	return m.events.On(name, fn)
}

// Off removes a subscription made with On.
func (m *Manager) Off(name EventName, id ListenerID) bool {
	return m.events.Off(name, id)
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// URL returns the display URL of the listening server, or "".
func (m *Manager) URL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return ""
	}
	return m.active.url
}

// Addr returns the bound address of the listening server, or nil.
func (m *Manager) Addr() net.Addr {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return nil
	}
	return m.active.ln.Addr()
}

// Connections returns the number of tracked connections.
func (m *Manager) Connections() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return 0
	}
	return m.active.conns.Len()
}

// Start binds a new server with opts. It is valid only while stopped.
//
// Invalid TLS material or an invalid custom server module fail with a
// *config.ConfigurationError before any socket is opened. A failing module
// factory or addon hook fails with a *pipeline.MiddlewareBuildError, and a
// failed bind with a *BindError. On any failure the manager stays stopped.
// On success opts are captured for later restarts.
func (m *Manager) Start(ctx context.Context, opts Options) error {
	m.op.Lock()
	if s := m.State(); s != StateStopped {
		m.op.Unlock()
		return fmt.Errorf("%w: cannot start while %s", ErrInvalidState, s)
	}

	ev, err := m.start(ctx, opts)
	if err == nil {
		m.mu.Lock()
		m.opts = opts
		m.captured = true
		m.mu.Unlock()
	}
	m.op.Unlock()

	if err != nil {
		return err
	}
	m.events.Emit(ev)
	return nil
}

// Stop force-closes every connection and then the listening socket. It
// returns once the socket is closed. Stopping a stopped manager is a no-op.
func (m *Manager) Stop(ctx context.Context) error {
	m.op.Lock()
	defer m.op.Unlock()
	return m.stop(ctx)
}

// Restart runs one stop, invalidate, start cycle with the options captured
// by Start. Overlapping calls queue and each runs its own cycle. Restart
// always returns normally; failures go to the notifier and to
// EventRestartFailed.
func (m *Manager) Restart(ctx context.Context) {
	m.scheduler.Restart(ctx)
}

// Notify implements watch.Sink. Bursts of notifications within the
// debounce window trigger one restart.
func (m *Manager) Notify(ev watch.Event) {
	if m.metrics != nil {
		m.metrics.RecordWatchEvent(string(ev.Op))
	}
	m.scheduler.Notify(ev)
}

// Close cancels any pending debounced restart, waits for queued restarts
// and stops the server. Restart requests made after Close are dropped.
func (m *Manager) Close(ctx context.Context) error {
	m.scheduler.Stop()
	if err := m.scheduler.Wait(ctx); err != nil {
		return fmt.Errorf("wait for restarts: %w", err)
	}
	return m.Stop(ctx)
}

// start must be called with m.op held and the manager stopped. It returns
// the listening event for the caller to emit once m.op is released.
func (m *Manager) start(ctx context.Context, opts Options) (Event, error) {
	m.setState(StateStarting)

	inst, err := m.bind(ctx, opts)
	if err != nil {
		m.setState(StateStopped)
		return Event{}, err
	}

	m.mu.Lock()
	m.active = inst
	m.mu.Unlock()
	m.setState(StateListening)

	m.logger.Info("server listening",
		"addr", inst.ln.Addr().String(),
		"tls", opts.UseTLS,
		"url", inst.url,
	)
	m.notifier(opts).Info("Serving on " + inst.url)

	return Event{Name: EventListening, URL: inst.url, Addr: inst.ln.Addr()}, nil
}

func (m *Manager) bind(ctx context.Context, opts Options) (*instance, error) {
	var tlsConfig *cryptotls.Config
	if opts.UseTLS {
		material, err := tls.Load(opts.TLSKeyPath, opts.TLSCertPath)
		if err != nil {
			return nil, err
		}
		if warning := tls.ExpiryWarning(material.Leaf, time.Now()); warning != "" {
			m.logger.Warn(warning, "cert_file", material.CertPath)
		}
		tlsConfig = material.ServerConfig()
	}

	builder := pipeline.NewBuilder(m.loader, opts.Addons, m.logger)
	app, err := builder.Build(ctx, opts.Settings())
	if err != nil {
		return nil, err
	}

	conns := NewConnectionRegistry()
	if m.metrics != nil {
		conns.onChange = m.metrics.SetOpenConnections
	}

	srv := &http.Server{
		Handler:           pipeline.Recover(m.logger, app.Handler(nil)),
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		IdleTimeout:       opts.IdleTimeout,
		ConnState:         conns.ConnState,
		ErrorLog:          slog.NewLogLogger(m.logger.Handler(), slog.LevelDebug),
	}

	ln, err := net.Listen("tcp", opts.Addr())
	if err != nil {
		return nil, &BindError{Addr: opts.Addr(), URL: opts.DisplayURL(opts.Port), Err: err}
	}

	port := opts.Port
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		port = tcp.Port
	}
	if tlsConfig != nil {
		ln = cryptotls.NewListener(ln, tlsConfig)
	}

	inst := &instance{
		srv:   srv,
		ln:    ln,
		conns: conns,
		done:  make(chan struct{}),
		url:   opts.DisplayURL(port),
	}

	go func() {
		defer close(inst.done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("server stopped unexpectedly", "error", err)
		}
	}()

	return inst, nil
}

// stop must be called with m.op held.
func (m *Manager) stop(ctx context.Context) error {
	m.mu.RLock()
	inst := m.active
	state := m.state
	m.mu.RUnlock()

	if state == StateStopped || inst == nil {
		return nil
	}
	if state != StateListening && state != StateStarting {
		return fmt.Errorf("%w: cannot stop while %s", ErrInvalidState, state)
	}

	m.setState(StateStopping)

	closed := inst.conns.DestroyAll()
	closeErr := inst.srv.Close()

	var waitErr error
	select {
	case <-inst.done:
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	// Connections accepted while the listener was closing.
	closed += inst.conns.DestroyAll()

	m.mu.Lock()
	m.active = nil
	m.mu.Unlock()
	m.setState(StateStopped)

	if m.metrics != nil {
		m.metrics.AddForcedCloses(closed)
		m.metrics.SetOpenConnections(0)
	}
	m.logger.Debug("server stopped", "forced_closes", closed)

	if closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
		return fmt.Errorf("close listener: %w", closeErr)
	}
	if waitErr != nil {
		return fmt.Errorf("wait for server shutdown: %w", waitErr)
	}
	return nil
}

// restartCycle is the scheduler's RestartFunc.
func (m *Manager) restartCycle(ctx context.Context) {
	cycle := m.cycles.Add(1)
	ctx, span := m.tracer.Start(ctx, "devserver.restart",
		trace.WithAttributes(attribute.Int64("devserver.restart.cycle", int64(cycle))),
	)
	defer span.End()

	began := time.Now()
	ev, notifier, err := m.runCycle(ctx)
	elapsed := time.Since(began)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if m.metrics != nil {
			m.metrics.RecordRestart("failure", elapsed)
		}
		m.logger.Error("restart failed", "cycle", cycle, "error", err)
		notifier.Error(err)
		m.events.Emit(Event{Name: EventRestartFailed, Cycle: cycle, Duration: elapsed, Err: err})
		return
	}

	span.SetAttributes(attribute.String("devserver.url", ev.URL))
	span.SetStatus(codes.Ok, "")
	if m.metrics != nil {
		m.metrics.RecordRestart("success", elapsed)
	}
	m.logger.Info("server restarted", "cycle", cycle, "duration_ms", elapsed.Milliseconds())

	ev.Cycle = cycle
	m.events.Emit(ev)

	ev.Name = EventRestart
	ev.Duration = elapsed
	m.events.Emit(ev)
}

// runCycle performs stop, invalidate and start under m.op. It converts
// every failure, including panics, into a *RestartError.
func (m *Manager) runCycle(ctx context.Context) (ev Event, notifier Notifier, err error) {
	m.op.Lock()
	defer m.op.Unlock()

	m.mu.RLock()
	opts, captured := m.opts, m.captured
	m.mu.RUnlock()
	notifier = m.notifier(opts)

	phase := PhaseStop
	defer func() {
		if r := recover(); r != nil {
			err = &RestartError{Phase: phase, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if !captured {
		return Event{}, notifier, &RestartError{Phase: PhaseStart, Err: ErrNeverStarted}
	}

	if err := m.stop(ctx); err != nil {
		return Event{}, notifier, &RestartError{Phase: PhaseStop, Err: err}
	}

	phase = PhaseInvalidate
	if opts.ServerModuleRoot != "" {
		removed := m.cache.Invalidate(opts.ServerModuleRoot)
		m.logger.Debug("module cache invalidated", "root", opts.ServerModuleRoot, "entries", removed)
	}

	phase = PhaseStart
	ev, err = m.start(ctx, opts)
	if err != nil {
		return Event{}, notifier, &RestartError{Phase: PhaseStart, Err: err}
	}
	return ev, notifier, nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SetState(s.String())
	}
}

func (m *Manager) notifier(opts Options) Notifier {
	if opts.Notifier != nil {
		return opts.Notifier
	}
	return logNotifier{logger: m.logger}
}
