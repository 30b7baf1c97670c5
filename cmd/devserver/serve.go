package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"mercator-hq/devserver/pkg/addons"
	"mercator-hq/devserver/pkg/cli"
	"mercator-hq/devserver/pkg/config"
	"mercator-hq/devserver/pkg/journal"
	"mercator-hq/devserver/pkg/modcache"
	"mercator-hq/devserver/pkg/server"
	"mercator-hq/devserver/pkg/servermodule"
	"mercator-hq/devserver/pkg/telemetry/logging"
	"mercator-hq/devserver/pkg/telemetry/metrics"
	"mercator-hq/devserver/pkg/telemetry/tracing"
	"mercator-hq/devserver/pkg/watch"
)

// shutdownTimeout bounds the wait for queued restarts on exit.
const shutdownTimeout = 10 * time.Second

// serveOptions are the serve flags. Only flags set on the command line
// override the configuration file.
type serveOptions struct {
	host       string
	port       int
	ssl        bool
	sslKey     string
	sslCert    string
	rootURL    string
	serverRoot string
	noWatch    bool
	logLevel   string
}

var serveFlags serveOptions

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the application and restart on change",
	Long: `Serve the application and restart the server whenever a watched file
changes.

The configuration file is optional; defaults apply when it is missing.
Flags take precedence over the file and over DEVSERVER_* environment
variables.

Examples:
  # Serve on the default port
  devserver serve

  # Serve on all interfaces under /app/
  devserver serve --host 0.0.0.0 --root-url /app/

  # Serve HTTPS
  devserver serve --ssl --ssl-key ssl/server.key --ssl-cert ssl/server.crt

  # Serve without restarting on change
  devserver serve --no-watch`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveFlags.bind(serveCmd.Flags())
}

func (o *serveOptions) bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.host, "host", "", "interface to bind (default all interfaces)")
	fs.IntVarP(&o.port, "port", "p", config.DefaultPort, "port to bind (0 picks a free port)")
	fs.BoolVar(&o.ssl, "ssl", false, "serve HTTPS")
	fs.StringVar(&o.sslKey, "ssl-key", config.DefaultTLSKeyFile, "TLS private key file")
	fs.StringVar(&o.sslCert, "ssl-cert", config.DefaultTLSCertFile, "TLS certificate file")
	fs.StringVar(&o.rootURL, "root-url", "", "URL path the application is served under")
	fs.StringVar(&o.serverRoot, "server-root", config.DefaultServerModuleRoot, "custom server module directory")
	fs.BoolVar(&o.noWatch, "no-watch", false, "do not restart on file change")
	fs.StringVar(&o.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// apply copies every flag set on fs onto cfg.
func (o *serveOptions) apply(cfg *config.Config, fs *pflag.FlagSet) {
	if fs.Changed("host") {
		cfg.Server.Host = o.host
	}
	if fs.Changed("port") {
		cfg.Server.Port = o.port
	}
	if fs.Changed("ssl") {
		cfg.TLS.Enabled = o.ssl
	}
	if fs.Changed("ssl-key") {
		cfg.TLS.KeyFile = o.sslKey
	}
	if fs.Changed("ssl-cert") {
		cfg.TLS.CertFile = o.sslCert
	}
	if fs.Changed("root-url") {
		cfg.Server.RootURL = o.rootURL
	}
	if fs.Changed("server-root") {
		cfg.Server.ServerModuleRoot = o.serverRoot
	}
	if fs.Changed("no-watch") {
		cfg.Watch.Enabled = !o.noWatch
	}
	if fs.Changed("log-level") {
		cfg.Telemetry.Logging.Level = o.logLevel
	}
}

// loadServeConfig loads path, then applies environment and flag overrides
// and validates the result.
func loadServeConfig(path string, o *serveOptions, fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, cli.NewConfigError(path, err)
	}

	o.apply(cfg, fs)
	if verbose && !fs.Changed("log-level") {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if err := config.Validate(cfg); err != nil {
		return nil, cli.NewConfigError(path, err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig(cfgFile, &serveFlags, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	slog.SetDefault(logger)

	console := cli.NewConsole(cmd.OutOrStdout(), cmd.ErrOrStderr())

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	ds, err := newDevServer(cfg, cfgFile, logger, console)
	if err != nil {
		return err
	}
	defer ds.close()

	return ds.run(ctx)
}

// devServer holds everything one serve invocation owns.
type devServer struct {
	cfg     *config.Config
	logger  *slog.Logger
	console *cli.Console

	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	journal  journal.Storage
	recorder *journal.Recorder
	pruning  *journal.Scheduler
	manager  *server.Manager
	opts     server.Options
}

func newDevServer(cfg *config.Config, cfgPath string, logger *slog.Logger, console *cli.Console) (_ *devServer, err error) {
	ds := &devServer{
		cfg:     cfg,
		logger:  logger,
		console: console,
	}
	defer func() {
		if err != nil {
			ds.close()
		}
	}()

	if cfg.Telemetry.Metrics.Enabled {
		ds.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		return nil, cli.NewConfigError(cfgPath, err)
	}
	ds.tracer = tracer

	addonList, err := addons.FromConfig(cfg.Addons, addons.Deps{
		Logger:      logger,
		Metrics:     ds.metrics,
		MetricsPath: cfg.Telemetry.Metrics.Path,
		Tracer:      tracer.Tracer(),
	})
	if err != nil {
		return nil, cli.NewConfigError(cfgPath, err)
	}

	cache := modcache.Default()
	ds.manager = server.NewManager(server.ManagerConfig{
		Logger:   logger,
		Metrics:  ds.metrics,
		Cache:    cache,
		Loader:   servermodule.NewLoader(cache, logger),
		Tracer:   tracer.Tracer(),
		Debounce: cfg.Watch.DebounceInterval,
	})

	if cfg.Journal.Enabled {
		storage, err := journal.Open(cfg.Journal, logger)
		if err != nil {
			return nil, cli.NewCommandError("serve", fmt.Errorf("failed to open journal: %w", err))
		}
		ds.journal = storage
		ds.recorder = journal.NewRecorder(storage, logger)
		ds.recorder.Revision = journal.GitRevision(".")
		ds.recorder.Attach(ds.manager)
		ds.pruning = journal.NewScheduler(journal.NewPruner(storage, journal.RetentionConfig{
			RetentionDays: cfg.Journal.Retention.Days,
			PruneSchedule: cfg.Journal.Retention.PruneSchedule,
		}, logger))
	}

	ds.opts = server.OptionsFromConfig(cfg)
	ds.opts.Addons = addonList
	ds.opts.Notifier = console

	return ds, nil
}

// run starts the server and blocks until ctx is cancelled or the watcher
// fails. A failed initial start is returned as is so the fatal line shows
// the bind or configuration message.
func (ds *devServer) run(ctx context.Context) error {
	if ds.pruning != nil {
		if err := ds.pruning.Start(ctx); err != nil {
			ds.logger.Warn("failed to start journal pruning", "error", err)
		}
	}

	if err := ds.manager.Start(ctx, ds.opts); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if ds.cfg.Watch.Enabled {
		w, err := watch.New(watch.Config{
			Paths:      ds.watchPaths(),
			Extensions: ds.cfg.Watch.Extensions,
			SkipHidden: ds.cfg.Watch.SkipHidden,
		}, ds.logger)
		if err != nil {
			_ = ds.shutdown()
			return cli.NewCommandError("serve", err)
		}
		w.OnEvent = func(ev watch.Event) {
			ds.logger.Debug("file changed", "op", ev.Op, "path", ev.Path)
		}
		g.Go(func() error {
			defer w.Stop()
			return w.Watch(gctx, ds.manager)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	werr := g.Wait()
	if err := ds.shutdown(); err != nil {
		return cli.NewCommandError("serve", err)
	}
	if werr != nil {
		return cli.NewCommandError("serve", werr)
	}
	return nil
}

// watchPaths defaults to the server module root.
func (ds *devServer) watchPaths() []string {
	if len(ds.cfg.Watch.Paths) > 0 {
		return ds.cfg.Watch.Paths
	}
	return []string{ds.cfg.Server.ServerModuleRoot}
}

func (ds *devServer) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := ds.manager.Close(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return nil
}

// close releases the journal and flushes spans. It is safe to call after
// shutdown.
func (ds *devServer) close() {
	if ds.pruning != nil {
		ds.pruning.Stop()
	}
	if ds.recorder != nil {
		ds.recorder.Detach()
	}
	if ds.journal != nil {
		if err := ds.journal.Close(); err != nil {
			ds.logger.Warn("failed to close journal", "error", err)
		}
	}
	if ds.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := ds.tracer.Shutdown(ctx); err != nil {
			ds.logger.Warn("failed to flush traces", "error", err)
		}
	}
}
