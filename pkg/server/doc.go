// Package server manages the lifecycle of the development HTTP(S) server.
//
// A Manager owns at most one listening server at a time and drives it
// through four states:
//
//	stopped -> starting -> listening -> stopping -> stopped
//
// Start loads TLS material, builds a fresh middleware pipeline (custom
// server module first, then addons), binds the address and reports
// "Serving on <url>" through the Notifier. Stop force-closes every tracked
// connection and then the listening socket; connections are not drained.
//
// Restart runs one stop, module cache invalidation and start cycle. Restart
// requests are serialized by a reload.Scheduler: overlapping requests queue
// and each runs its own cycle. A failing cycle is reported and swallowed so
// a broken edit never ends the development session:
//
//	mgr := server.NewManager(server.ManagerConfig{Logger: logger})
//	if err := mgr.Start(ctx, opts); err != nil {
//	    return err // ConfigurationError, BindError or MiddlewareBuildError
//	}
//	defer mgr.Close(context.Background())
//
//	// Watcher notifications are debounced into restarts.
//	go watcher.Watch(ctx, mgr)
//
// # Events
//
// Subscribers register with On and receive EventListening after every
// successful bind and EventRestart after every successful restart cycle.
// EventRestartFailed reports cycles that failed.
package server
