package server

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// ErrInvalidState is returned when Start or Stop is called from a state
// that does not allow it.
var ErrInvalidState = errors.New("invalid server state")

// ErrNeverStarted is the cause of a restart requested before any
// successful Start captured options.
var ErrNeverStarted = errors.New("server was never started")

// BindError reports that the listening address could not be acquired.
type BindError struct {
	// Addr is the address passed to net.Listen.
	Addr string

	// URL is the address as it would have been displayed.
	URL string

	Err error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("could not serve on %s: %s", e.URL, e.Reason())
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Reason describes the failure in user terms.
func (e *BindError) Reason() string {
	switch {
	case errors.Is(e.Err, syscall.EADDRINUSE):
		return fmt.Sprintf("address %s is already in use", e.Addr)
	case errors.Is(e.Err, syscall.EACCES), errors.Is(e.Err, os.ErrPermission):
		return fmt.Sprintf("binding %s is not permitted", e.Addr)
	default:
		return fmt.Sprintf("address %s is in use or not permitted (%v)", e.Addr, e.Err)
	}
}

// Restart cycle phases.
const (
	PhaseStop       = "stop"
	PhaseInvalidate = "invalidate"
	PhaseStart      = "start"
)

// RestartError wraps a failure inside a restart cycle with the phase it
// happened in.
type RestartError struct {
	Phase string
	Err   error
}

func (e *RestartError) Error() string {
	return fmt.Sprintf("restart failed during %s: %v", e.Phase, e.Err)
}

func (e *RestartError) Unwrap() error {
	return e.Err
}
