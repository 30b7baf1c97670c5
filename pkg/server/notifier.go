package server

import (
	"log/slog"
	"strings"
)

// Notifier is the output sink for human-readable status lines.
type Notifier interface {
	// Info reports a status line such as "Serving on http://localhost:4200/".
	Info(msg string)

	// Error reports a recoverable failure, such as a failed restart. Only
	// the first line of err.Error() is shown; never a stack trace.
	Error(err error)
}

// logNotifier writes status lines to a structured logger.
type logNotifier struct {
	logger *slog.Logger
}

func (n logNotifier) Info(msg string) {
	n.logger.Info(msg)
}

func (n logNotifier) Error(err error) {
	msg, _, _ := strings.Cut(err.Error(), "\n")
	n.logger.Error(msg)
}
