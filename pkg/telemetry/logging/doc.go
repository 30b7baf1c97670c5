// Package logging builds the process-wide slog.Logger from telemetry
// configuration.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
// Structured logs go to stderr by default so that the human-readable status
// lines printed on stdout stay clean.
package logging
