package pipeline

import "fmt"

// MiddlewareBuildError reports that the custom server module or an addon hook
// failed while the pipeline was assembled.
type MiddlewareBuildError struct {
	// Source is "server module <name>" or "addon <name>".
	Source string
	Err    error
}

func (e *MiddlewareBuildError) Error() string {
	return fmt.Sprintf("failed to build middleware from %s: %v", e.Source, e.Err)
}

func (e *MiddlewareBuildError) Unwrap() error {
	return e.Err
}
