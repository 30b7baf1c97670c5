package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Console is the human-facing output sink. Status lines go to Out, errors
// to Err. Errors are printed as their message only; stack traces never
// reach the terminal.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer
}

// NewConsole creates a console. Nil writers default to os.Stdout and
// os.Stderr.
func NewConsole(out, errw io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	if errw == nil {
		errw = os.Stderr
	}
	return &Console{out: out, err: errw}
}

// Info prints a status line.
func (c *Console) Info(msg string) {
	c.println(c.out, msg)
}

// Warn prints a warning line.
func (c *Console) Warn(msg string) {
	c.println(c.err, "⚠ "+msg)
}

// Error prints a recoverable error. The process keeps running.
func (c *Console) Error(err error) {
	if err == nil {
		return
	}
	c.println(c.err, "✗ "+firstLine(err.Error()))
}

// Fatal prints an error that ends the process.
func (c *Console) Fatal(err error) {
	if err == nil {
		return
	}
	c.println(c.err, "Error: "+firstLine(err.Error()))
}

func (c *Console) println(w io.Writer, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(w, msg)
}

// firstLine drops anything after the first newline, which is where panic
// values carry their stack.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
