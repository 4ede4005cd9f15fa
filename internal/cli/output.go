package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Negative answer, e.g. has on an absent record
	ExitCommandError = 2 // Command error (bad config, unreadable store, refused clear)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// printer writes records and keys, colorizing keys when enabled.
type printer struct {
	w   io.Writer
	key func(string, ...any) string
}

// newPrinter builds a printer for w. In auto mode keys are colorized only
// when w is a terminal.
func newPrinter(w io.Writer, f *os.File, mode string) *printer {
	p := &printer{w: w, key: fmt.Sprintf}

	enabled := mode == "always"
	if mode == "auto" && f != nil {
		enabled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	if enabled {
		c := color.New(color.FgCyan, color.Bold)
		c.EnableColor()
		p.key = c.SprintfFunc()
	}
	return p
}

// Record prints key followed by v as compact JSON.
func (p *printer) Record(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	_, err = fmt.Fprintf(p.w, "%s\t%s\n", p.key("%s", key), b)
	return err
}

// JSON prints v as indented JSON.
func (p *printer) JSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Line prints a plain line.
func (p *printer) Line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Key prints a colorized key followed by a plain message.
func (p *printer) Key(key, format string, args ...any) {
	fmt.Fprintf(p.w, "%s\t%s\n", p.key("%s", key), fmt.Sprintf(format, args...))
}
