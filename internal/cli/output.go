package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/conform/internal/corpus"
	"github.com/roach88/conform/internal/invoke"
)

// Exit codes for CLI commands.
const (
	ExitSuccess = 0 // Every example passed
	ExitUsage   = 1 // Flag/usage errors and anything unexpected
	ExitFailure = 2 // One or more examples failed
	ExitFatal   = 3 // Corpus mismatch, unreadable input, runner launch failure
)

// Error codes reported in "Error [CODE]" lines and JSON responses.
const (
	ErrCodeCorpusMismatch = "E_CORPUS_MISMATCH"
	ErrCodeLaunch         = "E_LAUNCH"
	ErrCodeLoad           = "E_LOAD"
	ErrCodeCancelled      = "E_CANCELLED"
	ErrCodeTestFailed     = "E_TEST_FAILED"
	ErrCodeUsage          = "E_USAGE"
)

// ExitError represents an error with a specific exit code.
// Commands report an ExitError to the user before returning it.
type ExitError struct {
	Code    int    // Exit code (ExitUsage, ExitFailure or ExitFatal)
	Message string // Error message
	Err     error  // Underlying error (optional)
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
// Returns ExitSuccess for nil and ExitUsage if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUsage
}

// errorCode classifies a fatal run error.
func errorCode(err error) string {
	switch {
	case errors.Is(err, corpus.ErrMismatch):
		return ErrCodeCorpusMismatch
	case errors.Is(err, invoke.ErrLaunch):
		return ErrCodeLaunch
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeCancelled
	default:
		// Unreadable documents, invalid suite manifests.
		return ErrCodeLoad
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload, or the report of a failed run
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // E_CORPUS_MISMATCH, E_LAUNCH, ...
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Failure outputs a completed run that did not pass: the payload plus an
// error. In text mode the payload has already been printed as progress, so
// nothing is written.
func (f *OutputFormatter) Failure(code, message string, data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Data:   data,
			Error:  &CLIError{Code: code, Message: message},
		})
	}
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fatal reports err and returns the ExitError the command should return.
func (f *OutputFormatter) Fatal(err error) *ExitError {
	code := errorCode(err)
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(ExitFatal, code, err)
}

// Usage reports a usage problem and returns the ExitError for it.
func (f *OutputFormatter) Usage(message string) *ExitError {
	_ = f.Error(ErrCodeUsage, message, nil)
	return NewExitError(ExitUsage, message)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
