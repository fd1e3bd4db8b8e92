package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// ExitTimedOut is the exit code recorded for an invocation that was killed on
// timeout. Real processes report 0..255, and processes killed by a signal are
// reported as 128+signal, so -1 never collides with them.
const ExitTimedOut = -1

// Shell exit statuses for a command that could not be found or executed.
const (
	exitNotExecutable = 126
	exitNotFound      = 127
)

// DefaultWaitDelay bounds how long Invoke waits for output pipes to close after
// the runner has exited or been killed.
const DefaultWaitDelay = 2 * time.Second

// ErrLaunch is matched by every *LaunchError via errors.Is.
var ErrLaunch = errors.New("runner launch failed")

// LaunchError reports a runner command that could not be started.
type LaunchError struct {
	Command string
	Reason  string
	Err     error
}

// Error implements the error interface.
func (e *LaunchError) Error() string {
	msg := fmt.Sprintf("failed to launch runner %q", e.Command)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrLaunch.
func (e *LaunchError) Is(target error) bool {
	return target == ErrLaunch
}

// Result is the outcome of one runner invocation. It is created per example and
// never reused.
type Result struct {
	// ExitCode is the process exit status, 128+signal for a process killed by a
	// signal, or ExitTimedOut.
	ExitCode int `json:"exit_code"`

	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`

	// TimedOut is set when the runner was killed because it exceeded the
	// timeout. Stdout and Stderr then hold whatever was captured before.
	TimedOut bool `json:"timed_out"`

	Elapsed time.Duration `json:"elapsed"`
}

// Invoker runs a runner command once with the given input.
type Invoker interface {
	Invoke(ctx context.Context, command, input string, timeout time.Duration) (*Result, error)
}

// ShellInvoker runs the runner command through a POSIX shell.
//
// Each call spawns exactly one shell in its own process group, so a timeout
// kills the runner together with anything it started.
type ShellInvoker struct {
	// Shell is the shell binary. Defaults to "sh".
	Shell string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env is the runner environment. Nil inherits the harness environment.
	Env []string

	// WaitDelay overrides DefaultWaitDelay.
	WaitDelay time.Duration

	Logger *slog.Logger
}

// NewShellInvoker returns a ShellInvoker using "sh" in the current directory.
func NewShellInvoker() *ShellInvoker {
	return &ShellInvoker{Shell: "sh"}
}

// Invoke runs command with input on stdin and waits for it to exit or for
// timeout to elapse. A timeout of zero or less disables the limit.
//
// Cancelling ctx kills the runner and returns ctx's error.
func (s *ShellInvoker) Invoke(ctx context.Context, command, input string, timeout time.Duration) (*Result, error) {
	if strings.TrimSpace(command) == "" {
		return nil, &LaunchError{Command: command, Reason: "empty command"}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("runner invocation cancelled: %w", err)
	}

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	shell := s.Shell
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.Command(shell, "-c", command)
	cmd.Dir = s.Dir
	cmd.Env = s.Env
	cmd.Stdin = strings.NewReader(input)
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	cmd.WaitDelay = s.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Command: command, Err: err}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var (
		waitErr  error
		timedOut bool
	)
	select {
	case waitErr = <-done:
	case <-runCtx.Done():
		select {
		case waitErr = <-done:
			// Exited just as the deadline fired.
		default:
			killProcessGroup(cmd)
			waitErr = <-done
			if ctx.Err() != nil {
				return nil, fmt.Errorf("runner invocation cancelled: %w", ctx.Err())
			}
			timedOut = true
		}
	}
	elapsed := time.Since(start)

	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		TimedOut: timedOut,
		Elapsed:  elapsed,
	}

	if timedOut {
		res.ExitCode = ExitTimedOut
	} else {
		code, err := exitCode(cmd, waitErr)
		if err != nil {
			return nil, fmt.Errorf("failed to wait for runner: %w", err)
		}
		res.ExitCode = code
	}

	s.logger().Debug("runner invocation finished",
		"exit_code", res.ExitCode,
		"timed_out", res.TimedOut,
		"elapsed", res.Elapsed,
		"stdout_bytes", len(res.Stdout),
		"stderr_bytes", len(res.Stderr),
	)

	return res, nil
}

// CheckLaunch reports a shell that could not find or execute command: exit
// status 126 or 127 with nothing on stdout. sh -c itself always starts, so
// this is how a missing runner executable shows up.
//
// A runner that did start may exit with the same status, so callers apply the
// check only until the runner has been seen to launch once.
func CheckLaunch(command string, res *Result) error {
	if res == nil || res.TimedOut || res.Stdout != "" {
		return nil
	}
	if res.ExitCode != exitNotFound && res.ExitCode != exitNotExecutable {
		return nil
	}
	return &LaunchError{
		Command: command,
		Reason:  fmt.Sprintf("shell exited with status %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr)),
	}
}

func (s *ShellInvoker) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// exitCode extracts the exit status from the result of cmd.Wait.
func exitCode(cmd *exec.Cmd, waitErr error) (int, error) {
	if waitErr == nil {
		return 0, nil
	}

	// The runner exited but left a descendant holding its output pipes.
	if errors.Is(waitErr, exec.ErrWaitDelay) && cmd.ProcessState != nil {
		return statusCode(cmd.ProcessState), nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return statusCode(exitErr.ProcessState), nil
	}
	return 0, waitErr
}

func statusCode(ps *os.ProcessState) int {
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return ps.ExitCode()
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, command, input string, timeout time.Duration) (*Result, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, command, input string, timeout time.Duration) (*Result, error) {
	return f(ctx, command, input, timeout)
}
