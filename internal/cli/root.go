package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/conform/internal/harness"
	"github.com/roach88/conform/internal/invoke"
	"github.com/roach88/conform/internal/logger"
	"github.com/roach88/conform/internal/normalize"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	LogFormat string // "auto" | "text" | "json"
	Parallel  int
	FailFast  bool

	// logger is built from the flags before any command runs.
	logger *slog.Logger
}

// RunOptions holds the flags of a single-corpus run on the root command.
type RunOptions struct {
	*RootOptions
	Examples string
	Runner   string
	Timeout  int // seconds
	Fuzzy    bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the conform CLI.
func NewRootCommand() *cobra.Command {
	rootOpts := &RootOptions{}
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "conform",
		Short: "Check a runner against a corpus of input/expected-output examples",
		Long: `Run every example of an examples document through a runner command and
compare its output with the expected output.

Each example is an "Input:" block followed, anywhere later in the document, by an
"Expected output:" block, both fenced as text code blocks. The runner is executed
through the shell once per example with the input on stdin; its stdout is the
actual output.

Exit codes:
  0 - All examples passed
  1 - Usage error
  2 - One or more examples failed
  3 - Fatal: corpus mismatch, unreadable document, or runner launch failure

Examples:
  conform --examples references/examples.md --runner "python3 scripts/mock_runner.py"
  conform --examples examples.md --runner ./adapter --timeout 30 --fuzzy
  conform --examples examples.md --runner ./adapter --parallel 4 --format json
  conform suite skills.yaml
  conform parse --examples examples.md`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(rootOpts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", rootOpts.Format, ValidFormats)
			}
			if rootOpts.Parallel < 1 {
				return fmt.Errorf("invalid --parallel %d: must be at least 1", rootOpts.Parallel)
			}

			level := slog.LevelWarn
			if rootOpts.Verbose {
				level = slog.LevelDebug
			}
			l, err := logger.New(cmd.ErrOrStderr(), logger.Options{Level: level, Format: rootOpts.LogFormat})
			if err != nil {
				return err
			}
			rootOpts.logger = l
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarness(cmd, opts)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&rootOpts.Verbose, "verbose", "v", false, "debug logging to stderr")
	cmd.PersistentFlags().StringVar(&rootOpts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&rootOpts.LogFormat, "log-format", logger.FormatAuto, "log format (auto|text|json)")
	cmd.PersistentFlags().IntVar(&rootOpts.Parallel, "parallel", 1, "maximum concurrent runner invocations")
	cmd.PersistentFlags().BoolVar(&rootOpts.FailFast, "fail-fast", false, "stop after the first failing example")

	// Single-run flags
	cmd.Flags().StringVar(&opts.Examples, "examples", "", "path to the examples document")
	cmd.Flags().StringVar(&opts.Runner, "runner", "", "shell command that reads stdin and writes stdout")
	cmd.Flags().IntVar(&opts.Timeout, "timeout", 10, "per-example timeout in seconds")
	cmd.Flags().BoolVar(&opts.Fuzzy, "fuzzy", false, "compare with all whitespace runs collapsed")

	// Add subcommands
	cmd.AddCommand(NewSuiteCommand(rootOpts))
	cmd.AddCommand(NewParseCommand(rootOpts))

	return cmd
}

func runHarness(cmd *cobra.Command, opts *RunOptions) error {
	f := opts.formatter(cmd)

	if opts.Examples == "" || opts.Runner == "" {
		return f.Usage("both --examples and --runner are required")
	}
	if opts.Timeout <= 0 {
		return f.Usage(fmt.Sprintf("--timeout must be a positive number of seconds, got %d", opts.Timeout))
	}

	cfg := harness.Config{
		Examples: opts.Examples,
		Runner:   opts.Runner,
		Timeout:  time.Duration(opts.Timeout) * time.Second,
		Mode:     normalize.FromFuzzy(opts.Fuzzy),
		Parallel: opts.Parallel,
		FailFast: opts.FailFast,
	}

	shell := invoke.NewShellInvoker()
	shell.Logger = opts.logger

	h := harness.New(cfg,
		harness.WithInvoker(shell),
		harness.WithLogger(opts.logger),
		harness.WithOutput(opts.progress(cmd)),
	)

	f.VerboseLog("Running %s against %s (%s, timeout %s)", opts.Runner, opts.Examples, cfg.Mode, cfg.Timeout)

	report, err := h.Run(cmd.Context())
	if err != nil {
		return f.Fatal(err)
	}

	if report.Failures > 0 {
		_ = f.Failure(ErrCodeTestFailed, report.Summary(), report)
		return NewExitError(ExitFailure, report.Summary())
	}
	if opts.Format == "json" {
		return f.Success(report)
	}
	return nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// progress is where per-example blocks go: stdout for text, nowhere for JSON
// so the response stays a single document.
func (o *RootOptions) progress(cmd *cobra.Command) io.Writer {
	if o.Format == "json" {
		return io.Discard
	}
	return cmd.OutOrStdout()
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
