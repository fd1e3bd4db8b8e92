package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/conform/internal/suite"
)

// NewSuiteCommand creates the suite command.
func NewSuiteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suite <manifest>",
		Short: "Run every skill listed in a suite manifest",
		Long: `Run several examples documents, each against its own runner, from a YAML or
CUE manifest.

Example paths are relative to the manifest, and runners execute in the
manifest's directory. A fatal error in one skill does not stop the others; the
exit status is the worst of all skills.

Exit codes:
  0 - Every skill passed
  2 - At least one example failed
  3 - At least one skill could not run, or the manifest is invalid

Examples:
  conform suite skills.yaml
  conform suite skills.cue --parallel 4
  conform suite skills.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd, rootOpts, args[0])
		},
	}

	return cmd
}

func runSuite(cmd *cobra.Command, opts *RootOptions, path string) error {
	f := opts.formatter(cmd)

	m, err := suite.Load(path)
	if err != nil {
		return f.Fatal(err)
	}
	f.VerboseLog("Loaded %d skill(s) from %s", len(m.Skills), path)

	results := m.Run(cmd.Context(), suite.Options{
		Parallel: opts.Parallel,
		FailFast: opts.FailFast,
		Output:   opts.progress(cmd),
		Logger:   opts.logger,
	})

	if opts.Format != "json" {
		suite.WriteSummary(cmd.OutOrStdout(), results)
	}

	failed := 0
	for _, r := range results {
		if r.Status != suite.StatusPassed {
			failed++
		}
	}
	message := fmt.Sprintf("%d of %d skill(s) did not pass", failed, len(results))

	switch suite.Worst(results) {
	case suite.StatusFatal:
		code := ErrCodeLoad
		for _, r := range results {
			if r.Status == suite.StatusFatal {
				code = errorCode(r.Err)
				break
			}
		}
		_ = f.Failure(code, message, results)
		return NewExitError(ExitFatal, message)
	case suite.StatusFailed:
		_ = f.Failure(ErrCodeTestFailed, message, results)
		return NewExitError(ExitFailure, message)
	}

	if opts.Format == "json" {
		return f.Success(results)
	}
	return nil
}
