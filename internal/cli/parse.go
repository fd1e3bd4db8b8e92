package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/conform/internal/corpus"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Examples string
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "List the examples of a document without running anything",
		Long: `Parse an examples document and print the examples it contains.

No runner is invoked. Use it to check that a document is well formed: a document
whose input and expected-output block counts differ exits with status 3.

Examples:
  conform parse --examples references/examples.md
  conform parse --examples examples.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Examples, "examples", "", "path to the examples document")

	return cmd
}

func runParse(cmd *cobra.Command, opts *ParseOptions) error {
	f := opts.formatter(cmd)
	if opts.Examples == "" {
		return f.Usage("--examples is required")
	}

	c, err := corpus.Load(opts.Examples)
	if err != nil {
		return f.Fatal(err)
	}

	if opts.Format == "json" {
		return f.Success(c)
	}

	out := cmd.OutOrStdout()
	for _, ex := range c.Examples {
		fmt.Fprintf(out, "--- Example #%d ---\n", ex.ID)
		fmt.Fprintf(out, "Input:\n%s\n", ex.Input)
		fmt.Fprintf(out, "Expected output:\n%s\n\n", ex.Expected)
	}
	return f.Success(fmt.Sprintf("%d example(s) in %s", c.Len(), c.Source))
}
