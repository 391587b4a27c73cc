// Package cli implements the tursu command line: dry-run validation and
// feature inventory over .feature files.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "tursu",
		Short:         "Parse, validate, and inspect Gherkin feature files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newValidateCommand())
	root.AddCommand(newListCommand())
	return root
}
