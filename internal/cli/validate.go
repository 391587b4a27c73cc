package cli

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/denizgursoy/tursu/pkg/loader"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <patterns>",
		Short: "Parse and validate feature files, reporting every problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ld := loader.New(slog.Default())

			files, err := ld.Discover(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no feature files found for %q", args[0])
			}

			ok := color.New(color.FgGreen).SprintFunc()
			bad := color.New(color.FgRed).SprintFunc()

			failures := 0
			for _, file := range files {
				if _, parseErr := ld.ParseFile(file); parseErr != nil {
					failures++
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n  %v\n", bad("FAIL"), file, parseErr)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ok("ok"), file)
			}

			if failures > 0 {
				return fmt.Errorf("%d of %d feature files failed validation", failures, len(files))
			}
			return nil
		},
	}
}
