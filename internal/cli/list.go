package cli

import (
	"log/slog"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/denizgursoy/tursu/pkg/loader"
)

func newListCommand() *cobra.Command {
	var tagExpr string

	cmd := &cobra.Command{
		Use:   "list <patterns>",
		Short: "List discovered features with scenario and step counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ld := loader.New(slog.Default())

			features, err := ld.ParseAll(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if tagExpr != "" {
				features, err = ld.FilterByTagExpression(features, tagExpr)
				if err != nil {
					return err
				}
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Feature", "Scenarios", "Steps", "Tags", "File"})

			totalScenarios, totalSteps := 0, 0
			for _, f := range features {
				steps := 0
				for _, sc := range f.Scenarios {
					steps += len(sc.Steps)
				}
				if f.Background != nil {
					steps += len(f.Background.Steps)
				}
				totalScenarios += len(f.Scenarios)
				totalSteps += steps
				t.AppendRow(table.Row{f.Name, len(f.Scenarios), steps, strings.Join(f.Tags, " "), f.URI})
			}
			t.AppendFooter(table.Row{"total", totalScenarios, totalSteps, "", ""})
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVarP(&tagExpr, "tags", "t", "", `tag expression, e.g. "@smoke and not @slow"`)
	return cmd
}
