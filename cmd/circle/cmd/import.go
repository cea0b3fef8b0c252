package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"circle/internal/importer"
)

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a CSV export",
		Long: `Import every row of a CSV export, or none of them.

Columns: date, description, category, payee, notes, status, account,
transfer account, amount. The first line is a header.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			result, err := a.Imports.Import(cmd.Context(), file, func(e importer.Event) {
				if e.Err == nil {
					fmt.Fprintf(out, "[%d/%d] %s\n", e.Processed, e.Total, e.Message)
				}
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "%d transaction(s) written\n", len(result.Change.Created))
			return nil
		},
	}
}
