package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSeedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default categories in an empty ledger",
		Long: `Create the default categories when the ledger has none. The list comes
from CATEGORY_SEED_FILE when set, else the built-in defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Categories.SeedDefaults(cmd.Context())
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Categories already present, nothing to do")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d categories\n", n)
			return nil
		},
	}
}
