package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBalancesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "balances",
		Short: "Print account balances and the combined total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			balances, err := a.Reports.Balances(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, b := range balances {
				fmt.Fprintf(out, "%-24s %s\n", b.Name, b.Label())
			}

			summary, err := a.Reports.Summary(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%-24s %s\n", "Total ("+summary.Currency+")", summary.Label())
			return nil
		},
	}
}
