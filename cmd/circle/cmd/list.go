package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"circle/internal/app"
	"circle/internal/money"
	"circle/internal/store"
	"circle/internal/view"
)

func newListCmd(opts *options) *cobra.Command {
	var (
		account  string
		pageSize int
		pages    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions grouped by date, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			scope, err := resolveAccount(cmd, a, account)
			if err != nil {
				return err
			}

			s := view.New(a.Gateway, a.Ledger, pageSize)
			s.SetScope(scope)
			if err := s.FreshLoad(cmd.Context()); err != nil {
				return err
			}
			for i := 1; i < pages && !s.Exhausted(); i++ {
				if err := s.LoadMore(cmd.Context()); err != nil {
					return err
				}
			}

			currencies := make(map[string]string)
			accounts, err := a.Gateway.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}
			for _, acc := range accounts {
				currencies[acc.ID] = acc.Currency
			}

			printEntries(cmd.OutOrStdout(), s.Grouped(), currencies)
			if !s.Exhausted() {
				fmt.Fprintln(cmd.OutOrStdout(), "... more rows, raise --pages")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "restrict to one account, by name or id")
	cmd.Flags().IntVar(&pageSize, "page-size", view.DefaultPageSize, "rows per page")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")
	return cmd
}

// resolveAccount maps a name or id to an account id. Empty means all accounts.
func resolveAccount(cmd *cobra.Command, a *app.App, nameOrID string) (string, error) {
	if nameOrID == "" {
		return "", nil
	}
	acc, err := a.Gateway.FindAccountByName(cmd.Context(), nameOrID)
	if err == nil {
		return acc.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	if acc, err = a.Gateway.GetAccount(cmd.Context(), nameOrID); err != nil {
		return "", fmt.Errorf("unknown account %q", nameOrID)
	}
	return acc.ID, nil
}

func printEntries(out io.Writer, entries []view.Entry, currencies map[string]string) {
	for _, e := range entries {
		if e.Header {
			fmt.Fprintf(out, "%s\n", e.Label)
			continue
		}
		tx := e.Transaction
		name := ""
		switch {
		case tx.Category != nil:
			name = tx.Category.Name
		case tx.ToAccount != nil && tx.FromAccount != nil:
			name = tx.FromAccount.Name + " -> " + tx.ToAccount.Name
		}
		payee := ""
		if tx.Payee != nil {
			payee = tx.Payee.Name
		}
		fmt.Fprintf(out, "  %-7s %-8s %14s  %-20s %-16s %s\n",
			tx.Status, tx.Type, money.Format(tx.Amount, currencies[tx.AccountID]), name, payee, tx.Note)
	}
}
