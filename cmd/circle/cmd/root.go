// Package cmd provides the circle CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"circle/internal/app"
	"circle/internal/config"
	"circle/internal/logger"
)

type options struct {
	dbDriver string
	dbPath   string
	debug    bool
}

// NewRootCmd builds the command tree. Each call returns a fresh tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "circle",
		Short: "Local-first personal ledger",
		Long: `circle manages the ledger behind the Circle API from the terminal.

Example:
  circle import export.csv
  circle balances
  circle list --account Checking`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			env := "production"
			if opts.debug {
				env = "development"
			}
			logger.Init(env)
		},
	}

	root.PersistentFlags().StringVar(&opts.dbDriver, "db-driver", "", "storage backend: sqlite, postgres or bolt (default from DB_DRIVER)")
	root.PersistentFlags().StringVar(&opts.dbPath, "db-path", "", "database file for sqlite and bolt (default from DB_PATH)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newImportCmd(opts),
		newBalancesCmd(opts),
		newListCmd(opts),
		newSeedCmd(opts),
		newHashPassphraseCmd(),
	)
	return root
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// open loads configuration, applies flag overrides and opens the ledger.
func (o *options) open() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.dbDriver != "" {
		cfg.DBDriver = o.dbDriver
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}

	return app.Open(cfg)
}
