// Package commands implements the revctl command tree.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/complyops/revctl/cli/internal/config"
	"github.com/complyops/revctl/internal/debug"
)

var (
	flagMigrationsDir string
	flagDatabaseURL   string
	flagProvider      string
	flagDebug         bool
)

// Execute runs the CLI.
func Execute() error {
	rootCmd := &cobra.Command{
		Use:   "revctl",
		Short: "Revision-graph schema migrations and live-schema verification",
		Long: `revctl manages database schema changes as a graph of revisions.
Revisions declare their parents; divergent branches are reconciled with
no-op merge revisions, and the live schema can be verified against an
expected field manifest after migrations run.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				debug.Init(true)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&flagMigrationsDir, "dir", "", "migrations directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagDatabaseURL, "url", "", "database connection string (default $DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "database provider: postgresql, mysql, or sqlite")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newUpCommand())
	rootCmd.AddCommand(newDownCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newGraphCommand())
	rootCmd.AddCommand(newMergeCommand())
	rootCmd.AddCommand(newVerifyCommand())
	rootCmd.AddCommand(newDocsCommand())
	rootCmd.AddCommand(newVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// loadConfig merges flags over the file/env configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagMigrationsDir != "" {
		cfg.MigrationsDir = flagMigrationsDir
	}
	if flagDatabaseURL != "" {
		cfg.DatabaseURL = flagDatabaseURL
	}
	if flagProvider != "" {
		cfg.Provider = flagProvider
	}
	return cfg, nil
}
