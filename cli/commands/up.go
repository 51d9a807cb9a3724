package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/complyops/revctl/cli/internal/ui"
	"github.com/complyops/revctl/runner"
)

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending revisions in topological order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			graph, err := loadGraph(cfg)
			if err != nil {
				return err
			}
			db, provider, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := runner.New(db, provider, graph).Up(context.Background())
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				ui.Info("Nothing to apply, database is up to date")
				return nil
			}
			for _, id := range applied {
				ui.Success("applied %s", id)
			}
			return nil
		},
	}
}
