package commands

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/complyops/revctl/cli/internal/ui"
	"github.com/complyops/revctl/runner"
)

func newDownCommand() *cobra.Command {
	var steps int
	var yes bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied revisions, newest first",
		Long: `Roll back the most recently applied revisions. Rolling back a merge
revision only removes its history row; the schema is untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			graph, err := loadGraph(cfg)
			if err != nil {
				return err
			}

			if !yes {
				confirmed := false
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("Roll back up to %d revision(s)?", steps),
				}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					return err
				}
				if !confirmed {
					ui.Info("Aborted")
					return nil
				}
			}

			db, provider, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			rolledBack, err := runner.New(db, provider, graph).Down(context.Background(), steps)
			if err != nil {
				return err
			}
			if len(rolledBack) == 0 {
				ui.Info("Nothing to roll back")
				return nil
			}
			for _, id := range rolledBack {
				ui.Success("rolled back %s", id)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "number of revisions to roll back")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}
