package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/complyops/revctl/cli/internal/ui"
	"github.com/complyops/revctl/runner"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending revisions",
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

			st, err := runner.New(db, provider, graph).Status(context.Background())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(st.Applied)+len(st.Pending))
			for _, rec := range st.Applied {
				rows = append(rows, []string{rec.Revision, ui.PresentMark("applied"), rec.AppliedAt.Format("2006-01-02 15:04:05")})
			}
			for _, rev := range st.Pending {
				rows = append(rows, []string{rev.ID, ui.MissingMark("pending"), ""})
			}
			ui.Table([]string{"Revision", "State", "Applied at"}, rows)

			for _, id := range st.Unknown {
				ui.Warning("history row %s has no revision file", id)
			}
			if len(st.Pending) == 0 {
				ui.Success("Database is up to date")
			} else {
				ui.Info("%d revision(s) pending", len(st.Pending))
			}
			return nil
		},
	}
}
