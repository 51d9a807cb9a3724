package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/complyops/revctl/cli/internal/ui"
	"github.com/complyops/revctl/cli/internal/watch"
	"github.com/complyops/revctl/revision"
)

func newGraphCommand() *cobra.Command {
	var watchMode bool

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Validate the revision graph and print its topological order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			show := func() error {
				graph, err := loadGraph(cfg)
				if err != nil {
					return err
				}
				printGraph(graph)
				return nil
			}

			if !watchMode {
				return show()
			}

			w, err := watch.NewWatcher(cfg.MigrationsDir, show)
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return err
			}
			defer w.Stop()

			ui.Info("Watching %s for changes (ctrl-c to stop)", cfg.MigrationsDir)
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt)
			<-sig
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "revalidate whenever a revision file changes")
	return cmd
}

func printGraph(graph *revision.Graph) {
	ordered, err := graph.Order()
	if err != nil {
		ui.Error("%v", err)
		return
	}

	for _, rev := range ordered {
		var notes []string
		if rev.IsMerge() {
			notes = append(notes, "merge")
		}
		if rev.Branch != "" {
			notes = append(notes, "branch="+rev.Branch)
		}
		suffix := ""
		if len(notes) > 0 {
			suffix = " (" + strings.Join(notes, ", ") + ")"
		}
		if len(rev.Parents) == 0 {
			fmt.Printf("%s <- base%s\n", rev.ID, suffix)
		} else {
			fmt.Printf("%s <- %s%s\n", rev.ID, strings.Join(rev.Parents, ", "), suffix)
		}
	}

	heads := graph.Heads()
	if len(heads) > 1 {
		ui.Warning("%d divergent heads: %s", len(heads), strings.Join(heads, ", "))
		ui.Info("Run `revctl merge` to reconcile them")
	} else if len(heads) == 1 {
		ui.Success("Single head: %s", heads[0])
	}
}
