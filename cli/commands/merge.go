package commands

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/complyops/revctl/cli/internal/ui"
)

func newMergeCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Create a merge revision reconciling the current heads",
		Long: `Write a new revision file whose parents are all current heads of the
graph. The merge has empty up and down bodies: applying it changes no
schema, it only gives the runner a single successor state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			graph, err := loadGraph(cfg)
			if err != nil {
				return err
			}

			heads := graph.Heads()
			if len(heads) < 2 {
				ui.Info("Graph has %d head(s), nothing to merge", len(heads))
				return nil
			}

			id := fmt.Sprintf("%s_%s", time.Now().Format("20060102150405"), name)
			content := fmt.Sprintf("-- revision: %s\n-- parents: %s\n", id, strings.Join(heads, ", "))
			path := filepath.Join(cfg.MigrationsDir, id+".sql")
			if err := writeFile(path, []byte(content)); err != nil {
				return fmt.Errorf("writing merge revision: %w", err)
			}

			ui.Success("created %s merging %s", path, strings.Join(heads, ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "merge", "name appended to the generated revision id")
	return cmd
}
