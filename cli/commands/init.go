package commands

import (
	"fmt"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/complyops/revctl/cli/internal/config"
	"github.com/complyops/revctl/cli/internal/ui"
)

const baseRevisionTemplate = `-- revision: 0001_baseline
-- +up

-- +down
`

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Scaffold a migrations directory and starter revision",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			dir := cfg.MigrationsDir
			if flagMigrationsDir == "" {
				answer := dir
				prompt := &survey.Input{
					Message: "Migrations directory:",
					Default: dir,
				}
				if err := survey.AskOne(prompt, &answer); err != nil {
					return err
				}
				dir = answer
			}

			if err := config.AppFs.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("creating %s: %w", dir, err)
			}

			base := filepath.Join(dir, "0001_baseline.sql")
			if exists, _ := afero.Exists(config.AppFs, base); exists {
				ui.Warning("%s already exists, leaving it alone", base)
			} else if err := writeFile(base, []byte(baseRevisionTemplate)); err != nil {
				return err
			} else {
				ui.Success("created %s", base)
			}

			cfg.MigrationsDir = dir
			if err := config.Save(cfg); err != nil {
				return err
			}
			ui.Success("configuration saved")
			return nil
		},
	}
}
