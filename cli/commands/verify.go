package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/complyops/revctl/cli/internal/config"
	"github.com/complyops/revctl/cli/internal/ui"
	"github.com/complyops/revctl/inspect"
	"github.com/complyops/revctl/verify"
)

func newVerifyCommand() *cobra.Command {
	var expectFields []string
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "verify <table> [table...]",
		Short: "Introspect live tables and check expected fields",
		Long: `Read a table's live columns, foreign keys, and indexes from the
database and report which expected fields are present. Expected fields
come from --expect or from a manifest file. A table that does not exist
is an error, not a table with every field missing.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, provider, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ins, err := inspect.NewInspector(db, provider)
			if err != nil {
				return err
			}

			var manifest *verify.Manifest
			if manifestPath != "" {
				data, err := afero.ReadFile(config.AppFs, manifestPath)
				if err != nil {
					return fmt.Errorf("reading manifest: %w", err)
				}
				if manifest, err = verify.ParseManifest(manifestPath, data); err != nil {
					return err
				}
			}

			ctx := context.Background()
			allOk := true
			for _, table := range args {
				expected := expectFields
				if manifest != nil {
					expected = manifest.Expected(table)
				}

				report, err := verify.Run(ctx, ins, table, expected)
				if err != nil {
					return err
				}
				if _, err := report.WriteTo(os.Stdout); err != nil {
					return err
				}
				fmt.Println()
				if !report.Ok() {
					allOk = false
				}
			}

			if !allOk {
				ui.Error("verification failed: expected fields are missing")
				return fmt.Errorf("expected fields missing")
			}
			ui.Success("all expected fields present")
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&expectFields, "expect", nil, "expected column names (comma separated)")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "expectation manifest file")
	return cmd
}
