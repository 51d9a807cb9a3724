package commands

import (
	"github.com/spf13/cobra"

	"github.com/complyops/revctl/cli/internal/ui"
)

const docsContent = `# revctl

Schema migrations as a revision graph.

## Revision files

Revisions are SQL files with a directive header:

    -- revision: 0002_ccp_limits
    -- parents: 0001_baseline
    -- branch: ccp
    -- +up
    ALTER TABLE ccp_monitoring_logs ADD COLUMN critical_limit_min NUMERIC(10,2);
    -- +down
    ALTER TABLE ccp_monitoring_logs DROP COLUMN critical_limit_min;

A revision with several parents is a **merge**: it carries no SQL and
exists only so the graph has a single head again.

## Workflow

1. Author revision files on feature branches.
2. After merging branches in version control, run ` + "`revctl graph`" + `;
   if it reports divergent heads, run ` + "`revctl merge`" + `.
3. ` + "`revctl up`" + ` applies pending revisions in topological order.
4. ` + "`revctl verify <table> --expect col1,col2`" + ` confirms the live
   schema carries the fields you expect.
`

func newDocsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "Show usage documentation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ui.Markdown(docsContent)
		},
	}
}
