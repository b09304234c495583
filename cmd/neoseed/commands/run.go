package commands

import (
	"github.com/spf13/cobra"
)

// runCmd runs the full workflow
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Wipe, seed, link, query and add/remove (default)",
	Long: `Run the whole workflow against the configured database:

  1. delete every node and relationship
  2. create roles, users and tests
  3. derive HAS_ROLE and CREATED relationships
  4. run the report queries
  5. add a user with its role, then delete it again

A failing step is reported and the next one still runs. The exit status is
non-zero only when the database cannot be reached.

Examples:
  neoseed run --password secret
  NEO4J_PASSWORD=secret neoseed
  neoseed run --fixtures ./seed.yaml`,
	RunE: runWorkflow,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runWorkflow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	conn, err := connect(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeConnection(ctx, conn)

	loader, err := newLoader(conn)
	if err != nil {
		return err
	}

	reportSummary(loader.Run(ctx))
	teardown(ctx, conn)
	return nil
}
