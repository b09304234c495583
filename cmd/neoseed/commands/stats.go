package commands

import (
	"github.com/spf13/cobra"
)

// statsCmd runs the report queries only
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Run the report queries against the current data",
	Long: `Run the report queries without changing the database.

Examples:
  neoseed stats
  neoseed stats --fixtures ./seed.yaml   # takes author and role from the file`,
	RunE: func(cmd *cobra.Command, _ []string) error {
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

		reportSummary(loader.RunQueries(ctx))
		teardown(ctx, conn)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
