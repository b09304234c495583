package commands

import (
	"time"

	"github.com/spf13/cobra"
)

// wipeCmd deletes everything
var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every node and relationship",
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

		console.Step("Clearing database")
		res := loader.Wipe(ctx)
		if res.Failed() {
			console.Failed("Clearing database", res.Err())
			return nil
		}
		c := res.Counters()
		console.Success("Database cleared (%d nodes, %d relationships deleted in %s)",
			c.NodesDeleted, c.RelationshipsDeleted, res.Elapsed().Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(wipeCmd)
}
