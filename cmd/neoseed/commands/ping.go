package commands

import (
	"github.com/spf13/cobra"
)

// pingCmd checks connectivity
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the database is reachable",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		conn, err := connect(ctx, cmd)
		if err != nil {
			return err
		}
		defer closeConnection(ctx, conn)

		if err := conn.Verify(ctx); err != nil {
			return err
		}
		console.Success("Connected")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
