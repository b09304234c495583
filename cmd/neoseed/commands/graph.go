package commands

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"

	neoseed "github.com/saulfrancisco-ruizacevedo/go-neoseed"
)

const defaultGraphQuery = "MATCH (a)-[r]->(b) RETURN a, r, b"

var (
	// Graph flags
	graphQuery string
)

// graphCmd exports the graph as JSON
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the current graph as JSON",
	Long: `Print the nodes and relationships returned by a Cypher query as JSON.
Nodes and relationships appearing in several rows are listed once.

Examples:
  neoseed graph
  neoseed graph --query "MATCH (a:User)-[r:HAS_ROLE]->(b) RETURN a, r, b"`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		conn, err := connect(ctx, cmd)
		if err != nil {
			return err
		}
		defer closeConnection(ctx, conn)

		g, err := neoseed.NewRelationManager(conn).FindGraph(ctx, graphQuery, nil)
		if errors.Is(err, neoseed.ErrNotFound) {
			g = &neoseed.GraphResult{Nodes: []*neoseed.GraphNode{}, Edges: []*neoseed.Edge{}}
		} else if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringVarP(&graphQuery, "query", "q", defaultGraphQuery, "Cypher query returning nodes and relationships")
}
