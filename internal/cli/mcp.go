package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/MereWhiplash/specrag/internal/tools"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run an MCP server on stdio exposing the query, ingest and collection tools",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}

			p, done, err := rt.pipeline(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer done()

			server := mcp.NewServer(&mcp.Implementation{
				Name:    "specrag",
				Version: Version,
			}, nil)
			tools.Register(server, p)

			rt.logger.Info("starting MCP server")
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}

	cmd.Flags().String("remote", "", "Proxy tool calls to a running specrag server")
	return cmd
}
