// ABOUTME: MCP server subcommand
// ABOUTME: Serves deal tools, resources and prompts over stdio
package cli

import (
	"github.com/harperreed/dealflow/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMCPCommand(s *session, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}
			app.Logger.Info("starting MCP server",
				zap.String("version", version),
				zap.String("backend", s.cfg.Backend),
				zap.String("user", s.cfg.User))

			server := handlers.NewServer(app.Engine, s.cfg.User, version)
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
