// ABOUTME: Web UI subcommand
// ABOUTME: Serves the read-only dashboard and Prometheus metrics until interrupted
package cli

import (
	"github.com/harperreed/dealflow/web"
	"github.com/spf13/cobra"
)

func newWebCommand(s *session) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the read-only web dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}
			server, err := web.NewServer(app.Engine, app.Logger, app.Recorder.Handler())
			if err != nil {
				return err
			}
			cmd.Printf("Serving dashboard at http://localhost%s\n", addr)
			return server.Start(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	return cmd
}
