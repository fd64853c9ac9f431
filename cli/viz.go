// ABOUTME: Visualization CLI commands
// ABOUTME: Terminal dashboard and Graphviz stage-flow output
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/viz"
	"github.com/spf13/cobra"
)

func newVizCommand(s *session) *cobra.Command {
	var pipelineID string
	cmd := &cobra.Command{
		Use:   "viz",
		Short: "Pipeline dashboard and flow graph",
	}
	cmd.PersistentFlags().StringVar(&pipelineID, "pipeline", "", "Pipeline id (default: the default pipeline)")

	pipeline := func(cmd *cobra.Command) (*App, models.Pipeline, error) {
		app, err := s.open(cmd)
		if err != nil {
			return nil, models.Pipeline{}, err
		}
		cat := app.Engine.Catalog()
		if pipelineID == "" {
			p, err := cat.DefaultPipeline()
			return app, p, err
		}
		p, err := cat.Pipeline(pipelineID)
		return app, p, err
	}

	var output string
	flow := &cobra.Command{
		Use:   "flow",
		Short: "Render stage-to-stage movement as Graphviz",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, p, err := pipeline(cmd)
			if err != nil {
				return err
			}
			dot, stats, err := viz.NewGraphGenerator(p, app.Engine.Deals()).GenerateFlowGraph(cmd.Context())
			if err != nil {
				return err
			}
			if output != "" {
				if err := os.WriteFile(output, []byte(dot), 0644); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d stages and %d transitions to %s\n",
					stats.NodeCount, stats.EdgeCount, output)
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), dot)
			return nil
		},
	}
	flow.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")

	dashboard := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the pipeline dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, p, err := pipeline(cmd)
			if err != nil {
				return err
			}
			stats := viz.GenerateDashboardStats(app.Engine.Catalog(), p, app.Engine.Deals(), time.Now())
			_, _ = fmt.Fprint(cmd.OutOrStdout(), viz.RenderDashboard(stats))
			return nil
		},
	}

	cmd.AddCommand(dashboard, flow)
	return cmd
}
