// ABOUTME: Pipeline catalog CLI commands
// ABOUTME: Lists pipelines and the ordered stages of each
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPipelinesCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pipelines",
		Aliases: []string{"pipeline"},
		Short:   "Inspect the pipeline catalog",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List pipelines",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := s.open(cmd)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout())
				writeRow(tw, "ID", "NAME", "STAGES", "DEFAULT", "ACTIVE")
				for _, p := range app.Engine.Catalog().Pipelines() {
					writeRow(tw, p.ID, p.Name, fmt.Sprintf("%d", len(p.Stages)), yesNo(p.IsDefault), yesNo(p.IsActive))
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "stages [pipeline]",
			Short: "List a pipeline's stages in order",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := s.open(cmd)
				if err != nil {
					return err
				}
				cat := app.Engine.Catalog()
				p, err := cat.DefaultPipeline()
				if len(args) == 1 {
					p, err = cat.Pipeline(args[0])
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				heading(out, p.Name)
				tw := newTable(out)
				writeRow(tw, "POS", "ID", "NAME", "PROB", "CLOSED")
				for _, st := range p.Stages {
					closed := "-"
					switch {
					case st.IsClosedWon:
						closed = "won"
					case st.IsClosedLost:
						closed = "lost"
					}
					writeRow(tw, fmt.Sprintf("%d", st.Position), st.ID, st.Name, fmt.Sprintf("%d%%", st.Probability), closed)
				}
				return tw.Flush()
			},
		},
	)
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
