// ABOUTME: Interactive kanban board subcommand
// ABOUTME: Runs the bubbletea board over the configured backend
package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/dealflow/tui"
	"github.com/spf13/cobra"
)

func newBoardCommand(s *session, version string) *cobra.Command {
	var pipelineID string
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the interactive pipeline board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd)
			if err != nil {
				return err
			}
			m, err := tui.NewModel(cmd.Context(), app.Engine, pipelineID, s.cfg.User)
			if err != nil {
				return err
			}

			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("board (dealflow %s) failed: %w", version, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pipelineID, "pipeline", "", "Pipeline id (default: the default pipeline)")
	return cmd
}
