// ABOUTME: Charm sync CLI commands
// ABOUTME: Status, manual sync and wipe for the charm backend
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/dealflow/config"
	"github.com/spf13/cobra"
)

var errNotCharm = errors.New("sync commands require the charm backend (--backend charm)")

func newSyncCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync deals with the charm server",
	}

	charmApp := func(cmd *cobra.Command) (*App, error) {
		if s.cfg.Backend != config.BackendCharm {
			return nil, errNotCharm
		}
		app, err := s.open(cmd)
		if err != nil {
			return nil, err
		}
		if app.Charm == nil {
			return nil, errNotCharm
		}
		return app, nil
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show sync configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := charmApp(cmd)
			if err != nil {
				return err
			}
			cfg := app.Charm.Config()
			id, err := app.Charm.ID()
			if err != nil {
				id = "(not linked: " + err.Error() + ")"
			}

			tw := newTable(cmd.OutOrStdout())
			writeRow(tw, "Host", cfg.Host)
			writeRow(tw, "Auto sync", yesNo(cfg.AutoSync))
			writeRow(tw, "Charm ID", id)
			writeRow(tw, "Deals", fmt.Sprintf("%d", len(app.Engine.Deals())))
			return tw.Flush()
		},
	}

	now := &cobra.Command{
		Use:   "now",
		Short: "Sync with the charm server immediately",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := charmApp(cmd)
			if err != nil {
				return err
			}
			if err := app.Charm.Sync(); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✓ Synced")
			return nil
		},
	}

	var confirm bool
	wipe := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every deal and view from the local charm database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), "This deletes all local deal data. Type 'wipe' to confirm: ")
				var answer string
				_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
				if strings.TrimSpace(answer) != "wipe" {
					return errors.New("aborted")
				}
			}
			app, err := charmApp(cmd)
			if err != nil {
				return err
			}
			if err := app.Charm.Reset(); err != nil {
				return fmt.Errorf("wipe failed: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✓ Local data wiped")
			return nil
		},
	}
	wipe.Flags().BoolVar(&confirm, "yes", false, "Skip the confirmation prompt")

	cmd.AddCommand(status, now, wipe)
	return cmd
}
