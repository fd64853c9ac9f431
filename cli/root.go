// ABOUTME: Root cobra command, global flags and lazy engine setup
// ABOUTME: Flags override DEALFLOW_* environment variables
package cli

import (
	"cmp"
	"fmt"

	"github.com/harperreed/dealflow/config"
	"github.com/spf13/cobra"
)

// session carries global flags and the lazily opened App through one command run.
type session struct {
	envFile     string
	dbPath      string
	backend     string
	catalogPath string
	user        string

	cfg *config.Config
	app *App
}

// NewRootCommand assembles the dealflow command tree.
func NewRootCommand(version string) *cobra.Command {
	s := &session{}

	root := &cobra.Command{
		Use:           "dealflow",
		Short:         "CRM deal pipeline engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.loadConfig()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return s.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&s.envFile, "env-file", ".env", "Environment file to load if present")
	flags.StringVar(&s.dbPath, "db-path", "", "SQLite database path (default: $XDG_DATA_HOME/dealflow/deals.db)")
	flags.StringVar(&s.backend, "backend", "", "Storage backend: sqlite, postgres or charm")
	flags.StringVar(&s.catalogPath, "catalog", "", "Pipeline catalog YAML (default: built-in pipelines)")
	flags.StringVar(&s.user, "user", "", "User recorded on changes (default: $DEALFLOW_USER or $USER)")

	root.AddCommand(
		newDealsCommand(s),
		newViewsCommand(s),
		newPipelinesCommand(s),
		newVizCommand(s),
		newBoardCommand(s, version),
		newMCPCommand(s, version),
		newWebCommand(s),
		newSyncCommand(s),
	)
	return root
}

func (s *session) loadConfig() error {
	cfg, err := config.Load(s.envFile)
	if err != nil {
		return err
	}
	if s.dbPath != "" {
		cfg.DBPath = s.dbPath
	}
	if s.backend != "" {
		cfg.Backend = s.backend
	}
	if s.catalogPath != "" {
		cfg.CatalogPath = s.catalogPath
	}
	cfg.User = cmp.Or(s.user, cfg.User, config.AppName)
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

// open returns the App, building it on first use.
func (s *session) open(cmd *cobra.Command) (*App, error) {
	if s.app != nil {
		return s.app, nil
	}
	if s.cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	app, err := OpenApp(cmd.Context(), s.cfg)
	if err != nil {
		return nil, err
	}
	s.app = app
	return app, nil
}

func (s *session) close() error {
	if s.app == nil {
		return nil
	}
	err := s.app.Close()
	s.app = nil
	return err
}
