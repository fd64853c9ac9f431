// ABOUTME: Runtime configuration from .env files and DEALFLOW_* environment variables
// ABOUTME: Defaults the database to the XDG data directory
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// AppName names the data directory and charm database.
const AppName = "dealflow"

// Storage backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendCharm    = "charm"
)

type Config struct {
	Backend     string `env:"DEALFLOW_BACKEND" envDefault:"sqlite"`
	DBPath      string `env:"DEALFLOW_DB_PATH"`
	PostgresDSN string `env:"DEALFLOW_POSTGRES_DSN"`
	CatalogPath string `env:"DEALFLOW_CATALOG"`

	LogLevel  string `env:"DEALFLOW_LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"DEALFLOW_LOG_FORMAT" envDefault:"console"`

	// MetricsAddr enables the Prometheus endpoint when set, e.g. ":9464".
	MetricsAddr string `env:"DEALFLOW_METRICS_ADDR"`

	CharmHost string `env:"CHARM_HOST"`
	AutoSync  bool   `env:"DEALFLOW_AUTO_SYNC" envDefault:"true"`

	// User recorded as changed_by when a command does not name one.
	User string `env:"DEALFLOW_USER"`
}

// Load reads .env (if present) then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
	}
	return parse(env.Options{})
}

// FromMap builds a config from explicit variables, ignoring the process environment.
func FromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	if cfg.User == "" {
		cfg.User = os.Getenv("USER")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendCharm:
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return errors.New("DEALFLOW_POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

// DefaultDBPath is $XDG_DATA_HOME/dealflow/deals.db.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, AppName, "deals.db")
}
