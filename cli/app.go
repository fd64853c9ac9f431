// ABOUTME: Wires configuration, logging, storage backend and telemetry into an engine
// ABOUTME: Every subcommand that touches deals runs against an App
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/harperreed/dealflow/catalog"
	"github.com/harperreed/dealflow/charm"
	"github.com/harperreed/dealflow/config"
	"github.com/harperreed/dealflow/db"
	"github.com/harperreed/dealflow/engine"
	"github.com/harperreed/dealflow/logging"
	"github.com/harperreed/dealflow/store"
	"github.com/harperreed/dealflow/telemetry"
	"go.uber.org/zap"
)

type App struct {
	Config   *config.Config
	Engine   *engine.Engine
	Logger   *zap.Logger
	Recorder *telemetry.Recorder

	// Charm is set only for the charm backend.
	Charm *charm.Client

	closers []func() error
	cancel  context.CancelFunc
}

// OpenApp builds an engine over the configured backend and loads every deal.
func OpenApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline catalog: %w", err)
	}

	app := &App{Config: cfg, Logger: logger, Recorder: telemetry.NewRecorder()}
	app.closers = append(app.closers, func() error {
		_ = logger.Sync()
		return nil
	})

	repo, views, err := app.openBackend(ctx)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Engine = engine.New(cat, store.New(),
		engine.WithRepository(repo),
		engine.WithViews(views),
		engine.WithLogger(logger),
		engine.WithRecorder(app.Recorder))

	if err := app.Engine.Load(ctx); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to load deals: %w", err)
	}

	if cfg.MetricsAddr != "" {
		serveCtx, cancel := context.WithCancel(context.Background())
		app.cancel = cancel
		go func() {
			if err := app.Recorder.Serve(serveCtx, cfg.MetricsAddr, logger); err != nil {
				logger.Warn("metrics endpoint stopped", zap.Error(err))
			}
		}()
	}

	logger.Debug("engine ready",
		zap.String("backend", cfg.Backend),
		zap.Int("deals", len(app.Engine.Deals())))
	return app, nil
}

func (a *App) openBackend(ctx context.Context) (engine.Repository, engine.ViewRepository, error) {
	switch a.Config.Backend {
	case config.BackendSQLite:
		database, err := db.OpenDatabase(a.Config.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		return a.sqlRepository(database, db.SQLite)

	case config.BackendPostgres:
		database, err := db.OpenPostgres(ctx, a.Config.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		return a.sqlRepository(database, db.Postgres)

	case config.BackendCharm:
		host := a.Config.CharmHost
		if host == "" {
			host = charm.DefaultCharmHost
		}
		client, err := charm.Open(charm.NewConfig(host, a.Config.AutoSync))
		if err != nil {
			return nil, nil, err
		}
		a.Charm = client
		a.closers = append(a.closers, client.Close)
		repo := charm.NewKVRepository(client)
		return repo, repo, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", a.Config.Backend)
}

func (a *App) sqlRepository(database *sql.DB, dialect db.Dialect) (engine.Repository, engine.ViewRepository, error) {
	a.closers = append(a.closers, database.Close)
	repo := db.NewRepository(database, dialect)
	return repo, repo, nil
}

// Close releases the backend and stops the metrics endpoint.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
