// ABOUTME: Engine wires the catalog, deal store and persistence together
// ABOUTME: All deal mutations flow through it so history and timestamps stay consistent
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/harperreed/dealflow/catalog"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/store"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type Engine struct {
	catalog *catalog.Catalog
	store   *store.Store
	repo    Repository
	views   ViewRepository

	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
	newID    func() string

	// guards deal number allocation
	createMu sync.Mutex
}

type Option func(*Engine)

func WithRepository(r Repository) Option {
	return func(e *Engine) { e.repo = r }
}

func WithViews(v ViewRepository) Option {
	return func(e *Engine) { e.views = v }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithClock sets the time source for history entries and close dates.
// The store keeps its own clock for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(cat *catalog.Catalog, st *store.Store, opts ...Option) *Engine {
	e := &Engine{
		catalog:  cat,
		store:    st,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		now:      time.Now,
		newID:    func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Load replaces the store contents with the repository's deals.
func (e *Engine) Load(ctx context.Context) error {
	if e.repo == nil {
		return nil
	}
	deals, err := e.repo.LoadDeals(ctx)
	if err != nil {
		return fmt.Errorf("failed to load deals: %w", err)
	}
	if err := e.store.Replace(deals); err != nil {
		return fmt.Errorf("failed to load deals: %w", err)
	}
	e.logger.Info("deals loaded", zap.Int("count", len(deals)))
	return nil
}

// Deals returns a snapshot of every deal.
func (e *Engine) Deals() []models.Deal {
	return e.store.All()
}

func (e *Engine) Deal(id string) (models.Deal, error) {
	d, err := e.store.Get(id)
	if err != nil {
		return models.Deal{}, fmt.Errorf("%w: %s", ErrUnknownDeal, id)
	}
	return d, nil
}

// History returns the deal's stage history, oldest first.
func (e *Engine) History(id string) ([]models.StageHistoryEntry, error) {
	d, err := e.Deal(id)
	if err != nil {
		return nil, err
	}
	return d.StageHistory, nil
}

// Delete removes a deal locally then from the repository.
func (e *Engine) Delete(ctx context.Context, id string) error {
	unlock := e.store.Lock(id)
	defer unlock()
	return e.deleteLocked(ctx, id)
}

func (e *Engine) deleteLocked(ctx context.Context, id string) error {
	if err := e.store.Remove(id); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownDeal, id)
	}
	e.logger.Info("deal deleted", zap.String("deal_id", id))

	if e.repo == nil {
		return nil
	}
	if err := e.repo.DeleteDeal(ctx, id); err != nil {
		return e.transportFailure("delete", id, err)
	}
	return nil
}

// commit stores the deal and then persists it. A transport failure keeps
// the local change and is returned wrapped in ErrTransport.
func (e *Engine) commit(ctx context.Context, d models.Deal) (models.Deal, error) {
	stored, err := e.store.Upsert(d)
	if err != nil {
		if errors.Is(err, store.ErrInvalid) {
			return models.Deal{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return models.Deal{}, err
	}

	if e.repo == nil {
		return stored, nil
	}
	if err := e.repo.SaveDeal(ctx, stored); err != nil {
		return stored, e.transportFailure("save", stored.ID, err)
	}
	return stored, nil
}

func (e *Engine) transportFailure(op, id string, err error) error {
	e.recorder.PersistFailed(op)
	e.logger.Warn("persistence failed",
		zap.String("op", op),
		zap.String("deal_id", id),
		zap.Error(err))
	return fmt.Errorf("%w: %s deal %s: %w", ErrTransport, op, id, err)
}

func (e *Engine) observe(op string, start time.Time) {
	e.recorder.ObserveDuration(op, time.Since(start).Seconds())
}
