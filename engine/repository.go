// ABOUTME: Persistence contracts the engine consumes
// ABOUTME: Implemented by the SQL and Charm KV backends
package engine

import (
	"context"

	"github.com/harperreed/dealflow/models"
)

// Repository is the load/save collaborator. The engine calls SaveDeal or
// DeleteDeal after every local mutation and never retries a failure.
type Repository interface {
	LoadDeals(ctx context.Context) ([]models.Deal, error)
	SaveDeal(ctx context.Context, deal models.Deal) error
	DeleteDeal(ctx context.Context, id string) error
}

// ViewRepository persists saved filter/sort/page states by name.
type ViewRepository interface {
	SaveView(ctx context.Context, view models.ViewState) error
	GetView(ctx context.Context, name string) (models.ViewState, error)
	ListViews(ctx context.Context) ([]models.ViewState, error)
	DeleteView(ctx context.Context, name string) error
}

// Recorder receives operational counters. The telemetry package provides
// a Prometheus-backed implementation.
type Recorder interface {
	TransitionApplied(pipelineID, toStageID string)
	BulkItem(action, outcome string)
	PersistFailed(op string)
	ObserveDuration(op string, seconds float64)
}

type nopRecorder struct{}

func (nopRecorder) TransitionApplied(string, string) {}
func (nopRecorder) BulkItem(string, string)          {}
func (nopRecorder) PersistFailed(string)             {}
func (nopRecorder) ObserveDuration(string, float64)  {}
