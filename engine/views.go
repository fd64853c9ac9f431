// ABOUTME: Saved view management on top of a ViewRepository
// ABOUTME: Views are validated before they are stored
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/dealflow/models"
)

var errNoViews = errors.New("saved views are not configured")

func (e *Engine) SaveView(ctx context.Context, v models.ViewState) error {
	v.Name = strings.TrimSpace(v.Name)
	if v.Name == "" {
		return validationf("view name is required")
	}
	if err := validateQuery(QueryOptionsFromView(v)); err != nil {
		return err
	}
	if e.views == nil {
		return errNoViews
	}
	if err := e.views.SaveView(ctx, v); err != nil {
		return fmt.Errorf("%w: save view %s: %w", ErrTransport, v.Name, err)
	}
	return nil
}

func (e *Engine) View(ctx context.Context, name string) (models.ViewState, error) {
	if e.views == nil {
		return models.ViewState{}, errNoViews
	}
	return e.views.GetView(ctx, name)
}

func (e *Engine) Views(ctx context.Context) ([]models.ViewState, error) {
	if e.views == nil {
		return nil, errNoViews
	}
	return e.views.ListViews(ctx)
}

func (e *Engine) DeleteView(ctx context.Context, name string) error {
	if e.views == nil {
		return errNoViews
	}
	return e.views.DeleteView(ctx, name)
}

// QueryView runs a saved view against the current deals.
func (e *Engine) QueryView(ctx context.Context, name string) (QueryResult, error) {
	v, err := e.View(ctx, name)
	if err != nil {
		return QueryResult{}, err
	}
	return e.Query(QueryOptionsFromView(v))
}
