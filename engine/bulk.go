// ABOUTME: Applies one action to many deals with independent per-item outcomes
// ABOUTME: A failing deal never stops the rest of the batch
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/harperreed/dealflow/models"
	"go.uber.org/zap"
)

type BulkAction string

const (
	ActionTransfer    BulkAction = "transfer"
	ActionUpdateStage BulkAction = "update-stage"
	ActionAddTags     BulkAction = "add-tags"
	ActionRemoveTags  BulkAction = "remove-tags"
	ActionArchive     BulkAction = "archive"
	ActionDelete      BulkAction = "delete"
)

// BulkActions lists the supported actions.
var BulkActions = []BulkAction{
	ActionTransfer, ActionUpdateStage, ActionAddTags,
	ActionRemoveTags, ActionArchive, ActionDelete,
}

type BulkParams struct {
	OwnerID   string
	StageID   string
	Tags      []string
	ChangedBy string
	Reason    string
	// Progress, when set, is called after each item completes.
	Progress func(done, total int)
}

// BatchResult reports every id exactly once in Succeeded or Failed.
// Unsynced lists succeeded deals whose local change could not be persisted.
type BatchResult struct {
	Succeeded []string    `json:"succeeded"`
	Failed    []ItemError `json:"failed"`
	Unsynced  []ItemError `json:"unsynced,omitempty"`
}

func (p BulkParams) check(action BulkAction) error {
	switch action {
	case ActionTransfer:
		if p.OwnerID == "" {
			return validationf("transfer needs an owner")
		}
	case ActionUpdateStage:
		if p.StageID == "" {
			return validationf("update-stage needs a stage")
		}
		if p.ChangedBy == "" {
			return validationf("update-stage needs changed_by")
		}
	case ActionAddTags, ActionRemoveTags:
		if len(models.NormalizeTags(p.Tags)) == 0 {
			return validationf("%s needs at least one tag", action)
		}
	case ActionArchive, ActionDelete:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return nil
}

// Apply runs action over ids in order. Duplicate ids are processed once.
// Only an unknown action or unusable params fail the call as a whole.
func (e *Engine) Apply(ctx context.Context, action BulkAction, ids []string, p BulkParams) (BatchResult, error) {
	defer e.observe("bulk", time.Now())

	if err := p.check(action); err != nil {
		return BatchResult{}, err
	}

	ids = dedupe(ids)
	res := BatchResult{Succeeded: []string{}, Failed: []ItemError{}}

	for i, id := range ids {
		var err error
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		} else {
			err = e.applyOne(ctx, action, id, p)
		}

		switch {
		case err == nil:
			res.Succeeded = append(res.Succeeded, id)
			e.recorder.BulkItem(string(action), "succeeded")
		case errors.Is(err, ErrTransport):
			res.Succeeded = append(res.Succeeded, id)
			res.Unsynced = append(res.Unsynced, ItemError{ID: id, Err: err})
			e.recorder.BulkItem(string(action), "unsynced")
		default:
			res.Failed = append(res.Failed, ItemError{ID: id, Err: err})
			e.recorder.BulkItem(string(action), "failed")
		}

		if p.Progress != nil {
			p.Progress(i+1, len(ids))
		}
	}

	e.logger.Info("bulk action applied",
		zap.String("action", string(action)),
		zap.Int("succeeded", len(res.Succeeded)),
		zap.Int("failed", len(res.Failed)),
		zap.Int("unsynced", len(res.Unsynced)))
	return res, nil
}

func (e *Engine) applyOne(ctx context.Context, action BulkAction, id string, p BulkParams) error {
	unlock := e.store.Lock(id)
	defer unlock()

	var err error
	switch action {
	case ActionUpdateStage:
		_, err = e.transitionLocked(ctx, TransitionRequest{
			DealID:    id,
			ToStageID: p.StageID,
			ChangedBy: p.ChangedBy,
			Reason:    p.Reason,
		})
	case ActionDelete:
		err = e.deleteLocked(ctx, id)
	default:
		_, err = e.mutateLocked(ctx, id, func(d *models.Deal) error {
			editForAction(action, d, p)
			return nil
		})
	}

	if err != nil && !errors.Is(err, ErrTransport) {
		e.logger.Info("bulk item failed",
			zap.String("action", string(action)),
			zap.String("deal_id", id),
			zap.Error(err))
	}
	return err
}

func editForAction(action BulkAction, d *models.Deal, p BulkParams) {
	switch action {
	case ActionTransfer:
		d.OwnerID = p.OwnerID
	case ActionAddTags:
		d.Tags = models.NormalizeTags(append(d.Tags, p.Tags...))
	case ActionRemoveTags:
		d.Tags = slices.DeleteFunc(d.Tags, func(t string) bool {
			return slices.Contains(p.Tags, t)
		})
	case ActionArchive:
		d.Health = models.HealthArchived
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
