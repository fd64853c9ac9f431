// ABOUTME: Stage transitions with audit history and probability side effects
// ABOUTME: Each call is all-or-nothing on a single deal
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/dealflow/models"
	"go.uber.org/zap"
)

type TransitionRequest struct {
	DealID    string
	ToStageID string
	ChangedBy string
	Reason    string
	// Probability overrides the target stage default when set.
	Probability *int
}

// Transition moves a deal to another stage of its own pipeline. Moving to the
// current stage returns the deal untouched.
func (e *Engine) Transition(ctx context.Context, req TransitionRequest) (models.Deal, error) {
	defer e.observe("transition", time.Now())

	if err := ctx.Err(); err != nil {
		return models.Deal{}, err
	}
	if req.ChangedBy == "" {
		return models.Deal{}, validationf("changed_by is required")
	}
	if p := req.Probability; p != nil && (*p < 0 || *p > 100) {
		return models.Deal{}, validationf("probability %d outside 0-100", *p)
	}

	unlock := e.store.Lock(req.DealID)
	defer unlock()
	return e.transitionLocked(ctx, req)
}

func (e *Engine) transitionLocked(ctx context.Context, req TransitionRequest) (models.Deal, error) {
	deal, err := e.store.Get(req.DealID)
	if err != nil {
		return models.Deal{}, fmt.Errorf("%w: %s", ErrUnknownDeal, req.DealID)
	}
	pipeline, err := e.catalog.Pipeline(deal.PipelineID)
	if err != nil {
		return models.Deal{}, fmt.Errorf("%w: %s", ErrUnknownPipeline, deal.PipelineID)
	}
	target, ok := pipeline.Stage(req.ToStageID)
	if !ok {
		return models.Deal{}, fmt.Errorf("%w: %s is not in pipeline %s", ErrInvalidStage, req.ToStageID, pipeline.ID)
	}
	if target.ID == deal.StageID {
		return deal, nil
	}

	from := deal.StageID
	now := e.entryTime(deal)

	if cur, ok := deal.CurrentEntry(); ok {
		exited := now
		hours := exited.Sub(cur.EnteredAt).Hours()
		cur.ExitedAt = &exited
		cur.DurationHours = &hours
	}
	deal.StageHistory = append(deal.StageHistory, models.StageHistoryEntry{
		ID:          e.newID(),
		FromStageID: from,
		ToStageID:   target.ID,
		EnteredAt:   now,
		ChangedBy:   req.ChangedBy,
		Reason:      req.Reason,
	})

	deal.StageID = target.ID
	deal.Probability = target.Probability
	if req.Probability != nil {
		deal.Probability = *req.Probability
	}

	if target.IsClosed() {
		if deal.ActualCloseDate == nil {
			closed := now
			deal.ActualCloseDate = &closed
		}
	} else {
		// reopened deals lose their close date
		deal.ActualCloseDate = nil
	}

	committed, err := e.commit(ctx, deal)
	if err != nil && !errors.Is(err, ErrTransport) {
		return models.Deal{}, err
	}

	e.recorder.TransitionApplied(pipeline.ID, target.ID)
	e.logger.Info("deal transitioned",
		zap.String("deal_id", deal.ID),
		zap.String("from", from),
		zap.String("to", target.ID),
		zap.String("changed_by", req.ChangedBy))
	return committed, err
}

// entryTime keeps history strictly ordered when the clock has not advanced
// past the latest entry.
func (e *Engine) entryTime(d models.Deal) time.Time {
	now := e.now()
	if n := len(d.StageHistory); n > 0 {
		last := d.StageHistory[n-1].EnteredAt
		if !now.After(last) {
			now = last.Add(time.Millisecond)
		}
	}
	return now
}

// Step moves a deal by offset positions within its pipeline, clamped to the
// first and last stage. Used by the kanban board.
func (e *Engine) Step(ctx context.Context, dealID string, offset int, changedBy string) (models.Deal, error) {
	deal, err := e.Deal(dealID)
	if err != nil {
		return models.Deal{}, err
	}
	pipeline, err := e.catalog.Pipeline(deal.PipelineID)
	if err != nil {
		return models.Deal{}, fmt.Errorf("%w: %s", ErrUnknownPipeline, deal.PipelineID)
	}

	idx := -1
	for i, s := range pipeline.Stages {
		if s.ID == deal.StageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Deal{}, fmt.Errorf("%w: %s is not in pipeline %s", ErrInvalidStage, deal.StageID, pipeline.ID)
	}

	next := min(max(idx+offset, 0), len(pipeline.Stages)-1)
	return e.Transition(ctx, TransitionRequest{
		DealID:    dealID,
		ToStageID: pipeline.Stages[next].ID,
		ChangedBy: changedBy,
	})
}
