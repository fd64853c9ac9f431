// ABOUTME: Deal creation, detail edits and activity logging
// ABOUTME: Pipeline placement changes are left to Transition
package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealflow/models"
	"go.uber.org/zap"
)

type NewDeal struct {
	Name              string
	AccountID         string
	ContactID         string
	OwnerID           string
	PipelineID        string
	StageID           string
	Amount            float64
	Currency          string
	Probability       *int
	ExpectedCloseDate *time.Time
	DealType          string
	LeadSource        string
	Priority          string
	Description       string
	NextSteps         string
	Notes             string
	Tags              []string
	CustomFields      map[string]string
	CreatedBy         string
}

// Create places a new deal in its initial stage with a single history entry.
// Pipeline defaults to the catalog default and stage to its first stage.
func (e *Engine) Create(ctx context.Context, in NewDeal) (models.Deal, error) {
	defer e.observe("create", time.Now())

	if strings.TrimSpace(in.Name) == "" {
		return models.Deal{}, validationf("name is required")
	}

	pipeline, err := e.catalog.DefaultPipeline()
	if in.PipelineID != "" {
		pipeline, err = e.catalog.Pipeline(in.PipelineID)
	}
	if err != nil {
		return models.Deal{}, fmt.Errorf("%w: %s", ErrUnknownPipeline, in.PipelineID)
	}

	stage := pipeline.Stages[0]
	if in.StageID != "" {
		s, ok := pipeline.Stage(in.StageID)
		if !ok {
			return models.Deal{}, fmt.Errorf("%w: %s is not in pipeline %s", ErrInvalidStage, in.StageID, pipeline.ID)
		}
		stage = s
	}

	owner := cmp.Or(in.OwnerID, in.CreatedBy)
	createdBy := cmp.Or(in.CreatedBy, owner)
	now := e.now()

	d := models.Deal{
		ID:                uuid.New().String(),
		Name:              strings.TrimSpace(in.Name),
		AccountID:         in.AccountID,
		ContactID:         in.ContactID,
		OwnerID:           owner,
		PipelineID:        pipeline.ID,
		StageID:           stage.ID,
		Amount:            in.Amount,
		Currency:          cmp.Or(in.Currency, models.CurrencyUSD),
		Probability:       stage.Probability,
		ExpectedCloseDate: in.ExpectedCloseDate,
		DealType:          cmp.Or(in.DealType, models.DealTypeNewBusiness),
		LeadSource:        in.LeadSource,
		Description:       in.Description,
		NextSteps:         in.NextSteps,
		Notes:             in.Notes,
		Tags:              in.Tags,
		CustomFields:      in.CustomFields,
		Priority:          cmp.Or(in.Priority, models.PriorityMedium),
		Health:            models.HealthHealthy,
		StageHistory: []models.StageHistoryEntry{{
			ID:        e.newID(),
			ToStageID: stage.ID,
			EnteredAt: now,
			ChangedBy: createdBy,
			Reason:    "created",
		}},
		CreatedAt: now,
		CreatedBy: createdBy,
	}
	if in.Probability != nil {
		d.Probability = *in.Probability
	}
	if stage.IsClosed() {
		closed := now
		d.ActualCloseDate = &closed
	}

	e.createMu.Lock()
	defer e.createMu.Unlock()
	d.DealNumber = e.store.NextDealNumber()

	committed, err := e.commit(ctx, d)
	if err != nil && !errors.Is(err, ErrTransport) {
		return models.Deal{}, err
	}
	e.logger.Info("deal created",
		zap.String("deal_id", committed.ID),
		zap.String("deal_number", committed.DealNumber),
		zap.String("pipeline", committed.PipelineID),
		zap.String("stage", committed.StageID))
	return committed, err
}

// DealPatch edits fields outside pipeline placement. Nil fields are left alone.
type DealPatch struct {
	Name              *string
	AccountID         *string
	ContactID         *string
	OwnerID           *string
	Amount            *float64
	Currency          *string
	ExpectedCloseDate *time.Time
	ClearCloseDate    bool
	DealType          *string
	LeadSource        *string
	Priority          *string
	Health            *string
	Description       *string
	NextSteps         *string
	Notes             *string
	Tags              *[]string
	CustomFields      map[string]string
}

func (p DealPatch) apply(d *models.Deal) {
	setString(&d.Name, p.Name)
	setString(&d.AccountID, p.AccountID)
	setString(&d.ContactID, p.ContactID)
	setString(&d.OwnerID, p.OwnerID)
	setString(&d.Currency, p.Currency)
	setString(&d.DealType, p.DealType)
	setString(&d.LeadSource, p.LeadSource)
	setString(&d.Priority, p.Priority)
	setString(&d.Health, p.Health)
	setString(&d.Description, p.Description)
	setString(&d.NextSteps, p.NextSteps)
	setString(&d.Notes, p.Notes)
	if p.Amount != nil {
		d.Amount = *p.Amount
	}
	if p.ExpectedCloseDate != nil {
		t := *p.ExpectedCloseDate
		d.ExpectedCloseDate = &t
	}
	if p.ClearCloseDate {
		d.ExpectedCloseDate = nil
	}
	if p.Tags != nil {
		d.Tags = slices.Clone(*p.Tags)
	}
	if len(p.CustomFields) > 0 && d.CustomFields == nil {
		d.CustomFields = make(map[string]string, len(p.CustomFields))
	}
	for k, v := range p.CustomFields {
		if v == "" {
			delete(d.CustomFields, k)
			continue
		}
		d.CustomFields[k] = v
	}
}

// UpdateDetails applies a patch and validates the result before committing.
func (e *Engine) UpdateDetails(ctx context.Context, id string, patch DealPatch) (models.Deal, error) {
	defer e.observe("update", time.Now())

	unlock := e.store.Lock(id)
	defer unlock()
	return e.mutateLocked(ctx, id, func(d *models.Deal) error {
		patch.apply(d)
		return nil
	})
}

// mutateLocked loads, edits and commits one deal. The caller holds the deal lock.
func (e *Engine) mutateLocked(ctx context.Context, id string, edit func(*models.Deal) error) (models.Deal, error) {
	d, err := e.store.Get(id)
	if err != nil {
		return models.Deal{}, fmt.Errorf("%w: %s", ErrUnknownDeal, id)
	}
	if err := edit(&d); err != nil {
		return models.Deal{}, err
	}
	committed, err := e.commit(ctx, d)
	if err != nil && !errors.Is(err, ErrTransport) {
		return models.Deal{}, err
	}
	return committed, err
}

var activityTypes = []string{
	models.ActivityCall, models.ActivityEmail, models.ActivityMeeting,
	models.ActivityTask, models.ActivityNote,
}

// LogActivity appends an activity and stamps LastActivityAt.
func (e *Engine) LogActivity(ctx context.Context, dealID string, a models.Activity) (models.Deal, error) {
	if !slices.Contains(activityTypes, a.Type) {
		return models.Deal{}, validationf("unknown activity type %q", a.Type)
	}
	if strings.TrimSpace(a.Subject) == "" {
		return models.Deal{}, validationf("activity subject is required")
	}

	unlock := e.store.Lock(dealID)
	defer unlock()

	now := e.now()
	a.ID = e.newID()
	a.CreatedAt = now
	if a.Status == "" {
		a.Status = models.ActivityCompleted
	}
	if a.Status == models.ActivityCompleted && a.CompletedAt == nil {
		done := now
		a.CompletedAt = &done
	}

	d, err := e.mutateLocked(ctx, dealID, func(d *models.Deal) error {
		d.Activities = append(d.Activities, a)
		touched := now
		d.LastActivityAt = &touched
		return nil
	})
	if d.ID != "" {
		e.logger.Info("activity logged",
			zap.String("deal_id", dealID),
			zap.String("type", a.Type))
	}
	return d, err
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
