// ABOUTME: Deal MCP tool handlers
// ABOUTME: Implements create_deal, update_deal, transition_deal, deal_history and log_deal_activity
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/dealflow/engine"
	"github.com/harperreed/dealflow/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type DealHandlers struct {
	engine *engine.Engine
	user   string
	now    func() time.Time
}

// NewDealHandlers attributes every change to user.
func NewDealHandlers(e *engine.Engine, user string) *DealHandlers {
	return &DealHandlers{engine: e, user: user, now: time.Now}
}

type CreateDealInput struct {
	Name              string   `json:"name" jsonschema:"Deal name (required)"`
	PipelineID        string   `json:"pipeline_id,omitempty" jsonschema:"Pipeline id (default: the default pipeline)"`
	StageID           string   `json:"stage_id,omitempty" jsonschema:"Initial stage id (default: first stage of the pipeline)"`
	Amount            float64  `json:"amount,omitempty" jsonschema:"Deal amount in major currency units"`
	Currency          string   `json:"currency,omitempty" jsonschema:"Currency code: USD, EUR, GBP, CAD, AUD (default USD)"`
	Probability       *int     `json:"probability,omitempty" jsonschema:"Win probability 0-100 (default: the stage probability)"`
	ExpectedCloseDate string   `json:"expected_close_date,omitempty" jsonschema:"Expected close date in ISO 8601 format"`
	AccountID         string   `json:"account_id,omitempty" jsonschema:"Account the deal belongs to"`
	ContactID         string   `json:"contact_id,omitempty" jsonschema:"Primary contact"`
	OwnerID           string   `json:"owner_id,omitempty" jsonschema:"Owner (default: the current user)"`
	DealType          string   `json:"deal_type,omitempty" jsonschema:"new-business, existing-business, upsell or renewal"`
	Priority          string   `json:"priority,omitempty" jsonschema:"low, medium, high or urgent"`
	LeadSource        string   `json:"lead_source,omitempty" jsonschema:"Where the lead came from"`
	Description       string   `json:"description,omitempty" jsonschema:"Free text description"`
	Tags              []string `json:"tags,omitempty" jsonschema:"Tags to attach"`
}

type DealOutput struct {
	ID                string            `json:"id"`
	DealNumber        string            `json:"deal_number"`
	Name              string            `json:"name"`
	PipelineID        string            `json:"pipeline_id"`
	StageID           string            `json:"stage_id"`
	Status            string            `json:"status"`
	Amount            float64           `json:"amount"`
	Currency          string            `json:"currency"`
	Probability       int               `json:"probability"`
	WeightedValue     float64           `json:"weighted_value"`
	Score             int               `json:"score"`
	OwnerID           string            `json:"owner_id"`
	AccountID         string            `json:"account_id,omitempty"`
	ContactID         string            `json:"contact_id,omitempty"`
	DealType          string            `json:"deal_type"`
	Priority          string            `json:"priority"`
	Health            string            `json:"health"`
	Tags              []string          `json:"tags"`
	CustomFields      map[string]string `json:"custom_fields,omitempty"`
	ExpectedCloseDate *string           `json:"expected_close_date,omitempty"`
	ActualCloseDate   *string           `json:"actual_close_date,omitempty"`
	LastActivityAt    *string           `json:"last_activity_at,omitempty"`
	CreatedAt         string            `json:"created_at"`
	UpdatedAt         string            `json:"updated_at"`
}

func (h *DealHandlers) CreateDeal(ctx context.Context, request *mcp.CallToolRequest, input CreateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	closeDate, err := parseDate("expected_close_date", input.ExpectedCloseDate)
	if err != nil {
		return nil, DealOutput{}, err
	}

	d, err := h.engine.Create(ctx, engine.NewDeal{
		Name:              input.Name,
		PipelineID:        input.PipelineID,
		StageID:           input.StageID,
		Amount:            input.Amount,
		Currency:          input.Currency,
		Probability:       input.Probability,
		ExpectedCloseDate: closeDate,
		AccountID:         input.AccountID,
		ContactID:         input.ContactID,
		OwnerID:           input.OwnerID,
		DealType:          input.DealType,
		Priority:          input.Priority,
		LeadSource:        input.LeadSource,
		Description:       input.Description,
		Tags:              input.Tags,
		CreatedBy:         h.user,
	})
	if err != nil && d.ID == "" {
		return nil, DealOutput{}, fmt.Errorf("failed to create deal: %w", err)
	}
	return syncWarning(err), dealToOutput(h.engine.Catalog(), d, h.now()), nil
}

type UpdateDealInput struct {
	ID                string            `json:"id" jsonschema:"Deal id (required)"`
	Name              *string           `json:"name,omitempty" jsonschema:"New deal name"`
	Amount            *float64          `json:"amount,omitempty" jsonschema:"New amount"`
	Currency          *string           `json:"currency,omitempty" jsonschema:"New currency code"`
	OwnerID           *string           `json:"owner_id,omitempty" jsonschema:"New owner"`
	Priority          *string           `json:"priority,omitempty" jsonschema:"low, medium, high or urgent"`
	Health            *string           `json:"health,omitempty" jsonschema:"healthy, at-risk, stalled or archived"`
	ExpectedCloseDate *string           `json:"expected_close_date,omitempty" jsonschema:"Expected close date in ISO 8601 format, empty string clears it"`
	NextSteps         *string           `json:"next_steps,omitempty" jsonschema:"Next steps"`
	Notes             *string           `json:"notes,omitempty" jsonschema:"Notes"`
	Tags              []string          `json:"tags,omitempty" jsonschema:"Replacement tag set"`
	CustomFields      map[string]string `json:"custom_fields,omitempty" jsonschema:"Custom fields to set, empty values remove the field"`
}

func (h *DealHandlers) UpdateDeal(ctx context.Context, request *mcp.CallToolRequest, input UpdateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	if input.ID == "" {
		return nil, DealOutput{}, fmt.Errorf("id is required")
	}

	patch := engine.DealPatch{
		Name:         input.Name,
		Amount:       input.Amount,
		Currency:     input.Currency,
		OwnerID:      input.OwnerID,
		Priority:     input.Priority,
		Health:       input.Health,
		NextSteps:    input.NextSteps,
		Notes:        input.Notes,
		CustomFields: input.CustomFields,
	}
	if input.Tags != nil {
		patch.Tags = &input.Tags
	}
	if input.ExpectedCloseDate != nil {
		if *input.ExpectedCloseDate == "" {
			patch.ClearCloseDate = true
		} else {
			t, err := parseDate("expected_close_date", *input.ExpectedCloseDate)
			if err != nil {
				return nil, DealOutput{}, err
			}
			patch.ExpectedCloseDate = t
		}
	}

	d, err := h.engine.UpdateDetails(ctx, input.ID, patch)
	if err != nil && d.ID == "" {
		return nil, DealOutput{}, fmt.Errorf("failed to update deal: %w", err)
	}
	return syncWarning(err), dealToOutput(h.engine.Catalog(), d, h.now()), nil
}

type TransitionDealInput struct {
	DealID      string `json:"deal_id" jsonschema:"Deal id (required)"`
	ToStageID   string `json:"to_stage_id" jsonschema:"Target stage id within the deal's pipeline (required)"`
	Reason      string `json:"reason,omitempty" jsonschema:"Why the deal moved"`
	Probability *int   `json:"probability,omitempty" jsonschema:"Override probability 0-100 (default: the target stage probability)"`
}

func (h *DealHandlers) TransitionDeal(ctx context.Context, request *mcp.CallToolRequest, input TransitionDealInput) (*mcp.CallToolResult, DealOutput, error) {
	if input.DealID == "" {
		return nil, DealOutput{}, fmt.Errorf("deal_id is required")
	}
	if input.ToStageID == "" {
		return nil, DealOutput{}, fmt.Errorf("to_stage_id is required")
	}

	d, err := h.engine.Transition(ctx, engine.TransitionRequest{
		DealID:      input.DealID,
		ToStageID:   input.ToStageID,
		ChangedBy:   h.user,
		Reason:      input.Reason,
		Probability: input.Probability,
	})
	if err != nil && d.ID == "" {
		return nil, DealOutput{}, fmt.Errorf("failed to move deal: %w", err)
	}
	return syncWarning(err), dealToOutput(h.engine.Catalog(), d, h.now()), nil
}

type DealHistoryInput struct {
	DealID string `json:"deal_id" jsonschema:"Deal id (required)"`
}

type HistoryEntryOutput struct {
	FromStageID   string   `json:"from_stage_id,omitempty"`
	ToStageID     string   `json:"to_stage_id"`
	EnteredAt     string   `json:"entered_at"`
	ExitedAt      *string  `json:"exited_at,omitempty"`
	DurationHours *float64 `json:"duration_hours,omitempty"`
	ChangedBy     string   `json:"changed_by"`
	Reason        string   `json:"reason,omitempty"`
}

type DealHistoryOutput struct {
	DealID  string               `json:"deal_id"`
	Entries []HistoryEntryOutput `json:"entries"`
}

func (h *DealHandlers) DealHistory(_ context.Context, request *mcp.CallToolRequest, input DealHistoryInput) (*mcp.CallToolResult, DealHistoryOutput, error) {
	history, err := h.engine.History(input.DealID)
	if err != nil {
		return nil, DealHistoryOutput{}, err
	}

	out := DealHistoryOutput{DealID: input.DealID, Entries: make([]HistoryEntryOutput, 0, len(history))}
	for _, e := range history {
		out.Entries = append(out.Entries, HistoryEntryOutput{
			FromStageID:   e.FromStageID,
			ToStageID:     e.ToStageID,
			EnteredAt:     e.EnteredAt.Format(time.RFC3339),
			ExitedAt:      formatTime(e.ExitedAt),
			DurationHours: e.DurationHours,
			ChangedBy:     e.ChangedBy,
			Reason:        e.Reason,
		})
	}
	return nil, out, nil
}

type LogDealActivityInput struct {
	DealID      string `json:"deal_id" jsonschema:"Deal id (required)"`
	Type        string `json:"type" jsonschema:"call, email, meeting, task or note"`
	Subject     string `json:"subject" jsonschema:"Short subject line (required)"`
	Description string `json:"description,omitempty" jsonschema:"Details"`
}

func (h *DealHandlers) LogDealActivity(ctx context.Context, request *mcp.CallToolRequest, input LogDealActivityInput) (*mcp.CallToolResult, DealOutput, error) {
	d, err := h.engine.LogActivity(ctx, input.DealID, models.Activity{
		Type:        input.Type,
		Subject:     input.Subject,
		Description: input.Description,
		CreatedBy:   h.user,
	})
	if err != nil && d.ID == "" {
		return nil, DealOutput{}, fmt.Errorf("failed to log activity: %w", err)
	}
	return syncWarning(err), dealToOutput(h.engine.Catalog(), d, h.now()), nil
}

func dealToOutput(status engine.StatusResolver, d models.Deal, now time.Time) DealOutput {
	return DealOutput{
		ID:                d.ID,
		DealNumber:        d.DealNumber,
		Name:              d.Name,
		PipelineID:        d.PipelineID,
		StageID:           d.StageID,
		Status:            engine.DealStatus(status, d),
		Amount:            d.Amount,
		Currency:          d.Currency,
		Probability:       d.Probability,
		WeightedValue:     d.WeightedValue(),
		Score:             engine.Score(d, now),
		OwnerID:           d.OwnerID,
		AccountID:         d.AccountID,
		ContactID:         d.ContactID,
		DealType:          d.DealType,
		Priority:          d.Priority,
		Health:            d.Health,
		Tags:              d.Tags,
		CustomFields:      d.CustomFields,
		ExpectedCloseDate: formatTime(d.ExpectedCloseDate),
		ActualCloseDate:   formatTime(d.ActualCloseDate),
		LastActivityAt:    formatTime(d.LastActivityAt),
		CreatedAt:         d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         d.UpdatedAt.Format(time.RFC3339),
	}
}

// syncWarning turns a persistence failure on an otherwise applied change into
// a visible note without failing the tool call.
func syncWarning(err error) *mcp.CallToolResult {
	if err == nil {
		return nil
	}
	return &mcp.CallToolResult{Content: []mcp.Content{
		&mcp.TextContent{Text: fmt.Sprintf("warning: change applied locally but not persisted: %v", err)},
	}}
}

func parseDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s format (use ISO 8601/RFC3339): %s", field, s)
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
