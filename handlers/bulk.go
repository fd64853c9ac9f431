// ABOUTME: Bulk deal MCP tool handler
// ABOUTME: Implements bulk_update_deals with per-deal outcomes
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/dealflow/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type BulkHandlers struct {
	engine *engine.Engine
	user   string
}

func NewBulkHandlers(e *engine.Engine, user string) *BulkHandlers {
	return &BulkHandlers{engine: e, user: user}
}

type BulkUpdateDealsInput struct {
	Action  string   `json:"action" jsonschema:"transfer, update-stage, add-tags, remove-tags, archive or delete"`
	DealIDs []string `json:"deal_ids" jsonschema:"Deals to act on (required)"`
	OwnerID string   `json:"owner_id,omitempty" jsonschema:"New owner for transfer"`
	StageID string   `json:"stage_id,omitempty" jsonschema:"Target stage for update-stage"`
	Tags    []string `json:"tags,omitempty" jsonschema:"Tags for add-tags and remove-tags"`
	Reason  string   `json:"reason,omitempty" jsonschema:"Reason recorded on stage changes"`
}

type ItemErrorOutput struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

type BulkUpdateDealsOutput struct {
	Action    string            `json:"action"`
	Succeeded []string          `json:"succeeded"`
	Failed    []ItemErrorOutput `json:"failed"`
	Unsynced  []ItemErrorOutput `json:"unsynced,omitempty"`
}

func (h *BulkHandlers) BulkUpdateDeals(ctx context.Context, request *mcp.CallToolRequest, input BulkUpdateDealsInput) (*mcp.CallToolResult, BulkUpdateDealsOutput, error) {
	if len(input.DealIDs) == 0 {
		return nil, BulkUpdateDealsOutput{}, fmt.Errorf("deal_ids is required")
	}

	res, err := h.engine.Apply(ctx, engine.BulkAction(input.Action), input.DealIDs, engine.BulkParams{
		OwnerID:   input.OwnerID,
		StageID:   input.StageID,
		Tags:      input.Tags,
		ChangedBy: h.user,
		Reason:    input.Reason,
	})
	if err != nil {
		return nil, BulkUpdateDealsOutput{}, fmt.Errorf("failed to apply %s: %w", input.Action, err)
	}

	return nil, BulkUpdateDealsOutput{
		Action:    input.Action,
		Succeeded: res.Succeeded,
		Failed:    itemErrors(res.Failed),
		Unsynced:  itemErrors(res.Unsynced),
	}, nil
}

func itemErrors(errs []engine.ItemError) []ItemErrorOutput {
	if errs == nil {
		return nil
	}
	out := make([]ItemErrorOutput, 0, len(errs))
	for _, e := range errs {
		out = append(out, ItemErrorOutput{ID: e.ID, Kind: engine.Kind(e.Err), Error: e.Err.Error()})
	}
	return out
}
