// ABOUTME: MCP prompt handlers for reusable pipeline workflow templates
// ABOUTME: Provides pipeline-review and deal-analysis prompts
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/dealflow/engine"
	"github.com/harperreed/dealflow/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	engine *engine.Engine
	now    func() time.Time
}

func NewPromptHandlers(e *engine.Engine) *PromptHandlers {
	return &PromptHandlers{engine: e, now: time.Now}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "pipeline-review":
		return h.getPipelineReviewPrompt(request.Params.Arguments)
	case "deal-analysis":
		return h.getDealAnalysisPrompt(request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getPipelineReviewPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	cat := h.engine.Catalog()
	pipeline, err := cat.DefaultPipeline()
	if id := args["pipeline_id"]; id != "" {
		pipeline, err = cat.Pipeline(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve pipeline: %w", err)
	}

	f := models.Filter{PipelineID: pipeline.ID, OwnerID: args["owner_id"]}
	res, err := h.engine.Query(engine.QueryOptions{Filter: f})
	if err != nil {
		return nil, err
	}
	m := engine.Summarize(cat, res.Items)

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Please review the %s:\n\n", pipeline.Name))
	for _, s := range engine.StageBreakdown(pipeline, res.Items) {
		promptText.WriteString(fmt.Sprintf("- %s: %d deals, %.2f total, %.2f weighted, avg %.1f hours in stage\n",
			s.Name, s.Count, s.Value, s.WeightedValue, s.AvgHours))
	}
	promptText.WriteString(fmt.Sprintf("\nTotal value: %.2f (weighted %.2f)\n", m.TotalValue, m.WeightedValue))
	promptText.WriteString(fmt.Sprintf("Won %d, lost %d, open %d, win rate %.0f%%\n", m.WonCount, m.LostCount, m.OpenCount, m.WinRate*100))

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. Where deals are getting stuck")
	promptText.WriteString("\n2. Which open deals deserve attention this week")
	promptText.WriteString("\n3. Whether the weighted forecast looks realistic")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review of %s", pipeline.Name),
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: promptText.String()}},
		},
	}, nil
}

func (h *PromptHandlers) getDealAnalysisPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	id, ok := args["deal_id"]
	if !ok || id == "" {
		return nil, fmt.Errorf("deal_id is required")
	}
	deal, err := h.engine.Deal(id)
	if err != nil {
		return nil, err
	}

	var promptText strings.Builder
	promptText.WriteString("Please analyze this deal:\n\n")
	promptText.WriteString(fmt.Sprintf("Deal: %s (%s)\n", deal.Name, deal.DealNumber))
	promptText.WriteString(fmt.Sprintf("Amount: %.2f %s at %d%%\n", deal.Amount, deal.Currency, deal.Probability))
	promptText.WriteString(fmt.Sprintf("Stage: %s in %s\n", deal.StageID, deal.PipelineID))
	promptText.WriteString(fmt.Sprintf("Priority: %s, health: %s, score: %d\n", deal.Priority, deal.Health, engine.Score(deal, h.now())))
	if deal.ExpectedCloseDate != nil {
		promptText.WriteString(fmt.Sprintf("Expected close: %s\n", deal.ExpectedCloseDate.Format(time.DateOnly)))
	}

	promptText.WriteString("\nStage history:\n")
	for _, e := range deal.StageHistory {
		line := fmt.Sprintf("- %s entered %s", e.ToStageID, e.EnteredAt.Format(time.DateOnly))
		if e.DurationHours != nil {
			line += fmt.Sprintf(", stayed %.1f hours", *e.DurationHours)
		}
		if e.Reason != "" {
			line += fmt.Sprintf(" (%s)", e.Reason)
		}
		promptText.WriteString(line + "\n")
	}
	if deal.NextSteps != "" {
		promptText.WriteString(fmt.Sprintf("\nNext steps: %s\n", deal.NextSteps))
	}

	promptText.WriteString("\nPlease suggest how to move this deal forward and flag any risks.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Analysis for deal: %s", deal.Name),
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: promptText.String()}},
		},
	}, nil
}
